package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "storefront-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 15*time.Minute, cfg.Checkout.SessionTTL)
	assert.Equal(t, 24*time.Hour, cfg.Checkout.WebhookDedupeTTL)
	assert.Equal(t, 5, cfg.Outbox.MaxRetries)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SHOP_APP_PORT", "9090")
	t.Setenv("SHOP_DATABASE_DBNAME", "storefront_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "storefront_test", cfg.Database.DBName)
}

func TestValidate(t *testing.T) {
	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Database.MaxIdleConns = 50
		cfg.Database.MaxOpenConns = 10
		assert.Error(t, cfg.validate())
	})

	t.Run("session ttl floor", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.Checkout.SessionTTL = time.Second
		assert.Error(t, cfg.validate())
	})

	t.Run("production requires jwt secret", func(t *testing.T) {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.App.Env = "production"
		cfg.Database.Password = "pw"
		cfg.Database.SSLMode = "require"
		assert.ErrorContains(t, cfg.validate(), "jwt.secret")
	})
}

func TestDatabaseDSN(t *testing.T) {
	d := &DatabaseConfig{
		Host: "db.internal", Port: 5432,
		User: "shop", Password: "p@ss/word",
		DBName: "storefront", SSLMode: "require",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	assert.NotContains(t, dsn, "p@ss/word", "password must be escaped")
}
