package gateway

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/payment"
)

func TestProviderRegistry(t *testing.T) {
	registry := NewProviderRegistry()

	_, err := registry.Get(payment.ProviderVNPay)
	assert.ErrorIs(t, err, payment.ErrProviderNotFound)

	registry.Register(NewVNPayAdapter())
	registry.Register(NewMoMoAdapter())

	provider, err := registry.Get(payment.ProviderVNPay)
	require.NoError(t, err)
	assert.Equal(t, payment.ProviderVNPay, provider.Key())
	assert.Len(t, registry.Keys(), 2)
}

func TestNewProvider(t *testing.T) {
	for _, key := range []payment.ProviderKey{payment.ProviderVNPay, payment.ProviderPayOS, payment.ProviderMoMo} {
		provider, err := NewProvider(key)
		require.NoError(t, err)
		assert.Equal(t, key, provider.Key())
	}

	_, err := NewProvider("STRIPE")
	assert.ErrorIs(t, err, payment.ErrProviderNotFound)
}

func TestNewProviderFromConfig(t *testing.T) {
	config, err := payment.NewGatewayConfig(uuid.New(), payment.ProviderVNPay, "VNPay", payment.EnvironmentSandbox, payment.Credentials{
		"tmn_code":    "DEMO01",
		"hash_secret": "SECRET",
	})
	require.NoError(t, err)

	provider, err := NewProviderFromConfig(config)
	require.NoError(t, err)
	assert.Equal(t, payment.ProviderVNPay, provider.Key())

	t.Run("bad credentials surface as initialization error", func(t *testing.T) {
		config.Credentials = payment.Credentials{"tmn_code": "DEMO01"}
		_, err := NewProviderFromConfig(config)
		assert.ErrorIs(t, err, payment.ErrInvalidCredentials)
	})
}
