package payment

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
)

func validCredentials() Credentials {
	return Credentials{
		"tmn_code":    "DEMO01",
		"hash_secret": "SECRETSECRETSECRET",
	}
}

func TestNewGatewayConfig(t *testing.T) {
	t.Run("creates disabled config with event", func(t *testing.T) {
		tenantID := uuid.New()
		config, err := NewGatewayConfig(tenantID, ProviderVNPay, "VNPay Sandbox", EnvironmentSandbox, validCredentials())

		require.NoError(t, err)
		assert.Equal(t, ProviderVNPay, config.Provider)
		assert.Equal(t, tenantID, config.TenantID)
		assert.False(t, config.Enabled)
		assert.Len(t, config.GetDomainEvents(), 1)
	})

	t.Run("defaults display name to provider key", func(t *testing.T) {
		config, err := NewGatewayConfig(uuid.New(), ProviderMoMo, "", EnvironmentSandbox, validCredentials())
		require.NoError(t, err)
		assert.Equal(t, "MOMO", config.DisplayName)
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		_, err := NewGatewayConfig(uuid.New(), "STRIPE", "", EnvironmentSandbox, validCredentials())
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_PROVIDER", domainErr.Code)
	})

	t.Run("rejects empty credentials", func(t *testing.T) {
		_, err := NewGatewayConfig(uuid.New(), ProviderPayOS, "", EnvironmentSandbox, nil)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	})

	t.Run("rejects unknown environment", func(t *testing.T) {
		_, err := NewGatewayConfig(uuid.New(), ProviderPayOS, "", "staging", validCredentials())
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_ENVIRONMENT", domainErr.Code)
	})
}

func TestGatewayConfig_EnableDisable(t *testing.T) {
	config, err := NewGatewayConfig(uuid.New(), ProviderPayOS, "PayOS", EnvironmentProduction, validCredentials())
	require.NoError(t, err)
	config.ClearDomainEvents()

	config.Enable()
	assert.True(t, config.Enabled)
	require.Len(t, config.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeGatewayEnabled, config.GetDomainEvents()[0].EventType())

	// enabling twice raises no second event
	config.Enable()
	assert.Len(t, config.GetDomainEvents(), 1)

	config.Disable()
	assert.False(t, config.Enabled)
	assert.Len(t, config.GetDomainEvents(), 2)
}

func TestStatus_IsFinal(t *testing.T) {
	tests := []struct {
		status Status
		final  bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusPaid, true},
		{StatusFailed, true},
		{StatusCancelled, true},
		{StatusExpired, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.final, tt.status.IsFinal(), "status %s", tt.status)
	}
}

func TestCredentials_Scan(t *testing.T) {
	var c Credentials
	require.NoError(t, c.Scan([]byte(`{"client_id":"abc","api_key":"xyz"}`)))
	assert.Equal(t, "abc", c["client_id"])

	require.NoError(t, c.Scan(nil))
	assert.Empty(t, c)
}
