package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/gateway"
)

// MockGatewayConfigRepository is a mock implementation of payment.GatewayConfigRepository
type MockGatewayConfigRepository struct {
	mock.Mock
}

func (m *MockGatewayConfigRepository) Save(ctx context.Context, config *payment.GatewayConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockGatewayConfigRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payment.GatewayConfig, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.GatewayConfig), args.Error(1)
}

func (m *MockGatewayConfigRepository) FindByProvider(ctx context.Context, tenantID uuid.UUID, provider payment.ProviderKey) (*payment.GatewayConfig, error) {
	args := m.Called(ctx, tenantID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.GatewayConfig), args.Error(1)
}

func (m *MockGatewayConfigRepository) FindEnabled(ctx context.Context, tenantID uuid.UUID) ([]*payment.GatewayConfig, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.GatewayConfig), args.Error(1)
}

func (m *MockGatewayConfigRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func passingProviderFactory(_ *payment.GatewayConfig) (payment.Provider, error) {
	return nil, nil
}

func testRegistry() payment.Registry {
	registry := gateway.NewProviderRegistry()
	registry.Register(gateway.NewVNPayAdapter())
	registry.Register(gateway.NewPayOSAdapter())
	registry.Register(gateway.NewMoMoAdapter())
	return registry
}

func TestGatewayConfigService_Create(t *testing.T) {
	t.Run("creates a disabled configuration", func(t *testing.T) {
		tenantID := uuid.New()

		configs := new(MockGatewayConfigRepository)
		configs.On("FindByProvider", mock.Anything, tenantID, payment.ProviderVNPay).Return(nil, shared.ErrNotFound)
		configs.On("Save", mock.Anything, mock.AnythingOfType("*payment.GatewayConfig")).Return(nil)

		svc := NewGatewayConfigService(configs, testRegistry(), passingProviderFactory, nil)

		resp, err := svc.Create(context.Background(), tenantID, CreateGatewayConfigRequest{
			Provider:    "VNPAY",
			Environment: "sandbox",
			Credentials: map[string]string{"tmn_code": "TEST01", "hash_secret": "secret"},
		})

		require.NoError(t, err)
		assert.Equal(t, "VNPAY", resp.Provider)
		assert.False(t, resp.Enabled)
		assert.ElementsMatch(t, []string{"tmn_code", "hash_secret"}, resp.CredentialKeys)
		configs.AssertExpectations(t)
	})

	t.Run("rejects an unsupported provider", func(t *testing.T) {
		tenantID := uuid.New()

		configs := new(MockGatewayConfigRepository)
		svc := NewGatewayConfigService(configs, testRegistry(), passingProviderFactory, nil)

		_, err := svc.Create(context.Background(), tenantID, CreateGatewayConfigRequest{
			Provider:    "STRIPE",
			Environment: "sandbox",
			Credentials: map[string]string{"api_key": "sk_test"},
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PROVIDER", domainErr.Code)
		configs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects a duplicate provider", func(t *testing.T) {
		tenantID := uuid.New()
		existing, err := payment.NewGatewayConfig(tenantID, payment.ProviderVNPay, "", payment.EnvironmentSandbox, payment.Credentials{"tmn_code": "x", "hash_secret": "y"})
		require.NoError(t, err)

		configs := new(MockGatewayConfigRepository)
		configs.On("FindByProvider", mock.Anything, tenantID, payment.ProviderVNPay).Return(existing, nil)

		svc := NewGatewayConfigService(configs, testRegistry(), passingProviderFactory, nil)

		_, err = svc.Create(context.Background(), tenantID, CreateGatewayConfigRequest{
			Provider:    "VNPAY",
			Environment: "sandbox",
			Credentials: map[string]string{"tmn_code": "TEST01", "hash_secret": "secret"},
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
		configs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects credentials the provider cannot initialize with", func(t *testing.T) {
		tenantID := uuid.New()

		configs := new(MockGatewayConfigRepository)
		configs.On("FindByProvider", mock.Anything, tenantID, payment.ProviderVNPay).Return(nil, shared.ErrNotFound)

		failing := func(_ *payment.GatewayConfig) (payment.Provider, error) {
			return nil, payment.ErrInvalidCredentials
		}
		svc := NewGatewayConfigService(configs, testRegistry(), failing, nil)

		_, err := svc.Create(context.Background(), tenantID, CreateGatewayConfigRequest{
			Provider:    "VNPAY",
			Environment: "sandbox",
			Credentials: map[string]string{"tmn_code": "TEST01"},
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
		configs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestGatewayConfigService_SupportedProviders(t *testing.T) {
	svc := NewGatewayConfigService(new(MockGatewayConfigRepository), testRegistry(), passingProviderFactory, nil)

	assert.Equal(t, []string{"MOMO", "PAYOS", "VNPAY"}, svc.SupportedProviders())
}

func TestGatewayConfigService_EnableDisable(t *testing.T) {
	tenantID := uuid.New()
	config, err := payment.NewGatewayConfig(tenantID, payment.ProviderMoMo, "MoMo Wallet", payment.EnvironmentSandbox, payment.Credentials{
		"partner_code": "p", "access_key": "a", "secret_key": "s",
	})
	require.NoError(t, err)
	config.ClearDomainEvents()

	configs := new(MockGatewayConfigRepository)
	configs.On("FindByID", mock.Anything, tenantID, config.ID).Return(config, nil)
	configs.On("Save", mock.Anything, config).Return(nil)

	svc := NewGatewayConfigService(configs, testRegistry(), passingProviderFactory, nil)

	resp, err := svc.Enable(context.Background(), tenantID, config.ID)
	require.NoError(t, err)
	assert.True(t, resp.Enabled)

	resp, err = svc.Disable(context.Background(), tenantID, config.ID)
	require.NoError(t, err)
	assert.False(t, resp.Enabled)
}
