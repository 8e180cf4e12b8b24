package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/payment"
)

// MockSessionRepository is a mock implementation of checkout.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Save(ctx context.Context, session *checkout.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*checkout.Session, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Session), args.Error(1)
}

func (m *MockSessionRepository) FindByCartID(ctx context.Context, tenantID, cartID uuid.UUID) (*checkout.Session, error) {
	args := m.Called(ctx, tenantID, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Session), args.Error(1)
}

func (m *MockSessionRepository) FindByGatewayTransactionID(ctx context.Context, tenantID uuid.UUID, gatewayTransactionID string) (*checkout.Session, error) {
	args := m.Called(ctx, tenantID, gatewayTransactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Session), args.Error(1)
}

func (m *MockSessionRepository) FindActiveByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*checkout.Session, error) {
	args := m.Called(ctx, tenantID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*checkout.Session), args.Error(1)
}

func (m *MockSessionRepository) FindExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]*checkout.Session, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*checkout.Session), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

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

// MockProvider is a mock implementation of payment.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Key() payment.ProviderKey {
	args := m.Called()
	return args.Get(0).(payment.ProviderKey)
}

func (m *MockProvider) DisplayName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProvider) Initialize(credentials map[string]string, env payment.Environment) error {
	args := m.Called(credentials, env)
	return args.Error(0)
}

func (m *MockProvider) InitiatePayment(ctx context.Context, req *payment.InitiateRequest) (*payment.InitiateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.InitiateResult), args.Error(1)
}

func (m *MockProvider) GetPaymentStatus(ctx context.Context, transactionID string) (*payment.StatusResult, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.StatusResult), args.Error(1)
}

func (m *MockProvider) Refund(ctx context.Context, req *payment.RefundRequest) (*payment.RefundResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResult), args.Error(1)
}

func (m *MockProvider) ValidateWebhook(req *payment.WebhookRequest) (*payment.WebhookResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookResult), args.Error(1)
}

func (m *MockProvider) HealthCheck(ctx context.Context) *payment.HealthStatus {
	args := m.Called(ctx)
	return args.Get(0).(*payment.HealthStatus)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockOrderNumberGenerator is a mock implementation of checkout.OrderNumberGenerator
type MockOrderNumberGenerator struct {
	mock.Mock
}

func (m *MockOrderNumberGenerator) NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

func fixedProviderFactory(p payment.Provider) ProviderFactory {
	return func(_ *payment.GatewayConfig) (payment.Provider, error) {
		return p, nil
	}
}
