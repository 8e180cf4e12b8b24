package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
)

// sessionAwaitingPayment builds a session in PaymentProcessing holding a
// gateway transaction reference
func sessionAwaitingPayment(t *testing.T, tenantID uuid.UUID, gatewayID uuid.UUID) *checkout.Session {
	t.Helper()
	session := sessionReadyForPayment(t, tenantID)
	require.NoError(t, session.SelectPaymentMethod(checkout.PaymentMethodVNPay, &gatewayID))
	require.NoError(t, session.SetGatewayTransaction(session.ID.String()))
	require.NoError(t, session.MarkAsPaymentProcessing())
	session.ClearDomainEvents()
	return session
}

func newWebhookFixture(t *testing.T, tenantID uuid.UUID) (*WebhookService, *MockSessionRepository, *MockProvider, *MockIdempotencyStore, *MockOrderNumberGenerator, *payment.GatewayConfig) {
	t.Helper()
	config := enabledGatewayConfig(t, tenantID, payment.ProviderVNPay)

	sessions := new(MockSessionRepository)
	provider := new(MockProvider)
	idempotency := new(MockIdempotencyStore)
	orderNumbers := new(MockOrderNumberGenerator)

	gateways := new(MockGatewayConfigRepository)
	gateways.On("FindByProvider", mock.Anything, tenantID, payment.ProviderVNPay).Return(config, nil)

	svc := NewWebhookService(sessions, gateways, fixedProviderFactory(provider), idempotency, orderNumbers, time.Hour, nil)
	return svc, sessions, provider, idempotency, orderNumbers, config
}

func TestWebhookService_HandleWebhook(t *testing.T) {
	t.Run("completes the session on a paid callback", func(t *testing.T) {
		tenantID := uuid.New()
		svc, sessions, provider, idempotency, orderNumbers, _ := newWebhookFixture(t, tenantID)
		session := sessionAwaitingPayment(t, tenantID, uuid.New())
		txnID := session.GatewayTransactionID

		provider.On("ValidateWebhook", mock.Anything).Return(&payment.WebhookResult{
			IsValid:       true,
			EventID:       "evt-001",
			TransactionID: txnID,
			Status:        payment.StatusPaid,
			Amount:        decimal.NewFromInt(1030000),
			RawStatus:     "00",
		}, nil)
		idempotency.On("MarkProcessed", mock.Anything, "VNPAY:"+tenantID.String()+":evt-001", time.Hour).Return(true, nil)
		sessions.On("FindByGatewayTransactionID", mock.Anything, tenantID, txnID).Return(session, nil)
		orderNumbers.On("NextOrderNumber", mock.Anything, tenantID).Return("ORD-20260828-0001", nil)
		sessions.On("Save", mock.Anything, session).Return(nil)

		ack, err := svc.HandleWebhook(context.Background(), tenantID, payment.ProviderVNPay, &payment.WebhookRequest{})

		require.NoError(t, err)
		assert.Equal(t, session.ID, ack.SessionID)
		assert.Equal(t, "ORD-20260828-0001", ack.OrderNumber)
		assert.False(t, ack.Duplicate)
		assert.Equal(t, checkout.SessionStatusCompleted, session.Status)
		assert.Equal(t, "ORD-20260828-0001", session.OrderNumber)
		require.NotNil(t, session.OrderID)
		sessions.AssertExpectations(t)
	})

	t.Run("rejects an invalid signature before touching state", func(t *testing.T) {
		tenantID := uuid.New()
		svc, sessions, provider, idempotency, _, _ := newWebhookFixture(t, tenantID)

		provider.On("ValidateWebhook", mock.Anything).Return(&payment.WebhookResult{IsValid: false}, nil)

		_, err := svc.HandleWebhook(context.Background(), tenantID, payment.ProviderVNPay, &payment.WebhookRequest{})

		assert.ErrorIs(t, err, shared.ErrSignatureInvalid)
		idempotency.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
		sessions.AssertNotCalled(t, "FindByGatewayTransactionID", mock.Anything, mock.Anything, mock.Anything)
		sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("acknowledges replays without reprocessing", func(t *testing.T) {
		tenantID := uuid.New()
		svc, sessions, provider, idempotency, _, _ := newWebhookFixture(t, tenantID)

		provider.On("ValidateWebhook", mock.Anything).Return(&payment.WebhookResult{
			IsValid:       true,
			EventID:       "evt-replay",
			TransactionID: "txn-1",
			Status:        payment.StatusPaid,
		}, nil)
		idempotency.On("MarkProcessed", mock.Anything, mock.Anything, time.Hour).Return(false, nil)

		ack, err := svc.HandleWebhook(context.Background(), tenantID, payment.ProviderVNPay, &payment.WebhookRequest{})

		require.NoError(t, err)
		assert.True(t, ack.Duplicate)
		sessions.AssertNotCalled(t, "FindByGatewayTransactionID", mock.Anything, mock.Anything, mock.Anything)
		sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("does not double-complete an already completed session", func(t *testing.T) {
		tenantID := uuid.New()
		svc, sessions, provider, idempotency, orderNumbers, _ := newWebhookFixture(t, tenantID)
		session := sessionAwaitingPayment(t, tenantID, uuid.New())
		require.NoError(t, session.Complete(uuid.New(), "ORD-20260828-0007"))
		txnID := session.GatewayTransactionID

		provider.On("ValidateWebhook", mock.Anything).Return(&payment.WebhookResult{
			IsValid:       true,
			EventID:       "evt-002",
			TransactionID: txnID,
			Status:        payment.StatusPaid,
		}, nil)
		idempotency.On("MarkProcessed", mock.Anything, mock.Anything, time.Hour).Return(true, nil)
		sessions.On("FindByGatewayTransactionID", mock.Anything, tenantID, txnID).Return(session, nil)

		ack, err := svc.HandleWebhook(context.Background(), tenantID, payment.ProviderVNPay, &payment.WebhookRequest{})

		require.NoError(t, err)
		assert.Equal(t, "ORD-20260828-0007", ack.OrderNumber)
		orderNumbers.AssertNotCalled(t, "NextOrderNumber", mock.Anything, mock.Anything)
		sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("a failed payment leaves the session where it is", func(t *testing.T) {
		tenantID := uuid.New()
		svc, sessions, provider, idempotency, _, _ := newWebhookFixture(t, tenantID)
		session := sessionAwaitingPayment(t, tenantID, uuid.New())
		txnID := session.GatewayTransactionID

		provider.On("ValidateWebhook", mock.Anything).Return(&payment.WebhookResult{
			IsValid:       true,
			EventID:       "evt-003",
			TransactionID: txnID,
			Status:        payment.StatusFailed,
			RawStatus:     "24",
		}, nil)
		idempotency.On("MarkProcessed", mock.Anything, mock.Anything, time.Hour).Return(true, nil)
		sessions.On("FindByGatewayTransactionID", mock.Anything, tenantID, txnID).Return(session, nil)

		ack, err := svc.HandleWebhook(context.Background(), tenantID, payment.ProviderVNPay, &payment.WebhookRequest{})

		require.NoError(t, err)
		assert.Equal(t, "FAILED", ack.Status)
		assert.Equal(t, checkout.SessionStatusPaymentProcessing, session.Status)
		sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown transaction surfaces not found", func(t *testing.T) {
		tenantID := uuid.New()
		svc, sessions, provider, idempotency, _, _ := newWebhookFixture(t, tenantID)

		provider.On("ValidateWebhook", mock.Anything).Return(&payment.WebhookResult{
			IsValid:       true,
			EventID:       "evt-004",
			TransactionID: "txn-unknown",
			Status:        payment.StatusPaid,
		}, nil)
		idempotency.On("MarkProcessed", mock.Anything, mock.Anything, time.Hour).Return(true, nil)
		sessions.On("FindByGatewayTransactionID", mock.Anything, tenantID, "txn-unknown").Return(nil, shared.ErrNotFound)

		_, err := svc.HandleWebhook(context.Background(), tenantID, payment.ProviderVNPay, &payment.WebhookRequest{})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
