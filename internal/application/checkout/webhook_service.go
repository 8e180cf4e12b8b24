package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
)

// WebhookService processes gateway payment callbacks: verify the signature,
// deduplicate on the gateway event id, and complete the session on a
// confirmed payment. Replays are acknowledged without re-processing.
type WebhookService struct {
	sessions     checkout.SessionRepository
	gateways     payment.GatewayConfigRepository
	newProvider  ProviderFactory
	idempotency  shared.IdempotencyStore
	orderNumbers checkout.OrderNumberGenerator
	dedupeTTL    time.Duration
	logger       *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	sessions checkout.SessionRepository,
	gateways payment.GatewayConfigRepository,
	newProvider ProviderFactory,
	idempotency shared.IdempotencyStore,
	orderNumbers checkout.OrderNumberGenerator,
	dedupeTTL time.Duration,
	logger *zap.Logger,
) *WebhookService {
	if dedupeTTL <= 0 {
		dedupeTTL = shared.DefaultIdempotencyConfig().TTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookService{
		sessions:     sessions,
		gateways:     gateways,
		newProvider:  newProvider,
		idempotency:  idempotency,
		orderNumbers: orderNumbers,
		dedupeTTL:    dedupeTTL,
		logger:       logger,
	}
}

// HandleWebhook validates and applies a gateway callback for a tenant. An
// invalid signature is rejected before any state is touched. Statuses other
// than Paid are acknowledged without a session transition; the state machine
// is forward-only and the customer retries through SelectPaymentMethod.
func (s *WebhookService) HandleWebhook(ctx context.Context, tenantID uuid.UUID, providerKey payment.ProviderKey, req *payment.WebhookRequest) (*WebhookAck, error) {
	config, err := s.gateways.FindByProvider(ctx, tenantID, providerKey)
	if err != nil {
		return nil, err
	}

	provider, err := s.newProvider(config)
	if err != nil {
		return nil, err
	}

	result, err := provider.ValidateWebhook(req)
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		s.logger.Warn("webhook signature verification failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("provider", providerKey.String()))
		return nil, shared.ErrSignatureInvalid
	}

	eventID := result.EventID
	if eventID == "" {
		eventID = result.TransactionID + ":" + result.RawStatus
	}
	dedupeKey := providerKey.String() + ":" + tenantID.String() + ":" + eventID

	fresh, err := s.idempotency.MarkProcessed(ctx, dedupeKey, s.dedupeTTL)
	if err != nil {
		return nil, err
	}
	if !fresh {
		s.logger.Info("duplicate webhook acknowledged",
			zap.String("provider", providerKey.String()),
			zap.String("event_id", eventID))
		return &WebhookAck{Duplicate: true, Status: result.Status.String()}, nil
	}

	session, err := s.sessions.FindByGatewayTransactionID(ctx, tenantID, result.TransactionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("webhook for unknown transaction",
				zap.String("provider", providerKey.String()),
				zap.String("transaction_id", result.TransactionID))
		}
		return nil, err
	}

	ack := &WebhookAck{SessionID: session.ID, Status: result.Status.String()}

	switch result.Status {
	case payment.StatusPaid:
		if session.Status == checkout.SessionStatusCompleted {
			ack.OrderNumber = session.OrderNumber
			return ack, nil
		}

		orderNumber, err := s.orderNumbers.NextOrderNumber(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if err := session.Complete(uuid.New(), orderNumber); err != nil {
			return nil, err
		}
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}

		ack.OrderNumber = orderNumber
		s.logger.Info("checkout completed via webhook",
			zap.String("session_id", session.ID.String()),
			zap.String("provider", providerKey.String()),
			zap.String("order_number", orderNumber))

	case payment.StatusFailed, payment.StatusCancelled, payment.StatusExpired:
		s.logger.Info("payment not completed",
			zap.String("session_id", session.ID.String()),
			zap.String("provider", providerKey.String()),
			zap.String("status", result.Status.String()),
			zap.String("raw_status", result.RawStatus))

	default:
		// Pending/Processing keep the session where it is.
	}

	return ack, nil
}
