package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionRepository defines persistence operations for checkout sessions.
// Save persists the aggregate with an optimistic-locking version check and
// drains its pending domain events into the transactional outbox.
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Session, error)
	FindByCartID(ctx context.Context, tenantID, cartID uuid.UUID) (*Session, error)
	FindByGatewayTransactionID(ctx context.Context, tenantID uuid.UUID, gatewayTransactionID string) (*Session, error)
	FindActiveByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*Session, error)
	FindExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Session, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// OrderNumberGenerator mints sequential human-readable order numbers at
// completion time
type OrderNumberGenerator interface {
	NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
