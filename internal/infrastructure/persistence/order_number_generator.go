package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/checkout"
)

// GormOrderNumberGenerator issues sequential order numbers per tenant per
// day, backed by an upsert on a counter table. Numbers look like
// ORD-20260828-0001.
type GormOrderNumberGenerator struct {
	db *gorm.DB
}

// NewGormOrderNumberGenerator creates a new GormOrderNumberGenerator
func NewGormOrderNumberGenerator(db *gorm.DB) *GormOrderNumberGenerator {
	return &GormOrderNumberGenerator{db: db}
}

// NextOrderNumber atomically increments the tenant's counter for today and
// formats the order number
func (g *GormOrderNumberGenerator) NextOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	day := time.Now().Format("20060102")

	var seq int64
	err := g.db.WithContext(ctx).Raw(`
		INSERT INTO order_number_counters (tenant_id, day, counter)
		VALUES (?, ?, 1)
		ON CONFLICT (tenant_id, day)
		DO UPDATE SET counter = order_number_counters.counter + 1
		RETURNING counter`,
		tenantID, day,
	).Scan(&seq).Error
	if err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}

	return fmt.Sprintf("ORD-%s-%04d", day, seq), nil
}

var _ checkout.OrderNumberGenerator = (*GormOrderNumberGenerator)(nil)
