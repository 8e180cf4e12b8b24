package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormSessionRepository implements checkout.SessionRepository using GORM.
// Save runs inside a transaction: the row update carries an optimistic
// version check, and the aggregate's pending domain events are drained
// into the outbox table before commit.
type GormSessionRepository struct {
	db         *gorm.DB
	eventSaver shared.OutboxEventSaver
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB, eventSaver shared.OutboxEventSaver) *GormSessionRepository {
	return &GormSessionRepository{db: db, eventSaver: eventSaver}
}

// Save persists the session. New aggregates are inserted; existing ones are
// updated only if the stored version still matches the loaded version.
func (r *GormSessionRepository) Save(ctx context.Context, session *checkout.Session) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&checkout.Session{}).
			Where("id = ?", session.GetID()).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := tx.Create(session).Error; err != nil {
				return err
			}
		} else {
			loadedVersion := session.Version
			session.Version++
			session.UpdatedAt = time.Now()

			result := tx.Model(&checkout.Session{}).
				Where("id = ? AND version = ?", session.GetID(), loadedVersion).
				Updates(map[string]interface{}{
					"customer_email":           session.CustomerEmail,
					"customer_phone":           session.CustomerPhone,
					"customer_name":            session.CustomerName,
					"shipping_address":         session.ShippingAddress,
					"billing_address":          session.BillingAddress,
					"billing_same_as_shipping": session.BillingSameAsShipping,
					"shipping_method":          session.ShippingMethod,
					"estimated_delivery_at":    session.EstimatedDeliveryAt,
					"payment_method":           session.PaymentMethod,
					"payment_gateway_id":       session.PaymentGatewayID,
					"gateway_transaction_id":   session.GatewayTransactionID,
					"sub_total":                session.SubTotal,
					"discount_amount":          session.DiscountAmount,
					"shipping_cost":            session.ShippingCost,
					"tax_amount":               session.TaxAmount,
					"grand_total":              session.GrandTotal,
					"coupon_code":              session.CouponCode,
					"order_id":                 session.OrderID,
					"order_number":             session.OrderNumber,
					"status":                   session.Status,
					"customer_notes":           session.CustomerNotes,
					"expires_at":               session.ExpiresAt,
					"last_activity_at":         session.LastActivityAt,
					"completed_at":             session.CompletedAt,
					"version":                  session.Version,
					"updated_at":               session.UpdatedAt,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				session.Version = loadedVersion
				return shared.ErrConcurrencyConflict
			}
		}

		if r.eventSaver != nil {
			if err := r.eventSaver.SaveEvents(ctx, tx, session.GetDomainEvents()...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	session.ClearDomainEvents()
	return nil
}

// FindByID finds a session by ID within a tenant
func (r *GormSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*checkout.Session, error) {
	var session checkout.Session
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// FindByCartID finds the most recent session for a cart within a tenant
func (r *GormSessionRepository) FindByCartID(ctx context.Context, tenantID, cartID uuid.UUID) (*checkout.Session, error) {
	var session checkout.Session
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND cart_id = ?", tenantID, cartID).
		Order("created_at DESC").
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// FindByGatewayTransactionID finds the session holding a gateway transaction
// reference, used to correlate webhooks back to the checkout
func (r *GormSessionRepository) FindByGatewayTransactionID(ctx context.Context, tenantID uuid.UUID, gatewayTransactionID string) (*checkout.Session, error) {
	var session checkout.Session
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND gateway_transaction_id = ?", tenantID, gatewayTransactionID).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// FindActiveByUser finds non-terminal sessions belonging to a user
func (r *GormSessionRepository) FindActiveByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*checkout.Session, error) {
	var sessions []*checkout.Session
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND status NOT IN ?", tenantID, userID, []checkout.SessionStatus{
			checkout.SessionStatusCompleted,
			checkout.SessionStatusExpired,
			checkout.SessionStatusAbandoned,
		}).
		Order("last_activity_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// FindExpiredBefore finds non-terminal sessions whose expiration passed
// before the cutoff, for the expiration sweeper
func (r *GormSessionRepository) FindExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]*checkout.Session, error) {
	var sessions []*checkout.Session
	if err := r.db.WithContext(ctx).
		Where("expires_at < ? AND status NOT IN ?", cutoff, []checkout.SessionStatus{
			checkout.SessionStatusCompleted,
			checkout.SessionStatusExpired,
			checkout.SessionStatusAbandoned,
		}).
		Order("expires_at ASC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete removes a session within a tenant
func (r *GormSessionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&checkout.Session{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ checkout.SessionRepository = (*GormSessionRepository)(nil)
