package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormGatewayConfigRepository implements payment.GatewayConfigRepository using GORM
type GormGatewayConfigRepository struct {
	db         *gorm.DB
	eventSaver shared.OutboxEventSaver
}

// NewGormGatewayConfigRepository creates a new GormGatewayConfigRepository
func NewGormGatewayConfigRepository(db *gorm.DB, eventSaver shared.OutboxEventSaver) *GormGatewayConfigRepository {
	return &GormGatewayConfigRepository{db: db, eventSaver: eventSaver}
}

// Save persists the gateway configuration and drains its domain events
func (r *GormGatewayConfigRepository) Save(ctx context.Context, config *payment.GatewayConfig) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(config).Error; err != nil {
			return err
		}
		if r.eventSaver != nil {
			if err := r.eventSaver.SaveEvents(ctx, tx, config.GetDomainEvents()...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	config.ClearDomainEvents()
	return nil
}

// FindByID finds a gateway configuration by ID within a tenant
func (r *GormGatewayConfigRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*payment.GatewayConfig, error) {
	var config payment.GatewayConfig
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &config, nil
}

// FindByProvider finds a tenant's configuration for a specific provider
func (r *GormGatewayConfigRepository) FindByProvider(ctx context.Context, tenantID uuid.UUID, provider payment.ProviderKey) (*payment.GatewayConfig, error) {
	var config payment.GatewayConfig
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ?", tenantID, provider).
		First(&config).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &config, nil
}

// FindEnabled lists a tenant's enabled gateway configurations in display order
func (r *GormGatewayConfigRepository) FindEnabled(ctx context.Context, tenantID uuid.UUID) ([]*payment.GatewayConfig, error) {
	var configs []*payment.GatewayConfig
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND enabled = ?", tenantID, true).
		Order("sort_order ASC, created_at ASC").
		Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// Delete removes a gateway configuration within a tenant
func (r *GormGatewayConfigRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&payment.GatewayConfig{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ payment.GatewayConfigRepository = (*GormGatewayConfigRepository)(nil)
