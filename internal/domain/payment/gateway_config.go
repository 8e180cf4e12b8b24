package payment

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Credentials holds provider secrets as an opaque key/value map,
// stored as a JSONB column
type Credentials map[string]string

// Value implements driver.Valuer
func (c Credentials) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (c *Credentials) Scan(value interface{}) error {
	if value == nil {
		*c = Credentials{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for Credentials")
	}
	return json.Unmarshal(data, c)
}

// GatewayConfig is the tenant-scoped configuration of a payment gateway.
// A tenant enables at most one config per provider key.
type GatewayConfig struct {
	shared.TenantAggregateRoot

	Provider    ProviderKey `gorm:"type:varchar(32);not null"`
	DisplayName string      `gorm:"type:varchar(128);not null"`
	Environment Environment `gorm:"type:varchar(16);not null;default:'sandbox'"`
	Credentials Credentials `gorm:"type:jsonb;not null"`
	Enabled     bool        `gorm:"not null;default:false"`
	SortOrder   int         `gorm:"not null;default:0"`
}

// TableName returns the database table name
func (GatewayConfig) TableName() string {
	return "payment_gateway_configs"
}

// NewGatewayConfig creates a new gateway configuration for a tenant
func NewGatewayConfig(tenantID uuid.UUID, provider ProviderKey, displayName string, env Environment, credentials Credentials) (*GatewayConfig, error) {
	if !provider.IsValid() {
		return nil, shared.NewDomainError("INVALID_PROVIDER", fmt.Sprintf("Unknown payment provider %q", provider))
	}
	if displayName == "" {
		displayName = provider.String()
	}
	if !env.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENVIRONMENT", fmt.Sprintf("Unknown gateway environment %q", env))
	}
	if len(credentials) == 0 {
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Gateway credentials cannot be empty")
	}

	config := &GatewayConfig{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Provider:            provider,
		DisplayName:         displayName,
		Environment:         env,
		Credentials:         credentials,
		Enabled:             false,
	}

	config.AddDomainEvent(NewGatewayConfiguredEvent(config))

	return config, nil
}

// UpdateCredentials replaces the stored credentials
func (c *GatewayConfig) UpdateCredentials(credentials Credentials) error {
	if len(credentials) == 0 {
		return shared.NewDomainError("INVALID_CREDENTIALS", "Gateway credentials cannot be empty")
	}
	c.Credentials = credentials
	return nil
}

// SetEnvironment switches between sandbox and production endpoints
func (c *GatewayConfig) SetEnvironment(env Environment) error {
	if !env.IsValid() {
		return shared.NewDomainError("INVALID_ENVIRONMENT", fmt.Sprintf("Unknown gateway environment %q", env))
	}
	c.Environment = env
	return nil
}

// Enable makes the gateway available to checkout
func (c *GatewayConfig) Enable() {
	if c.Enabled {
		return
	}
	c.Enabled = true
	c.AddDomainEvent(NewGatewayEnabledEvent(c))
}

// Disable removes the gateway from checkout without deleting its credentials
func (c *GatewayConfig) Disable() {
	if !c.Enabled {
		return
	}
	c.Enabled = false
	c.AddDomainEvent(NewGatewayDisabledEvent(c))
}

// GatewayConfigRepository defines persistence operations for gateway configs
type GatewayConfigRepository interface {
	Save(ctx context.Context, config *GatewayConfig) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*GatewayConfig, error)
	FindByProvider(ctx context.Context, tenantID uuid.UUID, provider ProviderKey) (*GatewayConfig, error)
	FindEnabled(ctx context.Context, tenantID uuid.UUID) ([]*GatewayConfig, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
