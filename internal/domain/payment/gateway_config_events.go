package payment

import (
	"github.com/storefront/backend/internal/domain/shared"
)

// Event types for the payment context
const (
	EventTypeGatewayConfigured = "payment.gateway.configured"
	EventTypeGatewayEnabled    = "payment.gateway.enabled"
	EventTypeGatewayDisabled   = "payment.gateway.disabled"
)

const aggregateTypeGatewayConfig = "GatewayConfig"

// GatewayConfiguredEvent is raised when a tenant configures a gateway
type GatewayConfiguredEvent struct {
	shared.BaseDomainEvent
	Provider    string `json:"provider"`
	Environment string `json:"environment"`
}

// NewGatewayConfiguredEvent creates a new gateway configured event
func NewGatewayConfiguredEvent(c *GatewayConfig) *GatewayConfiguredEvent {
	return &GatewayConfiguredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGatewayConfigured, aggregateTypeGatewayConfig, c.GetID(), c.TenantID),
		Provider:        c.Provider.String(),
		Environment:     string(c.Environment),
	}
}

// GatewayEnabledEvent is raised when a gateway becomes available to checkout
type GatewayEnabledEvent struct {
	shared.BaseDomainEvent
	Provider string `json:"provider"`
}

// NewGatewayEnabledEvent creates a new gateway enabled event
func NewGatewayEnabledEvent(c *GatewayConfig) *GatewayEnabledEvent {
	return &GatewayEnabledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGatewayEnabled, aggregateTypeGatewayConfig, c.GetID(), c.TenantID),
		Provider:        c.Provider.String(),
	}
}

// GatewayDisabledEvent is raised when a gateway is taken out of checkout
type GatewayDisabledEvent struct {
	shared.BaseDomainEvent
	Provider string `json:"provider"`
}

// NewGatewayDisabledEvent creates a new gateway disabled event
func NewGatewayDisabledEvent(c *GatewayConfig) *GatewayDisabledEvent {
	return &GatewayDisabledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGatewayDisabled, aggregateTypeGatewayConfig, c.GetID(), c.TenantID),
		Provider:        c.Provider.String(),
	}
}
