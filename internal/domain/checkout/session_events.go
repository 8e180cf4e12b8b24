package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Event types for the checkout context
const (
	EventTypeSessionCreated       = "checkout.session.created"
	EventTypeSessionStatusChanged = "checkout.session.status_changed"
	EventTypeAddressSet           = "checkout.session.address_set"
	EventTypeShippingSelected     = "checkout.session.shipping_selected"
	EventTypeSessionCompleted     = "checkout.session.completed"
	EventTypeSessionExpired       = "checkout.session.expired"
	EventTypeSessionAbandoned     = "checkout.session.abandoned"
)

const aggregateTypeSession = "CheckoutSession"

// SessionCreatedEvent is raised when a cart enters checkout
type SessionCreatedEvent struct {
	shared.BaseDomainEvent
	CartID   string          `json:"cart_id"`
	UserID   string          `json:"user_id,omitempty"`
	SubTotal decimal.Decimal `json:"sub_total"`
	Currency string          `json:"currency"`
}

// NewSessionCreatedEvent creates a new session created event
func NewSessionCreatedEvent(s *Session) *SessionCreatedEvent {
	userID := ""
	if s.UserID != nil {
		userID = s.UserID.String()
	}
	return &SessionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionCreated, aggregateTypeSession, s.GetID(), s.TenantID),
		CartID:          s.CartID.String(),
		UserID:          userID,
		SubTotal:        s.SubTotal,
		Currency:        s.Currency.String(),
	}
}

// SessionStatusChangedEvent is raised on every status transition
type SessionStatusChangedEvent struct {
	shared.BaseDomainEvent
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// NewSessionStatusChangedEvent creates a new status changed event
func NewSessionStatusChangedEvent(s *Session, from, to SessionStatus) *SessionStatusChangedEvent {
	return &SessionStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionStatusChanged, aggregateTypeSession, s.GetID(), s.TenantID),
		FromStatus:      from.String(),
		ToStatus:        to.String(),
	}
}

// AddressSetEvent is raised when the shipping address is set
type AddressSetEvent struct {
	shared.BaseDomainEvent
	Province              string `json:"province"`
	District              string `json:"district"`
	BillingSameAsShipping bool   `json:"billing_same_as_shipping"`
}

// NewAddressSetEvent creates a new address set event
func NewAddressSetEvent(s *Session) *AddressSetEvent {
	return &AddressSetEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent(EventTypeAddressSet, aggregateTypeSession, s.GetID(), s.TenantID),
		Province:              s.ShippingAddress.Province(),
		District:              s.ShippingAddress.District(),
		BillingSameAsShipping: s.BillingSameAsShipping,
	}
}

// ShippingSelectedEvent is raised when a shipping method is chosen
type ShippingSelectedEvent struct {
	shared.BaseDomainEvent
	ShippingMethod string          `json:"shipping_method"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
}

// NewShippingSelectedEvent creates a new shipping selected event
func NewShippingSelectedEvent(s *Session) *ShippingSelectedEvent {
	return &ShippingSelectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShippingSelected, aggregateTypeSession, s.GetID(), s.TenantID),
		ShippingMethod:  s.ShippingMethod,
		ShippingCost:    s.ShippingCost,
		GrandTotal:      s.GrandTotal,
	}
}

// SessionCompletedEvent is raised when checkout converts into an order
type SessionCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	PaymentMethod string          `json:"payment_method"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Currency      string          `json:"currency"`
}

// NewSessionCompletedEvent creates a new session completed event
func NewSessionCompletedEvent(s *Session) *SessionCompletedEvent {
	orderID := ""
	if s.OrderID != nil {
		orderID = s.OrderID.String()
	}
	return &SessionCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionCompleted, aggregateTypeSession, s.GetID(), s.TenantID),
		OrderID:         orderID,
		OrderNumber:     s.OrderNumber,
		PaymentMethod:   s.PaymentMethod.String(),
		GrandTotal:      s.GrandTotal,
		Currency:        s.Currency.String(),
	}
}

// SessionExpiredEvent is raised when an inactive session expires
type SessionExpiredEvent struct {
	shared.BaseDomainEvent
	CartID string `json:"cart_id"`
}

// NewSessionExpiredEvent creates a new session expired event
func NewSessionExpiredEvent(s *Session) *SessionExpiredEvent {
	return &SessionExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionExpired, aggregateTypeSession, s.GetID(), s.TenantID),
		CartID:          s.CartID.String(),
	}
}

// SessionAbandonedEvent is raised when the customer abandons checkout
type SessionAbandonedEvent struct {
	shared.BaseDomainEvent
	CartID string `json:"cart_id"`
}

// NewSessionAbandonedEvent creates a new session abandoned event
func NewSessionAbandonedEvent(s *Session) *SessionAbandonedEvent {
	return &SessionAbandonedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSessionAbandoned, aggregateTypeSession, s.GetID(), s.TenantID),
		CartID:          s.CartID.String(),
	}
}
