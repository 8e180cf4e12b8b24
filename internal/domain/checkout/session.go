package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// SessionTTL is the sliding expiration window for checkout sessions.
// Every activity-producing mutation pushes ExpiresAt forward by this amount.
const SessionTTL = 15 * time.Minute

// SessionStatus represents the status of a checkout session
type SessionStatus string

const (
	SessionStatusStarted           SessionStatus = "STARTED"
	SessionStatusAddressComplete   SessionStatus = "ADDRESS_COMPLETE"
	SessionStatusShippingSelected  SessionStatus = "SHIPPING_SELECTED"
	SessionStatusPaymentPending    SessionStatus = "PAYMENT_PENDING"
	SessionStatusPaymentProcessing SessionStatus = "PAYMENT_PROCESSING"
	SessionStatusCompleted         SessionStatus = "COMPLETED"
	SessionStatusExpired           SessionStatus = "EXPIRED"
	SessionStatusAbandoned         SessionStatus = "ABANDONED"
)

// IsValid checks if the status is a valid SessionStatus
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusStarted, SessionStatusAddressComplete, SessionStatusShippingSelected,
		SessionStatusPaymentPending, SessionStatusPaymentProcessing,
		SessionStatusCompleted, SessionStatusExpired, SessionStatusAbandoned:
		return true
	}
	return false
}

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that permit no further mutation
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusExpired, SessionStatusAbandoned:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch target {
	case SessionStatusAddressComplete:
		return s == SessionStatusStarted
	case SessionStatusShippingSelected:
		return s == SessionStatusAddressComplete || s == SessionStatusShippingSelected
	case SessionStatusPaymentPending:
		return s == SessionStatusShippingSelected || s == SessionStatusPaymentPending
	case SessionStatusPaymentProcessing:
		return s == SessionStatusPaymentPending || s == SessionStatusShippingSelected
	case SessionStatusCompleted:
		return s == SessionStatusPaymentProcessing || s == SessionStatusPaymentPending
	case SessionStatusExpired, SessionStatusAbandoned:
		return true
	}
	return false
}

// PaymentMethod represents how the customer intends to pay
type PaymentMethod string

const (
	PaymentMethodCOD          PaymentMethod = "COD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodVNPay        PaymentMethod = "VNPAY"
	PaymentMethodPayOS        PaymentMethod = "PAYOS"
	PaymentMethodMoMo         PaymentMethod = "MOMO"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodBankTransfer, PaymentMethodVNPay, PaymentMethodPayOS, PaymentMethodMoMo:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// RequiresGateway returns true for methods handled by an online payment gateway
func (m PaymentMethod) RequiresGateway() bool {
	switch m {
	case PaymentMethodVNPay, PaymentMethodPayOS, PaymentMethodMoMo:
		return true
	}
	return false
}

// Session represents a checkout session aggregate root.
// It is the state machine governing the cart-to-order conversion:
// customer info, addresses, shipping, payment selection, payment
// processing, and completion, with running total recomputation.
type Session struct {
	shared.TenantAggregateRoot

	CartID uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID *uuid.UUID `gorm:"type:uuid;index"` // nil for guest checkout

	CustomerEmail string `gorm:"type:varchar(255)"`
	CustomerPhone string `gorm:"type:varchar(32)"`
	CustomerName  string `gorm:"type:varchar(255)"`

	ShippingAddress       valueobject.Address `gorm:"type:jsonb"`
	BillingAddress        valueobject.Address `gorm:"type:jsonb"`
	BillingSameAsShipping bool                `gorm:"not null;default:true"`

	ShippingMethod      string `gorm:"type:varchar(64)"`
	EstimatedDeliveryAt *time.Time

	PaymentMethod        PaymentMethod `gorm:"type:varchar(32)"`
	PaymentGatewayID     *uuid.UUID    `gorm:"type:uuid"`
	GatewayTransactionID string        `gorm:"type:varchar(128);index"`

	Currency       valueobject.Currency `gorm:"type:varchar(3);not null;default:'VND'"`
	SubTotal       decimal.Decimal      `gorm:"type:decimal(19,4);not null"`
	DiscountAmount decimal.Decimal      `gorm:"type:decimal(19,4);not null;default:0"`
	ShippingCost   decimal.Decimal      `gorm:"type:decimal(19,4);not null;default:0"`
	TaxAmount      decimal.Decimal      `gorm:"type:decimal(19,4);not null;default:0"`
	GrandTotal     decimal.Decimal      `gorm:"type:decimal(19,4);not null"`

	CouponCode string `gorm:"type:varchar(64)"`

	OrderID     *uuid.UUID `gorm:"type:uuid"`
	OrderNumber string     `gorm:"type:varchar(32)"`

	Status         SessionStatus `gorm:"type:varchar(32);not null;index"`
	CustomerNotes  string        `gorm:"type:text"`
	ExpiresAt      time.Time     `gorm:"not null;index"`
	LastActivityAt time.Time     `gorm:"not null"`
	CompletedAt    *time.Time
}

// TableName returns the database table name
func (Session) TableName() string {
	return "checkout_sessions"
}

// NewSession creates a new checkout session for a cart entering checkout
func NewSession(tenantID, cartID uuid.UUID, userID *uuid.UUID, subTotal decimal.Decimal, currency valueobject.Currency) (*Session, error) {
	if cartID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CART", "Cart ID cannot be empty")
	}
	if subTotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Subtotal cannot be negative")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	now := time.Now()
	session := &Session{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CartID:              cartID,
		UserID:              userID,
		Currency:            currency,
		SubTotal:            subTotal,
		DiscountAmount:      decimal.Zero,
		ShippingCost:        decimal.Zero,
		TaxAmount:           decimal.Zero,
		Status:              SessionStatusStarted,
		LastActivityAt:      now,
		ExpiresAt:           now.Add(SessionTTL),
	}
	session.recalculateTotals()

	session.AddDomainEvent(NewSessionCreatedEvent(session))

	return session, nil
}

// IsExpired reports whether the session's sliding expiration has elapsed.
// Terminal sessions are never considered expired; callers observing true
// must explicitly invoke MarkAsExpired (lazy expiration).
func (s *Session) IsExpired() bool {
	if s.Status.IsTerminal() {
		return false
	}
	return !time.Now().Before(s.ExpiresAt)
}

// IsTerminal returns true if the session is in a terminal state
func (s *Session) IsTerminal() bool {
	return s.Status.IsTerminal()
}

// IsGuest returns true for sessions without an authenticated user
func (s *Session) IsGuest() bool {
	return s.UserID == nil
}

// SetCustomerInfo records the customer contact snapshot
func (s *Session) SetCustomerInfo(email, phone, name string) error {
	if err := s.ensureMutable(); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Customer email cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return shared.NewDomainError("INVALID_EMAIL", "Customer email is not valid")
	}

	s.CustomerEmail = email
	s.CustomerPhone = strings.TrimSpace(phone)
	s.CustomerName = strings.TrimSpace(name)
	s.touch()

	return nil
}

// SetCustomerNotes sets free-form notes from the customer
func (s *Session) SetCustomerNotes(notes string) error {
	if err := s.ensureMutable(); err != nil {
		return err
	}
	s.CustomerNotes = notes
	s.touch()
	return nil
}

// SetShippingAddress sets the shipping address. When billingSame is true the
// billing address mirrors the shipping address; otherwise a previously set
// billing address is kept. A session still in STARTED moves to
// ADDRESS_COMPLETE.
func (s *Session) SetShippingAddress(addr valueobject.Address, billingSame bool) error {
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if addr.IsEmpty() {
		return shared.NewDomainError("INVALID_ADDRESS", "Shipping address cannot be empty")
	}

	s.ShippingAddress = addr
	s.BillingSameAsShipping = billingSame
	if billingSame {
		s.BillingAddress = addr
	}

	if s.Status == SessionStatusStarted {
		s.setStatus(SessionStatusAddressComplete)
	}
	s.touch()

	s.AddDomainEvent(NewAddressSetEvent(s))

	return nil
}

// SetBillingAddress sets a billing address distinct from the shipping address
func (s *Session) SetBillingAddress(addr valueobject.Address) error {
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if addr.IsEmpty() {
		return shared.NewDomainError("INVALID_ADDRESS", "Billing address cannot be empty")
	}

	s.BillingAddress = addr
	s.BillingSameAsShipping = false
	s.touch()

	return nil
}

// SelectShippingMethod records the chosen shipping method and its cost,
// transitioning to SHIPPING_SELECTED and recomputing the grand total.
// Requires a shipping address to have been set first.
func (s *Session) SelectShippingMethod(method string, cost decimal.Decimal, estimatedDeliveryAt *time.Time) error {
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if s.ShippingAddress.IsEmpty() {
		return shared.NewDomainError("PRECONDITION_FAILED", "Shipping address must be set before selecting a shipping method")
	}
	if method == "" {
		return shared.NewDomainError("INVALID_SHIPPING_METHOD", "Shipping method cannot be empty")
	}
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Shipping cost cannot be negative")
	}
	if !s.Status.CanTransitionTo(SessionStatusShippingSelected) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot select shipping method in %s status", s.Status))
	}

	s.ShippingMethod = method
	s.ShippingCost = cost
	s.EstimatedDeliveryAt = estimatedDeliveryAt
	s.recalculateTotals()
	if s.Status != SessionStatusShippingSelected {
		s.setStatus(SessionStatusShippingSelected)
	}
	s.touch()

	s.AddDomainEvent(NewShippingSelectedEvent(s))

	return nil
}

// SelectPaymentMethod records the payment method (and gateway for online
// methods), transitioning to PAYMENT_PENDING
func (s *Session) SelectPaymentMethod(method PaymentMethod, gatewayID *uuid.UUID) error {
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", method))
	}
	if method.RequiresGateway() && gatewayID == nil {
		return shared.NewDomainError("PRECONDITION_FAILED", "Online payment methods require a payment gateway")
	}
	if !s.Status.CanTransitionTo(SessionStatusPaymentPending) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot select payment method in %s status", s.Status))
	}

	s.PaymentMethod = method
	s.PaymentGatewayID = gatewayID
	if s.Status != SessionStatusPaymentPending {
		s.setStatus(SessionStatusPaymentPending)
	}
	s.touch()

	return nil
}

// MarkAsPaymentProcessing transitions to PAYMENT_PROCESSING once a gateway
// payment has been initiated
func (s *Session) MarkAsPaymentProcessing() error {
	if s.Status != SessionStatusPaymentPending && s.Status != SessionStatusShippingSelected {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark payment processing in %s status", s.Status))
	}

	s.setStatus(SessionStatusPaymentProcessing)
	s.touch()

	return nil
}

// SetGatewayTransaction stores the gateway transaction reference used to
// correlate status polls and webhooks
func (s *Session) SetGatewayTransaction(gatewayTransactionID string) error {
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if gatewayTransactionID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Gateway transaction ID cannot be empty")
	}

	s.GatewayTransactionID = gatewayTransactionID
	s.touch()

	return nil
}

// ApplyCoupon applies a coupon with an externally computed discount amount.
// Discount computation itself happens in the promotions context; the session
// only records the result and recomputes its totals.
func (s *Session) ApplyCoupon(code string, discount decimal.Decimal) error {
	if err := s.ensureMutable(); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_COUPON", "Coupon code cannot be empty")
	}
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if discount.GreaterThan(s.SubTotal) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed subtotal")
	}

	s.CouponCode = code
	s.DiscountAmount = discount
	s.recalculateTotals()
	s.touch()

	return nil
}

// RemoveCoupon removes an applied coupon and restores the pre-coupon totals
func (s *Session) RemoveCoupon() error {
	if err := s.ensureMutable(); err != nil {
		return err
	}

	s.CouponCode = ""
	s.DiscountAmount = decimal.Zero
	s.recalculateTotals()
	s.touch()

	return nil
}

// SetTax sets the externally computed tax amount
func (s *Session) SetTax(amount decimal.Decimal) error {
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Tax amount cannot be negative")
	}

	s.TaxAmount = amount
	s.recalculateTotals()
	s.touch()

	return nil
}

// UpdateSubTotal refreshes the subtotal after the underlying cart changed
func (s *Session) UpdateSubTotal(subTotal decimal.Decimal) error {
	if err := s.ensureMutable(); err != nil {
		return err
	}
	if subTotal.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Subtotal cannot be negative")
	}

	s.SubTotal = subTotal
	s.recalculateTotals()
	s.touch()

	return nil
}

// Complete records the created order and transitions to COMPLETED (terminal).
// Allowed from PAYMENT_PROCESSING, or directly from PAYMENT_PENDING for
// offline methods such as COD.
func (s *Session) Complete(orderID uuid.UUID, orderNumber string) error {
	if s.Status != SessionStatusPaymentProcessing && s.Status != SessionStatusPaymentPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete checkout in %s status", s.Status))
	}
	if orderID == uuid.Nil {
		return shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if orderNumber == "" {
		return shared.NewDomainError("INVALID_ORDER", "Order number cannot be empty")
	}

	now := time.Now()
	s.OrderID = &orderID
	s.OrderNumber = orderNumber
	s.CompletedAt = &now
	s.setStatus(SessionStatusCompleted)
	s.UpdatedAt = now

	s.AddDomainEvent(NewSessionCompletedEvent(s))

	return nil
}

// MarkAsExpired transitions an expired session to EXPIRED (terminal).
// Calling it on an already expired session is an idempotent no-op.
func (s *Session) MarkAsExpired() error {
	if s.Status == SessionStatusExpired {
		return nil
	}
	if s.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot expire session in %s status", s.Status))
	}
	if !s.IsExpired() {
		return shared.NewDomainError("PRECONDITION_FAILED", "Session has not reached its expiration time")
	}

	s.setStatus(SessionStatusExpired)
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewSessionExpiredEvent(s))

	return nil
}

// MarkAsAbandoned transitions the session to ABANDONED (terminal) on an
// explicit abandon request. Calling it on an already abandoned session is an
// idempotent no-op.
func (s *Session) MarkAsAbandoned() error {
	if s.Status == SessionStatusAbandoned {
		return nil
	}
	if s.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot abandon session in %s status", s.Status))
	}

	s.setStatus(SessionStatusAbandoned)
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewSessionAbandonedEvent(s))

	return nil
}

// GetGrandTotalMoney returns the grand total as Money
func (s *Session) GetGrandTotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.GrandTotal, s.Currency)
	return m
}

// GetSubTotalMoney returns the subtotal as Money
func (s *Session) GetSubTotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.SubTotal, s.Currency)
	return m
}

// ensureMutable rejects mutation attempts on terminal sessions
func (s *Session) ensureMutable() error {
	if s.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Session is %s and can no longer be modified", s.Status))
	}
	return nil
}

// setStatus changes the status and raises the generic status-changed event
func (s *Session) setStatus(target SessionStatus) {
	from := s.Status
	s.Status = target
	s.AddDomainEvent(NewSessionStatusChangedEvent(s, from, target))
}

// touch refreshes the activity timestamp and slides the expiration forward
func (s *Session) touch() {
	now := time.Now()
	s.LastActivityAt = now
	s.ExpiresAt = now.Add(SessionTTL)
	s.UpdatedAt = now
}

// recalculateTotals recomputes the grand total from its components:
// grandTotal = subTotal - discountAmount + shippingCost + taxAmount
func (s *Session) recalculateTotals() {
	// Discount never exceeds the subtotal, so the result stays non-negative
	if s.DiscountAmount.GreaterThan(s.SubTotal) {
		s.DiscountAmount = s.SubTotal
	}
	s.GrandTotal = s.SubTotal.Sub(s.DiscountAmount).Add(s.ShippingCost).Add(s.TaxAmount)
}
