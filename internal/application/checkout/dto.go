package checkout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// StartSessionRequest represents a request to start a checkout session
type StartSessionRequest struct {
	CartID   uuid.UUID       `json:"cart_id" binding:"required"`
	UserID   *uuid.UUID      `json:"user_id"`
	SubTotal decimal.Decimal `json:"sub_total" binding:"required"`
	Currency string          `json:"currency"`
}

// SetCustomerInfoRequest represents the contact details step
type SetCustomerInfoRequest struct {
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"max=20"`
	Name  string `json:"name" binding:"max=200"`
}

// AddressInput carries an address in request payloads
type AddressInput struct {
	RecipientName string `json:"recipient_name" binding:"required,max=200"`
	Phone         string `json:"phone" binding:"required,max=20"`
	Line1         string `json:"line1" binding:"required,max=500"`
	Line2         string `json:"line2" binding:"max=500"`
	Ward          string `json:"ward" binding:"max=100"`
	District      string `json:"district" binding:"required,max=100"`
	Province      string `json:"province" binding:"required,max=100"`
	Country       string `json:"country" binding:"max=100"`
	PostalCode    string `json:"postal_code" binding:"max=20"`
}

// ToAddress converts the input into the address value object
func (a AddressInput) ToAddress() (valueobject.Address, error) {
	opts := []valueobject.AddressOption{
		valueobject.WithLine2(a.Line2),
		valueobject.WithPostalCode(a.PostalCode),
	}
	if a.Country != "" {
		opts = append(opts, valueobject.WithCountry(a.Country))
	}
	return valueobject.NewAddress(a.RecipientName, a.Phone, a.Line1, a.Ward, a.District, a.Province, opts...)
}

// SetShippingAddressRequest represents the shipping address step
type SetShippingAddressRequest struct {
	Address               AddressInput `json:"address" binding:"required"`
	BillingSameAsShipping bool         `json:"billing_same_as_shipping"`
}

// SetBillingAddressRequest represents a separate billing address
type SetBillingAddressRequest struct {
	Address AddressInput `json:"address" binding:"required"`
}

// SelectShippingMethodRequest represents the shipping method step
type SelectShippingMethodRequest struct {
	Method              string          `json:"method" binding:"required,max=64"`
	Cost                decimal.Decimal `json:"cost"`
	EstimatedDeliveryAt *time.Time      `json:"estimated_delivery_at"`
}

// SelectPaymentMethodRequest represents the payment method step. GatewayID,
// ReturnURL and CancelURL are required for online methods only.
type SelectPaymentMethodRequest struct {
	Method    string     `json:"method" binding:"required"`
	GatewayID *uuid.UUID `json:"gateway_id"`
	ReturnURL string     `json:"return_url"`
	CancelURL string     `json:"cancel_url"`
	ClientIP  string     `json:"-"`
}

// ApplyCouponRequest represents a coupon application
type ApplyCouponRequest struct {
	Code     string          `json:"code" binding:"required,max=64"`
	Discount decimal.Decimal `json:"discount" binding:"required"`
}

// SetTaxRequest represents a tax amount update
type SetTaxRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// SetCustomerNotesRequest represents a customer note update
type SetCustomerNotesRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// AddressResponse mirrors an address value object in responses
type AddressResponse struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	Ward          string `json:"ward,omitempty"`
	District      string `json:"district"`
	Province      string `json:"province"`
	Country       string `json:"country,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
}

func toAddressResponse(addr valueobject.Address) *AddressResponse {
	if addr.IsEmpty() {
		return nil
	}
	return &AddressResponse{
		RecipientName: addr.RecipientName(),
		Phone:         addr.Phone(),
		Line1:         addr.Line1(),
		Line2:         addr.Line2(),
		Ward:          addr.Ward(),
		District:      addr.District(),
		Province:      addr.Province(),
		Country:       addr.Country(),
		PostalCode:    addr.PostalCode(),
	}
}

// SessionResponse is the projection of a checkout session returned to clients
type SessionResponse struct {
	ID                    uuid.UUID        `json:"id"`
	CartID                uuid.UUID        `json:"cart_id"`
	UserID                *uuid.UUID       `json:"user_id,omitempty"`
	Status                string           `json:"status"`
	CustomerEmail         string           `json:"customer_email,omitempty"`
	CustomerPhone         string           `json:"customer_phone,omitempty"`
	CustomerName          string           `json:"customer_name,omitempty"`
	ShippingAddress       *AddressResponse `json:"shipping_address,omitempty"`
	BillingAddress        *AddressResponse `json:"billing_address,omitempty"`
	BillingSameAsShipping bool             `json:"billing_same_as_shipping"`
	ShippingMethod        string           `json:"shipping_method,omitempty"`
	EstimatedDeliveryAt   *time.Time       `json:"estimated_delivery_at,omitempty"`
	PaymentMethod         string           `json:"payment_method,omitempty"`
	PaymentGatewayID      *uuid.UUID       `json:"payment_gateway_id,omitempty"`
	GatewayTransactionID  string           `json:"gateway_transaction_id,omitempty"`
	Currency              string           `json:"currency"`
	SubTotal              decimal.Decimal  `json:"sub_total"`
	DiscountAmount        decimal.Decimal  `json:"discount_amount"`
	ShippingCost          decimal.Decimal  `json:"shipping_cost"`
	TaxAmount             decimal.Decimal  `json:"tax_amount"`
	GrandTotal            decimal.Decimal  `json:"grand_total"`
	CouponCode            string           `json:"coupon_code,omitempty"`
	CustomerNotes         string           `json:"customer_notes,omitempty"`
	OrderID               *uuid.UUID       `json:"order_id,omitempty"`
	OrderNumber           string           `json:"order_number,omitempty"`
	ExpiresAt             time.Time        `json:"expires_at"`
	LastActivityAt        time.Time        `json:"last_activity_at"`
	CompletedAt           *time.Time       `json:"completed_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// ToSessionResponse converts a session aggregate to its response DTO
func ToSessionResponse(s *checkout.Session) SessionResponse {
	return SessionResponse{
		ID:                    s.ID,
		CartID:                s.CartID,
		UserID:                s.UserID,
		Status:                s.Status.String(),
		CustomerEmail:         s.CustomerEmail,
		CustomerPhone:         s.CustomerPhone,
		CustomerName:          s.CustomerName,
		ShippingAddress:       toAddressResponse(s.ShippingAddress),
		BillingAddress:        toAddressResponse(s.BillingAddress),
		BillingSameAsShipping: s.BillingSameAsShipping,
		ShippingMethod:        s.ShippingMethod,
		EstimatedDeliveryAt:   s.EstimatedDeliveryAt,
		PaymentMethod:         string(s.PaymentMethod),
		PaymentGatewayID:      s.PaymentGatewayID,
		GatewayTransactionID:  s.GatewayTransactionID,
		Currency:              s.Currency.String(),
		SubTotal:              s.SubTotal,
		DiscountAmount:        s.DiscountAmount,
		ShippingCost:          s.ShippingCost,
		TaxAmount:             s.TaxAmount,
		GrandTotal:            s.GrandTotal,
		CouponCode:            s.CouponCode,
		CustomerNotes:         s.CustomerNotes,
		OrderID:               s.OrderID,
		OrderNumber:           s.OrderNumber,
		ExpiresAt:             s.ExpiresAt,
		LastActivityAt:        s.LastActivityAt,
		CompletedAt:           s.CompletedAt,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

// PaymentInitiationResponse is returned by SelectPaymentMethod. For offline
// methods only the session projection is populated; for online methods the
// gateway outcome rides along.
type PaymentInitiationResponse struct {
	Session          SessionResponse `json:"session"`
	RequiresRedirect bool            `json:"requires_redirect"`
	PaymentURL       string          `json:"payment_url,omitempty"`
	QRCode           string          `json:"qr_code,omitempty"`
	TransactionID    string          `json:"transaction_id,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
}

// PaymentMethodOption describes one way a tenant's customers can pay
type PaymentMethodOption struct {
	Method      string     `json:"method"`
	DisplayName string     `json:"display_name"`
	GatewayID   *uuid.UUID `json:"gateway_id,omitempty"`
	Online      bool       `json:"online"`
}

// WebhookAck is the application-level outcome of processing a gateway callback
type WebhookAck struct {
	SessionID   uuid.UUID `json:"session_id"`
	Status      string    `json:"status"`
	OrderNumber string    `json:"order_number,omitempty"`
	Duplicate   bool      `json:"duplicate"`
}
