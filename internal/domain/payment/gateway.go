package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway provider errors
var (
	ErrProviderNotInitialized = errors.New("payment provider not initialized")
	ErrProviderNotFound       = errors.New("payment provider not found")
	ErrInvalidCredentials     = errors.New("invalid payment provider credentials")
	ErrUnsupportedOperation   = errors.New("operation not supported by this provider")
)

// ProviderKey identifies a payment gateway implementation
type ProviderKey string

const (
	ProviderVNPay ProviderKey = "VNPAY"
	ProviderPayOS ProviderKey = "PAYOS"
	ProviderMoMo  ProviderKey = "MOMO"
)

// IsValid checks if the provider key is known
func (k ProviderKey) IsValid() bool {
	switch k {
	case ProviderVNPay, ProviderPayOS, ProviderMoMo:
		return true
	}
	return false
}

// String returns the string representation of ProviderKey
func (k ProviderKey) String() string {
	return string(k)
}

// Status is the provider-neutral payment status. Adapters map each
// gateway's raw response codes onto this set.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusPaid       Status = "PAID"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
	StatusExpired    Status = "EXPIRED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusPaid, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// IsFinal returns true for statuses that will not change again
func (s Status) IsFinal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Environment selects the gateway endpoint set
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// IsValid checks if the environment is valid
func (e Environment) IsValid() bool {
	return e == EnvironmentSandbox || e == EnvironmentProduction
}

// InitiateRequest carries everything a provider needs to start a payment
type InitiateRequest struct {
	SessionID   uuid.UUID
	TenantID    uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	OrderInfo   string
	ReturnURL   string
	CancelURL   string
	ClientIP    string
	BuyerEmail  string
	BuyerPhone  string
	ExpireAfter time.Duration
}

// Validate checks the request for required fields
func (r *InitiateRequest) Validate() error {
	if r.SessionID == uuid.Nil {
		return errors.New("session ID is required")
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if r.Currency == "" {
		return errors.New("currency is required")
	}
	if r.ReturnURL == "" {
		return errors.New("return URL is required")
	}
	return nil
}

// InitiateResult is the outcome of starting a payment. Success=false with a
// populated FailureReason is the normal shape for gateway-side rejections;
// errors are reserved for transport and configuration failures.
type InitiateResult struct {
	Success       bool
	PaymentURL    string
	QRCode        string
	TransactionID string
	FailureReason string
	RawResponse   map[string]string
}

// StatusResult is the outcome of a payment status query
type StatusResult struct {
	TransactionID string
	Status        Status
	Amount        decimal.Decimal
	PaidAt        *time.Time
	RawStatus     string
}

// RefundRequest asks a provider to refund a captured payment
type RefundRequest struct {
	TransactionID string
	Amount        decimal.Decimal
	Reason        string
	RequestedBy   string
}

// Validate checks the refund request for required fields
func (r *RefundRequest) Validate() error {
	if r.TransactionID == "" {
		return errors.New("transaction ID is required")
	}
	if !r.Amount.IsPositive() {
		return errors.New("refund amount must be positive")
	}
	return nil
}

// RefundResult is the outcome of a refund attempt
type RefundResult struct {
	Success       bool
	RefundID      string
	FailureReason string
}

// WebhookRequest carries a raw gateway callback for validation
type WebhookRequest struct {
	// Params holds the flattened callback parameters, signature included
	Params map[string]string
	// RawBody is the unparsed request body for providers that sign the body
	RawBody []byte
	// Signature is the extracted signature value when it travels outside Params
	Signature string
}

// WebhookResult is the outcome of validating and interpreting a callback.
// IsValid=false means the signature did not verify; that is a result,
// not an error.
type WebhookResult struct {
	IsValid       bool
	EventID       string
	TransactionID string
	Status        Status
	Amount        decimal.Decimal
	RawStatus     string
}

// HealthStatus reports provider reachability
type HealthStatus struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
}

// Provider is the port every payment gateway adapter implements.
//
// Initialize validates credentials and prepares the adapter; it performs no
// network I/O and calling it again with the same credentials is a no-op.
// All other operations return ErrProviderNotInitialized until it succeeds.
type Provider interface {
	Key() ProviderKey
	DisplayName() string

	Initialize(credentials map[string]string, env Environment) error

	InitiatePayment(ctx context.Context, req *InitiateRequest) (*InitiateResult, error)
	GetPaymentStatus(ctx context.Context, transactionID string) (*StatusResult, error)
	Refund(ctx context.Context, req *RefundRequest) (*RefundResult, error)
	ValidateWebhook(req *WebhookRequest) (*WebhookResult, error)
	HealthCheck(ctx context.Context) *HealthStatus
}

// Registry resolves providers by key
type Registry interface {
	Register(provider Provider)
	Get(key ProviderKey) (Provider, error)
	Keys() []ProviderKey
}
