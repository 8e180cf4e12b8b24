package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/payment"
)

const (
	payosAPIURL = "https://api-merchant.payos.vn"
)

// PayOSAdapter implements the payment.Provider interface for PayOS
type PayOSAdapter struct {
	clientID   string
	apiKey     string
	signer     *Signer
	apiURL     string
	httpClient *http.Client
}

// NewPayOSAdapter creates an uninitialized PayOS adapter
func NewPayOSAdapter() *PayOSAdapter {
	return &PayOSAdapter{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Key returns the provider key
func (a *PayOSAdapter) Key() payment.ProviderKey {
	return payment.ProviderPayOS
}

// DisplayName returns the human-readable provider name
func (a *PayOSAdapter) DisplayName() string {
	return "PayOS"
}

// Initialize validates credentials and prepares the adapter.
// Required credentials: client_id, api_key, checksum_key.
// PayOS serves sandbox and production from the same endpoint; the
// environment is carried by the credentials themselves.
func (a *PayOSAdapter) Initialize(credentials map[string]string, env payment.Environment) error {
	clientID := credentials["client_id"]
	apiKey := credentials["api_key"]
	checksumKey := credentials["checksum_key"]
	if clientID == "" || apiKey == "" || checksumKey == "" {
		return fmt.Errorf("%w: payos requires client_id, api_key and checksum_key", payment.ErrInvalidCredentials)
	}

	a.clientID = clientID
	a.apiKey = apiKey
	a.signer = NewSigner(checksumKey, HMACSHA256)
	a.apiURL = payosAPIURL

	return nil
}

type payosCreateRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	ExpiredAt   int64  `json:"expiredAt,omitempty"`
	Signature   string `json:"signature"`
}

type payosEnvelope struct {
	Code      string          `json:"code"`
	Desc      string          `json:"desc"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

// InitiatePayment creates a PayOS payment link
func (a *PayOSAdapter) InitiatePayment(ctx context.Context, req *payment.InitiateRequest) (*payment.InitiateResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}
	if err := req.Validate(); err != nil {
		return &payment.InitiateResult{Success: false, FailureReason: err.Error()}, nil
	}
	if req.Currency != "VND" {
		return &payment.InitiateResult{Success: false, FailureReason: "payos only supports VND"}, nil
	}

	expireAfter := req.ExpireAfter
	if expireAfter <= 0 {
		expireAfter = 15 * time.Minute
	}

	// PayOS requires a numeric order code; derive it from the current time
	orderCode := time.Now().UnixMilli()
	amount := req.Amount.IntPart()

	// PayOS signs a fixed field list rather than the full body
	signPayload := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		amount, req.CancelURL, req.OrderInfo, orderCode, req.ReturnURL)

	body := payosCreateRequest{
		OrderCode:   orderCode,
		Amount:      amount,
		Description: req.OrderInfo,
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
		ExpiredAt:   time.Now().Add(expireAfter).Unix(),
		Signature:   a.signer.SignString(signPayload),
	}

	var env payosEnvelope
	if err := a.doRequest(ctx, http.MethodPost, "/v2/payment-requests", body, &env); err != nil {
		return nil, err
	}
	if env.Code != "00" {
		return &payment.InitiateResult{
			Success:       false,
			FailureReason: fmt.Sprintf("payos rejected payment: %s - %s", env.Code, env.Desc),
		}, nil
	}

	var data struct {
		PaymentLinkID string `json:"paymentLinkId"`
		CheckoutURL   string `json:"checkoutUrl"`
		QRCode        string `json:"qrCode"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("payos: failed to parse response data: %w", err)
	}

	return &payment.InitiateResult{
		Success:       true,
		PaymentURL:    data.CheckoutURL,
		QRCode:        data.QRCode,
		TransactionID: data.PaymentLinkID,
	}, nil
}

// GetPaymentStatus queries a PayOS payment link
func (a *PayOSAdapter) GetPaymentStatus(ctx context.Context, transactionID string) (*payment.StatusResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}
	if transactionID == "" {
		return nil, fmt.Errorf("transaction ID is required")
	}

	var env payosEnvelope
	path := fmt.Sprintf("/v2/payment-requests/%s", transactionID)
	if err := a.doRequest(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	if env.Code != "00" {
		return nil, fmt.Errorf("payos status query failed: %s - %s", env.Code, env.Desc)
	}

	var data struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		Amount     int64  `json:"amount"`
		AmountPaid int64  `json:"amountPaid"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("payos: failed to parse response data: %w", err)
	}

	return &payment.StatusResult{
		TransactionID: transactionID,
		Status:        mapPayOSStatus(data.Status),
		Amount:        decimal.NewFromInt(data.Amount),
		RawStatus:     data.Status,
	}, nil
}

// Refund is not supported by the PayOS API; refunds go through the PayOS
// merchant dashboard. The result is a failure directing to manual processing,
// never an error.
func (a *PayOSAdapter) Refund(ctx context.Context, req *payment.RefundRequest) (*payment.RefundResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}
	return &payment.RefundResult{
		Success:       false,
		FailureReason: "payos does not support API refunds: manual processing required",
	}, nil
}

// ValidateWebhook verifies the checksum on a PayOS webhook body
func (a *PayOSAdapter) ValidateWebhook(req *payment.WebhookRequest) (*payment.WebhookResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}

	var env struct {
		Code      string          `json:"code"`
		Desc      string          `json:"desc"`
		Data      json.RawMessage `json:"data"`
		Signature string          `json:"signature"`
	}
	if err := json.Unmarshal(req.RawBody, &env); err != nil {
		return &payment.WebhookResult{IsValid: false}, nil
	}

	// the checksum covers the data object's fields in canonical form
	var fields map[string]interface{}
	if err := json.Unmarshal(env.Data, &fields); err != nil {
		return &payment.WebhookResult{IsValid: false}, nil
	}
	params := make(map[string]string, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			params[k] = val
		case float64:
			params[k] = decimal.NewFromFloat(val).String()
		case bool:
			params[k] = fmt.Sprintf("%t", val)
		case nil:
			params[k] = ""
		default:
			b, _ := json.Marshal(val)
			params[k] = string(b)
		}
	}

	if !a.signer.Verify(params, env.Signature) {
		return &payment.WebhookResult{IsValid: false}, nil
	}

	var data struct {
		OrderCode     int64  `json:"orderCode"`
		Amount        int64  `json:"amount"`
		Reference     string `json:"reference"`
		PaymentLinkID string `json:"paymentLinkId"`
		Code          string `json:"code"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return &payment.WebhookResult{IsValid: false}, nil
	}

	status := payment.StatusFailed
	if env.Code == "00" && data.Code == "00" {
		status = payment.StatusPaid
	}

	return &payment.WebhookResult{
		IsValid:       true,
		EventID:       data.Reference,
		TransactionID: data.PaymentLinkID,
		Status:        status,
		Amount:        decimal.NewFromInt(data.Amount),
		RawStatus:     data.Code,
	}, nil
}

// HealthCheck probes the PayOS API
func (a *PayOSAdapter) HealthCheck(ctx context.Context) *payment.HealthStatus {
	status := &payment.HealthStatus{CheckedAt: time.Now()}
	if a.signer == nil {
		status.Message = "not initialized"
		return status
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiURL, nil)
	if err != nil {
		status.Message = err.Error()
		return status
	}
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		status.Message = err.Error()
		return status
	}
	defer resp.Body.Close()

	status.Healthy = resp.StatusCode < http.StatusInternalServerError
	status.Message = resp.Status
	return status
}

func (a *PayOSAdapter) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("payos: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, a.apiURL+path, reader)
	if err != nil {
		return fmt.Errorf("payos: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-client-id", a.clientID)
	httpReq.Header.Set("x-api-key", a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("payos: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("payos: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payos: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("payos: failed to parse response: %w", err)
	}
	return nil
}

// mapPayOSStatus maps PayOS payment link statuses onto the neutral set
func mapPayOSStatus(status string) payment.Status {
	switch status {
	case "PENDING":
		return payment.StatusPending
	case "PROCESSING", "UNDERPAID":
		return payment.StatusProcessing
	case "PAID":
		return payment.StatusPaid
	case "CANCELLED":
		return payment.StatusCancelled
	case "EXPIRED":
		return payment.StatusExpired
	default:
		return payment.StatusFailed
	}
}

var _ payment.Provider = (*PayOSAdapter)(nil)
