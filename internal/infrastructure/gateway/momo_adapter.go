package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/payment"
)

const (
	momoAPIURL        = "https://payment.momo.vn"
	momoSandboxAPIURL = "https://test-payment.momo.vn"

	momoRequestTypeCaptureWallet = "captureWallet"
)

// MoMoAdapter implements the payment.Provider interface for the MoMo wallet
type MoMoAdapter struct {
	partnerCode string
	accessKey   string
	signer      *Signer
	apiURL      string
	httpClient  *http.Client
}

// NewMoMoAdapter creates an uninitialized MoMo adapter
func NewMoMoAdapter() *MoMoAdapter {
	return &MoMoAdapter{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Key returns the provider key
func (a *MoMoAdapter) Key() payment.ProviderKey {
	return payment.ProviderMoMo
}

// DisplayName returns the human-readable provider name
func (a *MoMoAdapter) DisplayName() string {
	return "MoMo"
}

// Initialize validates credentials and prepares the adapter.
// Required credentials: partner_code, access_key, secret_key.
func (a *MoMoAdapter) Initialize(credentials map[string]string, env payment.Environment) error {
	partnerCode := credentials["partner_code"]
	accessKey := credentials["access_key"]
	secretKey := credentials["secret_key"]
	if partnerCode == "" || accessKey == "" || secretKey == "" {
		return fmt.Errorf("%w: momo requires partner_code, access_key and secret_key", payment.ErrInvalidCredentials)
	}

	a.partnerCode = partnerCode
	a.accessKey = accessKey
	a.signer = NewSigner(secretKey, HMACSHA256)
	if env == payment.EnvironmentProduction {
		a.apiURL = momoAPIURL
	} else {
		a.apiURL = momoSandboxAPIURL
	}

	return nil
}

// InitiatePayment creates a MoMo captureWallet payment
func (a *MoMoAdapter) InitiatePayment(ctx context.Context, req *payment.InitiateRequest) (*payment.InitiateResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}
	if err := req.Validate(); err != nil {
		return &payment.InitiateResult{Success: false, FailureReason: err.Error()}, nil
	}
	if req.Currency != "VND" {
		return &payment.InitiateResult{Success: false, FailureReason: "momo only supports VND"}, nil
	}

	requestID := uuid.New().String()
	orderID := req.SessionID.String()
	amount := req.Amount.IntPart()

	// MoMo signs a fixed-order raw string, unencoded
	signPayload := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		a.accessKey, amount, "", req.CancelURL, orderID, req.OrderInfo,
		a.partnerCode, req.ReturnURL, requestID, momoRequestTypeCaptureWallet,
	)

	body := map[string]interface{}{
		"partnerCode": a.partnerCode,
		"requestId":   requestID,
		"amount":      amount,
		"orderId":     orderID,
		"orderInfo":   req.OrderInfo,
		"redirectUrl": req.ReturnURL,
		"ipnUrl":      req.CancelURL,
		"requestType": momoRequestTypeCaptureWallet,
		"extraData":   "",
		"lang":        "vi",
		"signature":   a.signer.SignString(signPayload),
	}

	var resp struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
		PayURL     string `json:"payUrl"`
		QRCodeURL  string `json:"qrCodeUrl"`
	}
	if err := a.doRequest(ctx, "/v2/gateway/api/create", body, &resp); err != nil {
		return nil, err
	}

	if resp.ResultCode != 0 {
		return &payment.InitiateResult{
			Success:       false,
			FailureReason: fmt.Sprintf("momo rejected payment: %d - %s", resp.ResultCode, resp.Message),
		}, nil
	}

	return &payment.InitiateResult{
		Success:       true,
		PaymentURL:    resp.PayURL,
		QRCode:        resp.QRCodeURL,
		TransactionID: orderID,
	}, nil
}

// GetPaymentStatus queries a MoMo transaction
func (a *MoMoAdapter) GetPaymentStatus(ctx context.Context, transactionID string) (*payment.StatusResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}
	if transactionID == "" {
		return nil, fmt.Errorf("transaction ID is required")
	}

	requestID := uuid.New().String()
	signPayload := fmt.Sprintf("accessKey=%s&orderId=%s&partnerCode=%s&requestId=%s",
		a.accessKey, transactionID, a.partnerCode, requestID)

	body := map[string]interface{}{
		"partnerCode": a.partnerCode,
		"requestId":   requestID,
		"orderId":     transactionID,
		"lang":        "vi",
		"signature":   a.signer.SignString(signPayload),
	}

	var resp struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
		Amount     int64  `json:"amount"`
		TransID    int64  `json:"transId"`
	}
	if err := a.doRequest(ctx, "/v2/gateway/api/query", body, &resp); err != nil {
		return nil, err
	}

	return &payment.StatusResult{
		TransactionID: transactionID,
		Status:        mapMoMoResultCode(resp.ResultCode),
		Amount:        decimal.NewFromInt(resp.Amount),
		RawStatus:     strconv.Itoa(resp.ResultCode),
	}, nil
}

// Refund requests a refund of a captured MoMo payment
func (a *MoMoAdapter) Refund(ctx context.Context, req *payment.RefundRequest) (*payment.RefundResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}
	if err := req.Validate(); err != nil {
		return &payment.RefundResult{Success: false, FailureReason: err.Error()}, nil
	}

	transID, err := strconv.ParseInt(req.TransactionID, 10, 64)
	if err != nil {
		return &payment.RefundResult{
			Success:       false,
			FailureReason: "momo refunds require the numeric wallet transaction id",
		}, nil
	}

	requestID := uuid.New().String()
	orderID := uuid.New().String()
	amount := req.Amount.IntPart()
	signPayload := fmt.Sprintf("accessKey=%s&amount=%d&description=%s&orderId=%s&partnerCode=%s&requestId=%s&transId=%d",
		a.accessKey, amount, req.Reason, orderID, a.partnerCode, requestID, transID)

	body := map[string]interface{}{
		"partnerCode": a.partnerCode,
		"requestId":   requestID,
		"orderId":     orderID,
		"amount":      amount,
		"transId":     transID,
		"description": req.Reason,
		"lang":        "vi",
		"signature":   a.signer.SignString(signPayload),
	}

	var resp struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
		TransID    int64  `json:"transId"`
	}
	if err := a.doRequest(ctx, "/v2/gateway/api/refund", body, &resp); err != nil {
		return nil, err
	}

	if resp.ResultCode != 0 {
		return &payment.RefundResult{
			Success:       false,
			FailureReason: fmt.Sprintf("momo refund rejected: %d - %s", resp.ResultCode, resp.Message),
		}, nil
	}

	return &payment.RefundResult{Success: true, RefundID: strconv.FormatInt(resp.TransID, 10)}, nil
}

// ValidateWebhook verifies the signature on a MoMo IPN callback
func (a *MoMoAdapter) ValidateWebhook(req *payment.WebhookRequest) (*payment.WebhookResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}

	p := req.Params
	signature := req.Signature
	if signature == "" {
		signature = p["signature"]
	}

	// MoMo's IPN signature covers a fixed-order raw string
	signPayload := fmt.Sprintf(
		"accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		a.accessKey, p["amount"], p["extraData"], p["message"], p["orderId"],
		p["orderInfo"], p["orderType"], p["partnerCode"], p["payType"],
		p["requestId"], p["responseTime"], p["resultCode"], p["transId"],
	)

	if !a.signer.VerifyString(signPayload, signature) {
		return &payment.WebhookResult{IsValid: false}, nil
	}

	resultCode, _ := strconv.Atoi(p["resultCode"])
	result := &payment.WebhookResult{
		IsValid:       true,
		EventID:       p["transId"],
		TransactionID: p["orderId"],
		Status:        mapMoMoResultCode(resultCode),
		RawStatus:     p["resultCode"],
	}
	if raw := p["amount"]; raw != "" {
		if amount, err := decimal.NewFromString(raw); err == nil {
			result.Amount = amount
		}
	}

	return result, nil
}

// HealthCheck probes the MoMo API
func (a *MoMoAdapter) HealthCheck(ctx context.Context) *payment.HealthStatus {
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

func (a *MoMoAdapter) doRequest(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("momo: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("momo: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("momo: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("momo: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("momo: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("momo: failed to parse response: %w", err)
	}
	return nil
}

// mapMoMoResultCode maps MoMo result codes onto the neutral set
func mapMoMoResultCode(code int) payment.Status {
	switch code {
	case 0:
		return payment.StatusPaid
	case 1000:
		return payment.StatusPending
	case 7000, 7002, 9000:
		return payment.StatusProcessing
	case 1003:
		return payment.StatusCancelled
	case 1005:
		return payment.StatusExpired
	default:
		return payment.StatusFailed
	}
}

var _ payment.Provider = (*MoMoAdapter)(nil)
