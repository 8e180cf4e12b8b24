package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/payment"
)

const (
	vnpayPayURL        = "https://pay.vnpay.vn/vpcpay.html"
	vnpaySandboxPayURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	vnpayAPIURL        = "https://pay.vnpay.vn/merchant_webapi/api/transaction"
	vnpaySandboxAPIURL = "https://sandbox.vnpayment.vn/merchant_webapi/api/transaction"

	vnpayVersion    = "2.1.0"
	vnpayTimeLayout = "20060102150405"
)

// VNPayAdapter implements the payment.Provider interface for VNPay
type VNPayAdapter struct {
	tmnCode    string
	signer     *Signer
	payURL     string
	apiURL     string
	httpClient *http.Client
}

// NewVNPayAdapter creates an uninitialized VNPay adapter
func NewVNPayAdapter() *VNPayAdapter {
	return &VNPayAdapter{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Key returns the provider key
func (a *VNPayAdapter) Key() payment.ProviderKey {
	return payment.ProviderVNPay
}

// DisplayName returns the human-readable provider name
func (a *VNPayAdapter) DisplayName() string {
	return "VNPay"
}

// Initialize validates credentials and prepares the adapter.
// Required credentials: tmn_code, hash_secret.
func (a *VNPayAdapter) Initialize(credentials map[string]string, env payment.Environment) error {
	tmnCode := credentials["tmn_code"]
	hashSecret := credentials["hash_secret"]
	if tmnCode == "" || hashSecret == "" {
		return fmt.Errorf("%w: vnpay requires tmn_code and hash_secret", payment.ErrInvalidCredentials)
	}

	a.tmnCode = tmnCode
	a.signer = NewSigner(hashSecret, HMACSHA512)
	if env == payment.EnvironmentProduction {
		a.payURL = vnpayPayURL
		a.apiURL = vnpayAPIURL
	} else {
		a.payURL = vnpaySandboxPayURL
		a.apiURL = vnpaySandboxAPIURL
	}

	return nil
}

// InitiatePayment builds a signed VNPay redirect URL. VNPay hosts the payment
// page, so no network call happens here.
func (a *VNPayAdapter) InitiatePayment(ctx context.Context, req *payment.InitiateRequest) (*payment.InitiateResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}
	if err := req.Validate(); err != nil {
		return &payment.InitiateResult{Success: false, FailureReason: err.Error()}, nil
	}
	if req.Currency != "VND" {
		return &payment.InitiateResult{Success: false, FailureReason: "vnpay only supports VND"}, nil
	}

	now := time.Now()
	expireAfter := req.ExpireAfter
	if expireAfter <= 0 {
		expireAfter = 15 * time.Minute
	}
	txnRef := req.SessionID.String()

	// VNPay expects the amount multiplied by 100, without decimals
	params := map[string]string{
		"vnp_Version":    vnpayVersion,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    a.tmnCode,
		"vnp_Amount":     req.Amount.Mul(decimal.NewFromInt(100)).StringFixed(0),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     txnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  req.ReturnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": now.Format(vnpayTimeLayout),
		"vnp_ExpireDate": now.Add(expireAfter).Format(vnpayTimeLayout),
	}

	sign := a.signer.Sign(params)
	paymentURL := fmt.Sprintf("%s?%s&vnp_SecureHash=%s", a.payURL, Canonicalize(params), sign)

	return &payment.InitiateResult{
		Success:       true,
		PaymentURL:    paymentURL,
		TransactionID: txnRef,
		RawResponse:   params,
	}, nil
}

// GetPaymentStatus queries VNPay's transaction API
func (a *VNPayAdapter) GetPaymentStatus(ctx context.Context, transactionID string) (*payment.StatusResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}
	if transactionID == "" {
		return nil, fmt.Errorf("transaction ID is required")
	}

	now := time.Now()
	requestID := uuid.New().String()
	reqBody := map[string]string{
		"vnp_RequestId":       requestID,
		"vnp_Version":         vnpayVersion,
		"vnp_Command":         "querydr",
		"vnp_TmnCode":         a.tmnCode,
		"vnp_TxnRef":          transactionID,
		"vnp_OrderInfo":       "query transaction",
		"vnp_TransactionDate": now.Format(vnpayTimeLayout),
		"vnp_CreateDate":      now.Format(vnpayTimeLayout),
		"vnp_IpAddr":          "127.0.0.1",
	}

	// the query API signs a pipe-joined field list rather than the sorted form
	signData := strings.Join([]string{
		reqBody["vnp_RequestId"], reqBody["vnp_Version"], reqBody["vnp_Command"],
		reqBody["vnp_TmnCode"], reqBody["vnp_TxnRef"], reqBody["vnp_TransactionDate"],
		reqBody["vnp_CreateDate"], reqBody["vnp_IpAddr"], reqBody["vnp_OrderInfo"],
	}, "|")
	reqBody["vnp_SecureHash"] = a.signer.SignString(signData)

	var resp struct {
		ResponseCode      string `json:"vnp_ResponseCode"`
		TransactionStatus string `json:"vnp_TransactionStatus"`
		TransactionNo     string `json:"vnp_TransactionNo"`
		Amount            string `json:"vnp_Amount"`
		PayDate           string `json:"vnp_PayDate"`
	}
	if err := a.doRequest(ctx, reqBody, &resp); err != nil {
		return nil, err
	}

	result := &payment.StatusResult{
		TransactionID: transactionID,
		Status:        mapVNPayStatus(resp.TransactionStatus),
		RawStatus:     resp.TransactionStatus,
	}
	if resp.Amount != "" {
		if amount, err := decimal.NewFromString(resp.Amount); err == nil {
			result.Amount = amount.Div(decimal.NewFromInt(100))
		}
	}
	if resp.PayDate != "" {
		if t, err := time.Parse(vnpayTimeLayout, resp.PayDate); err == nil {
			result.PaidAt = &t
		}
	}

	return result, nil
}

// Refund requests a refund through VNPay's transaction API
func (a *VNPayAdapter) Refund(ctx context.Context, req *payment.RefundRequest) (*payment.RefundResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}
	if err := req.Validate(); err != nil {
		return &payment.RefundResult{Success: false, FailureReason: err.Error()}, nil
	}

	now := time.Now()
	requestID := uuid.New().String()
	amount := req.Amount.Mul(decimal.NewFromInt(100)).StringFixed(0)
	reqBody := map[string]string{
		"vnp_RequestId":       requestID,
		"vnp_Version":         vnpayVersion,
		"vnp_Command":         "refund",
		"vnp_TmnCode":         a.tmnCode,
		"vnp_TransactionType": "02",
		"vnp_TxnRef":          req.TransactionID,
		"vnp_Amount":          amount,
		"vnp_OrderInfo":       req.Reason,
		"vnp_TransactionDate": now.Format(vnpayTimeLayout),
		"vnp_CreateBy":        req.RequestedBy,
		"vnp_CreateDate":      now.Format(vnpayTimeLayout),
		"vnp_IpAddr":          "127.0.0.1",
	}

	signData := strings.Join([]string{
		reqBody["vnp_RequestId"], reqBody["vnp_Version"], reqBody["vnp_Command"],
		reqBody["vnp_TmnCode"], reqBody["vnp_TransactionType"], reqBody["vnp_TxnRef"],
		reqBody["vnp_Amount"], "", reqBody["vnp_TransactionDate"],
		reqBody["vnp_CreateBy"], reqBody["vnp_CreateDate"], reqBody["vnp_IpAddr"],
		reqBody["vnp_OrderInfo"],
	}, "|")
	reqBody["vnp_SecureHash"] = a.signer.SignString(signData)

	var resp struct {
		ResponseCode  string `json:"vnp_ResponseCode"`
		Message       string `json:"vnp_Message"`
		TransactionNo string `json:"vnp_TransactionNo"`
	}
	if err := a.doRequest(ctx, reqBody, &resp); err != nil {
		return nil, err
	}

	if resp.ResponseCode != "00" {
		return &payment.RefundResult{
			Success:       false,
			FailureReason: fmt.Sprintf("vnpay refund rejected: %s - %s", resp.ResponseCode, resp.Message),
		}, nil
	}

	return &payment.RefundResult{Success: true, RefundID: resp.TransactionNo}, nil
}

// ValidateWebhook verifies the secure hash on a VNPay IPN or return callback
// and maps its response code onto the neutral status set
func (a *VNPayAdapter) ValidateWebhook(req *payment.WebhookRequest) (*payment.WebhookResult, error) {
	if a.signer == nil {
		return nil, payment.ErrProviderNotInitialized
	}

	signature := req.Signature
	signed := make(map[string]string, len(req.Params))
	for k, v := range req.Params {
		if k == "vnp_SecureHash" {
			if signature == "" {
				signature = v
			}
			continue
		}
		if k == "vnp_SecureHashType" {
			continue
		}
		signed[k] = v
	}

	if !a.signer.Verify(signed, signature) {
		return &payment.WebhookResult{IsValid: false}, nil
	}

	result := &payment.WebhookResult{
		IsValid:       true,
		EventID:       req.Params["vnp_TransactionNo"],
		TransactionID: req.Params["vnp_TxnRef"],
		Status:        mapVNPayStatus(req.Params["vnp_ResponseCode"]),
		RawStatus:     req.Params["vnp_ResponseCode"],
	}
	if raw := req.Params["vnp_Amount"]; raw != "" {
		if amount, err := decimal.NewFromString(raw); err == nil {
			result.Amount = amount.Div(decimal.NewFromInt(100))
		}
	}

	return result, nil
}

// HealthCheck probes the payment endpoint
func (a *VNPayAdapter) HealthCheck(ctx context.Context) *payment.HealthStatus {
	status := &payment.HealthStatus{CheckedAt: time.Now()}
	if a.signer == nil {
		status.Message = "not initialized"
		return status
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, a.payURL, nil)
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

func (a *VNPayAdapter) doRequest(ctx context.Context, body map[string]string, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vnpay: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vnpay: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("vnpay: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("vnpay: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vnpay: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("vnpay: failed to parse response: %w", err)
	}
	return nil
}

// mapVNPayStatus maps VNPay response/transaction codes onto the neutral set
func mapVNPayStatus(code string) payment.Status {
	switch code {
	case "00":
		return payment.StatusPaid
	case "01", "02":
		return payment.StatusPending
	case "04", "05", "06":
		return payment.StatusProcessing
	case "11":
		return payment.StatusExpired
	case "24":
		return payment.StatusCancelled
	default:
		return payment.StatusFailed
	}
}

var _ payment.Provider = (*VNPayAdapter)(nil)
