package gateway

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/payment"
)

func initializedVNPay(t *testing.T) *VNPayAdapter {
	t.Helper()
	adapter := NewVNPayAdapter()
	err := adapter.Initialize(map[string]string{
		"tmn_code":    "DEMO01",
		"hash_secret": "VNPAYSECRETKEY",
	}, payment.EnvironmentSandbox)
	require.NoError(t, err)
	return adapter
}

func TestVNPayAdapter_Initialize(t *testing.T) {
	t.Run("requires tmn_code and hash_secret", func(t *testing.T) {
		adapter := NewVNPayAdapter()
		err := adapter.Initialize(map[string]string{"tmn_code": "DEMO01"}, payment.EnvironmentSandbox)
		assert.ErrorIs(t, err, payment.ErrInvalidCredentials)
	})

	t.Run("selects endpoint by environment", func(t *testing.T) {
		adapter := initializedVNPay(t)
		assert.Equal(t, vnpaySandboxPayURL, adapter.payURL)

		require.NoError(t, adapter.Initialize(map[string]string{
			"tmn_code": "DEMO01", "hash_secret": "VNPAYSECRETKEY",
		}, payment.EnvironmentProduction))
		assert.Equal(t, vnpayPayURL, adapter.payURL)
	})

	t.Run("operations fail before initialization", func(t *testing.T) {
		adapter := NewVNPayAdapter()
		_, err := adapter.InitiatePayment(context.Background(), &payment.InitiateRequest{})
		assert.ErrorIs(t, err, payment.ErrProviderNotInitialized)

		_, err = adapter.ValidateWebhook(&payment.WebhookRequest{})
		assert.ErrorIs(t, err, payment.ErrProviderNotInitialized)
	})
}

func TestVNPayAdapter_InitiatePayment(t *testing.T) {
	adapter := initializedVNPay(t)
	sessionID := uuid.New()

	result, err := adapter.InitiatePayment(context.Background(), &payment.InitiateRequest{
		SessionID: sessionID,
		TenantID:  uuid.New(),
		Amount:    decimal.NewFromInt(1030000),
		Currency:  "VND",
		OrderInfo: "Thanh toan don hang",
		ReturnURL: "https://shop.vn/checkout/return",
		ClientIP:  "203.0.113.7",
	})

	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, sessionID.String(), result.TransactionID)

	parsed, err := url.Parse(result.PaymentURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "103000000", q.Get("vnp_Amount"), "amount is multiplied by 100")
	assert.Equal(t, sessionID.String(), q.Get("vnp_TxnRef"))
	assert.NotEmpty(t, q.Get("vnp_SecureHash"))

	// the embedded hash verifies against the remaining query parameters
	signed := make(map[string]string)
	for k := range q {
		if k == "vnp_SecureHash" {
			continue
		}
		signed[k] = q.Get(k)
	}
	assert.True(t, adapter.signer.Verify(signed, q.Get("vnp_SecureHash")))
}

func TestVNPayAdapter_InitiatePayment_Rejections(t *testing.T) {
	adapter := initializedVNPay(t)

	t.Run("non-VND currency", func(t *testing.T) {
		result, err := adapter.InitiatePayment(context.Background(), &payment.InitiateRequest{
			SessionID: uuid.New(),
			Amount:    decimal.NewFromInt(100),
			Currency:  "USD",
			ReturnURL: "https://shop.vn/return",
		})
		require.NoError(t, err, "gateway rejections are results, not errors")
		assert.False(t, result.Success)
		assert.Contains(t, result.FailureReason, "VND")
	})

	t.Run("invalid request", func(t *testing.T) {
		result, err := adapter.InitiatePayment(context.Background(), &payment.InitiateRequest{})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.FailureReason)
	})
}

func TestVNPayAdapter_ValidateWebhook(t *testing.T) {
	adapter := initializedVNPay(t)

	params := map[string]string{
		"vnp_TxnRef":        uuid.New().String(),
		"vnp_Amount":        "103000000",
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "14226112",
		"vnp_BankCode":      "NCB",
		"vnp_PayDate":       "20260828143000",
	}
	params["vnp_SecureHash"] = adapter.signer.Sign(params)

	t.Run("valid callback", func(t *testing.T) {
		result, err := adapter.ValidateWebhook(&payment.WebhookRequest{Params: params})
		require.NoError(t, err)
		assert.True(t, result.IsValid)
		assert.Equal(t, payment.StatusPaid, result.Status)
		assert.Equal(t, params["vnp_TxnRef"], result.TransactionID)
		assert.Equal(t, "14226112", result.EventID)
		assert.True(t, result.Amount.Equal(decimal.NewFromInt(1030000)))
	})

	t.Run("tampered amount", func(t *testing.T) {
		tampered := make(map[string]string, len(params))
		for k, v := range params {
			tampered[k] = v
		}
		tampered["vnp_Amount"] = "100"

		result, err := adapter.ValidateWebhook(&payment.WebhookRequest{Params: tampered})
		require.NoError(t, err, "invalid signatures are results, not errors")
		assert.False(t, result.IsValid)
	})

	t.Run("missing signature", func(t *testing.T) {
		unsigned := map[string]string{"vnp_TxnRef": "x", "vnp_ResponseCode": "00"}
		result, err := adapter.ValidateWebhook(&payment.WebhookRequest{Params: unsigned})
		require.NoError(t, err)
		assert.False(t, result.IsValid)
	})

	t.Run("cancelled payment", func(t *testing.T) {
		cancelled := map[string]string{
			"vnp_TxnRef":       uuid.New().String(),
			"vnp_Amount":       "10000000",
			"vnp_ResponseCode": "24",
		}
		cancelled["vnp_SecureHash"] = strings.ToUpper(adapter.signer.Sign(cancelled))

		result, err := adapter.ValidateWebhook(&payment.WebhookRequest{Params: cancelled})
		require.NoError(t, err)
		assert.True(t, result.IsValid, "uppercase signatures are accepted")
		assert.Equal(t, payment.StatusCancelled, result.Status)
	})
}

func TestMapVNPayStatus(t *testing.T) {
	assert.Equal(t, payment.StatusPaid, mapVNPayStatus("00"))
	assert.Equal(t, payment.StatusPending, mapVNPayStatus("01"))
	assert.Equal(t, payment.StatusExpired, mapVNPayStatus("11"))
	assert.Equal(t, payment.StatusCancelled, mapVNPayStatus("24"))
	assert.Equal(t, payment.StatusFailed, mapVNPayStatus("99"))
}
