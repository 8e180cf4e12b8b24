package gateway

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/payment"
)

func initializedMoMo(t *testing.T) *MoMoAdapter {
	t.Helper()
	adapter := NewMoMoAdapter()
	err := adapter.Initialize(map[string]string{
		"partner_code": "MOMODEMO",
		"access_key":   "access-key",
		"secret_key":   "secret-key",
	}, payment.EnvironmentSandbox)
	require.NoError(t, err)
	return adapter
}

func TestMoMoAdapter_Initialize(t *testing.T) {
	t.Run("requires all three credentials", func(t *testing.T) {
		adapter := NewMoMoAdapter()
		err := adapter.Initialize(map[string]string{
			"partner_code": "MOMODEMO", "access_key": "a",
		}, payment.EnvironmentSandbox)
		assert.ErrorIs(t, err, payment.ErrInvalidCredentials)
	})

	t.Run("selects endpoint by environment", func(t *testing.T) {
		adapter := initializedMoMo(t)
		assert.Equal(t, momoSandboxAPIURL, adapter.apiURL)
	})

	t.Run("operations fail before initialization", func(t *testing.T) {
		adapter := NewMoMoAdapter()
		_, err := adapter.Refund(context.Background(), &payment.RefundRequest{})
		assert.ErrorIs(t, err, payment.ErrProviderNotInitialized)
	})
}

func momoCallbackParams(adapter *MoMoAdapter, orderID string, resultCode int) map[string]string {
	params := map[string]string{
		"partnerCode":  "MOMODEMO",
		"orderId":      orderID,
		"requestId":    uuid.New().String(),
		"amount":       "470000",
		"orderInfo":    "Thanh toan don hang",
		"orderType":    "momo_wallet",
		"transId":      "2147483647",
		"resultCode":   fmt.Sprintf("%d", resultCode),
		"message":      "Successful.",
		"payType":      "qr",
		"responseTime": "1772190000000",
		"extraData":    "",
	}
	signPayload := fmt.Sprintf(
		"accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		adapter.accessKey, params["amount"], params["extraData"], params["message"],
		params["orderId"], params["orderInfo"], params["orderType"], params["partnerCode"],
		params["payType"], params["requestId"], params["responseTime"],
		params["resultCode"], params["transId"],
	)
	params["signature"] = adapter.signer.SignString(signPayload)
	return params
}

func TestMoMoAdapter_ValidateWebhook(t *testing.T) {
	adapter := initializedMoMo(t)
	orderID := uuid.New().String()

	t.Run("valid successful callback", func(t *testing.T) {
		result, err := adapter.ValidateWebhook(&payment.WebhookRequest{
			Params: momoCallbackParams(adapter, orderID, 0),
		})
		require.NoError(t, err)
		assert.True(t, result.IsValid)
		assert.Equal(t, payment.StatusPaid, result.Status)
		assert.Equal(t, orderID, result.TransactionID)
		assert.Equal(t, "2147483647", result.EventID)
		assert.True(t, result.Amount.Equal(decimal.NewFromInt(470000)))
	})

	t.Run("failed payment still validates", func(t *testing.T) {
		result, err := adapter.ValidateWebhook(&payment.WebhookRequest{
			Params: momoCallbackParams(adapter, orderID, 1006),
		})
		require.NoError(t, err)
		assert.True(t, result.IsValid)
		assert.Equal(t, payment.StatusFailed, result.Status)
	})

	t.Run("tampered parameter", func(t *testing.T) {
		params := momoCallbackParams(adapter, orderID, 0)
		params["amount"] = "1"

		result, err := adapter.ValidateWebhook(&payment.WebhookRequest{Params: params})
		require.NoError(t, err)
		assert.False(t, result.IsValid)
	})
}

func TestMoMoAdapter_Refund_NonNumericTransID(t *testing.T) {
	adapter := initializedMoMo(t)

	result, err := adapter.Refund(context.Background(), &payment.RefundRequest{
		TransactionID: "not-a-number",
		Amount:        decimal.NewFromInt(1000),
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.FailureReason, "numeric")
}

func TestMapMoMoResultCode(t *testing.T) {
	assert.Equal(t, payment.StatusPaid, mapMoMoResultCode(0))
	assert.Equal(t, payment.StatusPending, mapMoMoResultCode(1000))
	assert.Equal(t, payment.StatusProcessing, mapMoMoResultCode(9000))
	assert.Equal(t, payment.StatusCancelled, mapMoMoResultCode(1003))
	assert.Equal(t, payment.StatusExpired, mapMoMoResultCode(1005))
	assert.Equal(t, payment.StatusFailed, mapMoMoResultCode(1006))
}
