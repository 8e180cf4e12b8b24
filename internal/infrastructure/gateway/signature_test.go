package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	t.Run("sorts keys and skips empty values", func(t *testing.T) {
		params := map[string]string{
			"vnp_TxnRef":    "SESSION-42",
			"vnp_Amount":    "103000000",
			"vnp_BankCode":  "",
			"vnp_OrderInfo": "Thanh toan don hang",
		}
		got := Canonicalize(params)
		assert.Equal(t, "vnp_Amount=103000000&vnp_OrderInfo=Thanh+toan+don+hang&vnp_TxnRef=SESSION-42", got)
	})

	t.Run("empty map yields empty string", func(t *testing.T) {
		assert.Equal(t, "", Canonicalize(map[string]string{}))
	})

	t.Run("url-encodes values", func(t *testing.T) {
		got := Canonicalize(map[string]string{"redirect": "https://shop.vn/return?a=1&b=2"})
		assert.Equal(t, "redirect=https%3A%2F%2Fshop.vn%2Freturn%3Fa%3D1%26b%3D2", got)
	})
}

func TestSigner_RoundTrip(t *testing.T) {
	params := map[string]string{
		"amount":   "520000",
		"orderId":  "SESSION-7",
		"status":   "00",
		"payDate":  "20260828143000",
		"bankCode": "NCB",
	}

	for _, algo := range []Algorithm{HMACSHA256, HMACSHA512} {
		t.Run(string(algo), func(t *testing.T) {
			signer := NewSigner("super-secret-key", algo)
			sig := signer.Sign(params)

			assert.NotEmpty(t, sig)
			assert.True(t, signer.Verify(params, sig))
			// signatures compare case-insensitively
			assert.True(t, signer.Verify(params, strings.ToUpper(sig)))
		})
	}
}

func TestSigner_Verify(t *testing.T) {
	signer := NewSigner("super-secret-key", HMACSHA512)
	params := map[string]string{"amount": "100000", "orderId": "SESSION-1", "status": "00"}
	sig := signer.Sign(params)

	t.Run("rejects tampered parameter", func(t *testing.T) {
		tampered := map[string]string{"amount": "1", "orderId": "SESSION-1", "status": "00"}
		assert.False(t, signer.Verify(tampered, sig))
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		other := NewSigner("other-secret", HMACSHA512)
		assert.False(t, other.Verify(params, sig))
	})

	t.Run("rejects empty signature", func(t *testing.T) {
		assert.False(t, signer.Verify(params, ""))
	})

	t.Run("added empty value does not change the signature", func(t *testing.T) {
		withEmpty := map[string]string{"amount": "100000", "orderId": "SESSION-1", "status": "00", "note": ""}
		assert.True(t, signer.Verify(withEmpty, sig))
	})
}

func TestSigner_SignString(t *testing.T) {
	signer := NewSigner("checksum-key", HMACSHA256)
	payload := "amount=2000&cancelUrl=https://shop.vn/cancel&orderCode=42"

	sig := signer.SignString(payload)
	assert.True(t, signer.VerifyString(payload, sig))
	assert.False(t, signer.VerifyString(payload+"x", sig))
}
