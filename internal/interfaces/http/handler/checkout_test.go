package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/infrastructure/gateway"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func newCheckoutTestRouter(t *testing.T) (*gin.Engine, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tenantID := uuid.New()
	svc := checkoutapp.NewService(newFakeSessionRepo(), &fakeConfigRepo{}, gateway.NewProviderFromConfig, nil)

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewCheckoutHandler(svc).RegisterRoutes(api)
	return engine, tenantID
}

func doJSON(t *testing.T, engine *gin.Engine, tenantID uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID.String())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func TestCheckoutHandler_StepFlow(t *testing.T) {
	engine, tenantID := newCheckoutTestRouter(t)

	// start
	w := doJSON(t, engine, tenantID, http.MethodPost, "/api/v1/checkout/sessions", gin.H{
		"cart_id":   uuid.New().String(),
		"sub_total": "1000000",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	session := decodeSession(t, w)
	sessionID := session["id"].(string)
	assert.Equal(t, "STARTED", session["status"])

	base := "/api/v1/checkout/sessions/" + sessionID

	// contact details
	w = doJSON(t, engine, tenantID, http.MethodPut, base+"/customer", gin.H{
		"email": "a@example.com",
		"phone": "0901234567",
		"name":  "Nguyen Van A",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// shipping address
	w = doJSON(t, engine, tenantID, http.MethodPut, base+"/shipping-address", gin.H{
		"address": gin.H{
			"recipient_name": "Nguyen Van A",
			"phone":          "0901234567",
			"line1":          "12 Ly Thuong Kiet",
			"ward":           "Phuong 7",
			"district":       "Quan 3",
			"province":       "Ho Chi Minh",
		},
		"billing_same_as_shipping": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ADDRESS_COMPLETE", decodeSession(t, w)["status"])

	// shipping method
	w = doJSON(t, engine, tenantID, http.MethodPut, base+"/shipping-method", gin.H{
		"method": "standard",
		"cost":   "30000",
	})
	require.Equal(t, http.StatusOK, w.Code)
	session = decodeSession(t, w)
	assert.Equal(t, "SHIPPING_SELECTED", session["status"])
	assert.Equal(t, "1030000", fmt.Sprint(session["grand_total"]))

	// offline payment method
	w = doJSON(t, engine, tenantID, http.MethodPut, base+"/payment-method", gin.H{
		"method": "COD",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// projection reflects the selection
	w = doJSON(t, engine, tenantID, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PAYMENT_PENDING", decodeSession(t, w)["status"])
}

func TestCheckoutHandler_ShippingMethodBeforeAddress(t *testing.T) {
	engine, tenantID := newCheckoutTestRouter(t)

	w := doJSON(t, engine, tenantID, http.MethodPost, "/api/v1/checkout/sessions", gin.H{
		"cart_id":   uuid.New().String(),
		"sub_total": "500000",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	sessionID := decodeSession(t, w)["id"].(string)

	w = doJSON(t, engine, tenantID, http.MethodPut, "/api/v1/checkout/sessions/"+sessionID+"/shipping-method", gin.H{
		"method": "standard",
		"cost":   "30000",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodePreconditionFailed)
}

func TestCheckoutHandler_UnknownSession(t *testing.T) {
	engine, tenantID := newCheckoutTestRouter(t)

	w := doJSON(t, engine, tenantID, http.MethodGet, "/api/v1/checkout/sessions/"+uuid.New().String(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeNotFound)
}
