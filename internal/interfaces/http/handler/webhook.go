package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
)

// WebhookHandler receives gateway payment callbacks. Each gateway has its own
// wire format and expects its own acknowledgement shape, so these endpoints
// do not use the standard response envelope.
type WebhookHandler struct {
	BaseHandler
	webhooks *checkoutapp.WebhookService
	logger   *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhooks *checkoutapp.WebhookService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{webhooks: webhooks, logger: logger}
}

// VNPayIPN handles GET /webhooks/:tenantId/vnpay
// VNPay delivers the IPN as query parameters and expects an RspCode body.
func (h *WebhookHandler) VNPayIPN(c *gin.Context) {
	tenantID, ok := h.parseUUIDParam(c, "tenantId")
	if !ok {
		return
	}

	params := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	ack, err := h.webhooks.HandleWebhook(c.Request.Context(), tenantID, payment.ProviderVNPay, &payment.WebhookRequest{
		Params: params,
	})
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"RspCode": vnpayRspCode(err), "Message": "Confirm Fail"})
		return
	}
	if ack.Duplicate {
		c.JSON(http.StatusOK, gin.H{"RspCode": "02", "Message": "Order already confirmed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"RspCode": "00", "Message": "Confirm Success"})
}

// vnpayRspCode maps processing failures onto VNPay's IPN response codes
func vnpayRspCode(err error) string {
	switch {
	case errors.Is(err, shared.ErrSignatureInvalid):
		return "97"
	case errors.Is(err, shared.ErrNotFound):
		return "01"
	default:
		return "99"
	}
}

// PayOS handles POST /webhooks/:tenantId/payos
// PayOS signs the JSON body; the raw bytes must reach the verifier untouched.
func (h *WebhookHandler) PayOS(c *gin.Context) {
	tenantID, ok := h.parseUUIDParam(c, "tenantId")
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	ack, err := h.webhooks.HandleWebhook(c.Request.Context(), tenantID, payment.ProviderPayOS, &payment.WebhookRequest{
		RawBody: body,
	})
	if err != nil {
		h.logWebhookFailure(c, payment.ProviderPayOS, err)
		status := http.StatusBadRequest
		if errors.Is(err, shared.ErrSignatureInvalid) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "duplicate": ack.Duplicate})
}

// MoMo handles POST /webhooks/:tenantId/momo
// MoMo posts a JSON body and treats HTTP 204 as a successful acknowledgement.
func (h *WebhookHandler) MoMo(c *gin.Context) {
	tenantID, ok := h.parseUUIDParam(c, "tenantId")
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	params := make(map[string]string, len(raw))
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			params[key] = s
			continue
		}
		// numeric fields (amount, transId, resultCode) arrive unquoted
		params[key] = string(value)
	}

	_, err = h.webhooks.HandleWebhook(c.Request.Context(), tenantID, payment.ProviderMoMo, &payment.WebhookRequest{
		Params:  params,
		RawBody: body,
	})
	if err != nil {
		h.logWebhookFailure(c, payment.ProviderMoMo, err)
		if errors.Is(err, shared.ErrSignatureInvalid) {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.Status(http.StatusBadRequest)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers the gateway callback endpoints
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks/:tenantId")
	{
		webhooks.GET("/vnpay", h.VNPayIPN)
		webhooks.POST("/payos", h.PayOS)
		webhooks.POST("/momo", h.MoMo)
	}
}

func (h *WebhookHandler) logWebhookFailure(c *gin.Context, provider payment.ProviderKey, err error) {
	h.logger.Warn("webhook processing failed",
		zap.String("provider", provider.String()),
		zap.String("path", c.Request.URL.Path),
		zap.String("client_ip", c.ClientIP()),
		zap.Error(err))
}
