package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	paymentapp "github.com/storefront/backend/internal/application/payment"
)

// GatewayConfigHandler exposes the tenant gateway administration endpoints
type GatewayConfigHandler struct {
	BaseHandler
	service *paymentapp.GatewayConfigService
}

// NewGatewayConfigHandler creates a new GatewayConfigHandler
func NewGatewayConfigHandler(service *paymentapp.GatewayConfigService) *GatewayConfigHandler {
	return &GatewayConfigHandler{service: service}
}

// Create handles POST /payment-gateways
func (h *GatewayConfigHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req paymentapp.CreateGatewayConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// Providers handles GET /payment-gateways/providers
func (h *GatewayConfigHandler) Providers(c *gin.Context) {
	h.Success(c, gin.H{"providers": h.service.SupportedProviders()})
}

// Get handles GET /payment-gateways/:id
func (h *GatewayConfigHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	configID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), tenantID, configID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListEnabled handles GET /payment-gateways
func (h *GatewayConfigHandler) ListEnabled(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	resp, err := h.service.ListEnabled(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateCredentials handles PUT /payment-gateways/:id/credentials
func (h *GatewayConfigHandler) UpdateCredentials(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	configID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req paymentapp.UpdateCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.UpdateCredentials(c.Request.Context(), tenantID, configID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Enable handles POST /payment-gateways/:id/enable
func (h *GatewayConfigHandler) Enable(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	configID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.Enable(c.Request.Context(), tenantID, configID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Disable handles POST /payment-gateways/:id/disable
func (h *GatewayConfigHandler) Disable(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	configID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.Disable(c.Request.Context(), tenantID, configID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /payment-gateways/:id
func (h *GatewayConfigHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	configID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, configID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckHealth handles GET /payment-gateways/:id/health
func (h *GatewayConfigHandler) CheckHealth(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	configID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.CheckHealth(c.Request.Context(), tenantID, configID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// RegisterRoutes registers the gateway administration endpoints
func (h *GatewayConfigHandler) RegisterRoutes(rg *gin.RouterGroup) {
	gateways := rg.Group("/payment-gateways")
	{
		gateways.POST("", h.Create)
		gateways.GET("", h.ListEnabled)
		gateways.GET("/providers", h.Providers)
		gateways.GET("/:id", h.Get)
		gateways.PUT("/:id/credentials", h.UpdateCredentials)
		gateways.POST("/:id/enable", h.Enable)
		gateways.POST("/:id/disable", h.Disable)
		gateways.DELETE("/:id", h.Delete)
		gateways.GET("/:id/health", h.CheckHealth)
	}
}
