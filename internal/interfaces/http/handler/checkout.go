package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	checkoutapp "github.com/storefront/backend/internal/application/checkout"
)

// CheckoutHandler exposes the checkout step endpoints
type CheckoutHandler struct {
	BaseHandler
	service *checkoutapp.Service
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(service *checkoutapp.Service) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// sessionScope extracts the tenant and session IDs shared by every step
// endpoint; it has already written the error response when ok is false
func (h *CheckoutHandler) sessionScope(c *gin.Context) (tenantID, sessionID uuid.UUID, ok bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, ok = h.parseUUIDParam(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, sessionID, true
}

// Start handles POST /checkout/sessions
func (h *CheckoutHandler) Start(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req checkoutapp.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.UserID == nil {
		req.UserID = getUserID(c)
	}

	resp, err := h.service.Start(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get handles GET /checkout/sessions/:id
func (h *CheckoutHandler) Get(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByCart handles GET /checkout/carts/:cartId/session
func (h *CheckoutHandler) GetByCart(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	cartID, ok := h.parseUUIDParam(c, "cartId")
	if !ok {
		return
	}

	resp, err := h.service.GetByCartID(c.Request.Context(), tenantID, cartID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetCustomerInfo handles PUT /checkout/sessions/:id/customer
func (h *CheckoutHandler) SetCustomerInfo(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req checkoutapp.SetCustomerInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.SetCustomerInfo(c.Request.Context(), tenantID, sessionID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetCustomerNotes handles PUT /checkout/sessions/:id/notes
func (h *CheckoutHandler) SetCustomerNotes(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req checkoutapp.SetCustomerNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.SetCustomerNotes(c.Request.Context(), tenantID, sessionID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetShippingAddress handles PUT /checkout/sessions/:id/shipping-address
func (h *CheckoutHandler) SetShippingAddress(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req checkoutapp.SetShippingAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.SetShippingAddress(c.Request.Context(), tenantID, sessionID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetBillingAddress handles PUT /checkout/sessions/:id/billing-address
func (h *CheckoutHandler) SetBillingAddress(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req checkoutapp.SetBillingAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.SetBillingAddress(c.Request.Context(), tenantID, sessionID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// SelectShippingMethod handles PUT /checkout/sessions/:id/shipping-method
func (h *CheckoutHandler) SelectShippingMethod(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req checkoutapp.SelectShippingMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.SelectShippingMethod(c.Request.Context(), tenantID, sessionID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// SelectPaymentMethod handles PUT /checkout/sessions/:id/payment-method
func (h *CheckoutHandler) SelectPaymentMethod(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req checkoutapp.SelectPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ClientIP = c.ClientIP()

	resp, err := h.service.SelectPaymentMethod(c.Request.Context(), tenantID, sessionID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// ApplyCoupon handles POST /checkout/sessions/:id/coupon
func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req checkoutapp.ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.ApplyCoupon(c.Request.Context(), tenantID, sessionID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveCoupon handles DELETE /checkout/sessions/:id/coupon
func (h *CheckoutHandler) RemoveCoupon(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	resp, err := h.service.RemoveCoupon(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetTax handles PUT /checkout/sessions/:id/tax
func (h *CheckoutHandler) SetTax(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req checkoutapp.SetTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.SetTax(c.Request.Context(), tenantID, sessionID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Abandon handles POST /checkout/sessions/:id/abandon
func (h *CheckoutHandler) Abandon(c *gin.Context) {
	tenantID, sessionID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	resp, err := h.service.Abandon(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListPaymentMethods handles GET /checkout/payment-methods
func (h *CheckoutHandler) ListPaymentMethods(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	options, err := h.service.ListPaymentMethods(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, options)
}

// RegisterRoutes registers the checkout endpoints
func (h *CheckoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	checkout := rg.Group("/checkout")
	{
		checkout.GET("/payment-methods", h.ListPaymentMethods)
		checkout.GET("/carts/:cartId/session", h.GetByCart)

		sessions := checkout.Group("/sessions")
		{
			sessions.POST("", h.Start)
			sessions.GET("/:id", h.Get)
			sessions.PUT("/:id/customer", h.SetCustomerInfo)
			sessions.PUT("/:id/notes", h.SetCustomerNotes)
			sessions.PUT("/:id/shipping-address", h.SetShippingAddress)
			sessions.PUT("/:id/billing-address", h.SetBillingAddress)
			sessions.PUT("/:id/shipping-method", h.SelectShippingMethod)
			sessions.PUT("/:id/payment-method", h.SelectPaymentMethod)
			sessions.PUT("/:id/tax", h.SetTax)
			sessions.POST("/:id/coupon", h.ApplyCoupon)
			sessions.DELETE("/:id/coupon", h.RemoveCoupon)
			sessions.POST("/:id/abandon", h.Abandon)
		}
	}
}
