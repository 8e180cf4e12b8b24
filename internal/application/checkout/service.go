package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ProviderFactory builds an initialized payment provider from a tenant's
// gateway configuration
type ProviderFactory func(config *payment.GatewayConfig) (payment.Provider, error)

// Service orchestrates the checkout steps: load the session, run the
// expiration check, apply the aggregate mutation, and save with the
// optimistic version check.
type Service struct {
	sessions    checkout.SessionRepository
	gateways    payment.GatewayConfigRepository
	newProvider ProviderFactory
	logger      *zap.Logger
}

// NewService creates a new checkout Service
func NewService(
	sessions checkout.SessionRepository,
	gateways payment.GatewayConfigRepository,
	newProvider ProviderFactory,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions:    sessions,
		gateways:    gateways,
		newProvider: newProvider,
		logger:      logger,
	}
}

// Start begins a new checkout session for a cart
func (s *Service) Start(ctx context.Context, tenantID uuid.UUID, req StartSessionRequest) (*SessionResponse, error) {
	currency := valueobject.DefaultCurrency
	if req.Currency != "" {
		currency = valueobject.Currency(req.Currency)
		if !currency.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unsupported currency: "+req.Currency)
		}
	}

	session, err := checkout.NewSession(tenantID, req.CartID, req.UserID, req.SubTotal, currency)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("checkout session started",
		zap.String("session_id", session.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("cart_id", req.CartID.String()))

	response := ToSessionResponse(session)
	return &response, nil
}

// Get retrieves a session. An expired session is transitioned lazily so the
// returned projection reflects reality.
func (s *Service) Get(ctx context.Context, tenantID, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		if err := session.MarkAsExpired(); err != nil {
			return nil, err
		}
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
	}

	response := ToSessionResponse(session)
	return &response, nil
}

// GetByCartID retrieves the most recent session for a cart
func (s *Service) GetByCartID(ctx context.Context, tenantID, cartID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessions.FindByCartID(ctx, tenantID, cartID)
	if err != nil {
		return nil, err
	}
	response := ToSessionResponse(session)
	return &response, nil
}

// SetCustomerInfo records the customer's contact details
func (s *Service) SetCustomerInfo(ctx context.Context, tenantID, sessionID uuid.UUID, req SetCustomerInfoRequest) (*SessionResponse, error) {
	return s.mutate(ctx, tenantID, sessionID, func(session *checkout.Session) error {
		return session.SetCustomerInfo(req.Email, req.Phone, req.Name)
	})
}

// SetCustomerNotes records free-form customer notes
func (s *Service) SetCustomerNotes(ctx context.Context, tenantID, sessionID uuid.UUID, req SetCustomerNotesRequest) (*SessionResponse, error) {
	return s.mutate(ctx, tenantID, sessionID, func(session *checkout.Session) error {
		return session.SetCustomerNotes(req.Notes)
	})
}

// SetShippingAddress records the shipping address and advances the session
func (s *Service) SetShippingAddress(ctx context.Context, tenantID, sessionID uuid.UUID, req SetShippingAddressRequest) (*SessionResponse, error) {
	addr, err := req.Address.ToAddress()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}
	return s.mutate(ctx, tenantID, sessionID, func(session *checkout.Session) error {
		return session.SetShippingAddress(addr, req.BillingSameAsShipping)
	})
}

// SetBillingAddress records a billing address distinct from shipping
func (s *Service) SetBillingAddress(ctx context.Context, tenantID, sessionID uuid.UUID, req SetBillingAddressRequest) (*SessionResponse, error) {
	addr, err := req.Address.ToAddress()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}
	return s.mutate(ctx, tenantID, sessionID, func(session *checkout.Session) error {
		return session.SetBillingAddress(addr)
	})
}

// SelectShippingMethod records the shipping choice and recomputes totals
func (s *Service) SelectShippingMethod(ctx context.Context, tenantID, sessionID uuid.UUID, req SelectShippingMethodRequest) (*SessionResponse, error) {
	return s.mutate(ctx, tenantID, sessionID, func(session *checkout.Session) error {
		return session.SelectShippingMethod(req.Method, req.Cost, req.EstimatedDeliveryAt)
	})
}

// ApplyCoupon applies a coupon discount to the session
func (s *Service) ApplyCoupon(ctx context.Context, tenantID, sessionID uuid.UUID, req ApplyCouponRequest) (*SessionResponse, error) {
	return s.mutate(ctx, tenantID, sessionID, func(session *checkout.Session) error {
		return session.ApplyCoupon(req.Code, req.Discount)
	})
}

// RemoveCoupon removes any applied coupon and restores the totals
func (s *Service) RemoveCoupon(ctx context.Context, tenantID, sessionID uuid.UUID) (*SessionResponse, error) {
	return s.mutate(ctx, tenantID, sessionID, func(session *checkout.Session) error {
		return session.RemoveCoupon()
	})
}

// SetTax records the computed tax amount
func (s *Service) SetTax(ctx context.Context, tenantID, sessionID uuid.UUID, req SetTaxRequest) (*SessionResponse, error) {
	return s.mutate(ctx, tenantID, sessionID, func(session *checkout.Session) error {
		return session.SetTax(req.Amount)
	})
}

// Abandon marks the session abandoned at the customer's request. A session
// already past its deadline expires instead.
func (s *Service) Abandon(ctx context.Context, tenantID, sessionID uuid.UUID) (*SessionResponse, error) {
	return s.mutate(ctx, tenantID, sessionID, func(session *checkout.Session) error {
		return session.MarkAsAbandoned()
	})
}

// SelectPaymentMethod records the payment choice. Online methods resolve the
// tenant's gateway configuration and initiate the payment; a hard gateway
// failure leaves the session in PaymentPending so the customer can retry.
func (s *Service) SelectPaymentMethod(ctx context.Context, tenantID, sessionID uuid.UUID, req SelectPaymentMethodRequest) (*PaymentInitiationResponse, error) {
	session, err := s.loadActive(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	method := checkout.PaymentMethod(req.Method)
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+req.Method)
	}

	if !method.RequiresGateway() {
		if err := session.SelectPaymentMethod(method, nil); err != nil {
			return nil, err
		}
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
		return &PaymentInitiationResponse{Session: ToSessionResponse(session)}, nil
	}

	if req.GatewayID == nil {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method "+req.Method+" requires a gateway")
	}

	config, err := s.gateways.FindByID(ctx, tenantID, *req.GatewayID)
	if err != nil {
		return nil, err
	}
	if !config.Enabled {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment gateway "+config.DisplayName+" is disabled")
	}

	if err := session.SelectPaymentMethod(method, req.GatewayID); err != nil {
		return nil, err
	}

	provider, err := s.newProvider(config)
	if err != nil {
		return nil, err
	}

	result, err := provider.InitiatePayment(ctx, &payment.InitiateRequest{
		SessionID:   session.ID,
		TenantID:    tenantID,
		Amount:      session.GrandTotal,
		Currency:    session.Currency.String(),
		OrderInfo:   "Thanh toan don hang " + session.ID.String(),
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
		ClientIP:    req.ClientIP,
		BuyerEmail:  session.CustomerEmail,
		BuyerPhone:  session.CustomerPhone,
		ExpireAfter: time.Until(session.ExpiresAt),
	})
	if err != nil {
		// Payment not confirmed. The method selection still stands so the
		// customer can retry without redoing earlier steps.
		if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
			return nil, saveErr
		}
		s.logger.Error("payment initiation failed",
			zap.String("session_id", session.ID.String()),
			zap.String("provider", config.Provider.String()),
			zap.Error(err))
		return nil, shared.ErrGatewayError
	}

	if !result.Success {
		if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
			return nil, saveErr
		}
		s.logger.Warn("payment initiation rejected by gateway",
			zap.String("session_id", session.ID.String()),
			zap.String("provider", config.Provider.String()),
			zap.String("reason", result.FailureReason))
		return &PaymentInitiationResponse{
			Session:       ToSessionResponse(session),
			FailureReason: result.FailureReason,
		}, nil
	}

	if err := session.SetGatewayTransaction(result.TransactionID); err != nil {
		return nil, err
	}
	if err := session.MarkAsPaymentProcessing(); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	return &PaymentInitiationResponse{
		Session:          ToSessionResponse(session),
		RequiresRedirect: result.PaymentURL != "",
		PaymentURL:       result.PaymentURL,
		QRCode:           result.QRCode,
		TransactionID:    result.TransactionID,
	}, nil
}

// CompleteOffline completes a session paid outside any gateway (COD, manual
// bank transfer confirmed by staff)
func (s *Service) CompleteOffline(ctx context.Context, tenantID, sessionID uuid.UUID, orderID uuid.UUID, orderNumber string) (*SessionResponse, error) {
	return s.mutate(ctx, tenantID, sessionID, func(session *checkout.Session) error {
		return session.Complete(orderID, orderNumber)
	})
}

// ListPaymentMethods returns the payment options available to a tenant's
// customers: the offline methods plus every enabled gateway.
func (s *Service) ListPaymentMethods(ctx context.Context, tenantID uuid.UUID) ([]PaymentMethodOption, error) {
	options := []PaymentMethodOption{
		{Method: string(checkout.PaymentMethodCOD), DisplayName: "Cash on delivery"},
		{Method: string(checkout.PaymentMethodBankTransfer), DisplayName: "Bank transfer"},
	}

	configs, err := s.gateways.FindEnabled(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, config := range configs {
		gatewayID := config.ID
		options = append(options, PaymentMethodOption{
			Method:      string(config.Provider),
			DisplayName: config.DisplayName,
			GatewayID:   &gatewayID,
			Online:      true,
		})
	}
	return options, nil
}

// ExpireStale transitions sessions whose deadline passed, in batches. Used by
// the background sweeper; lazy expiration on read keeps correctness without it.
func (s *Service) ExpireStale(ctx context.Context, batchSize int) (int, error) {
	sessions, err := s.sessions.FindExpiredBefore(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, session := range sessions {
		if err := session.MarkAsExpired(); err != nil {
			s.logger.Warn("failed to expire session",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.sessions.Save(ctx, session); err != nil {
			s.logger.Warn("failed to save expired session",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

// loadActive loads a session for mutation. An expired session is transitioned
// and persisted, then reported as SESSION_EXPIRED.
func (s *Service) loadActive(ctx context.Context, tenantID, sessionID uuid.UUID) (*checkout.Session, error) {
	session, err := s.sessions.FindByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		if err := session.MarkAsExpired(); err != nil {
			return nil, err
		}
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
		return nil, shared.ErrSessionExpired
	}
	return session, nil
}

func (s *Service) mutate(ctx context.Context, tenantID, sessionID uuid.UUID, fn func(*checkout.Session) error) (*SessionResponse, error) {
	session, err := s.loadActive(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	response := ToSessionResponse(session)
	return &response, nil
}
