package payment

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProviderFactory builds an initialized payment provider from a gateway
// configuration
type ProviderFactory func(config *payment.GatewayConfig) (payment.Provider, error)

// GatewayConfigService manages a tenant's payment gateway configurations
type GatewayConfigService struct {
	configs     payment.GatewayConfigRepository
	registry    payment.Registry
	newProvider ProviderFactory
	logger      *zap.Logger
}

// NewGatewayConfigService creates a new GatewayConfigService. The registry
// holds the provider adapters this deployment supports.
func NewGatewayConfigService(configs payment.GatewayConfigRepository, registry payment.Registry, newProvider ProviderFactory, logger *zap.Logger) *GatewayConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GatewayConfigService{
		configs:     configs,
		registry:    registry,
		newProvider: newProvider,
		logger:      logger,
	}
}

// SupportedProviders returns the provider keys this deployment can serve,
// sorted for stable output.
func (s *GatewayConfigService) SupportedProviders() []string {
	keys := s.registry.Keys()
	providers := make([]string, 0, len(keys))
	for _, key := range keys {
		providers = append(providers, string(key))
	}
	sort.Strings(providers)
	return providers
}

// Create registers a gateway for a tenant. The credentials are validated by
// constructing the provider before anything is stored; the gateway starts
// disabled.
func (s *GatewayConfigService) Create(ctx context.Context, tenantID uuid.UUID, req CreateGatewayConfigRequest) (*GatewayConfigResponse, error) {
	provider := payment.ProviderKey(req.Provider)
	if _, err := s.registry.Get(provider); err != nil {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "Unsupported payment provider: "+req.Provider)
	}

	if existing, err := s.configs.FindByProvider(ctx, tenantID, provider); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Gateway "+req.Provider+" is already configured for this tenant")
	}

	config, err := payment.NewGatewayConfig(tenantID, provider, req.DisplayName, payment.Environment(req.Environment), req.Credentials)
	if err != nil {
		return nil, err
	}
	config.SortOrder = req.SortOrder

	if _, err := s.newProvider(config); err != nil {
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", err.Error())
	}

	if err := s.configs.Save(ctx, config); err != nil {
		return nil, err
	}

	s.logger.Info("payment gateway configured",
		zap.String("tenant_id", tenantID.String()),
		zap.String("provider", req.Provider),
		zap.String("environment", req.Environment))

	response := ToGatewayConfigResponse(config)
	return &response, nil
}

// Get retrieves a gateway configuration
func (s *GatewayConfigService) Get(ctx context.Context, tenantID, configID uuid.UUID) (*GatewayConfigResponse, error) {
	config, err := s.configs.FindByID(ctx, tenantID, configID)
	if err != nil {
		return nil, err
	}
	response := ToGatewayConfigResponse(config)
	return &response, nil
}

// ListEnabled lists the tenant's enabled gateways in display order
func (s *GatewayConfigService) ListEnabled(ctx context.Context, tenantID uuid.UUID) ([]GatewayConfigResponse, error) {
	configs, err := s.configs.FindEnabled(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	responses := make([]GatewayConfigResponse, len(configs))
	for i, config := range configs {
		responses[i] = ToGatewayConfigResponse(config)
	}
	return responses, nil
}

// UpdateCredentials replaces a gateway's credentials, re-validating them
// through the provider before saving
func (s *GatewayConfigService) UpdateCredentials(ctx context.Context, tenantID, configID uuid.UUID, req UpdateCredentialsRequest) (*GatewayConfigResponse, error) {
	config, err := s.configs.FindByID(ctx, tenantID, configID)
	if err != nil {
		return nil, err
	}

	if err := config.UpdateCredentials(req.Credentials); err != nil {
		return nil, err
	}
	if req.Environment != "" {
		if err := config.SetEnvironment(payment.Environment(req.Environment)); err != nil {
			return nil, err
		}
	}

	if _, err := s.newProvider(config); err != nil {
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", err.Error())
	}

	if err := s.configs.Save(ctx, config); err != nil {
		return nil, err
	}

	response := ToGatewayConfigResponse(config)
	return &response, nil
}

// Enable makes a gateway available to checkout
func (s *GatewayConfigService) Enable(ctx context.Context, tenantID, configID uuid.UUID) (*GatewayConfigResponse, error) {
	config, err := s.configs.FindByID(ctx, tenantID, configID)
	if err != nil {
		return nil, err
	}

	config.Enable()
	if err := s.configs.Save(ctx, config); err != nil {
		return nil, err
	}

	response := ToGatewayConfigResponse(config)
	return &response, nil
}

// Disable removes a gateway from checkout without deleting its credentials
func (s *GatewayConfigService) Disable(ctx context.Context, tenantID, configID uuid.UUID) (*GatewayConfigResponse, error) {
	config, err := s.configs.FindByID(ctx, tenantID, configID)
	if err != nil {
		return nil, err
	}

	config.Disable()
	if err := s.configs.Save(ctx, config); err != nil {
		return nil, err
	}

	response := ToGatewayConfigResponse(config)
	return &response, nil
}

// Delete removes a gateway configuration entirely
func (s *GatewayConfigService) Delete(ctx context.Context, tenantID, configID uuid.UUID) error {
	return s.configs.Delete(ctx, tenantID, configID)
}

// CheckHealth probes a configured gateway
func (s *GatewayConfigService) CheckHealth(ctx context.Context, tenantID, configID uuid.UUID) (*HealthResponse, error) {
	config, err := s.configs.FindByID(ctx, tenantID, configID)
	if err != nil {
		return nil, err
	}

	provider, err := s.newProvider(config)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", err.Error())
	}

	status := provider.HealthCheck(ctx)
	return &HealthResponse{
		Provider:  config.Provider.String(),
		Healthy:   status.Healthy,
		Message:   status.Message,
		CheckedAt: status.CheckedAt,
	}, nil
}
