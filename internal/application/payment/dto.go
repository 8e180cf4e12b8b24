package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/payment"
)

// CreateGatewayConfigRequest represents a request to register a gateway
type CreateGatewayConfigRequest struct {
	Provider    string            `json:"provider" binding:"required"`
	DisplayName string            `json:"display_name" binding:"max=200"`
	Environment string            `json:"environment" binding:"required,oneof=sandbox production"`
	Credentials map[string]string `json:"credentials" binding:"required"`
	SortOrder   int               `json:"sort_order"`
}

// UpdateCredentialsRequest replaces a gateway's credentials
type UpdateCredentialsRequest struct {
	Credentials map[string]string `json:"credentials" binding:"required"`
	Environment string            `json:"environment" binding:"omitempty,oneof=sandbox production"`
}

// GatewayConfigResponse is the projection of a gateway configuration.
// Credential values are never echoed back; only the key names are listed.
type GatewayConfigResponse struct {
	ID             uuid.UUID `json:"id"`
	Provider       string    `json:"provider"`
	DisplayName    string    `json:"display_name"`
	Environment    string    `json:"environment"`
	CredentialKeys []string  `json:"credential_keys"`
	Enabled        bool      `json:"enabled"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HealthResponse reports a configured gateway's reachability
type HealthResponse struct {
	Provider  string    `json:"provider"`
	Healthy   bool      `json:"healthy"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// ToGatewayConfigResponse converts a configuration aggregate to its DTO
func ToGatewayConfigResponse(config *payment.GatewayConfig) GatewayConfigResponse {
	keys := make([]string, 0, len(config.Credentials))
	for key := range config.Credentials {
		keys = append(keys, key)
	}
	return GatewayConfigResponse{
		ID:             config.ID,
		Provider:       config.Provider.String(),
		DisplayName:    config.DisplayName,
		Environment:    string(config.Environment),
		CredentialKeys: keys,
		Enabled:        config.Enabled,
		SortOrder:      config.SortOrder,
		CreatedAt:      config.CreatedAt,
		UpdatedAt:      config.UpdatedAt,
	}
}
