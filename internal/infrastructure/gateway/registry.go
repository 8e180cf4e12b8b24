package gateway

import (
	"fmt"
	"sync"

	"github.com/storefront/backend/internal/domain/payment"
)

// ProviderRegistry is a thread-safe registry of payment providers
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[payment.ProviderKey]payment.Provider
}

// NewProviderRegistry creates an empty provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[payment.ProviderKey]payment.Provider),
	}
}

// Register adds a provider to the registry, replacing any previous
// registration under the same key
func (r *ProviderRegistry) Register(provider payment.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Key()] = provider
}

// Get returns the provider registered under key
func (r *ProviderRegistry) Get(key payment.ProviderKey) (payment.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", payment.ErrProviderNotFound, key)
	}
	return provider, nil
}

// Keys returns the registered provider keys
func (r *ProviderRegistry) Keys() []payment.ProviderKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]payment.ProviderKey, 0, len(r.providers))
	for k := range r.providers {
		keys = append(keys, k)
	}
	return keys
}

// NewProvider constructs an uninitialized adapter for the given key
func NewProvider(key payment.ProviderKey) (payment.Provider, error) {
	switch key {
	case payment.ProviderVNPay:
		return NewVNPayAdapter(), nil
	case payment.ProviderPayOS:
		return NewPayOSAdapter(), nil
	case payment.ProviderMoMo:
		return NewMoMoAdapter(), nil
	default:
		return nil, fmt.Errorf("%w: %s", payment.ErrProviderNotFound, key)
	}
}

// NewProviderFromConfig constructs and initializes an adapter from a
// tenant's gateway configuration
func NewProviderFromConfig(config *payment.GatewayConfig) (payment.Provider, error) {
	provider, err := NewProvider(config.Provider)
	if err != nil {
		return nil, err
	}
	if err := provider.Initialize(config.Credentials, config.Environment); err != nil {
		return nil, err
	}
	return provider, nil
}

var _ payment.Registry = (*ProviderRegistry)(nil)
