package service

import (
	"context"

	"storefront-backend/internal/domains/providerconfig/model"
)

// Resolver answers which concrete gateway serves a payment and with
// what credentials. Order intake resolves the generic "upi" method
// through it exactly once per order.
type Resolver interface {
	// GetEnabledProviders returns enabled provider names for
	// (env, tenant) in priority order. An unknown tenant falls back to
	// the default tenant's rows.
	GetEnabledProviders(ctx context.Context, env, tenant string) ([]string, error)

	// ResolveConfig returns one provider's config with the same tenant
	// fallback
	ResolveConfig(ctx context.Context, provider, env, tenant string) (*model.ProviderConfig, error)
}
