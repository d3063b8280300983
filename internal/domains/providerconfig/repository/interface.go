package repository

import (
	"context"

	"storefront-backend/internal/domains/providerconfig/model"
)

// ConfigRepository defines data access for provider configs
type ConfigRepository interface {
	// ListEnabled returns the enabled configs for (env, tenant) in
	// priority order
	ListEnabled(ctx context.Context, env, tenant string) ([]*model.ProviderConfig, error)

	// Get retrieves one provider's config for (env, tenant)
	Get(ctx context.Context, provider, env, tenant string) (*model.ProviderConfig, error)
}
