package service

import (
	"context"
	"errors"
	"fmt"

	"storefront-backend/internal/domains/providerconfig/model"
	"storefront-backend/internal/domains/providerconfig/repository"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/logger"
)

type resolverService struct {
	repo  repository.ConfigRepository
	cache cache.Cache
}

// NewResolver creates the cached provider-config resolver
func NewResolver(repo repository.ConfigRepository, cache cache.Cache) Resolver {
	return &resolverService{repo: repo, cache: cache}
}

// GetEnabledProviders returns enabled provider names in priority order.
// Cached per (env, tenant); the cache is advisory and lookup proceeds
// to Postgres when it misses or fails.
func (s *resolverService) GetEnabledProviders(ctx context.Context, env, tenant string) ([]string, error) {
	if tenant == "" {
		tenant = model.DefaultTenant
	}

	cacheKey := fmt.Sprintf(model.CacheKeyEnabledProviders, env, tenant)

	var cached []string
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		logger.Error("provider config cache read failed", err)
	}
	if found {
		return cached, nil
	}

	configs, err := s.listEnabledWithFallback(ctx, env, tenant)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, model.ErrNoProviderEnabled
	}

	names := make([]string, 0, len(configs))
	for _, cfg := range configs {
		names = append(names, cfg.Provider)
	}

	if err := s.cache.Set(ctx, cacheKey, names, model.ConfigCacheTTL); err != nil {
		logger.Error("provider config cache write failed", err)
	}

	return names, nil
}

// ResolveConfig returns one provider's config with tenant fallback
func (s *resolverService) ResolveConfig(ctx context.Context, provider, env, tenant string) (*model.ProviderConfig, error) {
	if tenant == "" {
		tenant = model.DefaultTenant
	}

	cacheKey := fmt.Sprintf(model.CacheKeyConfig, provider, env, tenant)

	var cached model.ProviderConfig
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		logger.Error("provider config cache read failed", err)
	}
	if found {
		return &cached, nil
	}

	cfg, err := s.repo.Get(ctx, provider, env, tenant)
	if errors.Is(err, model.ErrConfigNotFound) && tenant != model.DefaultTenant {
		cfg, err = s.repo.Get(ctx, provider, env, model.DefaultTenant)
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, cfg, model.ConfigCacheTTL); err != nil {
		logger.Error("provider config cache write failed", err)
	}

	return cfg, nil
}

func (s *resolverService) listEnabledWithFallback(ctx context.Context, env, tenant string) ([]*model.ProviderConfig, error) {
	configs, err := s.repo.ListEnabled(ctx, env, tenant)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 && tenant != model.DefaultTenant {
		return s.repo.ListEnabled(ctx, env, model.DefaultTenant)
	}
	return configs, nil
}
