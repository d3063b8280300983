package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/providerconfig/model"
	infracache "storefront-backend/internal/infrastructure/cache"
)

type fakeConfigRepo struct {
	enabled map[string][]*model.ProviderConfig
	configs map[string]*model.ProviderConfig
}

func (f *fakeConfigRepo) ListEnabled(ctx context.Context, env, tenant string) ([]*model.ProviderConfig, error) {
	return f.enabled[env+":"+tenant], nil
}

func (f *fakeConfigRepo) Get(ctx context.Context, provider, env, tenant string) (*model.ProviderConfig, error) {
	if cfg, ok := f.configs[provider+":"+env+":"+tenant]; ok {
		return cfg, nil
	}
	return nil, model.ErrConfigNotFound
}

func newTestResolver(t *testing.T, repo *fakeConfigRepo) Resolver {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewResolver(repo, infracache.NewRedisCacheWithClient(client))
}

func sandboxConfig(provider string, priority int) *model.ProviderConfig {
	return &model.ProviderConfig{
		Provider: provider,
		Env:      model.EnvSandbox,
		Tenant:   model.DefaultTenant,
		Enabled:  true,
		Priority: priority,
		Channels: []string{"upi"},
	}
}

func TestGetEnabledProviders_PriorityOrder(t *testing.T) {
	repo := &fakeConfigRepo{
		enabled: map[string][]*model.ProviderConfig{
			"sandbox:default": {sandboxConfig("cashfree", 1), sandboxConfig("phonepe", 2)},
		},
	}
	resolver := newTestResolver(t, repo)

	names, err := resolver.GetEnabledProviders(context.Background(), model.EnvSandbox, model.DefaultTenant)
	require.NoError(t, err)
	assert.Equal(t, []string{"cashfree", "phonepe"}, names)
}

func TestGetEnabledProviders_CachesList(t *testing.T) {
	repo := &fakeConfigRepo{
		enabled: map[string][]*model.ProviderConfig{
			"sandbox:default": {sandboxConfig("phonepe", 1)},
		},
	}
	resolver := newTestResolver(t, repo)
	ctx := context.Background()

	first, err := resolver.GetEnabledProviders(ctx, model.EnvSandbox, model.DefaultTenant)
	require.NoError(t, err)
	require.Equal(t, []string{"phonepe"}, first)

	// A config flip shows up only after the cache entry expires.
	repo.enabled["sandbox:default"] = []*model.ProviderConfig{sandboxConfig("cashfree", 1)}

	second, err := resolver.GetEnabledProviders(ctx, model.EnvSandbox, model.DefaultTenant)
	require.NoError(t, err)
	assert.Equal(t, []string{"phonepe"}, second)
}

func TestGetEnabledProviders_TenantFallback(t *testing.T) {
	repo := &fakeConfigRepo{
		enabled: map[string][]*model.ProviderConfig{
			"sandbox:default": {sandboxConfig("cashfree", 1)},
		},
	}
	resolver := newTestResolver(t, repo)

	names, err := resolver.GetEnabledProviders(context.Background(), model.EnvSandbox, "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"cashfree"}, names)
}

func TestGetEnabledProviders_NoneEnabled(t *testing.T) {
	resolver := newTestResolver(t, &fakeConfigRepo{enabled: map[string][]*model.ProviderConfig{}})

	_, err := resolver.GetEnabledProviders(context.Background(), model.EnvSandbox, model.DefaultTenant)
	assert.ErrorIs(t, err, model.ErrNoProviderEnabled)
}

func TestResolveConfig_TenantFallback(t *testing.T) {
	cfg := sandboxConfig("phonepe", 1)
	cfg.Credentials = map[string]interface{}{"merchantId": "MERCHANTTEST"}

	repo := &fakeConfigRepo{
		configs: map[string]*model.ProviderConfig{
			fmt.Sprintf("phonepe:%s:%s", model.EnvSandbox, model.DefaultTenant): cfg,
		},
	}
	resolver := newTestResolver(t, repo)

	got, err := resolver.ResolveConfig(context.Background(), "phonepe", model.EnvSandbox, "acme")
	require.NoError(t, err)
	assert.Equal(t, "phonepe", got.Provider)
	assert.Equal(t, "MERCHANTTEST", got.Credentials["merchantId"])
}

func TestResolveConfig_NotFound(t *testing.T) {
	resolver := newTestResolver(t, &fakeConfigRepo{configs: map[string]*model.ProviderConfig{}})

	_, err := resolver.ResolveConfig(context.Background(), "cashfree", model.EnvSandbox, model.DefaultTenant)
	assert.ErrorIs(t, err, model.ErrConfigNotFound)
}
