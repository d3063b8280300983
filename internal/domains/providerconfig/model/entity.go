package model

import (
	"time"

	"github.com/google/uuid"
)

// =====================================================
// ENVIRONMENTS / TENANTS
// =====================================================
const (
	EnvProduction = "production"
	EnvSandbox    = "sandbox"

	// Tenant rows override the default; lookups fall back to it
	DefaultTenant = "default"
)

// =====================================================
// CACHE KEYS
// =====================================================
const (
	// CacheKeyEnabledProviders caches the resolved provider order per
	// (env, tenant)
	CacheKeyEnabledProviders = "providerconfig:enabled:%s:%s"

	// CacheKeyConfig caches one provider's config per (provider, env, tenant)
	CacheKeyConfig = "providerconfig:config:%s:%s:%s"

	// ConfigCacheTTL bounds staleness after an ops-side config change
	ConfigCacheTTL = 5 * time.Minute
)

// =====================================================
// ENTITY: ProviderConfig
// =====================================================
// One row per (provider, env, tenant). Which gateway serves a generic
// "upi" order is data, not code: intake asks for the enabled providers
// and takes the first.
type ProviderConfig struct {
	ID       uuid.UUID `json:"id"`
	Provider string    `json:"provider"`
	Env      string    `json:"env"`
	Tenant   string    `json:"tenant"`

	Enabled bool `json:"enabled"`

	// Lower number wins when several providers are enabled
	Priority int `json:"priority"`

	// Payment channels the provider serves, e.g. upi, card, netbanking
	Channels []string `json:"channels"`

	// Gateway credentials (merchant ids, keys). Shape is provider-specific.
	Credentials map[string]interface{} `json:"credentials,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SupportsChannel checks whether the config serves a payment channel
func (c *ProviderConfig) SupportsChannel(channel string) bool {
	for _, ch := range c.Channels {
		if ch == channel {
			return true
		}
	}
	return false
}
