package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the whole application configuration, populated from
// environment variables
type Config struct {
	App            AppConfig
	Redis          RedisConfig
	JWT            JWTConfig
	Email          EmailConfig
	MinIO          MinIOConfig
	Cashfree       CashfreeConfig
	PhonePe        PhonePeConfig
	Shipping       ShippingConfig
	Reconciliation ReconciliationConfig
}

type AppConfig struct {
	Name           string
	Environment    string // development, staging, production
	Port           string
	Version        string
	AllowedOrigins []string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type EmailConfig struct {
	SMTPHost string
	SMTPPort string
	From     string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// =====================================================
// PAYMENT PROVIDER CREDENTIALS
// =====================================================

type CashfreeConfig struct {
	ClientID     string // x-client-id header
	ClientSecret string // x-client-secret header
	APIURL       string // PG base URL (sandbox or production)
	ReturnURL    string // where the gateway redirects the shopper
}

type PhonePeConfig struct {
	MerchantID string
	SaltKey    string // X-VERIFY checksum salt
	SaltIndex  string
	APIURL     string
	ReturnURL  string
}

// ShippingConfig is the rate card as raw strings; the container parses
// them into decimals when building the calculator
type ShippingConfig struct {
	FreeShippingThreshold string
	BaseRate              string
}

// ReconciliationConfig tunes the payment safety nets
type ReconciliationConfig struct {
	ProviderEnv        string // provider_configs.env rows to resolve against
	Tenant             string
	ExpireBatchSize    int // rows per expire-stale sweep
	ReconcileBatchSize int // rows per reconcile-pending sweep
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:           getEnv("APP_NAME", "Storefront API"),
			Environment:    getEnv("APP_ENV", "development"),
			Port:           getEnv("APP_PORT", "8080"),
			Version:        getEnv("APP_VERSION", "1.0.0"),
			AllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		Email: EmailConfig{
			SMTPHost: getEnv("SMTP_HOST", "localhost"),
			SMTPPort: getEnv("SMTP_PORT", "1025"),
			From:     getEnv("EMAIL_FROM", "noreply@storefront.dev"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "storefront"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Cashfree: CashfreeConfig{
			ClientID:     getEnv("CASHFREE_CLIENT_ID", ""),
			ClientSecret: getEnv("CASHFREE_CLIENT_SECRET", ""),
			APIURL:       getEnv("CASHFREE_API_URL", "https://sandbox.cashfree.com"),
			ReturnURL:    getEnv("CASHFREE_RETURN_URL", "http://localhost:3000/payment/return"),
		},
		PhonePe: PhonePeConfig{
			MerchantID: getEnv("PHONEPE_MERCHANT_ID", ""),
			SaltKey:    getEnv("PHONEPE_SALT_KEY", ""),
			SaltIndex:  getEnv("PHONEPE_SALT_INDEX", "1"),
			APIURL:     getEnv("PHONEPE_API_URL", "https://api-preprod.phonepe.com/apis/pg-sandbox"),
			ReturnURL:  getEnv("PHONEPE_RETURN_URL", "http://localhost:3000/payment/return"),
		},
		Shipping: ShippingConfig{
			FreeShippingThreshold: getEnv("SHIPPING_FREE_ABOVE", "999"),
			BaseRate:              getEnv("SHIPPING_BASE_RATE", "49"),
		},
		Reconciliation: ReconciliationConfig{
			ProviderEnv:        getEnv("PAYMENT_PROVIDER_ENV", "sandbox"),
			Tenant:             getEnv("PAYMENT_TENANT", "default"),
			ExpireBatchSize:    getEnvInt("PAYMENT_EXPIRE_BATCH", 100),
			ReconcileBatchSize: getEnvInt("PAYMENT_RECONCILE_BATCH", 50),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations that must never reach production.
// Development keeps the forgiving defaults so the mock provider and
// local services work out of the box.
func (c *Config) Validate() error {
	if c.App.Environment != "production" {
		return nil
	}

	if c.JWT.Secret == "your-secret-key-change-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.MinIO.AccessKey == "minioadmin" || c.MinIO.SecretKey == "minioadmin" {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY must be set in production")
	}
	if !c.Cashfree.Configured() && !c.PhonePe.Configured() {
		return fmt.Errorf("at least one payment provider must be configured in production")
	}

	return nil
}

// Configured reports whether the credentials are complete enough to
// register the adapter
func (c CashfreeConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func (c PhonePeConfig) Configured() bool {
	return c.MerchantID != "" && c.SaltKey != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
