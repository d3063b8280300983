package cashfree

import (
	"fmt"
)

// =====================================================
// CASHFREE CONFIGURATION
// =====================================================

type Config struct {
	ClientID     string // App ID (provided by Cashfree)
	ClientSecret string // Secret key for the x-client-secret header
	APIUrl       string // Cashfree PG base URL (sandbox or production)
	ReturnURL    string // Frontend return URL template
	APIVersion   string // x-api-version header (default: "2023-08-01")
}

// NewConfig creates Cashfree configuration
func NewConfig(clientID, clientSecret, apiURL, returnURL string) *Config {
	return &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		APIUrl:       apiURL,
		ReturnURL:    returnURL,
		APIVersion:   "2023-08-01",
	}
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("Cashfree ClientID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("Cashfree ClientSecret is required")
	}
	if c.APIUrl == "" {
		return fmt.Errorf("Cashfree APIUrl is required")
	}
	if c.ReturnURL == "" {
		return fmt.Errorf("Cashfree ReturnURL is required")
	}
	return nil
}

// GetOrdersURL returns the order create endpoint
func (c *Config) GetOrdersURL() string {
	return c.APIUrl + "/pg/orders"
}

// GetOrderURL returns the order fetch endpoint for one order
func (c *Config) GetOrderURL(orderID string) string {
	return c.APIUrl + "/pg/orders/" + orderID
}
