package phonepe

import (
	"fmt"
)

// =====================================================
// PHONEPE CONFIGURATION
// =====================================================

type Config struct {
	MerchantID string // Merchant ID (provided by PhonePe)
	SaltKey    string // Salt key for the X-VERIFY checksum
	SaltIndex  string // Salt key index, appended after "###"
	APIUrl     string // PhonePe PG base URL (sandbox or production)
	ReturnURL  string // Frontend return URL
}

// NewConfig creates PhonePe configuration
func NewConfig(merchantID, saltKey, saltIndex, apiURL, returnURL string) *Config {
	return &Config{
		MerchantID: merchantID,
		SaltKey:    saltKey,
		SaltIndex:  saltIndex,
		APIUrl:     apiURL,
		ReturnURL:  returnURL,
	}
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.MerchantID == "" {
		return fmt.Errorf("PhonePe MerchantID is required")
	}
	if c.SaltKey == "" {
		return fmt.Errorf("PhonePe SaltKey is required")
	}
	if c.SaltIndex == "" {
		return fmt.Errorf("PhonePe SaltIndex is required")
	}
	if c.APIUrl == "" {
		return fmt.Errorf("PhonePe APIUrl is required")
	}
	if c.ReturnURL == "" {
		return fmt.Errorf("PhonePe ReturnURL is required")
	}
	return nil
}

// PayPath is the request path for the pay call, part of the checksum
// input
const PayPath = "/pg/v1/pay"

// StatusPath returns the request path for a status fetch
func (c *Config) StatusPath(merchantTransactionID string) string {
	return fmt.Sprintf("/pg/v1/status/%s/%s", c.MerchantID, merchantTransactionID)
}
