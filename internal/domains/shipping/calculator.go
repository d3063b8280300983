package shipping

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds the rate card the calculator works from.
// ZoneSurcharges is keyed by pincode prefix; the longest matching
// prefix wins, so "79" (north-east) can override "7".
type Config struct {
	FreeShippingThreshold decimal.Decimal
	BaseRate              decimal.Decimal
	ZoneSurcharges        map[string]decimal.Decimal
}

// Calculator computes the shipping charge for a cart
type Calculator struct {
	config *Config
}

// NewCalculator creates a calculator instance
func NewCalculator(config *Config) *Calculator {
	return &Calculator{config: config}
}

// Calculate returns the shipping charge for a cart.
//
// Business Logic:
// 1. Empty cart ships nothing
// 2. Order value at or above the free-shipping threshold ships free
// 3. Otherwise: base rate + surcharge for the delivery pincode zone
func (c *Calculator) Calculate(itemCount int, pincode string, orderValue decimal.Decimal) decimal.Decimal {
	if itemCount <= 0 {
		return decimal.Zero
	}

	if c.config.FreeShippingThreshold.IsPositive() &&
		orderValue.GreaterThanOrEqual(c.config.FreeShippingThreshold) {
		return decimal.Zero
	}

	return c.config.BaseRate.Add(c.zoneSurcharge(pincode))
}

// zoneSurcharge resolves the surcharge by longest matching pincode prefix
func (c *Calculator) zoneSurcharge(pincode string) decimal.Decimal {
	if pincode == "" {
		return decimal.Zero
	}

	best := decimal.Zero
	bestLen := 0
	for prefix, surcharge := range c.config.ZoneSurcharges {
		if strings.HasPrefix(pincode, prefix) && len(prefix) > bestLen {
			best = surcharge
			bestLen = len(prefix)
		}
	}
	return best
}
