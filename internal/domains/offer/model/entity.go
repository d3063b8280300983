package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Discount types
const (
	OfferTypePercent = "percent"
	OfferTypeFlat    = "flat"
)

// Offer represents a discount code applied at checkout
type Offer struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	Code           string           `json:"code" db:"code"`
	Type           string           `json:"type" db:"type"`
	Value          decimal.Decimal  `json:"value" db:"value"`
	MinOrderAmount decimal.Decimal  `json:"minOrderAmount" db:"min_order_amount"`
	MaxDiscount    *decimal.Decimal `json:"maxDiscount,omitempty" db:"max_discount"`
	ValidFrom      time.Time        `json:"validFrom" db:"valid_from"`
	ValidUntil     time.Time        `json:"validUntil" db:"valid_until"`
	Active         bool             `json:"active" db:"active"`
	UsageLimit     *int             `json:"usageLimit,omitempty" db:"usage_limit"`
	UsageCount     int              `json:"usageCount" db:"usage_count"`
	CreatedAt      time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time        `json:"updatedAt" db:"updated_at"`
}

// InWindow checks whether now falls inside the validity period
func (o *Offer) InWindow(now time.Time) bool {
	return !now.Before(o.ValidFrom) && !now.After(o.ValidUntil)
}

// HasUsageLeft checks the global usage ceiling
func (o *Offer) HasUsageLeft() bool {
	return o.UsageLimit == nil || o.UsageCount < *o.UsageLimit
}
