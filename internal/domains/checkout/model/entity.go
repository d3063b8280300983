package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordermodel "storefront-backend/internal/domains/order/model"
)

// =====================================================
// ENTITY: CheckoutIntent
// =====================================================
// Short-lived staging record a client commits to before placing the
// order. It freezes the priced snapshot (items, subtotal, discount,
// shipping, total) so the amount shown at "review order" is the
// amount charged, even if pricing rules change mid-session.
// Consumed exactly once by order intake; Redis TTL garbage-collects
// whatever is never consumed.
type CheckoutIntent struct {
	ID        uuid.UUID  `json:"id"`
	SessionID string     `json:"sessionId"`
	UserID    *uuid.UUID `json:"userId,omitempty"`

	Items []IntentItem `json:"items"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	ShippingCharge decimal.Decimal `json:"shippingCharge"`
	Total          decimal.Decimal `json:"total"`
	AmountMinor    int64           `json:"amountMinor"`
	Currency       string          `json:"currency"`

	PaymentMethod string `json:"paymentMethod"`

	AddressID *uuid.UUID                  `json:"addressId,omitempty"`
	Address   *ordermodel.ShippingAddress `json:"address,omitempty"`

	OfferID   *uuid.UUID `json:"offerId,omitempty"`
	OfferCode *string    `json:"offerCode,omitempty"`

	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	IsConsumed bool      `json:"isConsumed"`
}

// IsExpired checks the intent against its expiry timestamp
func (i *CheckoutIntent) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// OwnedBy verifies intent ownership. The session is the ownership key;
// an empty session never matches.
func (i *CheckoutIntent) OwnedBy(sessionID string) bool {
	return sessionID != "" && i.SessionID == sessionID
}

// ItemCount returns the total unit count across all lines
func (i *CheckoutIntent) ItemCount() int {
	count := 0
	for _, item := range i.Items {
		count += item.Quantity
	}
	return count
}

// =====================================================
// VALUE: IntentItem
// =====================================================
// Snapshot of one cart line at staging time. Prices are frozen here
// and copied verbatim onto the order items at intake.
type IntentItem struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	ImageURL  *string         `json:"imageUrl,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// LineTotal calculates quantity * unit price
func (it *IntentItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
