package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/offer/model"
)

type ServiceInterface interface {
	// GetOfferByCode looks up an offer by its (case-insensitive) code
	GetOfferByCode(ctx context.Context, code string) (*model.Offer, error)

	// ValidateOffer checks the offer against the checkout it is being
	// applied to: active flag, validity window, usage limit, minimum
	// order amount. Returns a typed sentinel on the first violation.
	ValidateOffer(offer *model.Offer, subtotal decimal.Decimal) error

	// CalculateDiscount returns the discount amount for a subtotal.
	// Percent offers are capped by max_discount; flat offers never
	// exceed the subtotal. Rounded to paise.
	CalculateDiscount(offer *model.Offer, subtotal decimal.Decimal) decimal.Decimal

	// IncrementUsage records a successful use (called once per placed order)
	IncrementUsage(ctx context.Context, offerID uuid.UUID) error
}
