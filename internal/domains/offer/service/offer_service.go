package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/offer/model"
	"storefront-backend/internal/domains/offer/repository"
)

type offerService struct {
	repo repository.OfferRepository
}

// NewOfferService creates service instance
func NewOfferService(repo repository.OfferRepository) ServiceInterface {
	return &offerService{repo: repo}
}

func (s *offerService) GetOfferByCode(ctx context.Context, code string) (*model.Offer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, model.ErrOfferNotFound
	}

	return s.repo.GetByCode(ctx, code)
}

// ValidateOffer checks each applicability rule in order and returns
// the first violation, so callers can surface a precise reason.
func (s *offerService) ValidateOffer(offer *model.Offer, subtotal decimal.Decimal) error {
	now := time.Now()

	if !offer.Active {
		return model.ErrOfferInactive
	}
	if now.Before(offer.ValidFrom) {
		return model.ErrOfferNotStarted
	}
	if now.After(offer.ValidUntil) {
		return model.ErrOfferExpired
	}
	if !offer.HasUsageLeft() {
		return model.ErrOfferUsageExceeded
	}
	if subtotal.LessThan(offer.MinOrderAmount) {
		return model.ErrOfferMinAmount
	}

	return nil
}

func (s *offerService) CalculateDiscount(offer *model.Offer, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch offer.Type {
	case model.OfferTypePercent:
		discount = subtotal.Mul(offer.Value).Div(decimal.NewFromInt(100))
		if offer.MaxDiscount != nil && discount.GreaterThan(*offer.MaxDiscount) {
			discount = *offer.MaxDiscount
		}

	case model.OfferTypeFlat:
		discount = offer.Value
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}

	default:
		return decimal.Zero
	}

	// Round to paise
	return discount.Round(2)
}

func (s *offerService) IncrementUsage(ctx context.Context, offerID uuid.UUID) error {
	return s.repo.IncrementUsage(ctx, offerID)
}
