package repository

import (
	"context"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/offer/model"
)

// OfferRepository defines data access for offers
type OfferRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	GetByCode(ctx context.Context, code string) (*model.Offer, error)

	// IncrementUsage bumps usage_count, guarded against the usage limit
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}
