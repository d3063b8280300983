package service

import (
	"context"

	"storefront-backend/internal/domains/checkout/model"
	"storefront-backend/internal/shared/types"
)

type ServiceInterface interface {
	// CreateIntent prices the submitted cart snapshot server-side and
	// stages it as a single-use checkout intent with a 1h TTL.
	// Returns the priced snapshot the order will charge.
	CreateIntent(ctx context.Context, cartCtx types.CartContext, req *model.CreateIntentRequest) (*model.CreateIntentResponse, error)
}
