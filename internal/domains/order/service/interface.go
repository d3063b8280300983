package service

import (
	"context"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/shared/types"
)

// =====================================================
// ORDER SERVICE INTERFACE
// =====================================================
type OrderService interface {
	// CreateOrder converts a staged checkout intent into a persisted
	// order, initiating the gateway payment for online methods
	CreateOrder(ctx context.Context, cartCtx types.CartContext, req *model.CreateOrderRequest) (*model.CreateOrderResponse, error)

	// GetOrderDetail returns one order with its items, owner-gated
	GetOrderDetail(ctx context.Context, cartCtx types.CartContext, orderID uuid.UUID) (*model.OrderDetailResponse, error)

	// ListOrders pages through the caller's orders, newest first
	ListOrders(ctx context.Context, cartCtx types.CartContext, req *model.ListOrdersRequest) (*model.ListOrdersResponse, error)

	// CancelOrder cancels a not-yet-paid order on the customer's request
	CancelOrder(ctx context.Context, cartCtx types.CartContext, orderID uuid.UUID, req *model.CancelOrderRequest) error
}
