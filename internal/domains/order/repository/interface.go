package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront-backend/internal/domains/order/model"
)

// =====================================================
// ORDER REPOSITORY INTERFACE
// =====================================================
type OrderRepository interface {
	// Transaction management
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error

	// Order operations
	CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string, version int) error
	CancelOrder(ctx context.Context, orderID uuid.UUID, version int) error

	// ApplyPaymentProjection writes the payment fields derived from the
	// latest transaction state. orderStatus may be empty to leave the
	// fulfilment status untouched.
	ApplyPaymentProjection(ctx context.Context, orderID uuid.UUID, paymentStatus, orderStatus string, provider *string) error

	// Order items operations
	CreateOrderItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error
	GetOrderItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)
	CountOrderItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]int, error)

	// List operations
	ListOrdersByOwner(ctx context.Context, userID *uuid.UUID, sessionID string, status string, page, limit int) ([]model.Order, int, error)
	ListAllOrders(ctx context.Context, status string, page, limit int) ([]model.Order, int, error)

	// Order status history
	CreateOrderStatusHistoryWithTx(ctx context.Context, tx pgx.Tx, history *model.OrderStatusHistory) error
	CreateOrderStatusHistory(ctx context.Context, history *model.OrderStatusHistory) error
	GetOrderStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error)
}
