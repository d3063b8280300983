package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/order/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================
type postgresOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &postgresOrderRepository{
		pool: pool,
	}
}

// =====================================================
// TRANSACTION MANAGEMENT
// =====================================================

func (r *postgresOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *postgresOrderRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

func (r *postgresOrderRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

// =====================================================
// CREATE ORDER
// =====================================================

func (r *postgresOrderRepository) CreateOrderWithTx(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	var addressJSON []byte
	if order.ShippingAddress != nil {
		var err error
		addressJSON, err = json.Marshal(order.ShippingAddress)
		if err != nil {
			return fmt.Errorf("failed to marshal shipping address: %w", err)
		}
	}

	query := `
		INSERT INTO orders (
			id, order_number, user_id, session_id, address_id, shipping_address,
			offer_id, offer_code,
			subtotal, discount_amount, shipping_charge, total, amount_minor, currency,
			payment_method, payment_provider, payment_status, status, version
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19
		)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.SessionID,
		order.AddressID,
		addressJSON,
		order.OfferID,
		order.OfferCode,
		order.Subtotal,
		order.DiscountAmount,
		order.ShippingCharge,
		order.Total,
		order.AmountMinor,
		order.Currency,
		order.PaymentMethod,
		order.PaymentProvider,
		order.PaymentStatus,
		order.Status,
		order.Version,
	).Scan(&order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create order with tx: %w", err)
	}

	return nil
}

// =====================================================
// GET ORDER
// =====================================================

func (r *postgresOrderRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	query := `
		SELECT
			id, order_number, user_id, session_id, address_id, shipping_address,
			offer_id, offer_code,
			subtotal, discount_amount, shipping_charge, total, amount_minor, currency,
			payment_method, payment_provider, payment_status, paid_at,
			status, created_at, updated_at, confirmed_at, cancelled_at, version
		FROM orders
		WHERE id = $1
	`

	return r.scanOrderRow(r.pool.QueryRow(ctx, query, orderID), "get order by id")
}

func (r *postgresOrderRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	query := `
		SELECT
			id, order_number, user_id, session_id, address_id, shipping_address,
			offer_id, offer_code,
			subtotal, discount_amount, shipping_charge, total, amount_minor, currency,
			payment_method, payment_provider, payment_status, paid_at,
			status, created_at, updated_at, confirmed_at, cancelled_at, version
		FROM orders
		WHERE order_number = $1
	`

	return r.scanOrderRow(r.pool.QueryRow(ctx, query, orderNumber), "get order by number")
}

func (r *postgresOrderRepository) scanOrderRow(row pgx.Row, op string) (*model.Order, error) {
	var order model.Order
	var addressJSON []byte

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.SessionID,
		&order.AddressID,
		&addressJSON,
		&order.OfferID,
		&order.OfferCode,
		&order.Subtotal,
		&order.DiscountAmount,
		&order.ShippingCharge,
		&order.Total,
		&order.AmountMinor,
		&order.Currency,
		&order.PaymentMethod,
		&order.PaymentProvider,
		&order.PaymentStatus,
		&order.PaidAt,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.ConfirmedAt,
		&order.CancelledAt,
		&order.Version,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	if len(addressJSON) > 0 {
		var address model.ShippingAddress
		if err := json.Unmarshal(addressJSON, &address); err != nil {
			return nil, fmt.Errorf("failed to unmarshal shipping address: %w", err)
		}
		order.ShippingAddress = &address
	}

	return &order, nil
}

// =====================================================
// UPDATE ORDER
// =====================================================

func (r *postgresOrderRepository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string, version int) error {
	query := `
		UPDATE orders
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`

	result, err := r.pool.Exec(ctx, query, status, orderID, version)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

func (r *postgresOrderRepository) CancelOrder(ctx context.Context, orderID uuid.UUID, version int) error {
	query := `
		UPDATE orders
		SET status = $1,
			cancelled_at = NOW(),
			version = version + 1,
			updated_at = NOW()
		WHERE id = $2 AND version = $3
	`

	result, err := r.pool.Exec(ctx, query, model.OrderStatusCancelled, orderID, version)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

// ApplyPaymentProjection is the only writer of the order payment fields
// after creation. paid_at and confirmed_at are stamped once and never
// rewound, so a late duplicate projection of the same settled state is
// harmless.
func (r *postgresOrderRepository) ApplyPaymentProjection(ctx context.Context, orderID uuid.UUID, paymentStatus, orderStatus string, provider *string) error {
	query := `
		UPDATE orders
		SET payment_status = $2,
			status = COALESCE(NULLIF($3, ''), status),
			payment_provider = COALESCE($4, payment_provider),
			paid_at = CASE WHEN $2 = 'paid' AND paid_at IS NULL THEN NOW() ELSE paid_at END,
			confirmed_at = CASE WHEN $3 = 'confirmed' AND confirmed_at IS NULL THEN NOW() ELSE confirmed_at END,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, orderID, paymentStatus, orderStatus, provider)
	if err != nil {
		return fmt.Errorf("failed to apply payment projection: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// =====================================================
// ORDER ITEMS
// =====================================================

func (r *postgresOrderRepository) CreateOrderItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO order_items (
			id, order_id, product_id, title, image_url,
			quantity, unit_price, line_total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, item := range items {
		batch.Queue(query,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Title,
			item.ImageURL,
			item.Quantity,
			item.UnitPrice,
			item.LineTotal,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			return fmt.Errorf("failed to create order item %d: %w", i, err)
		}
	}

	return nil
}

func (r *postgresOrderRepository) GetOrderItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT
			id, order_id, product_id, title, image_url,
			quantity, unit_price, line_total, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Title,
			&item.ImageURL,
			&item.Quantity,
			&item.UnitPrice,
			&item.LineTotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating order items: %w", rows.Err())
	}

	return items, nil
}

func (r *postgresOrderRepository) CountOrderItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	result := make(map[uuid.UUID]int)
	if len(orderIDs) == 0 {
		return result, nil
	}

	query := `
        SELECT order_id, COUNT(*)
        FROM order_items
        WHERE order_id = ANY($1)
        GROUP BY order_id
    `

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count order items by order ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oid uuid.UUID
		var count int
		if err := rows.Scan(&oid, &count); err != nil {
			return nil, fmt.Errorf("failed to scan order items count: %w", err)
		}
		result[oid] = count
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating order items count: %w", rows.Err())
	}

	return result, nil
}

// =====================================================
// LIST ORDERS
// =====================================================

func (r *postgresOrderRepository) ListOrdersByOwner(ctx context.Context, userID *uuid.UUID, sessionID string, status string, page, limit int) ([]model.Order, int, error) {
	offset := (page - 1) * limit

	queryBuilder := `
		SELECT
			id, order_number, user_id, session_id,
			subtotal, discount_amount, shipping_charge, total, amount_minor, currency,
			payment_method, payment_provider, payment_status, paid_at,
			status, created_at, updated_at, cancelled_at, version
		FROM orders
	`
	countQuery := `SELECT COUNT(*) FROM orders`

	var args []interface{}
	if userID != nil {
		queryBuilder += ` WHERE user_id = $1`
		countQuery += ` WHERE user_id = $1`
		args = append(args, *userID)
	} else {
		queryBuilder += ` WHERE session_id = $1`
		countQuery += ` WHERE session_id = $1`
		args = append(args, sessionID)
	}

	if status != "" {
		queryBuilder += ` AND status = $2`
		countQuery += ` AND status = $2`
		args = append(args, status)
	}

	countArgs := args

	queryBuilder += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var total int
	err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := r.pool.Query(ctx, queryBuilder, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrderSummaries(rows)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *postgresOrderRepository) ListAllOrders(ctx context.Context, status string, page, limit int) ([]model.Order, int, error) {
	offset := (page - 1) * limit

	queryBuilder := `
		SELECT
			id, order_number, user_id, session_id,
			subtotal, discount_amount, shipping_charge, total, amount_minor, currency,
			payment_method, payment_provider, payment_status, paid_at,
			status, created_at, updated_at, cancelled_at, version
		FROM orders
		WHERE 1=1
	`
	countQuery := `SELECT COUNT(*) FROM orders WHERE 1=1`

	var args []interface{}
	if status != "" {
		queryBuilder += ` AND status = $1`
		countQuery += ` AND status = $1`
		args = append(args, status)
	}

	countArgs := args

	queryBuilder += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var total int
	err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count all orders: %w", err)
	}

	rows, err := r.pool.Query(ctx, queryBuilder, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list all orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrderSummaries(rows)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func scanOrderSummaries(rows pgx.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		var order model.Order
		err := rows.Scan(
			&order.ID,
			&order.OrderNumber,
			&order.UserID,
			&order.SessionID,
			&order.Subtotal,
			&order.DiscountAmount,
			&order.ShippingCharge,
			&order.Total,
			&order.AmountMinor,
			&order.Currency,
			&order.PaymentMethod,
			&order.PaymentProvider,
			&order.PaymentStatus,
			&order.PaidAt,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
			&order.CancelledAt,
			&order.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating orders: %w", rows.Err())
	}

	return orders, nil
}

// =====================================================
// ORDER STATUS HISTORY
// =====================================================

func (r *postgresOrderRepository) CreateOrderStatusHistoryWithTx(ctx context.Context, tx pgx.Tx, history *model.OrderStatusHistory) error {
	query := `
		INSERT INTO order_status_history (
			id, order_id, from_status, to_status, changed_by, notes
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING changed_at
	`

	err := tx.QueryRow(ctx, query,
		history.ID,
		history.OrderID,
		history.FromStatus,
		history.ToStatus,
		history.ChangedBy,
		history.Notes,
	).Scan(&history.ChangedAt)

	if err != nil {
		return fmt.Errorf("failed to create order status history with tx: %w", err)
	}

	return nil
}

func (r *postgresOrderRepository) CreateOrderStatusHistory(ctx context.Context, history *model.OrderStatusHistory) error {
	query := `
		INSERT INTO order_status_history (
			id, order_id, from_status, to_status, changed_by, notes
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING changed_at
	`

	err := r.pool.QueryRow(ctx, query,
		history.ID,
		history.OrderID,
		history.FromStatus,
		history.ToStatus,
		history.ChangedBy,
		history.Notes,
	).Scan(&history.ChangedAt)

	if err != nil {
		return fmt.Errorf("failed to create order status history: %w", err)
	}

	return nil
}

func (r *postgresOrderRepository) GetOrderStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	query := `
		SELECT
			id, order_id, from_status, to_status, changed_by, notes, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order status history: %w", err)
	}
	defer rows.Close()

	var histories []model.OrderStatusHistory
	for rows.Next() {
		var history model.OrderStatusHistory
		err := rows.Scan(
			&history.ID,
			&history.OrderID,
			&history.FromStatus,
			&history.ToStatus,
			&history.ChangedBy,
			&history.Notes,
			&history.ChangedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order status history: %w", err)
		}
		histories = append(histories, history)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating order status history: %w", rows.Err())
	}

	return histories, nil
}
