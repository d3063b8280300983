package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/payment/model"
)

// =====================================================
// REFUND REPOSITORY IMPLEMENTATION
// =====================================================
type refundRepository struct {
	pool *pgxpool.Pool
}

func NewRefundRepository(pool *pgxpool.Pool) RefundRepoInterface {
	return &refundRepository{pool: pool}
}

// Create creates a refund row
func (r *refundRepository) Create(ctx context.Context, refund *model.PaymentRefund) error {
	query := `
		INSERT INTO payment_refunds (
			id, transaction_id, order_id, status, amount, amount_minor,
			merchant_refund_id, provider_refund_id, reason
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		refund.ID,
		refund.TransactionID,
		refund.OrderID,
		refund.Status,
		refund.Amount,
		refund.AmountMinor,
		refund.MerchantRefundID,
		refund.ProviderRefundID,
		refund.Reason,
	).Scan(&refund.CreatedAt, &refund.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}

	return nil
}

// GetByID gets a refund by ID
func (r *refundRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentRefund, error) {
	query := `
		SELECT
			id, transaction_id, order_id, status, amount, amount_minor,
			merchant_refund_id, provider_refund_id, reason,
			created_at, updated_at
		FROM payment_refunds
		WHERE id = $1
	`

	refund := &model.PaymentRefund{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&refund.ID,
		&refund.TransactionID,
		&refund.OrderID,
		&refund.Status,
		&refund.Amount,
		&refund.AmountMinor,
		&refund.MerchantRefundID,
		&refund.ProviderRefundID,
		&refund.Reason,
		&refund.CreatedAt,
		&refund.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRefundNotFound
		}
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}

	return refund, nil
}

// ListByTransactionID lists refunds against a transaction
func (r *refundRepository) ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*model.PaymentRefund, error) {
	query := `
		SELECT
			id, transaction_id, order_id, status, amount, amount_minor,
			merchant_refund_id, provider_refund_id, reason,
			created_at, updated_at
		FROM payment_refunds
		WHERE transaction_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*model.PaymentRefund
	for rows.Next() {
		refund := &model.PaymentRefund{}
		err := rows.Scan(
			&refund.ID,
			&refund.TransactionID,
			&refund.OrderID,
			&refund.Status,
			&refund.Amount,
			&refund.AmountMinor,
			&refund.MerchantRefundID,
			&refund.ProviderRefundID,
			&refund.Reason,
			&refund.CreatedAt,
			&refund.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		refunds = append(refunds, refund)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating refunds: %w", rows.Err())
	}

	return refunds, nil
}

// SumProcessedByOrderID totals the settled refunds for an order
func (r *refundRepository) SumProcessedByOrderID(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payment_refunds
		WHERE order_id = $1 AND status = $2
	`

	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, orderID, model.RefundStatusProcessed).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum processed refunds: %w", err)
	}

	return total, nil
}
