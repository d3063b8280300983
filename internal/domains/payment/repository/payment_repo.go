package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/domains/payment/model"
)

// =====================================================
// PAYMENT REPOSITORY IMPLEMENTATION
// =====================================================
type paymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepoInterface {
	return &paymentRepository{pool: pool}
}

const transactionColumns = `
	id, order_id, provider, merchant_transaction_id,
	provider_payment_id, provider_transaction_id, provider_reference_id,
	amount, amount_minor, currency, status, failure_reason,
	payer_vpa, utr, payment_instrument, receipt_url, provider_response,
	initiated_at, pending_at, completed_at, failed_at, cancelled_at,
	expires_at, created_at, updated_at
`

// =====================================================
// CREATE
// =====================================================

// Create creates a payment transaction
func (r *paymentRepository) Create(ctx context.Context, txn *model.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (
			id, order_id, provider, merchant_transaction_id,
			amount, amount_minor, currency, status, provider_response,
			initiated_at, expires_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11
		)
		RETURNING created_at, updated_at
	`

	providerResponseJSON, err := json.Marshal(txn.ProviderResponse)
	if err != nil {
		return fmt.Errorf("failed to marshal provider_response: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		txn.ID,
		txn.OrderID,
		txn.Provider,
		txn.MerchantTransactionID,
		txn.Amount,
		txn.AmountMinor,
		txn.Currency,
		txn.Status,
		providerResponseJSON,
		txn.InitiatedAt,
		txn.ExpiresAt,
	).Scan(&txn.CreatedAt, &txn.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}

	return nil
}

// =====================================================
// READ
// =====================================================

// GetByID gets a payment transaction by ID
func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetLatestByOrderID gets the most recent transaction for an order
func (r *paymentRepository) GetLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*model.PaymentTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanTransaction(r.pool.QueryRow(ctx, query, orderID))
}

// GetByMerchantTransactionID gets a transaction by the merchant
// reference we handed to the provider
func (r *paymentRepository) GetByMerchantTransactionID(ctx context.Context, merchantTxnID string) (*model.PaymentTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE merchant_transaction_id = $1
	`

	return scanTransaction(r.pool.QueryRow(ctx, query, merchantTxnID))
}

// ListByOrderID lists every payment attempt for an order, newest first
func (r *paymentRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*model.PaymentTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE order_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// CountByOrderID counts payment attempts for an order
func (r *paymentRepository) CountByOrderID(ctx context.Context, orderID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM payment_transactions WHERE order_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, orderID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count payment transactions: %w", err)
	}

	return count, nil
}

// HasCompletedTransaction checks whether the order already has a
// settled payment
func (r *paymentRepository) HasCompletedTransaction(ctx context.Context, orderID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM payment_transactions
			WHERE order_id = $1 AND status = $2
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, orderID, model.TxnStatusCompleted).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check completed transaction: %w", err)
	}

	return exists, nil
}

// SumCompletedByOrderID totals the settled amounts for an order
func (r *paymentRepository) SumCompletedByOrderID(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payment_transactions
		WHERE order_id = $1 AND status = $2
	`

	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, orderID, model.TxnStatusCompleted).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum completed transactions: %w", err)
	}

	return total, nil
}

// =====================================================
// STATUS TRANSITIONS
// =====================================================

// TransitionStatus moves a transaction to toStatus through a guarded
// UPDATE: the row is touched only while it sits in a state the machine
// allows as a source for toStatus, so a lost race never reopens a
// terminal row. The per-status timestamp is stamped in the same
// statement.
func (r *paymentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, toStatus string, update *model.TransactionUpdate) error {
	allowedFrom := model.AllowedSourceStatuses(toStatus)
	if len(allowedFrom) == 0 {
		return model.NewInvalidTransitionError("", toStatus)
	}

	if update == nil {
		update = &model.TransactionUpdate{}
	}

	var providerResponseJSON []byte
	if update.ProviderResponse != nil {
		var err error
		providerResponseJSON, err = json.Marshal(update.ProviderResponse)
		if err != nil {
			return fmt.Errorf("failed to marshal provider_response: %w", err)
		}
	}

	query := `
		UPDATE payment_transactions
		SET status = $2,
			provider_payment_id = COALESCE($3, provider_payment_id),
			provider_transaction_id = COALESCE($4, provider_transaction_id),
			provider_reference_id = COALESCE($5, provider_reference_id),
			failure_reason = COALESCE($6, failure_reason),
			payer_vpa = COALESCE($7, payer_vpa),
			utr = COALESCE($8, utr),
			payment_instrument = COALESCE($9, payment_instrument),
			provider_response = COALESCE($10, provider_response),
			pending_at = CASE WHEN $2 = 'pending' THEN NOW() ELSE pending_at END,
			completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END,
			failed_at = CASE WHEN $2 = 'failed' THEN NOW() ELSE failed_at END,
			cancelled_at = CASE WHEN $2 = 'cancelled' THEN NOW() ELSE cancelled_at END,
			updated_at = NOW()
		WHERE id = $1 AND status = ANY($11)
	`

	result, err := r.pool.Exec(ctx, query,
		id,
		toStatus,
		update.ProviderPaymentID,
		update.ProviderTransactionID,
		update.ProviderReferenceID,
		update.FailureReason,
		update.PayerVPA,
		update.UTR,
		update.PaymentInstrument,
		providerResponseJSON,
		allowedFrom,
	)
	if err != nil {
		return fmt.Errorf("failed to transition payment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Zero rows means the row is missing or sits in a state the
		// transition does not accept. Look once to tell which.
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == toStatus {
			return nil
		}
		return model.NewInvalidTransitionError(current.Status, toStatus)
	}

	return nil
}

// SetReceiptURL stores the uploaded receipt location
func (r *paymentRepository) SetReceiptURL(ctx context.Context, id uuid.UUID, url string) error {
	query := `
		UPDATE payment_transactions
		SET receipt_url = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, url, id)
	if err != nil {
		return fmt.Errorf("failed to set receipt url: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrTransactionNotFound
	}

	return nil
}

// =====================================================
// MAINTENANCE / REPORTING
// =====================================================

// ListExpiredInFlight lists in-flight transactions past their expiry
// window
func (r *paymentRepository) ListExpiredInFlight(ctx context.Context, limit int) ([]*model.PaymentTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE status = ANY($1) AND expires_at < NOW()
		ORDER BY expires_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, inFlightStatuses(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListInFlight lists transactions still awaiting provider
// confirmation, oldest first
func (r *paymentRepository) ListInFlight(ctx context.Context, limit int) ([]*model.PaymentTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE status = ANY($1)
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, inFlightStatuses(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list in-flight transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListCompletedBetween lists settled transactions in a time range for
// settlement reporting
func (r *paymentRepository) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*model.PaymentTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE status = $1 AND completed_at >= $2 AND completed_at < $3
		ORDER BY completed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, model.TxnStatusCompleted, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func inFlightStatuses() []string {
	return []string{model.TxnStatusInitiated, model.TxnStatusPending}
}

// =====================================================
// SCAN HELPERS
// =====================================================

func scanTransaction(row pgx.Row) (*model.PaymentTransaction, error) {
	txn := &model.PaymentTransaction{}
	var providerResponseJSON []byte

	err := row.Scan(
		&txn.ID,
		&txn.OrderID,
		&txn.Provider,
		&txn.MerchantTransactionID,
		&txn.ProviderPaymentID,
		&txn.ProviderTransactionID,
		&txn.ProviderReferenceID,
		&txn.Amount,
		&txn.AmountMinor,
		&txn.Currency,
		&txn.Status,
		&txn.FailureReason,
		&txn.PayerVPA,
		&txn.UTR,
		&txn.PaymentInstrument,
		&txn.ReceiptURL,
		&providerResponseJSON,
		&txn.InitiatedAt,
		&txn.PendingAt,
		&txn.CompletedAt,
		&txn.FailedAt,
		&txn.CancelledAt,
		&txn.ExpiresAt,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get payment transaction: %w", err)
	}

	if len(providerResponseJSON) > 0 {
		if err := json.Unmarshal(providerResponseJSON, &txn.ProviderResponse); err != nil {
			return nil, fmt.Errorf("failed to unmarshal provider_response: %w", err)
		}
	}

	return txn, nil
}

func scanTransactions(rows pgx.Rows) ([]*model.PaymentTransaction, error) {
	var txns []*model.PaymentTransaction
	for rows.Next() {
		txn := &model.PaymentTransaction{}
		var providerResponseJSON []byte

		err := rows.Scan(
			&txn.ID,
			&txn.OrderID,
			&txn.Provider,
			&txn.MerchantTransactionID,
			&txn.ProviderPaymentID,
			&txn.ProviderTransactionID,
			&txn.ProviderReferenceID,
			&txn.Amount,
			&txn.AmountMinor,
			&txn.Currency,
			&txn.Status,
			&txn.FailureReason,
			&txn.PayerVPA,
			&txn.UTR,
			&txn.PaymentInstrument,
			&txn.ReceiptURL,
			&providerResponseJSON,
			&txn.InitiatedAt,
			&txn.PendingAt,
			&txn.CompletedAt,
			&txn.FailedAt,
			&txn.CancelledAt,
			&txn.ExpiresAt,
			&txn.CreatedAt,
			&txn.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment transaction: %w", err)
		}

		if len(providerResponseJSON) > 0 {
			if err := json.Unmarshal(providerResponseJSON, &txn.ProviderResponse); err != nil {
				return nil, fmt.Errorf("failed to unmarshal provider_response: %w", err)
			}
		}

		txns = append(txns, txn)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating payment transactions: %w", rows.Err())
	}

	return txns, nil
}
