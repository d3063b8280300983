package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/payment/model"
)

// =====================================================
// CALLBACK LOG REPOSITORY IMPLEMENTATION
// =====================================================
type callbackLogRepository struct {
	pool *pgxpool.Pool
}

func NewCallbackLogRepository(pool *pgxpool.Pool) CallbackLogRepoInterface {
	return &callbackLogRepository{pool: pool}
}

// Create records a provider callback or reconcile fetch. Called before
// any processing so the raw payload survives even when reconciliation
// fails halfway.
func (r *callbackLogRepository) Create(ctx context.Context, log *model.ProviderCallbackLog) error {
	query := `
		INSERT INTO provider_callback_logs (
			id, transaction_id, provider, merchant_transaction_id, kind, payload
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		RETURNING created_at
	`

	payloadJSON, err := json.Marshal(log.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		log.ID,
		log.TransactionID,
		log.Provider,
		log.MerchantTransactionID,
		log.Kind,
		payloadJSON,
	).Scan(&log.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create callback log: %w", err)
	}

	return nil
}

// ListByTransactionID lists callback logs for a transaction
func (r *callbackLogRepository) ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*model.ProviderCallbackLog, error) {
	query := `
		SELECT
			id, transaction_id, provider, merchant_transaction_id, kind, payload, created_at
		FROM provider_callback_logs
		WHERE transaction_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list callback logs: %w", err)
	}
	defer rows.Close()

	var logs []*model.ProviderCallbackLog
	for rows.Next() {
		log := &model.ProviderCallbackLog{}
		var payloadJSON []byte

		err := rows.Scan(
			&log.ID,
			&log.TransactionID,
			&log.Provider,
			&log.MerchantTransactionID,
			&log.Kind,
			&payloadJSON,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan callback log: %w", err)
		}

		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &log.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		logs = append(logs, log)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating callback logs: %w", rows.Err())
	}

	return logs, nil
}
