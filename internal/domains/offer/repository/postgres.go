package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/offer/model"
)

const offerColumns = `
	id, code, type, value,
	min_order_amount, max_discount,
	valid_from, valid_until, active,
	usage_limit, usage_count,
	created_at, updated_at`

// PostgresRepository implements OfferRepository with PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates repository instance
func NewPostgresRepository(db *pgxpool.Pool) OfferRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE id = $1`, offerColumns)
	return r.scanOffer(r.db.QueryRow(ctx, query, id), "get offer by id")
}

func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*model.Offer, error) {
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE LOWER(code) = LOWER($1)`, offerColumns)
	return r.scanOffer(r.db.QueryRow(ctx, query, code), "get offer by code")
}

// IncrementUsage bumps usage_count atomically. The guard repeats the
// limit check so two concurrent intakes cannot push past usage_limit.
func (r *PostgresRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE offers
		SET usage_count = usage_count + 1,
		    updated_at = NOW()
		WHERE id = $1
		  AND active = true
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment offer usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOfferUsageExceeded
	}

	return nil
}

func (r *PostgresRepository) scanOffer(row pgx.Row, op string) (*model.Offer, error) {
	var o model.Offer
	err := row.Scan(
		&o.ID,
		&o.Code,
		&o.Type,
		&o.Value,
		&o.MinOrderAmount,
		&o.MaxDiscount,
		&o.ValidFrom,
		&o.ValidUntil,
		&o.Active,
		&o.UsageLimit,
		&o.UsageCount,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	return &o, nil
}
