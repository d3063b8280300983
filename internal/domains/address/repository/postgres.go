package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-backend/internal/domains/address/model"
)

const addressColumns = `id, user_id, name, phone, line1, line2, city, state, pincode, is_default, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates repository instance
func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

func scanAddress(row pgx.Row, op string) (*model.Address, error) {
	var addr model.Address
	err := row.Scan(
		&addr.ID, &addr.UserID, &addr.Name, &addr.Phone,
		&addr.Line1, &addr.Line2, &addr.City, &addr.State, &addr.Pincode,
		&addr.IsDefault, &addr.CreatedAt, &addr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return &addr, nil
}

func (r *postgresRepository) Create(ctx context.Context, addr *model.Address) (*model.Address, error) {
	query := `
		INSERT INTO addresses (user_id, name, phone, line1, line2, city, state, pincode, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING ` + addressColumns

	row := r.pool.QueryRow(ctx, query,
		addr.UserID, addr.Name, addr.Phone, addr.Line1, addr.Line2,
		addr.City, addr.State, addr.Pincode, addr.IsDefault,
	)

	return scanAddress(row, "create address")
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`
	return scanAddress(r.pool.QueryRow(ctx, query, id), "get address")
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []*model.Address
	for rows.Next() {
		addr, err := scanAddress(rows, "list addresses")
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}

	return addresses, nil
}

func (r *postgresRepository) GetDefaultByUserID(ctx context.Context, userID uuid.UUID) (*model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND is_default = true`
	return scanAddress(r.pool.QueryRow(ctx, query, userID), "get default address")
}

func (r *postgresRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count addresses: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) Update(ctx context.Context, addr *model.Address) (*model.Address, error) {
	query := `
		UPDATE addresses
		SET name = $1, phone = $2, line1 = $3, line2 = $4, city = $5, state = $6, pincode = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING ` + addressColumns

	row := r.pool.QueryRow(ctx, query,
		addr.Name, addr.Phone, addr.Line1, addr.Line2,
		addr.City, addr.State, addr.Pincode, addr.ID,
	)

	return scanAddress(row, "update address")
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrAddressNotFound
	}
	return nil
}

// SetDefault marks one address default and unsets the user's others in
// one transaction
func (r *postgresRepository) SetDefault(ctx context.Context, addressID, userID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `UPDATE addresses SET is_default = false WHERE user_id = $1 AND id != $2`, userID, addressID)
	if err != nil {
		return fmt.Errorf("failed to unset default addresses: %w", err)
	}

	result, err := tx.Exec(ctx, `UPDATE addresses SET is_default = true WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("failed to set default address: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrAddressNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
