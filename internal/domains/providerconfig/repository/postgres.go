package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"storefront-backend/internal/domains/providerconfig/model"
)

const configColumns = `id, provider, env, tenant, enabled, priority, channels, credentials, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates repository instance
func NewPostgresRepository(pool *pgxpool.Pool) ConfigRepository {
	return &postgresRepository{pool: pool}
}

func scanConfig(row pgx.Row, op string) (*model.ProviderConfig, error) {
	var cfg model.ProviderConfig
	var credentialsJSON []byte

	err := row.Scan(
		&cfg.ID, &cfg.Provider, &cfg.Env, &cfg.Tenant,
		&cfg.Enabled, &cfg.Priority, pq.Array(&cfg.Channels), &credentialsJSON,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	if len(credentialsJSON) > 0 {
		if err := json.Unmarshal(credentialsJSON, &cfg.Credentials); err != nil {
			return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
		}
	}

	return &cfg, nil
}

func (r *postgresRepository) ListEnabled(ctx context.Context, env, tenant string) ([]*model.ProviderConfig, error) {
	query := `
		SELECT ` + configColumns + `
		FROM provider_configs
		WHERE env = $1 AND tenant = $2 AND enabled = true
		ORDER BY priority ASC, provider ASC`

	rows, err := r.pool.Query(ctx, query, env, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider configs: %w", err)
	}
	defer rows.Close()

	var configs []*model.ProviderConfig
	for rows.Next() {
		cfg, err := scanConfig(rows, "list provider configs")
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list provider configs: %w", err)
	}

	return configs, nil
}

func (r *postgresRepository) Get(ctx context.Context, provider, env, tenant string) (*model.ProviderConfig, error) {
	query := `SELECT ` + configColumns + ` FROM provider_configs WHERE provider = $1 AND env = $2 AND tenant = $3`
	return scanConfig(r.pool.QueryRow(ctx, query, provider, env, tenant), "get provider config")
}
