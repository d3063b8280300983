package repository

import (
	"context"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/user/model"
)

// UserRepoInterface defines data access for accounts
type UserRepoInterface interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
