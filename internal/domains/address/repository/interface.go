package repository

import (
	"context"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/address/model"
)

// RepositoryInterface defines data access for the address book
type RepositoryInterface interface {
	// Create inserts a new address record
	Create(ctx context.Context, address *model.Address) (*model.Address, error)

	// GetByID retrieves an address by ID
	GetByID(ctx context.Context, id uuid.UUID) (*model.Address, error)

	// GetByUserID retrieves all addresses for a user, default first
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Address, error)

	// GetDefaultByUserID retrieves the user's default address
	GetDefaultByUserID(ctx context.Context, userID uuid.UUID) (*model.Address, error)

	// CountByUserID returns total addresses for a user
	CountByUserID(ctx context.Context, userID uuid.UUID) (int, error)

	// Update rewrites the mutable fields of an address
	Update(ctx context.Context, address *model.Address) (*model.Address, error)

	// Delete removes an address record
	Delete(ctx context.Context, id uuid.UUID) error

	// SetDefault marks one address default and unsets the user's others
	SetDefault(ctx context.Context, addressID, userID uuid.UUID) error
}
