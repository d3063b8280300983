package service

import (
	"context"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/address/model"
)

// ServiceInterface defines address book business logic. Every operation
// is scoped to the calling user; foreign addresses are never readable.
type ServiceInterface interface {
	// CreateAddress adds an address. The user's first address becomes
	// the default automatically.
	CreateAddress(ctx context.Context, userID uuid.UUID, req *model.CreateAddressRequest) (*model.Address, error)

	// ListAddresses returns the user's addresses, default first
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]*model.Address, error)

	// GetAddress retrieves one address with ownership check
	GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*model.Address, error)

	// UpdateAddress rewrites the mutable fields with ownership check
	UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, req *model.UpdateAddressRequest) (*model.Address, error)

	// DeleteAddress removes an address. Deleting the default promotes
	// the most recent remaining address.
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error

	// SetDefaultAddress marks one address default and unsets the others
	SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (*model.Address, error)
}
