package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/address/model"
	"storefront-backend/internal/domains/address/repository"
)

type addressService struct {
	repo repository.RepositoryInterface
}

// NewAddressService creates service instance
func NewAddressService(repo repository.RepositoryInterface) ServiceInterface {
	return &addressService{repo: repo}
}

// CreateAddress creates a new address for the user
func (s *addressService) CreateAddress(ctx context.Context, userID uuid.UUID, req *model.CreateAddressRequest) (*model.Address, error) {
	count, err := s.repo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, model.NewAddressError(model.ErrCodeInternalError, "failed to create address", err)
	}

	addr := req.ToAddress(userID)
	// First address is always the default
	if count == 0 {
		addr.IsDefault = true
	}

	created, err := s.repo.Create(ctx, addr)
	if err != nil {
		return nil, model.NewAddressError(model.ErrCodeInternalError, "failed to create address", err)
	}

	// A later address marked default displaces the current one
	if req.IsDefault && count > 0 {
		if err := s.repo.SetDefault(ctx, created.ID, userID); err != nil {
			return nil, model.NewAddressError(model.ErrCodeInternalError, "failed to set default address", err)
		}
		created.IsDefault = true
	}

	return created, nil
}

// ListAddresses retrieves all addresses for the user, default first
func (s *addressService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]*model.Address, error) {
	addresses, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, model.NewAddressError(model.ErrCodeInternalError, "failed to list addresses", err)
	}

	if addresses == nil {
		addresses = []*model.Address{}
	}
	return addresses, nil
}

// GetAddress retrieves one address with ownership check
func (s *addressService) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*model.Address, error) {
	return s.getOwned(ctx, userID, addressID)
}

// UpdateAddress rewrites the mutable fields of an owned address
func (s *addressService) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, req *model.UpdateAddressRequest) (*model.Address, error) {
	existing, err := s.getOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	req.Apply(existing)

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, model.ErrAddressNotFound) {
			return nil, model.NewAddressError(model.ErrCodeAddressNotFound, "address not found", err)
		}
		return nil, model.NewAddressError(model.ErrCodeInternalError, "failed to update address", err)
	}

	return updated, nil
}

// DeleteAddress removes an owned address. Deleting the default promotes
// the most recent remaining address so the user always keeps a default.
func (s *addressService) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	existing, err := s.getOwned(ctx, userID, addressID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, addressID); err != nil {
		if errors.Is(err, model.ErrAddressNotFound) {
			return model.NewAddressError(model.ErrCodeAddressNotFound, "address not found", err)
		}
		return model.NewAddressError(model.ErrCodeInternalError, "failed to delete address", err)
	}

	if existing.IsDefault {
		remaining, err := s.repo.GetByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to promote default address: %w", err)
		}
		if len(remaining) > 0 {
			if err := s.repo.SetDefault(ctx, remaining[0].ID, userID); err != nil {
				return fmt.Errorf("failed to promote default address: %w", err)
			}
		}
	}

	return nil
}

// SetDefaultAddress marks one address default and unsets the others
func (s *addressService) SetDefaultAddress(ctx context.Context, userID, addressID uuid.UUID) (*model.Address, error) {
	existing, err := s.getOwned(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetDefault(ctx, addressID, userID); err != nil {
		if errors.Is(err, model.ErrAddressNotFound) {
			return nil, model.NewAddressError(model.ErrCodeAddressNotFound, "address not found", err)
		}
		return nil, model.NewAddressError(model.ErrCodeInternalError, "failed to set default address", err)
	}

	existing.IsDefault = true
	return existing, nil
}

// getOwned loads an address and verifies ownership
func (s *addressService) getOwned(ctx context.Context, userID, addressID uuid.UUID) (*model.Address, error) {
	addr, err := s.repo.GetByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, model.ErrAddressNotFound) {
			return nil, model.NewAddressError(model.ErrCodeAddressNotFound, "address not found", err)
		}
		return nil, model.NewAddressError(model.ErrCodeInternalError, "failed to load address", err)
	}

	if !addr.OwnedBy(userID) {
		return nil, model.NewAddressError(model.ErrCodeAddressNotOwned, "address does not belong to user", model.ErrAddressNotOwned)
	}

	return addr, nil
}
