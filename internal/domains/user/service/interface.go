package service

import (
	"context"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/user/model"
)

// UserService handles account registration and authentication
type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.UserDTO, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserDTO, error)
}
