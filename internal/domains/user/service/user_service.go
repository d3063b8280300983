package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront-backend/internal/domains/user/model"
	"storefront-backend/internal/domains/user/repository"
	"storefront-backend/pkg/jwt"
)

// bcryptCost trades hash time against brute-force resistance
const bcryptCost = 12

type userService struct {
	repo repository.UserRepoInterface
	jwt  *jwt.Manager
}

// NewUserService creates service instance
func NewUserService(repo repository.UserRepoInterface, jwtManager *jwt.Manager) UserService {
	return &userService{
		repo: repo,
		jwt:  jwtManager,
	}
}

// Register creates a new customer account.
//
// Business Logic Flow:
// 1. Check the email is not already registered
// 2. Hash the password with bcrypt
// 3. Persist the account with the customer role
func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, model.NewUserError(model.ErrCodeInternalError, "failed to register", err)
	}
	if exists {
		return nil, model.NewUserError(model.ErrCodeEmailTaken, "email already registered", model.ErrEmailTaken)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, model.NewUserError(model.ErrCodeInternalError, "failed to register", fmt.Errorf("hash password: %w", err))
	}

	created, err := s.repo.Create(ctx, &model.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         model.RoleCustomer,
	})
	if err != nil {
		return nil, model.NewUserError(model.ErrCodeInternalError, "failed to register", err)
	}

	dto := created.ToDTO()
	return &dto, nil
}

// Login verifies credentials and issues the JWT pair.
// Unknown email and wrong password produce the same error so the
// endpoint does not leak which emails hold accounts.
func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, model.NewUserError(model.ErrCodeInvalidCredentials, "invalid email or password", model.ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.NewUserError(model.ErrCodeInvalidCredentials, "invalid email or password", model.ErrInvalidCredentials)
	}

	accessToken, err := s.jwt.GenerateAccessToken(u.ID.String(), u.Email, string(u.Role))
	if err != nil {
		return nil, model.NewUserError(model.ErrCodeInternalError, "failed to login", fmt.Errorf("generate access token: %w", err))
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(u.ID.String())
	if err != nil {
		return nil, model.NewUserError(model.ErrCodeInternalError, "failed to login", fmt.Errorf("generate refresh token: %w", err))
	}

	return &model.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
		User:         u.ToDTO(),
	}, nil
}

// GetProfile loads the account behind an authenticated request
func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserDTO, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.NewUserError(model.ErrCodeUserNotFound, "user not found", err)
		}
		return nil, model.NewUserError(model.ErrCodeInternalError, "failed to load profile", err)
	}

	dto := u.ToDTO()
	return &dto, nil
}
