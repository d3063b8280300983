package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/domains/user/model"
	"storefront-backend/pkg/jwt"
)

type fakeUserRepo struct {
	users []*model.User
}

func (r *fakeUserRepo) Create(ctx context.Context, u *model.User) (*model.User, error) {
	stored := *u
	stored.ID = uuid.New()
	stored.Email = strings.ToLower(stored.Email)
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users = append(r.users, &stored)
	copied := stored
	return &copied, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func newUserFixture() (UserService, *fakeUserRepo) {
	repo := &fakeUserRepo{}
	return NewUserService(repo, jwt.NewManager("test-secret")), repo
}

func requireUserCode(t *testing.T, err error, code string) {
	t.Helper()
	var userErr *model.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, code, userErr.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo := newUserFixture()
	ctx := context.Background()

	dto, err := svc.Register(ctx, &model.RegisterRequest{
		Email:    "Asha@Example.com",
		Password: "correct horse",
		FullName: "Asha Rao",
	})
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", dto.Email)
	assert.Equal(t, string(model.RoleCustomer), dto.Role)
	require.Len(t, repo.users, 1)
	// Never the raw password in storage
	assert.NotContains(t, repo.users[0].PasswordHash, "correct horse")

	resp, err := svc.Login(ctx, &model.LoginRequest{Email: "asha@example.com", Password: "correct horse"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, dto.ID, resp.User.ID)

	claims, err := jwt.NewManager("test-secret").ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, dto.ID.String(), claims.UserID)
	assert.Equal(t, "customer", claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Email: "asha@example.com", Password: "correct horse", FullName: "Asha Rao",
	})
	require.NoError(t, err)

	// Same address, different case
	_, err = svc.Register(ctx, &model.RegisterRequest{
		Email: "ASHA@example.com", Password: "other password", FullName: "Asha Rao",
	})
	requireUserCode(t, err, model.ErrCodeEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Email: "asha@example.com", Password: "correct horse", FullName: "Asha Rao",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "asha@example.com", Password: "wrong horse"})
	requireUserCode(t, err, model.ErrCodeInvalidCredentials)

	// Unknown email yields the identical code, nothing to enumerate
	_, err = svc.Login(ctx, &model.LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
	requireUserCode(t, err, model.ErrCodeInvalidCredentials)
}

func TestGetProfile(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	dto, err := svc.Register(ctx, &model.RegisterRequest{
		Email: "asha@example.com", Password: "correct horse", FullName: "Asha Rao",
	})
	require.NoError(t, err)

	got, err := svc.GetProfile(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", got.FullName)

	_, err = svc.GetProfile(ctx, uuid.New())
	requireUserCode(t, err, model.ErrCodeUserNotFound)
}
