package users

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/authz"
	"github.com/abiball/abiball-backend/pkg/config"
	"github.com/abiball/abiball-backend/pkg/db/models"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
	"github.com/abiball/abiball-backend/pkg/logger"
	"github.com/abiball/abiball-backend/pkg/security"
)

type stubUsersRepo struct {
	users     map[uuid.UUID]*models.User
	createErr error
	logins    map[uuid.UUID]time.Time
}

func newStubUsersRepo() *stubUsersRepo {
	return &stubUsersRepo{users: map[uuid.UUID]*models.User{}, logins: map[uuid.UUID]time.Time{}}
}

func (s *stubUsersRepo) Create(ctx context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.users[user.ID] = user
	return nil
}

func (s *stubUsersRepo) FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUsersRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, user := range s.users {
		out = append(out, *user)
	}
	return out, nil
}

func (s *stubUsersRepo) Update(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	user := s.users[userID]
	if verified, ok := updates["email_verified"].(bool); ok {
		user.EmailVerified = verified
	}
	if email, ok := updates["email"].(string); ok {
		user.Email = email
	}
	return nil
}

func (s *stubUsersRepo) RecordLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	s.logins[userID] = at
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "abiball-test", ExpirationMinutes: 30}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
}

func newUsersService(t *testing.T, repo Repository) Service {
	t.Helper()
	logg := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(repo, testJWTConfig(), testPasswordConfig(), logg)
	require.NoError(t, err)
	return svc
}

func TestRegisterCreatesBuyerAccount(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	view, err := svc.Register(context.Background(), RegisterInput{
		Username: " Max ", Email: "MAX@Example.com", Password: "correct horse battery",
		FirstName: "Max", LastName: "Mustermann",
	})
	require.NoError(t, err)
	assert.Equal(t, "max", view.Username)
	assert.Equal(t, "max@example.com", view.Email)
	assert.Equal(t, []authz.Permission{authz.PermissionBuyTickets}, view.Permissions)
	assert.False(t, view.EmailVerified, "accounts start unverified")

	stored := repo.users[view.ID]
	require.NotNil(t, stored)
	ok, err := security.VerifyPassword("correct horse battery", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginMintsTokenAndRecordsLogin(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	view, err := svc.Register(context.Background(), RegisterInput{
		Username: "max", Email: "max@example.com", Password: "correct horse battery",
		FirstName: "Max", LastName: "Mustermann",
	})
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), LoginInput{Username: "MAX", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, view.ID, result.User.ID)
	assert.Contains(t, repo.logins, view.ID)

	claims, err := authz.ParseAccessToken(testJWTConfig(), result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, view.ID, claims.UserID)
	assert.Equal(t, []authz.Permission{authz.PermissionBuyTickets}, claims.Permissions)
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "max", Email: "max@example.com", Password: "correct horse battery",
		FirstName: "Max", LastName: "Mustermann",
	})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(context.Background(), LoginInput{Username: "max", Password: "nope nope nope"})
	require.Error(t, wrongPassword)
	_, unknownUser := svc.Login(context.Background(), LoginInput{Username: "ghost", Password: "nope nope nope"})
	require.Error(t, unknownUser)

	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(wrongPassword).Code())
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error(), "unknown accounts look like wrong passwords")
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	view, err := svc.Register(context.Background(), RegisterInput{
		Username: "max", Email: "max@example.com", Password: "correct horse battery",
		FirstName: "Max", LastName: "Mustermann",
	})
	require.NoError(t, err)
	repo.users[view.ID].IsActive = false

	_, err = svc.Login(context.Background(), LoginInput{Username: "max", Password: "correct horse battery"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestUpdateVerifiesEmailAndValidatesPermissions(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	view, err := svc.Register(context.Background(), RegisterInput{
		Username: "max", Email: "max@example.com", Password: "correct horse battery",
		FirstName: "Max", LastName: "Mustermann",
	})
	require.NoError(t, err)

	admin := authz.Context{UserID: uuid.New(), Username: "orga", Permissions: []authz.Permission{authz.PermissionAdmin}}
	verified := true
	updated, err := svc.Update(context.Background(), admin, view.ID, UpdateUserInput{EmailVerified: &verified})
	require.NoError(t, err)
	assert.True(t, updated.EmailVerified)

	_, err = svc.Update(context.Background(), admin, view.ID, UpdateUserInput{Permissions: []string{"rule_the_world"}})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestGetHidesForeignAccounts(t *testing.T) {
	repo := newStubUsersRepo()
	svc := newUsersService(t, repo)

	view, err := svc.Register(context.Background(), RegisterInput{
		Username: "max", Email: "max@example.com", Password: "correct horse battery",
		FirstName: "Max", LastName: "Mustermann",
	})
	require.NoError(t, err)

	stranger := authz.Context{UserID: uuid.New(), Permissions: []authz.Permission{authz.PermissionBuyTickets}}
	_, err = svc.Get(context.Background(), stranger, view.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	self := authz.Context{UserID: view.ID, Username: "max", Permissions: []authz.Permission{authz.PermissionBuyTickets}}
	got, err := svc.Get(context.Background(), self, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "max", got.Username)
}
