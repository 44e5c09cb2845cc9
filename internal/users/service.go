package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/authz"
	"github.com/abiball/abiball-backend/pkg/config"
	"github.com/abiball/abiball-backend/pkg/db"
	"github.com/abiball/abiball-backend/pkg/db/models"
	dbtypes "github.com/abiball/abiball-backend/pkg/db/types"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
	"github.com/abiball/abiball-backend/pkg/logger"
	"github.com/abiball/abiball-backend/pkg/security"
)

// Service covers account registration, login, and admin user management.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*UserView, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Get(ctx context.Context, actor authz.Context, userID uuid.UUID) (*UserView, error)
	List(ctx context.Context, actor authz.Context) ([]UserView, error)
	Update(ctx context.Context, actor authz.Context, userID uuid.UUID, input UpdateUserInput) (*UserView, error)
}

type service struct {
	repo     Repository
	jwt      config.JWTConfig
	password config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a users service with the required dependencies.
func NewService(repo Repository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		jwt:      jwtCfg,
		password: passwordCfg,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*UserView, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and email required")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Permissions:  dbtypes.StringArray{authz.PermissionBuyTickets.String()},
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username or email already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	s.logg.Info(s.logg.WithUser(ctx, user.Username), "user registered")
	view := toUserView(user)
	return &view, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same shape as a wrong password so accounts cannot be probed.
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now()
	token, err := authz.MintAccessToken(s.jwt, now, authz.AccessTokenPayload{
		UserID:      user.ID,
		Username:    user.Username,
		Permissions: parsePermissions(user.Permissions),
		JTI:         uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	if err := s.repo.RecordLogin(ctx, user.ID, now); err != nil {
		s.logg.Error(s.logg.WithUser(ctx, user.Username), "record login time", err)
	}
	s.logg.Info(s.logg.WithUser(ctx, user.Username), "user logged in")
	return &LoginResult{AccessToken: token, User: toUserView(user)}, nil
}

func (s *service) Get(ctx context.Context, actor authz.Context, userID uuid.UUID) (*UserView, error) {
	if userID != actor.UserID && !actor.Can(authz.PermissionViewUsers) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	view := toUserView(user)
	return &view, nil
}

func (s *service) List(ctx context.Context, actor authz.Context) ([]UserView, error) {
	if !actor.Can(authz.PermissionViewUsers) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user view permission required")
	}
	userRows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	views := make([]UserView, 0, len(userRows))
	for i := range userRows {
		views = append(views, toUserView(&userRows[i]))
	}
	return views, nil
}

func (s *service) Update(ctx context.Context, actor authz.Context, userID uuid.UUID, input UpdateUserInput) (*UserView, error) {
	if !actor.Can(authz.PermissionEditUsers) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user management permission required")
	}
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	updates := map[string]any{}
	if input.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Permissions != nil {
		granted := make(dbtypes.StringArray, 0, len(input.Permissions))
		for _, raw := range input.Permissions {
			permission, err := authz.ParsePermission(raw)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid permission")
			}
			granted = append(granted, permission.String())
		}
		updates["permissions"] = granted
	}
	if input.EmailVerified != nil {
		updates["email_verified"] = *input.EmailVerified
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, userID, updates); err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already taken")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
		}
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	s.logg.Info(s.logg.WithField(ctx, "user_id", userID.String()), "user updated")
	view := toUserView(user)
	return &view, nil
}

func parsePermissions(raw dbtypes.StringArray) []authz.Permission {
	permissions := make([]authz.Permission, 0, len(raw))
	for _, value := range raw {
		if permission, err := authz.ParsePermission(value); err == nil {
			permissions = append(permissions, permission)
		}
	}
	return permissions
}

func toUserView(user *models.User) UserView {
	return UserView{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Permissions:   parsePermissions(user.Permissions),
		EmailVerified: user.EmailVerified,
		IsActive:      user.IsActive,
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
	}
}
