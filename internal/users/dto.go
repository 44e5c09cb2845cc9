package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/abiball/abiball-backend/pkg/authz"
)

// RegisterInput creates a new buyer account.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=10"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// LoginInput authenticates by username and password.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserInput is the admin patch surface for an account.
type UpdateUserInput struct {
	Email         *string  `json:"email" validate:"omitempty,email"`
	FirstName     *string  `json:"first_name"`
	LastName      *string  `json:"last_name"`
	Permissions   []string `json:"permissions"`
	EmailVerified *bool    `json:"email_verified"`
	IsActive      *bool    `json:"is_active"`
}

// UserView is an account without its secrets.
type UserView struct {
	ID            uuid.UUID          `json:"id"`
	Username      string             `json:"username"`
	Email         string             `json:"email"`
	FirstName     string             `json:"first_name"`
	LastName      string             `json:"last_name"`
	Permissions   []authz.Permission `json:"permissions"`
	EmailVerified bool               `json:"email_verified"`
	IsActive      bool               `json:"is_active"`
	LastLoginAt   *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// LoginResult carries the minted bearer token and the account it belongs to.
type LoginResult struct {
	AccessToken string   `json:"access_token"`
	User        UserView `json:"user"`
}
