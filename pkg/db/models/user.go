package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/abiball/abiball-backend/pkg/db/types"
)

// User represents the canonical identity entity. The username doubles as the
// stem of every payment reference the user's orders carry.
type User struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username      string              `gorm:"column:username;not null;uniqueIndex"`
	Email         string              `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash  string              `gorm:"column:password_hash;not null"`
	FirstName     string              `gorm:"column:first_name;not null"`
	LastName      string              `gorm:"column:last_name;not null"`
	Permissions   dbtypes.StringArray `gorm:"type:text[];column:permissions;not null;default:ARRAY[]::text[]"`
	EmailVerified bool                `gorm:"column:email_verified;not null;default:false"`
	IsActive      bool                `gorm:"column:is_active;not null;default:true"`
	LastLoginAt   *time.Time          `gorm:"column:last_login_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
