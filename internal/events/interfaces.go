package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

// Repository defines persistence operations for events and their attached
// configuration (tiers, bank accounts, per-user overrides).
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	FindActiveByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, publicOnly bool) ([]models.Event, error)
	Update(ctx context.Context, id string, updates map[string]any) error
	ListTiers(ctx context.Context, eventID string) ([]models.TicketTier, error)
	FindTier(ctx context.Context, eventID, tierID string) (*models.TicketTier, error)
	ReplaceTiers(ctx context.Context, eventID string, tiers []models.TicketTier) error
	ListBankAccounts(ctx context.Context, eventID string) ([]models.BankAccount, error)
	ReplaceBankAccounts(ctx context.Context, eventID string, accounts []models.BankAccount) error
	FindUserSetting(ctx context.Context, userID uuid.UUID, eventID string) (*models.UserEventSetting, error)
	UpsertUserSetting(ctx context.Context, setting *models.UserEventSetting) error
	DeleteUserSetting(ctx context.Context, userID uuid.UUID, eventID string) error
}

// AccessGrantStore records which users have unlocked a password-protected
// event. Grants expire on their own; the store is the only session-like
// state the service keeps.
type AccessGrantStore interface {
	GrantEventAccess(ctx context.Context, eventID, userID string, ttl time.Duration) error
	HasEventAccess(ctx context.Context, eventID, userID string) (bool, error)
	RevokeEventAccess(ctx context.Context, eventID, userID string) error
}
