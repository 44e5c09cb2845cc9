package events

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an events repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (r *repository) FindActiveByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) List(ctx context.Context, publicOnly bool) ([]models.Event, error) {
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if publicOnly {
		query = query.Where("visibility = ?", "public")
	}
	var events []models.Event
	if err := query.Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) Update(ctx context.Context, id string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListTiers(ctx context.Context, eventID string) ([]models.TicketTier, error) {
	var tiers []models.TicketTier
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("price ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repository) FindTier(ctx context.Context, eventID, tierID string) (*models.TicketTier, error) {
	var tier models.TicketTier
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND id = ?", eventID, tierID).
		First(&tier).Error
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *repository) ReplaceTiers(ctx context.Context, eventID string, tiers []models.TicketTier) error {
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&models.TicketTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&tiers).Error
}

func (r *repository) ListBankAccounts(ctx context.Context, eventID string) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("percentage DESC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) ReplaceBankAccounts(ctx context.Context, eventID string, accounts []models.BankAccount) error {
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&models.BankAccount{}).Error; err != nil {
		return err
	}
	if len(accounts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&accounts).Error
}

func (r *repository) FindUserSetting(ctx context.Context, userID uuid.UUID, eventID string) (*models.UserEventSetting, error) {
	var setting models.UserEventSetting
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *repository) UpsertUserSetting(ctx context.Context, setting *models.UserEventSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"max_tickets", "ticket_price", "updated_at"}),
		}).
		Create(setting).Error
}

func (r *repository) DeleteUserSetting(ctx context.Context, userID uuid.UUID, eventID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Delete(&models.UserEventSetting{}).Error
}
