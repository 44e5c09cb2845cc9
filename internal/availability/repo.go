package availability

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an availability repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", eventID, true).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
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

func (r *repository) SumEventTickets(ctx context.Context, eventID string) (int, error) {
	return r.sumQuantity(ctx, r.db.WithContext(ctx).
		Model(&models.TicketOrder{}).
		Where("event_id = ?", eventID))
}

func (r *repository) SumTierTickets(ctx context.Context, eventID, tierID string) (int, error) {
	return r.sumQuantity(ctx, r.db.WithContext(ctx).
		Model(&models.TicketOrder{}).
		Where("event_id = ? AND tier_id = ?", eventID, tierID))
}

func (r *repository) SumUserTickets(ctx context.Context, eventID string, userID uuid.UUID) (int, error) {
	return r.sumQuantity(ctx, r.db.WithContext(ctx).
		Model(&models.TicketOrder{}).
		Where("event_id = ? AND user_id = ?", eventID, userID))
}

func (r *repository) sumQuantity(ctx context.Context, query *gorm.DB) (int, error) {
	var total *int
	err := query.
		Where("status IN ?", []string{"pending", "paid"}).
		Select("SUM(quantity)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
