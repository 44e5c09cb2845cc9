package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed tickets repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
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

func (r *repository) FindOrder(ctx context.Context, orderID string) (*models.TicketOrder, error) {
	var order models.TicketOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListPaidOrdersWithoutTickets(ctx context.Context, eventID string) ([]models.TicketOrder, error) {
	var orders []models.TicketOrder
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND status = ? AND tickets_generated = ?", eventID, "paid", false).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID string, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.TicketOrder{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) FindParticipant(ctx context.Context, orderID string, ticketNumber int) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND ticket_number = ?", orderID, ticketNumber).
		First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// RedeemParticipant flips a participant to redeemed with a single
// conditional update. The WHERE clause makes redemption at-most-once under
// concurrent scanners: only one update can match the unredeemed row.
func (r *repository) RedeemParticipant(ctx context.Context, orderID string, ticketNumber int, at time.Time, by uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("order_id = ? AND ticket_number = ? AND redeemed = ?", orderID, ticketNumber, false).
		Updates(map[string]any{
			"redeemed":    true,
			"redeemed_at": at,
			"redeemed_by": by,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ClearRedemption(ctx context.Context, orderID string, ticketNumber int) error {
	return r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("order_id = ? AND ticket_number = ?", orderID, ticketNumber).
		Updates(map[string]any{
			"redeemed":    false,
			"redeemed_at": nil,
			"redeemed_by": nil,
		}).Error
}

func (r *repository) LastRedemptionBy(ctx context.Context, operator uuid.UUID) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.WithContext(ctx).
		Where("redeemed = ? AND redeemed_by = ?", true, operator).
		Order("redeemed_at DESC").
		First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *repository) UpdateParticipantBirthdate(ctx context.Context, orderID string, ticketNumber int, birthdate string) error {
	return r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Where("order_id = ? AND ticket_number = ?", orderID, ticketNumber).
		Update("birthdate", birthdate).Error
}

func (r *repository) CreateAuditLog(ctx context.Context, entry *models.BirthdateAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) paidParticipants(ctx context.Context, eventID *string) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Joins("JOIN ticket_orders ON ticket_orders.id = participants.order_id").
		Where("ticket_orders.status = ?", "paid")
	if eventID != nil {
		query = query.Where("ticket_orders.event_id = ?", *eventID)
	}
	return query
}

func (r *repository) CountPaidParticipants(ctx context.Context, eventID *string) (int, error) {
	var count int64
	err := r.paidParticipants(ctx, eventID).Count(&count).Error
	return int(count), err
}

func (r *repository) CountRedeemed(ctx context.Context, eventID *string) (int, error) {
	var count int64
	err := r.paidParticipants(ctx, eventID).
		Where("participants.redeemed = ?", true).
		Count(&count).Error
	return int(count), err
}

func (r *repository) ListRedeemedSince(ctx context.Context, eventID *string, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.paidParticipants(ctx, eventID).
		Where("participants.redeemed = ? AND participants.redeemed_at >= ?", true, since).
		Pluck("participants.redeemed_at", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

func (r *repository) ListPresent(ctx context.Context, eventID *string) ([]PresentRow, error) {
	var rows []PresentRow
	err := r.paidParticipants(ctx, eventID).
		Where("participants.redeemed = ?", true).
		Select(`participants.order_id, participants.ticket_number,
			participants.first_name, participants.last_name,
			participants.redeemed_at, participants.redeemed_by,
			ticket_orders.payment_reference`).
		Order("participants.redeemed_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListMissing(ctx context.Context, eventID *string) ([]MissingRow, error) {
	var rows []MissingRow
	err := r.paidParticipants(ctx, eventID).
		Where("participants.redeemed = ?", false).
		Select(`participants.order_id, participants.ticket_number,
			participants.first_name, participants.last_name,
			ticket_orders.payment_reference`).
		Order("participants.first_name ASC, participants.last_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
