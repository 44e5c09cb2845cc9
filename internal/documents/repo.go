package documents

import (
	"context"

	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed documents repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) EventExists(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND active = ?", eventID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListGuestRows(ctx context.Context, eventID string) ([]GuestRow, error) {
	var rows []GuestRow
	err := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Joins("JOIN ticket_orders ON ticket_orders.id = participants.order_id").
		Joins("JOIN users ON users.id = ticket_orders.user_id").
		Where("ticket_orders.event_id = ? AND ticket_orders.status = ?", eventID, "paid").
		Select(`participants.first_name, participants.last_name, participants.ticket_number,
			users.email AS buyer_email, users.first_name AS buyer_first_name,
			users.last_name AS buyer_last_name,
			ticket_orders.payment_reference, ticket_orders.created_at AS ordered_at,
			ticket_orders.unit_price`).
		Order("participants.first_name ASC, participants.last_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListOrderRows(ctx context.Context, eventID string) ([]OrderRow, error) {
	var rows []OrderRow
	err := r.db.WithContext(ctx).
		Model(&models.TicketOrder{}).
		Joins("JOIN users ON users.id = ticket_orders.user_id").
		Where("ticket_orders.event_id = ?", eventID).
		Select(`ticket_orders.id AS order_id,
			users.email AS buyer_email, users.first_name AS buyer_first_name,
			users.last_name AS buyer_last_name,
			ticket_orders.status, ticket_orders.quantity, ticket_orders.total_amount,
			ticket_orders.payment_reference, ticket_orders.created_at AS ordered_at,
			ticket_orders.paid_at`).
		Order("ticket_orders.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
