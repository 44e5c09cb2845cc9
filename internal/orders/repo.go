package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed orders repository.
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

func (r *repository) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.TicketOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) CreateParticipants(ctx context.Context, participants []models.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&participants).Error
}

func (r *repository) FindOrder(ctx context.Context, orderID string) (*models.TicketOrder, error) {
	var order models.TicketOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderByReference(ctx context.Context, reference string) (*models.TicketOrder, error) {
	var order models.TicketOrder
	err := r.db.WithContext(ctx).
		Where("payment_reference = ?", reference).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context, eventID *string) ([]models.TicketOrder, error) {
	var orders []models.TicketOrder
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if eventID != nil {
		query = query.Where("event_id = ?", *eventID)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.TicketOrder, error) {
	var orders []models.TicketOrder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListParticipants(ctx context.Context, orderID string) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("ticket_number ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID string, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.TicketOrder{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) DeleteOrder(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", orderID).
		Delete(&models.TicketOrder{}).Error
}

func (r *repository) DeleteParticipants(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.Participant{}).Error
}

func (r *repository) CountUserOrders(ctx context.Context, eventID string, userID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TicketOrder{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	return int(count), err
}

func (r *repository) SumEventTickets(ctx context.Context, eventID string) (int, error) {
	return r.sumTickets(ctx, r.db.WithContext(ctx).
		Model(&models.TicketOrder{}).
		Where("event_id = ?", eventID))
}

func (r *repository) SumTierTickets(ctx context.Context, eventID, tierID string) (int, error) {
	return r.sumTickets(ctx, r.db.WithContext(ctx).
		Model(&models.TicketOrder{}).
		Where("event_id = ? AND tier_id = ?", eventID, tierID))
}

func (r *repository) SumUserTickets(ctx context.Context, eventID string, userID uuid.UUID) (int, error) {
	return r.sumTickets(ctx, r.db.WithContext(ctx).
		Model(&models.TicketOrder{}).
		Where("event_id = ? AND user_id = ?", eventID, userID))
}

func (r *repository) sumTickets(ctx context.Context, query *gorm.DB) (int, error) {
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

func (r *repository) LatestRequest(ctx context.Context, orderID string) (*models.PaymentRequest, error) {
	var request models.PaymentRequest
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("sent_at DESC").
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListRequests(ctx context.Context, orderID string) ([]models.PaymentRequest, error) {
	var requests []models.PaymentRequest
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("sent_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) UpdateOrderRequests(ctx context.Context, orderID string, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) UpdateUser(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(updates).Error
}

func (r *repository) Statistics(ctx context.Context, eventID *string) (*StatisticsView, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.TicketOrder{})
		if eventID != nil {
			query = query.Where("event_id = ?", *eventID)
		}
		return query
	}

	stats := &StatisticsView{RevenueTotal: decimal.Zero}

	type statusRow struct {
		Status  string
		Orders  int
		Tickets *int
	}
	var rows []statusRow
	err := scoped().
		Select("status, COUNT(*) AS orders, SUM(quantity) AS tickets").
		Where("status IN ?", []string{"pending", "paid"}).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		tickets := 0
		if row.Tickets != nil {
			tickets = *row.Tickets
		}
		switch row.Status {
		case "paid":
			stats.PaidOrders = row.Orders
			stats.TicketsPaid = tickets
		case "pending":
			stats.PendingOrders = row.Orders
			stats.TicketsReserved = tickets
		}
	}
	stats.TotalTicketsSold = stats.TicketsPaid + stats.TicketsReserved

	var revenue *decimal.Decimal
	err = scoped().
		Where("status = ?", "paid").
		Select("SUM(total_amount)").
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	if revenue != nil {
		stats.RevenueTotal = revenue.Round(2)
	}

	capacityQuery := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("active = ?", true)
	if eventID != nil {
		capacityQuery = capacityQuery.Where("id = ?", *eventID)
	}
	var capacity *int
	if err := capacityQuery.Select("SUM(max_tickets)").Scan(&capacity).Error; err != nil {
		return nil, err
	}
	if capacity != nil {
		stats.TicketsAvailable = *capacity - stats.TotalTicketsSold
		if stats.TicketsAvailable < 0 {
			stats.TicketsAvailable = 0
		}
	}

	participantQuery := r.db.WithContext(ctx).
		Model(&models.Participant{}).
		Joins("JOIN ticket_orders ON ticket_orders.id = participants.order_id").
		Where("ticket_orders.status IN ?", []string{"pending", "paid"}).
		Where("participants.first_name <> ''")
	if eventID != nil {
		participantQuery = participantQuery.Where("ticket_orders.event_id = ?", *eventID)
	}
	var participants int64
	if err := participantQuery.Count(&participants).Error; err != nil {
		return nil, err
	}
	stats.TotalParticipants = int(participants)

	return stats, nil
}
