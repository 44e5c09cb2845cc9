package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrder(ctx context.Context, orderID string) (*models.TicketOrder, error) {
	var order models.TicketOrder
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
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

func (r *repository) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindBankAccount(ctx context.Context, accountID string) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := r.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
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

func (r *repository) CreateRequest(ctx context.Context, request *models.PaymentRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindRequest(ctx context.Context, requestID string) (*models.PaymentRequest, error) {
	var request models.PaymentRequest
	if err := r.db.WithContext(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
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

func (r *repository) ListPendingOrdersWithoutRequest(ctx context.Context, eventID string) ([]models.TicketOrder, error) {
	var orders []models.TicketOrder
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, "pending").
		Where("id NOT IN (?)", r.db.Model(&models.PaymentRequest{}).Select("order_id")).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateRequest(ctx context.Context, requestID string, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("id = ?", requestID).
		Updates(updates).Error
}

func (r *repository) UpdateOrder(ctx context.Context, orderID string, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.TicketOrder{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
