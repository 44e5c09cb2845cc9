package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/internal/availability"
	"github.com/abiball/abiball-backend/internal/notifications"
	"github.com/abiball/abiball-backend/pkg/authz"
	"github.com/abiball/abiball-backend/pkg/db/models"
	"github.com/abiball/abiball-backend/pkg/enums"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
	"github.com/abiball/abiball-backend/pkg/logger"
	"github.com/abiball/abiball-backend/pkg/metrics"
	"github.com/abiball/abiball-backend/pkg/random"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// accessChecker enforces event visibility for buyer-facing operations.
type accessChecker interface {
	CheckAccess(ctx context.Context, actor authz.Context, event *models.Event) error
}

// Service drives the ticket order lifecycle from reservation to settlement.
type Service interface {
	Create(ctx context.Context, actor authz.Context, input CreateOrderInput) (*CreateOrderResult, error)
	Get(ctx context.Context, actor authz.Context, orderID string) (*OrderDetailView, error)
	List(ctx context.Context, actor authz.Context, eventID *string) ([]OrderView, error)
	ListMine(ctx context.Context, actor authz.Context) ([]OrderView, error)
	Limits(ctx context.Context, actor authz.Context, eventID string, tierID *string) (*availability.Result, error)
	MarkPaid(ctx context.Context, actor authz.Context, orderID string) error
	MarkUnpaid(ctx context.Context, actor authz.Context, orderID string) error
	QuickMarkPaidByReference(ctx context.Context, actor authz.Context, reference string) (*OrderView, error)
	MarkPaymentError(ctx context.Context, actor authz.Context, eventID, reference string) (*OrderView, error)
	Update(ctx context.Context, actor authz.Context, orderID string, input UpdateOrderInput) error
	Delete(ctx context.Context, actor authz.Context, orderID string) error
	Statistics(ctx context.Context, actor authz.Context, eventID *string) (*StatisticsView, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	avail    availability.Service
	access   accessChecker
	notifier notifications.Notifier
	metrics  *metrics.APIMetrics
	logg     *logger.Logger
	locks    eventLocks
	now      func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, avail availability.Service, access accessChecker, notifier notifications.Notifier, apiMetrics *metrics.APIMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if avail == nil {
		return nil, fmt.Errorf("availability service required")
	}
	if access == nil {
		return nil, fmt.Errorf("access checker required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		avail:    avail,
		access:   access,
		notifier: notifier,
		metrics:  apiMetrics,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// eventLocks serializes order creation per event so the capacity check and
// the insert cannot interleave across requests for the same event.
type eventLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *eventLocks) get(eventID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := l.locks[eventID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[eventID] = lock
	}
	return lock
}

func (s *service) Create(ctx context.Context, actor authz.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.EventID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if !actor.Can(authz.PermissionBuyTickets) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase permission required")
	}

	event, err := s.findActiveEvent(ctx, input.EventID)
	if err != nil {
		return nil, err
	}
	if !event.SalesEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket sales are disabled for this event")
	}
	now := s.now()
	if event.SaleStart != nil && now.Before(*event.SaleStart) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket sales have not started yet")
	}
	if event.SaleEnd != nil && now.After(*event.SaleEnd) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket sales have ended")
	}
	if err := s.access.CheckAccess(ctx, actor, event); err != nil {
		return nil, err
	}

	user, err := s.repo.FindUser(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if !user.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "email address not verified")
	}

	tierID := normalizeTierID(input.TierID)
	avail, err := s.avail.Compute(ctx, availability.Query{
		EventID: input.EventID,
		TierID:  tierID,
		UserID:  &actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	if input.Quantity > avail.EventRemaining {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "not enough tickets available")
	}
	if avail.TierRemaining != nil && input.Quantity > *avail.TierRemaining {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "not enough tickets available in this tier")
	}
	if avail.Blocked {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "ticket purchases are not allowed for this user")
	}
	if input.Quantity > avail.UserRemaining {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("ticket limit exceeded: %d of %d remaining", avail.UserRemaining, avail.EffectiveLimit))
	}

	if len(input.Participants) != input.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "participant count must match ticket count")
	}
	for i, participant := range input.Participants {
		if strings.TrimSpace(participant.FirstName) == "" || strings.TrimSpace(participant.LastName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("participant %d: name required", i+1))
		}
		if err := ValidateBirthdate(participant.Birthdate, event.EventDate, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err,
				fmt.Sprintf("participant %d", i+1))
		}
	}

	orderID, err := random.Token(random.OrderIDLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order id")
	}
	ordinal, err := s.repo.CountUserOrders(ctx, input.EventID, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count user orders")
	}
	reference := fmt.Sprintf("%s%03d", strings.ToUpper(user.Username), ordinal+1)

	total := avail.EffectivePrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
	order := &models.TicketOrder{
		ID:               orderID,
		EventID:          input.EventID,
		UserID:           actor.UserID,
		TierID:           tierID,
		Status:           enums.OrderStatusPending,
		Quantity:         input.Quantity,
		UnitPrice:        avail.EffectivePrice,
		TotalAmount:      total,
		PaymentReference: reference,
	}
	participants := make([]models.Participant, 0, len(input.Participants))
	for i, participant := range input.Participants {
		participants = append(participants, models.Participant{
			OrderID:      orderID,
			TicketNumber: i + 1,
			FirstName:    strings.TrimSpace(participant.FirstName),
			LastName:     strings.TrimSpace(participant.LastName),
			Birthdate:    participant.Birthdate,
			Phone:        participant.Phone,
			Email:        participant.Email,
		})
	}

	lock := s.locks.get(input.EventID)
	lock.Lock()
	defer lock.Unlock()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		// Re-check every capacity level inside the transaction: another
		// order may have landed between the availability read and taking
		// the event lock.
		sold, err := repo.SumEventTickets(ctx, input.EventID)
		if err != nil {
			return err
		}
		if sold+input.Quantity > event.MaxTickets {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "not enough tickets available")
		}
		if tierID != nil {
			tier, err := repo.FindTier(ctx, input.EventID, *tierID)
			if err != nil {
				return err
			}
			if tier.MaxTickets != nil {
				tierSold, err := repo.SumTierTickets(ctx, input.EventID, *tierID)
				if err != nil {
					return err
				}
				if tierSold+input.Quantity > *tier.MaxTickets {
					return pkgerrors.New(pkgerrors.CodeStateConflict, "not enough tickets available in this tier")
				}
			}
		}
		userSold, err := repo.SumUserTickets(ctx, input.EventID, actor.UserID)
		if err != nil {
			return err
		}
		if userSold+input.Quantity > avail.EffectiveLimit {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("ticket limit exceeded: %d of %d remaining",
					maxInt(0, avail.EffectiveLimit-userSold), avail.EffectiveLimit))
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		return repo.CreateParticipants(ctx, participants)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}
	s.metrics.IncOrderCreated(input.EventID)

	if err := s.notifier.OrderReceived(ctx, notifications.OrderReceivedData{
		RecipientEmail:   user.Email,
		RecipientName:    user.FirstName + " " + user.LastName,
		EventName:        event.Name,
		OrderID:          orderID,
		PaymentReference: reference,
		Quantity:         input.Quantity,
		TotalAmount:      total,
	}); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, orderID), "send order received mail", err)
	}

	s.logg.Info(s.logg.WithOrderID(s.logg.WithEventID(ctx, input.EventID), orderID), "order created")
	return &CreateOrderResult{
		OrderID:          orderID,
		PaymentReference: reference,
		TotalAmount:      total,
		Quantity:         input.Quantity,
	}, nil
}

func (s *service) Get(ctx context.Context, actor authz.Context, orderID string) (*OrderDetailView, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID && !actor.Can(authz.PermissionManageOrders) {
		// Same shape as an unknown order so ownership cannot be probed.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	participants, err := s.repo.ListParticipants(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list participants")
	}
	requests, err := s.repo.ListRequests(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payment requests")
	}

	detail := &OrderDetailView{OrderView: toOrderView(order)}
	for _, participant := range participants {
		detail.Participants = append(detail.Participants, ParticipantView{
			TicketNumber: participant.TicketNumber,
			FirstName:    participant.FirstName,
			LastName:     participant.LastName,
			Birthdate:    participant.Birthdate,
			Phone:        participant.Phone,
			Email:        participant.Email,
			Redeemed:     participant.Redeemed,
			RedeemedAt:   participant.RedeemedAt,
		})
	}
	for _, request := range requests {
		detail.PaymentRequests = append(detail.PaymentRequests, toRequestSummary(&request))
	}
	return detail, nil
}

func (s *service) List(ctx context.Context, actor authz.Context, eventID *string) ([]OrderView, error) {
	if !actor.Can(authz.PermissionManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	orders, err := s.repo.ListOrders(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		view := toOrderView(&orders[i])
		if request, err := s.repo.LatestRequest(ctx, orders[i].ID); err == nil {
			summary := toRequestSummary(request)
			view.LatestRequest = &summary
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load latest payment request")
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) ListMine(ctx context.Context, actor authz.Context) ([]OrderView, error) {
	orders, err := s.repo.ListUserOrders(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list user orders")
	}
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, toOrderView(&orders[i]))
	}
	return views, nil
}

func (s *service) Limits(ctx context.Context, actor authz.Context, eventID string, tierID *string) (*availability.Result, error) {
	return s.avail.Compute(ctx, availability.Query{
		EventID: eventID,
		TierID:  normalizeTierID(tierID),
		UserID:  &actor.UserID,
	})
}

func (s *service) MarkPaid(ctx context.Context, actor authz.Context, orderID string) error {
	if !actor.Can(authz.PermissionManageOrders) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return s.markPaid(ctx, order)
}

func (s *service) markPaid(ctx context.Context, order *models.TicketOrder) error {
	if order.Status == enums.OrderStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	paidAt := s.now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusPaid.String(),
			"paid_at":      paidAt,
			"error_reason": nil,
		}); err != nil {
			return err
		}
		return repo.UpdateOrderRequests(ctx, order.ID, map[string]any{
			"status":  enums.PaymentRequestStatusPaid.String(),
			"paid_at": paidAt,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
	}
	s.metrics.IncOrderPaid(order.EventID)
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID), "order marked paid")
	return nil
}

func (s *service) MarkUnpaid(ctx context.Context, actor authz.Context, orderID string) error {
	if !actor.Can(authz.PermissionManageOrders) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid")
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrder(ctx, orderID, map[string]any{
			"status":  enums.OrderStatusPending.String(),
			"paid_at": nil,
		}); err != nil {
			return err
		}
		return repo.UpdateOrderRequests(ctx, orderID, map[string]any{
			"status":  enums.PaymentRequestStatusSent.String(),
			"paid_at": nil,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order unpaid")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID), "order marked unpaid")
	return nil
}

func (s *service) QuickMarkPaidByReference(ctx context.Context, actor authz.Context, reference string) (*OrderView, error) {
	if !actor.Can(authz.PermissionManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	normalized := strings.ToUpper(strings.TrimSpace(reference))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	order, err := s.repo.FindOrderByReference(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order with this payment reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by reference")
	}
	if err := s.markPaid(ctx, order); err != nil {
		return nil, err
	}
	order.Status = enums.OrderStatusPaid
	view := toOrderView(order)
	return &view, nil
}

// MarkPaymentError records an incoming payment whose reference matched no
// order. The record is a freestanding error-status row so no transfer is
// silently discarded.
func (s *service) MarkPaymentError(ctx context.Context, actor authz.Context, eventID, reference string) (*OrderView, error) {
	if !actor.Can(authz.PermissionManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	if _, err := s.findActiveEvent(ctx, eventID); err != nil {
		return nil, err
	}
	orderID, err := random.Token(random.OrderIDLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order id")
	}
	reason := "payment reference not matched"
	order := &models.TicketOrder{
		ID:               orderID,
		EventID:          eventID,
		UserID:           actor.UserID,
		Status:           enums.OrderStatusError,
		Quantity:         0,
		UnitPrice:        decimal.Zero,
		TotalAmount:      decimal.Zero,
		PaymentReference: strings.ToUpper(strings.TrimSpace(reference)),
		ErrorReason:      &reason,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment error")
	}
	s.logg.Warn(s.logg.WithEventID(ctx, eventID), "unmatched payment recorded")
	view := toOrderView(order)
	return &view, nil
}

func (s *service) Update(ctx context.Context, actor authz.Context, orderID string, input UpdateOrderInput) error {
	if !actor.Can(authz.PermissionManageOrders) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}

	updates := map[string]any{}
	quantity := order.Quantity
	unitPrice := order.UnitPrice
	if input.Status != nil {
		status, err := enums.ParseOrderStatus(*input.Status)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		updates["status"] = status.String()
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
		}
		quantity = *input.Quantity
		updates["quantity"] = quantity
	}
	if input.UnitPrice != nil {
		unitPrice = *input.UnitPrice
		updates["unit_price"] = unitPrice
	}
	if input.Quantity != nil || input.UnitPrice != nil {
		updates["total_amount"] = unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	}
	if input.Participants != nil && len(input.Participants) != quantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "participant count must match ticket count")
	}

	userUpdates := map[string]any{}
	if input.UserFirstName != nil {
		userUpdates["first_name"] = *input.UserFirstName
	}
	if input.UserLastName != nil {
		userUpdates["last_name"] = *input.UserLastName
	}
	if input.UserEmail != nil {
		userUpdates["email"] = *input.UserEmail
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if len(updates) > 0 {
			if err := repo.UpdateOrder(ctx, orderID, updates); err != nil {
				return err
			}
		}
		if input.Participants != nil {
			// Wholesale replacement keeps ticket numbers dense from 1.
			if err := repo.DeleteParticipants(ctx, orderID); err != nil {
				return err
			}
			participants := make([]models.Participant, 0, len(input.Participants))
			for i, participant := range input.Participants {
				participants = append(participants, models.Participant{
					OrderID:      orderID,
					TicketNumber: i + 1,
					FirstName:    participant.FirstName,
					LastName:     participant.LastName,
					Birthdate:    participant.Birthdate,
					Phone:        participant.Phone,
					Email:        participant.Email,
				})
			}
			if err := repo.CreateParticipants(ctx, participants); err != nil {
				return err
			}
		}
		if len(userUpdates) > 0 {
			if err := repo.UpdateUser(ctx, order.UserID, userUpdates); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID), "order updated")
	return nil
}

func (s *service) Delete(ctx context.Context, actor authz.Context, orderID string) error {
	if !actor.Can(authz.PermissionManageOrders) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	if _, err := s.findOrder(ctx, orderID); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteParticipants(ctx, orderID); err != nil {
			return err
		}
		return repo.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID), "order deleted")
	return nil
}

func (s *service) Statistics(ctx context.Context, actor authz.Context, eventID *string) (*StatisticsView, error) {
	if !actor.Can(authz.PermissionManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	if eventID != nil {
		if _, err := s.findActiveEvent(ctx, *eventID); err != nil {
			return nil, err
		}
	}
	stats, err := s.repo.Statistics(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute order statistics")
	}
	return stats, nil
}

// ValidateBirthdate checks the YYYY-MM-DD shape and that the date does not
// lie in the future relative to the event date, falling back to now when the
// event has no usable date.
func ValidateBirthdate(birthdate string, eventDate time.Time, now time.Time) error {
	parsed, err := time.Parse("2006-01-02", birthdate)
	if err != nil {
		return fmt.Errorf("birthdate must be a valid YYYY-MM-DD date")
	}
	reference := eventDate
	if reference.IsZero() {
		reference = now
	}
	if parsed.After(reference) {
		return fmt.Errorf("birthdate lies in the future")
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func normalizeTierID(tierID *string) *string {
	if tierID == nil || *tierID == "" || *tierID == "default" {
		return nil
	}
	return tierID
}

func (s *service) findActiveEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.repo.FindActiveEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}
	return event, nil
}

func (s *service) findOrder(ctx context.Context, orderID string) (*models.TicketOrder, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func toOrderView(order *models.TicketOrder) OrderView {
	return OrderView{
		ID:               order.ID,
		EventID:          order.EventID,
		UserID:           order.UserID,
		TierID:           order.TierID,
		Status:           order.Status,
		Quantity:         order.Quantity,
		UnitPrice:        order.UnitPrice,
		TotalAmount:      order.TotalAmount,
		PaymentReference: order.PaymentReference,
		TicketsGenerated: order.TicketsGenerated,
		PaidAt:           order.PaidAt,
		ErrorReason:      order.ErrorReason,
		CreatedAt:        order.CreatedAt,
	}
}

func toRequestSummary(request *models.PaymentRequest) RequestSummary {
	return RequestSummary{
		ID:     request.ID,
		Status: request.Status,
		SentAt: request.SentAt,
		PaidAt: request.PaidAt,
	}
}
