package payments

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

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

// Service drives the payment request lifecycle: sending single and bulk
// requests, settling them, and rendering the transfer QR.
type Service interface {
	SendRequest(ctx context.Context, actor authz.Context, orderID, bankAccountID string) (*RequestView, error)
	SendBulk(ctx context.Context, actor authz.Context, eventID string, orderIDs []string) (*BulkResult, error)
	MarkRequestPaid(ctx context.Context, actor authz.Context, requestID string) error
	ListRequests(ctx context.Context, actor authz.Context, orderID string) ([]RequestView, error)
	PaymentQR(ctx context.Context, actor authz.Context, orderID string) (*PaymentQRView, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	notifier    notifications.Notifier
	metrics     *metrics.APIMetrics
	logg        *logger.Logger
	randPercent func() float64
	now         func() time.Time
}

// NewService builds a payments service with the required dependencies.
func NewService(repo Repository, tx txRunner, notifier notifications.Notifier, apiMetrics *metrics.APIMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		notifier:    notifier,
		metrics:     apiMetrics,
		logg:        logg,
		randPercent: func() float64 { return rand.Float64() * 100 },
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) SendRequest(ctx context.Context, actor authz.Context, orderID, bankAccountID string) (*RequestView, error) {
	if !actor.Can(authz.PermissionManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if bankAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bank account id required")
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.FindBankAccount(ctx, bankAccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bank account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bank account")
	}
	if account.EventID != order.EventID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bank account belongs to a different event")
	}
	return s.send(ctx, actor, order, account)
}

func (s *service) SendBulk(ctx context.Context, actor authz.Context, eventID string, orderIDs []string) (*BulkResult, error) {
	if !actor.Can(authz.PermissionManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	if eventID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if _, err := s.repo.FindActiveEvent(ctx, eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}
	accounts, err := s.repo.ListBankAccounts(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bank accounts")
	}
	if len(accounts) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no bank accounts configured for event")
	}
	orders, err := s.repo.ListPendingOrdersWithoutRequest(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list eligible orders")
	}
	// An explicit order-id list narrows the run to that subset; ids that are
	// not eligible are simply skipped.
	if len(orderIDs) > 0 {
		wanted := make(map[string]bool, len(orderIDs))
		for _, id := range orderIDs {
			wanted[id] = true
		}
		filtered := orders[:0]
		for i := range orders {
			if wanted[orders[i].ID] {
				filtered = append(filtered, orders[i])
			}
		}
		orders = filtered
	}

	result := &BulkResult{}
	for i := range orders {
		order := &orders[i]
		account, err := SelectAccount(accounts, s.randPercent)
		if err != nil {
			result.Failures = append(result.Failures, BulkFailure{OrderID: order.ID, Error: err.Error()})
			continue
		}
		if _, err := s.send(ctx, actor, order, account); err != nil {
			result.Failures = append(result.Failures, BulkFailure{OrderID: order.ID, Error: err.Error()})
			continue
		}
		result.Sent = append(result.Sent, order.ID)
	}
	return result, nil
}

// send creates the request row, pins the chosen account on the order, and
// mails the transfer details. The mail is best-effort: the request stands
// even when delivery fails.
func (s *service) send(ctx context.Context, actor authz.Context, order *models.TicketOrder, account *models.BankAccount) (*RequestView, error) {
	if order.Status == enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}

	requestID, err := random.Token(random.PaymentRequestIDLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate payment request id")
	}
	request := &models.PaymentRequest{
		ID:            requestID,
		OrderID:       order.ID,
		BankAccountID: account.ID,
		Status:        enums.PaymentRequestStatusSent,
		SentBy:        actor.UserID,
		SentAt:        s.now(),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateRequest(ctx, request); err != nil {
			return err
		}
		return repo.UpdateOrder(ctx, order.ID, map[string]any{"bank_account_id": account.ID})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment request")
	}
	s.metrics.IncPaymentRequestSent(order.EventID)

	s.notifyRequest(ctx, order, account)

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID), "payment request sent")
	return &RequestView{
		ID:            request.ID,
		OrderID:       order.ID,
		Status:        request.Status,
		SentAt:        request.SentAt,
		BankAccountID: account.ID,
		BankHolder:    account.Holder,
		BankIBAN:      account.IBAN,
		BankBIC:       account.BIC,
	}, nil
}

func (s *service) notifyRequest(ctx context.Context, order *models.TicketOrder, account *models.BankAccount) {
	user, err := s.repo.FindUser(ctx, order.UserID)
	if err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID), "load order user for payment request mail", err)
		return
	}
	event, err := s.repo.FindActiveEvent(ctx, order.EventID)
	if err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID), "load event for payment request mail", err)
		return
	}
	png, err := QRPNG(EPCPayload(account.Holder, account.IBAN, account.BIC, order.TotalAmount, order.PaymentReference))
	if err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID), "render payment qr for mail", err)
		png = nil
	}
	err = s.notifier.PaymentRequest(ctx, notifications.PaymentRequestData{
		RecipientEmail:   user.Email,
		RecipientName:    user.FirstName + " " + user.LastName,
		EventName:        event.Name,
		OrderID:          order.ID,
		PaymentReference: order.PaymentReference,
		Quantity:         order.Quantity,
		TotalAmount:      order.TotalAmount,
		BankHolder:       account.Holder,
		BankIBAN:         account.IBAN,
		BankBIC:          account.BIC,
		QRCodePNG:        png,
	})
	if err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID), "send payment request mail", err)
	}
}

func (s *service) MarkRequestPaid(ctx context.Context, actor authz.Context, requestID string) error {
	if !actor.Can(authz.PermissionManageOrders) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	if requestID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment request id required")
	}
	request, err := s.repo.FindRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment request not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment request")
	}
	order, err := s.findOrder(ctx, request.OrderID)
	if err != nil {
		return err
	}

	paidAt := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateRequest(ctx, requestID, map[string]any{
			"status":  enums.PaymentRequestStatusPaid.String(),
			"paid_at": paidAt,
		}); err != nil {
			return err
		}
		return repo.UpdateOrder(ctx, request.OrderID, map[string]any{
			"status":  enums.OrderStatusPaid.String(),
			"paid_at": paidAt,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settle payment request")
	}
	s.metrics.IncOrderPaid(order.EventID)
	s.logg.Info(s.logg.WithOrderID(ctx, request.OrderID), "payment request settled")
	return nil
}

func (s *service) ListRequests(ctx context.Context, actor authz.Context, orderID string) ([]RequestView, error) {
	if !actor.Can(authz.PermissionManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	requests, err := s.repo.ListRequests(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payment requests")
	}
	views := make([]RequestView, 0, len(requests))
	for _, request := range requests {
		view := RequestView{
			ID:            request.ID,
			OrderID:       request.OrderID,
			Status:        request.Status,
			SentAt:        request.SentAt,
			PaidAt:        request.PaidAt,
			BankAccountID: request.BankAccountID,
		}
		if account, err := s.repo.FindBankAccount(ctx, request.BankAccountID); err == nil {
			view.BankHolder = account.Holder
			view.BankIBAN = account.IBAN
			view.BankBIC = account.BIC
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) PaymentQR(ctx context.Context, actor authz.Context, orderID string) (*PaymentQRView, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID && !actor.Can(authz.PermissionManageOrders) {
		// Same shape as an unknown order so ownership cannot be probed.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.BankAccountID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no bank account assigned to this order")
	}
	account, err := s.repo.FindBankAccount(ctx, *order.BankAccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load bank account")
	}
	png, err := QRPNG(EPCPayload(account.Holder, account.IBAN, account.BIC, order.TotalAmount, order.PaymentReference))
	if err != nil {
		return nil, err
	}
	return &PaymentQRView{
		PNG:        png,
		BankHolder: account.Holder,
		BankIBAN:   account.IBAN,
		BankBIC:    account.BIC,
		Amount:     order.TotalAmount,
		Reference:  order.PaymentReference,
	}, nil
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
