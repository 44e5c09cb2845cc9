package payments

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/internal/notifications"
	"github.com/abiball/abiball-backend/pkg/authz"
	"github.com/abiball/abiball-backend/pkg/db/models"
	"github.com/abiball/abiball-backend/pkg/enums"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
	"github.com/abiball/abiball-backend/pkg/logger"
)

type stubPaymentsRepo struct {
	orders         map[string]*models.TicketOrder
	events         map[string]*models.Event
	users          map[uuid.UUID]*models.User
	accounts       map[string]*models.BankAccount
	requests       map[string]*models.PaymentRequest
	createErrFor   string
	orderUpdates   map[string]map[string]any
	requestUpdates map[string]map[string]any
}

func newStubPaymentsRepo() *stubPaymentsRepo {
	return &stubPaymentsRepo{
		orders:         map[string]*models.TicketOrder{},
		events:         map[string]*models.Event{},
		users:          map[uuid.UUID]*models.User{},
		accounts:       map[string]*models.BankAccount{},
		requests:       map[string]*models.PaymentRequest{},
		orderUpdates:   map[string]map[string]any{},
		requestUpdates: map[string]map[string]any{},
	}
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentsRepo) FindOrder(ctx context.Context, orderID string) (*models.TicketOrder, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubPaymentsRepo) FindActiveEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, ok := s.events[eventID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return event, nil
}

func (s *stubPaymentsRepo) FindUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubPaymentsRepo) FindBankAccount(ctx context.Context, accountID string) (*models.BankAccount, error) {
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return account, nil
}

func (s *stubPaymentsRepo) ListBankAccounts(ctx context.Context, eventID string) ([]models.BankAccount, error) {
	var out []models.BankAccount
	for _, account := range s.accounts {
		if account.EventID == eventID {
			out = append(out, *account)
		}
	}
	return out, nil
}

func (s *stubPaymentsRepo) CreateRequest(ctx context.Context, request *models.PaymentRequest) error {
	if s.createErrFor == request.OrderID {
		return gorm.ErrInvalidData
	}
	s.requests[request.ID] = request
	return nil
}

func (s *stubPaymentsRepo) FindRequest(ctx context.Context, requestID string) (*models.PaymentRequest, error) {
	request, ok := s.requests[requestID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return request, nil
}

func (s *stubPaymentsRepo) ListRequests(ctx context.Context, orderID string) ([]models.PaymentRequest, error) {
	var out []models.PaymentRequest
	for _, request := range s.requests {
		if request.OrderID == orderID {
			out = append(out, *request)
		}
	}
	return out, nil
}

func (s *stubPaymentsRepo) ListPendingOrdersWithoutRequest(ctx context.Context, eventID string) ([]models.TicketOrder, error) {
	var out []models.TicketOrder
	for _, order := range s.orders {
		if order.EventID != eventID || order.Status != enums.OrderStatusPending {
			continue
		}
		hasRequest := false
		for _, request := range s.requests {
			if request.OrderID == order.ID {
				hasRequest = true
				break
			}
		}
		if !hasRequest {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubPaymentsRepo) UpdateRequest(ctx context.Context, requestID string, updates map[string]any) error {
	s.requestUpdates[requestID] = updates
	if status, ok := updates["status"].(string); ok {
		s.requests[requestID].Status = enums.PaymentRequestStatus(status)
	}
	return nil
}

func (s *stubPaymentsRepo) UpdateOrder(ctx context.Context, orderID string, updates map[string]any) error {
	s.orderUpdates[orderID] = updates
	if status, ok := updates["status"].(string); ok {
		s.orders[orderID].Status = enums.OrderStatus(status)
	}
	if accountID, ok := updates["bank_account_id"].(string); ok {
		s.orders[orderID].BankAccountID = &accountID
	}
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubNotifier struct {
	requests []notifications.PaymentRequestData
	err      error
}

func (s *stubNotifier) OrderReceived(ctx context.Context, data notifications.OrderReceivedData) error {
	return nil
}

func (s *stubNotifier) PaymentRequest(ctx context.Context, data notifications.PaymentRequestData) error {
	if s.err != nil {
		return s.err
	}
	s.requests = append(s.requests, data)
	return nil
}

func adminActor() authz.Context {
	return authz.Context{UserID: uuid.New(), Username: "orga", Permissions: []authz.Permission{authz.PermissionAdmin}}
}

func newPaymentsService(t *testing.T, repo Repository, notifier notifications.Notifier) Service {
	t.Helper()
	logg := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(repo, stubTxRunner{}, notifier, nil, logg)
	require.NoError(t, err)
	return svc
}

func seedRepo(repo *stubPaymentsRepo) (buyer uuid.UUID) {
	buyer = uuid.New()
	repo.events["EVENTPAY00000001"] = &models.Event{ID: "EVENTPAY00000001", Name: "Abiball 2026", Active: true}
	repo.users[buyer] = &models.User{ID: buyer, Email: "max@example.com", FirstName: "Max", LastName: "Mustermann"}
	repo.accounts["ACCMAIN00001"] = &models.BankAccount{
		ID: "ACCMAIN00001", EventID: "EVENTPAY00000001", Holder: "Abikasse",
		IBAN: "DE02500105170137075030", BIC: "INGDDEFF", Percentage: decimal.NewFromInt(100),
	}
	repo.orders["ORDPEND1"] = &models.TicketOrder{
		ID: "ORDPEND1", EventID: "EVENTPAY00000001", UserID: buyer,
		Status: enums.OrderStatusPending, Quantity: 2,
		UnitPrice: decimal.NewFromInt(50), TotalAmount: decimal.NewFromInt(100),
		PaymentReference: "MAX001",
	}
	return buyer
}

func TestSendRequestCreatesAndMails(t *testing.T) {
	repo := newStubPaymentsRepo()
	seedRepo(repo)
	notifier := &stubNotifier{}
	svc := newPaymentsService(t, repo, notifier)

	view, err := svc.SendRequest(context.Background(), adminActor(), "ORDPEND1", "ACCMAIN00001")
	require.NoError(t, err)
	assert.Len(t, view.ID, 12)
	assert.Equal(t, enums.PaymentRequestStatusSent, view.Status)

	require.NotNil(t, repo.orders["ORDPEND1"].BankAccountID)
	assert.Equal(t, "ACCMAIN00001", *repo.orders["ORDPEND1"].BankAccountID)

	require.Len(t, notifier.requests, 1)
	mail := notifier.requests[0]
	assert.Equal(t, "max@example.com", mail.RecipientEmail)
	assert.Equal(t, "MAX001", mail.PaymentReference)
	assert.NotEmpty(t, mail.QRCodePNG)
}

func TestSendRequestRejectsPaidOrder(t *testing.T) {
	repo := newStubPaymentsRepo()
	seedRepo(repo)
	repo.orders["ORDPEND1"].Status = enums.OrderStatusPaid
	svc := newPaymentsService(t, repo, &stubNotifier{})

	_, err := svc.SendRequest(context.Background(), adminActor(), "ORDPEND1", "ACCMAIN00001")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestSendRequestRejectsForeignAccount(t *testing.T) {
	repo := newStubPaymentsRepo()
	seedRepo(repo)
	repo.accounts["ACCOTHER0001"] = &models.BankAccount{ID: "ACCOTHER0001", EventID: "EVENTOTHER000001"}
	svc := newPaymentsService(t, repo, &stubNotifier{})

	_, err := svc.SendRequest(context.Background(), adminActor(), "ORDPEND1", "ACCOTHER0001")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestSendRequestSurvivesMailFailure(t *testing.T) {
	repo := newStubPaymentsRepo()
	seedRepo(repo)
	notifier := &stubNotifier{err: pkgerrors.New(pkgerrors.CodeDependency, "relay down")}
	svc := newPaymentsService(t, repo, notifier)

	view, err := svc.SendRequest(context.Background(), adminActor(), "ORDPEND1", "ACCMAIN00001")
	require.NoError(t, err, "mail failure must not roll back the request")
	assert.Contains(t, repo.requests, view.ID)
}

func TestMarkRequestPaidFlipsRequestAndOrder(t *testing.T) {
	repo := newStubPaymentsRepo()
	seedRepo(repo)
	repo.requests["REQ000000001"] = &models.PaymentRequest{
		ID: "REQ000000001", OrderID: "ORDPEND1", BankAccountID: "ACCMAIN00001",
		Status: enums.PaymentRequestStatusSent, SentAt: time.Now(),
	}
	svc := newPaymentsService(t, repo, &stubNotifier{})

	require.NoError(t, svc.MarkRequestPaid(context.Background(), adminActor(), "REQ000000001"))
	assert.Equal(t, enums.PaymentRequestStatusPaid, repo.requests["REQ000000001"].Status)
	assert.Equal(t, enums.OrderStatusPaid, repo.orders["ORDPEND1"].Status)
	assert.Contains(t, repo.orderUpdates["ORDPEND1"], "paid_at")
}

func TestSendBulkCollectsFailuresAndContinues(t *testing.T) {
	repo := newStubPaymentsRepo()
	buyer := seedRepo(repo)
	repo.orders["ORDPEND2"] = &models.TicketOrder{
		ID: "ORDPEND2", EventID: "EVENTPAY00000001", UserID: buyer,
		Status: enums.OrderStatusPending, Quantity: 1,
		UnitPrice: decimal.NewFromInt(50), TotalAmount: decimal.NewFromInt(50),
		PaymentReference: "MAX002",
	}
	// An already-paid order is not eligible at all.
	repo.orders["ORDPAID1"] = &models.TicketOrder{
		ID: "ORDPAID1", EventID: "EVENTPAY00000001", UserID: buyer,
		Status: enums.OrderStatusPaid, PaymentReference: "MAX003",
	}
	repo.createErrFor = "ORDPEND2"
	svc := newPaymentsService(t, repo, &stubNotifier{})

	result, err := svc.SendBulk(context.Background(), adminActor(), "EVENTPAY00000001", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDPEND1"}, result.Sent)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "ORDPEND2", result.Failures[0].OrderID)

	// A re-run only retries the failed order; the sent one has a request.
	repo.createErrFor = ""
	result, err = svc.SendBulk(context.Background(), adminActor(), "EVENTPAY00000001", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDPEND2"}, result.Sent)
	assert.Empty(t, result.Failures)
}

func TestSendBulkHonorsOrderSubset(t *testing.T) {
	repo := newStubPaymentsRepo()
	buyer := seedRepo(repo)
	repo.orders["ORDPEND2"] = &models.TicketOrder{
		ID: "ORDPEND2", EventID: "EVENTPAY00000001", UserID: buyer,
		Status: enums.OrderStatusPending, Quantity: 1,
		UnitPrice: decimal.NewFromInt(50), TotalAmount: decimal.NewFromInt(50),
		PaymentReference: "MAX002",
	}
	svc := newPaymentsService(t, repo, &stubNotifier{})

	result, err := svc.SendBulk(context.Background(), adminActor(), "EVENTPAY00000001", []string{"ORDPEND2", "ORDUNKNOWN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDPEND2"}, result.Sent)
	assert.Empty(t, result.Failures)

	// The order outside the subset keeps its pending state, no request.
	for _, request := range repo.requests {
		assert.NotEqual(t, "ORDPEND1", request.OrderID)
	}
}

func TestPaymentOpsRequireManagePermission(t *testing.T) {
	repo := newStubPaymentsRepo()
	buyer := seedRepo(repo)
	repo.requests["REQ000000001"] = &models.PaymentRequest{
		ID: "REQ000000001", OrderID: "ORDPEND1", BankAccountID: "ACCMAIN00001",
		Status: enums.PaymentRequestStatusSent, SentAt: time.Now(),
	}
	svc := newPaymentsService(t, repo, &stubNotifier{})

	// The order owner holds buy_tickets only; settling or issuing requests
	// stays an organizer operation even on their own order.
	actor := authz.Context{UserID: buyer, Username: "max", Permissions: []authz.Permission{authz.PermissionBuyTickets}}

	_, err := svc.SendRequest(context.Background(), actor, "ORDPEND1", "ACCMAIN00001")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = svc.SendBulk(context.Background(), actor, "EVENTPAY00000001", nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	err = svc.MarkRequestPaid(context.Background(), actor, "REQ000000001")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	assert.Equal(t, enums.OrderStatusPending, repo.orders["ORDPEND1"].Status)

	_, err = svc.ListRequests(context.Background(), actor, "ORDPEND1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestPaymentQRRequiresAssignedAccount(t *testing.T) {
	repo := newStubPaymentsRepo()
	buyer := seedRepo(repo)
	svc := newPaymentsService(t, repo, &stubNotifier{})

	actor := authz.Context{UserID: buyer, Username: "max", Permissions: []authz.Permission{authz.PermissionBuyTickets}}
	_, err := svc.PaymentQR(context.Background(), actor, "ORDPEND1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	accountID := "ACCMAIN00001"
	repo.orders["ORDPEND1"].BankAccountID = &accountID
	view, err := svc.PaymentQR(context.Background(), actor, "ORDPEND1")
	require.NoError(t, err)
	assert.Equal(t, "MAX001", view.Reference)
	assert.NotEmpty(t, view.PNG)
}

func TestPaymentQRHidesForeignOrders(t *testing.T) {
	repo := newStubPaymentsRepo()
	seedRepo(repo)
	svc := newPaymentsService(t, repo, &stubNotifier{})

	stranger := authz.Context{UserID: uuid.New(), Permissions: []authz.Permission{authz.PermissionBuyTickets}}
	_, err := svc.PaymentQR(context.Background(), stranger, "ORDPEND1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
