package tickets

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/authz"
	"github.com/abiball/abiball-backend/pkg/config"
	"github.com/abiball/abiball-backend/pkg/db/models"
	"github.com/abiball/abiball-backend/pkg/enums"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
	"github.com/abiball/abiball-backend/pkg/logger"
)

type participantKey struct {
	orderID      string
	ticketNumber int
}

type stubTicketsRepo struct {
	events       map[string]*models.Event
	orders       map[string]*models.TicketOrder
	participants map[participantKey]*models.Participant
	auditLogs    []*models.BirthdateAuditLog
	orderUpdates map[string]map[string]any
}

func newStubTicketsRepo() *stubTicketsRepo {
	return &stubTicketsRepo{
		events:       map[string]*models.Event{},
		orders:       map[string]*models.TicketOrder{},
		participants: map[participantKey]*models.Participant{},
		orderUpdates: map[string]map[string]any{},
	}
}

func (s *stubTicketsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubTicketsRepo) FindActiveEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, ok := s.events[eventID]
	if !ok || !event.Active {
		return nil, gorm.ErrRecordNotFound
	}
	return event, nil
}

func (s *stubTicketsRepo) FindOrder(ctx context.Context, orderID string) (*models.TicketOrder, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubTicketsRepo) ListPaidOrdersWithoutTickets(ctx context.Context, eventID string) ([]models.TicketOrder, error) {
	var out []models.TicketOrder
	for _, order := range s.orders {
		if order.EventID == eventID && order.Status == enums.OrderStatusPaid && !order.TicketsGenerated {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubTicketsRepo) UpdateOrder(ctx context.Context, orderID string, updates map[string]any) error {
	s.orderUpdates[orderID] = updates
	if generated, ok := updates["tickets_generated"].(bool); ok {
		s.orders[orderID].TicketsGenerated = generated
	}
	return nil
}

func (s *stubTicketsRepo) FindParticipant(ctx context.Context, orderID string, ticketNumber int) (*models.Participant, error) {
	participant, ok := s.participants[participantKey{orderID, ticketNumber}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return participant, nil
}

func (s *stubTicketsRepo) RedeemParticipant(ctx context.Context, orderID string, ticketNumber int, at time.Time, by uuid.UUID) (bool, error) {
	participant, ok := s.participants[participantKey{orderID, ticketNumber}]
	if !ok || participant.Redeemed {
		return false, nil
	}
	participant.Redeemed = true
	participant.RedeemedAt = &at
	participant.RedeemedBy = &by
	return true, nil
}

func (s *stubTicketsRepo) ClearRedemption(ctx context.Context, orderID string, ticketNumber int) error {
	participant, ok := s.participants[participantKey{orderID, ticketNumber}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	participant.Redeemed = false
	participant.RedeemedAt = nil
	participant.RedeemedBy = nil
	return nil
}

func (s *stubTicketsRepo) LastRedemptionBy(ctx context.Context, operator uuid.UUID) (*models.Participant, error) {
	var latest *models.Participant
	for _, participant := range s.participants {
		if !participant.Redeemed || participant.RedeemedBy == nil || *participant.RedeemedBy != operator {
			continue
		}
		if latest == nil || participant.RedeemedAt.After(*latest.RedeemedAt) {
			latest = participant
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (s *stubTicketsRepo) UpdateParticipantBirthdate(ctx context.Context, orderID string, ticketNumber int, birthdate string) error {
	participant, ok := s.participants[participantKey{orderID, ticketNumber}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	participant.Birthdate = birthdate
	return nil
}

func (s *stubTicketsRepo) CreateAuditLog(ctx context.Context, entry *models.BirthdateAuditLog) error {
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *stubTicketsRepo) CountPaidParticipants(ctx context.Context, eventID *string) (int, error) {
	count := 0
	for key := range s.participants {
		order := s.orders[key.orderID]
		if order == nil || order.Status != enums.OrderStatusPaid {
			continue
		}
		if eventID != nil && order.EventID != *eventID {
			continue
		}
		count++
	}
	return count, nil
}

func (s *stubTicketsRepo) CountRedeemed(ctx context.Context, eventID *string) (int, error) {
	count := 0
	for key, participant := range s.participants {
		order := s.orders[key.orderID]
		if order == nil || order.Status != enums.OrderStatusPaid || !participant.Redeemed {
			continue
		}
		if eventID != nil && order.EventID != *eventID {
			continue
		}
		count++
	}
	return count, nil
}

func (s *stubTicketsRepo) ListRedeemedSince(ctx context.Context, eventID *string, since time.Time) ([]time.Time, error) {
	var times []time.Time
	for key, participant := range s.participants {
		order := s.orders[key.orderID]
		if order == nil || order.Status != enums.OrderStatusPaid {
			continue
		}
		if eventID != nil && order.EventID != *eventID {
			continue
		}
		if participant.Redeemed && participant.RedeemedAt != nil && !participant.RedeemedAt.Before(since) {
			times = append(times, *participant.RedeemedAt)
		}
	}
	return times, nil
}

func (s *stubTicketsRepo) ListPresent(ctx context.Context, eventID *string) ([]PresentRow, error) {
	var rows []PresentRow
	for key, participant := range s.participants {
		order := s.orders[key.orderID]
		if order == nil || order.Status != enums.OrderStatusPaid || !participant.Redeemed {
			continue
		}
		rows = append(rows, PresentRow{
			OrderID: key.orderID, TicketNumber: key.ticketNumber,
			FirstName: participant.FirstName, LastName: participant.LastName,
			PaymentReference: order.PaymentReference,
			RedeemedAt:       participant.RedeemedAt, RedeemedBy: participant.RedeemedBy,
		})
	}
	return rows, nil
}

func (s *stubTicketsRepo) ListMissing(ctx context.Context, eventID *string) ([]MissingRow, error) {
	var rows []MissingRow
	for key, participant := range s.participants {
		order := s.orders[key.orderID]
		if order == nil || order.Status != enums.OrderStatusPaid || participant.Redeemed {
			continue
		}
		rows = append(rows, MissingRow{
			OrderID: key.orderID, TicketNumber: key.ticketNumber,
			FirstName: participant.FirstName, LastName: participant.LastName,
			PaymentReference: order.PaymentReference,
		})
	}
	return rows, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type ticketsFixture struct {
	repo  *stubTicketsRepo
	svc   Service
	buyer uuid.UUID
	door  authz.Context
}

func newTicketsFixture(t *testing.T) *ticketsFixture {
	return newTicketsFixtureWithConfig(t, config.TicketsConfig{AllowUserDownload: true})
}

func newTicketsFixtureWithConfig(t *testing.T, tickets config.TicketsConfig) *ticketsFixture {
	t.Helper()
	repo := newStubTicketsRepo()
	buyer := uuid.New()
	perUser := 10
	repo.events["EVENTTIX00000001"] = &models.Event{
		ID: "EVENTTIX00000001", Name: "Abiball 2026", Year: 2026,
		EventDate:  time.Date(2026, 6, 20, 19, 0, 0, 0, time.UTC),
		MaxTickets: 100, TicketPrice: decimal.NewFromInt(50), TicketsPerUser: &perUser,
		SalesEnabled: true, Active: true,
	}
	repo.orders["ORDTIX01"] = &models.TicketOrder{
		ID: "ORDTIX01", EventID: "EVENTTIX00000001", UserID: buyer,
		Status: enums.OrderStatusPaid, Quantity: 2, TicketsGenerated: true,
		PaymentReference: "MAX001",
	}
	repo.participants[participantKey{"ORDTIX01", 1}] = &models.Participant{
		OrderID: "ORDTIX01", TicketNumber: 1,
		FirstName: "Anna", LastName: "Muster", Birthdate: "2009-03-01",
	}
	repo.participants[participantKey{"ORDTIX01", 2}] = &models.Participant{
		OrderID: "ORDTIX01", TicketNumber: 2,
		FirstName: "Ben", LastName: "Muster", Birthdate: "2000-01-15",
	}

	logg := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(repo, stubTxRunner{}, tickets, nil, logg)
	require.NoError(t, err)
	return &ticketsFixture{
		repo: repo, svc: svc, buyer: buyer,
		door: authz.Context{UserID: uuid.New(), Username: "door", Permissions: []authz.Permission{authz.PermissionManageOrders, authz.PermissionEditUsers}},
	}
}

func scanPayload(orderID string, ticketNumber int, name string) string {
	securityID := "0011223344556677"
	payload, _ := json.Marshal(map[string]any{
		"order_id":          orderID,
		"ticket_number":     ticketNumber,
		"participant_name":  name,
		"event":             "Abiball 2026",
		"security_id":       securityID,
		"verification_hash": VerificationHash(orderID, ticketNumber, securityID),
	})
	return string(payload)
}

func TestScanMalformedPayloadIsInvalid(t *testing.T) {
	f := newTicketsFixture(t)

	result, err := f.svc.Scan(context.Background(), f.door, "not json", false)
	require.NoError(t, err)
	assert.Equal(t, enums.ScanStatusInvalid, result.Status)
	assert.Contains(t, result.Reason, "not readable")
}

func TestScanMissingFieldsIsInvalid(t *testing.T) {
	f := newTicketsFixture(t)

	result, err := f.svc.Scan(context.Background(), f.door, `{"order_id":"ORDTIX01"}`, false)
	require.NoError(t, err)
	assert.Equal(t, enums.ScanStatusInvalid, result.Status)
	assert.Contains(t, result.Reason, "missing")
}

func TestScanHashMismatchIsInvalid(t *testing.T) {
	f := newTicketsFixture(t)

	payload := `{"order_id":"ORDTIX01","ticket_number":1,"security_id":"0011223344556677","verification_hash":"deadbeef"}`
	result, err := f.svc.Scan(context.Background(), f.door, payload, false)
	require.NoError(t, err)
	assert.Equal(t, enums.ScanStatusInvalid, result.Status)
	assert.Contains(t, result.Reason, "hash")
}

func TestScanUnknownTicketIsInvalid(t *testing.T) {
	f := newTicketsFixture(t)

	result, err := f.svc.Scan(context.Background(), f.door, scanPayload("NOSUCH01", 1, "Anna Muster"), false)
	require.NoError(t, err)
	assert.Equal(t, enums.ScanStatusInvalid, result.Status)
	assert.Contains(t, result.Reason, "not found")
}

func TestScanUnpaidOrderIsInvalid(t *testing.T) {
	f := newTicketsFixture(t)
	f.repo.orders["ORDTIX01"].Status = enums.OrderStatusPending

	result, err := f.svc.Scan(context.Background(), f.door, scanPayload("ORDTIX01", 1, "Anna Muster"), false)
	require.NoError(t, err)
	assert.Equal(t, enums.ScanStatusInvalid, result.Status)
	assert.Contains(t, result.Reason, "not paid")
}

func TestScanValidTicketReportsAgeStatus(t *testing.T) {
	f := newTicketsFixture(t)

	result, err := f.svc.Scan(context.Background(), f.door, scanPayload("ORDTIX01", 1, "Anna Muster"), false)
	require.NoError(t, err)
	assert.Equal(t, enums.ScanStatusValid, result.Status)
	assert.Equal(t, "Anna Muster", result.ParticipantName)
	assert.Equal(t, AgeStatusMinor, result.AgeStatus, "born 2009, event in June 2026")
	assert.False(t, f.repo.participants[participantKey{"ORDTIX01", 1}].Redeemed, "a plain scan must not consume the ticket")

	result, err = f.svc.Scan(context.Background(), f.door, scanPayload("ORDTIX01", 2, "Ben Muster"), false)
	require.NoError(t, err)
	assert.Equal(t, AgeStatusAdult, result.AgeStatus)
}

func TestScanTamperedNameStillPassesHash(t *testing.T) {
	f := newTicketsFixture(t)

	// The participant name is display data outside the hash: changing it
	// must not invalidate the code, and the door sees the stored name.
	result, err := f.svc.Scan(context.Background(), f.door, scanPayload("ORDTIX01", 1, "Somebody Else"), false)
	require.NoError(t, err)
	assert.Equal(t, enums.ScanStatusValid, result.Status)
	assert.Equal(t, "Anna Muster", result.ParticipantName)
}

func TestScanAutoRedeemConsumesTicket(t *testing.T) {
	f := newTicketsFixture(t)

	result, err := f.svc.Scan(context.Background(), f.door, scanPayload("ORDTIX01", 1, "Anna Muster"), true)
	require.NoError(t, err)
	assert.Equal(t, enums.ScanStatusRedeemed, result.Status)
	assert.True(t, f.repo.participants[participantKey{"ORDTIX01", 1}].Redeemed)

	// The second scan carries the prior redemption details.
	result, err = f.svc.Scan(context.Background(), f.door, scanPayload("ORDTIX01", 1, "Anna Muster"), true)
	require.NoError(t, err)
	assert.Equal(t, enums.ScanStatusAlreadyRedeemed, result.Status)
	require.NotNil(t, result.RedeemedBy)
	assert.Equal(t, f.door.UserID, *result.RedeemedBy)
}

func TestRedeemRejectsAlreadyRedeemed(t *testing.T) {
	f := newTicketsFixture(t)

	_, err := f.svc.Redeem(context.Background(), f.door, "ORDTIX01", 1)
	require.NoError(t, err)

	_, err = f.svc.Redeem(context.Background(), f.door, "ORDTIX01", 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestUndoLastRedemptionRoundTrip(t *testing.T) {
	f := newTicketsFixture(t)

	_, err := f.svc.Redeem(context.Background(), f.door, "ORDTIX01", 1)
	require.NoError(t, err)

	undone, err := f.svc.UndoLastRedemption(context.Background(), f.door)
	require.NoError(t, err)
	assert.Equal(t, 1, undone.TicketNumber)
	assert.False(t, f.repo.participants[participantKey{"ORDTIX01", 1}].Redeemed)

	// After the undo the ticket redeems normally again.
	result, err := f.svc.Redeem(context.Background(), f.door, "ORDTIX01", 1)
	require.NoError(t, err)
	assert.Equal(t, enums.ScanStatusRedeemed, result.Status)

	_, err = f.svc.UndoLastRedemption(context.Background(), authz.Context{
		UserID: uuid.New(), Permissions: []authz.Permission{authz.PermissionManageOrders},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code(), "operators can only undo their own scans")
}

func TestGenerateGuards(t *testing.T) {
	f := newTicketsFixture(t)
	f.repo.orders["ORDGEN01"] = &models.TicketOrder{
		ID: "ORDGEN01", EventID: "EVENTTIX00000001", UserID: f.buyer,
		Status: enums.OrderStatusPending, PaymentReference: "MAX002",
	}

	err := f.svc.Generate(context.Background(), f.door, "ORDGEN01")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	f.repo.orders["ORDGEN01"].Status = enums.OrderStatusPaid
	require.NoError(t, f.svc.Generate(context.Background(), f.door, "ORDGEN01"))
	assert.True(t, f.repo.orders["ORDGEN01"].TicketsGenerated)

	err = f.svc.Generate(context.Background(), f.door, "ORDGEN01")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code(), "a second generation is an explicit rejection")
}

func TestBulkGenerateSkipsIneligibleOrders(t *testing.T) {
	f := newTicketsFixture(t)
	// ORDTIX01 is already generated, so only the fresh paid order remains.
	f.repo.orders["ORDGEN02"] = &models.TicketOrder{
		ID: "ORDGEN02", EventID: "EVENTTIX00000001", UserID: f.buyer,
		Status: enums.OrderStatusPaid, PaymentReference: "MAX003",
	}

	result, err := f.svc.BulkGenerate(context.Background(), f.door, "EVENTTIX00000001")
	require.NoError(t, err)
	assert.Equal(t, []string{"ORDGEN02"}, result.Generated)
	assert.Empty(t, result.Failures)
}

func TestDocumentFreshSecurityIDPerRender(t *testing.T) {
	f := newTicketsFixture(t)

	first, err := f.svc.Document(context.Background(), f.door, "ORDTIX01", 1)
	require.NoError(t, err)
	second, err := f.svc.Document(context.Background(), f.door, "ORDTIX01", 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.SecurityID, second.SecurityID, "every render draws a fresh security id")
	assert.Equal(t, VerificationHash("ORDTIX01", 1, first.SecurityID), first.VerificationHash)
	assert.NotEmpty(t, first.QRPNG)

	var payload qrPayload
	require.NoError(t, json.Unmarshal([]byte(first.QRPayload), &payload))
	assert.Equal(t, "Anna Muster", payload.ParticipantName)
	assert.Equal(t, "Abiball 2026", payload.Event)
}

func TestDocumentRequiresPaidAndGenerated(t *testing.T) {
	f := newTicketsFixture(t)
	f.repo.orders["ORDTIX01"].TicketsGenerated = false

	_, err := f.svc.Document(context.Background(), f.door, "ORDTIX01", 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	f.repo.orders["ORDTIX01"].Status = enums.OrderStatusPending
	_, err = f.svc.Document(context.Background(), f.door, "ORDTIX01", 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestDocumentOwnerDownloadCanBeDisabled(t *testing.T) {
	f := newTicketsFixtureWithConfig(t, config.TicketsConfig{AllowUserDownload: false})
	owner := authz.Context{UserID: f.buyer, Permissions: []authz.Permission{authz.PermissionBuyTickets}}

	_, err := f.svc.Document(context.Background(), owner, "ORDTIX01", 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestCorrectBirthdateWritesOneAuditRow(t *testing.T) {
	f := newTicketsFixture(t)

	err := f.svc.CorrectBirthdate(context.Background(), f.door, "ORDTIX01", 1, "2006-04-04", "typo at purchase")
	require.NoError(t, err)

	assert.Equal(t, "2006-04-04", f.repo.participants[participantKey{"ORDTIX01", 1}].Birthdate)
	require.Len(t, f.repo.auditLogs, 1)
	entry := f.repo.auditLogs[0]
	assert.Equal(t, "2009-03-01", entry.OldBirthdate)
	assert.Equal(t, "2006-04-04", entry.NewBirthdate)
	assert.Equal(t, f.door.UserID, entry.ChangedBy)
	assert.Len(t, entry.ID, 16)
}

func TestCorrectBirthdateValidation(t *testing.T) {
	f := newTicketsFixture(t)

	err := f.svc.CorrectBirthdate(context.Background(), f.door, "ORDTIX01", 1, "2006-04-04", "  ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = f.svc.CorrectBirthdate(context.Background(), f.door, "ORDTIX01", 1, "2040-01-01", "typo")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	assert.Empty(t, f.repo.auditLogs, "rejected corrections leave no audit trace")
}

func TestLiveStatsBucketsArrivals(t *testing.T) {
	f := newTicketsFixture(t)

	now := time.Now().UTC()
	recent := now.Add(-30 * time.Second)
	earlier := now.Add(-2 * time.Hour)
	f.repo.participants[participantKey{"ORDTIX01", 1}].Redeemed = true
	f.repo.participants[participantKey{"ORDTIX01", 1}].RedeemedAt = &recent
	f.repo.participants[participantKey{"ORDTIX01", 2}].Redeemed = true
	f.repo.participants[participantKey{"ORDTIX01", 2}].RedeemedAt = &earlier

	stats, err := f.svc.LiveStats(context.Background(), f.door, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.CheckedIn)
	assert.Equal(t, 0, stats.NotCheckedIn)
	assert.Equal(t, 1, stats.ScansLastMin)
	assert.Equal(t, 1, stats.HourlyArrivals[hourBucket(earlier)])

	total := 0
	for _, count := range stats.HourlyArrivals {
		total += count
	}
	assert.Equal(t, 2, total)
}

func TestLiveListSplitsPresentAndMissing(t *testing.T) {
	f := newTicketsFixture(t)
	now := time.Now().UTC()
	f.repo.participants[participantKey{"ORDTIX01", 1}].Redeemed = true
	f.repo.participants[participantKey{"ORDTIX01", 1}].RedeemedAt = &now

	list, err := f.svc.LiveList(context.Background(), f.door, nil)
	require.NoError(t, err)
	require.Len(t, list.Present, 1)
	assert.Equal(t, "Anna Muster", list.Present[0].Name)
	assert.Equal(t, "MAX001", list.Present[0].PaymentReference)
	require.Len(t, list.Missing, 1)
	assert.Equal(t, "Ben Muster", list.Missing[0].Name)
}

func TestScanRequiresDoorPermission(t *testing.T) {
	f := newTicketsFixture(t)
	buyer := authz.Context{UserID: f.buyer, Permissions: []authz.Permission{authz.PermissionBuyTickets}}

	_, err := f.svc.Scan(context.Background(), buyer, scanPayload("ORDTIX01", 1, "Anna Muster"), false)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestVerificationHashVector(t *testing.T) {
	hash := VerificationHash("ORDTIX01", 1, "0011223344556677")
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, VerificationHash("ORDTIX01", 1, "0011223344556677"))
	assert.NotEqual(t, hash, VerificationHash("ORDTIX01", 2, "0011223344556677"),
		"the ticket number is part of the hash input")
}
