package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/internal/orders"
	"github.com/abiball/abiball-backend/internal/payments"
	"github.com/abiball/abiball-backend/pkg/authz"
	"github.com/abiball/abiball-backend/pkg/config"
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

// Service covers ticket issuance, the door check-in flow, and the live
// dashboard behind it.
type Service interface {
	Generate(ctx context.Context, actor authz.Context, orderID string) error
	BulkGenerate(ctx context.Context, actor authz.Context, eventID string) (*BulkResult, error)
	Document(ctx context.Context, actor authz.Context, orderID string, ticketNumber int) (*TicketDocument, error)
	Scan(ctx context.Context, actor authz.Context, rawPayload string, autoRedeem bool) (*ScanResult, error)
	Redeem(ctx context.Context, actor authz.Context, orderID string, ticketNumber int) (*ScanResult, error)
	UndoLastRedemption(ctx context.Context, actor authz.Context) (*ScanResult, error)
	CorrectBirthdate(ctx context.Context, actor authz.Context, orderID string, ticketNumber int, newBirthdate, reason string) error
	LiveStats(ctx context.Context, actor authz.Context, eventID *string) (*LiveStats, error)
	LiveList(ctx context.Context, actor authz.Context, eventID *string) (*LiveList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	tickets config.TicketsConfig
	metrics *metrics.APIMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a tickets service with the required dependencies.
func NewService(repo Repository, tx txRunner, tickets config.TicketsConfig, apiMetrics *metrics.APIMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tickets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		tickets: tickets,
		metrics: apiMetrics,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Generate(ctx context.Context, actor authz.Context, orderID string) error {
	if !actor.Can(authz.PermissionManageOrders) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return s.generate(ctx, actor, order)
}

func (s *service) generate(ctx context.Context, actor authz.Context, order *models.TicketOrder) error {
	if order.Status != enums.OrderStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid")
	}
	if order.TicketsGenerated {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "tickets already generated for this order")
	}
	err := s.repo.UpdateOrder(ctx, order.ID, map[string]any{
		"tickets_generated":    true,
		"tickets_generated_at": s.now(),
		"tickets_generated_by": actor.UserID,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark tickets generated")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID), "tickets generated")
	return nil
}

func (s *service) BulkGenerate(ctx context.Context, actor authz.Context, eventID string) (*BulkResult, error) {
	if !actor.Can(authz.PermissionManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	if _, err := s.findActiveEvent(ctx, eventID); err != nil {
		return nil, err
	}
	orderRows, err := s.repo.ListPaidOrdersWithoutTickets(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list eligible orders")
	}

	result := &BulkResult{}
	for i := range orderRows {
		order := &orderRows[i]
		if err := s.generate(ctx, actor, order); err != nil {
			result.Failures = append(result.Failures, BulkFailure{OrderID: order.ID, Error: err.Error()})
			continue
		}
		result.Generated = append(result.Generated, order.ID)
	}
	return result, nil
}

// Document renders the scannable payload for one participant. Every call
// draws a fresh security id, so re-rendering invalidates nothing: the hash
// is recomputed from the scanned fields at the door, not looked up.
func (s *service) Document(ctx context.Context, actor authz.Context, orderID string, ticketNumber int) (*TicketDocument, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	isManager := actor.Can(authz.PermissionManageOrders)
	if order.UserID != actor.UserID && !isManager {
		// Same shape as an unknown order so ownership cannot be probed.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !isManager && !s.tickets.AllowUserDownload {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "ticket download is disabled")
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid")
	}
	if !order.TicketsGenerated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "tickets have not been generated for this order")
	}

	participant, err := s.findParticipant(ctx, orderID, ticketNumber)
	if err != nil {
		return nil, err
	}
	event, err := s.findActiveEvent(ctx, order.EventID)
	if err != nil {
		return nil, err
	}

	securityID, err := random.SecurityID()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate security id")
	}
	name := participant.FirstName + " " + participant.LastName
	hash := VerificationHash(orderID, ticketNumber, securityID)
	payload, err := json.Marshal(qrPayload{
		OrderID:          orderID,
		TicketNumber:     ticketNumber,
		ParticipantName:  name,
		Event:            event.Name,
		SecurityID:       securityID,
		VerificationHash: hash,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode qr payload")
	}
	png, err := payments.QRPNG(string(payload))
	if err != nil {
		return nil, err
	}
	return &TicketDocument{
		OrderID:          orderID,
		TicketNumber:     ticketNumber,
		ParticipantName:  name,
		Birthdate:        participant.Birthdate,
		EventName:        event.Name,
		SecurityID:       securityID,
		VerificationHash: hash,
		QRPayload:        string(payload),
		QRPNG:            png,
	}, nil
}

func (s *service) CorrectBirthdate(ctx context.Context, actor authz.Context, orderID string, ticketNumber int, newBirthdate, reason string) error {
	if !actor.Can(authz.PermissionEditUsers) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "user management permission required")
	}
	if strings.TrimSpace(reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a correction reason is required")
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}
	participant, err := s.findParticipant(ctx, orderID, ticketNumber)
	if err != nil {
		return err
	}
	event, err := s.findActiveEvent(ctx, order.EventID)
	if err != nil {
		return err
	}
	if err := orders.ValidateBirthdate(newBirthdate, event.EventDate, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid birthdate")
	}

	auditID, err := random.Token(random.AuditLogIDLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate audit log id")
	}
	entry := &models.BirthdateAuditLog{
		ID:           auditID,
		OrderID:      orderID,
		TicketNumber: ticketNumber,
		OldBirthdate: participant.Birthdate,
		NewBirthdate: newBirthdate,
		Reason:       strings.TrimSpace(reason),
		ChangedBy:    actor.UserID,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateParticipantBirthdate(ctx, orderID, ticketNumber, newBirthdate); err != nil {
			return err
		}
		return repo.CreateAuditLog(ctx, entry)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "correct birthdate")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID), "birthdate corrected")
	return nil
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

func (s *service) findParticipant(ctx context.Context, orderID string, ticketNumber int) (*models.Participant, error) {
	participant, err := s.repo.FindParticipant(ctx, orderID, ticketNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load participant")
	}
	return participant, nil
}
