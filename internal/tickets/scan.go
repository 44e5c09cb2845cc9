package tickets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/authz"
	"github.com/abiball/abiball-backend/pkg/db/models"
	"github.com/abiball/abiball-backend/pkg/enums"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
)

// VerificationHash binds a security id to one order+ticket pair. The hash is
// recomputed from the scanned fields, never read from storage.
func VerificationHash(orderID string, ticketNumber int, securityID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%d-%s", orderID, ticketNumber, securityID)))
	return hex.EncodeToString(sum[:])
}

// Scan verifies a raw scanned QR payload and, with autoRedeem, consumes the
// ticket in the same call. Every structural problem maps to an invalid
// result rather than an error: the door UI shows the reason, it does not
// retry.
func (s *service) Scan(ctx context.Context, actor authz.Context, rawPayload string, autoRedeem bool) (*ScanResult, error) {
	if !actor.Can(authz.PermissionManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}

	var payload qrPayload
	if err := json.Unmarshal([]byte(rawPayload), &payload); err != nil {
		return s.invalid("code is not readable"), nil
	}
	if payload.OrderID == "" || payload.TicketNumber == 0 || payload.SecurityID == "" || payload.VerificationHash == "" {
		return s.invalid("code is missing required fields"), nil
	}
	expected := VerificationHash(payload.OrderID, payload.TicketNumber, payload.SecurityID)
	if !strings.EqualFold(expected, payload.VerificationHash) {
		return s.invalid("verification hash does not match"), nil
	}

	participant, err := s.repo.FindParticipant(ctx, payload.OrderID, payload.TicketNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.invalid("ticket not found"), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load participant")
	}
	order, err := s.findOrder(ctx, payload.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPaid {
		return s.invalid("order is not paid"), nil
	}

	result := s.participantResult(ctx, order, participant)
	if participant.Redeemed {
		result.Status = enums.ScanStatusAlreadyRedeemed
		result.RedeemedAt = participant.RedeemedAt
		result.RedeemedBy = participant.RedeemedBy
		s.metrics.IncScan(result.Status.String())
		return result, nil
	}

	if autoRedeem {
		return s.redeem(ctx, actor, order, participant, result)
	}
	result.Status = enums.ScanStatusValid
	s.metrics.IncScan(result.Status.String())
	return result, nil
}

// Redeem consumes a ticket found by order id and ticket number, for doors
// that check in from the live list instead of a scanner.
func (s *service) Redeem(ctx context.Context, actor authz.Context, orderID string, ticketNumber int) (*ScanResult, error) {
	if !actor.Can(authz.PermissionManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	participant, err := s.findParticipant(ctx, orderID, ticketNumber)
	if err != nil {
		return nil, err
	}
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid")
	}
	if participant.Redeemed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ticket already redeemed")
	}
	return s.redeem(ctx, actor, order, participant, s.participantResult(ctx, order, participant))
}

func (s *service) redeem(ctx context.Context, actor authz.Context, order *models.TicketOrder, participant *models.Participant, result *ScanResult) (*ScanResult, error) {
	now := s.now()
	redeemed, err := s.repo.RedeemParticipant(ctx, order.ID, participant.TicketNumber, now, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeem ticket")
	}
	if !redeemed {
		// Another scanner won the race between our read and the update.
		fresh, err := s.repo.FindParticipant(ctx, order.ID, participant.TicketNumber)
		if err == nil {
			result.RedeemedAt = fresh.RedeemedAt
			result.RedeemedBy = fresh.RedeemedBy
		}
		result.Status = enums.ScanStatusAlreadyRedeemed
		s.metrics.IncScan(result.Status.String())
		return result, nil
	}
	result.Status = enums.ScanStatusRedeemed
	result.RedeemedAt = &now
	result.RedeemedBy = &actor.UserID
	s.metrics.IncScan(result.Status.String())
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID), "ticket redeemed")
	return result, nil
}

// UndoLastRedemption reverts the most recent check-in made by the calling
// operator, so a mis-scan can be rolled back at the door without finding
// the exact ticket again.
func (s *service) UndoLastRedemption(ctx context.Context, actor authz.Context) (*ScanResult, error) {
	if !actor.Can(authz.PermissionManageOrders) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order management permission required")
	}
	participant, err := s.repo.LastRedemptionBy(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no redemption to undo")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find last redemption")
	}
	if err := s.repo.ClearRedemption(ctx, participant.OrderID, participant.TicketNumber); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear redemption")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, participant.OrderID), "redemption undone")
	return &ScanResult{
		Status:          enums.ScanStatusValid,
		OrderID:         participant.OrderID,
		TicketNumber:    participant.TicketNumber,
		ParticipantName: participant.FirstName + " " + participant.LastName,
		Birthdate:       participant.Birthdate,
	}, nil
}

func (s *service) invalid(reason string) *ScanResult {
	s.metrics.IncScan(enums.ScanStatusInvalid.String())
	return &ScanResult{Status: enums.ScanStatusInvalid, Reason: reason}
}

func (s *service) participantResult(ctx context.Context, order *models.TicketOrder, participant *models.Participant) *ScanResult {
	result := &ScanResult{
		OrderID:         order.ID,
		TicketNumber:    participant.TicketNumber,
		ParticipantName: participant.FirstName + " " + participant.LastName,
		Birthdate:       participant.Birthdate,
	}
	reference := s.now()
	if event, err := s.repo.FindActiveEvent(ctx, order.EventID); err == nil && !event.EventDate.IsZero() {
		reference = event.EventDate
	}
	result.AgeStatus = ageStatus(participant.Birthdate, reference)
	return result
}

// ageStatus classifies the participant as of the reference date. An
// unparsable birthdate counts as minor so the door errs on the strict side.
func ageStatus(birthdate string, reference time.Time) string {
	parsed, err := time.Parse("2006-01-02", birthdate)
	if err != nil {
		return AgeStatusMinor
	}
	adultAt := parsed.AddDate(18, 0, 0)
	if adultAt.After(reference) {
		return AgeStatusMinor
	}
	return AgeStatusAdult
}
