package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/abiball/abiball-backend/api/responses"
	"github.com/abiball/abiball-backend/api/validators"
	"github.com/abiball/abiball-backend/internal/tickets"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
	"github.com/abiball/abiball-backend/pkg/logger"
)

type scanRequest struct {
	Payload    string `json:"payload" validate:"required"`
	AutoRedeem bool   `json:"auto_redeem"`
}

type correctBirthdateRequest struct {
	Birthdate string `json:"birthdate" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

func parseTicketNumber(r *http.Request) (int, error) {
	raw, err := urlParam(r, "ticketNumber")
	if err != nil {
		return 0, err
	}
	number, err := strconv.Atoi(raw)
	if err != nil || number < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid ticket number")
	}
	return number, nil
}

// TicketGenerate issues the tickets of a paid order.
func TicketGenerate(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := urlParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Generate(r.Context(), actor, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "generated"})
	}
}

// TicketBulkGenerate issues tickets for every paid order of an event that
// does not have them yet.
func TicketBulkGenerate(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eventID, err := urlParam(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.BulkGenerate(r.Context(), actor, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TicketDocument returns one ticket's QR document. With ?format=png the raw
// image is served instead of the JSON shape.
func TicketDocument(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := urlParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticketNumber, err := parseTicketNumber(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		document, err := svc.Document(r.Context(), actor, orderID, ticketNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if strings.EqualFold(r.URL.Query().Get("format"), "png") {
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write(document.QRPNG); err != nil {
				logg.Error(r.Context(), "write ticket qr response", err)
			}
			return
		}
		responses.WriteSuccess(w, document)
	}
}

// TicketScan verifies a scanned code at the door. Invalid codes come back as
// a scan result, not an error, so the scanner UI can show the reason.
func TicketScan(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body scanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Scan(r.Context(), actor, body.Payload, body.AutoRedeem)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TicketRedeem checks one attendee in by order and ticket number.
func TicketRedeem(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := urlParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticketNumber, err := parseTicketNumber(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Redeem(r.Context(), actor, orderID, ticketNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TicketUndoRedemption reverts the caller's most recent check-in.
func TicketUndoRedemption(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UndoLastRedemption(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// TicketCorrectBirthdate fixes an attendee birthdate at the door, leaving an
// audit trail entry.
func TicketCorrectBirthdate(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := urlParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticketNumber, err := parseTicketNumber(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body correctBirthdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CorrectBirthdate(r.Context(), actor, orderID, ticketNumber, body.Birthdate, body.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "corrected"})
	}
}

// TicketLiveStats is the check-in dashboard aggregate.
func TicketLiveStats(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.LiveStats(r.Context(), actor, optionalEventID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// TicketLiveList splits attendees into checked-in and outstanding.
func TicketLiveList(svc tickets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.LiveList(r.Context(), actor, optionalEventID(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
