package controllers

import (
	"fmt"
	"net/http"

	"github.com/abiball/abiball-backend/api/responses"
	"github.com/abiball/abiball-backend/internal/documents"
	"github.com/abiball/abiball-backend/pkg/logger"
)

func writeCSVAttachment(w http.ResponseWriter, r *http.Request, logg *logger.Logger, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logg.Error(r.Context(), "write csv response", err)
	}
}

// DocumentGuestList downloads the door guest list for an event as CSV.
func DocumentGuestList(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
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

		data, err := svc.GuestListCSV(r.Context(), actor, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCSVAttachment(w, r, logg, "gaesteliste-"+eventID+".csv", data)
	}
}

// DocumentOrderSummary downloads the order summary for an event as CSV.
func DocumentOrderSummary(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
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

		data, err := svc.OrderSummaryCSV(r.Context(), actor, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCSVAttachment(w, r, logg, "bestellungen-"+eventID+".csv", data)
	}
}
