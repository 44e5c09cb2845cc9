package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abiball/abiball-backend/api/responses"
	"github.com/abiball/abiball-backend/api/validators"
	"github.com/abiball/abiball-backend/internal/events"
	"github.com/abiball/abiball-backend/pkg/logger"
)

type createEventRequest struct {
	Name           string           `json:"name" validate:"required"`
	Year           int              `json:"year" validate:"required,min=2000,max=2200"`
	Location       *string          `json:"location"`
	Description    *string          `json:"description"`
	EventDate      time.Time        `json:"event_date" validate:"required"`
	Visibility     string           `json:"visibility" validate:"required"`
	Password       string           `json:"password"`
	MaxTickets     *int             `json:"max_tickets" validate:"omitempty,min=0"`
	TicketPrice    *decimal.Decimal `json:"ticket_price"`
	TicketsPerUser *int             `json:"tickets_per_user" validate:"omitempty,min=0"`
	SalesEnabled   *bool            `json:"sales_enabled"`
	SaleStart      *time.Time       `json:"sale_start"`
	SaleEnd        *time.Time       `json:"sale_end"`
}

type updateEventRequest struct {
	Name           *string          `json:"name"`
	Year           *int             `json:"year" validate:"omitempty,min=2000,max=2200"`
	Location       *string          `json:"location"`
	Description    *string          `json:"description"`
	EventDate      *time.Time       `json:"event_date"`
	Visibility     *string          `json:"visibility"`
	Password       *string          `json:"password"`
	MaxTickets     *int             `json:"max_tickets" validate:"omitempty,min=0"`
	TicketPrice    *decimal.Decimal `json:"ticket_price"`
	TicketsPerUser *int             `json:"tickets_per_user" validate:"omitempty,min=0"`
	SalesEnabled   *bool            `json:"sales_enabled"`
	SaleStart      *time.Time       `json:"sale_start"`
	SaleEnd        *time.Time       `json:"sale_end"`
	Active         *bool            `json:"active"`
}

type verifyEventPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

type tierRequest struct {
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Description *string         `json:"description"`
	MaxTickets  *int            `json:"max_tickets" validate:"omitempty,min=0"`
}

type replaceTiersRequest struct {
	Tiers []tierRequest `json:"tiers" validate:"dive"`
}

type bankAccountRequest struct {
	Holder            string          `json:"holder" validate:"required"`
	BankName          *string         `json:"bank_name"`
	IBAN              string          `json:"iban" validate:"required"`
	BIC               string          `json:"bic" validate:"required"`
	Percentage        decimal.Decimal `json:"percentage"`
	EscrowDocumentURL *string         `json:"escrow_document_url" validate:"omitempty,url"`
}

type replaceBankAccountsRequest struct {
	Accounts []bankAccountRequest `json:"accounts" validate:"required,min=1,dive"`
}

type userOverrideRequest struct {
	MaxTickets  *int             `json:"max_tickets" validate:"omitempty,min=0"`
	TicketPrice *decimal.Decimal `json:"ticket_price"`
}

func EventCreate(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), actor, events.CreateEventInput{
			Name:           body.Name,
			Year:           body.Year,
			Location:       body.Location,
			Description:    body.Description,
			EventDate:      body.EventDate,
			Visibility:     body.Visibility,
			Password:       body.Password,
			MaxTickets:     body.MaxTickets,
			TicketPrice:    body.TicketPrice,
			TicketsPerUser: body.TicketsPerUser,
			SalesEnabled:   body.SalesEnabled,
			SaleStart:      body.SaleStart,
			SaleEnd:        body.SaleEnd,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func EventGet(svc events.Service, logg *logger.Logger) http.HandlerFunc {
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

		view, err := svc.Get(r.Context(), actor, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func EventList(svc events.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.List(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

func EventUpdate(svc events.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body updateEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Update(r.Context(), actor, eventID, events.UpdateEventInput{
			Name:           body.Name,
			Year:           body.Year,
			Location:       body.Location,
			Description:    body.Description,
			EventDate:      body.EventDate,
			Visibility:     body.Visibility,
			Password:       body.Password,
			MaxTickets:     body.MaxTickets,
			TicketPrice:    body.TicketPrice,
			TicketsPerUser: body.TicketsPerUser,
			SalesEnabled:   body.SalesEnabled,
			SaleStart:      body.SaleStart,
			SaleEnd:        body.SaleEnd,
			Active:         body.Active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

func EventDelete(svc events.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.Delete(r.Context(), actor, eventID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// EventVerifyPassword unlocks a password-protected event for the caller.
func EventVerifyPassword(svc events.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body verifyEventPasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.VerifyPassword(r.Context(), actor, eventID, body.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "granted"})
	}
}

func EventTiers(svc events.Service, logg *logger.Logger) http.HandlerFunc {
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

		tiers, err := svc.Tiers(r.Context(), actor, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tiers)
	}
}

func EventReplaceTiers(svc events.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body replaceTiersRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tiers := make([]events.TierInput, 0, len(body.Tiers))
		for _, tier := range body.Tiers {
			tiers = append(tiers, events.TierInput{
				Name:        tier.Name,
				Price:       tier.Price,
				Description: tier.Description,
				MaxTickets:  tier.MaxTickets,
			})
		}

		if err := svc.ReplaceTiers(r.Context(), actor, eventID, tiers); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "replaced"})
	}
}

func EventBankAccounts(svc events.Service, logg *logger.Logger) http.HandlerFunc {
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

		accounts, err := svc.BankAccounts(r.Context(), actor, eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, accounts)
	}
}

// EventReplaceBankAccounts swaps the payout account split. Percentages must
// sum to 100.
func EventReplaceBankAccounts(svc events.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body replaceBankAccountsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accounts := make([]events.BankAccountInput, 0, len(body.Accounts))
		for _, account := range body.Accounts {
			accounts = append(accounts, events.BankAccountInput{
				Holder:            account.Holder,
				BankName:          account.BankName,
				IBAN:              account.IBAN,
				BIC:               account.BIC,
				Percentage:        account.Percentage,
				EscrowDocumentURL: account.EscrowDocumentURL,
			})
		}

		if err := svc.ReplaceBankAccounts(r.Context(), actor, eventID, accounts); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "replaced"})
	}
}

// EventSetUserOverride sets (or clears, when both fields are null) a
// per-user price and allowance for one event.
func EventSetUserOverride(svc events.Service, logg *logger.Logger) http.HandlerFunc {
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
		userID, err := urlParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body userOverrideRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SetUserOverride(r.Context(), actor, userID, eventID, events.UserOverrideInput{
			MaxTickets:  body.MaxTickets,
			TicketPrice: body.TicketPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "saved"})
	}
}
