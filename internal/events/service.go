package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/authz"
	"github.com/abiball/abiball-backend/pkg/config"
	"github.com/abiball/abiball-backend/pkg/db/models"
	"github.com/abiball/abiball-backend/pkg/enums"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
	"github.com/abiball/abiball-backend/pkg/logger"
	"github.com/abiball/abiball-backend/pkg/random"
	"github.com/abiball/abiball-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines event configuration operations.
type Service interface {
	Create(ctx context.Context, actor authz.Context, input CreateEventInput) (*EventView, error)
	Get(ctx context.Context, actor authz.Context, eventID string) (*EventView, error)
	List(ctx context.Context, actor authz.Context) ([]EventView, error)
	Update(ctx context.Context, actor authz.Context, eventID string, input UpdateEventInput) error
	Delete(ctx context.Context, actor authz.Context, eventID string) error
	VerifyPassword(ctx context.Context, actor authz.Context, eventID, password string) error
	CheckAccess(ctx context.Context, actor authz.Context, event *models.Event) error
	Tiers(ctx context.Context, actor authz.Context, eventID string) ([]TierView, error)
	ReplaceTiers(ctx context.Context, actor authz.Context, eventID string, tiers []TierInput) error
	BankAccounts(ctx context.Context, actor authz.Context, eventID string) ([]models.BankAccount, error)
	ReplaceBankAccounts(ctx context.Context, actor authz.Context, eventID string, accounts []BankAccountInput) error
	SetUserOverride(ctx context.Context, actor authz.Context, userID string, eventID string, input UserOverrideInput) error
}

type service struct {
	repo    Repository
	tx      txRunner
	grants  AccessGrantStore
	tickets config.TicketsConfig
	pw      config.PasswordConfig
	logg    *logger.Logger
}

// NewService builds an events service with the required dependencies.
func NewService(repo Repository, tx txRunner, grants AccessGrantStore, tickets config.TicketsConfig, pw config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("events repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if grants == nil {
		return nil, fmt.Errorf("access grant store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, grants: grants, tickets: tickets, pw: pw, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, actor authz.Context, input CreateEventInput) (*EventView, error) {
	if !actor.Can(authz.PermissionCreateEvents) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "event creation permission required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name required")
	}
	visibility := enums.EventVisibilityPublic
	if input.Visibility != "" {
		parsed, err := enums.ParseEventVisibility(input.Visibility)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid visibility setting")
		}
		visibility = parsed
	}

	var passwordHash *string
	if visibility.RequiresPassword() {
		if strings.TrimSpace(input.Password) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password required for password-protected events")
		}
		hash, err := security.HashPassword(input.Password, s.pw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash event password")
		}
		passwordHash = &hash
	}

	id, err := random.Token(random.EventIDLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate event id")
	}

	event := &models.Event{
		ID:             id,
		Name:           strings.TrimSpace(input.Name),
		Year:           input.Year,
		EventDate:      input.EventDate,
		Location:       input.Location,
		Description:    input.Description,
		Visibility:     visibility,
		PasswordHash:   passwordHash,
		MaxTickets:     s.tickets.DefaultMaxTickets,
		TicketPrice:    decimal.NewFromFloat(s.tickets.DefaultTicketPrice),
		SalesEnabled:   true,
		SaleStart:      input.SaleStart,
		SaleEnd:        input.SaleEnd,
		CreatedBy:      actor.UserID,
		Active:         true,
	}
	if input.MaxTickets != nil {
		event.MaxTickets = *input.MaxTickets
	}
	if input.TicketPrice != nil {
		event.TicketPrice = *input.TicketPrice
	}
	// Left nil, the per-user limit falls through to the configured default
	// at availability time; an explicit 0 blocks ordering for the event.
	if input.TicketsPerUser != nil {
		event.TicketsPerUser = input.TicketsPerUser
	}
	if input.SalesEnabled != nil {
		event.SalesEnabled = *input.SalesEnabled
	}
	if event.MaxTickets <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max tickets must be positive")
	}
	if event.TicketPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket price must not be negative")
	}

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create event")
	}
	s.logg.Info(s.logg.WithEventID(ctx, created.ID), "event created")
	view := toView(created)
	return &view, nil
}

func (s *service) Get(ctx context.Context, actor authz.Context, eventID string) (*EventView, error) {
	event, err := s.findActive(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Visibility == enums.EventVisibilityPrivate && !s.canManage(actor, event) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	view := toView(event)
	return &view, nil
}

func (s *service) List(ctx context.Context, actor authz.Context) ([]EventView, error) {
	publicOnly := !actor.Can(authz.PermissionCreateEvents)
	events, err := s.repo.List(ctx, publicOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list events")
	}
	views := make([]EventView, 0, len(events))
	for i := range events {
		views = append(views, toView(&events[i]))
	}
	return views, nil
}

func (s *service) Update(ctx context.Context, actor authz.Context, eventID string, input UpdateEventInput) error {
	event, err := s.findActive(ctx, eventID)
	if err != nil {
		return err
	}
	if !s.canManage(actor, event) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "event name required")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Year != nil {
		updates["year"] = *input.Year
	}
	if input.Location != nil {
		updates["location"] = *input.Location
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.EventDate != nil {
		updates["event_date"] = *input.EventDate
	}
	if input.Visibility != nil {
		parsed, err := enums.ParseEventVisibility(*input.Visibility)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid visibility setting")
		}
		updates["visibility"] = parsed.String()
		if parsed.RequiresPassword() && input.Password == nil && event.PasswordHash == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "password required for password-protected events")
		}
	}
	if input.Password != nil {
		hash, err := security.HashPassword(*input.Password, s.pw)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash event password")
		}
		updates["password_hash"] = hash
	}
	if input.MaxTickets != nil {
		if *input.MaxTickets <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "max tickets must be positive")
		}
		updates["max_tickets"] = *input.MaxTickets
	}
	if input.TicketPrice != nil {
		if input.TicketPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "ticket price must not be negative")
		}
		updates["ticket_price"] = *input.TicketPrice
	}
	if input.TicketsPerUser != nil {
		updates["tickets_per_user"] = *input.TicketsPerUser
	}
	if input.SalesEnabled != nil {
		updates["sales_enabled"] = *input.SalesEnabled
	}
	if input.SaleStart != nil {
		updates["sale_start"] = *input.SaleStart
	}
	if input.SaleEnd != nil {
		updates["sale_end"] = *input.SaleEnd
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.repo.Update(ctx, eventID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update event")
	}
	s.logg.Info(s.logg.WithEventID(ctx, eventID), "event updated")
	return nil
}

func (s *service) Delete(ctx context.Context, actor authz.Context, eventID string) error {
	event, err := s.findActive(ctx, eventID)
	if err != nil {
		return err
	}
	if !s.canManage(actor, event) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	if err := s.repo.Update(ctx, eventID, map[string]any{"active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate event")
	}
	s.logg.Info(s.logg.WithEventID(ctx, eventID), "event deactivated")
	return nil
}

func (s *service) VerifyPassword(ctx context.Context, actor authz.Context, eventID, password string) error {
	event, err := s.findActive(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.Visibility.RequiresPassword() || event.PasswordHash == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "event is not password protected")
	}
	ok, err := security.VerifyPassword(password, *event.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify event password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid password")
	}
	if err := s.grants.GrantEventAccess(ctx, eventID, actor.UserID.String(), s.tickets.EventAccessTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store event access grant")
	}
	return nil
}

// CheckAccess enforces the event visibility rules for a buyer-facing
// operation. Private events are reserved for organizers; password-protected
// events require a previously stored access grant.
func (s *service) CheckAccess(ctx context.Context, actor authz.Context, event *models.Event) error {
	switch event.Visibility {
	case enums.EventVisibilityPrivate:
		if !actor.Can(authz.PermissionCreateEvents) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
		}
	case enums.EventVisibilityPasswordProtected:
		ok, err := s.grants.HasEventAccess(ctx, event.ID, actor.UserID.String())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check event access grant")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "event password required")
		}
	}
	return nil
}

func (s *service) Tiers(ctx context.Context, actor authz.Context, eventID string) ([]TierView, error) {
	event, err := s.findActive(ctx, eventID)
	if err != nil {
		return nil, err
	}
	tiers, err := s.repo.ListTiers(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tiers")
	}
	if len(tiers) == 0 {
		return []TierView{{
			ID:          "default",
			Name:        "Standard",
			Price:       event.TicketPrice,
			Description: "Standard Ticket",
		}}, nil
	}
	views := make([]TierView, 0, len(tiers))
	for _, tier := range tiers {
		view := TierView{ID: tier.ID, Name: tier.Name, Price: tier.Price, MaxTickets: tier.MaxTickets}
		if tier.Description != nil {
			view.Description = *tier.Description
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) ReplaceTiers(ctx context.Context, actor authz.Context, eventID string, tiers []TierInput) error {
	event, err := s.findActive(ctx, eventID)
	if err != nil {
		return err
	}
	if !s.canManage(actor, event) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	rows := make([]models.TicketTier, 0, len(tiers))
	for i, tier := range tiers {
		name := strings.TrimSpace(tier.Name)
		if name == "" {
			name = fmt.Sprintf("Tier %d", i+1)
		}
		if tier.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "tier price must not be negative")
		}
		if tier.MaxTickets != nil && *tier.MaxTickets < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "tier ticket cap must not be negative")
		}
		id, err := random.Token(random.TierIDLength)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate tier id")
		}
		rows = append(rows, models.TicketTier{
			ID:          id,
			EventID:     eventID,
			Name:        name,
			Price:       tier.Price,
			Description: tier.Description,
			MaxTickets:  tier.MaxTickets,
		})
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceTiers(ctx, eventID, rows)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace tiers")
	}
	s.logg.Info(s.logg.WithEventID(ctx, eventID), "ticket tiers replaced")
	return nil
}

func (s *service) BankAccounts(ctx context.Context, actor authz.Context, eventID string) ([]models.BankAccount, error) {
	if _, err := s.findActive(ctx, eventID); err != nil {
		return nil, err
	}
	accounts, err := s.repo.ListBankAccounts(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bank accounts")
	}
	return accounts, nil
}

func (s *service) ReplaceBankAccounts(ctx context.Context, actor authz.Context, eventID string, accounts []BankAccountInput) error {
	event, err := s.findActive(ctx, eventID)
	if err != nil {
		return err
	}
	if !s.canManage(actor, event) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}

	// Percentages are checked before anything is written; a bad batch must
	// not wipe the existing distribution.
	total := decimal.Zero
	for _, account := range accounts {
		total = total.Add(account.Percentage)
	}
	if total.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(decimal.NewFromFloat(0.01)) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("bank account percentages must sum to 100 (got %s)", total.String()))
	}

	rows := make([]models.BankAccount, 0, len(accounts))
	for _, account := range accounts {
		if strings.TrimSpace(account.IBAN) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "bank account IBAN required")
		}
		id, err := random.Token(random.BankAccountIDLength)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate bank account id")
		}
		rows = append(rows, models.BankAccount{
			ID:                id,
			EventID:           eventID,
			Holder:            strings.TrimSpace(account.Holder),
			BankName:          account.BankName,
			IBAN:              strings.TrimSpace(account.IBAN),
			BIC:               strings.TrimSpace(account.BIC),
			Percentage:        account.Percentage,
			EscrowDocumentURL: account.EscrowDocumentURL,
		})
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceBankAccounts(ctx, eventID, rows)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace bank accounts")
	}
	s.logg.Info(s.logg.WithEventID(ctx, eventID), "bank accounts replaced")
	return nil
}

func (s *service) SetUserOverride(ctx context.Context, actor authz.Context, userID string, eventID string, input UserOverrideInput) error {
	event, err := s.findActive(ctx, eventID)
	if err != nil {
		return err
	}
	if !s.canManage(actor, event) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid user id")
	}
	if input.MaxTickets == nil && input.TicketPrice == nil {
		if err := s.repo.DeleteUserSetting(ctx, parsed, eventID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove user event setting")
		}
		return nil
	}
	if input.MaxTickets != nil && *input.MaxTickets < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "ticket limit must not be negative")
	}
	if input.TicketPrice != nil && input.TicketPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "ticket price must not be negative")
	}
	setting := &models.UserEventSetting{
		UserID:      parsed,
		EventID:     eventID,
		MaxTickets:  input.MaxTickets,
		TicketPrice: input.TicketPrice,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.repo.UpsertUserSetting(ctx, setting); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set user event setting")
	}
	return nil
}

func (s *service) findActive(ctx context.Context, eventID string) (*models.Event, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	event, err := s.repo.FindActiveByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}
	return event, nil
}

func (s *service) canManage(actor authz.Context, event *models.Event) bool {
	return actor.IsAdmin() || event.CreatedBy == actor.UserID
}

func toView(event *models.Event) EventView {
	return EventView{
		ID:             event.ID,
		Name:           event.Name,
		Year:           event.Year,
		Location:       event.Location,
		Description:    event.Description,
		EventDate:      event.EventDate,
		Visibility:     event.Visibility,
		MaxTickets:     event.MaxTickets,
		TicketPrice:    event.TicketPrice,
		TicketsPerUser: event.TicketsPerUser,
		SalesEnabled:   event.SalesEnabled,
		SaleStart:      event.SaleStart,
		SaleEnd:        event.SaleEnd,
		CreatedAt:      event.CreatedAt,
	}
}
