package availability

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/config"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
)

// Service computes how many tickets an event, tier and user can still
// absorb. It never writes; order creation re-runs the same checks inside
// its transaction.
type Service interface {
	Compute(ctx context.Context, query Query) (*Result, error)
}

type service struct {
	repo    Repository
	tickets config.TicketsConfig
}

// NewService builds an availability service.
func NewService(repo Repository, tickets config.TicketsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("availability repository required")
	}
	return &service{repo: repo, tickets: tickets}, nil
}

func (s *service) Compute(ctx context.Context, query Query) (*Result, error) {
	if query.EventID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	event, err := s.repo.FindActiveEvent(ctx, query.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
	}

	eventSold, err := s.repo.SumEventTickets(ctx, query.EventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum event tickets")
	}

	result := &Result{
		EventSold:      eventSold,
		MaxTickets:     event.MaxTickets,
		EventRemaining: maxInt(0, event.MaxTickets-eventSold),
		EffectivePrice: event.TicketPrice,
	}

	if query.TierID != nil && *query.TierID != "" {
		tier, err := s.repo.FindTier(ctx, query.EventID, *query.TierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ticket tier not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tier")
		}
		result.EffectivePrice = tier.Price
		if tier.MaxTickets != nil {
			tierSold, err := s.repo.SumTierTickets(ctx, query.EventID, tier.ID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum tier tickets")
			}
			remaining := maxInt(0, *tier.MaxTickets-tierSold)
			result.TierSold = &tierSold
			result.TierRemaining = &remaining
		}
	}

	// The per-user limit falls through unset levels: user override, then
	// event, then the configured default. An explicit 0 at any level hard
	// blocks instead of falling through.
	limit := s.tickets.DefaultTicketsPerUser
	if event.TicketsPerUser != nil {
		limit = *event.TicketsPerUser
	}

	if query.UserID != nil {
		setting, err := s.repo.FindUserSetting(ctx, *query.UserID, query.EventID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user setting")
		}
		if setting != nil {
			if setting.MaxTickets != nil {
				limit = *setting.MaxTickets
			}
			// A per-user price override only applies when no tier was
			// chosen; a selected tier's price always wins.
			if setting.TicketPrice != nil && (query.TierID == nil || *query.TierID == "") {
				result.EffectivePrice = *setting.TicketPrice
			}
		}

		userCurrent, err := s.repo.SumUserTickets(ctx, query.EventID, *query.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum user tickets")
		}
		result.UserCurrent = userCurrent
	}

	result.EffectiveLimit = limit
	result.Blocked = limit == 0
	result.UserRemaining = maxInt(0, limit-result.UserCurrent)

	maxOrder := result.EventRemaining
	if result.TierRemaining != nil && *result.TierRemaining < maxOrder {
		maxOrder = *result.TierRemaining
	}
	if query.UserID != nil && result.UserRemaining < maxOrder {
		maxOrder = result.UserRemaining
	}
	if result.Blocked {
		maxOrder = 0
	}
	result.MaxOrder = maxInt(0, maxOrder)
	return result, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
