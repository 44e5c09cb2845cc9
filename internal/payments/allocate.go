package payments

import (
	"github.com/abiball/abiball-backend/pkg/db/models"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
)

// SelectAccount picks one bank account proportionally to its percentage
// share. Accounts must be ordered by percentage descending. randPercent
// supplies a draw in [0, 100); the cumulative walk makes each account's
// chance equal its share. Rounding drift falls back to the first account.
func SelectAccount(accounts []models.BankAccount, randPercent func() float64) (*models.BankAccount, error) {
	if len(accounts) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no bank accounts configured for event")
	}
	if len(accounts) == 1 {
		return &accounts[0], nil
	}

	draw := randPercent()
	cumulative := 0.0
	for i := range accounts {
		cumulative += accounts[i].Percentage.InexactFloat64()
		if draw < cumulative {
			return &accounts[i], nil
		}
	}
	return &accounts[0], nil
}
