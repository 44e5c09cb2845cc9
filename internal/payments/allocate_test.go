package payments

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abiball/abiball-backend/pkg/db/models"
	pkgerrors "github.com/abiball/abiball-backend/pkg/errors"
)

func splitAccounts() []models.BankAccount {
	return []models.BankAccount{
		{ID: "ACCMAJOR0001", Holder: "Abikasse", Percentage: decimal.NewFromInt(70)},
		{ID: "ACCMINOR0001", Holder: "Kassenwart", Percentage: decimal.NewFromInt(30)},
	}
}

func TestSelectAccountSingleShortCircuits(t *testing.T) {
	accounts := []models.BankAccount{{ID: "ACCONLY00001", Percentage: decimal.NewFromInt(100)}}

	selected, err := SelectAccount(accounts, func() float64 {
		t.Fatal("random draw must not happen for a single account")
		return 0
	})
	require.NoError(t, err)
	assert.Equal(t, "ACCONLY00001", selected.ID)
}

func TestSelectAccountEmpty(t *testing.T) {
	_, err := SelectAccount(nil, func() float64 { return 0 })
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestSelectAccountCumulativeWalk(t *testing.T) {
	accounts := splitAccounts()

	selected, err := SelectAccount(accounts, func() float64 { return 69.9 })
	require.NoError(t, err)
	assert.Equal(t, "ACCMAJOR0001", selected.ID)

	selected, err = SelectAccount(accounts, func() float64 { return 70.0 })
	require.NoError(t, err)
	assert.Equal(t, "ACCMINOR0001", selected.ID)
}

func TestSelectAccountDriftFallsBackToFirst(t *testing.T) {
	// Percentages that round slightly short of 100 must still select.
	accounts := []models.BankAccount{
		{ID: "ACCMAJOR0001", Percentage: decimal.NewFromFloat(66.66)},
		{ID: "ACCMINOR0001", Percentage: decimal.NewFromFloat(33.33)},
	}
	selected, err := SelectAccount(accounts, func() float64 { return 99.995 })
	require.NoError(t, err)
	assert.Equal(t, "ACCMAJOR0001", selected.ID)
}

func TestSelectAccountFrequencyMatchesShares(t *testing.T) {
	accounts := splitAccounts()
	rng := rand.New(rand.NewSource(1))

	const draws = 20000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		selected, err := SelectAccount(accounts, func() float64 { return rng.Float64() * 100 })
		require.NoError(t, err)
		counts[selected.ID]++
	}

	majorShare := float64(counts["ACCMAJOR0001"]) / draws
	assert.InDelta(t, 0.70, majorShare, 0.02)
	assert.InDelta(t, 0.30, float64(counts["ACCMINOR0001"])/draws, 0.02)
}
