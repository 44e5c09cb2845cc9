package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/abiball/abiball-backend/pkg/db/models"
	"github.com/abiball/abiball-backend/pkg/enums"
)

func setupEventsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{`
CREATE TABLE events (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  year INTEGER NOT NULL DEFAULT 0,
  event_date DATETIME NOT NULL,
  location TEXT,
  description TEXT,
  visibility TEXT NOT NULL DEFAULT 'public',
  password_hash TEXT,
  max_tickets INTEGER NOT NULL,
  ticket_price NUMERIC NOT NULL,
  tickets_per_user INTEGER,
  sales_enabled INTEGER NOT NULL DEFAULT 1,
  sale_start DATETIME,
  sale_end DATETIME,
  created_by TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE ticket_tiers (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  description TEXT,
  max_tickets INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE bank_accounts (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  holder TEXT NOT NULL,
  bank_name TEXT,
  iban TEXT NOT NULL,
  bic TEXT NOT NULL,
  percentage NUMERIC NOT NULL,
  escrow_document_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE user_event_settings (
  user_id TEXT NOT NULL,
  event_id TEXT NOT NULL,
  max_tickets INTEGER,
  ticket_price NUMERIC,
  created_at DATETIME,
  updated_at DATETIME,
  PRIMARY KEY (user_id, event_id)
);`}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedEvent(t *testing.T, db *gorm.DB, id string, visibility enums.EventVisibility, active bool) *models.Event {
	t.Helper()
	perUser := 10
	event := &models.Event{
		ID:             id,
		Name:           "Abiball 2026",
		Year:           2026,
		Visibility:     visibility,
		MaxTickets:     200,
		TicketPrice:    decimal.NewFromInt(50),
		TicketsPerUser: &perUser,
		SalesEnabled:   true,
		CreatedBy:      uuid.New(),
		Active:         active,
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

func TestEventsRepoFindActiveByID(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedEvent(t, db, "EVENTACTIVE00001", enums.EventVisibilityPublic, true)
	seedEvent(t, db, "EVENTINACTIVE001", enums.EventVisibilityPublic, false)

	found, err := repo.FindActiveByID(ctx, "EVENTACTIVE00001")
	require.NoError(t, err)
	assert.Equal(t, "Abiball 2026", found.Name)

	_, err = repo.FindActiveByID(ctx, "EVENTINACTIVE001")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEventsRepoListPublicOnly(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedEvent(t, db, "EVENTPUBLIC00001", enums.EventVisibilityPublic, true)
	seedEvent(t, db, "EVENTPRIVATE0001", enums.EventVisibilityPrivate, true)

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	public, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "EVENTPUBLIC00001", public[0].ID)
}

func TestEventsRepoReplaceTiers(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedEvent(t, db, "EVENTTIERS000001", enums.EventVisibilityPublic, true)

	first := []models.TicketTier{
		{ID: "TIERSTANDARD", EventID: "EVENTTIERS000001", Name: "Standard", Price: decimal.NewFromInt(50)},
		{ID: "TIERVIP00001", EventID: "EVENTTIERS000001", Name: "VIP", Price: decimal.NewFromInt(80)},
	}
	require.NoError(t, repo.ReplaceTiers(ctx, "EVENTTIERS000001", first))

	second := []models.TicketTier{
		{ID: "TIERONLY0001", EventID: "EVENTTIERS000001", Name: "Einheitspreis", Price: decimal.NewFromInt(60)},
	}
	require.NoError(t, repo.ReplaceTiers(ctx, "EVENTTIERS000001", second))

	tiers, err := repo.ListTiers(ctx, "EVENTTIERS000001")
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, "Einheitspreis", tiers[0].Name)
}

func TestEventsRepoBankAccountsOrderedByPercentage(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedEvent(t, db, "EVENTBANK0000001", enums.EventVisibilityPublic, true)

	accounts := []models.BankAccount{
		{ID: "ACCMINOR0001", EventID: "EVENTBANK0000001", Holder: "Kassenwart", IBAN: "DE02120300000000202051", BIC: "BYLADEM1001", Percentage: decimal.NewFromInt(30)},
		{ID: "ACCMAJOR0001", EventID: "EVENTBANK0000001", Holder: "Abikasse", IBAN: "DE02500105170137075030", BIC: "INGDDEFF", Percentage: decimal.NewFromInt(70)},
	}
	require.NoError(t, repo.ReplaceBankAccounts(ctx, "EVENTBANK0000001", accounts))

	listed, err := repo.ListBankAccounts(ctx, "EVENTBANK0000001")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "ACCMAJOR0001", listed[0].ID)
}

func TestEventsRepoUserSettingUpsert(t *testing.T) {
	db := setupEventsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedEvent(t, db, "EVENTSETTING0001", enums.EventVisibilityPublic, true)
	userID := uuid.New()

	limit := 4
	require.NoError(t, repo.UpsertUserSetting(ctx, &models.UserEventSetting{
		UserID: userID, EventID: "EVENTSETTING0001", MaxTickets: &limit,
	}))

	raised := 6
	price := decimal.NewFromInt(40)
	require.NoError(t, repo.UpsertUserSetting(ctx, &models.UserEventSetting{
		UserID: userID, EventID: "EVENTSETTING0001", MaxTickets: &raised, TicketPrice: &price,
	}))

	setting, err := repo.FindUserSetting(ctx, userID, "EVENTSETTING0001")
	require.NoError(t, err)
	require.NotNil(t, setting.MaxTickets)
	assert.Equal(t, 6, *setting.MaxTickets)
	require.NotNil(t, setting.TicketPrice)
	assert.True(t, setting.TicketPrice.Equal(decimal.NewFromInt(40)))

	require.NoError(t, repo.DeleteUserSetting(ctx, userID, "EVENTSETTING0001"))
	_, err = repo.FindUserSetting(ctx, userID, "EVENTSETTING0001")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
