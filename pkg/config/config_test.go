package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ABIBALL_APP_ENV", "development")
	t.Setenv("ABIBALL_APP_PORT", "8080")
	t.Setenv("ABIBALL_JWT_SECRET", "secret")
	t.Setenv("ABIBALL_JWT_ISSUER", "abiball")
	t.Setenv("ABIBALL_DB_DSN", "postgres://abiball:pw@localhost:5432/abiball?sslmode=disable")
}

func TestLoadWithDSN(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.App.IsDev() {
		t.Fatalf("expected dev environment")
	}
	if cfg.Tickets.DefaultTicketsPerUser != 10 {
		t.Fatalf("expected default per-user limit 10, got %d", cfg.Tickets.DefaultTicketsPerUser)
	}
}

func TestLoadBuildsDSNFromLegacyVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ABIBALL_DB_DSN", "")
	t.Setenv("ABIBALL_DB_HOST", "db.internal")
	t.Setenv("ABIBALL_DB_USER", "abiball")
	t.Setenv("ABIBALL_DB_PASSWORD", "pw")
	t.Setenv("ABIBALL_DB_NAME", "abiball")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(cfg.DB.DSN, "postgres://abiball:pw@db.internal:5432/abiball") {
		t.Fatalf("unexpected DSN %q", cfg.DB.DSN)
	}
}

func TestLoadFailsWithoutDBConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ABIBALL_DB_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when neither DSN nor legacy vars are set")
	}
}
