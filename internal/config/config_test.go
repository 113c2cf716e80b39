package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/tferreyra/farewatch/internal/config"
)

func TestLoad_EnvSelectsEndpoints(t *testing.T) {
	t.Setenv("AMADEUS_ENV", "prod")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(cfg.OAuthURL, "https://api.amadeus.com/") {
		t.Errorf("expected production OAuth URL, got %s", cfg.OAuthURL)
	}

	t.Setenv("AMADEUS_ENV", "staging")
	if _, err := config.Load(); err == nil {
		t.Error("expected error for unknown AMADEUS_ENV")
	}
}

func TestRequireCredentials_NamesEveryMissingVariable(t *testing.T) {
	for _, v := range []string{"AMADEUS_CLIENT_ID", "AMADEUS_CLIENT_SECRET", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID"} {
		t.Setenv(v, "")
	}
	t.Setenv("AMADEUS_CLIENT_ID", "id")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = cfg.RequireCredentials()
	if err == nil {
		t.Fatal("expected missing-credential error")
	}
	for _, want := range []string{"AMADEUS_CLIENT_SECRET", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should name %s: %v", want, err)
		}
	}
	if strings.Contains(err.Error(), "AMADEUS_CLIENT_ID") {
		t.Errorf("error should not name a variable that is set: %v", err)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

	iso, err := config.ParseDate("2025-11-01")
	if err != nil || !iso.Equal(want) {
		t.Errorf("ISO parse: got %v, %v", iso, err)
	}
	dmy, err := config.ParseDate("01/11/2025")
	if err != nil || !dmy.Equal(want) {
		t.Errorf("DD/MM/YYYY parse: got %v, %v", dmy, err)
	}
	if _, err := config.ParseDate("November 1"); err == nil {
		t.Error("expected error for unparseable date")
	}
}
