// Package config provides centralized configuration loaded from environment
// variables. Shared by every farewatch subcommand.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Amadeus endpoints — test vs production, selected by AMADEUS_ENV
// --------------------------------------------------------------------------

const (
	testOAuthURL  = "https://test.api.amadeus.com/v1/security/oauth2/token"
	testSearchURL = "https://test.api.amadeus.com/v2/shopping/flight-offers"
	prodOAuthURL  = "https://api.amadeus.com/v1/security/oauth2/token"
	prodSearchURL = "https://api.amadeus.com/v2/shopping/flight-offers"
)

// TelegramAPIBase is the Telegram Bot API host.
const TelegramAPIBase = "https://api.telegram.org"

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Amadeus credentials and endpoints
	AmadeusClientID     string
	AmadeusClientSecret string
	AmadeusEnv          string // test, prod
	OAuthURL            string
	SearchURL           string

	// Telegram
	TelegramBotToken string
	TelegramChatID   string

	// Local resources
	StateFile string
	StateDSN  string // non-empty switches the state store to Postgres
	LogFile   string
	TokenFile string

	// Search defaults (overridable per run via flags)
	Origin      string
	Destination string
	DateFrom    string
	DateTo      string
	OneWay      bool
	MinNights   int
	MaxNights   int
	Adults      int
	Currency    string
	TargetPrice float64
	MinDropPct  float64
	MaxDates    int
	RateLimit   int // search requests per minute
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	env := strings.ToLower(strings.TrimSpace(envOr("AMADEUS_ENV", "test")))
	cfg := &Config{
		AmadeusClientID:     envOr("AMADEUS_CLIENT_ID", ""),
		AmadeusClientSecret: envOr("AMADEUS_CLIENT_SECRET", ""),
		AmadeusEnv:          env,

		TelegramBotToken: envOr("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   envOr("TELEGRAM_CHAT_ID", ""),

		StateFile: envOr("FAREWATCH_STATE_FILE", "price_state.json"),
		StateDSN:  envOr("FAREWATCH_STATE_DSN", ""),
		LogFile:   envOr("FAREWATCH_LOG_FILE", "price_log.txt"),
		TokenFile: envOr("FAREWATCH_TOKEN_FILE", ".amadeus_token.json"),

		Origin:      envOr("FAREWATCH_ORIGIN", "EZE"),
		Destination: envOr("FAREWATCH_DESTINATION", "MAD"),
		DateFrom:    envOr("FAREWATCH_DATE_FROM", ""),
		DateTo:      envOr("FAREWATCH_DATE_TO", ""),
		OneWay:      envBool("FAREWATCH_ONE_WAY", false),
		MinNights:   envInt("FAREWATCH_MIN_NIGHTS", 7),
		MaxNights:   envInt("FAREWATCH_MAX_NIGHTS", 21),
		Adults:      envInt("FAREWATCH_ADULTS", 1),
		Currency:    envOr("FAREWATCH_CURRENCY", "USD"),
		TargetPrice: envFloat("FAREWATCH_TARGET_PRICE", 600),
		MinDropPct:  envFloat("FAREWATCH_MIN_DROP_PCT", 8),
		MaxDates:    envInt("FAREWATCH_MAX_DATES", 20),
		RateLimit:   envInt("FAREWATCH_RATE_LIMIT", 30),
	}

	switch env {
	case "prod":
		cfg.OAuthURL = prodOAuthURL
		cfg.SearchURL = prodSearchURL
	case "test":
		cfg.OAuthURL = testOAuthURL
		cfg.SearchURL = testSearchURL
	default:
		return nil, fmt.Errorf("AMADEUS_ENV must be \"test\" or \"prod\", got %q", env)
	}

	return cfg, nil
}

// RequireCredentials verifies that every credential a check run needs is set.
// Called before any network I/O so a misconfigured run fails fast.
func (c *Config) RequireCredentials() error {
	var missing []string
	for _, v := range []struct{ name, value string }{
		{"AMADEUS_CLIENT_ID", c.AmadeusClientID},
		{"AMADEUS_CLIENT_SECRET", c.AmadeusClientSecret},
		{"TELEGRAM_BOT_TOKEN", c.TelegramBotToken},
		{"TELEGRAM_CHAT_ID", c.TelegramChatID},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ParseDate parses a window bound. ISO 2006-01-02 is the primary format;
// DD/MM/YYYY is accepted for compatibility with older configs.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or DD/MM/YYYY)", s)
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}
