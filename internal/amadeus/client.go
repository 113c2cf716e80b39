// Package amadeus provides the HTTP client for the Amadeus Flight Offers
// Search API: OAuth2 client-credentials token acquisition with an on-disk
// cache, and rate-limited offer searches with a single retry on a stale token.
package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const requestTimeout = 30 * time.Second

// Config carries the endpoints and credentials for a Client.
type Config struct {
	OAuthURL     string
	SearchURL    string
	ClientID     string
	ClientSecret string
	TokenFile    string
	// RequestsPerMinute caps search call volume; 0 means the default of 30.
	RequestsPerMinute int
}

// Client is the Amadeus API client. All calls block the caller; there is no
// internal concurrency.
type Client struct {
	httpClient   *http.Client
	oauthURL     string
	searchURL    string
	clientID     string
	clientSecret string
	tokenFile    string
	limiter      *rate.Limiter
	logger       *slog.Logger
}

// NewClient creates an Amadeus client with rate limiting.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	return &Client{
		httpClient:   &http.Client{Timeout: requestTimeout},
		oauthURL:     cfg.OAuthURL,
		searchURL:    cfg.SearchURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenFile:    cfg.TokenFile,
		limiter:      rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		logger:       logger,
	}
}

// Query describes one flight-offers search request.
type Query struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    time.Time // zero value means one-way
	Adults        int
	Currency      string
	// MaxResults is a response-size hint forwarded to the API.
	MaxResults int
}

func (q Query) params() url.Values {
	v := url.Values{
		"originLocationCode":      {q.Origin},
		"destinationLocationCode": {q.Destination},
		"departureDate":           {q.DepartureDate.Format("2006-01-02")},
		"adults":                  {strconv.Itoa(q.Adults)},
		"currencyCode":            {q.Currency},
	}
	if !q.ReturnDate.IsZero() {
		v.Set("returnDate", q.ReturnDate.Format("2006-01-02"))
	}
	if q.MaxResults > 0 {
		v.Set("max", strconv.Itoa(q.MaxResults))
	}
	return v
}

// SearchOffers runs one flight-offers search. On exactly one unauthorized
// response it fetches a fresh token and retries the same request once; a
// second rejection is fatal. An empty offer list is a valid result.
func (c *Client) SearchOffers(ctx context.Context, q Query) ([]Offer, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	status, body, err := c.doSearch(ctx, q, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		// Stale token: refresh once and retry this request once.
		token, err = c.fetchToken(ctx)
		if err != nil {
			return nil, err
		}
		status, body, err = c.doSearch(ctx, q, token)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			c.logger.Error("search unauthorized after token refresh", "body", truncate(body, 300))
			return nil, &AuthError{Status: status, Body: truncate(body, 300)}
		}
	}

	if status != http.StatusOK {
		c.logger.Error("search request failed", "status", status, "body", truncate(body, 300))
		return nil, fmt.Errorf("flight offers search returned %d: %s", status, truncate(body, 200))
	}

	var envelope struct {
		Data []wireOffer `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	offers := make([]Offer, 0, len(envelope.Data))
	for _, w := range envelope.Data {
		offers = append(offers, normalizeOffer(w, q.DepartureDate, q.Currency))
	}
	return offers, nil
}

func (c *Client) doSearch(ctx context.Context, q Query, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+q.params().Encode(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read search response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
