package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// A cached token is reused until it is expired or within 60 seconds of expiry.
const tokenExpirySkew = 60 * time.Second

// cachedToken is the on-disk token cache record.
type cachedToken struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // unix seconds
}

// AuthError reports a credential rejection that survived the single
// refresh-and-retry allowed for a stale token.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("amadeus authorization failed (status %d): %s", e.Status, e.Body)
}

// Token returns a bearer token, reusing the on-disk cache while it has more
// than the expiry skew left.
func (c *Client) Token(ctx context.Context) (string, error) {
	if tok, ok := c.loadCachedToken(); ok {
		return tok, nil
	}
	return c.fetchToken(ctx)
}

func (c *Client) loadCachedToken() (string, bool) {
	raw, err := os.ReadFile(c.tokenFile)
	if err != nil {
		return "", false
	}
	var tok cachedToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", false
	}
	if tok.AccessToken == "" {
		return "", false
	}
	if time.Unix(tok.ExpiresAt, 0).Add(-tokenExpirySkew).Before(time.Now()) {
		return "", false
	}
	return tok.AccessToken, true
}

// fetchToken exchanges the client credentials for a fresh bearer token,
// bypassing the cache, and persists the result for later runs.
func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Error("token request failed", "status", resp.StatusCode, "body", truncate(body, 300))
		if resp.StatusCode < 500 {
			return "", &AuthError{Status: resp.StatusCode, Body: truncate(body, 300)}
		}
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	cache := cachedToken{
		AccessToken: payload.AccessToken,
		ExpiresAt:   time.Now().Unix() + payload.ExpiresIn,
	}
	if raw, err := json.Marshal(cache); err == nil {
		if err := os.WriteFile(c.tokenFile, raw, 0o600); err != nil {
			c.logger.Warn("persist token cache", "error", err)
		}
	}

	return payload.AccessToken, nil
}
