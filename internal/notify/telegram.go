// Package notify isolates notification delivery so the channel can change
// without touching the callers.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sender delivers alert text to one fixed recipient channel.
type Sender interface {
	Send(ctx context.Context, text string) error
	Validate() error
}

// TelegramSender posts messages to a Telegram chat via the Bot API.
type TelegramSender struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegram returns a sender with a shared HTTP client. baseURL is the API
// host, normally config.TelegramAPIBase.
func NewTelegram(baseURL, token, chatID string) *TelegramSender {
	return &TelegramSender{
		baseURL: baseURL,
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

// Validate ensures enough configuration is present before a run depends on
// delivery.
func (s *TelegramSender) Validate() error {
	if s.token == "" || s.chatID == "" {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required")
	}
	return nil
}

// Send posts one message with HTML parse mode and link previews disabled.
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	payload := map[string]any{
		"chat_id":                  s.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("telegram returned %s", resp.Status)
	}
	return nil
}

// ReportError sends a best-effort failure notice. Delivery problems are
// swallowed so they cannot mask the original error.
func ReportError(ctx context.Context, sender Sender, runErr error) {
	if sender == nil || sender.Validate() != nil {
		return
	}
	_ = sender.Send(ctx, fmt.Sprintf("⚠️ farewatch run failed: %v", runErr))
}
