// Package telegram delivers briefings through the Telegram bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vninfra/infranews/internal/notify"
	"github.com/vninfra/infranews/internal/retry"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier posts the briefing text to one chat or channel.
type Notifier struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
	retry   retry.Config
}

// New builds the bot notifier. A zero retry config gets the default
// three attempts with backoff.
func New(token, chatID string, rc retry.Config) *Notifier {
	if rc.MaxAttempts == 0 {
		rc = retry.Config{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true}
	}
	return &Notifier{
		token:   token,
		chatID:  chatID,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   rc,
	}
}

func (n *Notifier) Name() string { return "telegram" }

func (n *Notifier) Send(ctx context.Context, b *notify.Briefing) error {
	text := b.Text()
	return retry.WithRetry(ctx, n.retry, func() error {
		return n.post(ctx, text)
	})
}

func (n *Notifier) post(ctx context.Context, text string) error {
	payload := map[string]any{
		"chat_id":                  n.chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram API status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
