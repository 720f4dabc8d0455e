// Package slack delivers briefings to a Slack incoming webhook.
package slack

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

// Notifier posts the briefing text to one incoming webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	retry      retry.Config
}

// New builds the webhook notifier. A zero retry config gets the
// default three attempts with backoff.
func New(webhookURL string, rc retry.Config) *Notifier {
	if rc.MaxAttempts == 0 {
		rc = retry.Config{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true}
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		retry:      rc,
	}
}

func (n *Notifier) Name() string { return "slack" }

func (n *Notifier) Send(ctx context.Context, b *notify.Briefing) error {
	body, err := json.Marshal(map[string]string{"text": b.Text()})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	return retry.WithRetry(ctx, n.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return fmt.Errorf("post webhook: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("slack webhook status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
		}
		return nil
	})
}
