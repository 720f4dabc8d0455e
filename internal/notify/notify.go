// Package notify fans the daily briefing out to the configured delivery
// channels. Channels fail independently: one refused webhook never blocks
// the others, the manager just records the outcome per channel.
package notify

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vninfra/infranews/internal/digest"
	"github.com/vninfra/infranews/internal/logger"
	"github.com/vninfra/infranews/internal/metrics"
)

// StatusOK marks a successful delivery in the per-channel results.
const StatusOK = "ok"

// Briefing bundles the digest with the presentation settings channels use
// to render their payloads.
type Briefing struct {
	Digest       *digest.Digest
	Lang         string
	DashboardURL string
}

// Text renders the briefing message in the configured language.
func (b *Briefing) Text() string {
	return b.Digest.Text(b.Lang, b.DashboardURL)
}

// Notifier is one delivery channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, b *Briefing) error
}

// Manager delivers one briefing to every channel concurrently.
type Manager struct {
	channels []Notifier
}

func NewManager(channels ...Notifier) *Manager {
	return &Manager{channels: channels}
}

// Channels reports how many channels are configured.
func (m *Manager) Channels() int { return len(m.channels) }

// SendAll delivers the briefing everywhere and returns the outcome per
// channel name: StatusOK or the error text.
func (m *Manager) SendAll(ctx context.Context, b *Briefing) map[string]string {
	results := make([]string, len(m.channels))

	var g errgroup.Group
	for i, ch := range m.channels {
		g.Go(func() error {
			if err := ch.Send(ctx, b); err != nil {
				logger.Error("Notification failed", "channel", ch.Name(), "error", err)
				metrics.Global.IncrementNotificationsFailed()
				results[i] = err.Error()
				return nil
			}
			logger.Info("Notification sent", "channel", ch.Name())
			metrics.Global.IncrementNotificationsSent()
			results[i] = StatusOK
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]string, len(m.channels))
	for i, ch := range m.channels {
		out[ch.Name()] = results[i]
	}
	return out
}
