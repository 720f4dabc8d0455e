// Package summarize drives the AI summarization stage: it selects
// pending articles from the store, walks a provider chain per article
// and records the outcome as a summary-state transition.
package summarize

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/logger"
	"github.com/vninfra/infranews/internal/metrics"
	"github.com/vninfra/infranews/internal/storage"
)

// Provider generates a multilingual summary for one article.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, a *article.Article) (*article.SummaryPayload, error)
}

// Options tune one summarization pass.
type Options struct {
	BatchSize         int
	RequestsPerMinute int
	Fallback          bool // template summary when every provider fails
}

// Result reports one summarization pass.
type Result struct {
	Attempted  int
	Summarized int
	Failed     int
	Retried    int
}

// Summarizer applies the provider chain to pending articles.
type Summarizer struct {
	store     storage.Store
	providers []Provider
	opts      Options
	limiter   *rate.Limiter
}

// New builds a summarizer. Providers are tried in order per article;
// an empty chain is allowed when fallback is enabled.
func New(store storage.Store, providers []Provider, opts Options) *Summarizer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 20
	}
	return &Summarizer{
		store:     store,
		providers: providers,
		opts:      opts,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1),
	}
}

// Run summarizes every pending article. With retryFailed, articles in
// summarization_failed are reset to pending first and picked up in the
// same pass. One article's failure never aborts the batch; only store
// errors do.
func (s *Summarizer) Run(ctx context.Context, retryFailed bool) (*Result, error) {
	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading articles: %w", err)
	}

	res := &Result{}

	var pending []*article.Article
	for _, a := range all {
		switch a.SummaryState {
		case article.StatePending:
			pending = append(pending, a)
		case article.StateFailed:
			if !retryFailed {
				continue
			}
			if err := s.store.UpdateSummaryState(ctx, a.ID, article.StatePending, nil); err != nil {
				return res, fmt.Errorf("resetting %s for retry: %w", a.ID, err)
			}
			res.Retried++
			pending = append(pending, a)
		}
	}

	if len(pending) == 0 {
		logger.Info("Nothing to summarize")
		return res, nil
	}
	logger.Info("Summarizing", "pending", len(pending), "batch_size", s.opts.BatchSize, "providers", len(s.providers))

	for start := 0; start < len(pending); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(pending))
		for _, a := range pending[start:end] {
			res.Attempted++
			if err := s.summarizeOne(ctx, a); err != nil {
				return res, err
			}
			if a.SummaryState == article.StateSummarized {
				res.Summarized++
			} else {
				res.Failed++
			}
		}
		if end < len(pending) {
			logger.Debug("Batch complete", "done", end, "total", len(pending))
		}
	}

	logger.Info("Summarization finished", "summarized", res.Summarized, "failed", res.Failed)
	return res, nil
}

// summarizeOne walks the provider chain for one article and writes the
// resulting state back. The article's SummaryState field is updated in
// place to reflect the stored outcome.
func (s *Summarizer) summarizeOne(ctx context.Context, a *article.Article) error {
	var lastErr error
	for _, p := range s.providers {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("pacing interrupted: %w", err)
		}

		payload, err := p.Summarize(ctx, a)
		if err != nil {
			lastErr = err
			logger.Warn("Provider failed", "provider", p.Name(), "article", a.ID, "error", err)
			continue
		}

		if err := s.store.UpdateSummaryState(ctx, a.ID, article.StateSummarized, payload); err != nil {
			return fmt.Errorf("recording summary for %s: %w", a.ID, err)
		}
		a.SummaryState = article.StateSummarized
		metrics.Global.IncrementArticlesSummarized()
		logger.Debug("Summarized", "article", a.ID, "provider", p.Name())
		return nil
	}

	if s.opts.Fallback {
		if err := s.store.UpdateSummaryState(ctx, a.ID, article.StateSummarized, FallbackPayload(a)); err != nil {
			return fmt.Errorf("recording fallback summary for %s: %w", a.ID, err)
		}
		a.SummaryState = article.StateSummarized
		metrics.Global.IncrementArticlesSummarized()
		logger.Debug("Summarized with template fallback", "article", a.ID)
		return nil
	}

	reason := "no provider available"
	if lastErr != nil {
		reason = lastErr.Error()
	}
	payload := &article.SummaryPayload{FailureReason: reason}
	if err := s.store.UpdateSummaryState(ctx, a.ID, article.StateFailed, payload); err != nil {
		return fmt.Errorf("recording summary failure for %s: %w", a.ID, err)
	}
	a.SummaryState = article.StateFailed
	metrics.Global.IncrementSummariesFailed()
	return nil
}
