// Package pipeline sequences the run modes over the shared store:
// collect, summarize, output, notify, and the combined full run. Every
// invocation seals exactly one record into the run ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/collector"
	"github.com/vninfra/infranews/internal/digest"
	"github.com/vninfra/infranews/internal/logger"
	"github.com/vninfra/infranews/internal/metrics"
	"github.com/vninfra/infranews/internal/notify"
	"github.com/vninfra/infranews/internal/render"
	"github.com/vninfra/infranews/internal/runlog"
	"github.com/vninfra/infranews/internal/storage"
	"github.com/vninfra/infranews/internal/summarize"
)

// Collector lands new articles from the configured sources.
type Collector interface {
	Collect(ctx context.Context, since time.Time) (*collector.Result, error)
}

// Summarizer processes pending articles through the provider chain.
type Summarizer interface {
	Run(ctx context.Context, retryFailed bool) (*summarize.Result, error)
}

// Generator renders the output artifacts from the full article view.
type Generator interface {
	GenerateAll(articles []*article.Article) (map[string]string, error)
}

// Sender fans the briefing out to the notification channels.
type Sender interface {
	Channels() int
	SendAll(ctx context.Context, b *notify.Briefing) map[string]string
}

// Window bounds one collection period, start inclusive, end exclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowConfig describes the daily collection period: Span of news
// ending at EndHour local time.
type WindowConfig struct {
	Location *time.Location
	EndHour  int
	Span     time.Duration
}

// Current returns the period ending at EndHour on now's local date.
func (c WindowConfig) Current(now time.Time) Window {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	end := time.Date(local.Year(), local.Month(), local.Day(), c.EndHour, 0, 0, 0, loc)
	return Window{Start: end.Add(-c.Span), End: end}
}

// Options tune a pipeline independent of its collaborators.
type Options struct {
	Window       WindowConfig
	OutputDir    string // where full runs drop their run-results file
	DashboardURL string
	NotifyLang   string
}

// Pipeline owns the mode operations. Collaborators are injected so runs
// can be driven against fakes and an in-memory store.
type Pipeline struct {
	store      storage.Store
	ledger     *runlog.Ledger
	collector  Collector
	summarizer Summarizer
	generator  Generator
	sender     Sender
	opts       Options
	now        func() time.Time
}

func New(store storage.Store, ledger *runlog.Ledger, c Collector, s Summarizer, g Generator, n Sender, opts Options) *Pipeline {
	return &Pipeline{
		store:      store,
		ledger:     ledger,
		collector:  c,
		summarizer: s,
		generator:  g,
		sender:     n,
		opts:       opts,
		now:        time.Now,
	}
}

// Collect runs the ingestion stage and seals its run record.
func (p *Pipeline) Collect(ctx context.Context) (*runlog.Record, error) {
	rec := runlog.NewRecord(runlog.ModeCollect)
	return rec, p.seal(rec, p.runCollect(ctx, rec))
}

// Summarize processes pending articles. With retryFailed, previously
// failed articles are reset to pending first.
func (p *Pipeline) Summarize(ctx context.Context, retryFailed bool) (*runlog.Record, error) {
	rec := runlog.NewRecord(runlog.ModeSummarize)
	return rec, p.seal(rec, p.runSummarize(ctx, rec, retryFailed))
}

// Output renders every artifact from the full stored corpus.
func (p *Pipeline) Output(ctx context.Context) (*runlog.Record, error) {
	rec := runlog.NewRecord(runlog.ModeOutput)
	return rec, p.seal(rec, p.runOutput(ctx, rec))
}

// Notify sends the briefing for the current window to all channels.
func (p *Pipeline) Notify(ctx context.Context) (*runlog.Record, error) {
	rec := runlog.NewRecord(runlog.ModeNotify)
	return rec, p.seal(rec, p.runNotify(ctx, rec))
}

// Full runs collect, summarize, output and notify in order. Stages are
// best-effort: a failing stage is recorded and the rest still run, so a
// dead summarizer never blocks the dashboard or the briefing.
func (p *Pipeline) Full(ctx context.Context) (*runlog.Record, error) {
	rec := runlog.NewRecord(runlog.ModeFull)

	var errs []error
	for _, stage := range []struct {
		name string
		run  func() error
	}{
		{"collect", func() error { return p.runCollect(ctx, rec) }},
		{"summarize", func() error { return p.runSummarize(ctx, rec, false) }},
		{"output", func() error { return p.runOutput(ctx, rec) }},
		{"notify", func() error { return p.runNotify(ctx, rec) }},
	} {
		if err := stage.run(); err != nil {
			logger.Error("Stage failed", "run", rec.RunID, "stage", stage.name, "error", err)
			errs = append(errs, err)
		}
	}

	err := p.seal(rec, errors.Join(errs...))

	if p.opts.OutputDir != "" {
		if path, werr := render.WriteRunResults(p.opts.OutputDir, rec); werr != nil {
			logger.Error("Run results write failed", "run", rec.RunID, "error", werr)
		} else {
			logger.Debug("Run results written", "path", path)
		}
	}
	return rec, err
}

func (p *Pipeline) runCollect(ctx context.Context, rec *runlog.Record) error {
	w := p.opts.Window.Current(p.now())
	logger.Info("Collect stage", "run", rec.RunID, "window_start", w.Start, "window_end", w.End)

	if last, _ := p.ledger.LastSealed(rec.Mode); last != nil {
		if prev := p.opts.Window.Current(last.StartedAt); prev.End.Equal(w.End) {
			logger.Info("Window already collected this period", "previous_run", last.RunID, "window_end", w.End)
		}
	}

	res, err := p.collector.Collect(ctx, w.Start)
	if res != nil {
		rec.SourcesAttempted = res.Sources
		rec.SourcesFailed = res.Failures
		rec.ArticlesNew = len(res.NewIDs)
		rec.ArticlesTotalSeen = res.Candidates
	}
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	return nil
}

func (p *Pipeline) runSummarize(ctx context.Context, rec *runlog.Record, retryFailed bool) error {
	res, err := p.summarizer.Run(ctx, retryFailed)
	if res != nil {
		rec.Summarized = res.Summarized
		rec.SummaryFailed = res.Failed
	}
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	return nil
}

func (p *Pipeline) runOutput(ctx context.Context, rec *runlog.Record) error {
	articles, err := p.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("output: loading articles: %w", err)
	}

	paths, err := p.generator.GenerateAll(articles)
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rec.Outputs = append(rec.Outputs, paths[name])
	}
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// runNotify builds the digest for the current window and fans it out.
// Channel failures land in the record, never in the returned error.
func (p *Pipeline) runNotify(ctx context.Context, rec *runlog.Record) error {
	if p.sender.Channels() == 0 {
		logger.Info("No notification channels configured", "run", rec.RunID)
		return nil
	}

	articles, err := p.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("notify: loading articles: %w", err)
	}

	now := p.now()
	w := p.opts.Window.Current(now)
	// Articles land after the nominal boundary when the run starts
	// late; stretch the digest window to now so this run's own appends
	// count.
	if now.After(w.End) {
		w.End = now
	}

	d := digest.Build(articles, w.Start, w.End)
	b := &notify.Briefing{Digest: d, Lang: p.opts.NotifyLang, DashboardURL: p.opts.DashboardURL}
	logger.Info("Notify stage", "run", rec.RunID, "articles", d.Total, "channels", p.sender.Channels())

	rec.Notified = p.sender.SendAll(ctx, b)
	return nil
}

// seal finalizes the record, appends it to the ledger and updates the
// process metrics. The stage error wins; a ledger failure surfaces only
// when the stage itself succeeded.
func (p *Pipeline) seal(rec *runlog.Record, stageErr error) error {
	rec.Seal(stageErr)

	elapsed := rec.FinishedAt.Sub(rec.StartedAt)
	metrics.Global.RecordRunDuration(elapsed)
	if stageErr != nil {
		metrics.Global.SetError(stageErr.Error())
	} else {
		metrics.Global.SetLastRun()
	}

	if err := p.ledger.Append(rec); err != nil {
		logger.Error("Ledger append failed", "run", rec.RunID, "error", err)
		if stageErr == nil {
			return fmt.Errorf("sealing run %s: %w", rec.RunID, err)
		}
	}

	logger.Info("Run sealed", "run", rec.RunID, "mode", rec.Mode, "status", rec.Status, "duration", elapsed)
	return stageErr
}
