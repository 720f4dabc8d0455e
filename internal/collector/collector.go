// Package collector runs the ingestion pass: fetch candidates from
// every configured source, drop what the store already has, classify
// the rest and append them as pending articles.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/classify"
	"github.com/vninfra/infranews/internal/logger"
	"github.com/vninfra/infranews/internal/metrics"
	"github.com/vninfra/infranews/internal/runlog"
	"github.com/vninfra/infranews/internal/scraper"
	"github.com/vninfra/infranews/internal/source"
	"github.com/vninfra/infranews/internal/storage"
)

const (
	titleDedupeRunes = 60
	enrichCap        = 5
)

// Options tune one collection pass.
type Options struct {
	Timeout         time.Duration // per-source fetch bound
	Concurrency     int           // parallel source fetches
	MaxPerSource    int           // candidate cap per source
	MinExcerptRunes int           // excerpts shorter than this get page extraction
}

// Result reports one collection pass. Failures hold per-source
// errors; they never abort the pass.
type Result struct {
	NewIDs     []string
	Sources    []string
	Failures   []runlog.SourceFailure
	Attempted  int
	Candidates int
	Duplicates int
}

// Collector lands new articles in the store.
type Collector struct {
	store      storage.Store
	sources    []source.Source
	classifier *classify.Classifier
	extractor  *scraper.Extractor
	opts       Options
	now        func() time.Time
}

// New builds a collector. The extractor may be nil to skip excerpt
// backfill for candidates that arrive without one.
func New(store storage.Store, sources []source.Source, classifier *classify.Classifier, extractor *scraper.Extractor, opts Options) *Collector {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.MaxPerSource <= 0 {
		opts.MaxPerSource = 50
	}
	if opts.MinExcerptRunes <= 0 {
		opts.MinExcerptRunes = 1 // backfill only when the excerpt is empty
	}
	return &Collector{
		store:      store,
		sources:    sources,
		classifier: classifier,
		extractor:  extractor,
		opts:       opts,
		now:        time.Now,
	}
}

// Collect fetches all sources concurrently, then merges candidates
// sequentially in roster order so run records stay reproducible. A
// failing source is recorded and skipped; only store errors are
// returned.
func (c *Collector) Collect(ctx context.Context, since time.Time) (*Result, error) {
	res := &Result{Attempted: len(c.sources)}
	for _, src := range c.sources {
		res.Sources = append(res.Sources, src.Name())
	}

	fetched := make([][]source.Candidate, len(c.sources))
	failures := make([]*runlog.SourceFailure, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, src := range c.sources {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gctx, c.opts.Timeout)
			defer cancel()

			candidates, err := src.FetchCandidates(fctx, since)
			if err != nil {
				failures[i] = &runlog.SourceFailure{Source: src.Name(), Reason: failureReason(err)}
				metrics.Global.IncrementSourceFailures()
				logger.Warn("Source unavailable", "source", src.Name(), "error", err)
				return nil
			}
			fetched[i] = candidates
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range failures {
		if f != nil {
			res.Failures = append(res.Failures, *f)
		}
	}

	seenTitles := make(map[string]struct{})
	enriched := 0

	for i, candidates := range fetched {
		if len(candidates) > c.opts.MaxPerSource {
			candidates = candidates[:c.opts.MaxPerSource]
		}
		res.Candidates += len(candidates)
		metrics.Global.AddCandidatesFetched(len(candidates))

		for _, cand := range candidates {
			if cand.URL == "" || cand.Title == "" {
				continue
			}

			titleKey := dedupeKey(cand.Title)
			if _, dup := seenTitles[titleKey]; dup {
				res.Duplicates++
				metrics.Global.AddDuplicatesSkipped(1)
				continue
			}

			id := article.ComputeID(cand.Source, cand.URL, cand.Title)
			known, err := c.store.Contains(ctx, id)
			if err != nil {
				return res, fmt.Errorf("checking store for %s: %w", id, err)
			}
			if known {
				seenTitles[titleKey] = struct{}{}
				res.Duplicates++
				metrics.Global.AddDuplicatesSkipped(1)
				continue
			}

			excerpt := cand.Excerpt
			if len([]rune(excerpt)) < c.opts.MinExcerptRunes && c.extractor != nil && enriched < enrichCap {
				enriched++
				if text, err := c.extractor.Extract(ctx, cand.URL); err == nil {
					excerpt = text
				} else {
					logger.Debug("Excerpt backfill failed", "url", cand.URL, "error", err)
				}
			}

			a := c.newArticle(id, cand, excerpt)
			if err := c.store.Append(ctx, a); err != nil {
				if errors.Is(err, storage.ErrDuplicateArticle) {
					seenTitles[titleKey] = struct{}{}
					res.Duplicates++
					metrics.Global.AddDuplicatesSkipped(1)
					continue
				}
				return res, fmt.Errorf("appending %s: %w", id, err)
			}

			seenTitles[titleKey] = struct{}{}
			res.NewIDs = append(res.NewIDs, id)
			metrics.Global.AddArticlesNew(1)
		}

		if len(candidates) > 0 {
			logger.Info("Source merged", "source", c.sources[i].Name(), "candidates", len(candidates))
		}
	}

	logger.Info("Collection finished",
		"sources", res.Attempted,
		"failed", len(res.Failures),
		"candidates", res.Candidates,
		"new", len(res.NewIDs),
		"duplicates", res.Duplicates)
	return res, nil
}

// newArticle normalizes one candidate into a pending article.
func (c *Collector) newArticle(id string, cand source.Candidate, excerpt string) *article.Article {
	text := cand.Title + " " + excerpt
	sector, area, ok := c.classifier.Classify(text)
	if !ok {
		sector, area = classify.DefaultSector, classify.AreaEnvironment
	}

	return &article.Article{
		ID:           id,
		Source:       cand.Source,
		URL:          cand.URL,
		Title:        cand.Title,
		PublishedAt:  cand.PublishedAt,
		Excerpt:      excerpt,
		Sector:       sector,
		Area:         area,
		Province:     c.classifier.Province(text),
		FirstSeenAt:  c.now().UTC(),
		SummaryState: article.StatePending,
	}
}

// failureReason keeps the ledger entry short: the adapter's own
// reason when it reported one, the error text otherwise.
func failureReason(err error) string {
	var ue *source.UnavailableError
	if errors.As(err, &ue) {
		if ue.Err != nil {
			return fmt.Sprintf("%s: %v", ue.Reason, ue.Err)
		}
		return ue.Reason
	}
	return err.Error()
}

// dedupeKey folds a title the way duplicate syndicated stories match:
// lowercased and truncated.
func dedupeKey(title string) string {
	key := article.NormalizeTitle(title)
	runes := []rune(key)
	if len(runes) > titleDedupeRunes {
		runes = runes[:titleDedupeRunes]
	}
	return string(runes)
}
