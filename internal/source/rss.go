package source

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/vninfra/infranews/internal/logger"
)

const (
	maxFeedItems  = 30
	maxExcerptLen = 500
)

// RSSSource reads candidates from one RSS or Atom feed.
type RSSSource struct {
	name     string
	feedURL  string
	client   *http.Client
	parser   *gofeed.Parser
	relevant func(string) bool
}

// NewRSSSource builds an adapter for a single feed. A nil client gets
// a 30 second timeout.
func NewRSSSource(name, feedURL string, client *http.Client, relevant func(string) bool) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RSSSource{
		name:     name,
		feedURL:  feedURL,
		client:   client,
		parser:   gofeed.NewParser(),
		relevant: relevant,
	}
}

func (s *RSSSource) Name() string { return s.name }

// FetchCandidates parses the feed and returns items published since
// the given time. Items without a parseable timestamp pass the window
// filter; dropping them wholesale would lose feeds with sloppy dates.
func (s *RSSSource) FetchCandidates(ctx context.Context, since time.Time) ([]Candidate, error) {
	body, err := fetchPage(ctx, s.client, s.feedURL)
	if err != nil {
		return nil, &UnavailableError{Source: s.name, Reason: "fetching feed", Err: err}
	}

	feed, err := s.parser.ParseString(body)
	if err != nil {
		return nil, &UnavailableError{Source: s.name, Reason: "parsing feed", Err: err}
	}

	items := feed.Items
	if len(items) > maxFeedItems {
		items = items[:maxFeedItems]
	}

	var candidates []Candidate
	for _, item := range items {
		link := itemLink(item)
		if link == "" || item.Title == "" {
			continue
		}

		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published != nil && !since.IsZero() && published.Before(since) {
			continue
		}

		excerpt := trimExcerpt(stripTags(item.Description))
		if s.relevant != nil && !s.relevant(item.Title+" "+excerpt) {
			continue
		}

		candidates = append(candidates, Candidate{
			Source:      s.name,
			URL:         link,
			Title:       strings.TrimSpace(item.Title),
			PublishedAt: published,
			Excerpt:     excerpt,
		})
	}

	logger.Debug("Feed fetched", "source", s.name, "items", len(feed.Items), "candidates", len(candidates))
	return candidates, nil
}

// itemLink prefers the explicit link, falling back to a GUID that
// looks like a URL.
func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	if strings.HasPrefix(item.GUID, "http") {
		return item.GUID
	}
	return ""
}

// stripTags removes HTML markup from feed descriptions and collapses
// whitespace.
func stripTags(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func trimExcerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= maxExcerptLen {
		return s
	}
	return string(runes[:maxExcerptLen])
}
