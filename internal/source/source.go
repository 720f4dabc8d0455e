// Package source defines the adapter interface over heterogeneous news
// sources (RSS feeds, site search pages) and the YAML roster they are
// configured from. Adapters emit raw candidates; normalization into
// stored articles is the collector's job.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Candidate is a raw article reference as one source reports it,
// before identity assignment and classification.
type Candidate struct {
	Source      string
	URL         string
	Title       string
	PublishedAt *time.Time
	Excerpt     string
}

// Source fetches candidate articles published since a given time.
// A zero since means no lower bound. Candidates without a parseable
// timestamp are returned rather than dropped.
type Source interface {
	Name() string
	FetchCandidates(ctx context.Context, since time.Time) ([]Candidate, error)
}

// UnavailableError means one source could not be fetched or parsed.
// The collector records it and continues with the remaining sources.
type UnavailableError struct {
	Source string
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s unavailable: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("source %s unavailable: %s", e.Source, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// FeedConfig is one RSS feed entry in the roster.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SearchConfig is one site-search entry in the roster. Path is the
// site's search endpoint with a trailing query key, for example
// "/search?q=" or "/tim-kiem?q="; it defaults to "/search?q=".
// Entries without their own keywords use the roster-wide list.
type SearchConfig struct {
	Name     string   `yaml:"name"`
	Domain   string   `yaml:"domain"`
	Path     string   `yaml:"path"`
	Keywords []string `yaml:"keywords"`
}

// Roster is the full source list loaded from YAML config.
type Roster struct {
	Feeds    []FeedConfig   `yaml:"feeds"`
	Searches []SearchConfig `yaml:"searches"`
	Keywords []string       `yaml:"keywords"`
}

// LoadRoster reads the source roster from a YAML file.
func LoadRoster(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source roster: %w", err)
	}
	defer f.Close()

	var r Roster
	if err := yaml.NewDecoder(f).Decode(&r); err != nil {
		return nil, fmt.Errorf("parsing source roster %s: %w", path, err)
	}
	return &r, nil
}

// Build constructs adapters from the roster in configured order, feeds
// first, then searches. The order is fixed so run records stay
// reproducible. The relevant predicate prefilters candidates by text;
// nil accepts everything.
func (r *Roster) Build(client *http.Client, relevant func(string) bool) []Source {
	sources := make([]Source, 0, len(r.Feeds)+len(r.Searches))
	for _, fc := range r.Feeds {
		if fc.URL == "" {
			continue
		}
		name := fc.Name
		if name == "" {
			name = fc.URL
		}
		sources = append(sources, NewRSSSource(name, fc.URL, client, relevant))
	}
	for _, sc := range r.Searches {
		if sc.Domain == "" {
			continue
		}
		keywords := sc.Keywords
		if len(keywords) == 0 {
			keywords = r.Keywords
		}
		name := sc.Name
		if name == "" {
			name = sc.Domain
		}
		sources = append(sources, NewSearchSource(name, sc.Domain, sc.Path, keywords, client, relevant))
	}
	return sources
}

// fetchPage retrieves one URL with a browser user agent. News sites
// commonly reject the default Go agent.
func fetchPage(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
