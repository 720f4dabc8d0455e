package source

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vninfra/infranews/internal/logger"
)

const (
	defaultSearchPath = "/search?q="
	maxSearchKeywords = 3
	maxSearchLinks    = 15
	minSearchTitleLen = 20
	searchPause       = 500 * time.Millisecond
)

// skipPatterns mark hrefs that are navigation, not articles.
var skipPatterns = []string{
	"/tag/", "/category/", "/author/", "/page/", "/video/",
	"javascript:", "#", "mailto:", ".pdf",
}

// articlePathPattern matches URL shapes Vietnamese news sites use for
// article pages: .html/.htm/.vnp endings, date segments, news and
// story sections, numeric article ids.
var articlePathPattern = regexp.MustCompile(`\.html?(\?|$)|\.vnp(\?|$)|/20\d{2}[/-]|/news/|/article/|/post/|/story/|/tin-tuc/|/bai-viet/|-\d{6,}`)

// SearchSource scrapes a site's search results page for article links.
// It covers sources that publish no usable feed.
type SearchSource struct {
	name     string
	domain   string
	path     string
	keywords []string
	client   *http.Client
	relevant func(string) bool
}

// NewSearchSource builds a search adapter for one site. An empty path
// uses the common /search?q= endpoint.
func NewSearchSource(name, domain, path string, keywords []string, client *http.Client, relevant func(string) bool) *SearchSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if path == "" {
		path = defaultSearchPath
	}
	if len(keywords) > maxSearchKeywords {
		keywords = keywords[:maxSearchKeywords]
	}
	return &SearchSource{
		name:     name,
		domain:   domain,
		path:     path,
		keywords: keywords,
		client:   client,
		relevant: relevant,
	}
}

func (s *SearchSource) Name() string { return s.name }

// baseURL returns the site root, assuming https when the roster lists
// a bare domain.
func (s *SearchSource) baseURL() string {
	if strings.Contains(s.domain, "://") {
		return s.domain
	}
	return "https://" + s.domain
}

// FetchCandidates queries the site search once per keyword and
// extracts article links from the result pages. Search pages carry no
// usable timestamps, so candidates are returned without one and the
// since bound does not apply. A single failing keyword is tolerated;
// the source is unavailable only when every query fails.
func (s *SearchSource) FetchCandidates(ctx context.Context, since time.Time) ([]Candidate, error) {
	var (
		candidates []Candidate
		fetched    int
		lastErr    error
	)
	seen := make(map[string]struct{})

	for i, keyword := range s.keywords {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, &UnavailableError{Source: s.name, Reason: "search cancelled", Err: ctx.Err()}
			case <-time.After(searchPause):
			}
		}

		searchURL := s.baseURL() + s.path + url.QueryEscape(keyword)
		body, err := fetchPage(ctx, s.client, searchURL)
		if err != nil {
			lastErr = err
			logger.Debug("Search query failed", "source", s.name, "keyword", keyword, "error", err)
			continue
		}
		fetched++

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}

		base, err := url.Parse(searchURL)
		if err != nil {
			lastErr = err
			continue
		}

		links := 0
		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			title := strings.TrimSpace(a.Text())

			full, ok := s.resolveArticleLink(base, href, title)
			if !ok {
				return true
			}
			if _, dup := seen[full]; dup {
				return true
			}
			if s.relevant != nil && !s.relevant(title) {
				return true
			}

			seen[full] = struct{}{}
			candidates = append(candidates, Candidate{
				Source: s.name,
				URL:    full,
				Title:  title,
			})
			links++
			return links < maxSearchLinks
		})
	}

	if fetched == 0 && lastErr != nil {
		return nil, &UnavailableError{Source: s.name, Reason: "searching site", Err: lastErr}
	}

	logger.Debug("Search fetched", "source", s.name, "queries", fetched, "candidates", len(candidates))
	return candidates, nil
}

// resolveArticleLink validates an anchor and resolves it against the
// search page URL. Navigation links, short captions and non-article
// URL shapes are rejected.
func (s *SearchSource) resolveArticleLink(base *url.URL, href, title string) (string, bool) {
	if href == "" || len([]rune(title)) < minSearchTitleLen {
		return "", false
	}

	lower := strings.ToLower(href)
	for _, p := range skipPatterns {
		if strings.Contains(lower, p) {
			return "", false
		}
	}
	if !articlePathPattern.MatchString(lower) && !longSlug(lower) {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}

// longSlug reports whether the last path segment looks like a
// hyphenated article slug.
func longSlug(href string) bool {
	seg := href
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	return strings.Count(seg, "-") >= 3
}
