// Package scraper extracts article body text from news pages. The
// collector uses it to backfill excerpts for candidates that arrive
// without one, typically from site search results.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxBodyRunes  = 1600
	minParagraph  = 20
	paragraphsCap = 8
)

// siteSelectors maps a host suffix to the paragraph selectors that
// work on that site. Unknown hosts fall through to genericSelectors.
var siteSelectors = map[string][]string{
	"vnexpress.net": {".fck_detail p", "article.fck_detail p"},
	"tuoitre.vn":    {".detail-content p", ".content-detail p"},
	"vietnamnews.vn": {
		".article-body p",
		".vnews-content p",
	},
	"vneconomy.vn":    {".detail__content p"},
	"vietnamplus.vn":  {".article-body p", ".cms-body p"},
	"baodautu.vn":     {".detail-content p"},
	"hanoitimes.vn":   {".entry-detail p"},
	"thanhnien.vn":    {".detail-content p"},
	"dantri.com.vn":   {".singular-content p"},
	"tuoitrenews.vn":  {".content p", "#main-detail-body p"},
	"e.vnexpress.net": {".fck_detail p"},
}

var genericSelectors = []string{
	"article p",
	".article p",
	".article-content p",
	".content p",
	".post-content p",
	".entry-content p",
	"main p",
	"#content p",
	"p",
}

// junkMarkers flag boilerplate lines shared across news sites.
var junkMarkers = []string{
	"đọc thêm", "xem thêm", "theo dõi", "quảng cáo", "bình luận",
	"read more", "see also", "related news", "follow us", "subscribe",
	"cookie", "advertisement", "share this",
}

// Extractor fetches article pages and pulls readable body text.
type Extractor struct {
	client *http.Client
}

// New builds an extractor. A nil client gets a 15 second timeout.
func New(client *http.Client) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Extractor{client: client}
}

// Extract downloads one article page and returns its cleaned body
// text, capped to a summarizer-friendly length.
func (e *Extractor) Extract(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}

	text := extractBody(doc, resp.Request.URL.Host)
	if text == "" {
		return "", fmt.Errorf("no readable content at %s", articleURL)
	}
	return text, nil
}

// extractBody tries the host's known selectors first, then the
// generic chain, taking the first selector that yields paragraphs.
func extractBody(doc *goquery.Document, host string) string {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")

	var chains [][]string
	for suffix, selectors := range siteSelectors {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			chains = append(chains, selectors)
			break
		}
	}
	chains = append(chains, genericSelectors)

	for _, selectors := range chains {
		for _, selector := range selectors {
			paragraphs := collectParagraphs(doc, selector)
			if len(paragraphs) > 0 {
				return capRunes(strings.Join(paragraphs, "\n\n"), maxBodyRunes)
			}
		}
	}
	return ""
}

func collectParagraphs(doc *goquery.Document, selector string) []string {
	var paragraphs []string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if len([]rune(text)) < minParagraph || isJunk(text) {
			return true
		}
		paragraphs = append(paragraphs, text)
		return len(paragraphs) < paragraphsCap
	})
	return paragraphs
}

func isJunk(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range junkMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// capRunes truncates to whole paragraphs under the limit, falling
// back to a hard rune cut when the first paragraph alone is too long.
func capRunes(text string, limit int) string {
	if len([]rune(text)) <= limit {
		return text
	}

	paragraphs := strings.Split(text, "\n\n")
	var kept []string
	total := 0
	for _, p := range paragraphs {
		n := len([]rune(p))
		if total+n > limit {
			break
		}
		kept = append(kept, p)
		total += n + 2
	}
	if len(kept) == 0 {
		runes := []rune(text)
		return string(runes[:limit])
	}
	return strings.Join(kept, "\n\n")
}
