package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

const testSearchPage = `<html><body>
<nav><a href="/category/business">Business and investment category page</a></nav>
<div class="results">
  <a href="/news/binh-duong-builds-new-wastewater-plant-4001.html">Binh Duong builds new wastewater treatment plant</a>
  <a href="/news/binh-duong-builds-new-wastewater-plant-4001.html">Binh Duong builds new wastewater treatment plant</a>
  <a href="/news/x.html">Short</a>
  <a href="/tag/wastewater">Wastewater infrastructure projects archive listing</a>
  <a href="https://other.example.vn/hanoi-metro-line-five-construction-begins-9002.html">Hanoi metro line five construction begins this week</a>
  <a href="/about-us">About our newsroom and editorial standards team</a>
</div>
</body></html>`

func TestSearchFetchCandidates(t *testing.T) {
	t.Parallel()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(testSearchPage))
	}))
	defer server.Close()

	src := NewSearchSource("Vietnam News", server.URL, "", []string{"wastewater treatment"}, server.Client(), nil)

	candidates, err := src.FetchCandidates(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("FetchCandidates error: %v", err)
	}

	if gotQuery != "wastewater treatment" {
		t.Errorf("expected keyword in search query, got %q", gotQuery)
	}

	if len(candidates) != 2 {
		for _, c := range candidates {
			t.Logf("candidate: %s %s", c.Title, c.URL)
		}
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.URL != server.URL+"/news/binh-duong-builds-new-wastewater-plant-4001.html" {
		t.Errorf("expected relative link resolved against site, got %s", first.URL)
	}
	if first.Source != "Vietnam News" {
		t.Errorf("unexpected source: %s", first.Source)
	}
	if first.PublishedAt != nil {
		t.Errorf("search candidates carry no timestamp, got %v", first.PublishedAt)
	}

	if candidates[1].URL != "https://other.example.vn/hanoi-metro-line-five-construction-begins-9002.html" {
		t.Errorf("unexpected second candidate: %s", candidates[1].URL)
	}
}

func TestSearchRelevanceGate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testSearchPage))
	}))
	defer server.Close()

	relevant := func(text string) bool {
		return strings.Contains(strings.ToLower(text), "metro")
	}
	src := NewSearchSource("Vietnam News", server.URL, "", []string{"metro"}, server.Client(), relevant)

	candidates, err := src.FetchCandidates(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("FetchCandidates error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate past the relevance gate, got %d", len(candidates))
	}
	if !strings.Contains(candidates[0].Title, "metro") {
		t.Errorf("unexpected candidate: %s", candidates[0].Title)
	}
}

func TestSearchUnavailableWhenAllQueriesFail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	src := NewSearchSource("VnEconomy", server.URL, "", []string{"power"}, server.Client(), nil)

	_, err := src.FetchCandidates(context.Background(), time.Time{})
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnavailableError, got %v", err)
	}
	if ue.Source != "VnEconomy" {
		t.Errorf("unexpected source in error: %s", ue.Source)
	}
}

func TestResolveArticleLink(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://vietnamnews.vn/search?q=power")
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}
	src := &SearchSource{name: "Vietnam News", domain: "vietnamnews.vn"}

	title := "Long enough headline about infrastructure work"
	cases := []struct {
		href string
		want string
		ok   bool
	}{
		{"/economy/1234567/project.html", "https://vietnamnews.vn/economy/1234567/project.html", true},
		{"https://vietnamnews.vn/news/2026/08/project", "https://vietnamnews.vn/news/2026/08/project", true},
		{"/long-hyphenated-article-slug-here", "https://vietnamnews.vn/long-hyphenated-article-slug-here", true},
		{"/tag/energy", "", false},
		{"/author/somebody.html", "", false},
		{"javascript:void(0)", "", false},
		{"/report.pdf", "", false},
		{"/contact", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := src.resolveArticleLink(base, tc.href, title)
		if ok != tc.ok {
			t.Errorf("resolveArticleLink(%q): expected ok=%v, got %v", tc.href, tc.ok, ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("resolveArticleLink(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}

	if _, ok := src.resolveArticleLink(base, "/economy/1234567/project.html", "Short"); ok {
		t.Error("expected short anchor text rejected")
	}
}
