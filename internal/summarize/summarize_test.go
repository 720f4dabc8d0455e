package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/storage"
)

type fakeProvider struct {
	name  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Summarize(ctx context.Context, a *article.Article) (*article.SummaryPayload, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &article.SummaryPayload{
		Summaries: map[string]string{"en": f.name + " summary for " + a.Title},
		Headlines: map[string]string{"en": a.Title},
	}, nil
}

func fastOpts() Options {
	return Options{BatchSize: 2, RequestsPerMinute: 100000}
}

func seedArticles(t *testing.T, store storage.Store, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		a := &article.Article{
			ID:           fmt.Sprintf("id-%04d", i),
			Source:       "VnExpress",
			URL:          fmt.Sprintf("https://news.vn/article-%04d.html", i),
			Title:        fmt.Sprintf("Wastewater project update number %d", i),
			Sector:       "Waste Water",
			Area:         "Environment",
			Province:     "Binh Duong",
			FirstSeenAt:  time.Now().UTC(),
			SummaryState: article.StatePending,
		}
		if err := store.Append(context.Background(), a); err != nil {
			t.Fatalf("seed append: %v", err)
		}
		ids = append(ids, a.ID)
	}
	return ids
}

func TestRunSummarizesPending(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()
	ids := seedArticles(t, store, 3)

	p := &fakeProvider{name: "claude"}
	res, err := New(store, []Provider{p}, fastOpts()).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if res.Attempted != 3 || res.Summarized != 3 || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if p.calls != 3 {
		t.Errorf("expected 3 provider calls, got %d", p.calls)
	}

	all, _ := store.LoadAll(context.Background())
	for i, a := range all {
		if a.SummaryState != article.StateSummarized {
			t.Errorf("%s: expected summarized, got %s", ids[i], a.SummaryState)
		}
		if a.Summaries["en"] == "" {
			t.Errorf("%s: expected english summary", ids[i])
		}
		if a.SummarizedAt == nil {
			t.Errorf("%s: expected summarized_at set", ids[i])
		}
	}
}

func TestRunProviderChainFallsThrough(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()
	seedArticles(t, store, 1)

	broken := &fakeProvider{name: "claude", err: errors.New("rate limited")}
	backup := &fakeProvider{name: "gemini"}

	res, err := New(store, []Provider{broken, backup}, fastOpts()).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Summarized != 1 {
		t.Fatalf("expected fallthrough to second provider, got %+v", res)
	}

	all, _ := store.LoadAll(context.Background())
	if got := all[0].Summaries["en"]; !strings.HasPrefix(got, "gemini") {
		t.Errorf("expected gemini summary, got %q", got)
	}
}

func TestRunMarksFailedAndRetries(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()
	ids := seedArticles(t, store, 1)

	broken := &fakeProvider{name: "claude", err: errors.New("overloaded")}
	res, err := New(store, []Provider{broken}, fastOpts()).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Failed != 1 || res.Summarized != 0 {
		t.Fatalf("expected failure recorded, got %+v", res)
	}

	all, _ := store.LoadAll(context.Background())
	if all[0].SummaryState != article.StateFailed {
		t.Fatalf("expected summarization_failed, got %s", all[0].SummaryState)
	}
	if all[0].SummaryError != "overloaded" {
		t.Errorf("expected failure reason kept, got %q", all[0].SummaryError)
	}

	// Without the retry flag the failed article stays untouched.
	p := &fakeProvider{name: "gemini"}
	res, err = New(store, []Provider{p}, fastOpts()).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Attempted != 0 || p.calls != 0 {
		t.Fatalf("expected failed article skipped, got %+v calls=%d", res, p.calls)
	}

	// With it the article is reset to pending and summarized.
	res, err = New(store, []Provider{p}, fastOpts()).Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Retried != 1 || res.Summarized != 1 {
		t.Fatalf("expected retry to summarize, got %+v", res)
	}

	all, _ = store.LoadAll(context.Background())
	if all[0].SummaryState != article.StateSummarized {
		t.Errorf("%s: expected summarized after retry, got %s", ids[0], all[0].SummaryState)
	}
	if all[0].SummaryError != "" {
		t.Errorf("expected failure reason cleared, got %q", all[0].SummaryError)
	}
}

func TestRunTemplateFallback(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()
	seedArticles(t, store, 1)

	broken := &fakeProvider{name: "claude", err: errors.New("down")}
	opts := fastOpts()
	opts.Fallback = true

	res, err := New(store, []Provider{broken}, opts).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Summarized != 1 || res.Failed != 0 {
		t.Fatalf("expected template fallback to summarize, got %+v", res)
	}

	all, _ := store.LoadAll(context.Background())
	en := all[0].Summaries["en"]
	if en != "Waste Water project in Binh Duong. Wastewater project update number 0" {
		t.Errorf("unexpected fallback summary: %q", en)
	}
	if all[0].Summaries["ko"] == "" || all[0].Summaries["vi"] == "" {
		t.Error("expected fallback summaries in all languages")
	}
}

func TestRunIgnoresSummarized(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()
	ids := seedArticles(t, store, 2)

	payload := &article.SummaryPayload{Summaries: map[string]string{"en": "done"}}
	if err := store.UpdateSummaryState(context.Background(), ids[0], article.StateSummarized, payload); err != nil {
		t.Fatalf("seed update: %v", err)
	}

	p := &fakeProvider{name: "claude"}
	res, err := New(store, []Provider{p}, fastOpts()).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Attempted != 1 || p.calls != 1 {
		t.Fatalf("expected only the pending article attempted, got %+v calls=%d", res, p.calls)
	}
}
