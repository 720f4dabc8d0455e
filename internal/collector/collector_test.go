package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/classify"
	"github.com/vninfra/infranews/internal/source"
	"github.com/vninfra/infranews/internal/storage"
)

type fakeSource struct {
	name       string
	candidates []source.Candidate
	err        error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchCandidates(ctx context.Context, since time.Time) ([]source.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func newCollector(store storage.Store, sources ...source.Source) *Collector {
	return New(store, sources, classify.New(), nil, Options{})
}

func TestCollectPartialSourceFailure(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()

	down := &fakeSource{
		name: "VnExpress",
		err:  &source.UnavailableError{Source: "VnExpress", Reason: "fetching feed", Err: errors.New("timeout")},
	}
	up := &fakeSource{
		name: "Tuoi Tre",
		candidates: []source.Candidate{
			{Source: "Tuoi Tre", URL: "https://tuoitre.vn/nha-may-nuoc-thai-binh-duong-4001.html", Title: "Binh Duong expands wastewater treatment plant capacity"},
			{Source: "Tuoi Tre", URL: "https://tuoitre.vn/dien-khi-quang-tri-4002.html", Title: "Quang Tri LNG power plant starts construction"},
		},
	}

	res, err := newCollector(store, down, up).Collect(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	if res.Attempted != 2 {
		t.Errorf("expected 2 sources attempted, got %d", res.Attempted)
	}
	if len(res.Failures) != 1 || res.Failures[0].Source != "VnExpress" {
		t.Fatalf("expected one failure for VnExpress, got %+v", res.Failures)
	}
	if len(res.NewIDs) != 2 {
		t.Fatalf("expected 2 new articles despite source failure, got %d", len(res.NewIDs))
	}

	all, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 stored articles, got %d", len(all))
	}
	for _, a := range all {
		if a.SummaryState != article.StatePending {
			t.Errorf("expected pending state, got %s", a.SummaryState)
		}
		if a.FirstSeenAt.IsZero() {
			t.Error("expected first_seen_at set")
		}
	}
}

func TestCollectCrossSourceDuplicate(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()

	a := &fakeSource{
		name: "VnExpress",
		candidates: []source.Candidate{{
			Source: "VnExpress",
			URL:    "https://news.vn/wastewater-plant-expansion-4001.html?utm_source=rss&utm_campaign=feed",
			Title:  "Wastewater plant expansion approved in Binh Duong",
		}},
	}
	b := &fakeSource{
		name: "Vietnam News",
		candidates: []source.Candidate{{
			Source: "Vietnam News",
			URL:    "https://www.news.vn/wastewater-plant-expansion-4001.html",
			Title:  "Binh Duong clears central wastewater facility works",
		}},
	}

	res, err := newCollector(store, a, b).Collect(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	if len(res.NewIDs) != 1 {
		t.Fatalf("expected tracking-param variant collapsed to 1 article, got %d", len(res.NewIDs))
	}
	if res.Duplicates != 1 {
		t.Errorf("expected 1 duplicate counted, got %d", res.Duplicates)
	}

	all, _ := store.LoadAll(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected 1 stored article, got %d", len(all))
	}
	if all[0].Source != "VnExpress" {
		t.Errorf("expected first source to win, got %s", all[0].Source)
	}
}

func TestCollectTitleDuplicate(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()

	src := &fakeSource{
		name: "VnExpress",
		candidates: []source.Candidate{
			{Source: "VnExpress", URL: "https://news.vn/a-4001.html", Title: "Hanoi opens solid waste incineration plant in Soc Son"},
			{Source: "VnExpress", URL: "https://news.vn/b-4002.html", Title: "HANOI opens solid   waste incineration plant in Soc Son"},
		},
	}

	res, err := newCollector(store, src).Collect(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(res.NewIDs) != 1 || res.Duplicates != 1 {
		t.Fatalf("expected title variants deduped, got new=%d dup=%d", len(res.NewIDs), res.Duplicates)
	}
}

func TestCollectSkipsKnownArticles(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()

	url := "https://news.vn/quang-ninh-lng-4001.html"
	title := "Quang Ninh LNG terminal reaches financial close"
	known := &article.Article{
		ID:           article.ComputeID("VnExpress", url, title),
		Source:       "VnExpress",
		URL:          url,
		Title:        title,
		FirstSeenAt:  time.Now().UTC(),
		SummaryState: article.StatePending,
	}
	if err := store.Append(context.Background(), known); err != nil {
		t.Fatalf("seed append: %v", err)
	}

	src := &fakeSource{
		name:       "VnExpress",
		candidates: []source.Candidate{{Source: "VnExpress", URL: url, Title: title}},
	}

	res, err := newCollector(store, src).Collect(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(res.NewIDs) != 0 {
		t.Fatalf("expected no new articles, got %d", len(res.NewIDs))
	}
	if res.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", res.Duplicates)
	}
}

func TestCollectClassifiesArticles(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()

	src := &fakeSource{
		name: "Vietnam News",
		candidates: []source.Candidate{
			{Source: "Vietnam News", URL: "https://news.vn/quang-tri-lng-4001.html", Title: "Quang Tri LNG power plant starts construction"},
			{Source: "Vietnam News", URL: "https://news.vn/update-4002.html", Title: "General briefing on southern region construction markets"},
		},
	}

	_, err := newCollector(store, src).Collect(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	all, _ := store.LoadAll(context.Background())
	if len(all) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(all))
	}

	power := all[0]
	if power.Sector != "Power" || power.Area != classify.AreaEnergy {
		t.Errorf("expected Power/Energy Develop., got %s/%s", power.Sector, power.Area)
	}
	if power.Province != "Quang Tri" {
		t.Errorf("expected Quang Tri province, got %s", power.Province)
	}

	unmatched := all[1]
	if unmatched.Sector != classify.DefaultSector || unmatched.Area != classify.AreaEnvironment {
		t.Errorf("expected default sector, got %s/%s", unmatched.Sector, unmatched.Area)
	}
}

func TestCollectCapsPerSource(t *testing.T) {
	store := storage.NewMemoryStore()
	defer store.Close()

	src := &fakeSource{
		name: "VnExpress",
		candidates: []source.Candidate{
			{Source: "VnExpress", URL: "https://news.vn/wastewater-a-4001.html", Title: "Dong Nai wastewater network upgrade enters second phase"},
			{Source: "VnExpress", URL: "https://news.vn/wastewater-b-4002.html", Title: "Can Tho builds new drainage pumping station downtown"},
		},
	}

	c := New(store, []source.Source{src}, classify.New(), nil, Options{MaxPerSource: 1})
	res, err := c.Collect(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if res.Candidates != 1 || len(res.NewIDs) != 1 {
		t.Fatalf("expected cap at 1 candidate, got candidates=%d new=%d", res.Candidates, len(res.NewIDs))
	}
}
