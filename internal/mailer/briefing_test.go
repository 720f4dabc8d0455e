package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/classify"
	"github.com/vninfra/infranews/internal/digest"
	"github.com/vninfra/infranews/internal/notify"
)

func TestBriefingHTMLLayout(t *testing.T) {
	t.Parallel()

	html, err := briefingHTML(testBriefing())
	if err != nil {
		t.Fatalf("briefingHTML: %v", err)
	}

	for _, want := range []string{
		"Daily Briefing - 2026-08-25",
		"Environment",
		"Energy Develop.",
		"Waste Water: 1",
		"Power: 1",
		"Binh Duong",
		"Vietnam (Common)",
		"[Binh Duong]",
		"Biwase expands wastewater plant",
		"Báo Đầu tư",
		`href="https://example.org/dash"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("briefing missing %q", want)
		}
	}
	if strings.Contains(html, "No articles collected.") {
		t.Error("placeholder shown despite top news")
	}
}

func TestBriefingHTMLSkipsEmptyAreas(t *testing.T) {
	t.Parallel()

	d := digest.Build([]*article.Article{{
		ID:           "a1",
		Source:       "VnExpress",
		Title:        "Hanoi upgrades drainage network",
		Sector:       "Water Supply/Drainage",
		Area:         classify.AreaEnvironment,
		Province:     "Hanoi",
		FirstSeenAt:  time.Date(2026, time.August, 25, 8, 0, 0, 0, time.UTC),
		SummaryState: article.StatePending,
	}}, time.Time{}, time.Date(2026, time.August, 25, 18, 0, 0, 0, time.UTC))
	b := &notify.Briefing{Digest: d, Lang: "en", DashboardURL: "https://example.org/dash"}

	html, err := briefingHTML(b)
	if err != nil {
		t.Fatalf("briefingHTML: %v", err)
	}
	if !strings.Contains(html, "Environment") {
		t.Error("environment row missing")
	}
	if strings.Contains(html, "Energy Develop.") || strings.Contains(html, "Urban Develop.") {
		t.Error("empty areas should be skipped")
	}
}

func TestBriefingHTMLEmptyDigest(t *testing.T) {
	t.Parallel()

	d := digest.Build(nil, time.Time{}, time.Date(2026, time.August, 25, 18, 0, 0, 0, time.UTC))
	b := &notify.Briefing{Digest: d, Lang: "en", DashboardURL: "https://example.org/dash"}

	html, err := briefingHTML(b)
	if err != nil {
		t.Fatalf("briefingHTML: %v", err)
	}
	if !strings.Contains(html, "No articles collected.") {
		t.Error("placeholder missing for empty digest")
	}
}
