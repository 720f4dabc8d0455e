package article

import (
	"testing"
	"time"
)

func TestValidTransition(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to SummaryState }{
		{StatePending, StateSummarized},
		{StatePending, StateFailed},
		{StateFailed, StatePending},
	}
	for _, tr := range allowed {
		if !ValidTransition(tr.from, tr.to) {
			t.Errorf("transition %s -> %s should be allowed", tr.from, tr.to)
		}
	}

	forbidden := []struct{ from, to SummaryState }{
		{StateSummarized, StatePending},
		{StateSummarized, StateFailed},
		{StateSummarized, StateSummarized},
		{StatePending, StatePending},
		{StateFailed, StateSummarized},
		{StateFailed, StateFailed},
	}
	for _, tr := range forbidden {
		if ValidTransition(tr.from, tr.to) {
			t.Errorf("transition %s -> %s must be rejected", tr.from, tr.to)
		}
	}
}

func TestEffectiveDate(t *testing.T) {
	t.Parallel()

	seen := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	a := &Article{FirstSeenAt: seen}
	if got := a.EffectiveDate(); !got.Equal(seen) {
		t.Fatalf("EffectiveDate without published_at = %v, want first_seen_at", got)
	}

	pub := time.Date(2025, 6, 30, 18, 30, 0, 0, time.UTC)
	a.PublishedAt = &pub
	if got := a.EffectiveDate(); !got.Equal(pub) {
		t.Fatalf("EffectiveDate with published_at = %v, want %v", got, pub)
	}
}

func TestSummaryInFallback(t *testing.T) {
	t.Parallel()

	a := &Article{
		Excerpt:   "excerpt text",
		Summaries: map[string]string{"en": "english summary"},
	}
	if got := a.SummaryIn("ko"); got != "english summary" {
		t.Errorf("SummaryIn(ko) = %q, want english fallback", got)
	}

	a.Summaries = nil
	if got := a.SummaryIn("ko"); got != "excerpt text" {
		t.Errorf("SummaryIn with no summaries = %q, want excerpt", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	pub := time.Now()
	a := &Article{
		ID:          "id1",
		PublishedAt: &pub,
		Summaries:   map[string]string{"en": "s"},
		Entities:    []string{"EVN"},
	}

	dup := a.Clone()
	dup.Summaries["en"] = "changed"
	dup.Entities[0] = "changed"
	*dup.PublishedAt = dup.PublishedAt.Add(time.Hour)

	if a.Summaries["en"] != "s" {
		t.Error("clone shares Summaries map")
	}
	if a.Entities[0] != "EVN" {
		t.Error("clone shares Entities slice")
	}
	if !a.PublishedAt.Equal(pub) {
		t.Error("clone shares PublishedAt pointer")
	}
}
