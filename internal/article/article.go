// Package article defines the normalized news article model tracked by the
// pipeline, its summary lifecycle, and the identity rule that deduplicates
// candidates across sources and runs.
package article

import "time"

// SummaryState tracks how far downstream processing has taken an article.
type SummaryState string

const (
	StatePending    SummaryState = "pending"
	StateSummarized SummaryState = "summarized"
	StateFailed     SummaryState = "summarization_failed"
)

// ValidTransition reports whether moving from one summary state to another
// is allowed. Transitions are monotonic: pending may resolve to summarized
// or summarization_failed, and a failed article may be reset to pending by
// an explicit retry. Nothing else, including self-transitions, is allowed.
func ValidTransition(from, to SummaryState) bool {
	switch from {
	case StatePending:
		return to == StateSummarized || to == StateFailed
	case StateFailed:
		return to == StatePending
	default:
		return false
	}
}

// Article is one normalized news item. Once stored it is immutable except
// for SummaryState and the summary payload fields.
type Article struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Excerpt     string     `json:"excerpt,omitempty"`

	// Classification, recomputable from title+excerpt.
	Sector   string `json:"sector,omitempty"`
	Area     string `json:"area,omitempty"`
	Province string `json:"province,omitempty"`

	FirstSeenAt  time.Time    `json:"first_seen_at"`
	SummaryState SummaryState `json:"summary_state"`

	// Summary payload, set by the summarize stage.
	Summaries    map[string]string `json:"summaries,omitempty"`
	Headlines    map[string]string `json:"headlines,omitempty"`
	Entities     []string          `json:"entities,omitempty"`
	ProjectValue string            `json:"project_value,omitempty"`
	SummaryError string            `json:"summary_error,omitempty"`
	SummarizedAt *time.Time        `json:"summarized_at,omitempty"`
}

// SummaryPayload carries the result of one summarization attempt.
// FailureReason is set instead of the content fields when the attempt
// resolved to summarization_failed.
type SummaryPayload struct {
	Summaries     map[string]string
	Headlines     map[string]string
	Entities      []string
	ProjectValue  string
	FailureReason string
}

// EffectiveDate is the timestamp used for ordering and window checks:
// published_at when the source provided one, first_seen_at otherwise.
func (a *Article) EffectiveDate() time.Time {
	if a.PublishedAt != nil {
		return *a.PublishedAt
	}
	return a.FirstSeenAt
}

// SummaryIn returns the summary for lang, falling back to English, then to
// any available language, then to the excerpt.
func (a *Article) SummaryIn(lang string) string {
	if s, ok := a.Summaries[lang]; ok && s != "" {
		return s
	}
	if s, ok := a.Summaries["en"]; ok && s != "" {
		return s
	}
	for _, s := range a.Summaries {
		if s != "" {
			return s
		}
	}
	return a.Excerpt
}

// HeadlineIn returns the translated headline for lang, falling back to the
// original title.
func (a *Article) HeadlineIn(lang string) string {
	if h, ok := a.Headlines[lang]; ok && h != "" {
		return h
	}
	return a.Title
}

// Clone returns a deep copy, so store backends can hand out articles
// without aliasing their internal state.
func (a *Article) Clone() *Article {
	dup := *a
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		dup.PublishedAt = &t
	}
	if a.SummarizedAt != nil {
		t := *a.SummarizedAt
		dup.SummarizedAt = &t
	}
	if a.Summaries != nil {
		dup.Summaries = make(map[string]string, len(a.Summaries))
		for k, v := range a.Summaries {
			dup.Summaries[k] = v
		}
	}
	if a.Headlines != nil {
		dup.Headlines = make(map[string]string, len(a.Headlines))
		for k, v := range a.Headlines {
			dup.Headlines[k] = v
		}
	}
	if a.Entities != nil {
		dup.Entities = append([]string(nil), a.Entities...)
	}
	return &dup
}
