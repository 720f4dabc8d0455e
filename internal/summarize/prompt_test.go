package summarize

import (
	"strings"
	"testing"
	"time"

	"github.com/vninfra/infranews/internal/article"
)

func TestPrompt(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, time.August, 25, 9, 0, 0, 0, time.UTC)
	a := &article.Article{
		Source:      "VnExpress",
		Title:       "Binh Duong expands wastewater plant",
		Excerpt:     "The province approved the expansion.",
		PublishedAt: &published,
	}

	p := Prompt(a, nil)
	for _, want := range []string{
		"Title: Binh Duong expands wastewater plant",
		"Content: The province approved the expansion.",
		"Source: VnExpress",
		"Date: 2026-08-25",
		`"title_en": "English translation/original of the title"`,
		`"summary_ko": "2-3 sentence summary in Korean"`,
		`"summary_vi": "2-3 sentence summary in Vietnamese"`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Without an excerpt the title doubles as content.
	bare := &article.Article{Title: "Headline only", FirstSeenAt: published}
	if !strings.Contains(Prompt(bare, nil), "Content: Headline only") {
		t.Error("expected title used as content when excerpt is empty")
	}
}

func TestPromptTargetLanguages(t *testing.T) {
	t.Parallel()

	a := &article.Article{Title: "Hanoi metro line opens", Source: "VnExpress"}

	p := Prompt(a, []string{"en", "ja"})
	for _, want := range []string{
		`"title_en"`,
		`"title_ja": "JA translation of the title"`,
		`"summary_ja": "2-3 sentence summary in JA"`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "summary_ko") {
		t.Error("prompt requests a language outside the target set")
	}
}

func TestParsePayload(t *testing.T) {
	t.Parallel()

	response := "Here is the summary you asked for:\n```json\n" + `{
  "title_ko": "빈증성 폐수 처리장 확장",
  "title_en": "Binh Duong expands wastewater plant",
  "title_vi": "Bình Dương mở rộng nhà máy xử lý nước thải",
  "summary_ko": "빈증성이 폐수 처리장을 확장한다.",
  "summary_en": "Binh Duong province approved a wastewater plant expansion.",
  "summary_vi": "Tỉnh Bình Dương phê duyệt mở rộng nhà máy.",
  "area": "Environment",
  "sector": "Waste Water",
  "entities": ["Binh Duong People's Committee", "Biwase"],
  "project_value": "USD 120 million"
}` + "\n```\nLet me know if you need anything else."

	payload, err := ParsePayload(response, nil)
	if err != nil {
		t.Fatalf("ParsePayload error: %v", err)
	}

	if payload.Summaries["en"] != "Binh Duong province approved a wastewater plant expansion." {
		t.Errorf("unexpected english summary: %q", payload.Summaries["en"])
	}
	if payload.Headlines["vi"] != "Bình Dương mở rộng nhà máy xử lý nước thải" {
		t.Errorf("unexpected vietnamese headline: %q", payload.Headlines["vi"])
	}
	if len(payload.Entities) != 2 || payload.Entities[1] != "Biwase" {
		t.Errorf("unexpected entities: %v", payload.Entities)
	}
	if payload.ProjectValue != "USD 120 million" {
		t.Errorf("unexpected project value: %q", payload.ProjectValue)
	}

	// A narrowed target set ignores the other languages in the response.
	narrowed, err := ParsePayload(response, []string{"en"})
	if err != nil {
		t.Fatalf("ParsePayload error: %v", err)
	}
	if len(narrowed.Summaries) != 1 || narrowed.Summaries["en"] == "" {
		t.Errorf("unexpected narrowed summaries: %v", narrowed.Summaries)
	}
}

func TestParsePayloadErrors(t *testing.T) {
	t.Parallel()

	if _, err := ParsePayload("no JSON here at all", nil); err == nil {
		t.Error("expected error for response without JSON")
	}
	if _, err := ParsePayload(`{"title_en": "only a title"}`, nil); err == nil {
		t.Error("expected error for response without summaries")
	}
	if _, err := ParsePayload(`{"summary_en": broken`, nil); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestFallbackPayload(t *testing.T) {
	t.Parallel()

	a := &article.Article{
		Title:    "Long An industrial park attracts new FDI wave",
		Excerpt:  strings.Repeat("x", 300),
		Sector:   "Industrial Parks",
		Province: "Long An",
	}

	payload := FallbackPayload(a)
	en := payload.Summaries["en"]
	if !strings.HasPrefix(en, "Industrial Parks project in Long An. ") {
		t.Errorf("unexpected fallback prefix: %q", en)
	}
	if len([]rune(en)) > len("Industrial Parks project in Long An. ")+200 {
		t.Errorf("expected excerpt capped at 200 runes, got %d", len([]rune(en)))
	}
	if payload.Summaries["ko"] == "" || payload.Summaries["vi"] == "" {
		t.Error("expected all three languages present")
	}
	if payload.Headlines["en"] != a.Title {
		t.Errorf("expected original title as english headline, got %q", payload.Headlines["en"])
	}
}
