package summarize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vninfra/infranews/internal/article"
)

// defaultLanguages is the summary language set used when configuration
// does not override it.
var defaultLanguages = []string{"ko", "en", "vi"}

var languageNames = map[string]string{
	"ko": "Korean",
	"en": "English",
	"vi": "Vietnamese",
}

const promptHeader = `Analyze this Vietnam infrastructure news article and provide a structured summary.

Title: %s
Content: %s
Source: %s
Date: %s

Please respond in JSON format with:
{
`

const promptTail = `    "area": "Environment or Energy Develop. or Urban Develop.",
    "sector": "Waste Water or Solid Waste or Water Supply/Drainage or Power or Oil & Gas or Industrial Parks or Smart City",
    "entities": ["list of key organizations, companies, government bodies mentioned"],
    "project_value": "investment amount if mentioned, otherwise empty string"
}

Important classification rules:
- If article mentions oil, gas, petroleum, refinery, LNG terminal -> sector: "Oil & Gas", area: "Energy Develop."
- If article mentions wastewater, sewage, water treatment -> sector: "Waste Water", area: "Environment"
- If article mentions solid waste, landfill, recycling -> sector: "Solid Waste", area: "Environment"
- If article mentions power plant, solar, wind, electricity -> sector: "Power", area: "Energy Develop."`

// Prompt renders the summarization prompt for one article, requesting
// a title and summary per target language. An empty list asks for the
// default Korean/English/Vietnamese set.
func Prompt(a *article.Article, langs []string) string {
	if len(langs) == 0 {
		langs = defaultLanguages
	}
	content := a.Excerpt
	if content == "" {
		content = a.Title
	}

	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, a.Title, content, a.Source, a.EffectiveDate().Format("2006-01-02"))
	for _, lang := range langs {
		if lang == "en" {
			b.WriteString("    \"title_en\": \"English translation/original of the title\",\n")
			continue
		}
		fmt.Fprintf(&b, "    %q: %q,\n", "title_"+lang, languageName(lang)+" translation of the title")
	}
	for _, lang := range langs {
		fmt.Fprintf(&b, "    %q: %q,\n", "summary_"+lang, "2-3 sentence summary in "+languageName(lang))
	}
	b.WriteString(promptTail)
	return b.String()
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

// ParsePayload extracts the JSON object from a model response and maps
// the per-language fields onto a summary payload. Models wrap the
// object in prose or code fences often enough that we cut from the
// first { to the last }.
func ParsePayload(response string, langs []string) (*article.SummaryPayload, error) {
	if len(langs) == 0 {
		langs = defaultLanguages
	}
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decoding model response: %w", err)
	}

	payload := &article.SummaryPayload{
		Summaries:    map[string]string{},
		Headlines:    map[string]string{},
		ProjectValue: strings.TrimSpace(stringField(raw, "project_value")),
	}
	if ent, ok := raw["entities"]; ok {
		_ = json.Unmarshal(ent, &payload.Entities)
	}
	for _, lang := range langs {
		put(payload.Summaries, lang, stringField(raw, "summary_"+lang))
		put(payload.Headlines, lang, stringField(raw, "title_"+lang))
	}

	if len(payload.Summaries) == 0 {
		return nil, fmt.Errorf("model response carries no summaries")
	}
	return payload, nil
}

// stringField decodes one JSON member as a string, empty when absent
// or of another type.
func stringField(raw map[string]json.RawMessage, key string) string {
	var s string
	if msg, ok := raw[key]; ok {
		_ = json.Unmarshal(msg, &s)
	}
	return s
}

func put(m map[string]string, lang, value string) {
	value = strings.TrimSpace(value)
	if value != "" {
		m[lang] = value
	}
}

// FallbackPayload builds a deterministic template summary from what
// the article already carries. Used when every provider fails and
// fallback is enabled. The templates cover the product's three
// briefing languages regardless of the configured target set.
func FallbackPayload(a *article.Article) *article.SummaryPayload {
	base := a.Excerpt
	if base == "" {
		base = a.Title
	}
	if runes := []rune(base); len(runes) > 200 {
		base = string(runes[:200])
	}

	province := a.Province
	if province == "" {
		province = "Vietnam"
	}
	sectorEn, sectorKo, sectorVi := a.Sector, a.Sector, a.Sector
	if a.Sector == "" {
		sectorEn, sectorKo, sectorVi = "Infrastructure", "인프라", "hạ tầng"
	}

	return &article.SummaryPayload{
		Summaries: map[string]string{
			"ko": fmt.Sprintf("%s 지역 %s 관련 프로젝트. %s", province, sectorKo, base),
			"en": fmt.Sprintf("%s project in %s. %s", sectorEn, province, base),
			"vi": fmt.Sprintf("Dự án %s tại %s. %s", sectorVi, province, base),
		},
		Headlines: map[string]string{"en": a.Title},
		Entities:  []string{},
	}
}
