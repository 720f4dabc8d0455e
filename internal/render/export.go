package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/runlog"
)

// ExportFilename is the machine-readable dump of every article.
const ExportFilename = "articles.json"

// Export writes the JSON article dump consumed by external tooling.
type Export struct {
	dir string
	now func() time.Time
}

func NewExport(dir string) *Export { return &Export{dir: dir, now: time.Now} }

func (e *Export) Name() string { return "json" }

func (e *Export) Render(articles []*article.Article) (string, error) {
	doc := struct {
		GeneratedAt time.Time          `json:"generated_at"`
		Total       int                `json:"total"`
		Articles    []*article.Article `json:"articles"`
	}{
		GeneratedAt: e.now().UTC(),
		Total:       len(articles),
		Articles:    articles,
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(e.dir, ExportFilename)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// WriteRunResults persists a sealed run record next to the other
// artifacts, one file per run.
func WriteRunResults(dir string, rec *runlog.Record) (string, error) {
	doc := struct {
		*runlog.Record
		DurationSeconds float64 `json:"duration_seconds"`
	}{rec, rec.FinishedAt.Sub(rec.StartedAt).Seconds()}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode run results: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, "run_"+rec.RunID+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write run results: %w", err)
	}
	return path, nil
}
