// Package render produces the output-stage artifacts: the HTML dashboard,
// the Excel database and the JSON export. Renderers are independent, one
// failing does not stop the others.
package render

import (
	"fmt"
	"sort"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/logger"
)

// Renderer writes one artifact and returns its path.
type Renderer interface {
	Name() string
	Render(articles []*article.Article) (string, error)
}

// Generator runs every configured renderer over the same article set.
type Generator struct {
	renderers []Renderer
}

func NewGenerator(outputDir string) *Generator {
	return &Generator{renderers: []Renderer{
		NewDashboard(outputDir),
		NewExcel(outputDir),
		NewExport(outputDir),
	}}
}

// GenerateAll renders every artifact and returns the written paths keyed
// by renderer name. Individual failures are logged and skipped; the error
// is non-nil only when no renderer succeeded.
func (g *Generator) GenerateAll(articles []*article.Article) (map[string]string, error) {
	ordered := sortForDisplay(articles)

	paths := make(map[string]string, len(g.renderers))
	var firstErr error
	for _, r := range g.renderers {
		path, err := r.Render(ordered)
		if err != nil {
			logger.Error("Renderer failed", "renderer", r.Name(), "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("render %s: %w", r.Name(), err)
			}
			continue
		}
		paths[r.Name()] = path
		logger.Info("Artifact written", "renderer", r.Name(), "path", path, "articles", len(ordered))
	}
	if len(paths) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return paths, nil
}

// sortForDisplay orders articles newest first without mutating the input.
func sortForDisplay(articles []*article.Article) []*article.Article {
	ordered := append([]*article.Article(nil), articles...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EffectiveDate().After(ordered[j].EffectiveDate())
	})
	return ordered
}
