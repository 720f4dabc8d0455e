package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articlePage = `<html><body>
<nav><p>Follow us on social media for updates</p></nav>
<article>
  <p>Binh Duong province has approved the expansion of its central wastewater treatment plant.</p>
  <p>ad</p>
  <p>The project will double capacity to 200,000 cubic metres per day by 2028.</p>
  <p>Xem thêm: các dự án hạ tầng khác</p>
</article>
</body></html>`

func TestExtract(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	ex := New(server.Client())
	text, err := ex.Extract(context.Background(), server.URL+"/news/binh-duong-plant.html")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}

	if !strings.Contains(text, "wastewater treatment plant") {
		t.Errorf("expected body paragraph, got %q", text)
	}
	if !strings.Contains(text, "200,000 cubic metres") {
		t.Errorf("expected second paragraph, got %q", text)
	}
	if strings.Contains(text, "Follow us") {
		t.Errorf("expected boilerplate dropped, got %q", text)
	}
	if strings.Contains(text, "Xem thêm") {
		t.Errorf("expected junk line dropped, got %q", text)
	}
	if len(strings.Split(text, "\n\n")) != 2 {
		t.Errorf("expected exactly 2 paragraphs kept, got %q", text)
	}
}

func TestExtractNoContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><div>nothing here</div></body></html>"))
	}))
	defer server.Close()

	ex := New(server.Client())
	if _, err := ex.Extract(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for page without paragraphs")
	}
}

func TestExtractHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	ex := New(server.Client())
	if _, err := ex.Extract(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 404 page")
	}
}

func TestCapRunes(t *testing.T) {
	t.Parallel()

	short := "first paragraph.\n\nsecond paragraph."
	if got := capRunes(short, 100); got != short {
		t.Errorf("expected text under limit unchanged, got %q", got)
	}

	long := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)
	got := capRunes(long, 80)
	if got != strings.Repeat("a", 60) {
		t.Errorf("expected truncation at paragraph boundary, got %q", got)
	}

	oversize := strings.Repeat("c", 200)
	if got := capRunes(oversize, 50); len([]rune(got)) != 50 {
		t.Errorf("expected hard cut at 50 runes, got %d", len([]rune(got)))
	}
}
