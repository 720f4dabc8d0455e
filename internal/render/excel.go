package render

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/vninfra/infranews/internal/article"
)

// DatabaseFilename is the Excel artifact holding every article.
const DatabaseFilename = "vietnam_infra_news_database.xlsx"

const (
	excelTitleRunes   = 200
	excelSummaryRunes = 500

	dataSheet   = "Data"
	legacySheet = "Database"
)

var dataHeaders = []any{"ID", "Date", "Area", "Sector", "Province", "Source", "Title", "Summary", "URL"}

// legacyHeaders match the historical workbook, misspelling included, so
// tooling keyed on header names keeps working.
var legacyHeaders = []any{"Area", "Business Sector", "Province", "News Tittle", "Date", "Source", "Link", "Short summary"}

// Excel writes the article database workbook: a Data sheet carrying the
// full model and a Database sheet kept column-compatible with the
// historical spreadsheet.
type Excel struct {
	dir string
}

func NewExcel(dir string) *Excel { return &Excel{dir: dir} }

func (e *Excel) Name() string { return "excel" }

func (e *Excel) Render(articles []*article.Article) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return "", fmt.Errorf("rename data sheet: %w", err)
	}
	if _, err := f.NewSheet(legacySheet); err != nil {
		return "", fmt.Errorf("create legacy sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"0D9488"}, Pattern: 1},
	})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	if err := writeHeader(f, dataSheet, dataHeaders, headerStyle); err != nil {
		return "", err
	}
	if err := writeHeader(f, legacySheet, legacyHeaders, headerStyle); err != nil {
		return "", err
	}

	for i, a := range articles {
		title := truncateRunes(a.Title, excelTitleRunes)
		summary := truncateRunes(a.SummaryIn("en"), excelSummaryRunes)
		date := a.EffectiveDate().Format("2006-01-02")

		dataRow := []any{i + 1, date, a.Area, a.Sector, a.Province, a.Source, title, summary, a.URL}
		if err := setRow(f, dataSheet, i+2, dataRow); err != nil {
			return "", err
		}

		legacyRow := []any{a.Area, a.Sector, a.Province, title, date, a.Source, a.URL, summary}
		if err := setRow(f, legacySheet, i+2, legacyRow); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(e.dir, DatabaseFilename)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func writeHeader(f *excelize.File, sheet string, headers []any, style int) error {
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("header range %s: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name %s row %d col %d: %w", sheet, row, col+1, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
