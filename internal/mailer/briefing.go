package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/vninfra/infranews/internal/classify"
	"github.com/vninfra/infranews/internal/digest"
	"github.com/vninfra/infranews/internal/notify"
)

const topNewsTitleRunes = 100

type briefingArea struct {
	Name    string
	Total   int
	Sectors string
}

type briefingNews struct {
	Province string
	Title    string
	Source   string
}

type briefingView struct {
	Date         string
	Total        int
	Areas        []briefingArea
	TopProvinces []digest.ProvinceCount
	CountryWide  int
	TopNews      []briefingNews
	DashboardURL string
}

// briefingHTML renders the HTML alternative of the briefing. Labels stay
// English; headlines fall back through the article's language chain.
func briefingHTML(b *notify.Briefing) (string, error) {
	d := b.Digest

	view := briefingView{
		Date:         d.Date.Format("2006-01-02"),
		Total:        d.Total,
		TopProvinces: d.TopProvinces,
		CountryWide:  d.CountryWide,
		DashboardURL: b.DashboardURL,
	}

	for _, area := range d.Areas {
		if area.Total == 0 {
			continue
		}
		parts := make([]string, 0, len(area.Sectors))
		for _, s := range area.Sectors {
			parts = append(parts, fmt.Sprintf("%s: %d", s.Sector, s.Count))
		}
		view.Areas = append(view.Areas, briefingArea{
			Name:    area.Area,
			Total:   area.Total,
			Sectors: strings.Join(parts, ", "),
		})
	}

	for _, a := range d.Top {
		province := a.Province
		if province == "" {
			province = classify.DefaultProvince
		}
		view.TopNews = append(view.TopNews, briefingNews{
			Province: province,
			Title:    truncateRunes(a.HeadlineIn("en"), topNewsTitleRunes),
			Source:   a.Source,
		})
	}

	var buf bytes.Buffer
	if err := briefingTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render briefing: %w", err)
	}
	return buf.String(), nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

var briefingTmpl = template.Must(template.New("briefing").Parse(briefingHTMLBody))

const briefingHTMLBody = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5;">
    <div style="max-width: 600px; margin: 0 auto;">
        <div style="background: linear-gradient(135deg, #0d9488, #10b981); color: white; padding: 20px; border-radius: 12px 12px 0 0;">
            <h1 style="margin:0; font-size: 22px;">🇻🇳 Vietnam Infrastructure News</h1>
            <p style="margin:5px 0 0; opacity: 0.9; font-size:14px;">Daily Briefing - {{.Date}}</p>
        </div>

        <div style="background: white; padding: 20px; border-radius: 0 0 12px 12px; box-shadow: 0 2px 10px rgba(0,0,0,0.1);">
            <div style="background:#f0fdfa; border:1px solid #99f6e4; border-radius:10px; padding:15px; margin-bottom:20px;">
                <h2 style="margin:0 0 15px 0; font-size:16px; color:#0d9488;">📊 Daily Summary</h2>

                <table style="width:100%; margin-bottom:15px;">
                    <tr>
                        <td style="font-size:14px; color:#333;">Total Articles</td>
                        <td style="text-align:right; font-size:28px; font-weight:bold; color:#0d9488;">{{.Total}}</td>
                    </tr>
                </table>

                <div style="font-size:13px; font-weight:bold; color:#555; margin:10px 0 5px;">📁 By Area / Sector</div>
                <table style="width:100%; border-collapse:collapse; font-size:13px;">
                    <tr style="background:#e6fffa;">
                        <th style="padding:8px;text-align:left;border-bottom:2px solid #0d9488;">Area</th>
                        <th style="padding:8px;text-align:center;border-bottom:2px solid #0d9488;">Count</th>
                        <th style="padding:8px;text-align:left;border-bottom:2px solid #0d9488;">Sectors</th>
                    </tr>
{{range .Areas}}                    <tr>
                        <td style="padding:8px;border-bottom:1px solid #e5e7eb;">{{.Name}}</td>
                        <td style="padding:8px;border-bottom:1px solid #e5e7eb;text-align:center;font-weight:bold;">{{.Total}}</td>
                        <td style="padding:8px;border-bottom:1px solid #e5e7eb;font-size:12px;color:#666;">{{.Sectors}}</td>
                    </tr>
{{end}}                </table>

                <div style="font-size:13px; font-weight:bold; color:#555; margin:15px 0 5px;">📍 Top Provinces</div>
                <table style="width:100%; border-collapse:collapse; font-size:13px;">
{{range .TopProvinces}}                    <tr>
                        <td style="padding:6px 8px;border-bottom:1px solid #e5e7eb;">{{.Province}}</td>
                        <td style="padding:6px 8px;border-bottom:1px solid #e5e7eb;text-align:center;font-weight:bold;">{{.Count}}</td>
                    </tr>
{{end}}                    <tr style="background:#f5f5f5;">
                        <td style="padding:6px 8px;color:#888;">Vietnam (Common)</td>
                        <td style="padding:6px 8px;text-align:center;color:#888;">{{.CountryWide}}</td>
                    </tr>
                </table>
            </div>

            <h3 style="color:#333; margin:20px 0 10px; font-size:15px;">🔥 Top News</h3>
{{if .TopNews}}{{range .TopNews}}            <div style="background:#f8fafc;padding:10px 12px;margin:6px 0;border-radius:6px;border-left:4px solid #0d9488;font-size:13px;">
                <strong>[{{.Province}}]</strong> {{.Title}}<br>
                <small style="color:#888;">{{.Source}}</small>
            </div>
{{end}}{{else}}            <p style="color:#666;font-size:13px;">No articles collected.</p>
{{end}}
            <div style="text-align: center; margin-top: 25px;">
                <a href="{{.DashboardURL}}" style="display:inline-block; background:#0d9488; color:white; padding:12px 24px; text-decoration:none; border-radius:8px; font-weight:bold; font-size:14px;">📊 View Dashboard</a>
            </div>
        </div>
    </div>
</body>
</html>
`
