// Package digest aggregates one collection window into the daily briefing
// the notify stage sends out: totals per area, the busiest sectors and
// provinces, and a handful of headline picks.
package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/classify"
)

const (
	topSectors   = 5
	topProvinces = 3
	topArticles  = 5
)

// SectorCount pairs a sector with its article count.
type SectorCount struct {
	Sector string
	Count  int
}

// AreaBreakdown is the per-area slice of the digest. Sectors holds the
// busiest sectors of the area, count descending.
type AreaBreakdown struct {
	Area    string
	Total   int
	Sectors []SectorCount
}

// ProvinceCount pairs a province with its article count.
type ProvinceCount struct {
	Province string
	Count    int
}

// Digest is the aggregated view of one collection window.
type Digest struct {
	Date         time.Time
	Total        int
	Areas        []AreaBreakdown
	TopProvinces []ProvinceCount
	CountryWide  int
	Top          []*article.Article
}

// Build aggregates the articles first seen within [from, to). A zero from
// or to disables that bound. The digest date is the window end, or the
// current time for an unbounded window.
func Build(articles []*article.Article, from, to time.Time) *Digest {
	d := &Digest{Date: to}
	if d.Date.IsZero() {
		d.Date = time.Now().UTC()
	}

	areaTotals := map[string]int{}
	sectorCounts := map[string]map[string]int{}
	provinceCounts := map[string]int{}
	var picks []*article.Article

	for _, a := range articles {
		if !from.IsZero() && a.FirstSeenAt.Before(from) {
			continue
		}
		if !to.IsZero() && !a.FirstSeenAt.Before(to) {
			continue
		}

		d.Total++
		areaTotals[a.Area]++
		if a.Sector != "" {
			if sectorCounts[a.Area] == nil {
				sectorCounts[a.Area] = map[string]int{}
			}
			sectorCounts[a.Area][a.Sector]++
		}
		if a.Province == "" || a.Province == classify.DefaultProvince {
			d.CountryWide++
		} else {
			provinceCounts[a.Province]++
		}
		picks = append(picks, a)
	}

	for _, area := range []string{classify.AreaEnvironment, classify.AreaEnergy, classify.AreaUrban} {
		d.Areas = append(d.Areas, AreaBreakdown{
			Area:    area,
			Total:   areaTotals[area],
			Sectors: rankCounts(sectorCounts[area], topSectors),
		})
	}

	for province, n := range provinceCounts {
		d.TopProvinces = append(d.TopProvinces, ProvinceCount{Province: province, Count: n})
	}
	sort.Slice(d.TopProvinces, func(i, j int) bool {
		if d.TopProvinces[i].Count != d.TopProvinces[j].Count {
			return d.TopProvinces[i].Count > d.TopProvinces[j].Count
		}
		return d.TopProvinces[i].Province < d.TopProvinces[j].Province
	})
	if len(d.TopProvinces) > topProvinces {
		d.TopProvinces = d.TopProvinces[:topProvinces]
	}

	d.Top = rankArticles(picks, topArticles)
	return d
}

// AreaTotal returns the article count for one area.
func (d *Digest) AreaTotal(area string) int {
	for _, b := range d.Areas {
		if b.Area == area {
			return b.Total
		}
	}
	return 0
}

// rankArticles orders headline candidates for the briefing: summarized
// articles first, then by sector priority, then newest first. The sort is
// stable so equally ranked articles keep store order.
func rankArticles(picks []*article.Article, limit int) []*article.Article {
	ranked := append([]*article.Article(nil), picks...)
	sort.SliceStable(ranked, func(i, j int) bool {
		si := ranked[i].SummaryState == article.StateSummarized
		sj := ranked[j].SummaryState == article.StateSummarized
		if si != sj {
			return si
		}
		ri, rj := classify.SectorRank(ranked[i].Sector), classify.SectorRank(ranked[j].Sector)
		if ri != rj {
			return ri < rj
		}
		return ranked[i].EffectiveDate().After(ranked[j].EffectiveDate())
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func rankCounts(counts map[string]int, limit int) []SectorCount {
	out := make([]SectorCount, 0, len(counts))
	for sector, n := range counts {
		out = append(out, SectorCount{Sector: sector, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Sector < out[j].Sector
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

var briefingTemplates = map[string]string{
	"ko": `🇻🇳 베트남 인프라 뉴스 일일 브리핑
📅 %s

📊 오늘의 요약:
• 총 수집 기사: %d건
• 환경 인프라: %d건
• 에너지 개발: %d건
• 도시 개발: %d건

🔥 주요 뉴스:
%s

🔗 대시보드: %s`,
	"en": `🇻🇳 Vietnam Infrastructure News Daily Briefing
📅 %s

📊 Today's Summary:
• Total Articles: %d
• Environment: %d
• Energy: %d
• Urban Development: %d

🔥 Top News:
%s

🔗 Dashboard: %s`,
	"vi": `🇻🇳 Bản tin hạ tầng Việt Nam hằng ngày
📅 %s

📊 Tóm tắt hôm nay:
• Tổng số bài: %d
• Môi trường: %d
• Năng lượng: %d
• Phát triển đô thị: %d

🔥 Tin nổi bật:
%s

🔗 Bảng điều khiển: %s`,
}

var noNews = map[string]string{
	"ko": "• 수집된 기사가 없습니다",
	"en": "• No articles collected.",
	"vi": "• Chưa có bài viết nào.",
}

// Text renders the full briefing in lang. Unknown languages fall back to
// English.
func (d *Digest) Text(lang, dashboardURL string) string {
	tmpl, ok := briefingTemplates[lang]
	if !ok {
		lang, tmpl = "en", briefingTemplates["en"]
	}
	return fmt.Sprintf(tmpl,
		d.Date.Format("2006-01-02"),
		d.Total,
		d.AreaTotal(classify.AreaEnvironment),
		d.AreaTotal(classify.AreaEnergy),
		d.AreaTotal(classify.AreaUrban),
		d.topNews(lang),
		dashboardURL,
	)
}

// Short renders the one-screen message posted to chat channels.
func (d *Digest) Short(dashboardURL string) string {
	return fmt.Sprintf("🇻🇳 Vietnam Infrastructure News\n📅 %s\n\n📊 Total: %d articles\n\n🔗 Dashboard: %s",
		d.Date.Format("2006-01-02"), d.Total, dashboardURL)
}

// EmailSubject renders the subject line for the briefing e-mail.
func (d *Digest) EmailSubject() string {
	return fmt.Sprintf("🇻🇳 Vietnam Infra News - %s (%d articles)", d.Date.Format("2006-01-02"), d.Total)
}

func (d *Digest) topNews(lang string) string {
	if len(d.Top) == 0 {
		return noNews[lang]
	}
	lines := make([]string, 0, len(d.Top))
	for _, a := range d.Top {
		province := a.Province
		if province == "" {
			province = classify.DefaultProvince
		}
		lines = append(lines, fmt.Sprintf("• [%s] %s", province, a.HeadlineIn(lang)))
	}
	return strings.Join(lines, "\n")
}
