package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/classify"
)

// DashboardFilename is the artifact published as the dashboard page.
const DashboardFilename = "vietnam_dashboard.html"

const dashboardTitleRunes = 100

var dashboardLangs = []string{"ko", "en", "vi"}

// Dashboard renders the self-contained HTML dashboard. Article data is
// embedded as JSON and filtered client-side, so the page works from any
// static host.
type Dashboard struct {
	dir string
	now func() time.Time
}

func NewDashboard(dir string) *Dashboard {
	return &Dashboard{dir: dir, now: time.Now}
}

func (d *Dashboard) Name() string { return "dashboard" }

type dashboardArticle struct {
	ID       int               `json:"id"`
	Date     string            `json:"date"`
	Area     string            `json:"area"`
	Sector   string            `json:"sector"`
	Province string            `json:"province"`
	Source   string            `json:"source"`
	Title    map[string]string `json:"title"`
	Summary  map[string]string `json:"summary"`
	URL      string            `json:"url"`
}

func (d *Dashboard) Render(articles []*article.Article) (string, error) {
	views := make([]dashboardArticle, 0, len(articles))
	areaCounts := map[string]int{}
	for i, a := range articles {
		areaCounts[a.Area]++

		titles := make(map[string]string, len(dashboardLangs))
		summaries := make(map[string]string, len(dashboardLangs))
		for _, lang := range dashboardLangs {
			titles[lang] = truncateRunes(a.HeadlineIn(lang), dashboardTitleRunes)
			summaries[lang] = a.SummaryIn(lang)
		}

		views = append(views, dashboardArticle{
			ID:       i + 1,
			Date:     a.EffectiveDate().Format("2006-01-02"),
			Area:     a.Area,
			Sector:   a.Sector,
			Province: a.Province,
			Source:   a.Source,
			Title:    titles,
			Summary:  summaries,
			URL:      a.URL,
		})
	}

	jsData, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode dashboard data: %w", err)
	}

	data := struct {
		LastUpdated string
		Total       int
		EnvCount    int
		EnergyCount int
		UrbanCount  int
		Data        template.JS
	}{
		LastUpdated: d.now().Format("2006-01-02 15:04"),
		Total:       len(articles),
		EnvCount:    areaCounts[classify.AreaEnvironment],
		EnergyCount: areaCounts[classify.AreaEnergy],
		UrbanCount:  areaCounts[classify.AreaUrban],
		Data:        template.JS(jsData),
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(d.dir, DashboardFilename)
	fd, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create dashboard: %w", err)
	}
	if err := dashboardTmpl.Execute(fd, data); err != nil {
		fd.Close()
		return "", fmt.Errorf("render dashboard: %w", err)
	}
	if err := fd.Close(); err != nil {
		return "", fmt.Errorf("write dashboard: %w", err)
	}
	return path, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Vietnam Infrastructure News Dashboard</title>
    <script src="https://cdn.tailwindcss.com"></script>
    <style>
        .news-card:hover { transform: translateY(-2px); box-shadow: 0 4px 12px rgba(0,0,0,0.15); }
        .tab-active { border-bottom: 3px solid #0d9488; color: #0d9488; font-weight: 600; }
    </style>
</head>
<body class="bg-gray-50 min-h-screen">
    <header class="bg-gradient-to-r from-teal-600 to-emerald-600 text-white py-6 px-4 shadow-lg">
        <div class="max-w-7xl mx-auto">
            <h1 class="text-2xl md:text-3xl font-bold">🇻🇳 Vietnam Infrastructure News</h1>
            <p class="text-teal-100 mt-1">Daily Intelligence Dashboard</p>
            <p class="text-sm text-teal-200 mt-2">Last Updated: {{.LastUpdated}}</p>
        </div>
    </header>

    <main class="max-w-7xl mx-auto p-4">
        <div class="grid grid-cols-2 md:grid-cols-4 gap-4 mb-6">
            <div class="bg-white rounded-xl p-4 shadow-md">
                <div class="text-3xl font-bold text-teal-600">{{.Total}}</div>
                <div class="text-sm text-gray-500">Total Articles</div>
            </div>
            <div class="bg-white rounded-xl p-4 shadow-md">
                <div class="text-3xl font-bold text-green-600">{{.EnvCount}}</div>
                <div class="text-sm text-gray-500">Environment</div>
            </div>
            <div class="bg-white rounded-xl p-4 shadow-md">
                <div class="text-3xl font-bold text-amber-600">{{.EnergyCount}}</div>
                <div class="text-sm text-gray-500">Energy</div>
            </div>
            <div class="bg-white rounded-xl p-4 shadow-md">
                <div class="text-3xl font-bold text-purple-600">{{.UrbanCount}}</div>
                <div class="text-sm text-gray-500">Urban Dev</div>
            </div>
        </div>

        <div class="bg-white rounded-xl shadow-md mb-6">
            <div class="flex border-b">
                <button onclick="setLanguage('en')" id="tab-en" class="px-6 py-3 tab-active">English</button>
                <button onclick="setLanguage('ko')" id="tab-ko" class="px-6 py-3 text-gray-500 hover:text-teal-600">한국어</button>
                <button onclick="setLanguage('vi')" id="tab-vi" class="px-6 py-3 text-gray-500 hover:text-teal-600">Tiếng Việt</button>
            </div>
        </div>

        <div class="bg-white rounded-xl shadow-md p-4 mb-6">
            <div class="grid grid-cols-1 md:grid-cols-4 gap-4">
                <div>
                    <label class="block text-sm font-medium text-gray-700 mb-1">Area</label>
                    <select id="filterArea" onchange="filterNews()" class="w-full border rounded-lg p-2">
                        <option value="">All Areas</option>
                        <option value="Environment">Environment</option>
                        <option value="Energy Develop.">Energy Development</option>
                        <option value="Urban Develop.">Urban Development</option>
                    </select>
                </div>
                <div>
                    <label class="block text-sm font-medium text-gray-700 mb-1">Source</label>
                    <select id="filterSource" onchange="filterNews()" class="w-full border rounded-lg p-2">
                        <option value="">All Sources</option>
                    </select>
                </div>
                <div>
                    <label class="block text-sm font-medium text-gray-700 mb-1">Search</label>
                    <input type="text" id="searchInput" onkeyup="filterNews()" placeholder="Search..." class="w-full border rounded-lg p-2">
                </div>
                <div>
                    <label class="block text-sm font-medium text-gray-700 mb-1">Date</label>
                    <input type="date" id="filterDate" onchange="filterNews()" class="w-full border rounded-lg p-2">
                </div>
            </div>
        </div>

        <div class="bg-white rounded-xl shadow-md p-4">
            <h2 class="text-xl font-bold text-gray-800 mb-4">📰 Latest News <span id="newsCount" class="text-sm font-normal text-gray-500"></span></h2>
            <div id="newsList" class="space-y-3"></div>
        </div>
    </main>

    <script>
        const BACKEND_DATA = {{.Data}};

        let currentLang = 'en';
        let filteredData = BACKEND_DATA.slice();

        function setLanguage(lang) {
            currentLang = lang;
            document.querySelectorAll('[id^="tab-"]').forEach(function (t) { t.classList.remove('tab-active'); });
            document.getElementById('tab-' + lang).classList.add('tab-active');
            renderNews();
        }

        function filterNews() {
            const area = document.getElementById('filterArea').value;
            const source = document.getElementById('filterSource').value;
            const search = document.getElementById('searchInput').value.toLowerCase();
            const date = document.getElementById('filterDate').value;

            filteredData = BACKEND_DATA.filter(function (item) {
                if (area && item.area !== area) return false;
                if (source && item.source !== source) return false;
                if (date && item.date !== date) return false;
                if (search) {
                    const text = (item.title.en + ' ' + item.summary.en + ' ' + item.province).toLowerCase();
                    if (!text.includes(search)) return false;
                }
                return true;
            });

            renderNews();
        }

        function renderNews() {
            const container = document.getElementById('newsList');
            document.getElementById('newsCount').textContent = '(' + filteredData.length + ' articles)';

            if (filteredData.length === 0) {
                container.innerHTML = '<p class="text-gray-500 text-center py-8">No articles found</p>';
                return;
            }

            container.innerHTML = filteredData.slice(0, 50).map(function (item) {
                const title = item.title[currentLang] || item.title.en;
                const summary = (item.summary[currentLang] || item.summary.en || '').substring(0, 150);
                return '<div class="news-card border rounded-lg p-4 transition-all cursor-pointer hover:border-teal-300" data-url="' + item.url + '">'
                    + '<div class="flex flex-wrap gap-2 mb-2">'
                    + '<span class="px-2 py-1 bg-teal-100 text-teal-700 text-xs rounded-full">' + item.area + '</span>'
                    + '<span class="px-2 py-1 bg-gray-100 text-gray-600 text-xs rounded-full">' + item.sector + '</span>'
                    + '<span class="px-2 py-1 bg-blue-100 text-blue-600 text-xs rounded-full">' + item.province + '</span>'
                    + '</div>'
                    + '<h3 class="font-semibold text-gray-800 mb-1">' + title + '</h3>'
                    + '<p class="text-sm text-gray-600 mb-2">' + summary + '...</p>'
                    + '<div class="flex justify-between items-center text-xs text-gray-400">'
                    + '<span>' + item.date + ' | ' + item.source + '</span>'
                    + '<span class="text-teal-600 hover:underline">Read more →</span>'
                    + '</div>'
                    + '</div>';
            }).join('');
        }

        function initFilters() {
            const sources = Array.from(new Set(BACKEND_DATA.map(function (d) { return d.source; }))).sort();
            const sourceSelect = document.getElementById('filterSource');
            sources.forEach(function (s) {
                const opt = document.createElement('option');
                opt.value = s;
                opt.textContent = s;
                sourceSelect.appendChild(opt);
            });
        }

        document.getElementById('newsList').addEventListener('click', function (e) {
            const card = e.target.closest('.news-card');
            if (card && card.dataset.url) window.open(card.dataset.url, '_blank');
        });

        initFilters();
        renderNews();
    </script>
</body>
</html>
`
