// Package classify tags articles with a business sector, an area, and a
// province using fixed keyword rulesets. Classification is a pure function
// of title+excerpt text and may be recomputed at any time; it is persisted
// on the article only as a convenience.
package classify

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Areas group sectors for reporting.
const (
	AreaEnvironment = "Environment"
	AreaEnergy      = "Energy Develop."
	AreaUrban       = "Urban Develop."
)

// sectorOrder is the priority used when keywords from several sectors hit:
// the first listed sector wins.
var sectorOrder = []string{
	"Oil & Gas",
	"Waste Water",
	"Solid Waste",
	"Water Supply/Drainage",
	"Power",
	"Smart City",
	"Industrial Parks",
}

var sectorKeywords = map[string][]string{
	"Oil & Gas":             {"oil exploration", "gas field", "upstream", "petroleum", "offshore drilling", "lng terminal", "refinery", "oil and gas", "natural gas", "gas pipeline", "oil price", "crude oil", "petrochemical"},
	"Solid Waste":           {"waste-to-energy", "solid waste", "landfill", "incineration", "recycling", "circular economy", "wte", "garbage", "municipal waste"},
	"Waste Water":           {"wastewater", "waste water", "wwtp", "sewage", "water treatment plant", "sewerage", "effluent", "sludge"},
	"Water Supply/Drainage": {"clean water", "water supply", "reservoir", "potable water", "tap water", "drinking water", "water infrastructure"},
	"Power":                 {"power plant", "electricity", "lng power", "gas-to-power", "thermal power", "solar", "wind", "renewable", "hydropower", "pdp8"},
	"Industrial Parks":      {"industrial park", "industrial zone", "fdi", "economic zone", "manufacturing zone"},
	"Smart City":            {"smart city", "urban development", "digital transformation", "city planning", "urban area"},
}

var areaBySector = map[string]string{
	"Oil & Gas":             AreaEnergy,
	"Solid Waste":           AreaEnvironment,
	"Waste Water":           AreaEnvironment,
	"Water Supply/Drainage": AreaEnvironment,
	"Power":                 AreaEnergy,
	"Industrial Parks":      AreaUrban,
	"Smart City":            AreaUrban,
}

// relevanceKeywords gate whether an item belongs in the corpus at all.
var relevanceKeywords = []string{
	"infrastructure", "wastewater", "waste water", "solid waste", "water treatment",
	"power plant", "electricity", "solar", "wind", "renewable", "lng",
	"industrial park", "fdi", "smart city", "urban development",
	"environment", "pollution", "recycling", "landfill", "sewage",
	"water supply", "drainage", "reservoir", "hydropower",
	"oil", "gas", "petroleum", "refinery",
}

// Defaults applied when no keyword matches.
const (
	DefaultProvince = "Vietnam"
	DefaultSector   = "Waste Water"
)

// provinces in scan priority order; earlier entries win on multiple hits.
var provinces = []string{
	"Hanoi", "Ho Chi Minh City", "Da Nang", "Hai Phong", "Can Tho",
	"Binh Duong", "Dong Nai", "Ba Ria-Vung Tau", "Long An", "Quang Ninh",
	"Bac Ninh", "Hai Duong", "Hung Yen", "Thai Nguyen", "Vinh Phuc",
	"Quang Nam", "Khanh Hoa", "Lam Dong", "Binh Thuan", "Ninh Thuan",
	"Thua Thien Hue", "Nghe An", "Thanh Hoa", "Nam Dinh", "Ninh Binh",
	"Phu Tho", "Bac Giang", "Lang Son", "Cao Bang", "Ha Giang",
	"Lao Cai", "Yen Bai", "Son La", "Dien Bien", "Lai Chau",
	"Hoa Binh", "Ha Nam", "Thai Binh", "Quang Binh", "Quang Tri",
	"Kon Tum", "Gia Lai", "Dak Lak", "Dak Nong", "Binh Phuoc",
	"Tay Ninh", "Ben Tre", "Tra Vinh", "Vinh Long", "Dong Thap",
	"An Giang", "Kien Giang", "Hau Giang", "Soc Trang", "Bac Lieu",
	"Ca Mau", "Phu Yen", "Binh Dinh",
}

var provinceAliases = map[string]string{
	"hcmc":   "Ho Chi Minh City",
	"hcm":    "Ho Chi Minh City",
	"tp hcm": "Ho Chi Minh City",
	"saigon": "Ho Chi Minh City",
	"ha noi": "Hanoi",
	"danang": "Da Nang",
}

// Classifier matches the fixed rulesets against text in a single pass per
// ruleset. Safe for concurrent use.
type Classifier struct {
	relevance *ahocorasick.Matcher

	sectors         *ahocorasick.Matcher
	sectorByPattern []string

	provs          *ahocorasick.Matcher
	provByPattern  []string
	provRankByName map[string]int
}

func New() *Classifier {
	c := &Classifier{}

	c.relevance = ahocorasick.NewStringMatcher(relevanceKeywords)

	var sectorPatterns []string
	for _, sector := range sectorOrder {
		for _, kw := range sectorKeywords[sector] {
			sectorPatterns = append(sectorPatterns, normalize(kw))
			c.sectorByPattern = append(c.sectorByPattern, sector)
		}
	}
	c.sectors = ahocorasick.NewStringMatcher(sectorPatterns)

	var provPatterns []string
	c.provRankByName = make(map[string]int, len(provinces))
	for rank, p := range provinces {
		provPatterns = append(provPatterns, normalize(p))
		c.provByPattern = append(c.provByPattern, p)
		c.provRankByName[p] = rank
	}
	for alias, canonical := range provinceAliases {
		provPatterns = append(provPatterns, alias)
		c.provByPattern = append(c.provByPattern, canonical)
	}
	c.provs = ahocorasick.NewStringMatcher(provPatterns)

	return c
}

// Relevant reports whether the text mentions any infrastructure topic the
// pipeline cares about.
func (c *Classifier) Relevant(text string) bool {
	return len(c.relevance.Match([]byte(normalize(text)))) > 0
}

// SectorRank is the priority index of a sector, lower first. Unknown
// sectors rank last.
func SectorRank(sector string) int {
	for i, s := range sectorOrder {
		if s == sector {
			return i
		}
	}
	return len(sectorOrder)
}

// Classify returns the highest-priority sector whose keywords appear in the
// text, with its area. ok is false when no sector keyword matches.
func (c *Classifier) Classify(text string) (sector, area string, ok bool) {
	hits := c.sectors.Match([]byte(normalize(text)))
	if len(hits) == 0 {
		return "", "", false
	}

	hitSectors := make(map[string]bool, len(hits))
	for _, h := range hits {
		hitSectors[c.sectorByPattern[h]] = true
	}
	for _, s := range sectorOrder {
		if hitSectors[s] {
			return s, areaBySector[s], true
		}
	}
	return "", "", false
}

// Province returns the first-listed province named in the text, resolving
// aliases to canonical names; DefaultProvince when none matches.
func (c *Classifier) Province(text string) string {
	hits := c.provs.Match([]byte(normalize(text)))
	if len(hits) == 0 {
		return DefaultProvince
	}

	best := DefaultProvince
	bestRank := len(provinces)
	for _, h := range hits {
		name := c.provByPattern[h]
		if rank, known := c.provRankByName[name]; known && rank < bestRank {
			best = name
			bestRank = rank
		}
	}
	return best
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
