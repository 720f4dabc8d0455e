package article

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Query parameters that carry tracking state, not identity.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"yclid":  true,
	"ref":    true,
	"cmpid":  true,
}

// ComputeID derives the stable identity of a candidate. Two fetches of the
// same real-world article must yield the same id even when their URLs
// differ by scheme, case, tracking parameters, or a trailing slash — so the
// id is a digest of the canonical URL alone. When the URL has no usable
// host the id falls back to source plus normalized title.
func ComputeID(source, rawURL, title string) string {
	if canonical, ok := CanonicalURL(rawURL); ok {
		return digest(canonical)
	}
	return digest(source + "|" + NormalizeTitle(title))
}

// CanonicalURL normalizes rawURL for identity comparison: scheme and host
// lowercased, "www." and default ports stripped, fragment dropped, tracking
// parameters removed, remaining query sorted, trailing slash trimmed.
// ok is false when the URL cannot be parsed or has no host.
func CanonicalURL(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")

	path := strings.TrimSuffix(u.EscapedPath(), "/")

	query := ""
	if u.RawQuery != "" {
		kept := u.Query()
		for key := range kept {
			lower := strings.ToLower(key)
			if trackingParams[lower] || strings.HasPrefix(lower, "utm") {
				kept.Del(key)
			}
		}
		if len(kept) > 0 {
			pairs := make([]string, 0, len(kept))
			for key, values := range kept {
				sort.Strings(values)
				for _, v := range values {
					pairs = append(pairs, key+"="+v)
				}
			}
			sort.Strings(pairs)
			query = "?" + strings.Join(pairs, "&")
		}
	}

	return host + path + query, true
}

// NormalizeTitle lowercases and collapses whitespace for title-based
// comparison.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}
