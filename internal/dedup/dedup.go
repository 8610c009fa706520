// Package dedup canonicalizes URLs and removes duplicates from merged
// provider results while preserving discovery order.
package dedup

import (
	"net/url"
	"sort"
	"strings"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// trackingParams are query parameters stripped during canonicalization.
// Exact names plus any utm_* prefix.
var trackingParams = map[string]bool{
	"fbclid":   true,
	"gclid":    true,
	"msclkid":  true,
	"igshid":   true,
	"mc_cid":   true,
	"mc_eid":   true,
	"ref":      true,
	"ref_src":  true,
	"_ga":      true,
}

// Canonical returns the canonical form of a URL: lowercase scheme and
// host, tracking parameters removed, fragment dropped, default ports and
// trailing slashes trimmed. Unparseable input is returned trimmed so
// callers can still dedupe on raw equality.
func Canonical(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Host = strings.TrimSuffix(u.Host, ":80")
	u.Host = strings.TrimSuffix(u.Host, ":443")
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if trackingParams[key] || strings.HasPrefix(key, "utm_") {
				q.Del(key)
			}
		}
		u.RawQuery = encodeSorted(q)
	}

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	if u.Path == "/" && u.RawQuery == "" {
		u.Path = ""
	}

	return u.String()
}

// encodeSorted renders query values with sorted keys so parameter order
// never distinguishes two otherwise identical URLs.
func encodeSorted(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// Dedupe removes results whose canonical URL was already seen, keeping
// the first occurrence. Returns the survivors and the number dropped.
func Dedupe(results []harvest.RawResult) ([]harvest.RawResult, int) {
	seen := make(map[string]bool, len(results))
	out := results[:0:0]
	dropped := 0
	for _, r := range results {
		key := Canonical(r.PageURL)
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out, dropped
}
