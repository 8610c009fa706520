// Package provider implements the external search sources. API-backed
// providers rotate credentials through the pool and classify HTTP
// failures; scraper providers run keyless behind a politeness limit.
// Every provider screens its results through the relevance filter before
// returning them.
package provider

import (
	"github.com/insightbr/socialharvest/internal/harvest"
	"github.com/insightbr/socialharvest/internal/relevance"
)

// Provider names, also the credential-pool keys for the API providers.
const (
	NameSerper     = "serper"
	NameGoogleCSE  = "google_cse"
	NameYouTube    = "youtube"
	NameBing       = "bing"
	NameDuckDuckGo = "duckduckgo"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:126.0) Gecko/20100101 Firefox/126.0"

// screen drops results the filter rejects and stamps the provider name.
func screen(f *relevance.Filter, name string, results []harvest.RawResult) []harvest.RawResult {
	out := results[:0]
	for _, r := range results {
		if !f.AllowURL(r.PageURL) {
			continue
		}
		if !f.AllowText(r.Title, r.Snippet) {
			continue
		}
		r.Provider = name
		out = append(out, r)
	}
	return out
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 50 {
		return 10
	}
	return limit
}
