package harvest

import (
	"strconv"
	"strings"
	"time"
)

// localeTerms maps a locale hint to the terms appended to queries that do
// not already carry them. Only pt-BR has a vocabulary today.
var localeTerms = map[string][]string{
	"pt-BR": {"Brasil", "brasileiro", "br"},
}

// Enriched returns the query text with locale and recency hints applied:
// a locale marker term when none is present, and the current year when the
// query names no year. The receiver is never modified.
func (q SearchQuery) Enriched(now time.Time) string {
	enhanced := q.Text
	lower := strings.ToLower(q.Text)

	if terms, ok := localeTerms[q.Locale]; ok {
		present := false
		for _, t := range terms {
			if strings.Contains(lower, strings.ToLower(t)) {
				present = true
				break
			}
		}
		if !present {
			enhanced += " " + terms[0]
		}
	}

	if q.RecencyDays > 0 {
		year := strconv.Itoa(now.Year())
		prevYear := strconv.Itoa(now.Year() - 1)
		if !strings.Contains(q.Text, year) && !strings.Contains(q.Text, prevYear) {
			enhanced += " " + year
		}
	}

	return strings.TrimSpace(enhanced)
}
