// Package insights pulls short actionable snippets out of extracted
// content: sentences that carry trends, numbers or recommendations
// relevant to the query context.
package insights

import (
	"regexp"
	"strings"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// MaxInsights caps how many snippets one document contributes.
const MaxInsights = 3

// maxInsightLen truncates runaway sentences.
const maxInsightLen = 200

// signalPatterns mark a sentence as insight-worthy: growth language,
// concrete figures, recommendations.
var signalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(cresc(?:eu|imento)|aument(?:o|ou)|tend[êe]ncia|oportunidade)\b`),
	regexp.MustCompile(`(?i)\b(estrat[ée]gia|dica|recomenda(?:ção|mos)|como fazer)\b`),
	regexp.MustCompile(`\d+(?:[.,]\d+)?\s*%`),
	regexp.MustCompile(`(?i)R\$\s*\d+`),
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)

// Annotator implements harvest.Annotator with pattern matching over
// sentences. Sentences mentioning a query-context term rank ahead of the
// rest.
type Annotator struct{}

func New() *Annotator { return &Annotator{} }

// Annotate returns up to MaxInsights snippets from the content.
func (a *Annotator) Annotate(content string, qctx harvest.QueryContext) []string {
	if content == "" {
		return nil
	}

	terms := qctx.Terms()
	var onTopic, rest []string

	for _, sentence := range sentenceSplitRe.Split(content, -1) {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 30 {
			continue
		}
		if !matchesSignal(sentence) {
			continue
		}
		if runes := []rune(sentence); len(runes) > maxInsightLen {
			sentence = string(runes[:maxInsightLen]) + "…"
		}
		if mentionsAny(sentence, terms) {
			onTopic = append(onTopic, sentence)
		} else {
			rest = append(rest, sentence)
		}
	}

	out := append(onTopic, rest...)
	if len(out) > MaxInsights {
		out = out[:MaxInsights]
	}
	return out
}

func matchesSignal(sentence string) bool {
	for _, re := range signalPatterns {
		if re.MatchString(sentence) {
			return true
		}
	}
	return false
}

func mentionsAny(sentence string, terms []string) bool {
	lower := strings.ToLower(sentence)
	for _, t := range terms {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
