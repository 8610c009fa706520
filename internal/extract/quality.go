package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// trustedDomains score the full domain-tier bucket: government, academia
// and major Brazilian news outlets.
var trustedDomains = []string{
	".gov.br", ".edu.br", ".org.br",
	"g1.globo.com", "exame.com", "estadao.com.br", "folha.uol.com.br",
	"valor.globo.com", "infomoney.com.br",
}

// knownDomains score half the domain-tier bucket: established platforms
// with mixed-quality content.
var knownDomains = []string{
	"medium.com", "linkedin.com", "substack.com",
	"uol.com.br", "terra.com.br", "abril.com.br",
}

// dataPatterns detect concrete figures in the text: percentages, money,
// Brazilian abbreviated quantities and calendar years.
var dataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+(?:[.,]\d+)?\s*%`),
	regexp.MustCompile(`R\$\s*\d+`),
	regexp.MustCompile(`(?i)\d+(?:[.,]\d+)?\s*(?:mil|milh(?:ão|ões)|bilh(?:ão|ões))`),
	regexp.MustCompile(`\b20\d{2}\b`),
	regexp.MustCompile(`(?i)\d+\s*(?:seguidores|visualizações|inscritos)`),
}

// ScoreQuality rates extracted text on a 0-100 scale from five signals:
// raw length (up to 20), query-context term presence (10 each, up to 30),
// source domain tier (up to 20), word count (up to 15) and concrete data
// patterns (3 per hit, up to 15).
func ScoreQuality(text, pageURL string, contextTerms []string) int {
	score := 0

	switch n := len(text); {
	case n >= 3000:
		score += 20
	case n >= 1500:
		score += 15
	case n >= 800:
		score += 10
	case n >= MinContentLength:
		score += 5
	}

	lower := strings.ToLower(text)
	termPoints := 0
	for _, term := range contextTerms {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			termPoints += 10
		}
	}
	if termPoints > 30 {
		termPoints = 30
	}
	score += termPoints

	score += domainTier(pageURL)

	switch w := len(strings.Fields(text)); {
	case w >= 500:
		score += 15
	case w >= 200:
		score += 10
	case w >= 100:
		score += 5
	}

	dataPoints := 0
	for _, re := range dataPatterns {
		dataPoints += 3 * len(re.FindAllString(text, 5))
	}
	if dataPoints > 15 {
		dataPoints = 15
	}
	score += dataPoints

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func domainTier(pageURL string) int {
	u, err := url.Parse(pageURL)
	if err != nil {
		return 0
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range trustedDomains {
		if host == strings.TrimPrefix(d, ".") || strings.HasSuffix(host, d) {
			return 20
		}
	}
	for _, d := range knownDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return 10
		}
	}
	return 0
}
