package engagement

import (
	"regexp"
	"strconv"
	"strings"
)

var abbrevRe = regexp.MustCompile(`(?i)^([\d.,]+)\s*(mil|milhões|milhão|mi|m|k|b|bilhões|bilhão)?$`)

// suffix multipliers, Brazilian and international forms.
var multipliers = map[string]float64{
	"k":       1_000,
	"mil":     1_000,
	"m":       1_000_000,
	"mi":      1_000_000,
	"milhão":  1_000_000,
	"milhões": 1_000_000,
	"b":       1_000_000_000,
	"bilhão":  1_000_000_000,
	"bilhões": 1_000_000_000,
}

// ParseAbbrevNumber parses counts the way platforms render them: "1.2K",
// "3,4 mil", "2 mi", "1.5M", "10,5 mil". Returns 0 for unparseable input.
func ParseAbbrevNumber(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	m := abbrevRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	numPart := m[1]
	suffix := strings.ToLower(m[2])

	if suffix == "" {
		// Plain number: dots and commas are thousands separators.
		digits := strings.NewReplacer(".", "", ",", "").Replace(numPart)
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return 0
		}
		return n
	}

	// Abbreviated: a single dot or comma is the decimal separator.
	numPart = strings.ReplaceAll(numPart, ",", ".")
	if strings.Count(numPart, ".") > 1 {
		return 0
	}
	f, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0
	}
	return int64(f * multipliers[suffix])
}
