// Package engagement resolves social metrics for post URLs and converts
// them into a single viral score used to rank results.
package engagement

import (
	"math"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// Interaction weights. Shares signal the strongest intent, comments more
// than likes.
const (
	commentWeight = 5
	shareWeight   = 10
)

// Score converts metrics into a viral score. Interactions are weighted
// and normalized against views when available, author followers
// otherwise. Posts whose weighted interactions exceed 100 get a 1.2x
// boost. The result is floored by a tenth of the weighted interactions so
// high-engagement posts with huge audiences never score near zero, and is
// rounded to two decimals. All-zero metrics score exactly 0.
func Score(m harvest.EngagementMetrics) float64 {
	weighted := float64(m.Likes) +
		float64(m.Comments)*commentWeight +
		float64(m.Shares)*shareWeight

	if weighted == 0 {
		return 0
	}

	var rate float64
	switch {
	case m.Views > 0:
		rate = weighted / float64(m.Views) * 100
	case m.AuthorFollowers > 0:
		rate = weighted / float64(m.AuthorFollowers) * 100
	default:
		rate = weighted
	}

	if weighted > 100 {
		rate *= 1.2
	}

	score := math.Max(rate, weighted*0.1)
	return math.Round(score*100) / 100
}
