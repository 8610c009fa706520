package engagement

import (
	"strings"

	"github.com/insightbr/socialharvest/internal/harvest"
)

// viewsMultiplier converts the popularity base into estimated views.
// YouTube content travels furthest, Facebook the least.
var viewsMultiplier = map[harvest.Platform]int64{
	harvest.PlatformInstagram: 25,
	harvest.PlatformFacebook:  15,
	harvest.PlatformYouTube:   50,
	harvest.PlatformTikTok:    20,
}

// Ratios applied to the popularity base when synthesizing interaction
// counts.
const (
	likeFactor      = 2
	commentFactor   = 0.3
	shareFactor     = 0.5
	defaultFollowed = 5000
)

// Estimate synthesizes conservative metrics for a post when every live
// lookup failed. The popularity base depends on platform and URL shape:
// reels and photo posts travel further than static posts.
func Estimate(postURL string, platform harvest.Platform) harvest.EngagementMetrics {
	lower := strings.ToLower(postURL)

	var base int64
	switch platform {
	case harvest.PlatformInstagram:
		base = 30
		if strings.Contains(lower, "/reel/") {
			base += 20
		}
	case harvest.PlatformFacebook:
		base = 20
		if strings.Contains(lower, "/photos/") {
			base += 10
		}
	case harvest.PlatformYouTube:
		base = 40
	case harvest.PlatformTikTok:
		base = 35
	default:
		return harvest.EngagementMetrics{Source: "estimate"}
	}

	return harvest.EngagementMetrics{
		Views:           base * viewsMultiplier[platform],
		Likes:           base * likeFactor,
		Comments:        int64(float64(base) * commentFactor),
		Shares:          int64(float64(base) * shareFactor),
		AuthorFollowers: defaultFollowed,
		Source:          "estimate",
	}
}
