package harvest

import "strings"

// Platform identifies the social network a URL belongs to.
type Platform string

// Known platforms. PlatformWeb is everything that is not a social network.
const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformWeb       Platform = "web"
)

// DetectPlatform maps a URL to its platform by host.
func DetectPlatform(rawURL string) Platform {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "instagram.com"):
		return PlatformInstagram
	case strings.Contains(lower, "facebook.com"):
		return PlatformFacebook
	case strings.Contains(lower, "youtube.com"), strings.Contains(lower, "youtu.be"):
		return PlatformYouTube
	case strings.Contains(lower, "tiktok.com"):
		return PlatformTikTok
	default:
		return PlatformWeb
	}
}

// IsSocialPost reports whether the URL looks like an individual post worth
// engagement analysis, rather than a profile or the platform home page.
func IsSocialPost(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	switch DetectPlatform(rawURL) {
	case PlatformInstagram:
		return strings.Contains(lower, "/p/") || strings.Contains(lower, "/reel/")
	case PlatformFacebook:
		return strings.Contains(lower, "/posts/") || strings.Contains(lower, "/photos/") ||
			strings.Contains(lower, "/videos/") || strings.Contains(lower, "/watch")
	case PlatformYouTube:
		return strings.Contains(lower, "watch?v=") || strings.Contains(lower, "youtu.be/") ||
			strings.Contains(lower, "/shorts/")
	case PlatformTikTok:
		return strings.Contains(lower, "/video/")
	default:
		return false
	}
}
