package harvest

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDetectPlatform(t *testing.T) {
	t.Parallel()

	cases := map[string]Platform{
		"https://www.instagram.com/p/abc123/":      PlatformInstagram,
		"https://m.facebook.com/page/posts/99":     PlatformFacebook,
		"https://www.youtube.com/watch?v=dQw4w9":   PlatformYouTube,
		"https://youtu.be/dQw4w9":                  PlatformYouTube,
		"https://www.tiktok.com/@user/video/12345": PlatformTikTok,
		"https://example.com/blog/post":            PlatformWeb,
	}
	for url, want := range cases {
		require.Equal(t, want, DetectPlatform(url), url)
	}
}

func TestIsSocialPost(t *testing.T) {
	t.Parallel()

	require.True(t, IsSocialPost("https://www.instagram.com/p/abc123/"))
	require.True(t, IsSocialPost("https://www.instagram.com/reel/xyz/"))
	require.True(t, IsSocialPost("https://www.youtube.com/watch?v=dQw4w9"))
	require.True(t, IsSocialPost("https://www.tiktok.com/@user/video/12345"))

	// Profiles and home pages are not posts.
	require.False(t, IsSocialPost("https://www.instagram.com/someprofile/"))
	require.False(t, IsSocialPost("https://www.youtube.com/@channel"))
	require.False(t, IsSocialPost("https://example.com/p/looks-like-a-post"))
}

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, FailureKind(""), ClassifyStatus(http.StatusOK))
	require.Equal(t, FailureKind(""), ClassifyStatus(http.StatusCreated))
	require.Equal(t, FailureAuth, ClassifyStatus(http.StatusUnauthorized))
	require.Equal(t, FailureAuth, ClassifyStatus(http.StatusForbidden))
	require.Equal(t, FailureRateLimited, ClassifyStatus(http.StatusTooManyRequests))
	require.Equal(t, FailureTransient, ClassifyStatus(http.StatusInternalServerError))
	require.Equal(t, FailureTransient, ClassifyStatus(http.StatusNotFound))

	require.True(t, FailureAuth.Quarantines())
	require.True(t, FailureRateLimited.Quarantines())
	require.False(t, FailureTransient.Quarantines())
}

func TestSearchQueryEnriched(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	q := SearchQuery{Text: "curso de marketing", Locale: "pt-BR", RecencyDays: 365}
	require.Equal(t, "curso de marketing Brasil 2024", q.Enriched(now))

	// Locale term already present: nothing appended.
	q = SearchQuery{Text: "curso de marketing Brasil 2024", Locale: "pt-BR", RecencyDays: 365}
	require.Equal(t, "curso de marketing Brasil 2024", q.Enriched(now))

	// No hints configured: text unchanged.
	q = SearchQuery{Text: "marketing course"}
	require.Equal(t, "marketing course", q.Enriched(now))

	// Previous year in the query also counts as a year mention.
	q = SearchQuery{Text: "tendências 2023", Locale: "en-US", RecencyDays: 90}
	require.Equal(t, "tendências 2023", q.Enriched(now))
}

func TestQueryContextTerms(t *testing.T) {
	t.Parallel()

	require.Nil(t, QueryContext{}.Terms())
	require.Equal(t,
		[]string{"educação", "curso de marketing"},
		QueryContext{Segment: "educação", Product: "curso de marketing"}.Terms(),
	)
}
