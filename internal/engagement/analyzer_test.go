package engagement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
)

type fakeSource struct {
	name    string
	metrics harvest.EngagementMetrics
	err     error
	calls   int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Lookup(ctx context.Context, postURL string, platform harvest.Platform) (harvest.EngagementMetrics, error) {
	f.calls++
	return f.metrics, f.err
}

func TestAnalyzeFirstSourceWithCountsWins(t *testing.T) {
	t.Parallel()

	s1 := &fakeSource{name: "s1", err: errors.New("down")}
	s2 := &fakeSource{name: "s2", metrics: harvest.EngagementMetrics{Likes: 100, Views: 5000}}
	s3 := &fakeSource{name: "s3", metrics: harvest.EngagementMetrics{Likes: 999}}

	a := NewAnalyzer([]Source{s1, s2, s3}, zap.NewNop())

	m, err := a.Analyze(context.Background(), "https://www.instagram.com/p/abc/", harvest.PlatformInstagram)
	require.NoError(t, err)
	require.Equal(t, int64(100), m.Likes)
	require.Equal(t, "s2", m.Source)
	require.Equal(t, 0, s3.calls)
}

func TestAnalyzeCarriesAuthorForward(t *testing.T) {
	t.Parallel()

	// oembed-style source: author only, no counts.
	s1 := &fakeSource{name: "s1", metrics: harvest.EngagementMetrics{Author: "canal"}}
	s2 := &fakeSource{name: "s2", metrics: harvest.EngagementMetrics{Likes: 10}}

	a := NewAnalyzer([]Source{s1, s2}, zap.NewNop())

	m, err := a.Analyze(context.Background(), "https://youtu.be/abc", harvest.PlatformYouTube)
	require.NoError(t, err)
	require.Equal(t, "canal", m.Author)
	require.Equal(t, int64(10), m.Likes)
}

func TestAnalyzeFallsBackToEstimate(t *testing.T) {
	t.Parallel()

	s1 := &fakeSource{name: "s1", err: errors.New("down")}
	a := NewAnalyzer([]Source{s1}, zap.NewNop())

	m, err := a.Analyze(context.Background(), "https://www.instagram.com/reel/xyz/", harvest.PlatformInstagram)
	require.NoError(t, err)
	require.Equal(t, "estimate", m.Source)
	require.Positive(t, m.Views)
	require.Positive(t, m.Likes)
}

func TestAnalyzeNonSocialURL(t *testing.T) {
	t.Parallel()

	s1 := &fakeSource{name: "s1", metrics: harvest.EngagementMetrics{Likes: 999}}
	a := NewAnalyzer([]Source{s1}, zap.NewNop())

	m, err := a.Analyze(context.Background(), "https://example.com/blog/post", harvest.PlatformWeb)
	require.NoError(t, err)
	require.Zero(t, m.Likes)
	require.Equal(t, "none", m.Source)
	require.Equal(t, 0, s1.calls)
	require.Zero(t, Score(m))
}

func TestEstimateByPlatform(t *testing.T) {
	t.Parallel()

	reel := Estimate("https://www.instagram.com/reel/x/", harvest.PlatformInstagram)
	post := Estimate("https://www.instagram.com/p/x/", harvest.PlatformInstagram)
	require.Greater(t, reel.Views, post.Views)

	photo := Estimate("https://facebook.com/user/photos/1", harvest.PlatformFacebook)
	fbPost := Estimate("https://facebook.com/user/posts/1", harvest.PlatformFacebook)
	require.Greater(t, photo.Views, fbPost.Views)

	// The per-platform view multiplier puts YouTube's reach above even a
	// boosted Instagram reel.
	yt := Estimate("https://youtu.be/x", harvest.PlatformYouTube)
	require.Greater(t, yt.Views, reel.Views)
	require.Equal(t, int64(2000), yt.Views)
	require.Equal(t, int64(1250), reel.Views)

	tk := Estimate("https://www.tiktok.com/@u/video/1", harvest.PlatformTikTok)
	require.Greater(t, reel.Views, tk.Views)

	web := Estimate("https://example.com/a", harvest.PlatformWeb)
	require.Zero(t, web.Views)
}
