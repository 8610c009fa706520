package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
)

type fakeStrategy struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Extract(ctx context.Context, pageURL string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func testClock() fixedClock {
	return fixedClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCascadeFirstSufficientWins(t *testing.T) {
	t.Parallel()

	s1 := &fakeStrategy{name: "s1", text: strings.Repeat("a", 150)}
	s2 := &fakeStrategy{name: "s2", text: strings.Repeat("b", 500)}
	s3 := &fakeStrategy{name: "s3", text: strings.Repeat("c", 800)}

	c := NewCascade([]Strategy{s1, s2, s3}, harvest.QueryContext{}, testClock(), zap.NewNop())

	got, err := c.Extract(context.Background(), "https://example.com/post")
	require.NoError(t, err)
	require.Equal(t, "s2", got.Strategy)
	require.Equal(t, 500, got.Length)

	require.Equal(t, 1, s1.calls)
	require.Equal(t, 1, s2.calls)
	require.Equal(t, 0, s3.calls, "later strategies must not run after a success")
}

func TestCascadeSkipsErrors(t *testing.T) {
	t.Parallel()

	s1 := &fakeStrategy{name: "s1", err: errors.New("boom")}
	s2 := &fakeStrategy{name: "s2", text: strings.Repeat("x", 400)}

	c := NewCascade([]Strategy{s1, s2}, harvest.QueryContext{}, testClock(), zap.NewNop())

	got, err := c.Extract(context.Background(), "https://example.com/post")
	require.NoError(t, err)
	require.Equal(t, "s2", got.Strategy)
}

func TestCascadeAllFail(t *testing.T) {
	t.Parallel()

	s1 := &fakeStrategy{name: "s1", err: errors.New("boom")}
	s2 := &fakeStrategy{name: "s2", text: "too short"}

	c := NewCascade([]Strategy{s1, s2}, harvest.QueryContext{}, testClock(), zap.NewNop())

	_, err := c.Extract(context.Background(), "https://example.com/post")
	require.ErrorIs(t, err, harvest.ErrNoContent)
}

func TestCascadeContextCancelled(t *testing.T) {
	t.Parallel()

	s1 := &fakeStrategy{name: "s1", text: strings.Repeat("a", 500)}
	c := NewCascade([]Strategy{s1}, harvest.QueryContext{}, testClock(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Extract(ctx, "https://example.com/post")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, s1.calls)
}

func TestCascadePopulatesContent(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("marketing digital no Brasil cresceu 40% em 2024. ", 20)
	s := &fakeStrategy{name: "s1", text: text}
	qctx := harvest.QueryContext{Segment: "marketing digital"}

	c := NewCascade([]Strategy{s}, qctx, testClock(), zap.NewNop())

	got, err := c.Extract(context.Background(), "https://example.com/post")
	require.NoError(t, err)
	require.Equal(t, strings.TrimSpace(text), got.Text)
	require.Equal(t, len(strings.Fields(text)), got.WordCount)
	require.Positive(t, got.Quality)
	require.Equal(t, testClock().now, got.ExtractedAt)
}
