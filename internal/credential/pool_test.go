package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/insightbr/socialharvest/internal/harvest"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestPool(t *testing.T, keys []string, opts ...Option) *Pool {
	t.Helper()
	creds := make([]harvest.Credential, len(keys))
	for i, k := range keys {
		creds[i] = harvest.Credential{Secret: k}
	}
	return NewPool(map[string][]harvest.Credential{"serper": creds}, zap.NewNop(), opts...)
}

func TestNextRoundRobin(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, []string{"a", "b", "c"})

	var got []string
	for i := 0; i < 6; i++ {
		cred, ok := pool.Next("serper")
		require.True(t, ok)
		got = append(got, cred.Secret)
	}
	require.Equal(t, []string{"a", "b", "c", "a", "b", "c"}, got)
}

func TestNextSkipsQuarantined(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	pool := newTestPool(t, []string{"a", "b", "c"}, WithClock(clock))

	credA, ok := pool.Next("serper")
	require.True(t, ok)
	require.Equal(t, "a", credA.Secret)
	pool.ReportFailure("serper", credA, harvest.FailureAuth)

	credB, ok := pool.Next("serper")
	require.True(t, ok)
	require.Equal(t, "b", credB.Secret)
	pool.ReportFailure("serper", credB, harvest.FailureRateLimited)

	// Only c remains; it keeps being handed out.
	for i := 0; i < 3; i++ {
		cred, ok := pool.Next("serper")
		require.True(t, ok)
		require.Equal(t, "c", cred.Secret)
	}
}

func TestQuarantineExpires(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	pool := newTestPool(t, []string{"a"}, WithClock(clock))

	cred, ok := pool.Next("serper")
	require.True(t, ok)
	pool.ReportFailure("serper", cred, harvest.FailureAuth)

	_, ok = pool.Next("serper")
	require.False(t, ok)
	require.True(t, pool.Exhausted("serper"))

	// Recovery needs no intervening Next calls: only time has to pass.
	clock.Advance(DefaultQuarantine + time.Second)

	got, ok := pool.Next("serper")
	require.True(t, ok)
	require.Equal(t, "a", got.Secret)
	require.False(t, pool.Exhausted("serper"))
}

func TestTransientFailureDoesNotQuarantine(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, []string{"a"})

	cred, ok := pool.Next("serper")
	require.True(t, ok)
	pool.ReportFailure("serper", cred, harvest.FailureTransient)

	_, ok = pool.Next("serper")
	require.True(t, ok)
}

func TestSuccessClearsQuarantine(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	pool := newTestPool(t, []string{"a"}, WithClock(clock))

	cred, ok := pool.Next("serper")
	require.True(t, ok)
	pool.ReportFailure("serper", cred, harvest.FailureRateLimited)
	pool.ReportSuccess("serper", cred)

	_, ok = pool.Next("serper")
	require.True(t, ok)
}

func TestUnknownProvider(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, []string{"a"})
	_, ok := pool.Next("nope")
	require.False(t, ok)
	require.True(t, pool.Exhausted("nope"))
}

func TestSize(t *testing.T) {
	t.Parallel()

	pool := NewPool(map[string][]harvest.Credential{
		"serper": {{Secret: "a"}, {Secret: "b"}},
		"bing":   {{Secret: "c"}},
	}, zap.NewNop())
	require.Equal(t, 3, pool.Size())
	require.Equal(t, []string{"bing", "serper"}, pool.Providers())
}
