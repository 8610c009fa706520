package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNilSessionDisabled(t *testing.T) {
	t.Parallel()

	var s *Session
	_, err := s.Text(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrDisabled)

	_, err = s.Screenshot(context.Background(), "https://example.com")
	require.ErrorIs(t, err, ErrDisabled)

	require.NoError(t, s.Close())
}

func TestNewSessionDisabled(t *testing.T) {
	t.Parallel()

	_, err := NewSession(Config{MaxConcurrency: 0}, nil)
	require.ErrorIs(t, err, ErrDisabled)
}

func TestAcquireTabBlocksAtCapacity(t *testing.T) {
	t.Parallel()

	s := &Session{sem: make(chan struct{}, 1)}

	release, err := s.acquireTab(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = s.acquireTab(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release2, err := s.acquireTab(context.Background())
	require.NoError(t, err)
	release2()
}

func TestWaitDomainBudget(t *testing.T) {
	t.Parallel()

	s := &Session{domainQPS: 100}
	require.NoError(t, s.waitDomainBudget(context.Background(), "https://example.com/a"))

	// QPS disabled: always passes.
	s = &Session{}
	require.NoError(t, s.waitDomainBudget(context.Background(), "::not a url"))
}

func TestForwardCancel(t *testing.T) {
	t.Parallel()

	parent, cancelParent := context.WithCancel(context.Background())
	child, cancelChild := context.WithCancel(context.Background())
	defer cancelChild()

	stop := forwardCancel(parent, cancelChild)
	defer stop()

	cancelParent()
	select {
	case <-child.Done():
	case <-time.After(time.Second):
		t.Fatal("child context was not cancelled")
	}
}
