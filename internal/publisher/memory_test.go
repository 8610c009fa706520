package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryPublish(t *testing.T) {
	t.Parallel()

	m := NewMemory()

	id, err := m.Publish(context.Background(), "runs.completed", map[string]string{"run_id": "r1"})
	require.NoError(t, err)
	require.Equal(t, "mem-1", id)

	_, err = m.Publish(context.Background(), "", nil)
	require.Error(t, err)

	msgs := m.Messages("runs.completed")
	require.Len(t, msgs, 1)
	require.JSONEq(t, `{"run_id":"r1"}`, string(msgs[0]))
	require.Empty(t, m.Messages("other"))
}
