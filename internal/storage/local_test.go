package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorePut(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)

	uri, err := store.Put(context.Background(), "runs/2024-06-01/run-1.json", "application/json", []byte(`{"ok":true}`))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "file://"))

	data, err := os.ReadFile(filepath.Join(root, "runs", "2024-06-01", "run-1.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(data))
}

func TestLocalStoreRejectsEscape(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../outside.json", "", []byte("x"))
	require.Error(t, err)

	_, err = store.Put(context.Background(), "  ", "", []byte("x"))
	require.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	uri, err := store.Put(context.Background(), "a/b.json", "application/json", []byte("hi"))
	require.NoError(t, err)
	require.Equal(t, "mem://a/b.json", uri)

	data, ok := store.Get("a/b.json")
	require.True(t, ok)
	require.Equal(t, "hi", string(data))
	require.Equal(t, 1, store.Len())
}
