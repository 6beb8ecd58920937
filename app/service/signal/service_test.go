package signal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "signal.json"))
	require.NoError(t, err)

	return store
}

func TestStore_EmptyWhenMissing(t *testing.T) {
	sig, err := newTestStore(t).Get()
	require.NoError(t, err)
	assert.Equal(t, Signal{}, sig)
}

func TestStore_TakeClearsTriggerOnce(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set(Signal{SelectedText: "Hello world", AutoSummarize: true, SourceURL: "http://page"}))

	first, err := store.Take()
	require.NoError(t, err)
	assert.True(t, first.AutoSummarize)
	assert.Equal(t, "Hello world", first.SelectedText)

	second, err := store.Take()
	require.NoError(t, err)
	assert.False(t, second.AutoSummarize)
	assert.Equal(t, "Hello world", second.SelectedText, "selection survives consumption")
	assert.Equal(t, "http://page", second.SourceURL)
}

func TestStore_CorruptFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.path, []byte("{"), 0644))

	_, err := store.Get()
	assert.Error(t, err)
}
