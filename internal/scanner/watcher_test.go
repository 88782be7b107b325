package scanner

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karonar1/lora-viewer/internal/testutil"
)

func TestWatcher_DebouncesModelChanges(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32

	w, err := NewWatcher(dir, []string{".safetensors"}, 50*time.Millisecond, func() {
		calls.Add(1)
	})
	require.NoError(t, err)
	go w.Run()
	t.Cleanup(func() { _ = w.Stop() })

	testutil.WriteFile(t, dir, "notes.txt", []byte("ignored"))
	testutil.WriteFile(t, dir, "a.safetensors", []byte("1"))
	testutil.WriteFile(t, dir, "b.safetensors", []byte("2"))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher("/definitely/not/here", nil, 0, func() {})
	assert.Error(t, err)
}
