package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karonar1/lora-viewer/internal/metadata"
	"github.com/Karonar1/lora-viewer/internal/testutil"
)

func TestListDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.safetensors", "a.safetensors", "C.SAFETENSORS", "notes.txt", "model.ckpt"} {
		testutil.WriteFile(t, dir, name, []byte("x"))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.safetensors"), 0o755))

	paths, err := ListDir(dir, []string{".safetensors"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "C.SAFETENSORS"),
		filepath.Join(dir, "a.safetensors"),
		filepath.Join(dir, "b.safetensors"),
	}, paths)

	_, err = ListDir(filepath.Join(dir, "missing"), []string{".safetensors"})
	assert.Error(t, err)
}

func TestListDir_FollowsSymlinks(t *testing.T) {
	models := t.TempDir()
	target := testutil.WriteFile(t, models, "real.safetensors", []byte("x"))
	require.NoError(t, os.Mkdir(filepath.Join(models, "nested"), 0o755))

	dir := t.TempDir()
	if err := os.Symlink(target, filepath.Join(dir, "linked.safetensors")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(models, "missing.safetensors"), filepath.Join(dir, "dangling.safetensors")))
	require.NoError(t, os.Symlink(filepath.Join(models, "nested"), filepath.Join(dir, "dir.safetensors")))

	paths, err := ListDir(dir, []string{".safetensors"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "linked.safetensors")}, paths)
}

func TestCache_ReusesUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteSafeTensors(t, dir, "a.safetensors",
		map[string]testutil.Tensor{"w": {Shape: []uint64{1}}},
		map[string]string{"ss_sd_model_name": "one"})

	cache := NewCache(metadata.Load)
	first := cache.Batch([]string{path})
	record, err := first.Entries[0].Record()
	require.NoError(t, err)
	assert.Equal(t, "one", record.BaseModelOr(""))

	second := cache.Batch([]string{path})
	assert.Same(t, first.Entries[0], second.Entries[0])
	assert.NotEqual(t, first.ID, second.ID)

	// Rewrite with different content and a new modification time.
	testutil.WriteSafeTensors(t, dir, "a.safetensors",
		map[string]testutil.Tensor{"w": {Shape: []uint64{1}}},
		map[string]string{"ss_sd_model_name": "two, now longer"})
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	third := cache.Batch([]string{path})
	assert.NotSame(t, first.Entries[0], third.Entries[0])
	record, err = third.Entries[0].Record()
	require.NoError(t, err)
	assert.Equal(t, "two, now longer", record.BaseModelOr(""))
}

func TestHasExtension(t *testing.T) {
	exts := []string{".safetensors", ".sft"}
	assert.True(t, HasExtension("/x/a.safetensors", exts))
	assert.True(t, HasExtension("a.SFT", exts))
	assert.False(t, HasExtension("a.safetensors.part", exts))
	assert.False(t, HasExtension("safetensors", exts))
}
