package repl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_AddAndGet(t *testing.T) {
	h := NewHistory("", 3)
	h.Add("one")
	h.Add("two")
	h.Add("two")
	h.Add("three")
	h.Add("four")

	assert.Equal(t, 3, h.Len())
	assert.Equal(t, "four", h.Get(0))
	assert.Equal(t, "two", h.Get(2))
	assert.Equal(t, "", h.Get(3))
	assert.Equal(t, "", h.Get(-1))
	assert.Equal(t, []string{"two", "three", "four"}, h.Entries())
}

func TestHistory_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history")

	h := NewHistory(path, 0)
	h.Add("object list")
	h.Add("system status")
	require.NoError(t, h.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded := NewHistory(path, 0)
	require.NoError(t, loaded.Load())
	assert.Equal(t, []string{"object list", "system status"}, loaded.Entries())
}

func TestHistory_LoadTrims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n\nc\nd\n"), 0o600))

	h := NewHistory(path, 2)
	require.NoError(t, h.Load())
	assert.Equal(t, []string{"c", "d"}, h.Entries())
}

func TestHistory_NoFile(t *testing.T) {
	h := NewHistory("", 0)
	assert.NoError(t, h.Load())
	h.Add("x")
	assert.NoError(t, h.Save())

	missing := NewHistory(filepath.Join(t.TempDir(), "missing"), 0)
	assert.NoError(t, missing.Load())
	assert.Equal(t, 0, missing.Len())
}
