package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	digest, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", digest)

	_, err = HashFile(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestIndentJSON(t *testing.T) {
	out, err := IndentJSON(map[string]any{"b": 1, "a": "<x>"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"<x>\",\n  \"b\": 1\n}", out)
}

func TestSortedUniqueAndDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedUnique([]string{"c", "a", "b", "a"}))
	assert.Equal(t, []string{"c", "a", "b"}, DedupeStrings([]string{"c", "a", "b", "a"}))
}

func TestWriteIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "f.yaml")

	wrote, err := WriteIfMissing(path, []byte("one"), 0644)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = WriteIfMissing(path, []byte("two"), 0644)
	require.NoError(t, err)
	assert.False(t, wrote)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestEnsureTrailingNewline(t *testing.T) {
	assert.Equal(t, "a\n", EnsureTrailingNewline("a"))
	assert.Equal(t, "a\n", EnsureTrailingNewline("a\n"))
}

func TestWriteIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b.md")

	wrote, err := WriteIfChanged(path, []byte("x"))
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = WriteIfChanged(path, []byte("x"))
	require.NoError(t, err)
	assert.False(t, wrote)

	wrote, err = WriteIfChanged(path, []byte("y"))
	require.NoError(t, err)
	assert.True(t, wrote)
}
