package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviders(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"claude", []string{"claude"}},
		{"Claude, codex claude", []string{"claude", "codex"}},
		{"cursor,all", []string{"cursor", "codex", "claude"}},
	}
	for _, tc := range cases {
		got, err := ParseProviders(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}

	_, err := ParseProviders("vim")
	assert.ErrorContains(t, err, `unsupported --llm provider "vim"`)
}

func TestUpsertManagedBlock(t *testing.T) {
	block := ManagedBlockStart + "\nnew\n" + ManagedBlockEnd

	assert.Equal(t, block+"\n", UpsertManagedBlock("", block))
	assert.Equal(t, "intro\n\n"+block+"\n", UpsertManagedBlock("intro", block))

	existing := "head\n" + ManagedBlockStart + "\nold\n" + ManagedBlockEnd + "\ntail\n"
	assert.Equal(t, "head\n"+block+"\ntail\n", UpsertManagedBlock(existing, block))
}

func TestWriteIntegrations(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "CLAUDE.md"), []byte("# Notes\n"), 0644))

	updated, err := WriteIntegrations(root, []string{"claude", "cursor"})
	require.NoError(t, err)
	assert.Equal(t, []string{".cursor/rules/toolbelt-context.mdc", ".toolbelt/skills/toolbelt.md", "CLAUDE.md"}, updated)
	assert.True(t, HasManagedBlock(filepath.Join(root, "CLAUDE.md")))
	assert.False(t, HasManagedBlock(filepath.Join(root, "AGENTS.md")))

	data, err := os.ReadFile(filepath.Join(root, "CLAUDE.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Notes\n")
	assert.Contains(t, string(data), "Toolbelt Integration (Claude)")

	updated, err = WriteIntegrations(root, []string{"claude", "cursor"})
	require.NoError(t, err)
	assert.Empty(t, updated)
}
