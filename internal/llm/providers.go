// Package llm writes the files that point coding agents at toolbelt
// reports: a skill document, managed blocks in AGENTS.md / CLAUDE.md and a
// Cursor rule.
package llm

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morozRed/toolbelt/internal/fileutil"
)

const (
	SkillPath      = ".toolbelt/skills/toolbelt.md"
	CursorRulePath = ".cursor/rules/toolbelt-context.mdc"
)

var providerFiles = map[string]string{
	"codex":  "AGENTS.md",
	"claude": "CLAUDE.md",
}

var allProviders = []string{"codex", "claude", "cursor"}

// ParseProviders reads a comma or space separated provider list. "all"
// expands to every provider; duplicates are dropped keeping first order.
func ParseProviders(raw string) ([]string, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return nil, nil
	}
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, value := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		switch value {
		case "all":
			for _, p := range allProviders {
				add(p)
			}
		case "codex", "claude", "cursor":
			add(value)
		default:
			return nil, fmt.Errorf("unsupported --llm provider %q (supported: codex, claude, cursor, all)", value)
		}
	}
	return out, nil
}

// WriteIntegrations writes the skill document plus one file per provider
// under root and returns the slash-separated paths that changed, sorted.
func WriteIntegrations(root string, providers []string) ([]string, error) {
	var updated []string
	record := func(rel string, changed bool) {
		if changed {
			updated = append(updated, filepath.ToSlash(rel))
		}
	}

	changed, err := fileutil.WriteIfChanged(filepath.Join(root, SkillPath), []byte(SkillContent()))
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", SkillPath, err)
	}
	record(SkillPath, changed)

	for _, provider := range providers {
		if provider == "cursor" {
			changed, err := fileutil.WriteIfChanged(filepath.Join(root, CursorRulePath), []byte(CursorRuleContent()))
			if err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", CursorRulePath, err)
			}
			record(CursorRulePath, changed)
			continue
		}
		name, ok := providerFiles[provider]
		if !ok {
			continue
		}
		changed, err := UpsertManagedFile(filepath.Join(root, name), AdapterBlock(provider))
		if err != nil {
			return nil, err
		}
		record(name, changed)
	}

	sort.Strings(updated)
	return updated, nil
}
