package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/monochromegane/go-gitignore"
)

// RulesFile is the per-project file holding extra ignore patterns.
const RulesFile = ".toolbeltignore"

type rule struct {
	pattern  string
	negated  bool
	dirOnly  bool
	anchored bool
}

// Matcher applies gitignore-like rules with "last rule wins" behavior. It
// only narrows a walk further; the built-in directory exclusions are applied
// separately and cannot be negated here.
type Matcher struct {
	rules []rule
	git   gitignore.IgnoreMatcher
	root  string
}

// NewMatcher builds a matcher from user-provided patterns.
func NewMatcher(userRules []string) *Matcher {
	rules := make([]rule, 0, len(userRules))
	for _, line := range userRules {
		if parsed, ok := parseRule(line); ok {
			rules = append(rules, parsed)
		}
	}
	return &Matcher{rules: rules}
}

// UseGitIgnore loads root/.gitignore, when present, as an extra rule source.
// Only the top-level file is honored.
func (m *Matcher) UseGitIgnore(root string) error {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	matcher, err := gitignore.NewGitIgnore(path, root)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	m.git = matcher
	m.root = root
	return nil
}

// Empty reports whether the matcher can never ignore anything.
func (m *Matcher) Empty() bool {
	return m == nil || (len(m.rules) == 0 && m.git == nil)
}

// ShouldIgnore returns true when relPath should be excluded.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	if m.Empty() {
		return false
	}
	relPath = normalizePath(relPath)
	if m.git != nil && m.git.Match(filepath.Join(m.root, filepath.FromSlash(relPath)), isDir) {
		return true
	}
	ignored := false
	for _, rule := range m.rules {
		if ruleMatches(rule, relPath, isDir) {
			ignored = !rule.negated
		}
	}
	return ignored
}

// LoadRules reads RulesFile from root. A missing file yields no rules.
func LoadRules(root string) ([]string, error) {
	path := filepath.Join(root, RulesFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", RulesFile, err)
	}
	defer f.Close()

	rules := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", RulesFile, err)
	}
	return rules, nil
}

func parseRule(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	parsed := rule{}
	if strings.HasPrefix(line, "!") {
		parsed.negated = true
		line = strings.TrimPrefix(line, "!")
	}
	if strings.HasPrefix(line, "/") {
		parsed.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if strings.HasSuffix(line, "/") {
		parsed.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	line = normalizePath(line)
	if line == "" {
		return rule{}, false
	}
	parsed.pattern = line
	return parsed, true
}

func ruleMatches(rule rule, relPath string, isDir bool) bool {
	if rule.dirOnly {
		if matchDirectoryPattern(rule, relPath) {
			return true
		}
		return isDir && match(rule.pattern, filepath.Base(relPath))
	}

	if rule.anchored || strings.Contains(rule.pattern, "/") {
		if match(rule.pattern, relPath) {
			return true
		}
		if rule.anchored {
			return false
		}
		parts := strings.Split(relPath, "/")
		for i := 1; i < len(parts); i++ {
			if match(rule.pattern, strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}

	for _, segment := range strings.Split(relPath, "/") {
		if match(rule.pattern, segment) {
			return true
		}
	}
	return false
}

// matchDirectoryPattern reports whether relPath lies in a directory matched
// by a "dir/" rule.
func matchDirectoryPattern(rule rule, relPath string) bool {
	parts := strings.Split(relPath, "/")
	for i := range parts[:len(parts)-1] {
		prefix := strings.Join(parts[:i+1], "/")
		if match(rule.pattern, prefix) {
			return true
		}
		if !rule.anchored && !strings.Contains(rule.pattern, "/") && match(rule.pattern, parts[i]) {
			return true
		}
	}
	return false
}

func match(pattern, value string) bool {
	ok, err := doublestar.Match(pattern, value)
	return err == nil && ok
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	path = strings.TrimPrefix(path, "/")
	return path
}
