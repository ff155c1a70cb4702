// Package classify decides which directories a walk may enter and whether a
// byte sample looks like text.
package classify

import (
	"path/filepath"
	"sort"
	"strings"
)

// SampleSize is the number of leading bytes inspected by IsBinary.
const SampleSize = 1024

// binaryThreshold is the share of non-text bytes above which a sample is binary.
const binaryThreshold = 0.30

// ExtensionSet is an immutable set of lower-cased extensions with a leading dot.
type ExtensionSet struct {
	exts map[string]struct{}
}

// NewExtensionSet normalizes exts to ".ext" lower case. Empty input yields a
// set that matches nothing; use a nil *ExtensionSet for "all files".
func NewExtensionSet(exts ...string) *ExtensionSet {
	set := &ExtensionSet{exts: make(map[string]struct{}, len(exts))}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set.exts[ext] = struct{}{}
	}
	return set
}

// Contains reports whether ext (already lower-cased, with dot) is in the set.
func (s *ExtensionSet) Contains(ext string) bool {
	if s == nil {
		return false
	}
	_, ok := s.exts[ext]
	return ok
}

// Matches reports whether the extension of name is in the set.
func (s *ExtensionSet) Matches(name string) bool {
	return s.Contains(Ext(name))
}

// Len returns the number of extensions in the set.
func (s *ExtensionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.exts)
}

// Sorted returns the extensions in lexical order.
func (s *ExtensionSet) Sorted() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.exts))
	for ext := range s.exts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Ext returns the lower-cased extension of name including the leading dot,
// or "" when name has none. Leading dots do not start an extension, so
// ".gitignore" has no extension and ".eslintrc.json" has ".json".
func Ext(name string) string {
	base := strings.TrimLeft(filepath.Base(name), ".")
	if !strings.Contains(base, ".") {
		return ""
	}
	return strings.ToLower(filepath.Ext(base))
}

// DefaultTextExtensions is the set used by scanners that only look at source
// and documentation files.
func DefaultTextExtensions() *ExtensionSet {
	return NewExtensionSet(
		".py", ".js", ".ts", ".tsx", ".jsx", ".css", ".scss", ".html", ".xml",
		".json", ".md", ".rst", ".txt", ".csv", ".yml", ".yaml", ".toml", ".ini",
		".java", ".kt", ".swift", ".go", ".rb", ".rs", ".cpp", ".c", ".h",
	)
}

// DefaultImageExtensions is the set used by the image inventory.
func DefaultImageExtensions() *ExtensionSet {
	return NewExtensionSet(".png", ".jpg", ".jpeg", ".gif", ".bmp", ".svg", ".webp")
}

// DefaultExcludedDirs lists directory names never entered during a walk, in
// addition to every name starting with ".".
func DefaultExcludedDirs() []string {
	return []string{
		".git",
		"node_modules",
		".venv",
		"venv",
		"dist",
		"build",
		"__pycache__",
		".idea",
		".vscode",
		".pytest_cache",
		".mypy_cache",
	}
}

// Classifier holds the exclusion set used for directory pruning.
type Classifier struct {
	excluded map[string]struct{}
}

// New builds a Classifier from excludedDirs. Hidden directories are always
// excluded regardless of the list.
func New(excludedDirs []string) *Classifier {
	c := &Classifier{excluded: make(map[string]struct{}, len(excludedDirs))}
	for _, name := range excludedDirs {
		c.excluded[name] = struct{}{}
	}
	return c
}

// Default returns a Classifier over DefaultExcludedDirs.
func Default() *Classifier {
	return New(DefaultExcludedDirs())
}

// ShouldDescend reports whether a directory with base name dirName may be
// entered. It is false for excluded names and for any name starting with ".".
func (c *Classifier) ShouldDescend(dirName string) bool {
	if strings.HasPrefix(dirName, ".") {
		return false
	}
	_, excluded := c.excluded[dirName]
	return !excluded
}

// IsBinary applies the null-byte and control-character heuristic to sample.
// Callers pass at most SampleSize leading bytes of a file.
func IsBinary(sample []byte) bool {
	nonText := 0
	for _, b := range sample {
		if b == 0 {
			return true
		}
		if !isTextByte(b) {
			nonText++
		}
	}
	total := len(sample)
	if total < 1 {
		total = 1
	}
	return float64(nonText)/float64(total) > binaryThreshold
}

func isTextByte(b byte) bool {
	switch b {
	case 7, 8, 9, 10, 12, 13, 27:
		return true
	}
	return b >= 0x20
}
