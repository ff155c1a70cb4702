// Package walk enumerates the files under a scan root as a lazy sequence.
package walk

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/morozRed/toolbelt/internal/classify"
	"github.com/morozRed/toolbelt/internal/ignore"
)

// Entry is one file yielded by a walk.
type Entry struct {
	AbsPath string
	// RelPath is relative to the walk root, or equal to AbsPath when it
	// cannot be relativized.
	RelPath string
}

// Options narrows a walk. The zero value visits every file outside the
// excluded directories.
type Options struct {
	// Extensions keeps only files whose lower-cased extension is a member.
	// A nil set keeps every file.
	Extensions *classify.ExtensionSet
	// Include keeps only files whose slash-separated RelPath matches one of
	// these doublestar patterns. Empty keeps every file.
	Include []string
	// Ignore prunes further paths on top of the directory exclusions.
	Ignore *ignore.Matcher
}

// Walker carries the classifier used for directory pruning.
type Walker struct {
	classifier *classify.Classifier
}

// New returns a Walker using c, or classify.Default when c is nil.
func New(c *classify.Classifier) *Walker {
	if c == nil {
		c = classify.Default()
	}
	return &Walker{classifier: c}
}

// Classifier returns the classifier used for directory pruning.
func (w *Walker) Classifier() *classify.Classifier {
	return w.classifier
}

// Files walks root with the default classifier, keeping files whose
// extension is in exts (all files when exts is nil).
func Files(root string, exts *classify.ExtensionSet) iter.Seq[Entry] {
	return New(nil).Walk(root, Options{Extensions: exts})
}

// Walk returns a sequence over the files below root. Excluded directories
// are pruned before descending, so nothing inside them is ever visited.
// A root that does not exist or is not a directory yields nothing.
// Unreadable directories are skipped silently. A symlinked root is
// followed; symbolic links to directories below it are not. Order follows the filesystem listing and
// callers needing a stable order should use Collect.
//
// The sequence is restartable: every range over it starts a fresh walk.
func (w *Walker) Walk(root string, opts Options) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		base, err := filepath.Abs(root)
		if err != nil {
			return
		}
		info, err := os.Stat(base)
		if err != nil || !info.IsDir() {
			return
		}
		// A trailing separator makes WalkDir resolve a symlinked root while
		// paths keep the caller's prefix.
		start := base
		if linfo, err := os.Lstat(base); err == nil && linfo.Mode()&fs.ModeSymlink != 0 {
			start = base + string(filepath.Separator)
		}

		_ = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if path == start {
				return nil
			}

			rel := relPath(base, path)
			if d.IsDir() {
				if !w.classifier.ShouldDescend(d.Name()) {
					return filepath.SkipDir
				}
				if opts.Ignore.ShouldIgnore(rel, true) {
					return filepath.SkipDir
				}
				return nil
			}

			if d.Type()&fs.ModeSymlink != 0 {
				if target, statErr := os.Stat(path); statErr == nil && target.IsDir() {
					return nil
				}
			}
			if !opts.keep(d.Name(), rel) {
				return nil
			}
			if !yield(Entry{AbsPath: path, RelPath: rel}) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (o Options) keep(name, rel string) bool {
	if o.Extensions != nil && !o.Extensions.Matches(name) {
		return false
	}
	if o.Ignore.ShouldIgnore(rel, false) {
		return false
	}
	if len(o.Include) == 0 {
		return true
	}
	slashRel := filepath.ToSlash(rel)
	for _, pattern := range o.Include {
		if ok, err := doublestar.Match(pattern, slashRel); err == nil && ok {
			return true
		}
	}
	return false
}

func relPath(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}

// Collect materializes seq sorted by RelPath.
func Collect(seq iter.Seq[Entry]) []Entry {
	entries := make([]Entry, 0)
	for entry := range seq {
		entries = append(entries, entry)
	}
	SortEntries(entries)
	return entries
}

// SortEntries orders entries by RelPath.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})
}
