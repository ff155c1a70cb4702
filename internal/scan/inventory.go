package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/morozRed/toolbelt/internal/classify"
	"github.com/morozRed/toolbelt/internal/fileutil"
	"github.com/morozRed/toolbelt/internal/reader"
	"github.com/morozRed/toolbelt/internal/report"
	"github.com/morozRed/toolbelt/internal/walk"
)

const (
	binarySampleSize   = 1024
	licenseMaxBytes    = 5_000_000
	secondsPerDay      = 86400
	isoFormat          = "2006-01-02T15:04:05"
	isoFormatMicros    = "2006-01-02T15:04:05.000000"
	defaultMinBytes    = 1_000_000
	defaultDupMaxBytes = 1_000_000
)

// licenseFiles are looked up at the scan root only.
var licenseFiles = []string{"LICENSE", "LICENSE.txt", "COPYING", "COPYING.txt"}

func inventoryCommands() []Command {
	return []Command{
		{Name: "code-stats", Short: "Count files, bytes and lines per extension", Group: "inventory", Run: CodeStats},
		{Name: "file-index", Short: "List every file with its size", Group: "inventory", Run: FileIndex},
		{Name: "dir-tree-to-md", Short: "Render the directory tree", Group: "inventory", Run: DirTree},
		{Name: "extension-inventory", Short: "Count files per extension", Group: "inventory", Run: ExtensionInventory},
		{Name: "image-inventory", Short: "List image files with their size", Group: "inventory", Run: ImageInventory},
		{Name: "dir-size-report", Short: "Sum file sizes per directory", Group: "inventory", Run: DirSizeReport},
		{Name: "binary-file-inventory", Short: "List files that look binary", Group: "inventory", Run: BinaryFileInventory},
		{
			Name: "large-file-scan", Short: "List files of at least --min-bytes", Group: "inventory",
			Flags: []Flag{intFlag("min-bytes", defaultMinBytes, "Minimum file size in bytes")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return LargeFileScan(ctx, env, int64(env.Params.Int("min-bytes", defaultMinBytes)))
			},
		},
		{Name: "duplicate-filename-scan", Short: "List base names used by several files", Group: "inventory", Run: DuplicateFilenameScan},
		{
			Name: "duplicate-file-contents-scan", Short: "Group files with identical content", Group: "inventory",
			Flags: []Flag{intFlag("max-bytes", defaultDupMaxBytes, "Largest file to hash in bytes")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return DuplicateFileContentsScan(ctx, env, int64(env.Params.Int("max-bytes", defaultDupMaxBytes)))
			},
		},
		{Name: "test-file-scan", Short: "List Python test files", Group: "inventory", Run: TestFileScan},
		{
			Name: "recent-files-report", Short: "List files modified in the last --days days", Group: "inventory",
			Flags: []Flag{intFlag("days", 7, "Window size in days")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return RecentFilesReport(ctx, env, env.Params.Int("days", 7))
			},
		},
		{
			Name: "file-age-report", Short: "List the newest and oldest files", Group: "inventory",
			Flags: []Flag{intFlag("top", 20, "Files per list")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return FileAgeReport(ctx, env, env.Params.Int("top", 20))
			},
		},
		{Name: "license-detect", Short: "Identify license files at the root", Group: "inventory", Run: LicenseDetect},
	}
}

// sizedEntry is a walked file with its size.
type sizedEntry struct {
	walk.Entry
	Size int64
}

func (e *Env) sized(exts *classify.ExtensionSet) []sizedEntry {
	entries := e.entries(exts)
	out := make([]sizedEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, sizedEntry{Entry: entry, Size: fileSize(entry.AbsPath)})
	}
	return out
}

type fileStat struct {
	size int64
	loc  int
}

// CodeStats counts files, bytes and estimated lines of code below the root.
func CodeStats(ctx context.Context, env *Env) (string, error) {
	items, err := walk.Map(ctx, env.files(nil), env.Workers, func(entry walk.Entry) (fileStat, bool) {
		st := fileStat{size: fileSize(entry.AbsPath)}
		if res := env.read(entry); res.OK() && res.Text != "" {
			st.loc = strings.Count(res.Text, "\n") + 1
		}
		return st, true
	})
	if err != nil {
		return "", err
	}

	var totalBytes int64
	loc := 0
	byExt := newCounter()
	for _, item := range items {
		totalBytes += item.Value.size
		loc += item.Value.loc
		byExt.inc(classify.Ext(item.RelPath))
	}

	b := report.NewBuilder(report.H1("Code Stats"))
	b.Addf("Path: %s\n\n", env.Root)
	b.Item("Total files: %d", len(items))
	b.Item("Total size: %d bytes", totalBytes)
	b.Addf("- Estimated LOC: %d\n\n", loc)
	b.Add(report.H2("By Extension"))
	for _, c := range byExt.mostCommon() {
		b.Item("%s: %d", noExt(c.Key), c.Count)
	}
	return b.String(), nil
}

func FileIndex(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1("File Index"))
	for _, f := range env.sized(nil) {
		b.Item("%s — %d bytes", f.RelPath, f.Size)
	}
	if b.Len() == 1 {
		b.Add("No files found.\n")
	}
	return b.String(), ctx.Err()
}

// DirTree renders the tree below the root, pruned like every walk.
func DirTree(ctx context.Context, env *Env) (string, error) {
	return report.H1("Directory Tree") + report.CodeBlock(strings.Join(env.treeLines(), "\n"), ""), ctx.Err()
}

// treeLines lists the root name, then per directory its name followed by
// its files, indenting four spaces per level. Siblings are sorted.
func (e *Env) treeLines() []string {
	base, err := filepath.Abs(e.Root)
	if err != nil {
		return nil
	}
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		return nil
	}

	classifier := e.walker().Classifier()
	lines := []string{filepath.Base(base)}

	var visit func(dir, rel string, depth int)
	visit = func(dir, rel string, depth int) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		prefix := strings.Repeat("    ", max(0, depth-1))
		if depth > 0 {
			lines = append(lines, prefix+filepath.Base(dir)+"/")
		}

		var subdirs []string
		for _, entry := range entries {
			childRel := filepath.Join(rel, entry.Name())
			if isDirEntry(dir, entry) {
				if entry.Type()&fs.ModeSymlink != 0 {
					continue
				}
				if classifier.ShouldDescend(entry.Name()) && !e.Ignore.ShouldIgnore(childRel, true) {
					subdirs = append(subdirs, entry.Name())
				}
				continue
			}
			if e.Ignore.ShouldIgnore(childRel, false) {
				continue
			}
			lines = append(lines, prefix+"    "+entry.Name())
		}
		for _, name := range subdirs {
			visit(filepath.Join(dir, name), filepath.Join(rel, name), depth+1)
		}
	}
	visit(base, "", 0)
	return lines
}

func isDirEntry(dir string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	target, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && target.IsDir()
}

func ExtensionInventory(ctx context.Context, env *Env) (string, error) {
	counts := newCounter()
	for _, entry := range env.entries(nil) {
		counts.inc(classify.Ext(entry.RelPath))
	}
	b := report.NewBuilder(report.H1("Extension Inventory"))
	for _, c := range counts.mostCommon() {
		b.Item("%s: %d", noExt(c.Key), c.Count)
	}
	if b.Len() == 1 {
		b.Add("No files found.\n")
	}
	return b.String(), ctx.Err()
}

func ImageInventory(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1("Image Inventory"))
	for _, f := range env.sized(imageExts) {
		b.Item("%s — %d bytes", f.RelPath, f.Size)
	}
	if b.Len() == 1 {
		b.Add("No images found.\n")
	}
	return b.String(), ctx.Err()
}

func DirSizeReport(ctx context.Context, env *Env) (string, error) {
	sizes := newCounter()
	for _, f := range env.sized(nil) {
		sizes.add(filepath.Dir(f.RelPath), int(f.Size))
	}
	b := report.NewBuilder(report.H1("Directory Size Report"))
	for _, c := range sizes.mostCommon() {
		b.Item("%s: %d bytes", c.Key, c.Count)
	}
	if b.Len() == 1 {
		b.Add("No files found.\n")
	}
	return b.String(), ctx.Err()
}

func BinaryFileInventory(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1("Binary File Inventory"))
	for _, entry := range env.entries(nil) {
		head, ok := reader.ReadHead(entry.AbsPath, binarySampleSize)
		if ok && classify.IsBinary(head) {
			b.Item("%s", entry.RelPath)
		}
	}
	if b.Len() == 1 {
		b.Add("No binary files detected.\n")
	}
	return b.String(), ctx.Err()
}

func LargeFileScan(ctx context.Context, env *Env, minBytes int64) (string, error) {
	var large []sizedEntry
	for _, f := range env.sized(nil) {
		if f.Size >= minBytes {
			large = append(large, f)
		}
	}
	sort.SliceStable(large, func(i, j int) bool { return large[i].Size > large[j].Size })

	b := report.NewBuilder(report.H1("Large File Scanner"))
	b.Addf("Threshold: %d bytes\n\n", minBytes)
	for _, f := range large {
		b.Item("%s — %d bytes", f.RelPath, f.Size)
	}
	if len(large) == 0 {
		b.Add("No large files found.\n")
	}
	return b.String(), ctx.Err()
}

func DuplicateFilenameScan(ctx context.Context, env *Env) (string, error) {
	byName := make(map[string][]string)
	for _, entry := range env.entries(nil) {
		name := filepath.Base(entry.RelPath)
		byName[name] = append(byName[name], entry.RelPath)
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	b := report.NewBuilder(report.H1("Duplicate Filename Scanner"))
	for _, name := range names {
		rels := byName[name]
		if len(rels) < 2 {
			continue
		}
		b.Add(report.H2(name))
		for _, rel := range rels {
			b.Item("%s", rel)
		}
	}
	if b.Len() == 1 {
		b.Add("No duplicate filenames found.\n")
	}
	return b.String(), ctx.Err()
}

// DuplicateFileContentsScan groups files up to maxBytes by sha256 digest.
// Groups appear in the order their first member was seen.
func DuplicateFileContentsScan(ctx context.Context, env *Env, maxBytes int64) (string, error) {
	items, err := walk.Map(ctx, env.files(nil), env.Workers, func(entry walk.Entry) (string, bool) {
		info, err := os.Stat(entry.AbsPath)
		if err != nil || info.Size() > maxBytes {
			return "", false
		}
		digest, err := fileutil.HashFile(entry.AbsPath)
		if err != nil {
			env.log().Debugf("skip %s (%v)", entry.RelPath, err)
			return "", false
		}
		return digest, true
	})
	if err != nil {
		return "", err
	}

	groups := make(map[string][]string)
	var order []string
	for _, item := range items {
		if _, seen := groups[item.Value]; !seen {
			order = append(order, item.Value)
		}
		groups[item.Value] = append(groups[item.Value], item.RelPath)
	}

	b := report.NewBuilder(report.H1("Duplicate File Contents Scanner"))
	b.Addf("Only files <= %d bytes considered.\n\n", maxBytes)
	found := false
	for _, digest := range order {
		rels := groups[digest]
		if len(rels) < 2 {
			continue
		}
		found = true
		b.Add(report.H2(digest))
		for _, rel := range rels {
			b.Item("%s", rel)
		}
	}
	if !found {
		b.Add("No duplicate file contents found.\n")
	}
	return b.String(), nil
}

func isTestFile(rel string) bool {
	base := filepath.Base(rel)
	if m, _ := filepath.Match("test_*.py", base); m {
		return true
	}
	if m, _ := filepath.Match("*_test.py", base); m {
		return true
	}
	for _, part := range strings.Split(filepath.Clean(rel), string(filepath.Separator)) {
		if part == "tests" {
			return true
		}
	}
	return false
}

func TestFileScan(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1("Test File Scanner"))
	for _, entry := range env.entries(nil) {
		if isTestFile(entry.RelPath) {
			b.Item("%s", entry.RelPath)
		}
	}
	if b.Len() == 1 {
		b.Add("No test files found.\n")
	}
	return b.String(), ctx.Err()
}

// isoformat renders t in local time with microseconds only when non-zero.
func isoformat(t time.Time) string {
	t = t.Local()
	if t.Nanosecond()/1000 == 0 {
		return t.Format(isoFormat)
	}
	return t.Format(isoFormatMicros)
}

type modEntry struct {
	walk.Entry
	ModTime time.Time
}

func (e *Env) modTimes() []modEntry {
	var out []modEntry
	for _, entry := range e.entries(nil) {
		info, err := os.Stat(entry.AbsPath)
		if err != nil {
			continue
		}
		out = append(out, modEntry{Entry: entry, ModTime: info.ModTime()})
	}
	return out
}

func RecentFilesReport(ctx context.Context, env *Env, days int) (string, error) {
	cutoff := env.now().Add(-time.Duration(days) * secondsPerDay * time.Second)
	var recent []modEntry
	for _, m := range env.modTimes() {
		if !m.ModTime.Before(cutoff) {
			recent = append(recent, m)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].ModTime.After(recent[j].ModTime) })

	b := report.NewBuilder(report.H1("Recent Files Report"))
	b.Addf("Window: last %d days\n\n", days)
	for _, m := range recent {
		b.Item("%s: %s", m.RelPath, isoformat(m.ModTime))
	}
	if len(recent) == 0 {
		b.Add("No files modified in the given window.\n")
	}
	return b.String(), ctx.Err()
}

func FileAgeReport(ctx context.Context, env *Env, top int) (string, error) {
	items := env.modTimes()
	b := report.NewBuilder(report.H1("File Age Report"))
	if len(items) == 0 {
		b.Add("No files found.\n")
		return b.String(), ctx.Err()
	}

	newest := append([]modEntry(nil), items...)
	sort.SliceStable(newest, func(i, j int) bool { return newest[i].ModTime.After(newest[j].ModTime) })
	oldest := append([]modEntry(nil), items...)
	sort.SliceStable(oldest, func(i, j int) bool { return oldest[i].ModTime.Before(oldest[j].ModTime) })

	b.Add(report.H2("Newest"))
	for _, m := range newest[:min(top, len(newest))] {
		b.Item("%s: %s", m.RelPath, isoformat(m.ModTime))
	}
	b.Add("\n")
	b.Add(report.H2("Oldest"))
	for _, m := range oldest[:min(top, len(oldest))] {
		b.Item("%s: %s", m.RelPath, isoformat(m.ModTime))
	}
	return b.String(), ctx.Err()
}

// licenseKind names the license family from well-known phrases.
func licenseKind(text string) string {
	switch {
	case strings.Contains(text, "MIT License"):
		return "MIT"
	case strings.Contains(text, "Apache License"):
		return "Apache"
	case strings.Contains(text, "GNU GENERAL PUBLIC LICENSE"):
		return "GPL"
	case strings.Contains(text, "BSD License"):
		return "BSD"
	default:
		return "Unknown"
	}
}

// rootTexts reads the named files at the scan root that exist and have text.
func (e *Env) rootTexts(names []string, maxBytes int64) []textFile {
	var out []textFile
	for _, name := range names {
		path := e.rootFile(name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		entry := walk.Entry{AbsPath: path, RelPath: e.relToRoot(path)}
		if res := e.readMax(entry, maxBytes); res.OK() && res.Text != "" {
			out = append(out, textFile{Entry: entry, Text: res.Text})
		}
	}
	return out
}

func LicenseDetect(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1("License Detection"))
	for _, f := range env.rootTexts(licenseFiles, licenseMaxBytes) {
		b.Item("%s: %s", f.RelPath, licenseKind(f.Text))
	}
	if b.Len() == 1 {
		b.Add("No license files detected.\n")
	}
	return b.String(), ctx.Err()
}
