package walk

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/morozRed/toolbelt/internal/classify"
	"github.com/morozRed/toolbelt/internal/ignore"
)

func mustWriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func relPaths(seq []Entry) []string {
	out := make([]string, 0, len(seq))
	for _, entry := range seq {
		out = append(out, filepath.ToSlash(entry.RelPath))
	}
	sort.Strings(out)
	return out
}

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{
		"a.py",
		"README.md",
		".env",
		"src/main.go",
		"src/util/helpers.PY",
		"src/node_modules/pkg/index.js",
		".git/config",
		".git/objects/keep/c.py",
		"node_modules/lib/index.js",
		"build/out/deep/app.py",
		"__pycache__/a.cpython.pyc",
		".hidden/visible/x.py",
		"docs/guide.md",
	} {
		mustWriteFile(t, filepath.Join(root, rel), "content\n")
	}
	return root
}

func TestWalkPrunesExcludedDirectoriesAtAnyDepth(t *testing.T) {
	root := buildTree(t)

	got := relPaths(Collect(Files(root, nil)))
	want := []string{".env", "README.md", "a.py", "docs/guide.md", "src/main.go", "src/util/helpers.PY"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected walk result:\n got %v\nwant %v", got, want)
	}

	excluded := append(classify.DefaultExcludedDirs(), ".hidden")
	for _, rel := range got {
		for _, part := range strings.Split(rel, "/")[:len(strings.Split(rel, "/"))-1] {
			for _, name := range excluded {
				if part == name {
					t.Fatalf("walk yielded %s inside excluded directory %s", rel, name)
				}
			}
		}
	}
}

func TestWalkExtensionFilter(t *testing.T) {
	root := buildTree(t)

	got := relPaths(Collect(Files(root, classify.NewExtensionSet(".py"))))
	want := []string{"a.py", "src/util/helpers.PY"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	none := Collect(Files(root, classify.NewExtensionSet()))
	if len(none) != 0 {
		t.Fatalf("empty extension set should match nothing, got %v", relPaths(none))
	}
}

func TestWalkEntriesCarryAbsoluteAndRelativePaths(t *testing.T) {
	root := buildTree(t)
	for entry := range Files(root, classify.NewExtensionSet(".go")) {
		if !filepath.IsAbs(entry.AbsPath) {
			t.Fatalf("expected absolute path, got %s", entry.AbsPath)
		}
		if filepath.Join(root, entry.RelPath) != entry.AbsPath {
			t.Fatalf("relative path %s does not resolve to %s", entry.RelPath, entry.AbsPath)
		}
	}
}

func TestWalkIsRestartableAndIdempotent(t *testing.T) {
	root := buildTree(t)
	seq := Files(root, nil)

	first := relPaths(Collect(seq))
	second := relPaths(Collect(seq))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical walks, got %v and %v", first, second)
	}
}

func TestWalkStopsEarly(t *testing.T) {
	root := buildTree(t)
	count := 0
	for range Files(root, nil) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("expected to stop after 2 entries, got %d", count)
	}
}

func TestWalkMissingOrFileRoot(t *testing.T) {
	root := t.TempDir()
	if got := Collect(Files(filepath.Join(root, "missing"), nil)); len(got) != 0 {
		t.Fatalf("expected no entries for missing root, got %v", got)
	}

	file := filepath.Join(root, "single.txt")
	mustWriteFile(t, file, "x")
	if got := Collect(Files(file, nil)); len(got) != 0 {
		t.Fatalf("expected no entries for file root, got %v", got)
	}

	empty := t.TempDir()
	if got := Collect(Files(empty, nil)); len(got) != 0 {
		t.Fatalf("expected no entries for empty root, got %v", got)
	}
}

func TestWalkSkipsBinaryAndDotDirectoryFiles(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a.py"), strings.Repeat("x", 39)+"\n")
	mustWriteFile(t, filepath.Join(root, "b.bin"), "\x00\x01\x02")
	mustWriteFile(t, filepath.Join(root, ".git", "c.py"), "print(1)\n")

	got := relPaths(Collect(Files(root, classify.NewExtensionSet(".py"))))
	if !reflect.DeepEqual(got, []string{"a.py"}) {
		t.Fatalf("expected only a.py, got %v", got)
	}
}

func TestWalkCustomClassifier(t *testing.T) {
	root := buildTree(t)
	w := New(classify.New([]string{"src"}))

	got := relPaths(Collect(w.Walk(root, Options{})))
	want := []string{
		".env",
		"README.md",
		"__pycache__/a.cpython.pyc",
		"a.py",
		"build/out/deep/app.py",
		"docs/guide.md",
		"node_modules/lib/index.js",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWalkIgnoreAndInclude(t *testing.T) {
	root := buildTree(t)
	w := New(nil)

	ignored := relPaths(Collect(w.Walk(root, Options{Ignore: ignore.NewMatcher([]string{"docs/", "*.md"})})))
	want := []string{".env", "a.py", "src/main.go", "src/util/helpers.PY"}
	if !reflect.DeepEqual(ignored, want) {
		t.Fatalf("expected %v, got %v", want, ignored)
	}

	included := relPaths(Collect(w.Walk(root, Options{Include: []string{"src/**"}})))
	want = []string{"src/main.go", "src/util/helpers.PY"}
	if !reflect.DeepEqual(included, want) {
		t.Fatalf("expected %v, got %v", want, included)
	}
}

func TestWalkDoesNotFollowDirectorySymlinks(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "real", "file.txt"), "x")
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(root, filepath.Join(root, "real", "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got := relPaths(Collect(Files(root, nil)))
	if !reflect.DeepEqual(got, []string{"real/file.txt"}) {
		t.Fatalf("expected only real/file.txt, got %v", got)
	}
}

func TestWalkFollowsSymlinkedRoot(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "project", "a.py"), "x = 1\n")
	link := filepath.Join(dir, "link")
	if err := os.Symlink(filepath.Join(dir, "project"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got := Collect(Files(link, nil))
	if len(got) != 1 {
		t.Fatalf("expected one entry through symlinked root, got %v", got)
	}
	if got[0].RelPath != "a.py" {
		t.Fatalf("expected rel path a.py, got %q", got[0].RelPath)
	}
	if want := filepath.Join(link, "a.py"); got[0].AbsPath != want {
		t.Fatalf("expected abs path %q, got %q", want, got[0].AbsPath)
	}
}

func TestMapKeepsSortedResults(t *testing.T) {
	root := buildTree(t)

	items, err := Map(context.Background(), Files(root, nil), 4, func(e Entry) (int, bool) {
		return len(e.RelPath), !strings.HasSuffix(e.RelPath, ".md")
	})
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	got := make([]string, 0, len(items))
	for _, item := range items {
		got = append(got, filepath.ToSlash(item.RelPath))
		if item.Value != len(item.RelPath) {
			t.Fatalf("value mismatch for %s", item.RelPath)
		}
	}
	want := []string{".env", "a.py", "src/main.go", "src/util/helpers.PY"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMapStopsOnCancel(t *testing.T) {
	root := buildTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	items, err := Map(ctx, Files(root, nil), 2, func(e Entry) (struct{}, bool) {
		calls.Add(1)
		return struct{}{}, true
	})
	if err == nil {
		t.Fatalf("expected context error")
	}
	if len(items) != 0 || calls.Load() != 0 {
		t.Fatalf("expected no work after cancellation, got %d items and %d calls", len(items), calls.Load())
	}
}
