package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeStats(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "x\ny\n",
		"b.py": "z",
		"c.md": "",
		"d":    "bin",
	})
	body := runReport(t, root, "code-stats", nil)
	want := "# Code Stats\n\nPath: " + root + "\n\n" +
		"- Total files: 4\n- Total size: 8 bytes\n- Estimated LOC: 5\n\n" +
		"## By Extension\n\n- .py: 2\n- .md: 1\n- (no ext): 1\n"
	assert.Equal(t, want, body)
}

func TestTreeLinesPrunesExcludedDirectories(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":             "a",
		"sub/b.txt":         "b",
		"sub/deeper/c.txt":  "c",
		".git/config":       "x",
		"node_modules/x.js": "x",
	})
	lines := testEnv(root).treeLines()
	assert.Equal(t, []string{
		filepath.Base(root),
		"    a.txt",
		"sub/",
		"    b.txt",
		"    deeper/",
		"        c.txt",
	}, lines)

	body := runReport(t, root, "dir-tree-to-md", nil)
	assert.True(t, strings.HasPrefix(body, "# Directory Tree\n\n```\n"+filepath.Base(root)+"\n"))
}

func TestInventories(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/x.txt":   "hello",
		"b/x.txt":   "hello",
		"b/y.png":   "img",
		"c.bin":     "\x00\x01\x02",
		"tests/t":   "",
		"test_a.py": "",
	})

	assert.Equal(t, "# Extension Inventory\n\n- .txt: 2\n- .png: 1\n- .bin: 1\n- .py: 1\n- (no ext): 1\n",
		runReport(t, root, "extension-inventory", nil))
	assert.Equal(t, "# Image Inventory\n\n- "+filepath.Join("b", "y.png")+" — 3 bytes\n",
		runReport(t, root, "image-inventory", nil))
	assert.Equal(t, "# Binary File Inventory\n\n- c.bin\n", runReport(t, root, "binary-file-inventory", nil))
	assert.Equal(t, "# Duplicate Filename Scanner\n\n## x.txt\n\n- "+filepath.Join("a", "x.txt")+"\n- "+filepath.Join("b", "x.txt")+"\n",
		runReport(t, root, "duplicate-filename-scan", nil))
	assert.Equal(t, "# Test File Scanner\n\n- test_a.py\n- "+filepath.Join("tests", "t")+"\n",
		runReport(t, root, "test-file-scan", nil))

	sizes := runReport(t, root, "dir-size-report", nil)
	assert.Equal(t, "# Directory Size Report\n\n- b: 8 bytes\n- a: 5 bytes\n- .: 3 bytes\n- tests: 0 bytes\n", sizes)
}

func TestDuplicateFileContentsScan(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "same",
		"b.txt": "same",
		"c.txt": "other",
		"d.txt": strings.Repeat("z", 20),
		"e.txt": strings.Repeat("z", 20),
	})
	body, err := DuplicateFileContentsScan(context.Background(), testEnv(root), 10)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(body, "# Duplicate File Contents Scanner\n\nOnly files <= 10 bytes considered.\n\n## "))
	assert.True(t, strings.HasSuffix(body, "\n\n- a.txt\n- b.txt\n"))
	assert.NotContains(t, body, "d.txt")

	body, err = DuplicateFileContentsScan(context.Background(), testEnv(root), 2)
	require.NoError(t, err)
	assert.Contains(t, body, "No duplicate file contents found.\n")
}

func TestLargeFileScan(t *testing.T) {
	root := writeTree(t, map[string]string{"big.txt": "abcdef", "mid.txt": "abcd", "small.txt": "ab"})
	body := runReport(t, root, "large-file-scan", Params{"min-bytes": 4})
	assert.Equal(t, "# Large File Scanner\n\nThreshold: 4 bytes\n\n- big.txt — 6 bytes\n- mid.txt — 4 bytes\n", body)
}

func TestIsTestFile(t *testing.T) {
	cases := map[string]bool{
		"test_a.py":                         true,
		"a_test.py":                         true,
		filepath.Join("tests", "data.json"): true,
		filepath.Join("pkg", "tests", "x"):  true,
		"testing.py":                        false,
		filepath.Join("mytests", "x.py"):    false,
	}
	for rel, want := range cases {
		assert.Equal(t, want, isTestFile(rel), rel)
	}
}

func TestIsoformat(t *testing.T) {
	assert.Equal(t, "2024-01-02T03:04:05", isoformat(time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)))
	assert.Equal(t, "2024-01-02T03:04:05.000001", isoformat(time.Date(2024, 1, 2, 3, 4, 5, 1500, time.Local)))
	assert.Equal(t, "2024-01-02T03:04:05", isoformat(time.Date(2024, 1, 2, 3, 4, 5, 999, time.Local)))
}

func TestRecentAndAgeReports(t *testing.T) {
	root := writeTree(t, map[string]string{"new.txt": "n", "old.txt": "o"})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	newTime := now.Add(-24 * time.Hour)
	oldTime := now.Add(-30 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "new.txt"), newTime, newTime))
	require.NoError(t, os.Chtimes(filepath.Join(root, "old.txt"), oldTime, oldTime))

	env := testEnv(root)
	env.Now = func() time.Time { return now }
	body, err := RecentFilesReport(context.Background(), env, 7)
	require.NoError(t, err)
	assert.Equal(t, "# Recent Files Report\n\nWindow: last 7 days\n\n- new.txt: "+isoformat(newTime)+"\n", body)

	body, err = FileAgeReport(context.Background(), env, 1)
	require.NoError(t, err)
	assert.Equal(t, "# File Age Report\n\n## Newest\n\n- new.txt: "+isoformat(newTime)+"\n\n## Oldest\n\n- old.txt: "+isoformat(oldTime)+"\n", body)
}

func TestLicenseKindAndDetect(t *testing.T) {
	assert.Equal(t, "MIT", licenseKind("The MIT License (MIT)\nMIT License"))
	assert.Equal(t, "Apache", licenseKind("Apache License\nVersion 2.0"))
	assert.Equal(t, "GPL", licenseKind("GNU GENERAL PUBLIC LICENSE"))
	assert.Equal(t, "BSD", licenseKind("BSD License"))
	assert.Equal(t, "Unknown", licenseKind("All rights reserved"))

	root := writeTree(t, map[string]string{
		"LICENSE":     "MIT License\n\nCopyright (c)\n",
		"COPYING":     "custom terms\n",
		"sub/LICENSE": "Apache License\n",
	})
	assert.Equal(t, "# License Detection\n\n- LICENSE: MIT\n- COPYING: Unknown\n", runReport(t, root, "license-detect", nil))
}
