package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinnedVersionsScanReportsExactlyOnePin(t *testing.T) {
	root := writeTree(t, map[string]string{
		"requirements.txt": "requests==2.31.0\n# flask==1.0\nnumpy>=1.0\n",
		"notes.txt":        "pkg==1.0\n",
	})
	body := runReport(t, root, "pinned-versions-scan", nil)
	assert.Equal(t, "# Pinned Versions in requirements.txt\n\n- requirements.txt: requests==2.31.0\n", body)
}

func TestTodoScan(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py":           "# todo later\nx = 1\n",
		"b.md":           "nothing here\n",
		".venv/lib.py":   "# TODO hidden\n",
		"node_modules/x": "TODO hidden\n",
	})
	body := runReport(t, root, "todo-scan", nil)
	assert.Equal(t, "# TODO Scan\n\nScanned path: "+root+"\n\n## Findings\n\n- a.py:1: # todo later\n", body)
}

func TestSecretAndBugScans(t *testing.T) {
	root := writeTree(t, map[string]string{
		"conf.py": "password = \"hunter2\"\nuser = 'bob'\n# hack around it\n",
	})
	secrets := runReport(t, root, "secret-scan", nil)
	assert.Contains(t, secrets, "## Potential Secrets\n\n- conf.py:1: password = \"hunter2\"\n")
	assert.NotContains(t, secrets, "bob")

	bugs := runReport(t, root, "bug-scan", nil)
	assert.Contains(t, bugs, "- conf.py:3: # hack around it\n")
}

func TestHasMagicNumber(t *testing.T) {
	cases := map[string]bool{
		"x = 1000":     true,
		"port 8080;":   true,
		"v1.234":       false,
		"abc123":       false,
		"x = 12":       false,
		"pi = 3.14159": false,
		"":             false,
	}
	for line, want := range cases {
		assert.Equal(t, want, hasMagicNumber(line), line)
	}
}

func TestMagicNumberScanSkipsComments(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "# timeout 3000\nTIMEOUT = 3000\n",
	})
	body := runReport(t, root, "magic-number-scan", nil)
	assert.Equal(t, "# Magic Number Scanner\n\n- a.py:2: TIMEOUT = 3000\n", body)
}

func TestFindDeadExcept(t *testing.T) {
	lines := []string{"try:", "    x()", "except ValueError:", "    pass", "except Exception:  # boom", "    ...", "except KeyError:", "    log()"}
	assert.Equal(t, []string{"f.py:3 — pass", "f.py:5 — ..."}, findDeadExcept("f.py", lines))
}

func TestBroadExceptAndHTTPURLScans(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "try:\n    pass\nexcept Exception:\n    pass\nURL = 'http://example.com/a?b=1'\n",
	})
	assert.Contains(t, runReport(t, root, "broad-except-scan", nil), "- a.py:3\n")
	assert.Contains(t, runReport(t, root, "http-url-scan", nil), "- a.py: http://example.com/a?b=1\n")
}

func TestVersionNumberScanListsFilesOnce(t *testing.T) {
	root := writeTree(t, map[string]string{
		"CHANGES.md": "1.2.3\n1.2.4\n",
		"other.md":   "no version\n",
	})
	body := runReport(t, root, "version-number-scan", nil)
	assert.Equal(t, "# Version Number Scanner (semver)\n\n- CHANGES.md\n", body)
}

func TestRunPatternUnknown(t *testing.T) {
	_, err := runPattern(context.Background(), testEnv(t.TempDir()), "nope")
	require.Error(t, err)
}
