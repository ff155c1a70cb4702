package scan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadings(t *testing.T) {
	src := []byte("# A\n\nSetext\n===\n\n## `code` *B*\n\n```\n# not a heading\n```\n")
	assert.Equal(t, []heading{{1, "A"}, {1, "Setext"}, {2, "code B"}}, headings(src))
}

func TestPlainText(t *testing.T) {
	src := []byte("# Title\n\nSome *bold* [link](http://x) text.\n\n```\ncode\n```\n\n![img](a.png)\n")
	assert.Equal(t, "Title\n\nSome bold link text.", plainText(src))
}

func TestImageRefs(t *testing.T) {
	src := []byte("![a](x.png \"title\") and ![b](https://e.com/b.png)\n")
	assert.Equal(t, []string{"x.png", "https://e.com/b.png"}, imageRefs(src))
}

func TestMarkdownReports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"README.md":      "Intro line\nstill intro.\n\n## Usage\n\nSee https://example.com/docs and ![logo](img/logo.png).\n",
		"docs/README.md": "# Nested\n",
		"docs/guide.md":  "# Guide\n\n![shot](shot.png)\n",
		"docs/shot.png":  "png",
		"CHANGELOG.md":   "# Changelog\n\n## 1.1.0\n\n## 1.0.0\n",
		"notes/empty.md": "",
	})

	index := runReport(t, root, "markdown-heading-index", nil)
	assert.Contains(t, index, "## CHANGELOG.md\n\n- Changelog\n-   1.1.0\n-   1.0.0\n")

	images := runReport(t, root, "markdown-image-check", nil)
	assert.Equal(t, "# Markdown Image Check\n\n- README.md: missing image img/logo.png\n", images)

	summary := runReport(t, root, "readme-summary", nil)
	assert.Equal(t, "# README Summary\n\n## README.md\n\nIntro line\nstill intro.\n\n- Usage\n", summary)

	changelog := runReport(t, root, "changelog-summary", nil)
	assert.Equal(t, "# Changelog Summary\n\n## CHANGELOG.md\n\n- Changelog\n- 1.1.0\n- 1.0.0\n", changelog)

	links := runReport(t, root, "readme-links", nil)
	assert.Equal(t, "# README Links\n\n## README.md\n\n- https://example.com/docs\n", links)

	words := runReport(t, root, "markdown-word-count", nil)
	assert.Contains(t, words, "- "+filepath.Join("docs", "guide.md")+": 1 words\n")
	assert.Contains(t, words, "\nTotal words: ")
}

func TestReadmeMissing(t *testing.T) {
	root := writeTree(t, map[string]string{"a.md": "# A\n"})
	assert.Equal(t, "# README Summary\n\nNo README found.\n", runReport(t, root, "readme-summary", nil))
	assert.Equal(t, "# Changelog Summary\n\nNo CHANGELOG.md found.\n", runReport(t, root, "changelog-summary", nil))
}

func TestURLs(t *testing.T) {
	text := "b https://b.example/x, a http://a.example/y?q=1 and https://b.example/x again"
	assert.Equal(t, []string{"http://a.example/y?q=1", "https://b.example/x"}, urls(text))
}

func TestLinkCheckMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	root := writeTree(t, map[string]string{
		"a.md": "see " + srv.URL + "/ok\n",
		"b.md": "see " + srv.URL + "/missing and " + srv.URL + "/ok\n",
	})
	env := testEnv(root)

	body, err := LinkCheckMarkdown(context.Background(), env, false)
	require.NoError(t, err)
	assert.Equal(t, "# Markdown Link Check\n\nMode: online\n\n"+
		"- a.md: "+srv.URL+"/ok — 200 OK\n"+
		"- b.md: "+srv.URL+"/missing — 404 Not Found\n"+
		"- b.md: "+srv.URL+"/ok — 200 OK\n", body)

	body, err = LinkCheckMarkdown(context.Background(), env, true)
	require.NoError(t, err)
	assert.Contains(t, body, "Mode: offline\n\n- a.md: "+srv.URL+"/ok — 0 offline\n")
}
