package scan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	v, err := decodeJSON(`{"a": [1, 2.5]}` + "\n")
	require.NoError(t, err)
	assert.Equal(t, "dict", jsonTypeName(v))

	_, err = decodeJSON("{\n  \"a\": }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2 column")

	_, err = decodeJSON("{} {}")
	assert.True(t, errors.Is(err, errExtraData), "got %v", err)

	_, err = decodeJSON("")
	assert.Error(t, err)
}

func TestJSONTypeName(t *testing.T) {
	v, err := decodeJSON(`[1, 1.5, 1e3, "s", true, null, {}, []]`)
	require.NoError(t, err)
	var names []string
	for _, item := range v.([]any) {
		names = append(names, jsonTypeName(item))
	}
	assert.Equal(t, []string{"int", "float", "float", "str", "bool", "NoneType", "dict", "list"}, names)
}

func TestParseXML(t *testing.T) {
	root, err := parseXML([]byte(`<?xml version="1.0"?><suite tests="3"><case/></suite>`))
	require.NoError(t, err)
	assert.Equal(t, "suite", root.Name.Local)
	tests, ok := attr(root, "tests")
	assert.True(t, ok)
	assert.Equal(t, "3", tests)

	_, err = parseXML([]byte(""))
	assert.ErrorIs(t, err, errNoElement)
	_, err = parseXML([]byte("<a/><b/>"))
	assert.ErrorIs(t, err, errJunkAfterEl)
	_, err = parseXML([]byte("<a><b></a>"))
	assert.Error(t, err)

	_, err = parseXML([]byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><a>caf\xe9</a>"))
	assert.NoError(t, err)
}

func TestSyntaxScans(t *testing.T) {
	root := writeTree(t, map[string]string{
		"good.json": `{"a": 1}`,
		"bad.json":  `{"a": }`,
		"good.xml":  "<a><b/></a>",
		"bad.xml":   "<a><b></a>",
		"ok.yaml":   "a: 1\nb:\n  c: 2\n",
		"mixed.yml": "a:\n  b:\n    c: 1\n",
		"page.html": "<div><p>x</p><br></div>",
		"bad.html":  "<div><span></div>",
	})

	jsonBody := runReport(t, root, "json-syntax-scan", nil)
	assert.Contains(t, jsonBody, "- bad.json: ")
	assert.NotContains(t, jsonBody, "good.json")

	xmlBody := runReport(t, root, "xml-syntax-scan", nil)
	assert.Contains(t, xmlBody, "- bad.xml: ")
	assert.NotContains(t, xmlBody, "good.xml")

	assert.Equal(t, "# YAML Syntax Scan (heuristic)\n\n- mixed.yml: mixed 2/4 space indents\n",
		runReport(t, root, "yaml-syntax-scan", nil))
	assert.Equal(t, "# HTML Syntax Scan (heuristic)\n\n- bad.html: unbalanced/mismatched tags (heuristic)\n",
		runReport(t, root, "html-syntax-scan", nil))
}

func TestYAMLIssues(t *testing.T) {
	issues := yamlIssues("a:\n\tb: 1\n")
	require.NotEmpty(t, issues)
	assert.Equal(t, "tabs present", issues[len(issues)-1])

	assert.Empty(t, yamlIssues("a: 1\n---\nb: 2\n"))

	issues = yamlIssues("a: [1\n")
	assert.Len(t, issues, 1)
}

func TestTagsBalanced(t *testing.T) {
	assert.True(t, tagsBalanced("<div><p>x</p><br><img src=a></div>"))
	assert.True(t, tagsBalanced("<DIV></div>"))
	assert.False(t, tagsBalanced("<div><span></div>"))
	assert.False(t, tagsBalanced("</p>"))
}
