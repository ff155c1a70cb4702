package scan

import (
	"context"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/morozRed/toolbelt/internal/report"
)

var (
	indentWidth = regexp.MustCompile(`^( +)\S`)
	htmlTagPair = regexp.MustCompile(`<(/?)([a-zA-Z0-9]+)[^>]*>`)
	voidTags    = map[string]bool{
		"br": true, "hr": true, "img": true, "input": true, "meta": true, "link": true, "source": true,
		"area": true, "base": true, "col": true, "embed": true, "param": true, "track": true, "wbr": true,
	}
)

func syntaxCommands() []Command {
	return []Command{
		{Name: "json-syntax-scan", Short: "Report JSON files that do not parse", Group: "syntax", Run: JSONSyntaxScan},
		{Name: "xml-syntax-scan", Short: "Report XML files that are not well-formed", Group: "syntax", Run: XMLSyntaxScan},
		{Name: "yaml-syntax-scan", Short: "Report YAML parse errors and indentation issues", Group: "syntax", Run: YAMLSyntaxScan},
		{Name: "html-syntax-scan", Short: "Report HTML files with unbalanced tags", Group: "syntax", Run: HTMLSyntaxScan},
	}
}

func JSONSyntaxScan(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, jsonExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("JSON Syntax Scan"))
	for _, f := range nonEmpty(files) {
		if _, err := decodeJSON(f.Text); err != nil {
			b.Item("%s: %v", f.RelPath, err)
		}
	}
	if b.Len() == 1 {
		b.Add("No JSON syntax errors found.\n")
	}
	return b.String(), nil
}

func XMLSyntaxScan(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1("XML Syntax Scan"))
	for _, entry := range env.entries(xmlExts) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if _, err := parseXMLFile(entry.AbsPath); err != nil {
			b.Item("%s: %v", entry.RelPath, err)
		}
	}
	if b.Len() == 1 {
		b.Add("No XML syntax errors found.\n")
	}
	return b.String(), nil
}

// yamlIssues decodes every document, stopping at the first parse error, and
// adds the tab and indent-width heuristics on top.
func yamlIssues(text string) []string {
	var issues []string
	dec := yaml.NewDecoder(strings.NewReader(text))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			issues = append(issues, err.Error())
			break
		}
	}

	hasTab := false
	widths := make(map[int]bool)
	for _, line := range splitLines(text) {
		if strings.Contains(line, "\t") {
			hasTab = true
		}
		if m := indentWidth.FindStringSubmatch(line); m != nil {
			widths[len(m[1])] = true
		}
	}
	if hasTab {
		issues = append(issues, "tabs present")
	}
	if widths[2] && widths[4] {
		issues = append(issues, "mixed 2/4 space indents")
	}
	return issues
}

func YAMLSyntaxScan(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, yamlExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("YAML Syntax Scan (heuristic)"))
	for _, f := range nonEmpty(files) {
		if issues := yamlIssues(f.Text); len(issues) > 0 {
			b.Item("%s: %s", f.RelPath, strings.Join(issues, ", "))
		}
	}
	if b.Len() == 1 {
		b.Add("No YAML heuristic issues found.\n")
	}
	return b.String(), nil
}

// tagsBalanced matches opening and closing tags with a stack, ignoring void
// elements. A closing tag that does not match the innermost open tag stays
// on the stack as unmatched.
func tagsBalanced(text string) bool {
	var stack []string
	for _, m := range htmlTagPair.FindAllStringSubmatch(text, -1) {
		closing, tag := m[1] != "", strings.ToLower(m[2])
		if voidTags[tag] {
			continue
		}
		switch {
		case !closing:
			stack = append(stack, tag)
		case len(stack) > 0 && stack[len(stack)-1] == tag:
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, "?"+tag)
		}
	}
	return len(stack) == 0
}

func HTMLSyntaxScan(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, htmlExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("HTML Syntax Scan (heuristic)"))
	for _, f := range nonEmpty(files) {
		if !tagsBalanced(f.Text) {
			b.Item("%s: unbalanced/mismatched tags (heuristic)", f.RelPath)
		}
	}
	if b.Len() == 1 {
		b.Add("No obvious HTML tag balance issues detected.\n")
	}
	return b.String(), nil
}
