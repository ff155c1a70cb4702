package pyast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// docstring returns the cleaned docstring of body when its first statement
// is a plain string literal. Byte strings and f-strings are not docstrings.
func docstring(body *sitter.Node, src []byte) (string, bool) {
	if body == nil {
		return "", false
	}
	var first *sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child != nil && child.Type() != "comment" {
			first = child
			break
		}
	}
	if first == nil || first.Type() != "expression_statement" || first.NamedChildCount() != 1 {
		return "", false
	}
	expr := first.NamedChild(0)
	if expr == nil || expr.Type() != "string" {
		return "", false
	}
	for i := 0; i < int(expr.NamedChildCount()); i++ {
		if child := expr.NamedChild(i); child != nil && child.Type() == "interpolation" {
			return "", false
		}
	}

	literal, ok := unquote(expr.Content(src))
	if !ok {
		return "", false
	}
	return cleandoc(literal), true
}

// unquote strips the prefix and quotes of a Python string literal without
// processing escapes.
func unquote(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	prefixEnd := strings.IndexAny(raw, `"'`)
	if prefixEnd < 0 {
		return "", false
	}
	if strings.ContainsAny(strings.ToLower(raw[:prefixEnd]), "bf") {
		return "", false
	}
	body := raw[prefixEnd:]
	for _, quote := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(quote) && strings.HasPrefix(body, quote) && strings.HasSuffix(body, quote) {
			return body[len(quote) : len(body)-len(quote)], true
		}
	}
	return "", false
}

// cleandoc normalizes docstring indentation: tabs expand to 8 spaces, the
// first line loses its leading whitespace, the common indentation of the
// remaining lines is removed, and leading and trailing blank lines are
// dropped.
func cleandoc(doc string) string {
	lines := strings.Split(strings.ReplaceAll(doc, "\t", "        "), "\n")

	margin := -1
	for _, line := range lines[1:] {
		content := strings.TrimLeft(line, " ")
		if content == "" {
			continue
		}
		indent := len(line) - len(content)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = strings.TrimLeft(lines[i], " ")
			}
		}
	}

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
