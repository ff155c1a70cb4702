// Package pyast extracts definition-level facts from Python source with
// tree-sitter: functions and classes with their spans, parameter counts,
// annotations and docstrings, imports, syntax errors and statements that
// follow a return or raise in the same block.
package pyast

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Kind names a definition the way Python's own ast module does.
type Kind string

const (
	KindFunction      Kind = "FunctionDef"
	KindAsyncFunction Kind = "AsyncFunctionDef"
	KindClass         Kind = "ClassDef"
)

// Def is a function, async function or class definition.
type Def struct {
	Kind Kind
	Name string
	// Line and EndLine are 1-based and inclusive.
	Line    int
	EndLine int
	// Params counts positional, keyword-only, *args and **kwargs parameters.
	Params int
	// Annotated is true when any regular or keyword-only parameter, or the
	// return, carries a type annotation.
	Annotated bool
	// HasDoc reports a docstring statement, even an empty one.
	HasDoc bool
	Doc    string
	// Methods counts functions defined directly in a class body.
	Methods int
}

// IsFunction reports whether d is a sync or async function.
func (d Def) IsFunction() bool {
	return d.Kind == KindFunction || d.Kind == KindAsyncFunction
}

// Lines is the inclusive span length.
func (d Def) Lines() int {
	if d.Line == 0 || d.EndLine == 0 {
		return 0
	}
	return d.EndLine - d.Line + 1
}

// Summary is the first line of the docstring.
func (d Def) Summary() string {
	doc := strings.TrimSpace(d.Doc)
	if idx := strings.Index(doc, "\n"); idx != -1 {
		doc = doc[:idx]
	}
	return doc
}

// SyntaxError locates the first parse error in a module.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Module holds the facts extracted from one source file.
type Module struct {
	// Defs are in breadth-first order, nested definitions included.
	Defs []Def
	// Imports are module names for plain imports and "module.name" for
	// from-imports, in source order with duplicates kept.
	Imports []string
	// Unreachable lists the lines of return/raise statements that are
	// followed by another statement in the same block, ascending.
	Unreachable []int
	// Err is set when the source does not parse cleanly.
	Err *SyntaxError
}

// Functions returns the function definitions of m.
func (m *Module) Functions() []Def {
	out := make([]Def, 0, len(m.Defs))
	for _, d := range m.Defs {
		if d.IsFunction() {
			out = append(out, d)
		}
	}
	return out
}

// Classes returns the class definitions of m.
func (m *Module) Classes() []Def {
	out := make([]Def, 0)
	for _, d := range m.Defs {
		if d.Kind == KindClass {
			out = append(out, d)
		}
	}
	return out
}

var parsers = sync.Pool{
	New: func() any {
		p := sitter.NewParser()
		p.SetLanguage(python.GetLanguage())
		return p
	},
}

// Parse analyzes src. It is safe for concurrent use. An error is returned
// only when tree-sitter itself fails; malformed Python is reported through
// Module.Err.
func Parse(ctx context.Context, src []byte) (*Module, error) {
	p := parsers.Get().(*sitter.Parser)
	defer parsers.Put(p)

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse python source: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	m := &Module{
		Defs:    make([]Def, 0),
		Imports: make([]string, 0),
	}
	if root.HasError() {
		m.Err = firstError(root)
	}

	unreachable := make(map[int]bool)
	queue := []*sitter.Node{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		switch node.Type() {
		case "function_definition":
			m.Defs = append(m.Defs, extractFunction(node, src))
		case "class_definition":
			m.Defs = append(m.Defs, extractClass(node, src))
		case "import_statement":
			m.Imports = append(m.Imports, extractImport(node, src)...)
		case "import_from_statement":
			m.Imports = append(m.Imports, extractFromImport(node, src)...)
		case "module", "block":
			markUnreachable(node, unreachable)
		}

		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child != nil {
				queue = append(queue, child)
			}
		}
	}

	m.Unreachable = make([]int, 0, len(unreachable))
	for line := range unreachable {
		m.Unreachable = append(m.Unreachable, line)
	}
	sort.Ints(m.Unreachable)
	return m, nil
}

func startLine(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

func endLine(node *sitter.Node) int {
	end := node.EndPoint()
	if end.Column == 0 && end.Row > node.StartPoint().Row {
		return int(end.Row)
	}
	return int(end.Row) + 1
}

func extractFunction(node *sitter.Node, src []byte) Def {
	def := Def{
		Kind:    KindFunction,
		Line:    startLine(node),
		EndLine: endLine(node),
	}
	if first := node.Child(0); first != nil && first.Type() == "async" {
		def.Kind = KindAsyncFunction
	}
	if name := node.ChildByFieldName("name"); name != nil {
		def.Name = name.Content(src)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		def.Params, def.Annotated = countParams(params)
	}
	if node.ChildByFieldName("return_type") != nil {
		def.Annotated = true
	}
	def.Doc, def.HasDoc = docstring(node.ChildByFieldName("body"), src)
	return def
}

func extractClass(node *sitter.Node, src []byte) Def {
	def := Def{
		Kind:    KindClass,
		Line:    startLine(node),
		EndLine: endLine(node),
	}
	if name := node.ChildByFieldName("name"); name != nil {
		def.Name = name.Content(src)
	}
	body := node.ChildByFieldName("body")
	def.Doc, def.HasDoc = docstring(body, src)
	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			if isFunctionStatement(body.NamedChild(i)) {
				def.Methods++
			}
		}
	}
	return def
}

func isFunctionStatement(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "function_definition":
		return true
	case "decorated_definition":
		inner := node.ChildByFieldName("definition")
		return inner != nil && inner.Type() == "function_definition"
	}
	return false
}

// countParams counts declared parameters, ignoring the bare "*" and "/"
// separators. Annotations on *args and **kwargs do not count as annotated.
func countParams(params *sitter.Node) (count int, annotated bool) {
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier", "default_parameter",
			"list_splat_pattern", "dictionary_splat_pattern":
			count++
		case "typed_parameter", "typed_default_parameter":
			count++
			if !isSplat(child.NamedChild(0)) {
				annotated = true
			}
		}
	}
	return count, annotated
}

func isSplat(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	t := node.Type()
	return t == "list_splat_pattern" || t == "dictionary_splat_pattern"
}

func extractImport(node *sitter.Node, src []byte) []string {
	imports := make([]string, 0)
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.FieldNameForChild(i) != "name" {
			continue
		}
		if name := importedName(node.Child(i), src); name != "" {
			imports = append(imports, name)
		}
	}
	return imports
}

// extractFromImport renders "from a.b import c" as "a.b.c". Relative levels
// are dropped, so "from . import c" becomes ".c".
func extractFromImport(node *sitter.Node, src []byte) []string {
	module := ""
	if moduleNode := node.ChildByFieldName("module_name"); moduleNode != nil {
		module = strings.TrimLeft(strings.TrimSpace(moduleNode.Content(src)), ".")
	}

	imports := make([]string, 0)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "wildcard_import" {
			imports = append(imports, module+".*")
			continue
		}
		if node.FieldNameForChild(i) != "name" {
			continue
		}
		if name := importedName(child, src); name != "" {
			imports = append(imports, module+"."+name)
		}
	}
	return imports
}

func importedName(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "aliased_import":
		node = node.ChildByFieldName("name")
		if node == nil {
			return ""
		}
	case "dotted_name", "identifier":
	default:
		return ""
	}
	return strings.TrimSpace(node.Content(src))
}

// markUnreachable records return and raise statements that are not the
// last statement of block. Comments are not statements.
func markUnreachable(block *sitter.Node, lines map[int]bool) {
	statements := make([]*sitter.Node, 0, block.NamedChildCount())
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		statements = append(statements, child)
	}
	for _, stmt := range statements[:max(0, len(statements)-1)] {
		switch stmt.Type() {
		case "return_statement", "raise_statement":
			lines[startLine(stmt)] = true
		}
	}
}

func firstError(root *sitter.Node) *SyntaxError {
	var found *SyntaxError
	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		if found != nil || node == nil || !node.HasError() && !node.IsMissing() {
			return
		}
		if node.IsMissing() {
			found = &SyntaxError{Line: startLine(node), Msg: fmt.Sprintf("missing %s", node.Type())}
			return
		}
		if node.Type() == "ERROR" {
			found = &SyntaxError{Line: startLine(node), Msg: "invalid syntax"}
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			visit(node.Child(i))
		}
	}
	visit(root)
	if found == nil {
		found = &SyntaxError{Line: startLine(root), Msg: "invalid syntax"}
	}
	return found
}
