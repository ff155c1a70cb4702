package scan

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/morozRed/toolbelt/internal/fileutil"
	"github.com/morozRed/toolbelt/internal/pyast"
	"github.com/morozRed/toolbelt/internal/report"
	"github.com/morozRed/toolbelt/internal/walk"
)

func pythonCommands() []Command {
	return []Command{
		{
			Name: "long-func-scan", Short: "List functions of at least --min-lines lines", Group: "python",
			Flags: []Flag{intFlag("min-lines", 50, "Minimum function length in lines")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return LongFuncScan(ctx, env, env.Params.Int("min-lines", 50))
			},
		},
		{Name: "miss-docstring-scan", Short: "List definitions without a docstring", Group: "python", Run: MissingDocstringScan},
		{Name: "syntax-scan-py", Short: "Report Python files that do not parse", Group: "python", Run: PythonSyntaxScan},
		{Name: "unreachable-code-scan-py", Short: "Report return/raise followed by more statements", Group: "python", Run: UnreachableCodeScan},
		{
			Name: "many-params-scan", Short: "List functions with at least --max-params parameters", Group: "python",
			Flags: []Flag{intFlag("max-params", 6, "Parameter count to report")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return ManyParamsScan(ctx, env, env.Params.Int("max-params", 6))
			},
		},
		{Name: "typing-missing-scan", Short: "List functions without any annotation", Group: "python", Run: TypingMissingScan},
		{Name: "code-outline-py", Short: "Outline classes and functions per file", Group: "python", Run: CodeOutline},
		{Name: "import-list-py", Short: "List imports per file", Group: "python", Run: ImportList},
		{Name: "function-metrics-py", Short: "Report function length and parameters", Group: "python", Run: FunctionMetrics},
		{Name: "class-metrics-py", Short: "Report class length and methods", Group: "python", Run: ClassMetrics},
		{Name: "docstring-summary-py", Short: "List the first docstring line of each definition", Group: "python", Run: DocstringSummary},
	}
}

// pyFile is a parsed Python source. Err is set when tree-sitter could not
// produce a tree at all.
type pyFile struct {
	walk.Entry
	Mod *pyast.Module
	Err error
}

// ok reports whether the file parsed without syntax errors.
func (f pyFile) ok() bool {
	return f.Err == nil && f.Mod != nil && f.Mod.Err == nil
}

// pyFiles parses every non-empty Python file below the root.
func (e *Env) pyFiles(ctx context.Context) ([]pyFile, error) {
	items, err := walk.Map(ctx, e.files(pyExts), e.Workers, func(entry walk.Entry) (pyFile, bool) {
		res := e.read(entry)
		if !res.OK() || res.Text == "" {
			return pyFile{}, false
		}
		mod, err := pyast.Parse(ctx, []byte(res.Text))
		if err != nil {
			e.log().Debugf("python %s: %v", entry.RelPath, err)
		}
		return pyFile{Mod: mod, Err: err}, true
	})
	out := make([]pyFile, 0, len(items))
	for _, item := range items {
		f := item.Value
		f.Entry = item.Entry
		out = append(out, f)
	}
	return out, err
}

func parsedFiles(files []pyFile) []pyFile {
	out := files[:0:0]
	for _, f := range files {
		if f.ok() {
			out = append(out, f)
		}
	}
	return out
}

type funcSpan struct {
	rel   string
	name  string
	lines int
}

func LongFuncScan(ctx context.Context, env *Env, minLines int) (string, error) {
	files, err := env.pyFiles(ctx)
	if err != nil {
		return "", err
	}
	var long []funcSpan
	for _, f := range parsedFiles(files) {
		for _, fn := range f.Mod.Functions() {
			if n := fn.Lines(); n >= minLines {
				long = append(long, funcSpan{rel: f.RelPath, name: fn.Name, lines: n})
			}
		}
	}
	sort.SliceStable(long, func(i, j int) bool {
		if long[i].lines != long[j].lines {
			return long[i].lines > long[j].lines
		}
		return long[i].rel < long[j].rel
	})

	b := report.NewBuilder(report.H1("Long Function Scanner"))
	b.Addf("Threshold: %d lines\n\n", minLines)
	for _, s := range long {
		b.Item("%s::%s — %d lines", s.rel, s.name, s.lines)
	}
	if len(long) == 0 {
		b.Add("No long functions found.\n")
	}
	return b.String(), nil
}

func MissingDocstringScan(ctx context.Context, env *Env) (string, error) {
	files, err := env.pyFiles(ctx)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Missing Docstring Scanner"))
	for _, f := range parsedFiles(files) {
		for _, d := range f.Mod.Defs {
			if !d.HasDoc {
				b.Item("%s: %s %s missing docstring", f.RelPath, d.Kind, d.Name)
			}
		}
	}
	if b.Len() == 1 {
		b.Add("All Python defs/classes have docstrings or none found.\n")
	}
	return b.String(), nil
}

func PythonSyntaxScan(ctx context.Context, env *Env) (string, error) {
	files, err := env.pyFiles(ctx)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Python Syntax Scanner"))
	for _, f := range files {
		switch {
		case f.Err != nil:
			b.Item("%s:0: Parse error: %v", f.RelPath, f.Err)
		case f.Mod.Err != nil:
			b.Item("%s:%d: %s", f.RelPath, f.Mod.Err.Line, f.Mod.Err.Msg)
		}
	}
	if b.Len() == 1 {
		b.Add("No Python syntax errors detected.\n")
	}
	return b.String(), nil
}

func UnreachableCodeScan(ctx context.Context, env *Env) (string, error) {
	files, err := env.pyFiles(ctx)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Unreachable Code Scanner (Python)"))
	for _, f := range parsedFiles(files) {
		for _, ln := range f.Mod.Unreachable {
			b.Item("%s:%d", f.RelPath, ln)
		}
	}
	if b.Len() == 1 {
		b.Add("No potentially unreachable code found (heuristic).\n")
	}
	return b.String(), nil
}

func ManyParamsScan(ctx context.Context, env *Env, maxParams int) (string, error) {
	files, err := env.pyFiles(ctx)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Many Parameters Scanner (Python)"))
	b.Addf("Threshold: %d\n\n", maxParams)
	found := false
	for _, f := range parsedFiles(files) {
		for _, fn := range f.Mod.Functions() {
			if fn.Params >= maxParams {
				found = true
				b.Item("%s::%s — %d params", f.RelPath, fn.Name, fn.Params)
			}
		}
	}
	if !found {
		b.Add("No functions over threshold.\n")
	}
	return b.String(), nil
}

func TypingMissingScan(ctx context.Context, env *Env) (string, error) {
	files, err := env.pyFiles(ctx)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Typing Missing Scanner (Python)"))
	for _, f := range parsedFiles(files) {
		for _, fn := range f.Mod.Functions() {
			if !fn.Annotated {
				b.Item("%s:%d::%s", f.RelPath, fn.Line, fn.Name)
			}
		}
	}
	if b.Len() == 1 {
		b.Add("All functions have some annotations or none found.\n")
	}
	return b.String(), nil
}

// outline lists "class X (line N)" and "def f (line N)" entries sorted as
// strings. Files with syntax errors have an empty outline.
func outline(f pyFile) []string {
	if !f.ok() {
		return nil
	}
	lines := make([]string, 0, len(f.Mod.Defs))
	for _, d := range f.Mod.Defs {
		keyword := "def"
		if d.Kind == pyast.KindClass {
			keyword = "class"
		}
		lines = append(lines, fmt.Sprintf("%s %s (line %d)", keyword, d.Name, d.Line))
	}
	sort.Strings(lines)
	return lines
}

func CodeOutline(ctx context.Context, env *Env) (string, error) {
	files, err := env.pyFiles(ctx)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Python Code Outline"))
	for _, f := range files {
		b.Add(report.H2(f.RelPath))
		b.Add(report.CodeBlock(strings.Join(outline(f), "\n"), ""))
	}
	if b.Len() == 1 {
		b.Add("No Python files found.\n")
	}
	return b.String(), nil
}

func ImportList(ctx context.Context, env *Env) (string, error) {
	files, err := env.pyFiles(ctx)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Python Import List"))
	for _, f := range parsedFiles(files) {
		if len(f.Mod.Imports) == 0 {
			continue
		}
		b.Add(report.H2(f.RelPath))
		for _, imp := range fileutil.SortedUnique(f.Mod.Imports) {
			b.Item("%s", imp)
		}
	}
	if b.Len() == 1 {
		b.Add("No imports found.\n")
	}
	return b.String(), nil
}

// byLinesDesc orders definitions longest first, keeping traversal order
// among equals.
func byLinesDesc(defs []pyast.Def) []pyast.Def {
	out := append([]pyast.Def(nil), defs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Lines() > out[j].Lines() })
	return out
}

func FunctionMetrics(ctx context.Context, env *Env) (string, error) {
	files, err := env.pyFiles(ctx)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Python Function Metrics"))
	for _, f := range parsedFiles(files) {
		funcs := f.Mod.Functions()
		if len(funcs) == 0 {
			continue
		}
		b.Add(report.H2(f.RelPath))
		for _, fn := range byLinesDesc(funcs) {
			b.Item("%s: %d lines, %d params", fn.Name, fn.Lines(), fn.Params)
		}
	}
	if b.Len() == 1 {
		b.Add("No Python functions found.\n")
	}
	return b.String(), nil
}

func ClassMetrics(ctx context.Context, env *Env) (string, error) {
	files, err := env.pyFiles(ctx)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Python Class Metrics"))
	for _, f := range parsedFiles(files) {
		classes := f.Mod.Classes()
		if len(classes) == 0 {
			continue
		}
		b.Add(report.H2(f.RelPath))
		for _, c := range byLinesDesc(classes) {
			b.Item("%s: %d methods, %d lines", c.Name, c.Methods, c.Lines())
		}
	}
	if b.Len() == 1 {
		b.Add("No Python classes found.\n")
	}
	return b.String(), nil
}

func DocstringSummary(ctx context.Context, env *Env) (string, error) {
	files, err := env.pyFiles(ctx)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Python Docstring Summary"))
	for _, f := range parsedFiles(files) {
		var items []string
		for _, d := range f.Mod.Defs {
			if s := d.Summary(); s != "" {
				items = append(items, fmt.Sprintf("- %s: %s\n", d.Name, s))
			}
		}
		if len(items) == 0 {
			continue
		}
		b.Add(report.H2(f.RelPath))
		for _, item := range items {
			b.Add(item)
		}
	}
	if b.Len() == 1 {
		b.Add("No docstring summaries found.\n")
	}
	return b.String(), nil
}
