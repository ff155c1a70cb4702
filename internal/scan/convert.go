package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-ini/ini"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/morozRed/toolbelt/internal/classify"
	"github.com/morozRed/toolbelt/internal/fileutil"
	"github.com/morozRed/toolbelt/internal/reader"
	"github.com/morozRed/toolbelt/internal/report"
	"github.com/morozRed/toolbelt/internal/walk"
)

const (
	defaultMaxRows         = 50
	defaultMaxBytesPerFile = 50_000
	defaultMaxSchemaFiles  = 50
)

var (
	propertiesExts = classify.NewExtensionSet(".properties")
	gitignoreExts  = classify.NewExtensionSet(".gitignore")
	openAPIExts    = classify.NewExtensionSet(".json", ".yaml", ".yml")
	htmlTag        = regexp.MustCompile(`<[^>]+>`)
)

// blockRule converts each matching file into a fenced block under its path.
type blockRule struct {
	name  string
	short string
	title string
	exts  *classify.ExtensionSet
	keep  func(base string) bool
	lang  string
	empty string
}

func (r blockRule) command() Command {
	return Command{
		Name:  r.name,
		Short: r.short,
		Group: "convert",
		Run: func(ctx context.Context, env *Env) (string, error) {
			return r.run(ctx, env)
		},
	}
}

func (r blockRule) run(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, r.exts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1(r.title))
	for _, f := range nonEmpty(files) {
		if r.keep != nil && !r.keep(filepath.Base(f.RelPath)) {
			continue
		}
		b.Add(report.H2(f.RelPath))
		b.Add(report.CodeBlock(f.Text, r.lang))
	}
	if b.Len() == 1 {
		b.Add(r.empty)
	}
	return b.String(), nil
}

func baseIs(name string) func(string) bool {
	return func(base string) bool { return base == name }
}

var blockRules = []blockRule{
	{name: "json-to-md", short: "Embed JSON files", title: "JSON to Markdown", exts: jsonExts, lang: "json", empty: "No JSON files found.\n"},
	{name: "txt-to-md", short: "Embed .txt files", title: "Text to Markdown", exts: txtExts, empty: "No text files found.\n"},
	{
		name: "requirements-to-md", short: "Embed requirements.txt files", title: "requirements.txt to Markdown", exts: txtExts,
		keep:  func(base string) bool { return strings.ToLower(base) == "requirements.txt" },
		empty: "No requirements.txt found.\n",
	},
	{
		name: "package-json-to-md", short: "Embed package.json files", title: "package.json to Markdown", exts: jsonExts,
		keep: baseIs("package.json"), lang: "json", empty: "No package.json found.\n",
	},
	{name: "yaml-to-md", short: "Embed YAML files", title: "YAML to Markdown", exts: yamlExts, lang: "yaml", empty: "No YAML files found.\n"},
	{name: "xml-to-md", short: "Embed XML files", title: "XML to Markdown", exts: xmlExts, lang: "xml", empty: "No XML files found.\n"},
	{
		name: "pyproject-to-md", short: "Embed pyproject.toml files", title: "pyproject.toml to Markdown", exts: tomlExts,
		keep: baseIs("pyproject.toml"), lang: "toml", empty: "No pyproject.toml found.\n",
	},
}

func convertCommands() []Command {
	cmds := make([]Command, 0, len(blockRules)+16)
	for _, r := range blockRules {
		cmds = append(cmds, r.command())
	}
	return append(cmds,
		Command{
			Name: "csv-to-md", Short: "Render CSV files as Markdown tables", Group: "convert",
			Flags: []Flag{intFlag("max-rows", defaultMaxRows, "Rows to preview per file")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return CSVToMarkdown(ctx, env, env.Params.Int("max-rows", defaultMaxRows))
			},
		},
		Command{Name: "md-to-txt", Short: "Strip Markdown formatting", Group: "convert", Run: MarkdownToText},
		Command{
			Name: "code-to-md", Short: "Embed source files as fenced blocks", Group: "convert",
			Flags: []Flag{intFlag("max-bytes-per-file", defaultMaxBytesPerFile, "Largest file to embed in bytes")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return CodeToMarkdown(ctx, env, int64(env.Params.Int("max-bytes-per-file", defaultMaxBytesPerFile)))
			},
		},
		Command{Name: "junit-xml-to-md", Short: "Summarize JUnit XML results", Group: "convert", Run: JUnitToMarkdown},
		Command{Name: "html-to-md-text", Short: "Convert HTML files to text", Group: "convert", Run: HTMLToText},
		Command{Name: "ini-to-md", Short: "List INI sections and keys", Group: "convert", Run: INIToMarkdown},
		Command{Name: "toml-to-md", Short: "Render TOML files as JSON", Group: "convert", Run: TOMLToMarkdown},
		Command{Name: "properties-to-md", Short: "List .properties keys", Group: "convert", Run: PropertiesToMarkdown},
		Command{Name: "gitignore-to-md", Short: "Embed .gitignore files", Group: "convert", Run: GitignoreToMarkdown},
		Command{Name: "editorconfig-to-md", Short: "Embed the root .editorconfig", Group: "convert", Run: EditorconfigToMarkdown},
		Command{Name: "license-to-md", Short: "Embed root license files", Group: "convert", Run: LicenseToMarkdown},
		Command{Name: "csv-summary", Short: "Count CSV rows and columns", Group: "convert", Run: CSVSummary},
		Command{
			Name: "json-schema-extract", Short: "Infer key paths and types from JSON files", Group: "convert",
			Flags: []Flag{intFlag("max-files", defaultMaxSchemaFiles, "Files to describe")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return JSONSchemaExtract(ctx, env, env.Params.Int("max-files", defaultMaxSchemaFiles))
			},
		},
		Command{Name: "api-spec-from-openapi", Short: "List OpenAPI paths and operations", Group: "convert", Run: APISpecFromOpenAPI},
	)
}

// padRight pads s with spaces to width characters.
func padRight(s string, width int) string {
	if n := runeLen(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func tableRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = padRight(c, widths[i])
	}
	return "| " + strings.Join(padded, " | ") + " |\n"
}

// markdownTable renders rows with the first row as header. Columns are
// padded to their widest cell.
func markdownTable(rows [][]string) string {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	widths := make([]int, cols)
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], runeLen(c))
		}
	}
	var sb strings.Builder
	sb.WriteString(tableRow(rows[0], widths))
	rules := make([]string, cols)
	for i, w := range widths {
		rules[i] = strings.Repeat("-", w)
	}
	sb.WriteString("| " + strings.Join(rules, " | ") + " |\n")
	for _, r := range rows[1:] {
		sb.WriteString(tableRow(r, widths))
	}
	return sb.String()
}

func CSVToMarkdown(ctx context.Context, env *Env, maxRows int) (string, error) {
	b := report.NewBuilder(report.H1("CSV to Markdown"))
	b.Addf("Previewing up to %d rows per file.\n\n", maxRows)
	for _, entry := range env.entries(csvExts) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := readCSV(entry.AbsPath, max(1, maxRows))
		if err != nil {
			rows = [][]string{{"<error reading file>", err.Error()}}
		}
		b.Add(report.H2(entry.RelPath))
		if len(rows) > 0 {
			b.Add(markdownTable(rows))
		} else {
			b.Add("(empty)\n")
		}
		b.Add("\n")
	}
	if b.Len() <= 2 {
		b.Add("No CSV files found.\n")
	}
	return b.String(), nil
}

func CSVSummary(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1("CSV Summary"))
	for _, entry := range env.entries(csvExts) {
		rows, err := readCSV(entry.AbsPath, 0)
		if err != nil {
			b.Item("%s: error %v", entry.RelPath, err)
			continue
		}
		cols := 0
		for _, r := range rows {
			cols = max(cols, len(r))
		}
		b.Item("%s: %d rows, %d columns", entry.RelPath, len(rows), cols)
	}
	if b.Len() == 1 {
		b.Add("No CSV files found.\n")
	}
	return b.String(), ctx.Err()
}

func MarkdownToText(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, mdExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Markdown to Text"))
	for _, f := range nonEmpty(files) {
		b.Add(report.H2(f.RelPath))
		b.Add(report.CodeBlock(plainText([]byte(f.Text)), ""))
	}
	if b.Len() == 1 {
		b.Add("No Markdown files found.\n")
	}
	return b.String(), nil
}

// CodeToMarkdown embeds every text file up to maxBytes, tagging the fence
// with the file extension.
func CodeToMarkdown(ctx context.Context, env *Env, maxBytes int64) (string, error) {
	files, err := env.texts(ctx, textExts, maxBytes)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Code to Markdown"))
	b.Addf("Limit per file: %d bytes\n\n", maxBytes)
	for _, f := range nonEmpty(files) {
		lang := strings.TrimPrefix(filepath.Ext(f.RelPath), ".")
		b.Add(report.H2(f.RelPath))
		b.Add(report.CodeBlock(f.Text, lang))
	}
	if b.Len() <= 2 {
		b.Add("No code files found.\n")
	}
	return b.String(), nil
}

func isJUnitFile(base string) bool {
	ok, _ := filepath.Match("*junit*.xml", strings.ToLower(base))
	return ok
}

type junitCounts struct {
	tests, failures, errors, skipped int
}

func readJUnit(path string) (junitCounts, error) {
	root, err := parseXMLFile(path)
	if err != nil {
		return junitCounts{}, err
	}
	var counts junitCounts
	fields := []struct {
		name string
		dst  *int
	}{
		{"tests", &counts.tests},
		{"failures", &counts.failures},
		{"errors", &counts.errors},
		{"skipped", &counts.skipped},
	}
	for _, f := range fields {
		raw, ok := attr(root, f.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return junitCounts{}, fmt.Errorf("invalid %s count %q", f.name, raw)
		}
		*f.dst = n
	}
	return counts, nil
}

func JUnitToMarkdown(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1("JUnit XML to Markdown"))
	for _, entry := range env.entries(xmlExts) {
		if !isJUnitFile(filepath.Base(entry.RelPath)) {
			continue
		}
		b.Add(report.H2(entry.RelPath))
		counts, err := readJUnit(entry.AbsPath)
		if err != nil {
			b.Addf("Error parsing: %v\n\n", err)
			continue
		}
		b.Addf("- tests: %d\n- failures: %d\n- errors: %d\n- skipped: %d\n\n",
			counts.tests, counts.failures, counts.errors, counts.skipped)
	}
	if b.Len() == 1 {
		b.Add("No JUnit-style XML files found.\n")
	}
	return b.String(), ctx.Err()
}

// htmlText converts an HTML document to Markdown-flavored text with
// scripts and styles removed. Documents goquery cannot load fall back to
// stripping tags.
func htmlText(src string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return htmlTag.ReplaceAllString(src, "")
	}
	doc.Find("script, style").Remove()
	converter := md.NewConverter("", true, nil)
	return converter.Convert(doc.Selection)
}

func HTMLToText(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, htmlExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("HTML to Text (Markdown fenced)"))
	for _, f := range nonEmpty(files) {
		b.Add(report.H2(f.RelPath))
		b.Add(report.CodeBlock(htmlText(f.Text), ""))
	}
	if b.Len() == 1 {
		b.Add("No HTML files found.\n")
	}
	return b.String(), nil
}

type iniSection struct {
	name string
	keys []string
	vals map[string]string
}

// readINI returns the named sections in file order. Keys of the DEFAULT
// section are inherited by every section ahead of its own keys, and key
// names are case-insensitive.
func readINI(path string) ([]iniSection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:        true,
		AllowPythonMultilineValues: true,
	}, []byte(reader.DecodeUTF8(data)))
	if err != nil {
		return nil, err
	}

	defaults := cfg.Section(ini.DefaultSection)
	var out []iniSection
	for _, sect := range cfg.Sections() {
		if sect.Name() == ini.DefaultSection {
			continue
		}
		s := iniSection{name: sect.Name(), vals: make(map[string]string)}
		set := func(k *ini.Key) {
			name := strings.ToLower(k.Name())
			if _, ok := s.vals[name]; !ok {
				s.keys = append(s.keys, name)
			}
			s.vals[name] = k.Value()
		}
		for _, k := range defaults.Keys() {
			set(k)
		}
		for _, k := range sect.Keys() {
			set(k)
		}
		out = append(out, s)
	}
	return out, nil
}

func INIToMarkdown(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1("INI to Markdown"))
	for _, entry := range env.entries(iniExts) {
		b.Add(report.H2(entry.RelPath))
		sections, err := readINI(entry.AbsPath)
		if err != nil {
			b.Addf("Error: %v\n\n", err)
			continue
		}
		for _, s := range sections {
			b.Addf("### [%s]\n\n", s.name)
			for _, k := range s.keys {
				b.Item("%s = %s", k, s.vals[k])
			}
			b.Add("\n")
		}
	}
	if b.Len() == 1 {
		b.Add("No INI files found.\n")
	}
	return b.String(), ctx.Err()
}

// TOMLToMarkdown re-renders TOML documents as indented JSON, keeping the
// source when it does not parse.
func TOMLToMarkdown(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, tomlExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("TOML to Markdown"))
	for _, f := range nonEmpty(files) {
		b.Add(report.H2(f.RelPath))
		var data map[string]any
		if err := toml.Unmarshal([]byte(f.Text), &data); err != nil {
			env.log().Debugf("toml %s: %v", f.RelPath, err)
			b.Add(report.CodeBlock(f.Text, "toml"))
			continue
		}
		rendered, err := fileutil.IndentJSON(data)
		if err != nil {
			b.Add(report.CodeBlock(f.Text, "toml"))
			continue
		}
		b.Add(report.CodeBlock(rendered, "json"))
	}
	if b.Len() == 1 {
		b.Add("No TOML files found.\n")
	}
	return b.String(), nil
}

// propertiesPair splits a .properties line at the first '=' or, failing
// that, the first ':'.
func propertiesPair(line string) (string, string) {
	if k, v, ok := strings.Cut(line, "="); ok {
		return strip(k), strip(v)
	}
	if k, v, ok := strings.Cut(line, ":"); ok {
		return strip(k), strip(v)
	}
	return line, ""
}

func PropertiesToMarkdown(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, propertiesExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1(".properties to Markdown"))
	for _, f := range nonEmpty(files) {
		b.Add(report.H2(f.RelPath))
		for _, line := range splitLines(f.Text) {
			line = strip(line)
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
				continue
			}
			k, v := propertiesPair(line)
			b.Item("%s = %s", k, v)
		}
		b.Add("\n")
	}
	if b.Len() == 1 {
		b.Add("No .properties files found.\n")
	}
	return b.String(), nil
}

// GitignoreToMarkdown embeds files with a .gitignore extension, then the
// root .gitignore itself.
func GitignoreToMarkdown(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, gitignoreExts, 0)
	if err != nil {
		return "", err
	}
	files = append(nonEmpty(files), env.rootTexts([]string{".gitignore"}, 0)...)

	b := report.NewBuilder(report.H1(".gitignore to Markdown"))
	for _, f := range files {
		b.Add(report.H2(f.RelPath))
		b.Add(report.CodeBlock(f.Text, ""))
	}
	if b.Len() == 1 {
		b.Add("No .gitignore found.\n")
	}
	return b.String(), nil
}

func EditorconfigToMarkdown(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1(".editorconfig to Markdown"))
	path := env.rootFile(".editorconfig")
	if _, err := os.Stat(path); err != nil {
		b.Add("No .editorconfig found.\n")
		return b.String(), ctx.Err()
	}
	for _, f := range env.rootTexts([]string{".editorconfig"}, 0) {
		b.Add(report.H2(f.RelPath))
		b.Add(report.CodeBlock(f.Text, ""))
	}
	return b.String(), ctx.Err()
}

func LicenseToMarkdown(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1("License file to Markdown"))
	for _, f := range env.rootTexts(licenseFiles, licenseMaxBytes) {
		b.Add(report.H2(f.RelPath))
		b.Add(report.CodeBlock(f.Text, ""))
	}
	if b.Len() == 1 {
		b.Add("No license files found.\n")
	}
	return b.String(), ctx.Err()
}

// jsonSchema maps key paths to type names. Lists are described by their
// first element.
func jsonSchema(v any) map[string]string {
	schema := make(map[string]string)
	var visit func(x any, prefix string)
	visit = func(x any, prefix string) {
		switch val := x.(type) {
		case map[string]any:
			for k, child := range val {
				path := prefix + "." + k
				schema[path] = jsonTypeName(child)
				visit(child, path)
			}
		case []any:
			if len(val) == 0 {
				return
			}
			path := prefix + "[]"
			schema[path] = jsonTypeName(val[0])
			visit(val[0], path)
		}
	}
	visit(v, "$")
	return schema
}

func JSONSchemaExtract(ctx context.Context, env *Env, maxFiles int) (string, error) {
	files, err := env.texts(ctx, jsonExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("JSON Schema Extract (heuristic)"))
	described := 0
	for _, f := range nonEmpty(files) {
		if described >= maxFiles {
			break
		}
		data, err := decodeJSON(f.Text)
		if err != nil {
			env.log().Debugf("json %s: %v", f.RelPath, err)
			continue
		}
		schema := jsonSchema(data)
		paths := make([]string, 0, len(schema))
		for p := range schema {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		b.Add(report.H2(f.RelPath))
		for _, p := range paths {
			b.Item("%s: %s", p, schema[p])
		}
		described++
	}
	if b.Len() == 1 {
		b.Add("No JSON files found.\n")
	}
	return b.String(), nil
}

func isOpenAPIFile(base string) bool {
	lower := strings.ToLower(base)
	return strings.Contains(lower, "openapi") || strings.Contains(lower, "swagger")
}

// apiDoc is the subset of an OpenAPI document the summary needs, with path
// and operation order preserved.
type apiDoc struct {
	title   string
	version string
	paths   []apiPath
}

type apiPath struct {
	path string
	ops  []string
}

// mappingValue returns the value node stored under key in a mapping node.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func parseOpenAPI(text string, isJSON bool) (apiDoc, error) {
	if isJSON {
		if _, err := decodeJSON(text); err != nil {
			return apiDoc{}, err
		}
	}
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return apiDoc{}, err
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return apiDoc{}, fmt.Errorf("document is not a mapping")
	}
	doc := root.Content[0]

	out := apiDoc{title: "API"}
	if info := mappingValue(doc, "info"); info != nil {
		if info.Kind != yaml.MappingNode {
			return apiDoc{}, fmt.Errorf("info is not a mapping")
		}
		if title := mappingValue(info, "title"); title != nil {
			out.title = title.Value
		}
		if version := mappingValue(info, "version"); version != nil {
			out.version = version.Value
		}
	}
	paths := mappingValue(doc, "paths")
	if paths == nil {
		return out, nil
	}
	if paths.Kind != yaml.MappingNode {
		return apiDoc{}, fmt.Errorf("paths is not a mapping")
	}
	for i := 0; i+1 < len(paths.Content); i += 2 {
		ops := paths.Content[i+1]
		if ops.Kind != yaml.MappingNode {
			return apiDoc{}, fmt.Errorf("path %s is not a mapping", paths.Content[i].Value)
		}
		p := apiPath{path: paths.Content[i].Value}
		for j := 0; j+1 < len(ops.Content); j += 2 {
			p.ops = append(p.ops, ops.Content[j].Value)
		}
		out.paths = append(out.paths, p)
	}
	return out, nil
}

// APISpecFromOpenAPI lists paths and operations of OpenAPI or Swagger
// documents, embedding the source of any it cannot read.
func APISpecFromOpenAPI(ctx context.Context, env *Env) (string, error) {
	items, err := walk.Map(ctx, env.files(openAPIExts), env.Workers, func(entry walk.Entry) (string, bool) {
		if !isOpenAPIFile(filepath.Base(entry.RelPath)) {
			return "", false
		}
		res := env.read(entry)
		return res.Text, res.OK() && res.Text != ""
	})
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("API Spec from OpenAPI (best-effort)"))
	for _, item := range items {
		isJSON := strings.EqualFold(filepath.Ext(item.RelPath), ".json")
		doc, err := parseOpenAPI(item.Value, isJSON)
		if err != nil {
			env.log().Debugf("openapi %s: %v", item.RelPath, err)
			b.Add(report.H2(item.RelPath))
			b.Add(report.CodeBlock(item.Value, ""))
			continue
		}
		b.Add(report.H2(fmt.Sprintf("%s — %s %s", item.RelPath, doc.title, doc.version)))
		for _, p := range doc.paths {
			b.Item("%s: %s", p.path, strings.Join(p.ops, ", "))
		}
	}
	if b.Len() == 1 {
		b.Add("No OpenAPI/Swagger files found.\n")
	}
	return b.String(), nil
}
