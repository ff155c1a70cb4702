package scan

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/morozRed/toolbelt/internal/report"
	"github.com/morozRed/toolbelt/internal/tokens"
	"github.com/morozRed/toolbelt/internal/walk"
)

const (
	defaultLinesPerChunk = 120
	chunkMaxBytes        = 5_000_000
)

func packCommands() []Command {
	return []Command{
		{Name: "metadata-pack", Short: "Describe the environment and file counts", Group: "packs", Run: MetadataPack},
		{Name: "prompt-pack", Short: "Bundle summary reports for an LLM prompt", Group: "packs", Run: PromptPack},
		{
			Name: "chunk", Short: "Split one file into fenced chunks", Group: "packs",
			Flags: []Flag{
				{Name: "file", Kind: FlagString, Usage: "File to split, relative to --path", Required: true},
				intFlag("lines-per-chunk", defaultLinesPerChunk, "Lines per chunk"),
			},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return Chunk(ctx, env, env.Params.String("file"), env.Params.Int("lines-per-chunk", defaultLinesPerChunk))
			},
		},
		{Name: "token-estimate", Short: "Estimate LLM tokens per text file", Group: "packs", Run: TokenEstimate},
		{
			Name: "template-gen", Short: "Emit a document template", Group: "packs", NoPath: true,
			Flags: []Flag{{Name: "name", Kind: FlagString, Usage: "Template name", Required: true, Choices: TemplateNames()}},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return Template(ctx, env.Params.String("name"))
			},
			ReportName: func(p Params) string { return "template-" + p.String("name") },
		},
	}
}

// MetadataPack describes where and how the scan ran, followed by the code
// stats report.
func MetadataPack(ctx context.Context, env *Env) (string, error) {
	stats, err := CodeStats(ctx, env)
	if err != nil {
		return "", err
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "?"
	}

	b := report.NewBuilder(report.H1("Metadata Pack"), report.H2("Environment"))
	b.Item("OS: %s/%s", runtime.GOOS, runtime.GOARCH)
	b.Item("Go: %s", runtime.Version())
	b.Item("Working dir: %s", cwd)
	if env.RunID != "" {
		b.Item("Run ID: %s", env.RunID)
	}
	b.Addf("- Scan path: %s\n\n", env.Root)
	b.Add(report.H2("File counts"))
	b.Add(stats)
	return b.String(), nil
}

// PromptPack joins the reports most useful as LLM context.
func PromptPack(ctx context.Context, env *Env) (string, error) {
	steps := []func(context.Context, *Env) (string, error){
		ReadmeSummary,
		CodeStats,
		func(ctx context.Context, env *Env) (string, error) { return runPattern(ctx, env, "todo-scan") },
		func(ctx context.Context, env *Env) (string, error) { return runPattern(ctx, env, "bug-scan") },
		func(ctx context.Context, env *Env) (string, error) { return runPattern(ctx, env, "secret-scan") },
		DirTree,
	}
	sections := make([]string, 0, len(steps))
	for _, step := range steps {
		section, err := step(ctx, env)
		if err != nil {
			return "", err
		}
		sections = append(sections, section)
	}
	return report.H1("Prompt Pack") + strings.Join(sections, "\n"), nil
}

// Chunk splits file into fenced blocks of linesPerChunk lines.
func Chunk(ctx context.Context, env *Env, file string, linesPerChunk int) (string, error) {
	if linesPerChunk <= 0 {
		return "", fmt.Errorf("--lines-per-chunk must be positive, got %d", linesPerChunk)
	}
	b := report.NewBuilder(report.H1("Chunked File"))
	b.Addf("File: %s\nLines per chunk: %d\n\n", file, linesPerChunk)

	path := env.rootFile(file)
	res := env.readMax(walk.Entry{AbsPath: path, RelPath: file}, chunkMaxBytes)
	if !res.OK() || res.Text == "" {
		b.Add("File not found or not readable.\n")
		return b.String(), ctx.Err()
	}

	lines := splitLines(res.Text)
	for i := 0; i < len(lines); i += linesPerChunk {
		end := min(i+linesPerChunk, len(lines))
		b.Add(report.H2(fmt.Sprintf("Chunk %d", i/linesPerChunk+1)))
		b.Add(report.CodeBlock(strings.Join(lines[i:end], "\n"), ""))
	}
	return b.String(), ctx.Err()
}

// TokenEstimate counts tokens per non-empty text file with the configured
// counter.
func TokenEstimate(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, textExts, 0)
	if err != nil {
		return "", err
	}
	counter := env.Tokens
	if counter == nil {
		counter = tokens.Heuristic{}
	}
	env.log().Debugf("token counter %s", counter.Name())

	b := report.NewBuilder(report.H1("Token Estimate"))
	total := 0
	for _, f := range nonEmpty(files) {
		n := counter.Count(f.Text)
		total += n
		b.Item("%s: ~%d tokens", f.RelPath, n)
	}
	b.Addf("\nTotal estimated tokens: ~%d\n", total)
	return b.String(), nil
}
