package scan

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/morozRed/toolbelt/internal/reader"
	"github.com/morozRed/toolbelt/internal/report"
	"github.com/morozRed/toolbelt/internal/walk"
)

const newlineSampleSize = 50_000

var (
	utf8BOM           = []byte{0xEF, 0xBB, 0xBF}
	spaceIndentPrefix = regexp.MustCompile(`^ +\S`)
)

func styleCommands() []Command {
	return []Command{
		{Name: "tabs-scan", Short: "List files containing tab characters", Group: "style", Run: TabsScan},
		{Name: "trailing-whitespace-scan", Short: "List files with trailing whitespace", Group: "style", Run: TrailingWhitespaceScan},
		{Name: "non-ascii-scan", Short: "List files containing non-ASCII characters", Group: "style", Run: NonASCIIScan},
		{Name: "utf-bom-scan", Short: "List files starting with a UTF-8 BOM", Group: "style", Run: UTFBOMScan},
		{Name: "shebang-scan", Short: "List files starting with #!", Group: "style", Run: ShebangScan},
		{Name: "newline-consistency-scan", Short: "Count CRLF, LF and CR line endings", Group: "style", Run: NewlineConsistencyScan},
		{
			Name: "line-length-scan", Short: "List lines longer than --max-len", Group: "style",
			Flags: []Flag{intFlag("max-len", 120, "Maximum line length in characters")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return LineLengthScan(ctx, env, env.Params.Int("max-len", 120))
			},
		},
		{
			Name: "large-line-scan", Short: "List lines of at least --min-len characters", Group: "style",
			Flags: []Flag{intFlag("min-len", 500, "Minimum line length in characters")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return LargeLineScan(ctx, env, env.Params.Int("min-len", 500))
			},
		},
		{Name: "mixed-indent-scan", Short: "List files indenting with both tabs and spaces", Group: "style", Run: MixedIndentScan},
		{
			Name: "trailing-empty-lines-scan", Short: "List files ending in several newlines", Group: "style",
			Flags: []Flag{intFlag("min-trailing", 2, "Minimum trailing newlines to report")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return TrailingEmptyLinesScan(ctx, env, env.Params.Int("min-trailing", 2))
			},
		},
		{Name: "empty-file-scan", Short: "List zero-byte files", Group: "style", Run: EmptyFileScan},
		{Name: "license-header-missing-scan", Short: "List files without a copyright or license header", Group: "style", Run: LicenseHeaderMissingScan},
		{Name: "comment-summary", Short: "Count comment markers", Group: "style", Run: CommentSummary},
		{
			Name: "duplicate-line-scan", Short: "List lines repeated at least --min-dupes times per file", Group: "style",
			Flags: []Flag{intFlag("min-dupes", 3, "Minimum occurrences to report")},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return DuplicateLineScan(ctx, env, env.Params.Int("min-dupes", 3))
			},
		},
	}
}

// firstLine returns the 1-based number of the first line match accepts.
func firstLine(text string, match func(string) bool) (int, bool) {
	for i, line := range splitLines(text) {
		if match(line) {
			return i + 1, true
		}
	}
	return 0, false
}

func firstLineReport(ctx context.Context, env *Env, title, empty string, match func(string) bool, item func(rel string, ln int) string) (string, error) {
	files, err := env.texts(ctx, textExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1(title))
	for _, f := range files {
		if ln, ok := firstLine(f.Text, match); ok {
			b.Add(item(f.RelPath, ln))
		}
	}
	if b.Len() == 1 {
		b.Add(empty)
	}
	return b.String(), nil
}

func TabsScan(ctx context.Context, env *Env) (string, error) {
	return firstLineReport(ctx, env, "Tabs Scanner", "No tabs found.\n",
		func(line string) bool { return strings.Contains(line, "\t") },
		func(rel string, ln int) string {
			return fmt.Sprintf("- Tabs found in %s (first occurrence line %d)\n", rel, ln)
		})
}

func TrailingWhitespaceScan(ctx context.Context, env *Env) (string, error) {
	return firstLineReport(ctx, env, "Trailing Whitespace Scanner", "No trailing whitespace found.\n",
		func(line string) bool { return rstrip(line) != line },
		func(rel string, ln int) string {
			return fmt.Sprintf("- Trailing spaces in %s (first occurrence line %d)\n", rel, ln)
		})
}

func NonASCIIScan(ctx context.Context, env *Env) (string, error) {
	return firstLineReport(ctx, env, "Non-ASCII Scanner", "No non-ASCII characters detected.\n",
		func(line string) bool {
			for _, r := range line {
				if r > 127 {
					return true
				}
			}
			return false
		},
		func(rel string, ln int) string {
			return fmt.Sprintf("- %s (first non-ASCII at line %d)\n", rel, ln)
		})
}

// headReport lists files whose first bytes satisfy match.
func headReport(env *Env, title, empty string, n int, match func(head []byte) bool) string {
	b := report.NewBuilder(report.H1(title))
	for _, entry := range env.entries(nil) {
		head, ok := reader.ReadHead(entry.AbsPath, n)
		if !ok {
			env.log().Debugf("skip %s (unreadable)", entry.RelPath)
			continue
		}
		if match(head) {
			b.Item("%s", entry.RelPath)
		}
	}
	if b.Len() == 1 {
		b.Add(empty)
	}
	return b.String()
}

func UTFBOMScan(ctx context.Context, env *Env) (string, error) {
	return headReport(env, "UTF-8 BOM Scanner", "No UTF-8 BOM files found.\n", len(utf8BOM), func(head []byte) bool {
		return bytes.Equal(head, utf8BOM)
	}), ctx.Err()
}

func ShebangScan(ctx context.Context, env *Env) (string, error) {
	return headReport(env, "Shebang Scanner", "No shebang files found.\n", 2, func(head []byte) bool {
		return bytes.Equal(head, []byte("#!"))
	}), ctx.Err()
}

func NewlineConsistencyScan(ctx context.Context, env *Env) (string, error) {
	var crlf, lf, cr, scanned int
	for _, entry := range env.entries(nil) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, ok := reader.ReadHead(entry.AbsPath, newlineSampleSize)
		if !ok {
			continue
		}
		scanned++
		pairs := bytes.Count(data, []byte("\r\n"))
		crlf += pairs
		lf += bytes.Count(data, []byte("\n")) - pairs
		cr += bytes.Count(data, []byte("\r")) - pairs
	}

	b := report.NewBuilder(report.H1("Newline Consistency Scanner"))
	if scanned == 0 {
		b.Add("No files scanned.\n")
		return b.String(), nil
	}
	b.Item("CRLF: %d", crlf)
	b.Item("LF: %d", lf)
	b.Item("CR: %d", cr)
	return b.String(), nil
}

type lineOver struct {
	rel    string
	line   int
	length int
}

func linesByLength(files []textFile, keep func(n int) bool) []lineOver {
	var out []lineOver
	for _, f := range files {
		for i, line := range splitLines(f.Text) {
			if n := runeLen(line); keep(n) {
				out = append(out, lineOver{rel: f.RelPath, line: i + 1, length: n})
			}
		}
	}
	return out
}

func LineLengthScan(ctx context.Context, env *Env, maxLen int) (string, error) {
	files, err := env.texts(ctx, textExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Line Length Scanner"))
	b.Addf("Max length: %d\n\n", maxLen)
	hits := linesByLength(files, func(n int) bool { return n > maxLen })
	for _, h := range hits {
		b.Item("%s:%d — %d chars", h.rel, h.line, h.length)
	}
	if len(hits) == 0 {
		b.Add("No overlong lines found.\n")
	}
	return b.String(), nil
}

func LargeLineScan(ctx context.Context, env *Env, minLen int) (string, error) {
	files, err := env.texts(ctx, textExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Large Line Scanner"))
	b.Addf("Threshold: %d chars\n\n", minLen)
	hits := linesByLength(files, func(n int) bool { return n >= minLen })
	for _, h := range hits {
		b.Item("%s:%d — %d chars", h.rel, h.line, h.length)
	}
	if len(hits) == 0 {
		b.Add("No lines over threshold found.\n")
	}
	return b.String(), nil
}

func MixedIndentScan(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, textExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Mixed Indentation Scanner"))
	for _, f := range files {
		var tabs, spaces bool
		for _, line := range splitLines(f.Text) {
			tabs = tabs || strings.HasPrefix(line, "\t")
			spaces = spaces || spaceIndentPrefix.MatchString(line)
		}
		if tabs && spaces {
			b.Item("%s", f.RelPath)
		}
	}
	if b.Len() == 1 {
		b.Add("No files with mixed indentation found.\n")
	}
	return b.String(), nil
}

func TrailingEmptyLinesScan(ctx context.Context, env *Env, minTrailing int) (string, error) {
	files, err := env.texts(ctx, textExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Trailing Empty Lines Scanner"))
	b.Addf("Min trailing: %d\n\n", minTrailing)
	found := false
	for _, f := range files {
		trail := len(f.Text) - len(strings.TrimRight(f.Text, "\n"))
		if trail >= minTrailing {
			b.Item("%s — %d trailing newlines", f.RelPath, trail)
			found = true
		}
	}
	if !found {
		b.Add("No files with excessive trailing newlines.\n")
	}
	return b.String(), nil
}

func EmptyFileScan(ctx context.Context, env *Env) (string, error) {
	b := report.NewBuilder(report.H1("Empty File Scanner"))
	for _, entry := range env.entries(nil) {
		if isEmptyFile(entry) {
			b.Item("%s", entry.RelPath)
		}
	}
	if b.Len() == 1 {
		b.Add("No empty files found.\n")
	}
	return b.String(), ctx.Err()
}

func isEmptyFile(entry walk.Entry) bool {
	info, err := os.Stat(entry.AbsPath)
	return err == nil && info.Size() == 0
}

func LicenseHeaderMissingScan(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, textExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("License Header Missing (heuristic)"))
	for _, f := range nonEmpty(files) {
		lines := splitLines(f.Text)
		block := strings.Join(lines[:min(5, len(lines))], "\n")
		if !strings.Contains(block, "Copyright") && !strings.Contains(block, "License") {
			b.Item("%s", f.RelPath)
		}
	}
	if b.Len() == 1 {
		b.Add("All files appear to have a header or none scanned.\n")
	}
	return b.String(), nil
}

func CommentSummary(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, nil, 0)
	if err != nil {
		return "", err
	}
	markers := []struct{ key, marker string }{
		{"hash", "#"},
		{"slash", "//"},
		{"block_open", "/*"},
		{"block_close", "*/"},
	}
	counts := newCounter()
	for _, f := range files {
		for _, line := range splitLines(f.Text) {
			for _, m := range markers {
				if strings.Contains(line, m.marker) {
					counts.inc(m.key)
				}
			}
		}
	}

	b := report.NewBuilder(report.H1("Comment Summary"))
	for _, c := range counts.inOrder() {
		b.Item("%s: %d", c.Key, c.Count)
	}
	if counts.len() == 0 {
		b.Add("No comment markers found.\n")
	}
	return b.String(), nil
}

func DuplicateLineScan(ctx context.Context, env *Env, minDupes int) (string, error) {
	files, err := env.texts(ctx, nil, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Duplicate Line Scanner"))
	b.Addf("Threshold: %d occurrences\n\n", minDupes)
	for _, f := range files {
		counts := newCounter()
		for _, line := range splitLines(f.Text) {
			if strip(line) != "" {
				counts.inc(rstrip(line))
			}
		}
		var dups []count
		for _, c := range counts.mostCommon() {
			if c.Count >= minDupes {
				dups = append(dups, c)
			}
		}
		if len(dups) == 0 {
			continue
		}
		b.Add(report.H2(f.RelPath))
		for _, c := range dups {
			b.Item("(%dx) %s", c.Count, truncateRunes(c.Key, 120))
		}
	}
	if b.Len() == 2 {
		b.Add("No duplicate lines detected above threshold.\n")
	}
	return b.String(), nil
}
