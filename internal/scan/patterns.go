package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/morozRed/toolbelt/internal/classify"
	"github.com/morozRed/toolbelt/internal/report"
	"github.com/morozRed/toolbelt/internal/walk"
)

// finder turns the lines of one file into report bullets (without the
// leading "- " and trailing newline).
type finder func(rel string, lines []string) []string

// lineRule is a scanner that looks at files line by line.
type lineRule struct {
	name    string
	short   string
	title   string
	scanned bool
	section string
	exts    *classify.ExtensionSet
	keep    func(walk.Entry) bool
	find    finder
	empty   string
}

func (r lineRule) command() Command {
	return Command{
		Name:  r.name,
		Short: r.short,
		Group: "patterns",
		Run: func(ctx context.Context, env *Env) (string, error) {
			return r.run(ctx, env)
		},
	}
}

func (r lineRule) run(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, r.exts, 0)
	if err != nil {
		return "", err
	}

	b := report.NewBuilder(report.H1(r.title))
	if r.scanned {
		b.Addf("Scanned path: %s\n\n", env.Root)
	}
	if r.section != "" {
		b.Add(report.H2(r.section))
	}

	found := 0
	for _, f := range files {
		if r.keep != nil && !r.keep(f.Entry) {
			continue
		}
		for _, item := range r.find(f.RelPath, splitLines(f.Text)) {
			b.Add("- " + item + "\n")
			found++
		}
	}
	if found == 0 {
		b.Add(r.empty)
	}
	return b.String(), nil
}

// lineHits reports "rel:ln: stripped line" for every line match accepts.
func lineHits(match func(line string) bool) finder {
	return func(rel string, lines []string) []string {
		var out []string
		for i, line := range lines {
			if match(line) {
				out = append(out, fmt.Sprintf("%s:%d: %s", rel, i+1, strip(line)))
			}
		}
		return out
	}
}

func anyRegexp(patterns ...*regexp.Regexp) func(string) bool {
	return func(line string) bool {
		for _, p := range patterns {
			if p.MatchString(line) {
				return true
			}
		}
		return false
	}
}

func containsAny(needles ...string) func(string) bool {
	return func(line string) bool {
		for _, n := range needles {
			if strings.Contains(line, n) {
				return true
			}
		}
		return false
	}
}

func wordTags(tags ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(tags))
	for _, tag := range tags {
		out = append(out, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(tag)+`\b`))
	}
	return out
}

var (
	secretPatterns = []*regexp.Regexp{
		regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		regexp.MustCompile(`(?i)secret\s*[:=]\s*['"][^'"]+['"]`),
		regexp.MustCompile(`(?i)password\s*[:=]\s*['"][^'"]+['"]`),
		regexp.MustCompile(`(?i)token\s*[:=]\s*['"][^'"]+['"]`),
		regexp.MustCompile(`(^|[^a-zA-Z0-9])[a-f0-9]{32}([^a-zA-Z0-9]|$)`),
	}
	envVarPattern        = regexp.MustCompile(`(?i)(os\.environ\[|os\.getenv\(|\$\{[A-Z0-9_]+\}|%[A-Z0-9_]+%)`)
	hardcodedPathPattern = regexp.MustCompile(`([A-Za-z]:\\\\|/home/|/Users/)`)
	execPattern          = regexp.MustCompile(`\bexec\b`)
	commentedCodePattern = regexp.MustCompile(`^\s*#\s*(def |class |if |for |while |import |from )`)
	broadExceptPattern   = regexp.MustCompile(`^\s*except\s+(Exception|BaseException)\s*:`)
	deadExceptPattern    = regexp.MustCompile(`^\s*except\b.*?:\s*(#.*)?$`)
	httpURLPattern       = regexp.MustCompile(`(?i)http://[\w\-./?%&=#:]+`)
	semverPattern        = regexp.MustCompile(`\b\d+\.\d+\.\d+\b`)
)

// hasMagicNumber finds a run of three or more digits that is not part of
// a word or a dotted number.
func hasMagicNumber(line string) bool {
	runStart := -1
	for i := 0; i <= len(line); i++ {
		isDigit := i < len(line) && line[i] >= '0' && line[i] <= '9'
		if isDigit {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart < 0 {
			continue
		}
		start, end := runStart, i
		runStart = -1
		if end-start < 3 {
			continue
		}
		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(line[:start])
			if prev == '.' || isWordRune(prev) {
				continue
			}
		}
		if end < len(line) {
			next, _ := utf8.DecodeRuneInString(line[end:])
			if next == '.' || isWordRune(next) {
				continue
			}
		}
		return true
	}
	return false
}

func isRequirementsFile(e walk.Entry) bool {
	return strings.EqualFold(filepath.Base(e.AbsPath), "requirements.txt")
}

func patternRules() []lineRule {
	return []lineRule{
		{
			name: "todo-scan", short: "List TODO comments", title: "TODO Scan",
			scanned: true, section: "Findings",
			find:  lineHits(anyRegexp(wordTags("TODO")...)),
			empty: "No TODOs found.\n",
		},
		{
			name: "fixme-scan", short: "List FIXME comments", title: "FIXME Scan",
			scanned: true, section: "Findings",
			find:  lineHits(anyRegexp(wordTags("FIXME")...)),
			empty: "No FIXMEs found.\n",
		},
		{
			name: "error-scan", short: "List ERROR, raise and Exception lines", title: "Error Scanner",
			section: "Findings",
			find: lineHits(anyRegexp(
				regexp.MustCompile(`\bERROR\b`),
				regexp.MustCompile(`\braise\b`),
				regexp.MustCompile(`\bException\b`),
			)),
			empty: "No error patterns found.\n",
		},
		{
			name: "bug-scan", short: "List BUG, workaround, hack and kludge lines", title: "Bug Scanner",
			section: "Findings",
			find:    lineHits(anyRegexp(wordTags("BUG", "workaround", "hack", "kludge")...)),
			empty:   "No bug patterns found.\n",
		},
		{
			name: "secret-scan", short: "List lines that look like credentials", title: "Secret Scanner",
			section: "Potential Secrets",
			find:    lineHits(anyRegexp(secretPatterns...)),
			empty:   "No potential secrets found.\n",
		},
		{
			name: "env-var-scan", short: "List environment variable references", title: "Env Var Scanner",
			find:  lineHits(envVarPattern.MatchString),
			empty: "No environment variable patterns found.\n",
		},
		{
			name: "deprecated-api-scan", short: "List deprecated Python API usage", title: "Deprecated API Scanner",
			exts: textExts,
			find: lineHits(anyRegexp(
				regexp.MustCompile(`\bimp\b`),
				regexp.MustCompile(`\boptparse\b`),
				regexp.MustCompile(`\bdistutils\b`),
				regexp.MustCompile(`asyncio\.get_event_loop\(`),
			)),
			empty: "No deprecated API patterns found.\n",
		},
		{
			name: "print-debug-scan", short: "List print( and console.log calls", title: "Print/Debug Scanner",
			exts:  textExts,
			find:  lineHits(containsAny("print(", "console.log")),
			empty: "No print/console.log occurrences found.\n",
		},
		{
			name: "magic-number-scan", short: "List numeric literals of three or more digits", title: "Magic Number Scanner",
			exts: textExts,
			find: lineHits(func(line string) bool {
				trimmed := strip(line)
				if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
					return false
				}
				return hasMagicNumber(line)
			}),
			empty: "No magic numbers (>=3 digits) found.\n",
		},
		{
			name: "hardcoded-path-scan", short: "List absolute home or drive paths", title: "Hardcoded Path Scanner",
			exts:  textExts,
			find:  lineHits(hardcodedPathPattern.MatchString),
			empty: "No hardcoded absolute paths found.\n",
		},
		{
			name: "nocommit-scan", short: "List do-not-commit markers", title: "Do Not Commit Scanner",
			exts: textExts,
			find: lineHits(anyRegexp(
				regexp.MustCompile(`(?i)\bNOCOMMIT\b`),
				regexp.MustCompile(`(?i)DO\s*NOT\s*COMMIT`),
			)),
			empty: "No do-not-commit markers found.\n",
		},
		{
			name: "annotation-scan", short: "List TODO, FIXME, NOTE, XXX, HACK, TBD and BUG tags", title: "Annotation Scanner",
			exts:  textExts,
			find:  lineHits(anyRegexp(wordTags("TODO", "FIXME", "NOTE", "XXX", "HACK", "TBD", "BUG")...)),
			empty: "No annotation tags found.\n",
		},
		{
			name: "eval-exec-scan", short: "List eval and exec calls in Python", title: "eval/exec Scanner",
			exts: pyExts,
			find: lineHits(func(line string) bool {
				return strings.Contains(line, "eval(") || execPattern.MatchString(line)
			}),
			empty: "No eval/exec usages found.\n",
		},
		{
			name: "subprocess-shell-scan", short: "List subprocess calls with shell=True", title: "subprocess shell=True Scanner",
			exts: pyExts,
			find: lineHits(func(line string) bool {
				return strings.Contains(line, "subprocess") && strings.Contains(line, "shell=True")
			}),
			empty: "No subprocess shell=True usage found.\n",
		},
		{
			name: "traceback-usage-scan", short: "List traceback printing calls", title: "Traceback Usage Scanner",
			exts:  pyExts,
			find:  lineHits(containsAny("traceback.print_exc", "traceback.format_exc")),
			empty: "No traceback usage found.\n",
		},
		{
			name: "logger-debug-scan", short: "List logging.debug calls", title: "Logger Debug Scanner",
			exts:  pyExts,
			find:  lineHits(containsAny("logging.debug(")),
			empty: "No logging.debug calls found.\n",
		},
		{
			name: "sleep-call-scan", short: "List time.sleep calls", title: "time.sleep Usage Scanner",
			exts:  pyExts,
			find:  lineHits(containsAny("time.sleep(")),
			empty: "No time.sleep calls found.\n",
		},
		{
			name: "commented-out-code-scan", short: "List commented-out Python statements", title: "Commented-out Code Scanner (Python)",
			exts:  pyExts,
			find:  lineHits(commentedCodePattern.MatchString),
			empty: "No commented-out Python code patterns found.\n",
		},
		{
			name: "broad-except-scan", short: "List except Exception handlers", title: "Broad Except Scanner",
			exts: pyExts,
			find: func(rel string, lines []string) []string {
				var out []string
				for i, line := range lines {
					if broadExceptPattern.MatchString(line) {
						out = append(out, fmt.Sprintf("%s:%d", rel, i+1))
					}
				}
				return out
			},
			empty: "No broad exception handlers found.\n",
		},
		{
			name: "dead-except-scan", short: "List except blocks whose body is pass or ...", title: "Dead Except Scanner (except: pass/...)",
			exts:  pyExts,
			find:  findDeadExcept,
			empty: "No dead except blocks found.\n",
		},
		{
			name: "pinned-versions-scan", short: "List == pins in requirements.txt", title: "Pinned Versions in requirements.txt",
			exts: txtExts,
			keep: isRequirementsFile,
			find: func(rel string, lines []string) []string {
				var out []string
				for _, line := range lines {
					if strings.Contains(line, "==") && !strings.HasPrefix(strip(line), "#") {
						out = append(out, fmt.Sprintf("%s: %s", rel, strip(line)))
					}
				}
				return out
			},
			empty: "No pinned dependencies found.\n",
		},
		{
			name: "http-url-scan", short: "List plain http:// URLs", title: "HTTP URL Scanner (non-HTTPS)",
			exts: textExts,
			find: func(rel string, lines []string) []string {
				var out []string
				for _, line := range lines {
					for _, url := range httpURLPattern.FindAllString(line, -1) {
						out = append(out, fmt.Sprintf("%s: %s", rel, url))
					}
				}
				return out
			},
			empty: "No http:// URLs found.\n",
		},
		{
			name: "version-number-scan", short: "List files containing x.y.z version numbers", title: "Version Number Scanner (semver)",
			exts: textExts,
			find: func(rel string, lines []string) []string {
				for _, line := range lines {
					if semverPattern.MatchString(line) {
						return []string{rel}
					}
				}
				return nil
			},
			empty: "No semantic version numbers found.\n",
		},
	}
}

func patternCommands() []Command {
	rules := patternRules()
	cmds := make([]Command, 0, len(rules))
	for _, rule := range rules {
		cmds = append(cmds, rule.command())
	}
	return cmds
}

// runPattern runs the line scanner called name.
func runPattern(ctx context.Context, env *Env, name string) (string, error) {
	for _, rule := range patternRules() {
		if rule.name == name {
			return rule.run(ctx, env)
		}
	}
	return "", fmt.Errorf("unknown pattern scanner %q", name)
}

func findDeadExcept(rel string, lines []string) []string {
	var out []string
	for i, line := range lines {
		if !deadExceptPattern.MatchString(line) {
			continue
		}
		next := ""
		if i+1 < len(lines) {
			next = strip(lines[i+1])
		}
		if next == "pass" || next == "..." {
			out = append(out, fmt.Sprintf("%s:%d — %s", rel, i+1, next))
		}
	}
	return out
}
