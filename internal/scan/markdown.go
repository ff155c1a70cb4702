package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/morozRed/toolbelt/internal/fileutil"
	"github.com/morozRed/toolbelt/internal/linkcheck"
	"github.com/morozRed/toolbelt/internal/report"
)

const maxSummaryHeadings = 10

var (
	urlPattern  = regexp.MustCompile(`(?i)https?://[\p{L}\p{N}_\-./?%&=#:]+`)
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	remoteRef   = regexp.MustCompile(`^https?://`)
)

func markdownCommands() []Command {
	return []Command{
		{Name: "markdown-heading-index", Short: "Index headings of Markdown files", Group: "markdown", Run: MarkdownHeadingIndex},
		{Name: "markdown-image-check", Short: "Report local images that do not exist", Group: "markdown", Run: MarkdownImageCheck},
		{Name: "markdown-word-count", Short: "Count words in Markdown prose", Group: "markdown", Run: MarkdownWordCount},
		{Name: "changelog-summary", Short: "List the first headings of the changelog", Group: "markdown", Run: ChangelogSummary},
		{Name: "readme-summary", Short: "Show the README's first paragraph and headings", Group: "markdown", Run: ReadmeSummary},
		{Name: "readme-links", Short: "List URLs in the README", Group: "markdown", Run: ReadmeLinks},
		{
			Name: "link-check-md", Short: "Probe URLs found in Markdown files", Group: "markdown",
			Flags: []Flag{{Name: "offline", Kind: FlagBool, Default: false, Usage: "List links without probing them"}},
			Run: func(ctx context.Context, env *Env) (string, error) {
				return LinkCheckMarkdown(ctx, env, env.Params.Bool("offline"))
			},
		},
	}
}

func MarkdownHeadingIndex(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, mdExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Markdown Heading Index"))
	for _, f := range nonEmpty(files) {
		b.Add(report.H2(f.RelPath))
		for _, h := range headings([]byte(f.Text)) {
			b.Item("%s%s", strings.Repeat("  ", h.Level-1), h.Title)
		}
	}
	if b.Len() == 1 {
		b.Add("No Markdown files with headings found.\n")
	}
	return b.String(), nil
}

// MarkdownImageCheck reports image references that do not resolve to a
// file relative to the Markdown file. Remote images are not checked.
func MarkdownImageCheck(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, mdExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Markdown Image Check"))
	for _, f := range nonEmpty(files) {
		for _, ref := range imageRefs([]byte(f.Text)) {
			if remoteRef.MatchString(ref) {
				continue
			}
			target := filepath.Join(filepath.Dir(f.AbsPath), filepath.FromSlash(ref))
			if _, err := os.Stat(target); err != nil {
				b.Item("%s: missing image %s", f.RelPath, ref)
			}
		}
	}
	if b.Len() == 1 {
		b.Add("All local images referenced in Markdown seem present.\n")
	}
	return b.String(), nil
}

func MarkdownWordCount(ctx context.Context, env *Env) (string, error) {
	files, err := env.texts(ctx, mdExts, 0)
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Markdown Word Count"))
	total := 0
	for _, f := range nonEmpty(files) {
		n := len(wordPattern.FindAllString(plainText([]byte(f.Text)), -1))
		total += n
		b.Item("%s: %d words", f.RelPath, n)
	}
	b.Addf("\nTotal words: %d\n", total)
	return b.String(), nil
}

// firstMarkdown returns the first non-empty Markdown file whose lower-cased
// base name matches pattern. Shallower files win, then RelPath order.
func (e *Env) firstMarkdown(ctx context.Context, pattern string) (textFile, bool, error) {
	files, err := e.texts(ctx, mdExts, 0)
	if err != nil {
		return textFile{}, false, err
	}
	var matches []textFile
	for _, f := range nonEmpty(files) {
		if ok, _ := filepath.Match(pattern, strings.ToLower(filepath.Base(f.RelPath))); ok {
			matches = append(matches, f)
		}
	}
	if len(matches) == 0 {
		return textFile{}, false, nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return pathDepth(matches[i].RelPath) < pathDepth(matches[j].RelPath)
	})
	return matches[0], true, nil
}

func pathDepth(rel string) int {
	return strings.Count(filepath.ToSlash(rel), "/")
}

func headingTitles(src string, limit int) []string {
	hs := headings([]byte(src))
	out := make([]string, 0, min(limit, len(hs)))
	for _, h := range hs[:min(limit, len(hs))] {
		out = append(out, h.Title)
	}
	return out
}

func ChangelogSummary(ctx context.Context, env *Env) (string, error) {
	f, ok, err := env.firstMarkdown(ctx, "changelog*.md")
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("Changelog Summary"))
	if !ok {
		b.Add("No CHANGELOG.md found.\n")
		return b.String(), nil
	}
	b.Add(report.H2(f.RelPath))
	titles := headingTitles(f.Text, maxSummaryHeadings)
	for _, t := range titles {
		b.Item("%s", t)
	}
	if len(titles) == 0 {
		b.Add("No headings found.\n")
	}
	return b.String(), nil
}

// firstParagraph is the first non-blank chunk between blank lines.
func firstParagraph(text string) (string, bool) {
	for _, chunk := range strings.Split(text, "\n\n") {
		if p := strip(chunk); p != "" {
			return p, true
		}
	}
	return "", false
}

func ReadmeSummary(ctx context.Context, env *Env) (string, error) {
	f, ok, err := env.firstMarkdown(ctx, "readme*.md")
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("README Summary"))
	if !ok {
		b.Add("No README found.\n")
		return b.String(), nil
	}
	b.Add(report.H2(f.RelPath))
	if p, ok := firstParagraph(f.Text); ok {
		b.Add(p + "\n\n")
	}
	for _, t := range headingTitles(f.Text, maxSummaryHeadings) {
		b.Item("%s", t)
	}
	return b.String(), nil
}

// urls returns the distinct URLs in text, sorted.
func urls(text string) []string {
	return fileutil.SortedUnique(urlPattern.FindAllString(text, -1))
}

func ReadmeLinks(ctx context.Context, env *Env) (string, error) {
	f, ok, err := env.firstMarkdown(ctx, "readme*.md")
	if err != nil {
		return "", err
	}
	b := report.NewBuilder(report.H1("README Links"))
	if !ok {
		b.Add("No README found.\n")
		return b.String(), nil
	}
	b.Add(report.H2(f.RelPath))
	links := urls(f.Text)
	for _, u := range links {
		b.Item("%s", u)
	}
	if len(links) == 0 {
		b.Add("(no links)\n")
	}
	return b.String(), nil
}

type fileLink struct {
	rel string
	url string
}

// LinkCheckMarkdown lists every URL per Markdown file. Online, each distinct
// URL is probed once through the link checker.
func LinkCheckMarkdown(ctx context.Context, env *Env, offline bool) (string, error) {
	files, err := env.texts(ctx, mdExts, 0)
	if err != nil {
		return "", err
	}
	var found []fileLink
	for _, f := range nonEmpty(files) {
		for _, u := range urls(f.Text) {
			found = append(found, fileLink{rel: f.RelPath, url: u})
		}
	}

	statuses := make(map[string]linkcheck.Status)
	if !offline && len(found) > 0 {
		distinct := make([]string, 0, len(found))
		for _, l := range found {
			distinct = append(distinct, l.url)
		}
		distinct = fileutil.DedupeStrings(distinct)
		checker := env.Links
		if checker == nil {
			checker = linkcheck.New(linkcheck.DefaultTimeout)
		}
		env.log().Infof("checking %d links", len(distinct))
		for _, st := range checker.Check(ctx, distinct) {
			statuses[st.URL] = st
		}
	}

	mode := "online"
	if offline {
		mode = "offline"
	}
	b := report.NewBuilder(report.H1("Markdown Link Check"))
	b.Addf("Mode: %s\n\n", mode)
	for _, l := range found {
		code, reason := 0, "offline"
		if !offline {
			st := statuses[l.url]
			code, reason = st.Code, st.Reason
		}
		b.Item("%s: %s — %s", l.rel, l.url, fmt.Sprintf("%d %s", code, reason))
	}
	if len(found) == 0 {
		b.Add("No links found in Markdown files.\n")
	}
	return b.String(), ctx.Err()
}
