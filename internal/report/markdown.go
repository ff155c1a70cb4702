package report

import (
	"fmt"
	"strings"
)

// H1 renders a top-level heading followed by a blank line.
func H1(title string) string {
	return fmt.Sprintf("# %s\n\n", title)
}

// H2 renders a second-level heading followed by a blank line.
func H2(title string) string {
	return fmt.Sprintf("## %s\n\n", title)
}

// H3 renders a third-level heading followed by a blank line.
func H3(title string) string {
	return fmt.Sprintf("### %s\n\n", title)
}

// CodeBlock renders a fenced block tagged with lang (may be empty).
func CodeBlock(code, lang string) string {
	return fmt.Sprintf("```%s\n%s\n```\n\n", lang, code)
}

// Builder accumulates a report body. Len counts appended parts, which lets
// reports detect "nothing beyond the header" the same way for every command.
type Builder struct {
	sb    strings.Builder
	parts int
}

// NewBuilder starts a body with the given parts already written.
func NewBuilder(header ...string) *Builder {
	b := &Builder{}
	for _, part := range header {
		b.Add(part)
	}
	return b
}

// Add appends a raw part.
func (b *Builder) Add(part string) *Builder {
	b.sb.WriteString(part)
	b.parts++
	return b
}

// Addf appends a formatted part.
func (b *Builder) Addf(format string, args ...any) *Builder {
	return b.Add(fmt.Sprintf(format, args...))
}

// Item appends a "- text\n" bullet.
func (b *Builder) Item(format string, args ...any) *Builder {
	return b.Add("- " + fmt.Sprintf(format, args...) + "\n")
}

// Len returns the number of parts appended so far.
func (b *Builder) Len() int {
	return b.parts
}

// String returns the body.
func (b *Builder) String() string {
	return b.sb.String()
}
