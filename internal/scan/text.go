package scan

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// splitLines splits at every line boundary Python's str.splitlines knows,
// dropping the terminators. A trailing terminator does not start a new line.
func splitLines(text string) []string {
	lines := make([]string, 0, strings.Count(text, "\n")+1)
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch r {
		case '\r':
			lines = append(lines, text[start:i])
			if i+1 < len(text) && text[i+1] == '\n' {
				size = 2
			}
			start = i + size
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			lines = append(lines, text[start:i])
			start = i + size
		}
		i += size
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

// strip trims leading and trailing whitespace.
func strip(s string) string {
	return strings.TrimSpace(s)
}

// rstrip trims trailing whitespace.
func rstrip(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// runeLen counts characters rather than bytes.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// truncateRunes keeps at most n characters of s.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// isWordRune matches Python's \w.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r)
}

// counter counts keys and remembers first-seen order so that ties keep a
// stable order.
type counter struct {
	keys   []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string, n int) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key] += n
}

func (c *counter) inc(key string) {
	c.add(key, 1)
}

func (c *counter) len() int {
	return len(c.keys)
}

type count struct {
	Key   string
	Count int
}

// inOrder returns counts in first-seen order.
func (c *counter) inOrder() []count {
	out := make([]count, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, count{Key: k, Count: c.counts[k]})
	}
	return out
}

// mostCommon returns counts sorted by descending count, ties in first-seen
// order.
func (c *counter) mostCommon() []count {
	out := c.inOrder()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// noExt renders an empty extension the way inventories show it.
func noExt(ext string) string {
	if ext == "" {
		return "(no ext)"
	}
	return ext
}
