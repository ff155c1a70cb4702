// Package report persists generated report bodies under context_out/.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// DefaultDir is the output directory, relative to the working directory.
const DefaultDir = "context_out"

// DefaultExt is the extension used when none is given.
const DefaultExt = "md"

// TimestampLayout formats the report timestamp as YYYY-MM-DD_HHMMSS.
const TimestampLayout = "2006-01-02_150405"

const lockFile = ".toolbelt.lock"

// Sink names and writes report files. Two reports of the same kind written
// within the same second share a name and the later one replaces the earlier.
type Sink struct {
	// Dir is the output directory. Relative paths resolve against the
	// working directory at call time.
	Dir string
	// Now returns the local time used for names; time.Now when nil.
	Now func() time.Time
}

// NewSink returns a Sink writing to dir, or DefaultDir when dir is empty.
func NewSink(dir string) *Sink {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir
	}
	return &Sink{Dir: dir}
}

// EnsureDir creates the output directory if needed and returns its absolute
// path.
func (s *Sink) EnsureDir() (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = DefaultDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", abs, err)
	}
	return abs, nil
}

// Path returns the destination for a report of the given kind, creating the
// output directory on the way.
func (s *Sink) Path(kind, ext string) (string, error) {
	dir, err := s.EnsureDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName(kind, ext, s.now())), nil
}

// Write stores body as a new report and returns the absolute path written.
func (s *Sink) Write(kind, body, ext string) (string, error) {
	path, err := s.Path(kind, ext)
	if err != nil {
		return "", err
	}

	lock := flock.New(filepath.Join(filepath.Dir(path), lockFile))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("failed to lock %s: %w", filepath.Dir(path), err)
	}
	defer lock.Unlock()

	if err := WriteText(path, body); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Sink) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// FileName builds "{kind}_{timestamp}.{ext}".
func FileName(kind, ext string, at time.Time) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = DefaultExt
	}
	return fmt.Sprintf("%s_%s.%s", kind, at.Format(TimestampLayout), ext)
}

// WriteText writes content to path as UTF-8 with "\n" line endings,
// replacing any existing file.
func WriteText(path, content string) error {
	if err := os.WriteFile(path, []byte(NormalizeNewlines(content)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// NormalizeNewlines converts CRLF and lone CR to LF.
func NormalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
