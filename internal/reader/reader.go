// Package reader loads file content as text for scanners. It never returns
// an error: a file that cannot be used as text is reported as skipped.
package reader

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/morozRed/toolbelt/internal/classify"
	"golang.org/x/text/encoding/unicode"
)

// DefaultMaxBytes is the size ceiling applied when callers pass 0.
const DefaultMaxBytes int64 = 2_000_000

// SkipReason explains why no text was produced.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipTooLarge
	SkipBinary
	SkipUnreadable
)

func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipTooLarge:
		return "too-large"
	case SkipBinary:
		return "binary"
	case SkipUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// Result is the outcome of a text read. Text is only meaningful when OK.
type Result struct {
	Text string
	Skip SkipReason
	// Err carries the filesystem error behind SkipUnreadable for diagnostics.
	Err error
}

// OK reports whether the file produced text.
func (r Result) OK() bool {
	return r.Skip == SkipNone
}

// Reader is the read boundary used by scanners.
type Reader interface {
	ReadText(path string, maxBytes int64) Result
}

// FileReader reads straight from the filesystem.
type FileReader struct{}

// ReadText implements Reader using the package-level ReadText.
func (FileReader) ReadText(path string, maxBytes int64) Result {
	return ReadText(path, maxBytes)
}

// ReadText loads path as UTF-8 text. Files larger than maxBytes, files whose
// first classify.SampleSize bytes look binary, and files that cannot be read
// are skipped. Invalid UTF-8 is replaced with U+FFFD rather than failing.
func ReadText(path string, maxBytes int64) Result {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	info, err := os.Stat(path)
	if err != nil {
		return unreadable(err)
	}
	if !info.Mode().IsRegular() {
		return unreadable(fmt.Errorf("%s is not a regular file", path))
	}
	if info.Size() > maxBytes {
		return Result{Skip: SkipTooLarge}
	}

	data, err := readBounded(path, maxBytes)
	if err != nil {
		return unreadable(err)
	}
	if int64(len(data)) > maxBytes {
		// The file grew between stat and read.
		return Result{Skip: SkipTooLarge}
	}

	sample := data
	if len(sample) > classify.SampleSize {
		sample = sample[:classify.SampleSize]
	}
	if classify.IsBinary(sample) {
		return Result{Skip: SkipBinary}
	}

	return Result{Text: DecodeUTF8(data)}
}

// DecodeUTF8 converts data to a string, replacing every ill-formed byte
// sequence with U+FFFD. A leading byte order mark is kept.
func DecodeUTF8(data []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("\ufffd")))
	}
	return string(decoded)
}

// ReadHead returns up to n leading bytes of path. ok is false when the file
// cannot be opened or read.
func ReadHead(path string, n int) (head []byte, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, false
	}
	return buf[:read], true
}

// readBounded reads at most limit+1 bytes so a file that grew past the
// ceiling can be detected without loading all of it.
func readBounded(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, limit+1))
}

func unreadable(err error) Result {
	return Result{Skip: SkipUnreadable, Err: err}
}
