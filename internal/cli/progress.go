package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// scanProgress draws a one-line spinner on stderr while a report reads
// files. It stays silent when stderr is not a terminal.
type scanProgress struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	label   string
	count   int
	start   time.Time
	spinner int
	lastLen int
}

func newScanProgress(label string, quiet bool) *scanProgress {
	fd := os.Stderr.Fd()
	enabled := !quiet && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
	return &scanProgress{
		out:     os.Stderr,
		enabled: enabled,
		label:   label,
		start:   time.Now(),
	}
}

// Update records one more file read. Safe for concurrent use.
func (r *scanProgress) Update(file string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	if !r.enabled {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	file = strings.TrimSpace(file)
	if len(file) > 88 {
		file = "..." + file[len(file)-85:]
	}
	r.printStatus(fmt.Sprintf("%s %s %d reading %s", frame, r.label, r.count, file))
}

// Done clears the spinner line with a summary.
func (r *scanProgress) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.printStatus(fmt.Sprintf("%s complete (%d files in %s)", r.label, r.count, elapsed))
	fmt.Fprintln(r.out)
}

// Count returns the number of files read so far.
func (r *scanProgress) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *scanProgress) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(r.out, "\r%s", status)
}
