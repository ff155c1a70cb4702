// Package logger provides the leveled console logger used by toolbelt
// commands. Output goes to stderr so report paths on stdout stay clean.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is the logging surface used across packages.
type Logger interface {
	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ConsoleLogger writes "[HH:MM:SS] [LEVEL] message" lines. It is safe for
// concurrent use.
type ConsoleLogger struct {
	writer      io.Writer
	level       int
	mutex       sync.Mutex
	colorOutput bool
	now         func() time.Time
}

// NewConsoleLogger creates a logger writing to w at the given minimum level
// (trace, debug, info, warn, error; anything else means info). A nil writer
// discards everything. Color is used only when w is a terminal and NO_COLOR
// is unset.
func NewConsoleLogger(w io.Writer, level string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      w,
		level:       levelToInt(NormalizeLevel(level)),
		colorOutput: isTerminal(w),
		now:         time.Now,
	}
}

// Discard returns a logger that drops every message.
func Discard() *ConsoleLogger {
	return NewConsoleLogger(nil, "error")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NormalizeLevel lower-cases level and falls back to "info" when invalid.
func NormalizeLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

func levelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) Tracef(format string, args ...any) {
	cl.log(levelTrace, "TRACE", format, args...)
}

func (cl *ConsoleLogger) Debugf(format string, args ...any) {
	cl.log(levelDebug, "DEBUG", format, args...)
}

func (cl *ConsoleLogger) Infof(format string, args ...any) {
	cl.log(levelInfo, "INFO", format, args...)
}

func (cl *ConsoleLogger) Warnf(format string, args ...any) {
	cl.log(levelWarn, "WARN", format, args...)
}

func (cl *ConsoleLogger) Errorf(format string, args ...any) {
	cl.log(levelError, "ERROR", format, args...)
}

func (cl *ConsoleLogger) log(level int, label, format string, args ...any) {
	if cl == nil || cl.writer == nil || level < cl.level {
		return
	}
	message := fmt.Sprintf(format, args...)

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := cl.now().Format("15:04:05")
	if cl.colorOutput {
		label = colorize(label)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, label, message)
}

func colorize(label string) string {
	switch label {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(label)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(label)
	case "INFO":
		return color.New(color.FgBlue).Sprint(label)
	case "WARN":
		return color.New(color.FgYellow).Sprint(label)
	case "ERROR":
		return color.New(color.FgRed).Sprint(label)
	default:
		return label
	}
}
