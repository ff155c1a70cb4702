package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(buf *bytes.Buffer, level string) *ConsoleLogger {
	l := NewConsoleLogger(buf, level)
	l.now = func() time.Time { return time.Date(2024, 1, 2, 13, 4, 5, 0, time.Local) }
	return l
}

func TestConsoleLoggerFormatsLines(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "info")

	l.Infof("scanned %d files", 3)
	assert.Equal(t, "[13:04:05] [INFO] scanned 3 files\n", buf.String())
}

func TestConsoleLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "warn")

	l.Tracef("trace")
	l.Debugf("debug")
	l.Infof("info")
	l.Warnf("warn")
	l.Errorf("error")

	out := buf.String()
	assert.NotContains(t, out, "[DEBUG]")
	assert.NotContains(t, out, "[INFO]")
	assert.Contains(t, out, "[WARN] warn")
	assert.Contains(t, out, "[ERROR] error")
}

func TestConsoleLoggerNoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "debug")
	l.Debugf("skip a.bin (binary)")
	assert.False(t, strings.Contains(buf.String(), "\x1b["))
}

func TestNormalizeLevel(t *testing.T) {
	assert.Equal(t, "debug", NormalizeLevel(" DEBUG "))
	assert.Equal(t, "info", NormalizeLevel(""))
	assert.Equal(t, "info", NormalizeLevel("verbose"))
}

func TestNilWriterAndDiscard(t *testing.T) {
	NewConsoleLogger(nil, "trace").Errorf("dropped")
	Discard().Errorf("dropped")
	var nilLogger *ConsoleLogger
	nilLogger.Infof("dropped")
}

func TestConsoleLoggerConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Infof("line %d", n)
		}(i)
	}
	wg.Wait()

	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 20)
}
