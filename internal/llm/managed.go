package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/morozRed/toolbelt/internal/fileutil"
)

const (
	ManagedBlockStart = "<!-- toolbelt:managed:start -->"
	ManagedBlockEnd   = "<!-- toolbelt:managed:end -->"
)

// UpsertManagedFile replaces the managed block in path with body, or
// appends one. Text outside the markers is left alone.
func UpsertManagedFile(path, body string) (bool, error) {
	existing := ""
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	managed := fmt.Sprintf("%s\n%s\n%s", ManagedBlockStart, strings.TrimSpace(body), ManagedBlockEnd)
	updated := UpsertManagedBlock(existing, managed)
	changed, err := fileutil.WriteIfChanged(path, []byte(updated))
	if err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return changed, nil
}

func UpsertManagedBlock(existing, managed string) string {
	if existing == "" {
		return managed + "\n"
	}
	start := strings.Index(existing, ManagedBlockStart)
	end := strings.Index(existing, ManagedBlockEnd)
	if start >= 0 && end >= start {
		end += len(ManagedBlockEnd)
		return fileutil.EnsureTrailingNewline(existing[:start] + managed + existing[end:])
	}
	return fileutil.EnsureTrailingNewline(existing) + "\n" + managed + "\n"
}

// HasManagedBlock reports whether path contains both markers.
func HasManagedBlock(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	text := string(data)
	return strings.Contains(text, ManagedBlockStart) && strings.Contains(text, ManagedBlockEnd)
}
