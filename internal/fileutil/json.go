package fileutil

import (
	"bytes"
	"encoding/json"
	"strings"
)

// IndentJSON renders value as two-space indented JSON without HTML escaping
// and without the encoder's trailing newline.
func IndentJSON(value any) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
