// Package tokens estimates how many LLM tokens a piece of text costs.
package tokens

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultTiktokenModel picks the encoding when no model is configured or the
// configured one is unknown.
const DefaultTiktokenModel = "gpt-4o"

// Counter counts tokens in text.
type Counter interface {
	Count(text string) int
	Name() string
}

// Heuristic assumes roughly four characters per token and never reports
// fewer than one token.
type Heuristic struct{}

func (Heuristic) Count(text string) int {
	return max(1, utf8.RuneCountInString(text)/4)
}

func (Heuristic) Name() string { return "heuristic" }

// Tiktoken counts with a BPE encoding from tiktoken-go.
type Tiktoken struct {
	model string
	enc   *tiktoken.Tiktoken
}

// NewTiktoken loads the encoding for model, falling back to
// DefaultTiktokenModel when model is empty or unknown.
func NewTiktoken(model string) (*Tiktoken, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultTiktokenModel
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		model = DefaultTiktokenModel
		enc, err = tiktoken.EncodingForModel(model)
		if err != nil {
			return nil, fmt.Errorf("failed to load tiktoken encoding for %s: %w", model, err)
		}
	}
	return &Tiktoken{model: model, enc: enc}, nil
}

func (t *Tiktoken) Count(text string) int {
	if t == nil || t.enc == nil {
		return 0
	}
	return len(t.enc.EncodeOrdinary(text))
}

func (t *Tiktoken) Name() string {
	return "tiktoken/" + t.model
}

// New returns the counter named kind ("heuristic" or "tiktoken").
func New(kind, model string) (Counter, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "heuristic":
		return Heuristic{}, nil
	case "tiktoken":
		return NewTiktoken(model)
	default:
		return nil, fmt.Errorf("unsupported tokenizer %q (supported: heuristic, tiktoken)", kind)
	}
}
