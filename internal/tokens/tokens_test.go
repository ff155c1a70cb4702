package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"abcdefgh", 2},
		{strings.Repeat("x", 401), 100},
		{"héllo wörld!", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Heuristic{}.Count(tt.text), "text %q", tt.text)
	}
}

func TestNewSelectsCounter(t *testing.T) {
	c, err := New("", "")
	require.NoError(t, err)
	assert.Equal(t, "heuristic", c.Name())

	c, err = New(" Heuristic ", "")
	require.NoError(t, err)
	assert.IsType(t, Heuristic{}, c)

	_, err = New("words", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported tokenizer")
}

func TestNilTiktokenCountsZero(t *testing.T) {
	var tk *Tiktoken
	assert.Equal(t, 0, tk.Count("hello"))
}
