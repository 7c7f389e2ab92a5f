package tokencount

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName matches the encoding the reference models use.
const encodingName = "cl100k_base"

type Counter struct {
	encoder *tiktoken.Tiktoken
}

// New returns a counter backed by the cl100k_base BPE. tiktoken-go loads
// the encoding lazily and may need network access the first time; when it
// cannot be loaded the counter degrades to a deterministic approximation
// instead of failing startup.
func New() *Counter {
	encoder, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		slog.Warn("Failed to load tiktoken encoding, using approximate counts",
			"encoding", encodingName,
			"error", err)

		return &Counter{}
	}

	return &Counter{encoder: encoder}
}

// NewApprox returns a counter that always uses the approximation.
func NewApprox() *Counter {
	return &Counter{}
}

func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}

	if c.encoder != nil {
		return len(c.encoder.Encode(text, nil, nil))
	}

	return approxCount(text)
}

// approxCount estimates BPE tokens as words plus a character correction.
// It only needs to be monotonic in appended text, not exact.
func approxCount(text string) int {
	words := len(strings.Fields(text))
	chars := utf8.RuneCountInString(text)

	count := words + chars/8
	if count == 0 {
		count = 1
	}

	return count
}
