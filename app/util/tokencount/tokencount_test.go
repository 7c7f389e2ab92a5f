package tokencount

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount_EmptyIsZero(t *testing.T) {
	counter := NewApprox()
	assert.Zero(t, counter.Count(""))
}

func TestCount_NonEmptyIsPositive(t *testing.T) {
	counter := NewApprox()
	assert.Positive(t, counter.Count("x"))
	assert.Positive(t, counter.Count("Hello world"))
}

// Counts must be monotonic non-decreasing as messages are appended,
// since the summarization trigger depends on it.
func TestCount_MonotonicOnAppend(t *testing.T) {
	counter := NewApprox()

	var log strings.Builder
	prev := 0

	lines := []string{
		"user: Hi, I'm planning a trip",
		"assistant: Where would you like to go?",
		"user: Somewhere warm, budget around $3000",
		"assistant: Thailand or Greece would fit well.",
	}

	for _, line := range lines {
		log.WriteString(line + "\n")

		count := counter.Count(log.String())
		assert.GreaterOrEqual(t, count, prev)
		prev = count
	}
}

func TestCount_GrowsWithContent(t *testing.T) {
	counter := NewApprox()

	short := counter.Count("one two three")
	long := counter.Count("one two three four five six seven eight nine ten")

	assert.Greater(t, long, short)
}
