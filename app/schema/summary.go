package schema

import (
	"fmt"
	"strings"
)

// MessageRange is a half-open range of absolute message indices
// that have been folded into the summary.
type MessageRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// SessionSummary is the structured long-term memory of a session.
// It is produced by the summarize step and merged, never replaced wholesale.
type SessionSummary struct {
	UserProfile            map[string]string `json:"user_profile"`
	KeyFacts               []string          `json:"key_facts"`
	Decisions              []string          `json:"decisions"`
	OpenQuestions          []string          `json:"open_questions"`
	Todos                  []string          `json:"todos"`
	MessageRangeSummarized MessageRange      `json:"message_range_summarized"`
}

func NewSessionSummary() SessionSummary {
	return SessionSummary{
		UserProfile:   map[string]string{},
		KeyFacts:      []string{},
		Decisions:     []string{},
		OpenQuestions: []string{},
		Todos:         []string{},
	}
}

// SummaryFields are the only field names the analyze step may request
// from memory.
var SummaryFields = []string{"user_profile", "key_facts", "decisions", "open_questions", "todos"}

func IsSummaryField(name string) bool {
	for _, f := range SummaryFields {
		if f == name {
			return true
		}
	}

	return false
}

// Format renders the requested summary fields as a prompt section.
// Empty fields are omitted; an empty selection yields an empty string.
func (s SessionSummary) Format(fields []string) string {
	sections := []string{"=== SESSION MEMORY ==="}

	for _, field := range fields {
		title := fieldTitle(field)

		switch field {
		case "user_profile":
			if len(s.UserProfile) == 0 {
				continue
			}
			sections = append(sections, "\n"+title+":")
			for k, v := range s.UserProfile {
				sections = append(sections, fmt.Sprintf("  - %s: %s", k, v))
			}
		case "key_facts":
			sections = appendListSection(sections, title, s.KeyFacts)
		case "decisions":
			sections = appendListSection(sections, title, s.Decisions)
		case "open_questions":
			sections = appendListSection(sections, title, s.OpenQuestions)
		case "todos":
			sections = appendListSection(sections, title, s.Todos)
		}
	}

	if len(sections) == 1 {
		return ""
	}

	return strings.Join(sections, "\n")
}

func fieldTitle(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}

	return strings.Join(words, " ")
}

func appendListSection(sections []string, title string, items []string) []string {
	if len(items) == 0 {
		return sections
	}

	sections = append(sections, "\n"+title+":")
	for _, item := range items {
		sections = append(sections, "  - "+item)
	}

	return sections
}

// MergeSummaries folds an updated summary produced by the LLM into the
// previous one. The model is instructed to merge on its own, but the
// instruction is not trusted: a non-empty prior field never gets wiped
// by an empty update, list fields are unioned in order, and profile key
// conflicts take the newer value.
func MergeSummaries(prev, next SessionSummary) SessionSummary {
	result := NewSessionSummary()

	for k, v := range prev.UserProfile {
		result.UserProfile[k] = v
	}
	for k, v := range next.UserProfile {
		if v != "" {
			result.UserProfile[k] = v
		}
	}

	result.KeyFacts = unionOrdered(prev.KeyFacts, next.KeyFacts)
	result.Decisions = unionOrdered(prev.Decisions, next.Decisions)

	// Questions and todos shrink as they get resolved, so the newer
	// list wins unless the model returned nothing at all.
	result.OpenQuestions = preferNonEmpty(next.OpenQuestions, prev.OpenQuestions)
	result.Todos = preferNonEmpty(next.Todos, prev.Todos)

	result.MessageRangeSummarized = prev.MessageRangeSummarized
	if next.MessageRangeSummarized.To > prev.MessageRangeSummarized.To {
		result.MessageRangeSummarized = next.MessageRangeSummarized
	}

	return result
}

func unionOrdered(prev, next []string) []string {
	seen := make(map[string]bool, len(prev)+len(next))
	result := make([]string, 0, len(prev)+len(next))

	for _, item := range append(append([]string{}, prev...), next...) {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}

	return result
}

func preferNonEmpty(next, prev []string) []string {
	if len(next) > 0 {
		return append([]string{}, next...)
	}

	return append([]string{}, prev...)
}
