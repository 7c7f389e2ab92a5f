package schema

import "github.com/elliotchance/pie/v2"

const maxClarifyingQuestions = 3

// QueryAnalysis is the structured result of the analyze step:
// rewrite, memory field selection and optional clarifying questions.
// Produced fresh every turn, never persisted past it.
type QueryAnalysis struct {
	OriginalQuery           string   `json:"original_query"`
	IsAmbiguous             bool     `json:"is_ambiguous"`
	RewrittenQuery          string   `json:"rewritten_query,omitempty"`
	NeededContextFromMemory []string `json:"needed_context_from_memory,omitempty"`
	FinalAugmentedContext   string   `json:"final_augmented_context,omitempty"`
	ClarifyingQuestions     []string `json:"clarifying_questions,omitempty"`
}

// Normalize repairs the parts of an analysis the model gets wrong:
// unknown memory field names are dropped, clarifying questions are
// cleared for unambiguous queries and capped at three otherwise.
func (a QueryAnalysis) Normalize() QueryAnalysis {
	a.NeededContextFromMemory = pie.Filter(a.NeededContextFromMemory, IsSummaryField)

	if !a.IsAmbiguous {
		a.ClarifyingQuestions = nil
	} else if len(a.ClarifyingQuestions) > maxClarifyingQuestions {
		a.ClarifyingQuestions = a.ClarifyingQuestions[:maxClarifyingQuestions]
	}

	return a
}
