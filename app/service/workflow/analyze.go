package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"memochat/app/client/llm"
	"memochat/app/schema"

	_ "embed"
)

//go:embed analyze_prompt.txt
var analyzePromptTemplate string

type AnalyzeAgent struct {
	client *llm.Client
}

func NewAnalyzeAgent(client *llm.Client) *AnalyzeAgent {
	return &AnalyzeAgent{client: client}
}

// Node rewrites the latest user message into a self-contained query,
// selects the summary fields worth pulling into context and, when the
// query stays unclear, produces clarifying questions.
func (a *AnalyzeAgent) Node(ctx context.Context, state State) (State, error) {
	if len(state.Messages) == 0 {
		state.Analysis = schema.QueryAnalysis{}
		return state, nil
	}

	latest := state.Messages[len(state.Messages)-1].Content
	contextText := schema.MessagesText(schema.LastN(state.Messages, recentContext))

	userPrompt := fmt.Sprintf(
		"Recent conversation:\n%s\n\nLatest query: %s\n\nAnalyze this query for ambiguity and determine what context is needed.",
		contextText, latest)

	analysis, err := llm.CompleteJSON[schema.QueryAnalysis](ctx, a.client, analyzePromptTemplate, userPrompt)
	if err != nil {
		return state, fmt.Errorf("analyze completion: %w", err)
	}

	result := analysis.Normalize()
	result.OriginalQuery = latest

	if len(result.NeededContextFromMemory) > 0 {
		memoryContext := state.Summary.Format(result.NeededContextFromMemory)
		result.FinalAugmentedContext = fmt.Sprintf("%s\n\nRecent conversation:\n%s", memoryContext, contextText)
	}

	slog.Debug("Query analyzed",
		"is_ambiguous", result.IsAmbiguous,
		"rewritten", result.RewrittenQuery,
		"memory_fields", result.NeededContextFromMemory,
		"clarifying_questions", len(result.ClarifyingQuestions))

	state.Analysis = result

	return state, nil
}
