package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"memochat/app/client/llm"
	"memochat/app/schema"
	"memochat/app/util/tokencount"

	_ "embed"
)

//go:embed summarize_prompt.txt
var summarizePromptTemplate string

type SummarizeAgent struct {
	client  *llm.Client
	counter *tokencount.Counter
}

func NewSummarizeAgent(client *llm.Client, counter *tokencount.Counter) *SummarizeAgent {
	return &SummarizeAgent{client: client, counter: counter}
}

// Node archives everything except the most recent messages into the
// summary, prunes the log and records the covered range in absolute
// message indices.
func (a *SummarizeAgent) Node(ctx context.Context, state State) (State, error) {
	if len(state.Messages) <= keepRecent {
		return state, nil
	}

	archive := state.Messages[:len(state.Messages)-keepRecent]
	conversationText := schema.MessagesText(archive)

	currentJSON, err := json.MarshalIndent(state.Summary, "", "  ")
	if err != nil {
		return state, fmt.Errorf("marshal current summary: %w", err)
	}

	userPrompt := fmt.Sprintf(
		"Current summary (to be updated):\n%s\n\nMessages to archive (merge their information into the summary):\n%s",
		currentJSON, conversationText)

	updated, err := llm.CompleteJSON[schema.SessionSummary](ctx, a.client, summarizePromptTemplate, userPrompt)
	if err != nil {
		return state, fmt.Errorf("summarize completion: %w", err)
	}

	merged := schema.MergeSummaries(state.Summary, *updated)
	merged.MessageRangeSummarized = schema.MessageRange{
		From: state.Summary.MessageRangeSummarized.To,
		To:   state.BaseIndex + len(archive),
	}

	state.Summary = merged
	state.BaseIndex += len(archive)
	state.Messages = state.Messages[len(archive):]
	state.TokenCount = a.counter.Count(schema.MessagesText(state.Messages))

	slog.Info("Conversation summarized",
		"archived", len(archive),
		"retained", len(state.Messages),
		"range_to", merged.MessageRangeSummarized.To,
		"token_count", state.TokenCount)

	return state, nil
}
