package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"memochat/app/client/llm"
	"memochat/app/schema"
	"memochat/app/util/tokencount"
	"strings"

	_ "embed"
)

//go:embed answer_prompt.txt
var answerPromptTemplate string

type AnswerAgent struct {
	client  *llm.Client
	counter *tokencount.Counter
}

func NewAnswerAgent(client *llm.Client, counter *tokencount.Counter) *AnswerAgent {
	return &AnswerAgent{client: client, counter: counter}
}

// Node generates the assistant reply from the augmented context plus
// recent history and refreshes the token count of the retained log.
func (a *AnswerAgent) Node(ctx context.Context, state State) (State, error) {
	if len(state.Messages) == 0 {
		return state, nil
	}

	recent := schema.LastN(state.Messages, answerContext)
	latest := state.Messages[len(state.Messages)-1].Content

	memoryContext := state.Analysis.FinalAugmentedContext
	if memoryContext == "" && len(state.Analysis.NeededContextFromMemory) > 0 {
		memoryContext = state.Summary.Format(state.Analysis.NeededContextFromMemory)
	}

	var parts []string
	if memoryContext != "" {
		parts = append(parts, memoryContext, "---")
	}
	if len(recent) > 1 {
		parts = append(parts, "Recent conversation:\n"+schema.MessagesText(recent[:len(recent)-1]))
	}
	parts = append(parts, "User: "+latest)

	reply, err := a.client.Complete(ctx, answerPromptTemplate, strings.Join(parts, "\n\n"))
	if err != nil {
		return state, fmt.Errorf("answer completion: %w", err)
	}

	state.Messages = append(state.Messages, schema.AssistantMessage(reply))
	state.Clarifications = 0
	state.TokenCount = a.counter.Count(schema.MessagesText(state.Messages))

	slog.Debug("Answer generated",
		"reply_length", len(reply),
		"token_count", state.TokenCount)

	return state, nil
}
