package workflow

import (
	"context"
	"memochat/app/schema"
	"strings"
)

const clarifyFallback = "I'm not sure I understand. Could you please provide more details?"

// clarifyNode turns the clarifying questions into the assistant reply
// and ends the turn. It never triggers summarization.
func clarifyNode(_ context.Context, state State) (State, error) {
	questions := state.Analysis.ClarifyingQuestions

	var reply string
	switch len(questions) {
	case 0:
		reply = clarifyFallback
	case 1:
		reply = questions[0]
	default:
		var builder strings.Builder
		builder.WriteString("I need some clarification:\n")
		for _, q := range questions {
			builder.WriteString("\n- ")
			builder.WriteString(q)
		}
		reply = builder.String()
	}

	state.Messages = append(state.Messages, schema.AssistantMessage(reply))
	state.Clarifications++

	return state, nil
}
