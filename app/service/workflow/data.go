package workflow

import (
	"memochat/app/schema"
)

const (
	// TokenThreshold is the message-log budget that triggers summarization.
	TokenThreshold = 800

	// keepRecent messages survive a summarization prune.
	keepRecent = 5

	// maxClarificationAttempts caps consecutive clarification turns
	// before a best-effort answer is forced.
	maxClarificationAttempts = 1

	// recentContext messages go into the analyze prompt.
	recentContext = 5

	// answerContext messages go into the answer prompt.
	answerContext = 10
)

// State is the full conversation state flowing through the graph and
// persisted in the session store between turns.
type State struct {
	// Messages currently retained; older ones live in the summary.
	Messages []schema.Message `json:"messages"`

	// BaseIndex is the absolute index of Messages[0] counted from the
	// start of the session, so summarized ranges stay meaningful after
	// pruning.
	BaseIndex int `json:"base_index"`

	Summary  schema.SessionSummary `json:"summary"`
	Analysis schema.QueryAnalysis  `json:"analysis"`

	TokenCount int `json:"token_count"`

	// Clarifications counts consecutive clarification turns.
	Clarifications int `json:"clarifications"`
}

func NewState() State {
	return State{
		Messages: []schema.Message{},
		Summary:  schema.NewSessionSummary(),
	}
}

// TotalMessages is the absolute index one past the newest message.
func (s State) TotalMessages() int {
	return s.BaseIndex + len(s.Messages)
}

// TurnResult is what a processed turn hands back to the caller.
type TurnResult struct {
	ThreadID string         `json:"thread_id"`
	Reply    schema.Message `json:"reply"`
	State    State          `json:"state"`
}
