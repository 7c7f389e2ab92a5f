package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"memochat/app/client/llm"
	"memochat/app/config"
	"memochat/app/schema"
	"memochat/app/service/session"
	"memochat/app/util/tokencount"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	mu    sync.Mutex
	queue []string
	calls []openai.ChatCompletionRequest
}

func (s *stubCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, req)

	if len(s.queue) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("stub exhausted")
	}

	next := s.queue[0]
	s.queue = s.queue[1:]

	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: next}},
		},
	}, nil
}

func (s *stubCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.calls)
}

const (
	clearAnalysisJSON     = `{"original_query": "", "is_ambiguous": false, "needed_context_from_memory": []}`
	ambiguousAnalysisJSON = `{"original_query": "", "is_ambiguous": true, "clarifying_questions": ["Are you asking about hotels?", "What is your budget?"]}`
	summaryJSON           = `{"user_profile": {"name": "John"}, "key_facts": ["Budget is $3000"], "decisions": [], "open_questions": [], "todos": [], "message_range_summarized": {"from": 0, "to": 0}}`
)

func newTestService(responses ...string) (*Service, *stubCompleter) {
	stub := &stubCompleter{queue: responses}
	client := llm.NewClientWithCompleter(stub, "test-model", 0.7)

	svc := newService(&config.Config{}, session.NewMemoryStore(), tokencount.NewApprox(), client)

	return svc, stub
}

func TestProcessTurn_ClearQuery_Answers(t *testing.T) {
	svc, stub := newTestService(clearAnalysisJSON, "Sure, here is my answer.")

	result, err := svc.ProcessTurn(context.Background(), "t1", "Tell me about Thailand")
	require.NoError(t, err)

	assert.Equal(t, schema.RoleAssistant, result.Reply.Role)
	assert.Equal(t, "Sure, here is my answer.", result.Reply.Content)
	assert.Equal(t, 2, stub.callCount())
	assert.Zero(t, result.State.Clarifications)
	assert.Len(t, result.State.Messages, 2)
	assert.Equal(t, "Tell me about Thailand", result.State.Analysis.OriginalQuery)
}

func TestProcessTurn_AmbiguousQuery_Clarifies(t *testing.T) {
	svc, stub := newTestService(ambiguousAnalysisJSON)

	result, err := svc.ProcessTurn(context.Background(), "t1", "What about that hotel?")
	require.NoError(t, err)

	// The rendered message is the clarifying questions, never an answer.
	assert.Contains(t, result.Reply.Content, "Are you asking about hotels?")
	assert.Contains(t, result.Reply.Content, "What is your budget?")
	assert.Equal(t, 1, stub.callCount(), "clarification must not call the answer model")
	assert.Equal(t, 1, result.State.Clarifications)
}

func TestProcessTurn_SingleQuestionRenderedVerbatim(t *testing.T) {
	svc, _ := newTestService(`{"is_ambiguous": true, "clarifying_questions": ["Which city do you mean?"]}`)

	result, err := svc.ProcessTurn(context.Background(), "t1", "what about it?")
	require.NoError(t, err)
	assert.Equal(t, "Which city do you mean?", result.Reply.Content)
}

func TestProcessTurn_ClarificationCap_ForcesBestEffortAnswer(t *testing.T) {
	svc, stub := newTestService(
		ambiguousAnalysisJSON,
		ambiguousAnalysisJSON,
		"Best-effort answer.",
	)

	_, err := svc.ProcessTurn(context.Background(), "t1", "what about that?")
	require.NoError(t, err)

	result, err := svc.ProcessTurn(context.Background(), "t1", "you know, the thing")
	require.NoError(t, err)

	assert.Equal(t, "Best-effort answer.", result.Reply.Content)
	assert.Equal(t, 3, stub.callCount())
	assert.Zero(t, result.State.Clarifications, "answering resets the counter")
}

func TestProcessTurn_PersistsStateBetweenTurns(t *testing.T) {
	svc, _ := newTestService(
		clearAnalysisJSON, "First answer.",
		clearAnalysisJSON, "Second answer.",
	)

	_, err := svc.ProcessTurn(context.Background(), "t1", "first question")
	require.NoError(t, err)

	result, err := svc.ProcessTurn(context.Background(), "t1", "second question")
	require.NoError(t, err)

	assert.Len(t, result.State.Messages, 4)
	assert.Equal(t, "first question", result.State.Messages[0].Content)
}

func TestProcessTurn_ThreadsAreIsolated(t *testing.T) {
	svc, _ := newTestService(
		clearAnalysisJSON, "Answer one.",
		clearAnalysisJSON, "Answer two.",
	)

	_, err := svc.ProcessTurn(context.Background(), "t1", "hello")
	require.NoError(t, err)

	result, err := svc.ProcessTurn(context.Background(), "t2", "hi")
	require.NoError(t, err)

	assert.Len(t, result.State.Messages, 2)
}

func TestProcessTurn_SummarizeTriggeredOverThreshold(t *testing.T) {
	svc, stub := newTestService(clearAnalysisJSON, "Short answer.", summaryJSON)

	longLine := strings.Repeat("lorem ipsum dolor sit amet consectetur ", 12)
	var preloaded []schema.Message
	for i := 0; i < 20; i++ {
		role := schema.RoleUser
		if i%2 == 1 {
			role = schema.RoleAssistant
		}
		preloaded = append(preloaded, schema.Message{Role: role, Content: fmt.Sprintf("%d %s", i, longLine)})
	}

	state, err := svc.LoadConversation("t1", preloaded)
	require.NoError(t, err)
	require.Greater(t, state.TokenCount, TokenThreshold, "fixture must exceed the threshold")

	result, err := svc.ProcessTurn(context.Background(), "t1", "and one more thing")
	require.NoError(t, err)

	assert.Equal(t, 3, stub.callCount(), "analyze, answer, summarize")
	assert.Len(t, result.State.Messages, keepRecent)
	assert.Equal(t, []string{"Budget is $3000"}, result.State.Summary.KeyFacts)

	// 20 preloaded + user turn + answer = 22 total, 17 archived.
	assert.Equal(t, 17, result.State.BaseIndex)
	assert.Equal(t, 0, result.State.Summary.MessageRangeSummarized.From)
	assert.Equal(t, 17, result.State.Summary.MessageRangeSummarized.To)
	assert.Equal(t, 22, result.State.TotalMessages())
}

func TestProcessTurn_ClarifyNeverSummarizes(t *testing.T) {
	svc, stub := newTestService(ambiguousAnalysisJSON)

	longLine := strings.Repeat("words and more words about the trip planning ", 20)
	var preloaded []schema.Message
	for i := 0; i < 20; i++ {
		preloaded = append(preloaded, schema.UserMessage(longLine))
	}

	state, err := svc.LoadConversation("t1", preloaded)
	require.NoError(t, err)
	require.Greater(t, state.TokenCount, TokenThreshold)

	result, err := svc.ProcessTurn(context.Background(), "t1", "what about that?")
	require.NoError(t, err)

	assert.Equal(t, 1, stub.callCount())
	assert.Len(t, result.State.Messages, 22, "clarify must not prune the log")
}

func TestReset_DropsThreadState(t *testing.T) {
	svc, _ := newTestService(clearAnalysisJSON, "Answer.")

	_, err := svc.ProcessTurn(context.Background(), "t1", "hello")
	require.NoError(t, err)

	require.NoError(t, svc.Reset("t1"))

	state, err := svc.StateOf("t1")
	require.NoError(t, err)
	assert.Empty(t, state.Messages)
}
