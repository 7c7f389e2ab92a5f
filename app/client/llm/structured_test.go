package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

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

type payload struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func newTestClient(responses ...string) (*Client, *stubCompleter) {
	stub := &stubCompleter{queue: responses}
	return NewClientWithCompleter(stub, "test-model", 0.7), stub
}

func TestCompleteJSON_ValidResponse(t *testing.T) {
	client, stub := newTestClient(`{"name": "a", "items": ["x"]}`)

	result, err := CompleteJSON[payload](context.Background(), client, "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "a", result.Name)
	assert.Equal(t, []string{"x"}, result.Items)
	assert.Len(t, stub.calls, 1)
}

func TestCompleteJSON_StripsCodeFences(t *testing.T) {
	client, _ := newTestClient("```json\n{\"name\": \"a\", \"items\": []}\n```")

	result, err := CompleteJSON[payload](context.Background(), client, "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "a", result.Name)
}

func TestCompleteJSON_RepairsMalformedJSON(t *testing.T) {
	// Single quotes and a trailing comma, the classic LLM output.
	client, stub := newTestClient(`{'name': 'a', 'items': ['x', 'y'],}`)

	result, err := CompleteJSON[payload](context.Background(), client, "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "a", result.Name)
	assert.Equal(t, []string{"x", "y"}, result.Items)
	assert.Len(t, stub.calls, 1, "repair must not burn an attempt")
}

func TestCompleteJSON_RetriesOnGarbage(t *testing.T) {
	client, stub := newTestClient(
		`[1, 2, 3]`,
		`{"name": "second", "items": []}`,
	)

	result, err := CompleteJSON[payload](context.Background(), client, "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "second", result.Name)
	assert.Len(t, stub.calls, 2)
}

func TestCompleteJSON_GivesUpAfterMaxAttempts(t *testing.T) {
	client, stub := newTestClient(`[]`, `[]`, `[]`, `[]`)

	_, err := CompleteJSON[payload](context.Background(), client, "system", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Len(t, stub.calls, 3)
}

func TestCompleteJSON_UsesJSONResponseFormat(t *testing.T) {
	client, stub := newTestClient(`{"name": "a", "items": []}`)

	_, err := CompleteJSON[payload](context.Background(), client, "system prompt", "user prompt")
	require.NoError(t, err)

	req := stub.calls[0]
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
	assert.Equal(t, "system prompt", req.Messages[0].Content)
	assert.Equal(t, "user prompt", req.Messages[1].Content)
}

func TestComplete_FreeText(t *testing.T) {
	client, stub := newTestClient("  hello there  ")

	result, err := client.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "hello there", result)
	assert.Nil(t, stub.calls[0].ResponseFormat)
}
