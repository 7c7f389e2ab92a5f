package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"memochat/app/client/llm"
	"memochat/app/config"
	"memochat/app/graph"
	"memochat/app/schema"
	"memochat/app/service/session"
	"memochat/app/util/tokencount"

	"github.com/samber/do"
)

const (
	nodeAnalyze   = "analyze"
	nodeClarify   = "clarify"
	nodeAnswer    = "answer"
	nodeSummarize = "summarize"
)

// Service runs the conversation state machine: one graph execution per
// user turn, state loaded from and saved to the session store.
type Service struct {
	cfg     *config.Config
	store   session.Store
	counter *tokencount.Counter

	compiled *graph.Compiled[State]

	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	store := do.MustInvoke[session.Store](di)

	counter := tokencount.New()
	client := llm.NewClient(cfg.LLM)

	return newService(cfg, store, counter, client), nil
}

func newService(cfg *config.Config, store session.Store, counter *tokencount.Counter, client *llm.Client) *Service {
	analyzeAgent := NewAnalyzeAgent(client)
	answerAgent := NewAnswerAgent(client, counter)
	summarizeAgent := NewSummarizeAgent(client, counter)

	compiled := graph.New[State]().
		AddNode(nodeAnalyze, analyzeAgent.Node).
		AddNode(nodeClarify, clarifyNode).
		AddNode(nodeAnswer, answerAgent.Node).
		AddNode(nodeSummarize, summarizeAgent.Node).
		AddConditionalEdge(nodeAnalyze, routeAfterAnalyze).
		AddConditionalEdge(nodeAnswer, routeAfterAnswer).
		AddEdge(nodeClarify, graph.END).
		AddEdge(nodeSummarize, graph.END).
		SetEntry(nodeAnalyze).
		MustCompile()

	return &Service{
		cfg:      cfg,
		store:    store,
		counter:  counter,
		compiled: compiled,
		threads:  make(map[string]*sync.Mutex),
	}
}

// routeAfterAnalyze sends ambiguous queries to clarification, unless the
// previous turn already was one; then a best-effort answer is forced.
func routeAfterAnalyze(_ context.Context, state State) string {
	if state.Clarifications >= maxClarificationAttempts {
		return nodeAnswer
	}

	if state.Analysis.IsAmbiguous || len(state.Analysis.ClarifyingQuestions) > 0 {
		return nodeClarify
	}

	return nodeAnswer
}

func routeAfterAnswer(_ context.Context, state State) string {
	if state.TokenCount > TokenThreshold {
		return nodeSummarize
	}

	return graph.END
}

// ProcessTurn runs one user turn through the graph. Turns on the same
// thread are serialized; distinct threads do not contend.
func (s *Service) ProcessTurn(ctx context.Context, threadID, userText string) (*TurnResult, error) {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.loadState(threadID)
	if err != nil {
		return nil, err
	}

	state.Messages = append(state.Messages, schema.UserMessage(userText))
	state.TokenCount = s.counter.Count(schema.MessagesText(state.Messages))

	start := time.Now()

	state, err = s.compiled.Run(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("workflow run: %w", err)
	}

	if err = s.saveState(threadID, state); err != nil {
		return nil, err
	}

	slog.Info("Processed turn",
		"thread", threadID,
		"token_count", state.TokenCount,
		"duration", time.Since(start))

	if len(state.Messages) == 0 {
		return nil, fmt.Errorf("workflow produced no messages")
	}

	return &TurnResult{
		ThreadID: threadID,
		Reply:    state.Messages[len(state.Messages)-1],
		State:    state,
	}, nil
}

// LoadConversation replaces a thread's state with a prebuilt message log,
// without any LLM calls. Used by the example loaders.
func (s *Service) LoadConversation(threadID string, messages []schema.Message) (State, error) {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	state := NewState()
	state.Messages = append(state.Messages, messages...)
	state.TokenCount = s.counter.Count(schema.MessagesText(state.Messages))

	if err := s.saveState(threadID, state); err != nil {
		return State{}, err
	}

	return state, nil
}

// StateOf returns the stored state of a thread, a fresh one if absent.
func (s *Service) StateOf(threadID string) (State, error) {
	return s.loadState(threadID)
}

func (s *Service) Reset(threadID string) error {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	return s.store.Delete(threadID)
}

func (s *Service) threadLock(threadID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.threads[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.threads[threadID] = lock
	}

	return lock
}

func (s *Service) loadState(threadID string) (State, error) {
	snapshot, err := s.store.Get(threadID)
	if errors.Is(err, session.ErrNotFound) {
		return NewState(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to load session state: %w", err)
	}

	var state State
	if err = json.Unmarshal(snapshot, &state); err != nil {
		return State{}, fmt.Errorf("failed to decode session state: %w", err)
	}

	return state, nil
}

func (s *Service) saveState(threadID string, state State) error {
	snapshot, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	if err = s.store.Put(threadID, snapshot); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}

	return nil
}
