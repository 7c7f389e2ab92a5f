// Package replay drives a bundled example conversation through the
// workflow from the command line, for demos and debugging.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"memochat/app/schema"
	"memochat/app/service/fixtures"
	"memochat/app/service/workflow"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/google/uuid"
	"github.com/samber/do"
)

type Service struct {
	fixturesSvc *fixtures.Service
	workflowSvc *workflow.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		fixturesSvc: do.MustInvoke[*fixtures.Service](di),
		workflowSvc: do.MustInvoke[*workflow.Service](di),
	}, nil
}

// Run feeds every user message of the named example through the
// workflow in order and logs each reply and the final summary.
func (s *Service) Run(ctx context.Context, name string) error {
	conversation, ok := s.fixturesSvc.Get(name)
	if !ok {
		return fmt.Errorf("unknown example %q, available: %v", name, s.fixturesSvc.Names())
	}

	userMessages := pie.Filter(conversation.Messages, func(m schema.Message) bool {
		return m.Role == schema.RoleUser
	})

	threadID := "replay-" + uuid.NewString()

	slog.Info("Replaying conversation",
		"example", name,
		"thread", threadID,
		"turns", len(userMessages))

	for i, msg := range userMessages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()

		result, err := s.workflowSvc.ProcessTurn(ctx, threadID, msg.Content)
		if err != nil {
			return fmt.Errorf("turn %d failed: %w", i+1, err)
		}

		slog.Info("Turn replayed",
			"turn", i+1,
			"user", msg.Content,
			"reply", result.Reply.Content,
			"token_count", result.State.TokenCount,
			"duration", time.Since(start))
	}

	state, err := s.workflowSvc.StateOf(threadID)
	if err != nil {
		return fmt.Errorf("failed to read final state: %w", err)
	}

	slog.Info("Replay finished",
		"retained_messages", len(state.Messages),
		"summarized_to", state.Summary.MessageRangeSummarized.To,
		"key_facts", state.Summary.KeyFacts,
		"decisions", state.Summary.Decisions)

	return nil
}
