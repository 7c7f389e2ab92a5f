package graph

import (
	"context"
	"fmt"
)

// maxSteps guards against routers that never reach END.
const maxSteps = 100

// Compiled is the immutable executable form of a Graph.
// Safe for concurrent Run calls.
type Compiled[S any] struct {
	nodes       map[string]NodeFunc[S]
	edges       map[string]string
	conditional map[string]RouterFunc[S]
	entry       string
}

// Run executes the graph from the entry node until END.
// On error the state at the point of failure is returned alongside it.
func (c *Compiled[S]) Run(ctx context.Context, state S) (S, error) {
	current := c.entry

	for steps := 0; current != END; steps++ {
		if steps >= maxSteps {
			return state, fmt.Errorf("graph: exceeded %d steps without reaching END, last node %q", maxSteps, current)
		}

		if err := ctx.Err(); err != nil {
			return state, fmt.Errorf("graph: cancelled before node %q: %w", current, err)
		}

		fn, ok := c.nodes[current]
		if !ok {
			return state, fmt.Errorf("graph: unknown node %q", current)
		}

		var err error
		state, err = fn(ctx, state)
		if err != nil {
			return state, fmt.Errorf("graph: node %q: %w", current, err)
		}

		next, err := c.next(ctx, current, state)
		if err != nil {
			return state, err
		}
		current = next
	}

	return state, nil
}

func (c *Compiled[S]) next(ctx context.Context, current string, state S) (string, error) {
	if router, ok := c.conditional[current]; ok {
		next := router(ctx, state)
		if next == "" {
			return "", fmt.Errorf("graph: router of %q returned empty target", current)
		}
		if next != END {
			if _, ok := c.nodes[next]; !ok {
				return "", fmt.Errorf("graph: router of %q returned unknown node %q", current, next)
			}
		}

		return next, nil
	}

	if next, ok := c.edges[current]; ok {
		return next, nil
	}

	return "", fmt.Errorf("graph: node %q has no outgoing edge", current)
}
