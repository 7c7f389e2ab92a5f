// Package graph is a small typed state-graph executor: named nodes,
// plain and conditional edges, sequential execution until END.
package graph

import (
	"context"
	"fmt"
	"strings"
)

// END is the terminal edge target.
const END = "__end__"

// NodeFunc transforms the state. State is passed and returned by value;
// nodes must not rely on pointer mutation.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// RouterFunc picks the next node for a conditional edge.
// It must return a known node ID or END.
type RouterFunc[S any] func(ctx context.Context, state S) string

// Graph is a mutable builder. Build it from a single goroutine,
// then Compile into an immutable Compiled graph.
type Graph[S any] struct {
	nodes       map[string]NodeFunc[S]
	edges       map[string]string
	conditional map[string]RouterFunc[S]
	entry       string
}

func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:       make(map[string]NodeFunc[S]),
		edges:       make(map[string]string),
		conditional: make(map[string]RouterFunc[S]),
	}
}

// AddNode registers a named node. Panics on builder misuse:
// empty, reserved or duplicate IDs, whitespace, nil funcs.
func (g *Graph[S]) AddNode(id string, fn NodeFunc[S]) *Graph[S] {
	if id == "" {
		panic("graph: node ID cannot be empty")
	}
	if strings.EqualFold(id, "end") || strings.EqualFold(id, END) {
		panic("graph: node ID cannot be the reserved word END")
	}
	if strings.ContainsAny(id, " \t\n\r") {
		panic("graph: node ID cannot contain whitespace")
	}
	if fn == nil {
		panic("graph: node function cannot be nil")
	}
	if _, exists := g.nodes[id]; exists {
		panic("graph: duplicate node ID: " + id)
	}

	g.nodes[id] = fn

	return g
}

// AddEdge adds an unconditional edge. The target may be END.
// Validation happens at Compile time.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.edges[from] = to

	return g
}

// AddConditionalEdge routes from a node through a router at runtime.
// A conditional edge replaces any plain edge from the same node.
func (g *Graph[S]) AddConditionalEdge(from string, router RouterFunc[S]) *Graph[S] {
	if router == nil {
		panic("graph: router function cannot be nil")
	}

	g.conditional[from] = router

	return g
}

// SetEntry designates the entry node.
func (g *Graph[S]) SetEntry(id string) *Graph[S] {
	g.entry = id

	return g
}

// Compile validates the graph and returns an immutable executable form.
func (g *Graph[S]) Compile() (*Compiled[S], error) {
	if g.entry == "" {
		return nil, fmt.Errorf("graph: entry point not set")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("graph: entry point %q is not a node", g.entry)
	}

	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("graph: edge from unknown node %q", from)
		}
		if to != END {
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("graph: edge %q -> unknown node %q", from, to)
			}
		}
	}

	for from := range g.conditional {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("graph: conditional edge from unknown node %q", from)
		}
	}

	nodes := make(map[string]NodeFunc[S], len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}
	edges := make(map[string]string, len(g.edges))
	for from, to := range g.edges {
		edges[from] = to
	}
	conditional := make(map[string]RouterFunc[S], len(g.conditional))
	for from, router := range g.conditional {
		conditional[from] = router
	}

	return &Compiled[S]{
		nodes:       nodes,
		edges:       edges,
		conditional: conditional,
		entry:       g.entry,
	}, nil
}

// MustCompile is Compile that panics on error, for static graphs.
func (g *Graph[S]) MustCompile() *Compiled[S] {
	compiled, err := g.Compile()
	if err != nil {
		panic(err)
	}

	return compiled
}
