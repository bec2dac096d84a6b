package graph

import (
	"context"
	"fmt"
)

// StateGraph is a typed, directed workflow. The type parameter S is the state, usually a
// struct. Nodes return an update that the schema merges into the state; without a
// schema the update replaces the state.
//
// Example usage:
//
//	g := graph.NewStateGraph[MyState]()
//	g.AddNode("check", "Classify input", check)
//	g.AddNode("answer", "Answer", answer)
//	g.AddConditionalEdge("check", route)
//	g.AddEdge("answer", graph.END)
//	g.SetEntryPoint("check")
//	app, err := g.Compile()
type StateGraph[S any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node[S]

	// edges holds the static connections, in insertion order
	edges []Edge

	// conditionalEdges maps a "From" node to the function that picks its successor
	conditionalEdges map[string]Condition[S]

	// entryPoint is the name of the entry point node in the graph
	entryPoint string

	// stepLimit bounds the number of node executions per run
	stepLimit int

	// Schema defines the state structure and update logic
	Schema StateSchema[S]
}

// NewStateGraph creates a new instance of StateGraph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		conditionalEdges: make(map[string]Condition[S]),
		stepLimit:        DefaultStepLimit,
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
func (g *StateGraph[S]) AddNode(name string, description string, fn func(ctx context.Context, state S) (S, error)) {
	g.nodes[name] = Node[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a new edge to the state graph between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// AddConditionalEdge adds an edge whose target is chosen at runtime from the merged state.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition Condition[S]) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// SetSchema sets the state schema for the graph.
func (g *StateGraph[S]) SetSchema(schema StateSchema[S]) {
	g.Schema = schema
}

// SetStepLimit overrides DefaultStepLimit. Values below one are ignored.
func (g *StateGraph[S]) SetStepLimit(limit int) {
	if limit > 0 {
		g.stepLimit = limit
	}
}

// Compile validates the graph and returns a StateRunnable.
func (g *StateGraph[S]) Compile() (*StateRunnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %s", ErrNodeNotFound, g.entryPoint)
	}

	static := make(map[string]string, len(g.edges))
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrNodeNotFound, e.From)
		}
		if _, ok := g.nodes[e.To]; !ok && e.To != END {
			return nil, fmt.Errorf("%w: edge target %s", ErrNodeNotFound, e.To)
		}
		if _, dup := static[e.From]; dup {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousEdge, e.From)
		}
		static[e.From] = e.To
	}

	for from := range g.conditionalEdges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: conditional edge source %s", ErrNodeNotFound, from)
		}
		if _, ok := static[from]; ok {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousEdge, from)
		}
	}

	for name := range g.nodes {
		_, hasStatic := static[name]
		_, hasConditional := g.conditionalEdges[name]
		if !hasStatic && !hasConditional {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}

	return &StateRunnable[S]{
		graph: g,
		next:  static,
	}, nil
}

// StateRunnable is a compiled state graph. It is safe for concurrent use: every
// invocation keeps its own state.
type StateRunnable[S any] struct {
	graph *StateGraph[S]
	next  map[string]string
}

// Invoke runs the graph from its entry point until END.
func (r *StateRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	return r.InvokeWithListeners(ctx, initialState)
}

// InvokeWithListeners runs the graph and reports every node start, completion and
// failure to the given listeners.
func (r *StateRunnable[S]) InvokeWithListeners(ctx context.Context, initialState S, listeners ...NodeListener[S]) (S, error) {
	var zero S
	state := initialState

	if r.graph.Schema != nil {
		var err error
		state, err = r.graph.Schema.Update(r.graph.Schema.Init(), initialState)
		if err != nil {
			return zero, fmt.Errorf("failed to initialize state with schema: %w", err)
		}
	}

	current := r.graph.entryPoint
	for step := 0; current != END; step++ {
		if step >= r.graph.stepLimit {
			return zero, fmt.Errorf("%w: %d steps, last node %s", ErrStepLimit, step, current)
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return zero, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		notifyListeners(ctx, listeners, NodeEventStart, node.Name, state, nil)

		update, err := r.executeNode(ctx, node, state)
		if err != nil {
			notifyListeners(ctx, listeners, NodeEventError, node.Name, state, err)
			return zero, &NodeError{Node: node.Name, Err: err}
		}

		state, err = r.mergeState(state, update)
		if err != nil {
			return zero, err
		}

		notifyListeners(ctx, listeners, NodeEventComplete, node.Name, state, nil)

		current, err = r.nextNode(ctx, node.Name, state)
		if err != nil {
			return zero, err
		}
	}

	return state, nil
}

// executeNode runs a node function, converting panics into errors.
func (r *StateRunnable[S]) executeNode(ctx context.Context, node Node[S], state S) (result S, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in node %s: %v", node.Name, p)
		}
	}()
	return node.Function(ctx, state)
}

func (r *StateRunnable[S]) mergeState(current, update S) (S, error) {
	if r.graph.Schema == nil {
		return update, nil
	}
	merged, err := r.graph.Schema.Update(current, update)
	if err != nil {
		var zero S
		return zero, fmt.Errorf("schema update failed: %w", err)
	}
	return merged, nil
}

func (r *StateRunnable[S]) nextNode(ctx context.Context, from string, state S) (string, error) {
	if cond, ok := r.graph.conditionalEdges[from]; ok {
		next := cond(ctx, state)
		if next == "" {
			return "", fmt.Errorf("conditional edge returned empty next node from %s", from)
		}
		if _, ok := r.graph.nodes[next]; !ok && next != END {
			return "", fmt.Errorf("%w: %s (from conditional edge of %s)", ErrNodeNotFound, next, from)
		}
		return next, nil
	}
	if next, ok := r.next[from]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}
