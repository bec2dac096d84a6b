package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/smallnest/stockresearch/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	Count int
	Path  []string
}

func step(name string) func(ctx context.Context, s counterState) (counterState, error) {
	return func(ctx context.Context, s counterState) (counterState, error) {
		s.Count++
		s.Path = append(append([]string{}, s.Path...), name)
		return s, nil
	}
}

func TestStateGraph_LinearRun(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("a", "first", step("a"))
	g.AddNode("b", "second", step("b"))
	g.AddEdge("a", "b")
	g.AddEdge("b", graph.END)
	g.SetEntryPoint("a")

	app, err := g.Compile()
	require.NoError(t, err)

	out, err := app.Invoke(context.Background(), counterState{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, []string{"a", "b"}, out.Path)
}

func TestStateGraph_CompileErrors(t *testing.T) {
	noop := func(ctx context.Context, s counterState) (counterState, error) { return s, nil }

	tests := []struct {
		name  string
		build func() *graph.StateGraph[counterState]
		want  error
	}{
		{
			name: "missing entry point",
			build: func() *graph.StateGraph[counterState] {
				g := graph.NewStateGraph[counterState]()
				g.AddNode("a", "", noop)
				g.AddEdge("a", graph.END)
				return g
			},
			want: graph.ErrEntryPointNotSet,
		},
		{
			name: "unknown entry point",
			build: func() *graph.StateGraph[counterState] {
				g := graph.NewStateGraph[counterState]()
				g.SetEntryPoint("ghost")
				return g
			},
			want: graph.ErrNodeNotFound,
		},
		{
			name: "edge to unknown node",
			build: func() *graph.StateGraph[counterState] {
				g := graph.NewStateGraph[counterState]()
				g.AddNode("a", "", noop)
				g.AddEdge("a", "b")
				g.SetEntryPoint("a")
				return g
			},
			want: graph.ErrNodeNotFound,
		},
		{
			name: "dead end",
			build: func() *graph.StateGraph[counterState] {
				g := graph.NewStateGraph[counterState]()
				g.AddNode("a", "", noop)
				g.SetEntryPoint("a")
				return g
			},
			want: graph.ErrNoOutgoingEdge,
		},
		{
			name: "fan out",
			build: func() *graph.StateGraph[counterState] {
				g := graph.NewStateGraph[counterState]()
				g.AddNode("a", "", noop)
				g.AddNode("b", "", noop)
				g.AddEdge("a", "b")
				g.AddEdge("a", graph.END)
				g.AddEdge("b", graph.END)
				g.SetEntryPoint("a")
				return g
			},
			want: graph.ErrAmbiguousEdge,
		},
		{
			name: "static and conditional",
			build: func() *graph.StateGraph[counterState] {
				g := graph.NewStateGraph[counterState]()
				g.AddNode("a", "", noop)
				g.AddEdge("a", graph.END)
				g.AddConditionalEdge("a", func(ctx context.Context, s counterState) string { return graph.END })
				g.SetEntryPoint("a")
				return g
			},
			want: graph.ErrAmbiguousEdge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Compile()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStateGraph_NodeErrorIsWrapped(t *testing.T) {
	sentinel := errors.New("upstream down")

	g := graph.NewStateGraph[counterState]()
	g.AddNode("a", "", step("a"))
	g.AddNode("b", "", func(ctx context.Context, s counterState) (counterState, error) {
		return s, sentinel
	})
	g.AddEdge("a", "b")
	g.AddEdge("b", graph.END)
	g.SetEntryPoint("a")

	app, err := g.Compile()
	require.NoError(t, err)

	_, err = app.Invoke(context.Background(), counterState{})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)

	var nodeErr *graph.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "b", nodeErr.Node)
	assert.Equal(t, "error in node b: upstream down", err.Error())
}

func TestStateGraph_PanicBecomesError(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("a", "", func(ctx context.Context, s counterState) (counterState, error) {
		panic("kaboom")
	})
	g.AddEdge("a", graph.END)
	g.SetEntryPoint("a")

	app, err := g.Compile()
	require.NoError(t, err)

	_, err = app.Invoke(context.Background(), counterState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestStateGraph_StepLimit(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("loop", "", step("loop"))
	g.AddConditionalEdge("loop", func(ctx context.Context, s counterState) string { return "loop" })
	g.SetEntryPoint("loop")
	g.SetStepLimit(5)

	app, err := g.Compile()
	require.NoError(t, err)

	_, err = app.Invoke(context.Background(), counterState{})
	assert.ErrorIs(t, err, graph.ErrStepLimit)
}

func TestStateGraph_CancelledContext(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("a", "", step("a"))
	g.AddEdge("a", graph.END)
	g.SetEntryPoint("a")

	app, err := g.Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = app.Invoke(ctx, counterState{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateGraph_ListenersSeeOrderedEvents(t *testing.T) {
	g := graph.NewStateGraph[counterState]()
	g.AddNode("a", "", step("a"))
	g.AddNode("b", "", func(ctx context.Context, s counterState) (counterState, error) {
		return s, errors.New("nope")
	})
	g.AddEdge("a", "b")
	g.AddEdge("b", graph.END)
	g.SetEntryPoint("a")

	app, err := g.Compile()
	require.NoError(t, err)

	var seen []string
	listener := graph.NodeListenerFunc[counterState](func(ctx context.Context, event graph.NodeEvent, node string, s counterState, err error) {
		seen = append(seen, node+":"+string(event))
	})
	panicky := graph.NodeListenerFunc[counterState](func(ctx context.Context, event graph.NodeEvent, node string, s counterState, err error) {
		panic("listener bug")
	})

	_, err = app.InvokeWithListeners(context.Background(), counterState{}, panicky, listener)
	require.Error(t, err)
	assert.Equal(t, []string{"a:start", "a:complete", "b:start", "b:error"}, seen)
}
