package graph

import "context"

// NodeEvent represents the lifecycle stage of a node execution
type NodeEvent string

const (
	// NodeEventStart fires before the node function runs.
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete fires after the node's update has been merged into the state.
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError fires when the node function fails.
	NodeEventError NodeEvent = "error"
)

// NodeListener observes node execution. Listeners are called synchronously, in
// registration order, on the goroutine running the graph.
type NodeListener[S any] interface {
	OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc[S any] func(ctx context.Context, event NodeEvent, nodeName string, state S, err error)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc[S]) OnNodeEvent(ctx context.Context, event NodeEvent, nodeName string, state S, err error) {
	f(ctx, event, nodeName, state, err)
}

func notifyListeners[S any](ctx context.Context, listeners []NodeListener[S], event NodeEvent, nodeName string, state S, err error) {
	for _, l := range listeners {
		func() {
			// a misbehaving listener must not take the run down
			defer func() { _ = recover() }()
			l.OnNodeEvent(ctx, event, nodeName, state, err)
		}()
	}
}
