// Package graph provides a small typed state-graph engine for building LLM workflows.
//
// A StateGraph[S] holds named nodes, static edges and conditional edges. Compile validates
// the wiring (entry point set, every node has exactly one way out, targets exist) and returns
// a StateRunnable that executes one node at a time from the entry point until END.
//
// # State merging
//
// Nodes return an update of type S. With a schema set, the update is merged into the current
// state; FieldMerger merges field by field and lets selected fields accumulate:
//
//	fm := graph.NewFieldMerger(TurnState{})
//	fm.RegisterFieldMerge("Context", graph.AppendSliceMerge)
//	g.SetSchema(fm)
//
// Without a schema the update replaces the state.
//
// # Listeners
//
// InvokeWithListeners reports NodeEventStart, NodeEventComplete and NodeEventError for every
// node, synchronously and in order, which is what streaming callers use to emit progress.
//
// # Errors
//
// A failing node aborts the run; the error is a *NodeError wrapping the node's error, so
// errors.As and errors.Is see through it. A run that exceeds the step limit fails with
// ErrStepLimit.
package graph
