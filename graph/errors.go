package graph

import "fmt"

// NodeError wraps a failure raised by a node function.
type NodeError struct {
	// Node is the name of the node that failed
	Node string
	// Err is the error the node returned
	Err error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("error in node %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
