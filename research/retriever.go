package research

import "context"

// Retriever fetches documents relevant to a question from one source.
type Retriever interface {
	// Name identifies the source in errors and logs.
	Name() string

	// Retrieve returns the documents for the question, best match first.
	Retrieve(ctx context.Context, question string) ([]Document, error)
}

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc struct {
	SourceName string
	Fn         func(ctx context.Context, question string) ([]Document, error)
}

// Name implements Retriever.
func (r RetrieverFunc) Name() string { return r.SourceName }

// Retrieve implements Retriever.
func (r RetrieverFunc) Retrieve(ctx context.Context, question string) ([]Document, error) {
	return r.Fn(ctx, question)
}
