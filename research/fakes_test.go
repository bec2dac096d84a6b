package research

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/smallnest/stockresearch/store"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel streams fixed fragments and records every call.
type scriptedModel struct {
	mu        sync.Mutex
	fragments []string
	noStream  bool
	err       error
	calls     [][]llms.MessageContent
	jsonMode  []bool
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	m.mu.Lock()
	m.calls = append(m.calls, messages)
	m.jsonMode = append(m.jsonMode, opts.JSONMode)
	fragments, err, noStream := m.fragments, m.err, m.noStream
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if opts.StreamingFunc != nil && !noStream {
		for _, f := range fragments {
			if err := opts.StreamingFunc(ctx, []byte(f)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: strings.Join(fragments, "")}},
	}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *scriptedModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *scriptedModel) lastCall() []llms.MessageContent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

func textOf(mc llms.MessageContent) string {
	var sb strings.Builder
	for _, p := range mc.Parts {
		if tc, ok := p.(llms.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

// fakeRetriever returns fixed documents and counts calls.
type fakeRetriever struct {
	name  string
	docs  []Document
	err   error
	calls atomic.Int32

	// started, when set, is closed on the first call, which then waits for ctx.
	started chan struct{}
}

func (r *fakeRetriever) Name() string { return r.name }

func (r *fakeRetriever) Retrieve(ctx context.Context, question string) ([]Document, error) {
	if r.calls.Add(1) == 1 && r.started != nil {
		close(r.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.docs, nil
}

// fixedClassifier always answers the same and counts calls.
type fixedClassifier struct {
	needsSearch bool
	err         error
	calls       atomic.Int32
	recent      [][]store.Message
	mu          sync.Mutex
}

func (c *fixedClassifier) Classify(ctx context.Context, question string, recent []store.Message) (bool, error) {
	c.calls.Add(1)
	c.mu.Lock()
	c.recent = append(c.recent, recent)
	c.mu.Unlock()
	return c.needsSearch, c.err
}

// failingStore fails every operation after Load.
type failingStore struct {
	store.SessionStore
	appendErr error
	loadErr   error
}

func (s *failingStore) Load(ctx context.Context, id string) (*store.Session, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.SessionStore.Load(ctx, id)
}

func (s *failingStore) Append(ctx context.Context, id string, msgs ...store.Message) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	return s.SessionStore.Append(ctx, id, msgs...)
}

var errBoom = errors.New("boom")

func webDocs() []Document {
	return []Document{
		{Content: "AAPL closed at $201.50", Source: "https://finance.example.com/aapl", Title: "AAPL quote"},
		{Content: "Apple shares rose after earnings", Source: "https://news.example.com/apple-earnings", Title: "Apple news"},
	}
}

func knowledgeDocs() []Document {
	return []Document{
		{Content: "Apple Inc. is an American technology company.", Source: "https://en.wikipedia.org/wiki/Apple_Inc.", Title: "Apple Inc.", Page: "Apple Inc."},
	}
}
