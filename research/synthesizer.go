package research

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smallnest/stockresearch/store"
	"github.com/tmc/langchaingo/llms"
)

// Generation is the materialized output of one model call. The fragments are captured
// once and then offered twice: Text joins them, Chunks replays them one at a time.
type Generation struct {
	// Directive is the system message built for a search-path turn. It is empty on the
	// no-search path.
	Directive string

	fragments []string
	consumed  atomic.Bool
}

// NewGeneration wraps already materialized fragments. Empty fragments are dropped.
func NewGeneration(directive string, fragments []string) *Generation {
	g := &Generation{Directive: directive}
	for _, f := range fragments {
		if f != "" {
			g.fragments = append(g.fragments, f)
		}
	}
	return g
}

// Text returns the complete answer.
func (g *Generation) Text() string {
	return strings.Join(g.fragments, "")
}

// Chunks returns a single-pass iterator over the answer fragments in generation order.
// Only the first iteration yields anything.
func (g *Generation) Chunks() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !g.consumed.CompareAndSwap(false, true) {
			return
		}
		for _, f := range g.fragments {
			if !yield(f) {
				return
			}
		}
	}
}

// Len returns the number of fragments.
func (g *Generation) Len() int {
	return len(g.fragments)
}

// SynthesisInput is everything the synthesizer needs for one turn.
type SynthesisInput struct {
	Question    string
	Context     []string
	NeedsSearch bool
	History     []store.Message
}

// Synthesizer generates answers with a chat model.
type Synthesizer struct {
	model llms.Model
	now   func() time.Time
	opts  []llms.CallOption
}

// NewSynthesizer creates a synthesizer. callOpts are passed to every generation call.
func NewSynthesizer(model llms.Model, now func() time.Time, callOpts ...llms.CallOption) *Synthesizer {
	if now == nil {
		now = time.Now
	}
	return &Synthesizer{model: model, now: now, opts: callOpts}
}

// Generate builds the model input for the question type and makes exactly one call.
//
// On the search path the input is the history, then a directive embedding the context
// and the current date, then the question. On the no-search path the directive comes
// first and the history follows it. Directives stored by earlier turns are left out.
func (s *Synthesizer) Generate(ctx context.Context, in SynthesisInput) (*Generation, error) {
	var (
		directive string
		messages  []llms.MessageContent
	)
	question := llms.TextParts(llms.ChatMessageTypeHuman, in.Question)
	history := conversation(in.History)

	if in.NeedsSearch {
		directive = searchDirective(in.Context, in.Question, s.now())
		messages = append(history,
			llms.TextParts(llms.ChatMessageTypeSystem, directive),
			question,
		)
	} else {
		messages = append([]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, chatDirective(in.Question))},
			history...)
		messages = append(messages, question)
	}

	var (
		mu        sync.Mutex
		fragments []string
	)
	streamingFunc := func(ctx context.Context, chunk []byte) error {
		mu.Lock()
		fragments = append(fragments, string(chunk))
		mu.Unlock()
		return nil
	}

	opts := append([]llms.CallOption{llms.WithStreamingFunc(streamingFunc)}, s.opts...)
	resp, err := s.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(fragments) == 0 {
		// provider did not stream
		if resp == nil || len(resp.Choices) == 0 {
			return nil, &GenerationError{Err: errors.New("model returned no choices")}
		}
		fragments = []string{resp.Choices[0].Content}
	}
	return NewGeneration(directive, fragments), nil
}
