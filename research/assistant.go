package research

import (
	"context"
	"strings"
	"time"

	"github.com/smallnest/stockresearch/graph"
	"github.com/smallnest/stockresearch/log"
	"github.com/smallnest/stockresearch/store"
	"github.com/tmc/langchaingo/llms"
)

// Config tunes an Assistant. Start from DefaultConfig.
type Config struct {
	// MaxHistoryTurns bounds the prior user turns given to the synthesizer.
	// Non-positive values pass the whole history.
	MaxHistoryTurns int

	// ClassifierHistory is the number of most recent messages shown to the classifier.
	ClassifierHistory int

	// MaxDocumentChars truncates each retrieved document. Zero keeps documents whole.
	MaxDocumentChars int

	// TolerateRetrievalErrors turns a failing retrieval source into an empty Context
	// entry instead of failing the turn.
	TolerateRetrievalErrors bool
}

// DefaultConfig returns the default assistant configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistoryTurns:   10,
		ClassifierHistory: 4,
	}
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithClassifier replaces the model-backed classifier.
func WithClassifier(c Classifier) Option {
	return func(a *Assistant) {
		a.classifier = c
	}
}

// WithLogger sets the logger. The package default logger is used otherwise.
func WithLogger(l log.Logger) Option {
	return func(a *Assistant) {
		a.logger = l
	}
}

// WithClock sets the clock used for the current date in directives.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		a.now = now
	}
}

// WithCallOptions sets options passed to every answer generation call.
func WithCallOptions(opts ...llms.CallOption) Option {
	return func(a *Assistant) {
		a.callOpts = append(a.callOpts, opts...)
	}
}

// Assistant answers market questions within sessions. It is safe for concurrent use;
// turns on the same session are serialized.
type Assistant struct {
	classifier Classifier
	web        Retriever
	knowledge  Retriever
	synth      *Synthesizer
	sessions   store.SessionStore
	locks      *store.Locker
	runnable   *graph.StateRunnable[TurnState]
	logger     log.Logger
	now        func() time.Time
	callOpts   []llms.CallOption
	cfg        Config
}

// NewAssistant wires the research workflow. model generates answers and, unless
// WithClassifier is given, classifies questions.
func NewAssistant(model llms.Model, web, knowledge Retriever, sessions store.SessionStore, cfg Config, opts ...Option) (*Assistant, error) {
	a := &Assistant{
		web:       web,
		knowledge: knowledge,
		sessions:  sessions,
		locks:     store.NewLocker(),
		logger:    log.GetDefaultLogger(),
		now:       time.Now,
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.classifier == nil {
		a.classifier = NewLLMClassifier(model)
	}
	if a.cfg.ClassifierHistory < 0 {
		a.cfg.ClassifierHistory = 0
	}
	a.synth = NewSynthesizer(model, a.now, a.callOpts...)

	runnable, err := a.buildWorkflow()
	if err != nil {
		return nil, err
	}
	a.runnable = runnable
	return a, nil
}

// RunTurn answers one question and returns the complete result.
func (a *Assistant) RunTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}

	state, err := a.execute(ctx, req)
	if err != nil {
		a.logger.Error("turn failed for session %s: %v", req.SessionID, err)
		return nil, err
	}

	answer := state.Generation.Text()
	return &TurnResult{
		Question:    req.Question,
		Answer:      answer,
		NeedsSearch: state.NeedsSearch,
		Sources:     ExtractSources(answer),
		Context:     state.Context,
	}, nil
}

// RunTurnStreaming answers one question incrementally. An empty question is rejected
// before anything runs. Otherwise the returned channel carries one metadata event, a
// status event per workflow state entered, the answer fragments and a final complete
// event, or an error event in place of the remainder. The channel is closed afterwards.
//
// Callers must either drain the channel or cancel ctx. A consumer that stops reading
// without cancelling leaves the producing goroutine blocked.
func (a *Assistant) RunTurnStreaming(ctx context.Context, req TurnRequest) (<-chan Event, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}

	events := make(chan Event, 16)
	send := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	// finish delivers the final event. Once ctx is done it is still queued when the
	// buffer has room, so the stream ends with complete or error.
	finish := func(ev Event) {
		if send(ev) {
			return
		}
		select {
		case events <- ev:
		default:
		}
	}

	listener := graph.NodeListenerFunc[TurnState](func(ctx context.Context, event graph.NodeEvent, node string, s TurnState, _ error) {
		switch {
		case event == graph.NodeEventComplete && node == NodeClassify:
			send(Event{Type: EventMetadata, NeedsSearch: s.NeedsSearch})
		case event == graph.NodeEventStart && node == NodeRetrieveWeb:
			send(Event{Type: EventStatus, Status: StatusFetchingWeb})
		case event == graph.NodeEventStart && node == NodeRetrieveKnowledge:
			send(Event{Type: EventStatus, Status: StatusFetchingKnowledge})
		case event == graph.NodeEventStart && node == NodeSynthesize:
			send(Event{Type: EventStatus, Status: StatusGenerating})
		}
	})

	go func() {
		defer close(events)

		state, err := a.execute(ctx, req, listener)
		if err != nil {
			a.logger.Error("streaming turn failed for session %s: %v", req.SessionID, err)
			finish(Event{Type: EventError, Content: err.Error(), Err: err})
			return
		}

		for chunk := range state.Generation.Chunks() {
			if !send(Event{Type: EventContent, Content: chunk}) {
				err := ctx.Err()
				finish(Event{Type: EventError, Content: err.Error(), Err: err})
				return
			}
		}
		finish(Event{Type: EventComplete, Sources: ExtractSources(state.Generation.Text())})
	}()

	return events, nil
}

// execute runs the workflow while holding the session lock. History is loaded and the
// turn appended under the lock, so a turn sees every earlier turn of its session.
func (a *Assistant) execute(ctx context.Context, req TurnRequest, listeners ...graph.NodeListener[TurnState]) (TurnState, error) {
	unlock := a.locks.Lock(req.SessionID)
	defer unlock()

	start := time.Now()
	a.logger.Debug("turn started for session %s: %q", req.SessionID, req.Question)

	sess, err := a.sessions.Load(ctx, req.SessionID)
	if err != nil {
		return TurnState{}, &PersistenceError{Op: "load", SessionID: req.SessionID, Err: err}
	}

	state, err := a.runnable.InvokeWithListeners(ctx, TurnState{
		Question:  req.Question,
		SessionID: req.SessionID,
		History:   sess.Messages,
	}, listeners...)
	if err != nil {
		return TurnState{}, err
	}

	a.logger.Info("turn completed for session %s (needs_search=%t, %d context blocks, %d fragments) in %v",
		req.SessionID, state.NeedsSearch, len(state.Context), state.Generation.Len(), time.Since(start))
	return state, nil
}

// Sessions returns the session store the assistant writes to.
func (a *Assistant) Sessions() store.SessionStore {
	return a.sessions
}

func normalize(req TurnRequest) (TurnRequest, error) {
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return req, ErrInvalidInput
	}
	if req.SessionID == "" {
		req.SessionID = DefaultSessionID
	}
	return req, nil
}
