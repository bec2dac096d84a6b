package research

import (
	"context"
	"errors"

	"github.com/smallnest/stockresearch/graph"
	"github.com/smallnest/stockresearch/store"
)

// Workflow node names.
const (
	NodeClassify          = "classify"
	NodeRetrieveWeb       = "retrieve_web"
	NodeRetrieveKnowledge = "retrieve_knowledge"
	NodeSynthesize        = "synthesize"
)

// TurnState is the graph state of one turn. Nodes return partial updates: Context
// entries are appended, every other non-zero field replaces the current value.
type TurnState struct {
	Question    string
	SessionID   string
	NeedsSearch bool
	Context     []string
	History     []store.Message
	Generation  *Generation
}

func newTurnSchema() *graph.FieldMerger[TurnState] {
	schema := graph.NewFieldMerger(TurnState{})
	schema.RegisterFieldMerge("Context", graph.AppendSliceMerge)
	return schema
}

// routeAfterClassify sends search-path turns through both retrieval sources.
func routeAfterClassify(_ context.Context, s TurnState) string {
	if s.NeedsSearch {
		return NodeRetrieveWeb
	}
	return NodeSynthesize
}

func (a *Assistant) buildWorkflow() (*graph.StateRunnable[TurnState], error) {
	g := graph.NewStateGraph[TurnState]()
	g.SetSchema(newTurnSchema())

	g.AddNode(NodeClassify, "Decide whether the question needs live data", a.classify)
	g.AddNode(NodeRetrieveWeb, "Search the web for recent market data", a.retrieveWeb)
	g.AddNode(NodeRetrieveKnowledge, "Search encyclopedic background", a.retrieveKnowledge)
	g.AddNode(NodeSynthesize, "Generate the answer and persist the turn", a.synthesize)

	g.SetEntryPoint(NodeClassify)
	g.AddConditionalEdge(NodeClassify, routeAfterClassify)
	g.AddEdge(NodeRetrieveWeb, NodeRetrieveKnowledge)
	g.AddEdge(NodeRetrieveKnowledge, NodeSynthesize)
	g.AddEdge(NodeSynthesize, graph.END)

	return g.Compile()
}

func (a *Assistant) classify(ctx context.Context, s TurnState) (TurnState, error) {
	recent := s.History
	if n := a.cfg.ClassifierHistory; len(recent) > n {
		recent = recent[len(recent)-n:]
	}

	needsSearch, err := a.classifier.Classify(ctx, s.Question, recent)
	if err != nil {
		var ce *ClassificationError
		if !errors.As(err, &ce) {
			err = &ClassificationError{Err: err}
		}
		return TurnState{}, err
	}
	return TurnState{NeedsSearch: needsSearch}, nil
}

func (a *Assistant) retrieveWeb(ctx context.Context, s TurnState) (TurnState, error) {
	docs, err := a.retrieve(ctx, a.web, s.Question)
	if err != nil {
		return TurnState{}, err
	}
	return TurnState{Context: []string{FormatWebDocuments(docs, a.cfg.MaxDocumentChars)}}, nil
}

func (a *Assistant) retrieveKnowledge(ctx context.Context, s TurnState) (TurnState, error) {
	docs, err := a.retrieve(ctx, a.knowledge, s.Question)
	if err != nil {
		return TurnState{}, err
	}
	return TurnState{Context: []string{FormatKnowledgeDocuments(docs, a.cfg.MaxDocumentChars)}}, nil
}

func (a *Assistant) retrieve(ctx context.Context, r Retriever, question string) ([]Document, error) {
	docs, err := r.Retrieve(ctx, question)
	if err == nil {
		a.logger.Debug("retrieved %d documents from %s", len(docs), r.Name())
		return docs, nil
	}
	if a.cfg.TolerateRetrievalErrors && ctx.Err() == nil {
		a.logger.Warn("retrieval from %s failed, continuing without it: %v", r.Name(), err)
		return nil, nil
	}
	return nil, &RetrievalError{Source: r.Name(), Err: err}
}

func (a *Assistant) synthesize(ctx context.Context, s TurnState) (TurnState, error) {
	gen, err := a.synth.Generate(ctx, SynthesisInput{
		Question:    s.Question,
		Context:     s.Context,
		NeedsSearch: s.NeedsSearch,
		History:     store.Window(s.History, a.cfg.MaxHistoryTurns),
	})
	if err != nil {
		return TurnState{}, err
	}

	msgs := make([]store.Message, 0, 3)
	if gen.Directive != "" {
		msgs = append(msgs, store.NewMessage(store.RoleSystem, gen.Directive))
	}
	msgs = append(msgs,
		store.NewMessage(store.RoleUser, s.Question),
		store.NewMessage(store.RoleAssistant, gen.Text()),
	)
	if err := a.sessions.Append(ctx, s.SessionID, msgs...); err != nil {
		return TurnState{}, &PersistenceError{Op: "append", SessionID: s.SessionID, Err: err}
	}
	return TurnState{Generation: gen}, nil
}
