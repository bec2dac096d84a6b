package research

// DefaultSessionID is used when a request carries no session id.
const DefaultSessionID = "stock_session"

// TurnRequest is one question asked within a session.
type TurnRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// Document is one retrieved item. Source is the URL or citation it came from.
type Document struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Title   string `json:"title,omitempty"`
	Page    string `json:"page,omitempty"`
}

// TurnResult is the outcome of a completed turn.
type TurnResult struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	NeedsSearch bool     `json:"needs_search"`
	Sources     []string `json:"sources_used"`

	// Context holds the formatted retrieval blocks the answer was generated from.
	// It is never written to the session store.
	Context []string `json:"-"`
}

// EventType identifies the kind of a streaming event.
type EventType string

const (
	EventMetadata EventType = "metadata"
	EventStatus   EventType = "status"
	EventContent  EventType = "content"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one item on the channel returned by RunTurnStreaming.
type Event struct {
	Type        EventType `json:"type"`
	NeedsSearch bool      `json:"needs_search,omitempty"`
	Status      string    `json:"status,omitempty"`
	Content     string    `json:"content,omitempty"`
	Sources     []string  `json:"sources,omitempty"`
	Err         error     `json:"-"`
}

// Status messages emitted when the workflow enters a state.
const (
	StatusFetchingWeb       = "Fetching live market data..."
	StatusFetchingKnowledge = "Searching additional sources..."
	StatusGenerating        = "Generating..."
)
