package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/smallnest/stockresearch/research"
)

// TavilySearch retrieves recent market documents from the Tavily search API.
type TavilySearch struct {
	APIKey      string
	BaseURL     string
	MaxResults  int
	SearchDepth string
	Client      *http.Client
	Now         func() time.Time
}

type TavilyOption func(*TavilySearch)

// WithTavilyBaseURL sets the endpoint of the Tavily API.
func WithTavilyBaseURL(baseURL string) TavilyOption {
	return func(t *TavilySearch) {
		t.BaseURL = baseURL
	}
}

// WithTavilyMaxResults sets the number of results to return.
func WithTavilyMaxResults(n int) TavilyOption {
	return func(t *TavilySearch) {
		if n > 0 {
			t.MaxResults = n
		}
	}
}

// WithTavilyHTTPClient sets the HTTP client used for requests.
func WithTavilyHTTPClient(c *http.Client) TavilyOption {
	return func(t *TavilySearch) {
		t.Client = c
	}
}

// WithTavilyClock sets the clock used to compute the 72 hour window.
func WithTavilyClock(now func() time.Time) TavilyOption {
	return func(t *TavilySearch) {
		t.Now = now
	}
}

// NewTavilySearch creates a new TavilySearch retriever.
// If apiKey is empty, it tries to read from TAVILY_API_KEY environment variable.
func NewTavilySearch(apiKey string, opts ...TavilyOption) (*TavilySearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set")
	}

	t := &TavilySearch{
		APIKey:      apiKey,
		BaseURL:     "https://api.tavily.com/search",
		MaxResults:  6,
		SearchDepth: "basic",
		Client:      &http.Client{Timeout: 30 * time.Second},
		Now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

var _ research.Retriever = (*TavilySearch)(nil)

// Name returns the name of the retriever.
func (t *TavilySearch) Name() string {
	return "tavily"
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Retrieve searches for the question within the last 72 hours.
func (t *TavilySearch) Retrieve(ctx context.Context, question string) ([]research.Document, error) {
	body, err := json.Marshal(map[string]any{
		"query":        MarketQuery(question, t.Now()),
		"api_key":      t.APIKey,
		"search_depth": t.SearchDepth,
		"max_results":  t.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := doWithRetry(ctx, t.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api returned status: %d", resp.StatusCode)
	}

	var result tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	docs := make([]research.Document, 0, len(result.Results))
	for _, r := range result.Results {
		if len(docs) == t.MaxResults {
			break
		}
		docs = append(docs, research.Document{
			Content: stripHTML(r.Content),
			Source:  r.URL,
			Title:   stripHTML(r.Title),
		})
	}
	return docs, nil
}
