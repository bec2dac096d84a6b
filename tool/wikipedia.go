package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/smallnest/stockresearch/research"
)

// WikipediaSearch retrieves encyclopedic background from the MediaWiki API.
type WikipediaSearch struct {
	BaseURL  string
	MaxDocs  int
	MaxChars int
	Client   *http.Client
}

type WikipediaOption func(*WikipediaSearch)

// WithWikipediaBaseURL sets the api.php endpoint.
func WithWikipediaBaseURL(baseURL string) WikipediaOption {
	return func(w *WikipediaSearch) {
		w.BaseURL = baseURL
	}
}

// WithWikipediaLanguage selects the language edition, e.g. "en" or "de".
func WithWikipediaLanguage(lang string) WikipediaOption {
	return func(w *WikipediaSearch) {
		if lang != "" {
			w.BaseURL = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang)
		}
	}
}

// WithWikipediaMaxDocs sets the number of pages to return.
func WithWikipediaMaxDocs(n int) WikipediaOption {
	return func(w *WikipediaSearch) {
		if n > 0 {
			w.MaxDocs = n
		}
	}
}

// WithWikipediaMaxChars caps the content taken from each page.
func WithWikipediaMaxChars(n int) WikipediaOption {
	return func(w *WikipediaSearch) {
		if n > 0 {
			w.MaxChars = n
		}
	}
}

// WithWikipediaHTTPClient sets the HTTP client used for requests.
func WithWikipediaHTTPClient(c *http.Client) WikipediaOption {
	return func(w *WikipediaSearch) {
		w.Client = c
	}
}

// NewWikipediaSearch creates an English Wikipedia retriever returning up to 6 pages of
// at most 4000 characters each.
func NewWikipediaSearch(opts ...WikipediaOption) *WikipediaSearch {
	w := &WikipediaSearch{
		BaseURL:  "https://en.wikipedia.org/w/api.php",
		MaxDocs:  6,
		MaxChars: 4000,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ research.Retriever = (*WikipediaSearch)(nil)

// Name returns the name of the retriever.
func (w *WikipediaSearch) Name() string {
	return "wikipedia"
}

type wikiPage struct {
	PageID  int    `json:"pageid"`
	Title   string `json:"title"`
	Index   int    `json:"index"`
	Extract string `json:"extract"`
	FullURL string `json:"fullurl"`
	Missing any    `json:"missing,omitempty"`
}

type wikiResponse struct {
	Query struct {
		Pages map[string]wikiPage `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Retrieve returns the plain text of the best matching pages in search rank order.
// TextExtracts serves a whole-article extract for one page per request, so the search
// is followed by one extract request per page.
func (w *WikipediaSearch) Retrieve(ctx context.Context, question string) ([]research.Document, error) {
	params := url.Values{}
	params.Set("generator", "search")
	params.Set("gsrsearch", question)
	params.Set("gsrlimit", strconv.Itoa(w.MaxDocs))
	params.Set("prop", "info")
	params.Set("inprop", "url")
	params.Set("redirects", "1")

	result, err := w.query(ctx, params)
	if err != nil {
		return nil, err
	}

	pages := make([]wikiPage, 0, len(result.Query.Pages))
	for _, p := range result.Query.Pages {
		if p.Missing != nil {
			continue
		}
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	if len(pages) > w.MaxDocs {
		pages = pages[:w.MaxDocs]
	}

	docs := make([]research.Document, 0, len(pages))
	for _, p := range pages {
		content, err := w.extract(ctx, p.PageID)
		if err != nil {
			return nil, fmt.Errorf("failed to load page %q: %w", p.Title, err)
		}
		if content == "" {
			continue
		}
		// pages carry no page number, Page stays empty
		docs = append(docs, research.Document{
			Content: content,
			Source:  p.FullURL,
			Title:   p.Title,
		})
	}
	return docs, nil
}

func (w *WikipediaSearch) extract(ctx context.Context, pageID int) (string, error) {
	params := url.Values{}
	params.Set("pageids", strconv.Itoa(pageID))
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	if w.MaxChars > 0 {
		params.Set("exchars", strconv.Itoa(w.MaxChars))
	}

	result, err := w.query(ctx, params)
	if err != nil {
		return "", err
	}
	page, ok := result.Query.Pages[strconv.Itoa(pageID)]
	if !ok || page.Missing != nil {
		return "", nil
	}
	content := strings.TrimSpace(page.Extract)
	if w.MaxChars > 0 {
		if runes := []rune(content); len(runes) > w.MaxChars {
			content = string(runes[:w.MaxChars])
		}
	}
	return content, nil
}

func (w *WikipediaSearch) query(ctx context.Context, params url.Values) (*wikiResponse, error) {
	params.Set("action", "query")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "stockresearch/1.0")

	resp, err := doWithRetry(ctx, w.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia api returned status: %d", resp.StatusCode)
	}

	var result wikiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("wikipedia api error %s: %s", result.Error.Code, result.Error.Info)
	}
	return &result, nil
}
