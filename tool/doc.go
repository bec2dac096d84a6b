// Package tool provides the retrieval sources used by the research workflow.
//
// Every source implements research.Retriever and turns a user question into a list of
// research.Document values carrying the retrieved text and its citation URL.
//
// # Web Search
//
// TavilySearch and BraveSearch rewrite the question into a query scoped to the last 72
// hours of market activity before calling the provider:
//
//	web, err := tool.NewTavilySearch("your-tavily-api-key")
//	if err != nil {
//		return err
//	}
//	docs, err := web.Retrieve(ctx, "How is NVDA doing?")
//
// # Knowledge Search
//
// WikipediaSearch queries the MediaWiki API and returns the plain-text introductions of
// the best matching pages, in search rank order:
//
//	kb := tool.NewWikipediaSearch(tool.WithWikipediaLanguage("en"))
//
// All HTTP sources retry on HTTP 429 with exponential backoff starting at RetryBaseDelay,
// and strip HTML markup from provider snippets.
package tool
