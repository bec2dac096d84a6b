package tool

import (
	"context"
	"html"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/smallnest/stockresearch/log"
)

// RetryBaseDelay is the first backoff after an HTTP 429. Tests lower it.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 3

var stripPolicy = bluemonday.StrictPolicy()

// doWithRetry sends req and retries on HTTP 429 with exponential backoff.
// After maxRetries the last 429 response is returned to the caller.
func doWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		r := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			r.Body = body
		}

		resp, err := client.Do(r)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		log.Warn("rate limited by %s, retrying in %v (attempt %d/%d)", req.URL.Host, backoff, attempt+1, maxRetries)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// stripHTML removes markup from provider snippets and collapses whitespace.
func stripHTML(s string) string {
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// MarketQuery rewrites a question into a search query scoped to the last 72 hours.
func MarketQuery(question string, now time.Time) string {
	const layout = "2006-01-02 15:04"
	from := now.Add(-72 * time.Hour)
	return question + " updates, prices, or news from " + from.Format(layout) + " to " + now.Format(layout) +
		", latest market activity, recent performance past 72 hours"
}
