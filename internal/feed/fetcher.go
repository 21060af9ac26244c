package feed

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
)

// DefaultFetchTimeout bounds download plus parse of one feed.
const DefaultFetchTimeout = 15 * time.Second

// Fetcher downloads and parses feeds.
type Fetcher struct {
	http     *HTTPFetcher
	maxItems int
	timeout  time.Duration
}

// NewFetcher wires an HTTPFetcher to the parser.
func NewFetcher(httpFetcher *HTTPFetcher, maxItems int, timeout time.Duration) *Fetcher {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{http: httpFetcher, maxItems: maxItems, timeout: timeout}
}

// Fetch returns up to maxItems normalized entries of feedURL. Failures are
// *FetchError values.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]domain.FeedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, err := f.http.Get(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	items, err := Parse(ctx, body, f.maxItems)
	if err != nil {
		return nil, ClassifyParseError(err, feedURL)
	}
	return items, nil
}
