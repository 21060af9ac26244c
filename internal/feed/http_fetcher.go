package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes caps feed documents.
const DefaultMaxBodyBytes = 5 << 20

// HTTPFetcher downloads feed documents.
type HTTPFetcher struct {
	client   *http.Client
	limiter  *HostLimiter
	maxBytes int64
}

// NewHTTPFetcher returns a fetcher. limiter may be nil; maxBytes <= 0 uses DefaultMaxBodyBytes.
func NewHTTPFetcher(client *http.Client, limiter *HostLimiter, maxBytes int64) *HTTPFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return &HTTPFetcher{client: client, limiter: limiter, maxBytes: maxBytes}
}

// Get returns the body of a 200 response. Anything else is a *FetchError.
func (f *HTTPFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, url); err != nil {
			return nil, ClassifyNetworkError(err, url)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("feed new request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPStatus(resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, ClassifyNetworkError(fmt.Errorf("read body: %w", err), url)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, &FetchError{
			Type:  ErrTypeTooLarge,
			URL:   url,
			Cause: fmt.Errorf("body exceeds %d bytes", f.maxBytes),
		}
	}
	return body, nil
}
