// Package probe performs bounded-time HEAD existence checks against URLs.
package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
)

// DefaultTimeout bounds a whole probe, including redirects and the GET fallback.
const DefaultTimeout = 10 * time.Second

// maxDrainBytes caps how much of a GET fallback body is read before closing.
const maxDrainBytes = 64 << 10

// Result is what a probe observed. StatusCode is 0 when no response arrived,
// in which case Err describes the failure.
type Result struct {
	URL            string
	StatusCode     int
	ResponseTimeMs int64
	RedirectTarget string
	Err            error
}

// Outcome returns Classify(r.StatusCode).
func (r Result) Outcome() Outcome {
	return Classify(r.StatusCode)
}

// Prober issues probes with a shared client.
type Prober struct {
	client  *http.Client
	timeout time.Duration
	log     logger.Logger
}

// New returns a Prober. timeout <= 0 uses DefaultTimeout.
func New(client *http.Client, timeout time.Duration, log logger.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Prober{client: client, timeout: timeout, log: log.With(logger.String("component", "probe"))}
}

// Probe checks rawURL once. It never returns an error value; network failures
// are reported through Result.Err with StatusCode 0.
func (p *Prober) Probe(ctx context.Context, rawURL string) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	res := Result{URL: rawURL}

	status, final, err := p.do(ctx, http.MethodHead, rawURL)
	if err == nil && status == http.StatusMethodNotAllowed {
		p.log.Debug("HEAD rejected, retrying with GET", logger.String("url", rawURL))
		status, final, err = p.do(ctx, http.MethodGet, rawURL)
	}

	res.ResponseTimeMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Err = describe(err, p.timeout)
		return res
	}

	res.StatusCode = status
	if final != "" && final != rawURL {
		res.RedirectTarget = final
	}
	return res
}

func (p *Prober) do(ctx context.Context, method, rawURL string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, http.NoBody)
	if err != nil {
		return 0, "", &NetworkError{Kind: KindRequest, Cause: err, msg: "invalid request: " + err.Error()}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if method == http.MethodGet {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	}

	final := ""
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return resp.StatusCode, final, nil
}
