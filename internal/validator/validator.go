// Package validator decides whether a URL is usable as a content link,
// combining the cache, the rate-limited probe queue, archive fallback and
// domain scoring.
package validator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/internal/cache"
	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
	"github.com/jonesrussell/north-cloud/link-health/internal/metrics"
	"github.com/jonesrussell/north-cloud/link-health/internal/probe"
	"github.com/jonesrussell/north-cloud/link-health/internal/queue"
	"github.com/jonesrussell/north-cloud/link-health/internal/scorer"
)

// ErrInvalidURL marks input that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

// Prober performs one existence check.
type Prober interface {
	Probe(ctx context.Context, rawURL string) probe.Result
}

// Submitter runs probe jobs through the shared queue.
type Submitter interface {
	Submit(ctx context.Context, job queue.Job) (probe.Result, error)
}

// SnapshotFinder looks up archived copies of dead links.
type SnapshotFinder interface {
	FindSnapshot(ctx context.Context, target string) (string, bool)
}

// Deps are the collaborators of a Validator. Archive, Metrics, Logger and Now
// are optional.
type Deps struct {
	Cache   cache.Cache
	Queue   Submitter
	Prober  Prober
	Archive SnapshotFinder
	Metrics *metrics.Metrics
	Logger  logger.Logger
	Now     func() time.Time
}

// Validator validates links. It is safe for concurrent use.
type Validator struct {
	cache   cache.Cache
	queue   Submitter
	prober  Prober
	archive SnapshotFinder
	metrics *metrics.Metrics
	log     logger.Logger
	now     func() time.Time

	inflight singleflight.Group
}

// New builds a Validator from deps.
func New(deps Deps) *Validator {
	v := &Validator{
		cache:   deps.Cache,
		queue:   deps.Queue,
		prober:  deps.Prober,
		archive: deps.Archive,
		metrics: deps.Metrics,
		log:     deps.Logger,
		now:     deps.Now,
	}
	if v.log == nil {
		v.log = logger.NewNop()
	}
	if v.now == nil {
		v.now = time.Now
	}
	v.log = v.log.With(logger.String("component", "validator"))
	return v
}

// Validate returns the validation result for rawURL. It never returns an
// error; failures are described in the result.
func (v *Validator) Validate(ctx context.Context, rawURL string) domain.ValidationResult {
	r, _ := v.validate(ctx, rawURL)
	return r
}

// ValidateBatch validates every URL concurrently and returns results keyed by
// the input strings. Duplicates are checked once. The error is non-nil when
// some probe could not run because ctx ended or the queue stopped; it wraps
// the first such cause and the affected results are marked invalid.
func (v *Validator) ValidateBatch(ctx context.Context, urls []string) (map[string]domain.ValidationResult, error) {
	results := make(map[string]domain.ValidationResult, len(urls))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, u := range urls {
		mu.Lock()
		_, seen := results[u]
		if !seen {
			results[u] = domain.ValidationResult{}
		}
		mu.Unlock()
		if seen {
			continue
		}

		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			r, err := v.validate(ctx, u)
			mu.Lock()
			defer mu.Unlock()
			results[u] = r
			if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("validate %s: %w", u, err)
			}
		}(u)
	}
	wg.Wait()

	return results, firstErr
}

// validate returns an error only when the link could not be checked at all.
// Invalid input and dead links are results, not errors.
func (v *Validator) validate(ctx context.Context, rawURL string) (domain.ValidationResult, error) {
	target := strings.TrimSpace(rawURL)

	if err := checkURL(target); err != nil {
		return domain.ValidationResult{
			URL:             target,
			DomainAuthority: scorer.Score(target),
			CheckedAt:       v.now(),
			Error:           err.Error(),
		}, nil
	}

	if cached, ok := v.cache.Get(ctx, target); ok {
		return cached, nil
	}

	ch := v.inflight.DoChan(target, func() (any, error) {
		return v.check(ctx, target)
	})

	select {
	case res := <-ch:
		r, _ := res.Val.(domain.ValidationResult)
		return r, res.Err
	case <-ctx.Done():
		return v.failed(target, ctx.Err()), ctx.Err()
	}
}

// check probes target through the queue and caches the outcome unless ctx
// ended first.
func (v *Validator) check(ctx context.Context, target string) (domain.ValidationResult, error) {
	start := time.Now()
	res, err := v.queue.Submit(ctx, func(jobCtx context.Context) probe.Result {
		return v.prober.Probe(jobCtx, target)
	})
	if err != nil {
		v.log.Debug("Probe not executed", logger.String("url", target), logger.Error(err))
		return v.failed(target, err), err
	}

	outcome := res.Outcome()
	v.metrics.RecordProbe(outcome.String(), time.Since(start))

	result := domain.ValidationResult{
		URL:             target,
		StatusCode:      res.StatusCode,
		RedirectTarget:  res.RedirectTarget,
		DomainAuthority: scorer.Score(target),
		ResponseTimeMs:  res.ResponseTimeMs,
		CheckedAt:       v.now(),
	}
	if res.Err != nil {
		result.Error = res.Err.Error()
	}

	switch outcome {
	case probe.Reachable:
		result.IsValid = true
	case probe.DeadWithFallback:
		if result.Error == "" {
			result.Error = fmt.Sprintf("HTTP %d", res.StatusCode)
		}
		if v.archive != nil && ctx.Err() == nil {
			snapshot, found := v.archive.FindSnapshot(ctx, target)
			v.metrics.RecordArchiveLookup(found)
			if found {
				result.IsValid = true
				result.ArchiveURL = snapshot
			}
		}
	case probe.DeadNoFallback:
		result.Error = fmt.Sprintf("HTTP %d", res.StatusCode)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	v.cache.Put(ctx, target, result)
	v.log.Debug("Link validated",
		logger.String("url", target),
		logger.Bool("valid", result.IsValid),
		logger.Int("status", result.StatusCode),
		logger.Bool("archived", result.Archived()),
	)
	return result, nil
}

func (v *Validator) failed(target string, err error) domain.ValidationResult {
	return domain.ValidationResult{
		URL:             target,
		DomainAuthority: scorer.Score(target),
		CheckedAt:       v.now(),
		Error:           err.Error(),
	}
}

func checkURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
