package validator_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/link-health/internal/cache"
	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
	"github.com/jonesrussell/north-cloud/link-health/internal/probe"
	"github.com/jonesrussell/north-cloud/link-health/internal/queue"
	"github.com/jonesrussell/north-cloud/link-health/internal/scorer"
	"github.com/jonesrussell/north-cloud/link-health/internal/validator"
)

type fakeProber struct {
	results map[string]probe.Result
	gate    chan struct{}
	calls   atomic.Int32
}

func (p *fakeProber) Probe(_ context.Context, rawURL string) probe.Result {
	p.calls.Add(1)
	if p.gate != nil {
		<-p.gate
	}
	if r, ok := p.results[rawURL]; ok {
		r.URL = rawURL
		return r
	}
	return probe.Result{URL: rawURL, StatusCode: 200, ResponseTimeMs: 12}
}

type fakeArchive struct {
	snapshots map[string]string
	calls     atomic.Int32
}

func (a *fakeArchive) FindSnapshot(_ context.Context, target string) (string, bool) {
	a.calls.Add(1)
	s, ok := a.snapshots[target]
	return s, ok
}

// directQueue runs jobs inline.
type directQueue struct{ err error }

func (q directQueue) Submit(ctx context.Context, job queue.Job) (probe.Result, error) {
	if q.err != nil {
		return probe.Result{}, q.err
	}
	return job(ctx), nil
}

func newValidator(p *fakeProber, a *fakeArchive, c cache.Cache) *validator.Validator {
	deps := validator.Deps{Cache: c, Queue: directQueue{}, Prober: p}
	if a != nil {
		deps.Archive = a
	}
	return validator.New(deps)
}

func TestValidate_Reachable(t *testing.T) {
	t.Parallel()

	p := &fakeProber{}
	v := newValidator(p, nil, cache.NewMemory(0))

	r := v.Validate(context.Background(), "https://example.com/a")

	assert.True(t, r.IsValid)
	assert.Equal(t, 200, r.StatusCode)
	assert.Empty(t, r.Error)
	assert.Equal(t, scorer.Score("https://example.com/a"), r.DomainAuthority)
	assert.EqualValues(t, 12, r.ResponseTimeMs)
	assert.False(t, r.CheckedAt.IsZero())
}

func TestValidate_CacheHitSkipsProbe(t *testing.T) {
	t.Parallel()

	p := &fakeProber{}
	v := newValidator(p, nil, cache.NewMemory(0))
	ctx := context.Background()

	first := v.Validate(ctx, "https://example.com/a")
	second := v.Validate(ctx, "https://example.com/a")

	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, first, second)
}

func TestValidate_ExpiredEntryIsReprobed(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	p := &fakeProber{}
	v := validator.New(validator.Deps{
		Cache:  cache.NewMemory(cache.DefaultTTL, cache.WithClock(clock)),
		Queue:  directQueue{},
		Prober: p,
		Now:    clock,
	})
	ctx := context.Background()

	v.Validate(ctx, "https://example.com/a")
	now = now.Add(25 * time.Hour)
	v.Validate(ctx, "https://example.com/a")

	assert.Equal(t, int32(2), p.calls.Load())
}

func TestValidate_RedirectCaptured(t *testing.T) {
	t.Parallel()

	p := &fakeProber{results: map[string]probe.Result{
		"https://example.com/old": {StatusCode: 301, RedirectTarget: "https://example.com/new"},
	}}
	r := newValidator(p, nil, cache.NewMemory(0)).Validate(context.Background(), "https://example.com/old")

	assert.True(t, r.IsValid)
	assert.Equal(t, "https://example.com/new", r.RedirectTarget)
}

func TestValidate_ArchiveFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		result      probe.Result
		snapshot    string
		wantValid   bool
		wantArchive bool
		wantLookups int32
	}{
		{
			name:        "404 with snapshot",
			result:      probe.Result{StatusCode: 404},
			snapshot:    "https://web.archive.org/web/2023/https://example.com/x",
			wantValid:   true,
			wantArchive: true,
			wantLookups: 1,
		},
		{
			name:        "404 without snapshot",
			result:      probe.Result{StatusCode: 404},
			wantLookups: 1,
		},
		{
			name:        "503 with snapshot",
			result:      probe.Result{StatusCode: 503},
			snapshot:    "https://web.archive.org/web/2023/https://example.com/x",
			wantValid:   true,
			wantArchive: true,
			wantLookups: 1,
		},
		{
			name:        "timeout with snapshot",
			result:      probe.Result{Err: errors.New("timeout after 10s")},
			snapshot:    "https://web.archive.org/web/2023/https://example.com/x",
			wantValid:   true,
			wantArchive: true,
			wantLookups: 1,
		},
		{
			name:        "403 never consults archive",
			result:      probe.Result{StatusCode: 403},
			snapshot:    "https://web.archive.org/web/2023/https://example.com/x",
			wantLookups: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			const target = "https://example.com/x"
			p := &fakeProber{results: map[string]probe.Result{target: tt.result}}
			a := &fakeArchive{snapshots: map[string]string{}}
			if tt.snapshot != "" {
				a.snapshots[target] = tt.snapshot
			}

			r := newValidator(p, a, cache.NewMemory(0)).Validate(context.Background(), target)

			assert.Equal(t, tt.wantValid, r.IsValid)
			assert.Equal(t, tt.result.StatusCode, r.StatusCode)
			assert.Equal(t, tt.wantArchive, r.ArchiveURL != "")
			assert.Equal(t, tt.wantLookups, a.calls.Load())
			if !r.IsValid || r.Archived() {
				assert.NotEmpty(t, r.Error, "original failure reason is kept")
			}
		})
	}
}

func TestValidate_InvalidURLsAreRejected(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "mailto:a@example.com", "https://"} {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()

			p := &fakeProber{}
			c := cache.NewMemory(0)
			r := newValidator(p, nil, c).Validate(context.Background(), raw)

			assert.False(t, r.IsValid)
			assert.Zero(t, r.StatusCode)
			assert.Contains(t, r.Error, "invalid url")
			assert.Zero(t, p.calls.Load())
			assert.Zero(t, c.Len())
		})
	}
}

func TestValidate_QueueFailureNotCached(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory(0)
	v := validator.New(validator.Deps{
		Cache:  c,
		Queue:  directQueue{err: queue.ErrQueueStopped},
		Prober: &fakeProber{},
	})

	r := v.Validate(context.Background(), "https://example.com/a")

	assert.False(t, r.IsValid)
	assert.Contains(t, r.Error, queue.ErrQueueStopped.Error())
	assert.Zero(t, c.Len())
}

func TestValidate_CancelledContextNotCached(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory(0)
	p := &fakeProber{gate: make(chan struct{})}
	v := newValidator(p, nil, c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.ValidationResult, 1)
	go func() { done <- v.Validate(ctx, "https://example.com/a") }()

	require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	r := <-done
	close(p.gate)

	assert.False(t, r.IsValid)
	assert.Contains(t, r.Error, context.Canceled.Error())
	assert.Zero(t, c.Len())
}

func TestValidate_ConcurrentCallsShareOneProbe(t *testing.T) {
	t.Parallel()

	p := &fakeProber{gate: make(chan struct{})}
	v := newValidator(p, nil, cache.NewMemory(0))

	var wg sync.WaitGroup
	results := make([]domain.ValidationResult, 5)
	for i := range results {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n] = v.Validate(context.Background(), "https://example.com/shared")
		}(i)
	}

	require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(p.gate)
	wg.Wait()

	assert.Equal(t, int32(1), p.calls.Load())
	for _, r := range results {
		assert.True(t, r.IsValid)
	}
}

func TestValidateBatch(t *testing.T) {
	t.Parallel()

	p := &fakeProber{results: map[string]probe.Result{
		"https://example.com/dead": {StatusCode: 404},
	}}
	v := newValidator(p, &fakeArchive{}, cache.NewMemory(0))

	urls := []string{
		"https://example.com/ok",
		"https://example.com/dead",
		"https://example.com/ok",
		"javascript:alert(1)",
	}
	got, err := v.ValidateBatch(context.Background(), urls)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.True(t, got["https://example.com/ok"].IsValid)
	assert.False(t, got["https://example.com/dead"].IsValid)
	assert.Contains(t, got["javascript:alert(1)"].Error, "invalid url")
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestValidateBatch_Empty(t *testing.T) {
	t.Parallel()

	got, err := newValidator(&fakeProber{}, nil, cache.NewMemory(0)).ValidateBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestValidate_ThroughRealQueue(t *testing.T) {
	t.Parallel()

	q := queue.New(0, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = q.Run(ctx) }()

	p := &fakeProber{}
	v := validator.New(validator.Deps{Cache: cache.NewMemory(0), Queue: q, Prober: p})

	got, err := v.ValidateBatch(ctx, []string{"https://a.example", "https://b.example", "https://c.example"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for u, r := range got {
		assert.True(t, r.IsValid, u)
	}
	assert.Equal(t, int32(3), p.calls.Load())
}

func TestValidateBatch_StoppedQueueIsReported(t *testing.T) {
	t.Parallel()

	q := queue.New(0, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = q.Run(ctx)
	}()
	cancel()
	<-runDone

	c := cache.NewMemory(0)
	p := &fakeProber{}
	v := validator.New(validator.Deps{Cache: c, Queue: q, Prober: p})

	got, err := v.ValidateBatch(context.Background(), []string{"https://a.example", "https://b.example", "bad"})

	require.ErrorIs(t, err, queue.ErrQueueStopped)
	require.Len(t, got, 3)
	assert.False(t, got["https://a.example"].IsValid)
	assert.Contains(t, got["bad"].Error, "invalid url")
	assert.Zero(t, p.calls.Load())
	assert.Zero(t, c.Len())
}
