package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
	"github.com/jonesrussell/north-cloud/link-health/internal/metrics"
)

const tierMemory = "memory"

type entry struct {
	result    domain.ValidationResult
	checkedAt time.Time
}

// Memory is an in-process cache with lazy expiry: stale entries are ignored
// on read and removed by Prune.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

// Option configures a Memory cache.
type Option func(*Memory)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// WithMetrics records hits and misses.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Memory) { m.metrics = mt }
}

// NewMemory returns an empty cache. ttl <= 0 uses DefaultTTL.
func NewMemory(ttl time.Duration, opts ...Option) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the cached result for url if it is younger than the TTL.
func (m *Memory) Get(_ context.Context, url string) (domain.ValidationResult, bool) {
	m.mu.RLock()
	e, ok := m.entries[url]
	m.mu.RUnlock()

	if !ok || m.now().Sub(e.checkedAt) > m.ttl {
		m.metrics.RecordCacheLookup(tierMemory, false)
		return domain.ValidationResult{}, false
	}
	m.metrics.RecordCacheLookup(tierMemory, true)
	return e.result, true
}

// Put stores result for url, replacing any previous entry. The entry ages from
// result.CheckedAt, or from now when that is unset.
func (m *Memory) Put(_ context.Context, url string, result domain.ValidationResult) {
	checkedAt := result.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = m.now()
	}

	m.mu.Lock()
	m.entries[url] = entry{result: result, checkedAt: checkedAt}
	m.mu.Unlock()
}

// Prune deletes entries older than the TTL as of now and returns how many
// were removed.
func (m *Memory) Prune(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for url, e := range m.entries {
		if now.Sub(e.checkedAt) > m.ttl {
			delete(m.entries, url)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
