package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter spaces requests to the same host. Feeds on different hosts do
// not wait on each other.
type HostLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

// NewHostLimiter allows one request per interval per host. interval <= 0
// disables limiting.
func NewHostLimiter(interval time.Duration) *HostLimiter {
	every := rate.Inf
	if interval > 0 {
		every = rate.Every(interval)
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    every,
		burst:    1,
	}
}

// Wait blocks until rawURL's host may be requested again or ctx ends.
func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if err := h.forHost(hostOf(rawURL)).Wait(ctx); err != nil {
		return fmt.Errorf("host limiter: %w", err)
	}
	return nil
}

func (h *HostLimiter) forHost(host string) *rate.Limiter {
	h.mu.RLock()
	l, ok := h.limiters[host]
	h.mu.RUnlock()
	if ok {
		return l
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok = h.limiters[host]; !ok {
		l = rate.NewLimiter(h.every, h.burst)
		h.limiters[host] = l
	}
	return l
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}
