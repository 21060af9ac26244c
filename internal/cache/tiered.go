package cache

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
)

// Tiered reads the local tier first and falls back to a shared tier,
// copying shared hits into the local tier. Writes go to both.
type Tiered struct {
	local  *Memory
	shared Cache
}

// NewTiered layers shared behind local.
func NewTiered(local *Memory, shared Cache) *Tiered {
	return &Tiered{local: local, shared: shared}
}

func (t *Tiered) Get(ctx context.Context, url string) (domain.ValidationResult, bool) {
	if r, ok := t.local.Get(ctx, url); ok {
		return r, true
	}
	r, ok := t.shared.Get(ctx, url)
	if !ok {
		return domain.ValidationResult{}, false
	}
	t.local.Put(ctx, url, r)
	return t.local.Get(ctx, url)
}

func (t *Tiered) Put(ctx context.Context, url string, result domain.ValidationResult) {
	t.local.Put(ctx, url, result)
	t.shared.Put(ctx, url, result)
}

// Prune sweeps the local tier; the shared tier expires keys itself.
func (t *Tiered) Prune(now time.Time) int {
	return t.local.Prune(now)
}
