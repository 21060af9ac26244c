// Package cache stores recent validation results so a URL is probed at most
// once per TTL window.
package cache

import (
	"context"
	"time"

	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
)

// DefaultTTL is how long a validation result stays usable.
const DefaultTTL = 24 * time.Hour

// Cache is a validation result store keyed by URL. Implementations return
// copies; a miss and an expired entry look the same to the caller.
type Cache interface {
	Get(ctx context.Context, url string) (domain.ValidationResult, bool)
	Put(ctx context.Context, url string, result domain.ValidationResult)
}

// Pruner is implemented by caches that hold expired entries until swept.
type Pruner interface {
	Prune(now time.Time) int
}
