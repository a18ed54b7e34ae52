package cache

import (
	"context"
	"errors"

	"github.com/agromandi-lab/agromandi/internal/core/market"
)

// ErrNotFound is returned by Get when the entry is absent or stale. Stale
// entries are not deleted on read; the next Put overwrites them.
var ErrNotFound = errors.New("cache entry not found")

// Store persists one AggregationResult per key with a time-to-live.
//
// Stores report I/O failures honestly; the degrade-to-miss policy for read
// errors and the log-but-return policy for write errors live in the
// orchestrating service, not here.
type Store interface {
	// Get returns the cached result for key, or ErrNotFound when the entry
	// does not exist or is older than the TTL.
	Get(ctx context.Context, key Key) (*market.AggregationResult, error)

	// Put writes the result under key, overwriting any previous entry.
	Put(ctx context.Context, key Key, result *market.AggregationResult) error
}
