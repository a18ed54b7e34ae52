package prices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agromandi-lab/agromandi/internal/cache"
	"github.com/agromandi-lab/agromandi/internal/core/market"
	"github.com/agromandi-lab/agromandi/internal/upstream"
	"golang.org/x/sync/singleflight"
)

const dateLayout = "2006-01-02"

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid price query")

// Fetcher retrieves all raw records for a commodity from the upstream API.
type Fetcher interface {
	FetchAllPages(ctx context.Context, commodity string) ([]market.RawRecord, error)
}

// ServiceOptions carries the optional collaborators of the service.
type ServiceOptions struct {
	// Fallback, when non-nil, is served (tagged market.SourceFallback) if the
	// live fetch fails. Fallback results are never cached.
	Fallback *upstream.FallbackSource

	// OverallTimeout bounds one whole multi-page fetch-and-aggregate
	// computation. Zero disables the overall deadline; the per-page request
	// timeout still applies.
	OverallTimeout time.Duration

	// Commodities is the informational registry served by /v1/commodities.
	Commodities []market.Commodity
}

// Service orchestrates the pipeline: cache check, upstream fetch,
// normalization, aggregation, cache write.
type Service struct {
	fetcher Fetcher
	store   cache.Store
	opts    ServiceOptions

	// Concurrent identical cache misses collapse into one upstream fetch.
	// The flight wraps only the compute path, so a Force caller can share an
	// in-flight computation but can never be handed a cache read.
	flight singleflight.Group

	nowFn func() time.Time
}

// NewService creates the aggregation service.
func NewService(fetcher Fetcher, store cache.Store, opts ServiceOptions) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Commodities returns the informational registry.
func (s *Service) Commodities() []market.Commodity {
	return s.opts.Commodities
}

// FetchAndAggregate serves one aggregation request. A fresh cache entry is
// returned verbatim unless q.Force is set; otherwise the result is computed
// from upstream and written back. Zero usable records is not an error — the
// returned result simply has an empty timeseries.
func (s *Service) FetchAndAggregate(ctx context.Context, q Query) (*market.AggregationResult, error) {
	q, err := normalizeAndValidate(q)
	if err != nil {
		return nil, err
	}

	key := cache.Key{
		Commodity: q.Commodity,
		From:      formatBound(q.From),
		To:        formatBound(q.To),
		Agg:       q.Agg,
	}

	if !q.Force {
		cached, err := s.store.Get(ctx, key)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrNotFound) {
			// Cache read failures degrade to a miss; the request proceeds.
			slog.Warn("Cache read failed, treating as miss", "key", key.String(), "error", err)
		}
	}

	v, err, shared := s.flight.Do(key.String(), func() (interface{}, error) {
		return s.compute(ctx, q, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("Request attached to in-flight computation", "key", key.String())
	}
	return v.(*market.AggregationResult), nil
}

// compute runs the full upstream path and writes the cache entry.
func (s *Service) compute(ctx context.Context, q Query, key cache.Key) (*market.AggregationResult, error) {
	if s.opts.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.OverallTimeout)
		defer cancel()
	}

	raw, err := s.fetcher.FetchAllPages(ctx, q.Commodity)
	if err != nil {
		if s.opts.Fallback != nil {
			slog.Warn("Upstream fetch failed, serving fallback dataset",
				"commodity", q.Commodity, "error", err)
			return s.buildResult(q, s.opts.Fallback.Records(), market.SourceFallback), nil
		}
		return nil, fmt.Errorf("fetching %q: %w", q.Commodity, err)
	}

	result := s.buildResult(q, raw, market.SourceLive)

	// Write failures are reported but never block returning the result.
	if err := s.store.Put(ctx, key, result); err != nil {
		slog.Error("Cache write failed", "key", key.String(), "error", err)
	}
	return result, nil
}

func (s *Service) buildResult(q Query, raw []market.RawRecord, source string) *market.AggregationResult {
	normalized := market.Normalize(raw)
	return &market.AggregationResult{
		Commodity:   q.Commodity,
		Agg:         q.Agg,
		From:        formatBound(q.From),
		To:          formatBound(q.To),
		Source:      source,
		GeneratedAt: s.nowFn(),
		Timeseries:  market.Aggregate(normalized, q.Agg, q.From, q.To),
	}
}

func normalizeAndValidate(q Query) (Query, error) {
	q.Commodity = strings.TrimSpace(q.Commodity)
	if q.Agg == "" {
		q.Agg = market.AggMonthly
	}

	if q.Commodity == "" {
		return q, invalidQueryf("commodity is required")
	}
	if !market.ValidGranularity(q.Agg) {
		return q, invalidQueryf("invalid agg %q (must be daily, monthly, or yearly)", q.Agg)
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return q, invalidQueryf("to must not be before from")
	}
	return q, nil
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
