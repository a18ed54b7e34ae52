package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supported aggregation granularities.
const (
	AggDaily   = "daily"
	AggMonthly = "monthly"
	AggYearly  = "yearly"
)

// ValidGranularity reports whether agg is a supported bucketing granularity.
func ValidGranularity(agg string) bool {
	switch agg {
	case AggDaily, AggMonthly, AggYearly:
		return true
	}
	return false
}

// Result source tags. A cached entry keeps the tag it was stored with, so a
// fallback-sourced result can never be mistaken for live data downstream.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// RawRecord is one upstream record as returned by the price dataset.
// The upstream schema is uncontrolled: field names vary between dataset
// vintages and nothing is guaranteed to be present.
type RawRecord map[string]interface{}

// NormalizedRecord is a raw record reduced to the canonical shape.
// Invariant: Price > 0 and Date is a valid calendar date (UTC midnight).
type NormalizedRecord struct {
	Date   time.Time
	Price  decimal.Decimal
	Market string
	State  string
}

// PricePoint is one bucket of the output timeseries.
// Avg and Median are rounded to the nearest whole unit of currency.
type PricePoint struct {
	Key     string `json:"key"`
	Avg     int64  `json:"avg"`
	Median  int64  `json:"median"`
	Samples int    `json:"samples"`
}

// AggregationResult is the unit of work cached and returned to callers.
type AggregationResult struct {
	Commodity   string       `json:"commodity"`
	Agg         string       `json:"agg"`
	From        string       `json:"from,omitempty"`
	To          string       `json:"to,omitempty"`
	Source      string       `json:"source"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Timeseries  []PricePoint `json:"timeseries"`
}
