package market

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// bucketKey derives the timeseries key for a record date at the given
// granularity. All formats are zero-padded and fixed-width, so a plain
// lexicographic sort over keys is chronologically correct.
func bucketKey(date time.Time, agg string) string {
	switch agg {
	case AggMonthly:
		return date.Format("2006-01")
	case AggYearly:
		return date.Format("2006")
	default:
		return date.Format("2006-01-02")
	}
}

// Aggregate buckets records by bucketKey and computes per-bucket statistics.
// When from/to are non-zero the range filter is inclusive on both ends and
// compares calendar dates, not timestamps. Empty input (or everything
// filtered out) yields an empty slice, not an error.
func Aggregate(records []NormalizedRecord, agg string, from, to time.Time) []PricePoint {
	buckets := make(map[string][]decimal.Decimal)
	for _, r := range records {
		if !from.IsZero() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && r.Date.After(to) {
			continue
		}
		key := bucketKey(r.Date, agg)
		buckets[key] = append(buckets[key], r.Price)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]PricePoint, 0, len(keys))
	for _, k := range keys {
		prices := buckets[k]
		points = append(points, PricePoint{
			Key:     k,
			Avg:     roundedAverage(prices),
			Median:  roundedMedian(prices),
			Samples: len(prices),
		})
	}
	return points
}

func roundedAverage(prices []decimal.Decimal) int64 {
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p)
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices)))).Round(0).IntPart()
}

// roundedMedian returns the standard median: the middle value for odd
// counts, the rounded mean of the two middle values for even counts.
func roundedMedian(prices []decimal.Decimal) int64 {
	sorted := make([]decimal.Decimal, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid].Round(0).IntPart()
	}
	two := decimal.NewFromInt(2)
	return sorted[mid-1].Add(sorted[mid]).Div(two).Round(0).IntPart()
}
