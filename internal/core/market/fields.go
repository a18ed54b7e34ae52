package market

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Field-name aliases probed per logical field, in priority order. The
// upstream dataset has served the same field under different names across
// vintages; the first alias present in a record wins.
var (
	dateFieldAliases  = []string{"arrival_date", "date", "date_of_arrival"}
	priceFieldAliases = []string{"modal_price", "modalprice", "modal_price_with_unit"}
)

// Calendar-date layouts accepted for the arrival date. Older dataset dumps
// use DD/MM/YYYY; newer ones use ISO.
var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// extractDecimal pulls a numeric value out of a record by trying each alias
// in order. The dataset serves prices as strings in some vintages and as
// JSON numbers (float64 after unmarshal) in others; both are accepted.
func extractDecimal(r RawRecord, aliases []string) (decimal.Decimal, bool) {
	for _, field := range aliases {
		v, ok := r[field]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			return decimal.NewFromFloat(val), true
		case float32:
			return decimal.NewFromFloat(float64(val)), true
		case int:
			return decimal.NewFromInt(int64(val)), true
		case int64:
			return decimal.NewFromInt(val), true
		case string:
			d, err := decimal.NewFromString(strings.TrimSpace(val))
			if err == nil {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}

// extractDate pulls a calendar date out of a record by trying each alias in
// order. A trailing time component ("T...") is stripped before parsing so
// timestamp-shaped strings still resolve to their calendar date.
func extractDate(r RawRecord, aliases []string) (time.Time, bool) {
	for _, field := range aliases {
		v, ok := r[field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if i := strings.IndexByte(s, 'T'); i > 0 {
			s = s[:i]
		}
		for _, layout := range dateLayouts {
			d, err := time.ParseInLocation(layout, s, time.UTC)
			if err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// extractString pulls an optional string field (market, state).
func extractString(r RawRecord, field string) string {
	if v, ok := r[field]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
