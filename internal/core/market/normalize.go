package market

// Normalize maps raw upstream records into the canonical shape, dropping
// anything unusable. A record is dropped iff its price is missing,
// non-numeric or <= 0, or its date is missing or unparsable. Dropped
// records are not retried — the upstream row is simply unusable.
//
// Output preserves input order. Duplicate date+price pairs are kept:
// multiple markets quote the same commodity on the same day.
func Normalize(raw []RawRecord) []NormalizedRecord {
	out := make([]NormalizedRecord, 0, len(raw))
	for _, r := range raw {
		price, ok := extractDecimal(r, priceFieldAliases)
		if !ok || !price.IsPositive() {
			continue
		}
		date, ok := extractDate(r, dateFieldAliases)
		if !ok {
			continue
		}
		out = append(out, NormalizedRecord{
			Date:   date,
			Price:  price,
			Market: extractString(r, "market"),
			State:  extractString(r, "state"),
		})
	}
	return out
}
