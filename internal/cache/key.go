package cache

import "strings"

// Key identifies one cached aggregation result. Equivalent parameter sets
// must canonicalize to the same key string.
type Key struct {
	Commodity string
	From      string // YYYY-MM-DD or empty for open-ended
	To        string
	Agg       string
}

// String renders the canonical key: whitespace runs in the commodity become
// a single underscore, absent bounds become the literal "all".
func (k Key) String() string {
	parts := []string{
		canonicalCommodity(k.Commodity),
		orAll(k.From),
		orAll(k.To),
		k.Agg,
	}
	return strings.Join(parts, "_")
}

// Filename is the on-disk name used by the filesystem backend.
func (k Key) Filename() string {
	return k.String() + ".json"
}

func canonicalCommodity(c string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(c)), "_")
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
