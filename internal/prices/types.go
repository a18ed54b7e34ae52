package prices

import "time"

// Query is one aggregation request. Zero From/To mean open-ended bounds.
type Query struct {
	Commodity string
	From      time.Time
	To        time.Time
	Agg       string
	Force     bool
}
