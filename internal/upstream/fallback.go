package upstream

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/agromandi-lab/agromandi/internal/core/market"
)

// FallbackSource holds a static record set served only when the live fetch
// fails and fallback is enabled. Results built from it are tagged
// market.SourceFallback and are never written to the cache, so fabricated
// data can never shadow a later live fetch.
type FallbackSource struct {
	records []market.RawRecord
}

// NewFallbackSource wraps an in-memory record set.
func NewFallbackSource(records []market.RawRecord) *FallbackSource {
	return &FallbackSource{records: records}
}

// LoadFallback reads a JSON array of raw records from path. The file shape
// matches one upstream page's "records" array.
func LoadFallback(path string) (*FallbackSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fallback dataset %s: %w", path, err)
	}
	var records []market.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing fallback dataset %s: %w", path, err)
	}
	return &FallbackSource{records: records}, nil
}

// Records returns the static record set.
func (f *FallbackSource) Records() []market.RawRecord {
	return f.records
}
