package market

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Commodity is one entry of the informational commodity registry. The
// registry feeds the /v1/commodities listing only — price queries stay
// free-text and are passed to the upstream filter verbatim.
type Commodity struct {
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
	Unit     string `yaml:"unit,omitempty" json:"unit,omitempty"`
}

type registryFile struct {
	Commodities []Commodity `yaml:"commodities"`
}

// LoadCommodities reads the yaml commodity registry at path. A missing file
// is valid (empty registry); a malformed file is a startup error. Entries
// with an empty name are rejected rather than skipped — a half-written
// registry should be fixed, not silently truncated.
func LoadCommodities(path string) ([]Commodity, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading commodity registry %s: %w", path, err)
	}

	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing commodity registry %s: %w", path, err)
	}

	for i, c := range f.Commodities {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("commodity registry %s: entry %d has no name", path, i)
		}
	}
	return f.Commodities, nil
}
