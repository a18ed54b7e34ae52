package market

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCommodities(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commodities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
commodities:
  - name: Onion
    category: vegetable
    unit: quintal
  - name: Pepper
`), 0o644))

	got, err := LoadCommodities(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Onion", got[0].Name)
	require.Equal(t, "vegetable", got[0].Category)
	require.Equal(t, "Pepper", got[1].Name)
}

func TestLoadCommodities_MissingFileIsEmptyRegistry(t *testing.T) {
	got, err := LoadCommodities(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestLoadCommodities_Malformed(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commodities: [::"), 0o644))
	_, err := LoadCommodities(path)
	require.Error(t, err)

	path = filepath.Join(dir, "unnamed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commodities:\n  - category: fruit\n"), 0o644))
	_, err = LoadCommodities(path)
	require.ErrorContains(t, err, "has no name")
}
