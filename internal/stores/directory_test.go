package stores

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainFactor(t *testing.T) {
	tests := []struct {
		name     string
		expected float64
	}{
		{"Netto", 0.96},
		{"netto", 0.96},
		{"NETTO", 0.96},
		{"Rema 1000", 0.98},
		{"rema1000", 0.98},
		{"Fakta", 0.97},
		{"Føtex", 1.00},
		{"foetex", 1.00},
		{"fotex", 1.00},
		{"Some Unknown Chain", 1.00},
		{"", 1.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ChainFactor(tt.name))
		})
	}
}

func TestDefaultDirectory(t *testing.T) {
	d := Default()
	require.Equal(t, 3, d.Len())

	all := d.All()
	assert.Equal(t, "netto-001", all[0].ID)
	assert.Equal(t, "rema-002", all[1].ID)
	assert.Equal(t, "fotex-003", all[2].ID)
}

// TestAllReturnsCopy verifies callers cannot mutate the directory through the
// returned slice.
func TestAllReturnsCopy(t *testing.T) {
	d := Default()
	all := d.All()
	all[0].Name = "Mutated"

	assert.Equal(t, "Netto", d.All()[0].Name)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stores.json")
	data := `[
		{"id": "netto-007", "name": "Netto", "lat": 56.15, "lon": 10.20},
		{"id": "fakta-001", "name": "Fakta", "lat": 56.16, "lon": 10.21}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	d, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())
	assert.Equal(t, "netto-007", d.All()[0].ID)
	assert.Equal(t, 56.15, d.All()[0].Lat)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile("/nonexistent/stores.json")
	assert.Error(t, err)

	malformed := filepath.Join(t.TempDir(), "stores.json")
	require.NoError(t, os.WriteFile(malformed, []byte("[{"), 0644))
	_, err = LoadFile(malformed)
	assert.Error(t, err)
}
