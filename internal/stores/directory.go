// Package stores holds the static store directory and the per-chain price
// level factors applied to heuristic estimates.
package stores

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Store is one physical store. Static reference data, externally supplied.
type Store struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Directory is an ordered, immutable store list. Directory order is the tie
// break when ranking stores with equal totals.
type Directory struct {
	stores []Store
}

// NewDirectory builds a directory from an already-loaded store list.
func NewDirectory(stores []Store) *Directory {
	d := &Directory{stores: make([]Store, len(stores))}
	copy(d.stores, stores)
	return d
}

// Default returns the built-in directory used when no store source is
// configured.
func Default() *Directory {
	return NewDirectory([]Store{
		{ID: "netto-001", Name: "Netto", Lat: 55.6761, Lon: 12.5683},
		{ID: "rema-002", Name: "Rema 1000", Lat: 55.6784, Lon: 12.5710},
		{ID: "fotex-003", Name: "Føtex", Lat: 55.6740, Lon: 12.5650},
	})
}

// LoadFile reads a store directory from a JSON array file.
func LoadFile(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stores []Store
	if err := json.Unmarshal(data, &stores); err != nil {
		return nil, fmt.Errorf("parsing store directory %s: %w", path, err)
	}
	return NewDirectory(stores), nil
}

// All returns the stores in directory order.
func (d *Directory) All() []Store {
	out := make([]Store, len(d.stores))
	copy(out, d.stores)
	return out
}

// Len returns the number of stores in the directory.
func (d *Directory) Len() int {
	return len(d.stores)
}

// chainFactors maps a lower-cased chain name to its price level relative to
// the baseline. Applied only to heuristic estimates; remote prices are
// already store-specific.
var chainFactors = map[string]float64{
	"netto":     0.96,
	"rema 1000": 0.98,
	"rema1000":  0.98,
	"fakta":     0.97,
	"føtex":     1.00,
	"foetex":    1.00,
	"fotex":     1.00,
}

// ChainFactor returns the price level factor for a store name,
// case-insensitively. Unknown chains get 1.0.
func ChainFactor(name string) float64 {
	if f, ok := chainFactors[strings.ToLower(name)]; ok {
		return f
	}
	return 1.0
}
