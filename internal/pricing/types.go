// Package pricing implements the pricing engine: the short-TTL observation
// cache, the remote barcode price lookup, the self-updating heuristic
// estimator and the cheapest-store finder that ties them together.
package pricing

import (
	"errors"
	"math"
	"time"
)

// Location is a user position in decimal degrees.
type Location struct {
	Lat float64
	Lon float64
}

// PriceObservation is an authoritative per-unit price captured from the
// remote pricing endpoint. Observations live only in the process-lifetime
// cache.
type PriceObservation struct {
	Barcode    string
	StoreID    string
	UnitPrice  float64 // campaign pricing already normalized to per-unit
	Deposit    float64
	CapturedAt time.Time
}

// PerUnitCost is the final per-unit cost: unit price plus deposit.
func (o PriceObservation) PerUnitCost() float64 {
	return o.UnitPrice + o.Deposit
}

// StoreTotal is the computed total for one store. Pure output value,
// recomputed on demand.
type StoreTotal struct {
	StoreName string  `json:"storeName"`
	Total     float64 `json:"total"`
}

// Sentinel conditions surfaced to the caller. Everything else degrades to
// heuristic pricing inside the engine.
var (
	// ErrEmptyList is returned when FindCheapest is called with an empty
	// shopping list. No computation is performed.
	ErrEmptyList = errors.New("shopping list is empty")

	// ErrNoStoresNearby is returned when geographic filtering leaves no
	// candidate stores.
	ErrNoStoresNearby = errors.New("no prices found nearby")
)

// Config holds the pricing engine settings.
type Config struct {
	// DefaultRadiusMeters is used when the caller does not supply a radius.
	DefaultRadiusMeters float64 `mapstructure:"default_radius_meters"`

	// TopResults caps the number of ranked store totals returned.
	TopResults int `mapstructure:"top_results"`

	// CacheTTL is how long a price observation stays valid.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// StoreConcurrency bounds the number of stores evaluated in parallel.
	StoreConcurrency int64 `mapstructure:"store_concurrency"`
}

// DefaultConfig returns the default engine settings.
func DefaultConfig() *Config {
	return &Config{
		DefaultRadiusMeters: 2000,
		TopResults:          2,
		CacheTTL:            30 * time.Minute,
		StoreConcurrency:    4,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.DefaultRadiusMeters <= 0 {
		return errors.New("default_radius_meters: must be positive")
	}
	if c.TopResults < 1 {
		return errors.New("top_results: must be at least 1")
	}
	if c.CacheTTL <= 0 {
		return errors.New("cache_ttl: must be positive")
	}
	if c.StoreConcurrency < 1 {
		return errors.New("store_concurrency: must be at least 1")
	}
	return nil
}

// Round2 rounds to two decimals, half up at the cent. Totals are rounded
// once after summation, never per line item.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
