package pricing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smartkurv/pricing-service/internal/catalog"
)

const (
	// emaAlpha is the weight of a new observation in the running mean.
	emaAlpha = 0.3

	// priorWeight down-weights the fresh rule estimate in favor of
	// accumulated observations when a prior exists.
	priorWeight = 0.7

	organicFactor = 1.15
	defaultBase   = 10.0

	// packFactorFloor keeps unit multipliers near 1.0 from re-scaling a
	// base that already is a single-unit price.
	packFactorFloor = 1.1
)

// priorKey identifies the learned price level for a (product, unit,
// organic) combination.
type priorKey struct {
	ProductID string
	Unit      string
	Organic   bool
}

type prior struct {
	Mean  float64
	Alpha float64
}

// Estimator computes rule-based price estimates and keeps a learned prior
// per (product, unit, organic) key, updated by exponential moving average
// as real prices are observed. Priors grow monotonically in key count and
// reset only on process restart.
type Estimator struct {
	mu     sync.Mutex
	priors map[priorKey]prior
	logger zerolog.Logger
}

// NewEstimator creates an estimator with an empty prior table.
func NewEstimator() *Estimator {
	return &Estimator{
		priors: make(map[priorKey]prior),
		logger: log.With().Str("component", "estimator").Logger(),
	}
}

// Estimate returns the heuristic per-unit price for a product variant,
// blended with the learned prior when one exists and rounded half-up to
// two decimals.
func (e *Estimator) Estimate(p catalog.Product, v catalog.Variant) float64 {
	estimate := ruleEstimate(p, v)

	key := priorKey{ProductID: p.ID, Unit: v.Unit, Organic: v.Organic}
	e.mu.Lock()
	if pr, ok := e.priors[key]; ok {
		estimate = priorWeight*pr.Mean + (1-priorWeight)*estimate
	}
	e.mu.Unlock()

	return Round2(estimate)
}

// Observe feeds a real observed per-unit price into the prior for the
// variant's key. The first observation sets the mean exactly; later ones
// move it by the EMA smoothing factor. The read-modify-write runs under
// the lock so concurrent observers of one key never diverge.
func (e *Estimator) Observe(p catalog.Product, v catalog.Variant, observed float64) {
	key := priorKey{ProductID: p.ID, Unit: v.Unit, Organic: v.Organic}

	e.mu.Lock()
	old, ok := e.priors[key]
	mean := observed
	if ok {
		mean = (1-emaAlpha)*old.Mean + emaAlpha*observed
	}
	e.priors[key] = prior{Mean: mean, Alpha: emaAlpha}
	e.mu.Unlock()

	e.logger.Debug().
		Str("product", p.ID).
		Str("unit", v.Unit).
		Bool("organic", v.Organic).
		Float64("observed", observed).
		Float64("mean", mean).
		Msg("Updated price prior")
}

// PriorCount returns the number of learned prior keys.
func (e *Estimator) PriorCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.priors)
}

// Priors returns a display snapshot of the prior table, keyed by a
// human-readable "productId|unit|organic" label.
func (e *Estimator) Priors() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]float64, len(e.priors))
	for k, pr := range e.priors {
		organic := "0"
		if k.Organic {
			organic = "1"
		}
		out[fmt.Sprintf("%s|%s|%s", k.ProductID, k.Unit, organic)] = pr.Mean
	}
	return out
}

// ruleEstimate computes the rule-based base estimate before blending. SKU
// table hits already encode unit- and organic-specific values, so the
// multipliers apply only to keyword- or default-derived bases.
func ruleEstimate(p catalog.Product, v catalog.Variant) float64 {
	if base, ok := skuBase(p.ID, v); ok {
		return base
	}

	estimate, unitPriced := keywordBase(p.Name, v.Unit)
	if v.Organic {
		estimate *= organicFactor
	}
	if uc := unitFactor(v.Unit); !unitPriced && uc > packFactorFloor {
		estimate *= uc
	}
	return estimate
}

// keywordBase matches well-known product name fragments, with unit-specific
// sub-rules for bundled produce and the multi-unit beverages. The second
// return reports whether the base already prices the whole pack, in which
// case the generic unit multiplier must not be applied on top.
func keywordBase(name, unit string) (float64, bool) {
	folded := catalog.Fold(name)
	switch {
	case strings.Contains(folded, "banan"):
		if unit == "bundt" {
			return 22.0, true
		}
		return 4.5, false
	case strings.Contains(folded, "maelk") || strings.Contains(folded, "milk"):
		return 9.5, false
	case strings.Contains(folded, "cola"):
		switch unit {
		case "24-pak":
			return 115.0, true
		case "6-pak":
			return 35.0, true
		default:
			return 6.0, false
		}
	default:
		return defaultBase, false
	}
}

// unitFactor is the pack-size multiplier per unit label.
func unitFactor(unit string) float64 {
	switch strings.ToLower(unit) {
	case "bundt":
		return 4.5
	case "6-pak":
		return 6.0
	case "24-pak":
		return 24.0
	default:
		// kg, ltr, l, stk and unknown labels are single-unit
		return 1.0
	}
}

// skuBase is the fixed price table for known SKUs, with unit- and
// organic-specific values. Returns false for identifiers not in the table.
func skuBase(productID string, v catalog.Variant) (float64, bool) {
	organic := func(yes, no float64) float64 {
		if v.Organic {
			return yes
		}
		return no
	}

	switch productID {

	// produce
	case "banana":
		if v.Unit == "bundt" {
			return organic(24.0, 20.0), true
		}
		return organic(5.5, 4.0), true
	case "apple-red":
		if v.Unit == "kg" {
			return organic(26.0, 22.0), true
		}
		return organic(4.5, 3.5), true
	case "pear":
		if v.Unit == "kg" {
			return organic(28.0, 24.0), true
		}
		return organic(5.0, 4.0), true
	case "cucumber":
		return organic(14.0, 10.0), true
	case "tomato":
		if v.Unit == "kg" {
			return organic(36.0, 30.0), true
		}
		return organic(18.0, 15.0), true // tray
	case "iceberg":
		return organic(18.0, 15.0), true
	case "potato":
		if v.Unit == "kg" {
			return organic(16.0, 12.0), true
		}
		return organic(26.0, 20.0), true // bag
	case "carrot":
		if v.Unit == "kg" {
			return organic(16.0, 12.0), true
		}
		return organic(18.0, 14.0), true // bag
	case "onion-yellow":
		if v.Unit == "kg" {
			return 10.0, true
		}
		return 12.0, true // bag

	// dairy and bakery
	case "milk-1l", "milk-skim-1l":
		return organic(12.0, 9.0), true
	case "yoghurt-1l":
		return organic(18.0, 15.0), true
	case "butter-200g":
		return organic(24.0, 20.0), true
	case "cheese-slice-400g":
		return organic(40.0, 32.0), true
	case "eggs-10":
		return organic(36.0, 28.0), true
	case "rye-bread-1kg":
		return organic(24.0, 18.0), true
	case "white-bread-600g":
		return 16.0, true

	// pantry
	case "pasta-penne-500g", "spaghetti-500g":
		return 12.0, true
	case "rice-jasmine-1kg":
		return 20.0, true
	case "tuna-185g":
		return 14.0, true
	case "tomato-chopped-400g":
		return 8.0, true
	case "baked-beans-415g":
		return 10.0, true
	case "corn-340g":
		return 10.0, true
	case "chickpeas-400g":
		return 9.0, true
	case "coffee-400g":
		return 40.0, true
	case "sugar-1kg":
		return 11.0, true

	// beverages
	case "cola-330":
		switch v.Unit {
		case "24-pak":
			return 120.0, true
		case "6-pak":
			return 36.0, true
		default:
			return 6.0, true
		}
	case "pepsi-max-330":
		switch v.Unit {
		case "24-pak":
			return 110.0, true
		case "6-pak":
			return 34.0, true
		default:
			return 5.5, true
		}
	case "water-still-1_5l":
		if v.Unit == "6-pak" {
			return 36.0, true
		}
		return 7.0, true
	}

	return 0, false
}
