package pricing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks price cache hits.
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_cache_hits_total",
		Help: "Total number of price cache hits",
	})

	// cacheMisses tracks price cache misses, expired entries included.
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_cache_misses_total",
		Help: "Total number of price cache misses",
	})

	// remoteLookups tracks remote price lookups by outcome.
	remoteLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_remote_lookups_total",
		Help: "Total number of remote price lookups by outcome",
	}, []string{"outcome"}) // outcome: ok, unavailable

	// heuristicFallbacks tracks line items priced heuristically.
	heuristicFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_heuristic_fallbacks_total",
		Help: "Total number of line items priced by the heuristic estimator",
	}, []string{"reason"}) // reason: no_barcode, remote_unavailable

	// compareDuration tracks end-to-end FindCheapest duration.
	compareDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_compare_duration_seconds",
		Help:    "Time taken to rank stores for a shopping list",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	// listSize tracks the distribution of shopping list sizes.
	listSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_list_items_count",
		Help:    "Number of line items in compare requests",
		Buckets: []float64{1, 2, 5, 10, 20, 50},
	})

	// candidateStores tracks the number of stores left after geo filtering.
	candidateStores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_candidate_stores_count",
		Help:    "Number of candidate stores after geographic filtering",
		Buckets: []float64{1, 2, 3, 5, 10, 20},
	})

	// priorKeys reports the size of the learned prior table.
	priorKeys = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pricing_prior_keys",
		Help: "Number of learned price prior keys",
	})

	// cacheEntries reports the observation cache size, stale entries
	// included. The cache is never swept; this is the growth watch.
	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pricing_cache_entries",
		Help: "Number of price observations held in the cache",
	})
)

// MetricsRecorder provides methods to record pricing engine metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordCacheHit records a price cache hit.
func (m *MetricsRecorder) RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records a price cache miss.
func (m *MetricsRecorder) RecordCacheMiss() {
	cacheMisses.Inc()
}

// RecordRemoteLookup records a remote lookup outcome.
func (m *MetricsRecorder) RecordRemoteLookup(ok bool) {
	if ok {
		remoteLookups.WithLabelValues("ok").Inc()
	} else {
		remoteLookups.WithLabelValues("unavailable").Inc()
	}
}

// RecordHeuristicFallback records a line item priced heuristically.
func (m *MetricsRecorder) RecordHeuristicFallback(reason string) {
	heuristicFallbacks.WithLabelValues(reason).Inc()
}

// RecordCompare records a FindCheapest call.
func (m *MetricsRecorder) RecordCompare(duration time.Duration, items, candidates int) {
	compareDuration.Observe(duration.Seconds())
	listSize.Observe(float64(items))
	candidateStores.Observe(float64(candidates))
}

// RecordTableSizes updates the prior table and cache size gauges.
func (m *MetricsRecorder) RecordTableSizes(priors, entries int) {
	priorKeys.Set(float64(priors))
	cacheEntries.Set(float64(entries))
}
