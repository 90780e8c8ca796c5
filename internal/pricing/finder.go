package pricing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/smartkurv/pricing-service/internal/catalog"
	"github.com/smartkurv/pricing-service/internal/list"
	"github.com/smartkurv/pricing-service/internal/stores"
)

// Finder ranks stores by estimated total cost for a shopping list. It owns
// the observation cache and the estimator's prior table; both are shared
// across all concurrent store evaluations and across calls for the life of
// the process.
type Finder struct {
	config    *Config
	directory *stores.Directory
	catalog   *catalog.Catalog
	remote    RemoteSource
	cache     *Cache
	estimator *Estimator
	metrics   *MetricsRecorder
	sem       *semaphore.Weighted
	logger    zerolog.Logger
}

// NewFinder creates a finder with a fresh cache and prior table.
func NewFinder(cfg *Config, dir *stores.Directory, cat *catalog.Catalog, remote RemoteSource) *Finder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Finder{
		config:    cfg,
		directory: dir,
		catalog:   cat,
		remote:    remote,
		cache:     NewCache(cfg.CacheTTL),
		estimator: NewEstimator(),
		metrics:   NewMetricsRecorder(),
		sem:       semaphore.NewWeighted(cfg.StoreConcurrency),
		logger:    log.With().Str("component", "finder").Logger(),
	}
}

// Cache exposes the observation cache for operational endpoints.
func (f *Finder) Cache() *Cache {
	return f.cache
}

// Estimator exposes the estimator for operational endpoints and offline
// totals.
func (f *Finder) Estimator() *Estimator {
	return f.estimator
}

// FindCheapest computes per-store totals for the list, filtered to stores
// within radiusMeters of loc, and returns the cheapest stores ranked
// ascending, capped at the configured top-N. A nil location includes all
// stores; a radius of zero or less uses the configured default.
//
// The only errors surfaced are ErrEmptyList and ErrNoStoresNearby; every
// per-item failure degrades to a heuristic estimate.
func (f *Finder) FindCheapest(ctx context.Context, l *list.ShoppingList, loc *Location, radiusMeters float64) ([]StoreTotal, error) {
	if l == nil || l.Empty() {
		return nil, ErrEmptyList
	}

	start := time.Now()
	radius := radiusMeters
	if radius <= 0 {
		radius = f.config.DefaultRadiusMeters
	}

	candidates := FilterByRadius(f.directory.All(), loc, radius)
	if len(candidates) == 0 {
		return nil, ErrNoStoresNearby
	}

	// Fan out one evaluation per store. Each store's total is written to
	// its own slot, so the candidate (directory) order survives as the
	// tie break for the stable sort below. Evaluations run to completion
	// even if the caller goes away; their cache writes stay useful.
	totals := make([]StoreTotal, len(candidates))
	var wg sync.WaitGroup
	for i, store := range candidates {
		if err := f.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(slot int, store stores.Store) {
			defer f.sem.Release(1)
			defer wg.Done()
			totals[slot] = f.storeTotal(ctx, l, store)
		}(i, store)
	}
	wg.Wait()

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total < totals[j].Total
	})
	if len(totals) > f.config.TopResults {
		totals = totals[:f.config.TopResults]
	}

	f.metrics.RecordCompare(time.Since(start), len(l.Items), len(candidates))
	f.metrics.RecordTableSizes(f.estimator.PriorCount(), f.cache.Len())

	f.logger.Debug().
		Int("items", len(l.Items)).
		Int("candidates", len(candidates)).
		Dur("duration", time.Since(start)).
		Msg("Ranked stores for list")

	return totals, nil
}

// storeTotal sums unit costs over all line items for one store. The total
// is rounded once, after summation, to avoid compounding per-item rounding
// error.
func (f *Finder) storeTotal(ctx context.Context, l *list.ShoppingList, store stores.Store) StoreTotal {
	sum := 0.0
	for _, item := range l.Items {
		sum += f.unitCost(ctx, item, store) * float64(item.Qty)
	}
	return StoreTotal{StoreName: store.Name, Total: Round2(sum)}
}

// unitCost resolves the per-unit cost of one line item at one store:
// barcode resolution, then cache, then remote lookup with write-through and
// prior update, then the heuristic estimate scaled by the chain factor.
func (f *Finder) unitCost(ctx context.Context, item list.Item, store stores.Store) float64 {
	barcode := f.catalog.Barcode(item.Product.ID, item.Variant)
	if barcode == "" {
		f.metrics.RecordHeuristicFallback("no_barcode")
		return f.heuristic(item, store)
	}

	if obs, ok := f.cache.Get(barcode, store.ID); ok {
		f.metrics.RecordCacheHit()
		return obs.PerUnitCost()
	}
	f.metrics.RecordCacheMiss()

	if obs, ok := f.remote.Fetch(ctx, barcode, store.ID); ok {
		f.metrics.RecordRemoteLookup(true)
		f.cache.Put(obs)
		f.estimator.Observe(item.Product, item.Variant, obs.PerUnitCost())
		return obs.PerUnitCost()
	}
	f.metrics.RecordRemoteLookup(false)

	// Failed lookups are not cached; the next call retries upstream.
	f.metrics.RecordHeuristicFallback("remote_unavailable")
	return f.heuristic(item, store)
}

// heuristic prices a line item without upstream data: the estimator's
// blended estimate scaled by the store's chain price level.
func (f *Finder) heuristic(item list.Item, store stores.Store) float64 {
	return f.estimator.Estimate(item.Product, item.Variant) * stores.ChainFactor(store.Name)
}

// EstimateListTotal computes an offline heuristic total for a list, without
// any network access. Used for history display.
func (f *Finder) EstimateListTotal(l *list.ShoppingList) float64 {
	if l == nil {
		return 0
	}
	sum := 0.0
	for _, item := range l.Items {
		sum += f.estimator.Estimate(item.Product, item.Variant) * float64(item.Qty)
	}
	return Round2(sum)
}
