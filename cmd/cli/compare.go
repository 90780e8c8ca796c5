package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smartkurv/pricing-service/internal/catalog"
	"github.com/smartkurv/pricing-service/internal/list"
	"github.com/smartkurv/pricing-service/internal/pricing"
	"github.com/smartkurv/pricing-service/internal/stores"
)

var (
	compareLat     float64
	compareLon     float64
	compareRadius  float64
	compareOrganic bool
	compareOffline bool
	compareOutput  string
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <item>...",
	Short: "Find the cheapest stores for a shopping list",
	Long: `Price a shopping list against every store near the given location and
print the cheapest stores ranked by total. Each item is given as
productId[:unit[:qty]], for example banana:bundt:2 or milk-1l.

Output can be formatted as a human-readable table (default) or JSON.`,
	Example: `  pricing-service compare banana milk-1l
  pricing-service compare banana:bundt:2 --lat 55.676 --lon 12.568
  pricing-service compare cola-330:24-pak --radius 5000 --output json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().Float64Var(&compareLat, "lat", 0, "Latitude of the shopper")
	compareCmd.Flags().Float64Var(&compareLon, "lon", 0, "Longitude of the shopper")
	compareCmd.Flags().Float64Var(&compareRadius, "radius", 0, "Search radius in meters (default 2000)")
	compareCmd.Flags().BoolVar(&compareOrganic, "organic", false, "Price all items as organic")
	compareCmd.Flags().BoolVar(&compareOffline, "offline", false, "Skip live lookups and use estimates only")
	compareCmd.Flags().StringVar(&compareOutput, "output", "table", "Output format: table or json")
}

func runCompare(cmd *cobra.Command, args []string) error {
	cat := loadCatalog()

	l := list.New()
	for _, arg := range args {
		product, variant, qty, err := parseItem(cat, arg)
		if err != nil {
			return err
		}
		l.Add(product, variant, qty)
	}

	directory, err := loadDirectory()
	if err != nil {
		return err
	}

	logger.Info().Int("items", len(l.Items)).Int("stores", directory.Len()).Msg("Comparing prices")

	var remote pricing.RemoteSource
	if compareOffline {
		remote = offlineSource{}
	} else {
		clientCfg := pricing.DefaultClientConfig()
		if cfg != nil {
			clientCfg = cfg.Remote.ClientConfig()
		}
		remote = pricing.NewClient(clientCfg)
	}

	var pricingCfg *pricing.Config
	if cfg != nil {
		pricingCfg = &cfg.Pricing
	}
	finder := pricing.NewFinder(pricingCfg, directory, cat, remote)

	var loc *pricing.Location
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		loc = &pricing.Location{Lat: compareLat, Lon: compareLon}
	}

	results, err := finder.FindCheapest(context.Background(), l, loc, compareRadius)
	if err != nil {
		return err
	}

	switch strings.ToLower(compareOutput) {
	case "json":
		return outputCompareJSON(results)
	case "table":
		outputCompareTable(results)
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", compareOutput)
	}

	return nil
}

// parseItem resolves a productId[:unit[:qty]] argument against the catalog.
// Unknown products are priced purely by name heuristics.
func parseItem(cat *catalog.Catalog, arg string) (catalog.Product, catalog.Variant, int, error) {
	parts := strings.SplitN(arg, ":", 3)
	id := parts[0]

	product, ok := cat.Get(id)
	if !ok {
		product = catalog.Product{ID: id, Name: id}
	}

	variant := product.DefaultVariant()
	if len(parts) > 1 && parts[1] != "" {
		variant.Unit = parts[1]
	}
	variant.Organic = variant.Organic || compareOrganic

	qty := 1
	if len(parts) > 2 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return catalog.Product{}, catalog.Variant{}, 0, fmt.Errorf("invalid quantity in %q", arg)
		}
		qty = n
	}

	return product, variant, qty, nil
}

func loadCatalog() *catalog.Catalog {
	path := "./data/catalog.json"
	if cfg != nil && cfg.Catalog.Path != "" {
		path = cfg.Catalog.Path
	}
	cat := catalog.LoadFile(path)
	if cfg != nil && cfg.Catalog.BarcodePath != "" {
		if barcodes, err := catalog.LoadBarcodeFile(cfg.Catalog.BarcodePath); err == nil {
			cat = cat.WithBarcodes(barcodes)
		}
	}
	return cat
}

func loadDirectory() (*stores.Directory, error) {
	if cfg != nil && cfg.Stores.Path != "" {
		return stores.LoadFile(cfg.Stores.Path)
	}
	return stores.Default(), nil
}

// offlineSource never returns an observation, forcing every item onto the
// heuristic path.
type offlineSource struct{}

func (offlineSource) Fetch(context.Context, string, string) (pricing.PriceObservation, bool) {
	return pricing.PriceObservation{}, false
}

func outputCompareTable(results []pricing.StoreTotal) {
	if len(results) == 0 {
		fmt.Println("No prices found nearby")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RANK\tSTORE\tTOTAL")
	fmt.Fprintln(w, "----\t-----\t-----")

	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%.2f\n", i+1, r.StoreName, r.Total)
	}

	w.Flush()
}

func outputCompareJSON(results []pricing.StoreTotal) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}
