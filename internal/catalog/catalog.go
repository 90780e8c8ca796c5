// Package catalog holds the product catalog: products with their sale
// variants, plus the barcode overlay used to resolve a variant to an EAN
// for remote price lookups.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Variant is a unit of sale for a product. Two variants are equal iff
// unit, organic flag and barcode all match.
type Variant struct {
	Unit    string `json:"unit"`              // "stk", "kg", "bundt", "6-pak", "24-pak", "ltr", ...
	Organic bool   `json:"organic"`           // organic produce variant
	Barcode string `json:"ean,omitempty"`     // optional EAN for remote lookups
}

// Product is a catalog entry. Variants keep their catalog order.
// Products are immutable after the catalog is loaded.
type Product struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Variants []Variant `json:"variants"`
}

// DefaultVariant returns the first catalog variant, or a plain per-piece
// variant for products without any.
func (p Product) DefaultVariant() Variant {
	if len(p.Variants) > 0 {
		return p.Variants[0]
	}
	return Variant{Unit: "stk"}
}

// VariantKey identifies a (product, unit, organic) combination. It replaces
// the "productId|unit|0/1" string keys of the barcode overlay wire format
// with a collision-free struct key.
type VariantKey struct {
	ProductID string
	Unit      string
	Organic   bool
}

// Catalog is an immutable in-memory product catalog with a barcode overlay.
type Catalog struct {
	products []Product
	byID     map[string]Product
	folded   map[string]string // product id -> folded name, for search
	barcodes map[VariantKey]string
	logger   zerolog.Logger
}

// New builds a catalog from already-parsed products and an optional barcode
// overlay. The slices and maps are copied; callers keep ownership of theirs.
func New(products []Product, barcodes map[VariantKey]string) *Catalog {
	c := &Catalog{
		products: make([]Product, len(products)),
		byID:     make(map[string]Product, len(products)),
		folded:   make(map[string]string, len(products)),
		barcodes: make(map[VariantKey]string, len(barcodes)),
		logger:   log.With().Str("component", "catalog").Logger(),
	}
	copy(c.products, products)
	for _, p := range c.products {
		c.byID[p.ID] = p
		c.folded[p.ID] = Fold(p.Name)
	}
	for k, v := range barcodes {
		c.barcodes[k] = v
	}
	return c
}

// LoadFile reads a product catalog from a JSON file, falling back to the
// built-in catalog when the file is missing or malformed.
func LoadFile(path string) *Catalog {
	logger := log.With().Str("component", "catalog").Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Catalog file not readable, using built-in catalog")
		return New(FallbackProducts(), nil)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Catalog file malformed, using built-in catalog")
		return New(FallbackProducts(), nil)
	}

	logger.Info().Int("products", len(products)).Str("path", path).Msg("Loaded catalog")
	return New(products, nil)
}

// LoadBarcodeFile reads a barcode overlay from a JSON file. The wire format
// is a flat object keyed by "productId|unit|0/1". Malformed keys are skipped.
func LoadBarcodeFile(path string) (map[VariantKey]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing barcode map %s: %w", path, err)
	}

	return ParseBarcodeMap(raw), nil
}

// ParseBarcodeMap converts the "productId|unit|0/1" wire keys into struct
// keys. Entries whose key does not have exactly three segments are dropped.
func ParseBarcodeMap(raw map[string]string) map[VariantKey]string {
	out := make(map[VariantKey]string, len(raw))
	for key, ean := range raw {
		parts := strings.Split(key, "|")
		if len(parts) != 3 || ean == "" {
			continue
		}
		out[VariantKey{
			ProductID: parts[0],
			Unit:      parts[1],
			Organic:   parts[2] == "1",
		}] = ean
	}
	return out
}

// WithBarcodes returns a copy of the catalog with the given barcode overlay.
func (c *Catalog) WithBarcodes(barcodes map[VariantKey]string) *Catalog {
	return New(c.products, barcodes)
}

// All returns the products in catalog order.
func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Get returns the product with the given id.
func (c *Catalog) Get(id string) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Search returns products whose display name contains the query, ignoring
// case and Danish diacritics, in catalog order. An empty query matches
// nothing.
func (c *Catalog) Search(query string) []Product {
	q := Fold(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Product
	for _, p := range c.products {
		if strings.Contains(c.folded[p.ID], q) {
			out = append(out, p)
		}
	}
	return out
}

// Barcode resolves the EAN for a product variant: the variant's own barcode
// wins, then the overlay keyed by (product, unit, organic). Empty means no
// barcode is known and the caller must price heuristically.
func (c *Catalog) Barcode(productID string, v Variant) string {
	if v.Barcode != "" {
		return v.Barcode
	}
	return c.barcodes[VariantKey{ProductID: productID, Unit: v.Unit, Organic: v.Organic}]
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// danishFolder maps the Danish letters to their conventional ASCII spellings,
// so "fotex" matches "Føtex". It runs before the diacritic stripper, which
// would otherwise reduce å to a plain a.
var danishFolder = strings.NewReplacer("ø", "o", "æ", "ae", "å", "aa")

// Fold lower-cases a string and strips diacritics for matching purposes.
func Fold(s string) string {
	s = danishFolder.Replace(strings.ToLower(s))
	if folded, _, err := transform.String(foldTransformer, s); err == nil {
		s = folded
	}
	return s
}

// FallbackProducts is the built-in minimal catalog used when no catalog file
// is configured or readable.
func FallbackProducts() []Product {
	return []Product{
		{
			ID:   "banana",
			Name: "Banan",
			Variants: []Variant{
				{Unit: "stk"},
				{Unit: "bundt"},
				{Unit: "stk", Organic: true},
				{Unit: "bundt", Organic: true},
			},
		},
		{
			ID:   "milk-1l",
			Name: "Mælk Let 1L",
			Variants: []Variant{
				{Unit: "ltr"},
				{Unit: "ltr", Organic: true},
			},
		},
		{
			ID:   "cola-330",
			Name: "Cola 330ml",
			Variants: []Variant{
				{Unit: "stk"},
				{Unit: "6-pak"},
				{Unit: "24-pak"},
			},
		},
	}
}
