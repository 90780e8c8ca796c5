package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartkurv/pricing-service/internal/catalog"
)

// CatalogVariant mirrors a catalog variant on the wire.
type CatalogVariant struct {
	Unit    string `json:"unit"`
	Organic bool   `json:"organic"`
	Barcode string `json:"ean,omitempty"`
}

// CatalogProduct mirrors a catalog product on the wire.
type CatalogProduct struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Variants []CatalogVariant `json:"variants"`
}

// SearchResponse carries catalog search results.
type SearchResponse struct {
	Products []CatalogProduct `json:"products"`
}

// SearchCatalog handles GET /v1/catalog/search?q=.
func (a *API) SearchCatalog(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	products := a.Catalog.Search(q)
	resp := SearchResponse{Products: make([]CatalogProduct, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, toWireProduct(p))
	}
	c.JSON(http.StatusOK, resp)
}

// ListCatalog handles GET /v1/catalog.
func (a *API) ListCatalog(c *gin.Context) {
	products := a.Catalog.All()
	resp := SearchResponse{Products: make([]CatalogProduct, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, toWireProduct(p))
	}
	c.JSON(http.StatusOK, resp)
}

func toWireProduct(p catalog.Product) CatalogProduct {
	out := CatalogProduct{
		ID:       p.ID,
		Name:     p.Name,
		Variants: make([]CatalogVariant, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, CatalogVariant{
			Unit:    v.Unit,
			Organic: v.Organic,
			Barcode: v.Barcode,
		})
	}
	return out
}
