package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smartkurv/pricing-service/internal/catalog"
	"github.com/smartkurv/pricing-service/internal/list"
	"github.com/smartkurv/pricing-service/internal/pricing"
)

// API holds the handler dependencies. Constructed explicitly at startup;
// there is no ambient global state.
type API struct {
	Finder  *pricing.Finder
	Catalog *catalog.Catalog
	Logger  zerolog.Logger
}

// NewAPI creates the handler set.
func NewAPI(finder *pricing.Finder, cat *catalog.Catalog) *API {
	return &API{
		Finder:  finder,
		Catalog: cat,
		Logger:  log.With().Str("component", "api").Logger(),
	}
}

// CompareItem is one line item of a compare request.
type CompareItem struct {
	ProductID string `json:"productId" binding:"required"`
	Unit      string `json:"unit" binding:"required"`
	Organic   bool   `json:"organic"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// Location is a user position.
type Location struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

// CompareRequest asks for the cheapest stores for a shopping list.
type CompareRequest struct {
	Items        []CompareItem `json:"items" binding:"required,min=1,dive"`
	Location     *Location     `json:"location,omitempty"`
	RadiusMeters float64       `json:"radiusMeters,omitempty"`
}

// StoreTotal is one ranked result.
type StoreTotal struct {
	StoreName string  `json:"storeName"`
	Total     float64 `json:"total"`
}

// CompareResponse carries the ranked store totals. Message is set for the
// "nothing found nearby" condition.
type CompareResponse struct {
	Results []StoreTotal `json:"results"`
	Message string       `json:"message,omitempty"`
}

// Compare handles POST /v1/compare.
func (a *API) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l := list.New()
	for _, it := range req.Items {
		product, ok := a.Catalog.Get(it.ProductID)
		if !ok {
			// Unknown products still price via the heuristic default;
			// the engine needs only an identifier and a display name.
			product = catalog.Product{ID: it.ProductID, Name: it.ProductID}
		}
		l.Add(product, catalog.Variant{Unit: it.Unit, Organic: it.Organic}, it.Quantity)
	}

	var loc *pricing.Location
	if req.Location != nil {
		loc = &pricing.Location{Lat: req.Location.Latitude, Lon: req.Location.Longitude}
	}

	totals, err := a.Finder.FindCheapest(c.Request.Context(), l, loc, req.RadiusMeters)
	switch {
	case errors.Is(err, pricing.ErrEmptyList):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, pricing.ErrNoStoresNearby):
		c.JSON(http.StatusOK, CompareResponse{Results: []StoreTotal{}, Message: err.Error()})
		return
	case err != nil:
		a.Logger.Error().Err(err).Msg("Compare failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := CompareResponse{Results: make([]StoreTotal, 0, len(totals))}
	for _, t := range totals {
		resp.Results = append(resp.Results, StoreTotal{StoreName: t.StoreName, Total: t.Total})
	}
	c.JSON(http.StatusOK, resp)
}
