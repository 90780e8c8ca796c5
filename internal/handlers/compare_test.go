package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartkurv/pricing-service/internal/catalog"
	"github.com/smartkurv/pricing-service/internal/pricing"
	"github.com/smartkurv/pricing-service/internal/stores"
)

// staticSource serves fixed per-unit prices keyed by "barcode|storeID".
type staticSource map[string]float64

func (s staticSource) Fetch(_ context.Context, barcode, storeID string) (pricing.PriceObservation, bool) {
	price, ok := s[barcode+"|"+storeID]
	if !ok {
		return pricing.PriceObservation{}, false
	}
	return pricing.PriceObservation{
		Barcode:    barcode,
		StoreID:    storeID,
		UnitPrice:  price,
		CapturedAt: time.Now(),
	}, true
}

func newTestRouter(remote pricing.RemoteSource) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cat := catalog.New([]catalog.Product{
		{ID: "milk-1l", Name: "Mælk Let 1L", Variants: []catalog.Variant{
			{Unit: "ltr", Barcode: "ean-milk"},
		}},
	}, nil)
	directory := stores.NewDirectory([]stores.Store{
		{ID: "store-a", Name: "Alpha Market", Lat: 55.6761, Lon: 12.5683},
		{ID: "store-b", Name: "Beta Market", Lat: 55.6784, Lon: 12.5710},
		{ID: "store-c", Name: "Gamma Market", Lat: 55.6740, Lon: 12.5650},
	})
	finder := pricing.NewFinder(nil, directory, cat, remote)
	api := NewAPI(finder, cat)

	router := gin.New()
	router.GET("/health", api.Health)
	router.POST("/v1/compare", api.Compare)
	router.GET("/v1/catalog", api.ListCatalog)
	router.GET("/v1/catalog/search", api.SearchCatalog)
	router.GET("/internal/priors", api.GetPriors)
	router.GET("/internal/cache", api.GetCacheStats)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(staticSource{})

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestCompareRanksStores(t *testing.T) {
	router := newTestRouter(staticSource{
		"ean-milk|store-a": 10.0,
		"ean-milk|store-b": 9.0,
		"ean-milk|store-c": 11.0,
	})

	w := doJSON(t, router, http.MethodPost, "/v1/compare", CompareRequest{
		Items: []CompareItem{{ProductID: "milk-1l", Unit: "ltr", Quantity: 2}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, StoreTotal{StoreName: "Beta Market", Total: 18.0}, resp.Results[0])
	assert.Equal(t, StoreTotal{StoreName: "Alpha Market", Total: 20.0}, resp.Results[1])
	assert.Empty(t, resp.Message)
}

func TestCompareValidation(t *testing.T) {
	router := newTestRouter(staticSource{})

	tests := []struct {
		name string
		body string
	}{
		{"Empty body", ``},
		{"No items", `{"items": []}`},
		{"Missing quantity", `{"items": [{"productId": "milk-1l", "unit": "ltr"}]}`},
		{"Zero quantity", `{"items": [{"productId": "milk-1l", "unit": "ltr", "quantity": 0}]}`},
		{"Missing unit", `{"items": [{"productId": "milk-1l", "quantity": 1}]}`},
		{"Bad latitude", `{"items": [{"productId": "milk-1l", "unit": "ltr", "quantity": 1}], "location": {"latitude": 200, "longitude": 0}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/compare", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

// TestCompareNoStoresNearby verifies the empty-neighborhood condition is a
// 200 with a message, not an error status.
func TestCompareNoStoresNearby(t *testing.T) {
	router := newTestRouter(staticSource{})

	w := doJSON(t, router, http.MethodPost, "/v1/compare", CompareRequest{
		Items:        []CompareItem{{ProductID: "milk-1l", Unit: "ltr", Quantity: 1}},
		Location:     &Location{Latitude: 56.1629, Longitude: 10.2039},
		RadiusMeters: 1000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Results)
	assert.Equal(t, "no prices found nearby", resp.Message)
}

func TestCompareUnknownProductPricedHeuristically(t *testing.T) {
	router := newTestRouter(staticSource{})

	w := doJSON(t, router, http.MethodPost, "/v1/compare", CompareRequest{
		Items: []CompareItem{{ProductID: "not-in-catalog", Unit: "stk", Quantity: 1}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 10.0, resp.Results[0].Total, "Unknown products fall back to the default estimate")
}

func TestListCatalog(t *testing.T) {
	router := newTestRouter(staticSource{})

	w := doJSON(t, router, http.MethodGet, "/v1/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "milk-1l", resp.Products[0].ID)
	require.Len(t, resp.Products[0].Variants, 1)
	assert.Equal(t, "ean-milk", resp.Products[0].Variants[0].Barcode)
}

func TestSearchCatalog(t *testing.T) {
	router := newTestRouter(staticSource{})

	w := doJSON(t, router, http.MethodGet, "/v1/catalog/search?q=maelk", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "milk-1l", resp.Products[0].ID)

	w = doJSON(t, router, http.MethodGet, "/v1/catalog/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOpsEndpoints(t *testing.T) {
	router := newTestRouter(staticSource{
		"ean-milk|store-a": 9.0,
		"ean-milk|store-b": 9.0,
		"ean-milk|store-c": 9.0,
	})

	// Warm the cache and priors with one comparison
	w := doJSON(t, router, http.MethodPost, "/v1/compare", CompareRequest{
		Items: []CompareItem{{ProductID: "milk-1l", Unit: "ltr", Quantity: 1}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/internal/priors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var priors PriorStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &priors))
	assert.Equal(t, 1, priors.Count)
	assert.Equal(t, 9.0, priors.Priors["milk-1l|ltr|0"])

	w = doJSON(t, router, http.MethodGet, "/internal/cache", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cache CacheStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cache))
	assert.Equal(t, 3, cache.Entries, "One observation per store should be cached")
}
