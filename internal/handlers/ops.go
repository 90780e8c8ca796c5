package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PriorStats reports the learned prior table for inspection.
type PriorStats struct {
	Count  int                `json:"count"`
	Priors map[string]float64 `json:"priors"`
}

// CacheStats reports the observation cache size. Entries are never swept,
// only ignored when stale, so this is the number to watch for growth.
type CacheStats struct {
	Entries int `json:"entries"`
}

// GetPriors handles GET /internal/priors.
func (a *API) GetPriors(c *gin.Context) {
	est := a.Finder.Estimator()
	c.JSON(http.StatusOK, PriorStats{
		Count:  est.PriorCount(),
		Priors: est.Priors(),
	})
}

// GetCacheStats handles GET /internal/cache.
func (a *API) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, CacheStats{Entries: a.Finder.Cache().Len()})
}
