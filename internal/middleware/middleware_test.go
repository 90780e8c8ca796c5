package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newProtectedRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestInternalAuthMiddleware(t *testing.T) {
	t.Setenv("SMARTKURV_INTERNAL_KEY", "test-key")
	router := newProtectedRouter(InternalAuthMiddleware())

	tests := []struct {
		name     string
		key      string
		expected int
	}{
		{"Valid key", "test-key", http.StatusOK},
		{"Wrong key", "wrong", http.StatusUnauthorized},
		{"Missing key", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.key != "" {
				req.Header.Set("X-Internal-API-Key", tt.key)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

// TestInternalAuthFailsClosed verifies an unset key rejects everything rather
// than letting requests through.
func TestInternalAuthFailsClosed(t *testing.T) {
	t.Setenv("SMARTKURV_INTERNAL_KEY", "")
	router := newProtectedRouter(InternalAuthMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("X-Internal-API-Key", "anything")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	router := newProtectedRouter(RateLimitMiddleware(RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         3,
	}))

	var codes []int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{200, 200, 200, 429, 429}, codes, "Burst of 3 then rejections")
}

func TestRateLimitPerIP(t *testing.T) {
	router := newProtectedRouter(RateLimitMiddleware(RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
	}))

	// Use up one client's allowance
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different client is unaffected
	other := httptest.NewRequest(http.MethodGet, "/protected", nil)
	other.RemoteAddr = "10.0.0.2:12345"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code)
}
