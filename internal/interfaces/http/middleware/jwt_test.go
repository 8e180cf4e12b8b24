package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/infrastructure/auth"
)

func newJWTTestRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(cfg))
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   GetJWTUserID(c),
			"tenant_id": GetJWTTenantID(c),
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := auth.NewJWTService("test-secret-at-least-32-characters!!", "storefront", time.Hour)

	t.Run("accepts a valid bearer token", func(t *testing.T) {
		r := newJWTTestRouter(JWTMiddlewareConfig{JWTService: svc})

		token, err := svc.GenerateAccessToken("user-1", "tenant-1", "")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "tenant-1")
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		r := newJWTTestRouter(JWTMiddlewareConfig{JWTService: svc})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects a tampered token", func(t *testing.T) {
		r := newJWTTestRouter(JWTMiddlewareConfig{JWTService: svc})

		token, err := svc.GenerateAccessToken("user-1", "tenant-1", "")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+token+"x")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("optional mode lets anonymous requests through", func(t *testing.T) {
		r := newJWTTestRouter(JWTMiddlewareConfig{JWTService: svc, Optional: true})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("skip paths bypass authentication", func(t *testing.T) {
		r := newJWTTestRouter(JWTMiddlewareConfig{JWTService: svc, SkipPaths: []string{"/health"}})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
