package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/launchpadder/launchpadder/core"
	"github.com/launchpadder/launchpadder/x/ratelimit"
)

func gatedEcho(limiter ratelimit.Store) *echo.Echo {
	e := echo.New()
	middleware := NewMiddleware(NewService(testConfig, nil, nil), limiter, nil)

	group := e.Group("/api", middleware.Gate)
	group.GET("/submissions", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	group.POST("/submissions", func(c echo.Context) error {
		return c.JSON(http.StatusCreated, echo.Map{"status": "ok"})
	})

	return e
}

func TestGateAllowsAnonymousPublicPath(t *testing.T) {
	e := gatedEcho(ratelimit.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/submissions", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestGateRejectsAnonymousProtectedPath(t *testing.T) {
	e := gatedEcho(ratelimit.NewMemoryStore())

	req := httptest.NewRequest(http.MethodPost, "/api/submissions", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestGateEnforcesPublicQuota(t *testing.T) {
	e := gatedEcho(ratelimit.NewMemoryStore())

	limit := ratelimit.TierLimits[core.TierPublic].Limit
	var rec *httptest.ResponseRecorder
	for i := 0; i < limit+1; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/submissions", nil)
		req.Header.Set(echo.HeaderXRealIP, "203.0.113.9")
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
	}

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestGateFailsOpenOnBrokenStore(t *testing.T) {
	e := gatedEcho(brokenStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/submissions", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

type brokenStore struct{}

func (brokenStore) Check(ctx context.Context, key string, tier string) (ratelimit.Result, error) {
	return ratelimit.Result{}, assert.AnError
}
