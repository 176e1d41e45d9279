package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offer-board/internal/config"
	"offer-board/internal/database"
	"offer-board/internal/handler"
	"offer-board/internal/logging"
	"offer-board/internal/middleware"
	"offer-board/internal/service"
)

func testRouter(t *testing.T, cfg *config.Config, limiter *middleware.RateLimiter) http.Handler {
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "api.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := handler.NewHandler(service.NewService(db, nil, nil), logging.Discard())
	return newAPIRouter(cfg, h, logging.Discard(), limiter)
}

func TestAPIRouter_ServesOffersAndMetrics(t *testing.T) {
	cfg := config.Load()
	r := testRouter(t, cfg, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/offers",
		strings.NewReader(`{"title":"t","description":"d","price":"10"}`)))
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "offerboard_http_requests_total")
}

func TestAPIRouter_CORS(t *testing.T) {
	cfg := config.Load()
	cfg.Security.AllowedOrigins = "http://board.local"
	r := testRouter(t, cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/offers", nil)
	req.Header.Set("Origin", "http://board.local")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://board.local", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/offers", nil)
	req.Header.Set("Origin", "http://elsewhere.local")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIRouter_RateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)
	r := testRouter(t, config.Load(), limiter)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}
