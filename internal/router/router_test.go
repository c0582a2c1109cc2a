package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/loan-manager/internal/config"
	"github.com/javajoker/loan-manager/internal/middleware"
	"github.com/javajoker/loan-manager/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{ClientURL: "http://localhost:3000"},
		Redis:     config.RedisConfig{IdempotencyTTL: 300},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		Metrics:   config.MetricsConfig{Enabled: true},
	}
}

func newServer(t *testing.T, cfg *config.Config, rdb *redis.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := Initialize(testutil.NewTestDB(t), rdb, cfg)
	t.Cleanup(srv.Close)
	require.NotNil(t, srv.Analytics)
	return srv.Engine
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthCarriesRequestID(t *testing.T) {
	r := newServer(t, testConfig(), nil)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestIndexAndUnknownRoute(t *testing.T) {
	r := newServer(t, testConfig(), nil)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newServer(t, testConfig(), nil)
	serve(r, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "loan_manager_http_requests_total")

	cfg := testConfig()
	cfg.Metrics.Enabled = false
	r = newServer(t, cfg, nil)
	assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestCreateIsIdempotentWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	r := newServer(t, testConfig(), rdb)

	body, err := json.Marshal(map[string]interface{}{
		"fullName":         "Jane Applicant",
		"email":            "jane@example.com",
		"phone":            "555-0100",
		"address":          "12 Market Street",
		"loanAmount":       25000,
		"loanType":         "personal",
		"loanPurpose":      "Consolidate existing debt",
		"employmentStatus": "employed",
		"monthlyIncome":    5200,
		"creditScore":      720,
	})
	require.NoError(t, err)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/applications", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.IdempotencyKeyHeader, "create-jane")
		return serve(r, req)
	}

	first := post()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	// without the key the repeat would fail as a duplicate email
	second := post()
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(middleware.IdempotentReplayHeader))
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestStaticDirServesSPA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	cfg := testConfig()
	cfg.Server.StaticDir = dir
	r := newServer(t, cfg, nil)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/dashboard/applications", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app")

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
