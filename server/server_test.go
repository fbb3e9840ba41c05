package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-params/config"
	"github.com/gaborage/go-params/logger"
	"github.com/gaborage/go-params/params"
	"github.com/gaborage/go-params/source"
	"github.com/gaborage/go-params/types"
)

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	s := New(cfg, logger.NewWithWriter("debug", &buf), WithRouteRegistry(NewRouteRegistry()))
	return s, &buf
}

func TestServerProbes(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Path.Base = "/api/"
	s, _ := newTestServer(t, cfg)

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
}

func TestServerModuleGroupValidatesRequests(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Path.Base = "/api"
	s, buf := newTestServer(t, cfg)

	declared := []params.Param{params.MustNew("id", types.Int, source.FromPath)}
	require.NoError(t, GET(s.Registry(), s.ModuleGroup(), testOrderRoute, echoArgs, declared))
	assert.Len(t, s.Registry().Routes().ByPath("/api/orders/:id"), 1)

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/9", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Contains(t, buf.String(), `"params.validated":1`)
	assert.Contains(t, buf.String(), `"log.type":"action"`)

	buf.Reset()
	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/nine", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeInvalidType)
	assert.Contains(t, buf.String(), `"params.failed":true`)
	assert.Contains(t, buf.String(), `"result_code":"WARN"`)
}

func TestServerUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeNotFound)
}

func TestServerBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.BodyLimit = "1K"
	s, _ := newTestServer(t, cfg)

	declared := []params.Param{params.MustNew("name", types.String, source.FromJSON)}
	require.NoError(t, POST(s.Registry(), s.ModuleGroup(), "/items", echoArgs, declared))

	body := `{"name": "` + strings.Repeat("x", 2048) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeRequestTooLarge)
}

func TestServerRecoversPanics(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = config.EnvProduction
	s, buf := newTestServer(t, cfg)

	require.NoError(t, GET(s.Registry(), s.ModuleGroup(), "/boom", func(params.Values, HandlerContext) (string, IAPIError) {
		panic("boom")
	}, nil))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "An error occurred while processing your request")
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.Contains(t, buf.String(), "Panic recovered")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.App.Rate = config.RateConfig{Limit: 1, Burst: 1}
	s, _ := newTestServer(t, cfg)
	require.NoError(t, GET(s.Registry(), s.ModuleGroup(), "/limited", echoArgs, nil))

	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/limited", http.NoBody)
		req.RemoteAddr = "192.0.2.10:4000"
		rec := httptest.NewRecorder()
		s.Echo().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call().Code)
	rec := call()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeTooManyRequests)
}

func TestRateLimitDisabled(t *testing.T) {
	called := false
	h := RateLimit(config.RateConfig{})(func(echo.Context) error {
		called = true
		return nil
	})
	require.NoError(t, h(echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", http.NoBody), httptest.NewRecorder())))
	assert.True(t, called)
}

func TestDetermineSeverity(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		latency   time.Duration
		err       error
		wantLevel string
		wantCode  string
	}{
		{name: "ok", status: 200, latency: time.Millisecond, wantLevel: "info", wantCode: "INFO"},
		{name: "slow", status: 200, latency: 2 * time.Second, wantLevel: "info", wantCode: "WARN"},
		{name: "client error", status: 400, wantLevel: "warn", wantCode: "WARN"},
		{name: "server error", status: 503, wantLevel: "error", wantCode: "ERROR"},
		{name: "error without status", status: 0, err: assert.AnError, wantLevel: "error", wantCode: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, code := determineSeverity(tt.status, tt.latency, time.Second, tt.err)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
