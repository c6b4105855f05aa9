package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"meditriage/internal/analytics"
	"meditriage/internal/apperror"
	"meditriage/internal/catalog"
	"meditriage/internal/config"
	"meditriage/internal/health"
	"meditriage/internal/report"
	"meditriage/internal/selfcare"
	"meditriage/internal/triage"
)

type stubService struct{}

func (stubService) PerformTriage(context.Context, triage.Request) (*triage.Result, error) {
	return &triage.Result{UrgencyLevel: triage.UrgencySelfCare}, nil
}

type validConfig struct{}

func (validConfig) ValidateConfiguration(context.Context) (bool, []string) { return true, nil }

func testConfig(env string) *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "MediTriage API", Env: env, Version: "1.0.0"},
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second, CORSOrigin: "*"},
		RateLimit: config.RateLimitConfig{
			Enabled: true,
			Window:  time.Minute,
			General: 100,
			Triage:  1,
			Search:  100,
		},
	}
}

func testRouter(cfg *config.Config) http.Handler {
	nop := zap.NewNop()
	var repo catalog.Repository
	var logs analytics.Store
	return newRouter(cfg, handlers{
		health:    health.NewHandler(health.Dependencies{DB: health.PingFunc(func(context.Context) error { return nil }), RedFlags: validConfig{}}, nop),
		triage:    triage.NewHandler(stubService{}, "notice", nop),
		catalog:   catalog.NewHandler(repo, nop),
		analytics: analytics.NewHandler(logs, nop),
		report:    report.NewHandler(logs, report.NewRenderer(nil), "notice", nop),
		selfcare:  selfcare.NewHandler(triage.NewRedFlagDetector(triage.DefaultConfig(), nil, nil, nop), nop),
	}, nop)
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:5000"
	h.ServeHTTP(rec, req)
	return rec
}

func TestRootInfo(t *testing.T) {
	rec := do(testRouter(testConfig("test")), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"MediTriage API"`)
	assert.Contains(t, rec.Body.String(), `"triage":"/api/v1/triage"`)
}

func TestUnknownRoute(t *testing.T) {
	rec := do(testRouter(testConfig("test")), http.MethodGet, "/api/v1/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), apperror.CodeNotFound)
}

func TestHealthAndSelfCareMounted(t *testing.T) {
	r := testRouter(testConfig("test"))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health/ready", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/self-care?symptom=fever", "").Code)
}

func TestTriageRateLimit(t *testing.T) {
	r := testRouter(testConfig("production"))

	first := do(r, http.MethodPost, "/api/v1/triage", `{}`)
	second := do(r, http.MethodPost, "/api/v1/triage", `{}`)

	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), apperror.CodeTriageRateLimited)
}

func TestRateLimitsOffInTestEnv(t *testing.T) {
	r := testRouter(testConfig("test"))

	for i := 0; i < 3; i++ {
		assert.NotEqual(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/api/v1/triage", `{}`).Code)
	}
}
