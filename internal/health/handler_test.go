package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meditriage/internal/alert"
)

type validator struct {
	valid  bool
	issues []string
}

func (v validator) ValidateConfiguration(context.Context) (bool, []string) {
	return v.valid, v.issues
}

func ok(context.Context) error { return nil }

func down(context.Context) error { return errors.New("connection refused") }

func serve(t *testing.T, deps Dependencies, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(deps, zap.NewNop()))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestBasicAndLive(t *testing.T) {
	deps := Dependencies{DB: PingFunc(down), RedFlags: validator{}}

	rec := serve(t, deps, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, serviceName, st.Service)
	assert.Equal(t, "1.0.0", st.Version)
	assert.Nil(t, st.Checks)

	rec = serve(t, deps, "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"alive":true}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	rec := serve(t, Dependencies{DB: PingFunc(ok)}, "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ready":true}`, rec.Body.String())

	rec = serve(t, Dependencies{DB: PingFunc(down)}, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"ready":false}`, rec.Body.String())
}

func TestDetailedHealthy(t *testing.T) {
	deps := Dependencies{
		DB:          PingFunc(ok),
		Pool:        func() sql.DBStats { return sql.DBStats{OpenConnections: 3, InUse: 1, Idle: 2} },
		Redis:       PingFunc(down),
		RedFlags:    validator{valid: true},
		Degradation: func() alert.Stats { return alert.Stats{ConditionStoreFailures: 4} },
	}

	rec := serve(t, deps, "/health/detailed")

	require.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "healthy", st.Status)
	require.NotNil(t, st.Checks)
	assert.Equal(t, "healthy", st.Checks.Database.Status)
	assert.Equal(t, &PoolStatus{Open: 3, InUse: 1, Idle: 2}, st.Checks.Database.Pool)
	assert.Equal(t, "valid", st.Checks.RedFlagConfiguration.Status)
	assert.Empty(t, st.Checks.RedFlagConfiguration.Issues)
	require.NotNil(t, st.Checks.Redis)
	assert.Equal(t, "unhealthy", st.Checks.Redis.Status)
	require.NotNil(t, st.Checks.Degradation)
	assert.Equal(t, int64(4), st.Checks.Degradation.ConditionStoreFailures)
}

func TestDetailedUnhealthy(t *testing.T) {
	tests := []struct {
		name string
		deps Dependencies
	}{
		{"database down", Dependencies{DB: PingFunc(down), RedFlags: validator{valid: true}}},
		{"no red flags", Dependencies{DB: PingFunc(ok), RedFlags: validator{issues: []string{"No red flag symptoms found in database"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.deps, "/health/detailed")

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			var st Status
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
			assert.Equal(t, "unhealthy", st.Status)
		})
	}
}
