package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meditriage/internal/apperror"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	Success(w, r, map[string]string{"ok": "yes"})
})

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apperror.ErrNotFound, http.StatusNotFound, apperror.CodeNotFound},
		{"unavailable", apperror.ErrUnavailable, http.StatusServiceUnavailable, apperror.CodeUnavailable},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, apperror.CodeInternal},
		{"typed", apperror.BadRequest(apperror.CodeQueryTooShort, "short"), http.StatusBadRequest, apperror.CodeQueryTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["error"].(map[string]interface{})["code"])
			assert.NotContains(t, rec.Body.String(), "pq:")
		})
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2, time.Minute, apperror.CodeTriageRateLimited, TriageLimitMessage)(okHandler)

	var codes []int
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/triage", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Contains(t, last.Body.String(), apperror.CodeTriageRateLimited)
	assert.Contains(t, last.Body.String(), TriageLimitMessage)

	other := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/triage", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	h.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestCORS(t *testing.T) {
	h := CORS("https://app.example")(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
