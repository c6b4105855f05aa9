package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"meditriage/internal/apperror"
)

// Limiter messages.
const (
	GeneralLimitMessage = "Too many requests, please try again later"
	TriageLimitMessage  = "Too many triage requests, please wait before trying again"
	SearchLimitMessage  = "Too many search requests, please slow down"
)

// RateLimit allows limit requests per window and client IP, answering the
// rest with a 429 envelope carrying code.
func RateLimit(limit int, window time.Duration, code, message string) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			JSON(w, http.StatusTooManyRequests, Response{
				Success: false,
				Error:   apperror.TooManyRequests(code, message),
				Meta:    NewMeta(r),
			})
		}),
	)
}

// Passthrough is used in place of a limiter when limits are off.
func Passthrough(next http.Handler) http.Handler {
	return next
}

// CORS answers preflight requests and allows origin on every response.
func CORS(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Request-Id, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
