package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"meditriage/internal/analytics"
	"meditriage/internal/apperror"
	"meditriage/internal/catalog"
	"meditriage/internal/config"
	"meditriage/internal/health"
	"meditriage/internal/logger"
	"meditriage/internal/platform/httpx"
	"meditriage/internal/report"
	"meditriage/internal/selfcare"
	"meditriage/internal/transcribe"
	"meditriage/internal/triage"
)

type handlers struct {
	health     *health.Handler
	triage     *triage.Handler
	catalog    *catalog.Handler
	analytics  *analytics.Handler
	report     *report.Handler
	selfcare   *selfcare.Handler
	transcribe *transcribe.Handler
}

type apiInfo struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}

func newRouter(cfg *config.Config, h handlers, log *zap.Logger) chi.Router {
	general, triageLimit, searchLimit := httpx.Passthrough, httpx.Passthrough, httpx.Passthrough
	if cfg.RateLimited() {
		rl := cfg.RateLimit
		general = httpx.RateLimit(rl.General, rl.Window, apperror.CodeRateLimited, httpx.GeneralLimitMessage)
		triageLimit = httpx.RateLimit(rl.Triage, rl.Window, apperror.CodeTriageRateLimited, httpx.TriageLimitMessage)
		searchLimit = httpx.RateLimit(rl.Search, rl.Window, apperror.CodeSearchRateLimited, httpx.SearchLimitMessage)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(httpx.CORS(cfg.Server.CORSOrigin))
	r.Use(general)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, r, apperror.NotFound(apperror.CodeNotFound, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path)))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, apiInfo{
			Name:        cfg.App.Name,
			Version:     cfg.App.Version,
			Description: "Medical symptom checker and triage assistant",
			Endpoints: map[string]string{
				"health":   "/health",
				"symptoms": "/api/v1/symptoms",
				"triage":   "/api/v1/triage",
				"selfCare": "/api/v1/self-care",
			},
		})
	})

	health.RegisterRoutes(r, h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

		r.Group(func(r chi.Router) {
			r.Use(triageLimit)
			triage.RegisterRoutes(r, h.triage)
		})
		r.Group(func(r chi.Router) {
			r.Use(searchLimit)
			catalog.RegisterRoutes(r, h.catalog)
			selfcare.RegisterRoutes(r, h.selfcare)
		})
		analytics.RegisterRoutes(r, h.analytics)
		report.RegisterRoutes(r, h.report)
		if h.transcribe != nil {
			transcribe.RegisterRoutes(r, h.transcribe)
		}
	})

	return r
}
