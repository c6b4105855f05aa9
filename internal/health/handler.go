package health

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"meditriage/internal/alert"
	"meditriage/internal/logger"
	"meditriage/internal/platform/httpx"
)

const serviceName = "meditriage-backend"

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type ConfigValidator interface {
	ValidateConfiguration(ctx context.Context) (bool, []string)
}

// Dependencies are the things the health checks look at. DB and RedFlags are
// required; the rest are reported when set.
type Dependencies struct {
	DB          Pinger
	Pool        func() sql.DBStats
	Redis       Pinger
	RedFlags    ConfigValidator
	Degradation func() alert.Stats
	Version     string
	Timeout     time.Duration
}

type Handler struct {
	deps Dependencies
	log  *zap.Logger
	now  func() time.Time
}

func NewHandler(deps Dependencies, log *zap.Logger) *Handler {
	if deps.Version == "" {
		deps.Version = "1.0.0"
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 3 * time.Second
	}
	return &Handler{deps: deps, log: log, now: time.Now}
}

type DatabaseCheck struct {
	Status  string      `json:"status"`
	Latency string      `json:"latency"`
	Pool    *PoolStatus `json:"pool,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type PoolStatus struct {
	Open      int   `json:"open"`
	InUse     int   `json:"inUse"`
	Idle      int   `json:"idle"`
	WaitCount int64 `json:"waitCount"`
}

type DependencyCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type ConfigCheck struct {
	Status string   `json:"status"`
	Issues []string `json:"issues"`
}

type Checks struct {
	Database             DatabaseCheck    `json:"database"`
	Redis                *DependencyCheck `json:"redis,omitempty"`
	RedFlagConfiguration ConfigCheck      `json:"redFlagConfiguration"`
	Degradation          *alert.Stats     `json:"degradation,omitempty"`
}

type Status struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Service   string  `json:"service"`
	Version   string  `json:"version"`
	Checks    *Checks `json:"checks,omitempty"`
}

func (h *Handler) status(state string) Status {
	return Status{
		Status:    state,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Service:   serviceName,
		Version:   h.deps.Version,
	}
}

// Basic handles GET /health.
func (h *Handler) Basic(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.status("healthy"))
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]bool{"alive": true})
}

// Ready handles GET /health/ready. Ready means the catalog database answers.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.Timeout)
	defer cancel()
	if err := h.deps.DB.Ping(ctx); err != nil {
		logger.FromContext(r.Context(), h.log).Warn("readiness check failed", zap.Error(err))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// Detailed handles GET /health/detailed. Redis and degradation counters are
// informational; only the database and the red-flag configuration decide
// the status code.
func (h *Handler) Detailed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.Timeout)
	defer cancel()

	checks := &Checks{Database: h.checkDatabase(ctx)}

	valid, issues := h.deps.RedFlags.ValidateConfiguration(ctx)
	checks.RedFlagConfiguration = ConfigCheck{Status: "valid", Issues: issues}
	if !valid {
		checks.RedFlagConfiguration.Status = "invalid"
	}
	if checks.RedFlagConfiguration.Issues == nil {
		checks.RedFlagConfiguration.Issues = []string{}
	}

	if h.deps.Redis != nil {
		checks.Redis = &DependencyCheck{Status: "healthy"}
		if err := h.deps.Redis.Ping(ctx); err != nil {
			checks.Redis = &DependencyCheck{Status: "unhealthy", Error: err.Error()}
		}
	}
	if h.deps.Degradation != nil {
		stats := h.deps.Degradation()
		checks.Degradation = &stats
	}

	healthy := checks.Database.Status == "healthy" && valid
	resp := h.status("healthy")
	resp.Checks = checks
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
		logger.FromContext(r.Context(), h.log).Warn("detailed health check unhealthy",
			zap.String("database", checks.Database.Status), zap.Strings("issues", issues))
	}
	httpx.JSON(w, code, resp)
}

func (h *Handler) checkDatabase(ctx context.Context) DatabaseCheck {
	start := time.Now()
	err := h.deps.DB.Ping(ctx)
	check := DatabaseCheck{Status: "healthy", Latency: fmt.Sprintf("%dms", time.Since(start).Milliseconds())}
	if err != nil {
		check.Status = "unhealthy"
		check.Error = err.Error()
	}
	if h.deps.Pool != nil {
		s := h.deps.Pool()
		check.Pool = &PoolStatus{Open: s.OpenConnections, InUse: s.InUse, Idle: s.Idle, WaitCount: s.WaitCount}
	}
	return check
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.Basic)
		r.Get("/live", h.Live)
		r.Get("/ready", h.Ready)
		r.Get("/detailed", h.Detailed)
	})
}
