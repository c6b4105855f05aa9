package report

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"meditriage/internal/analytics"
	"meditriage/internal/apperror"
	"meditriage/internal/logger"
	"meditriage/internal/platform/httpx"
	"meditriage/internal/triage"
)

type Handler struct {
	store      analytics.Store
	renderer   *Renderer
	disclaimer string
	log        *zap.Logger
}

func NewHandler(store analytics.Store, renderer *Renderer, disclaimer string, log *zap.Logger) *Handler {
	return &Handler{store: store, renderer: renderer, disclaimer: disclaimer, log: log}
}

// Download handles GET /triage/{sessionId}/report.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if !triage.IsSessionID(sessionID) {
		httpx.Error(w, r, apperror.NotFound(apperror.CodeSessionNotFound, "No triage found for this session"))
		return
	}
	log := logger.FromContext(r.Context(), h.log).With(zap.String("session_id", sessionID))

	entry, err := h.store.GetBySession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			httpx.Error(w, r, apperror.NotFound(apperror.CodeSessionNotFound, "No triage found for this session"))
			return
		}
		log.Error("load triage for report failed", zap.Error(err))
		httpx.Error(w, r, apperror.Internal("Failed to build report", err))
		return
	}

	doc, err := FromLog(entry, h.disclaimer)
	if err != nil {
		log.Error("decode triage log failed", zap.Error(err))
		httpx.Error(w, r, apperror.Internal("Failed to build report", err))
		return
	}

	pdf, err := h.renderer.Render(doc)
	if err != nil {
		if errors.Is(err, ErrFontUnavailable) {
			log.Warn("pdf rendering unavailable", zap.Error(err))
			httpx.Error(w, r, fmt.Errorf("render report: %w", apperror.ErrUnavailable))
			return
		}
		log.Error("render report failed", zap.Error(err))
		httpx.Error(w, r, apperror.Internal("Failed to build report", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="triage_%s.pdf"`, sessionID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/triage/{sessionId}/report", h.Download)
}
