package analytics

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"meditriage/internal/apperror"
	"meditriage/internal/logger"
	"meditriage/internal/platform/httpx"
	"meditriage/internal/triage"
)

type Handler struct {
	store Store
	log   *zap.Logger
}

func NewHandler(store Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// GetSession handles GET /triage/{sessionId}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if !triage.IsSessionID(sessionID) {
		httpx.Error(w, r, apperror.NotFound(apperror.CodeSessionNotFound, "No triage found for this session"))
		return
	}
	entry, err := h.store.GetBySession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			httpx.Error(w, r, apperror.NotFound(apperror.CodeSessionNotFound, "No triage found for this session"))
			return
		}
		logger.FromContext(r.Context(), h.log).Error("get triage log failed", zap.Error(err), zap.String("session_id", sessionID))
		httpx.Error(w, r, apperror.Internal("Failed to fetch triage result", err))
		return
	}

	meta := httpx.NewMeta(r)
	meta.SessionID = entry.SessionID
	httpx.SuccessWithMeta(w, entry, meta)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/triage/{sessionId}", h.GetSession)
}
