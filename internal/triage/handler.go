package triage

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"meditriage/internal/apperror"
	"meditriage/internal/logger"
	"meditriage/internal/platform/httpx"
)

const maxRequestBody = 64 << 10

// failureMessage is shown when the pipeline itself fails; users must still be
// pointed at professional care.
const failureMessage = "Failed to analyze symptoms. Please try again. If you are experiencing severe or worsening symptoms, contact a healthcare provider or call your local emergency number now."

type Handler struct {
	svc      Service
	validate *validator.Validate
	notice   string
	log      *zap.Logger
}

func NewHandler(svc Service, notice string, log *zap.Logger) *Handler {
	return &Handler{svc: svc, validate: NewValidator(), notice: notice, log: log}
}

// Analyze handles POST /api/v1/triage.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		httpx.Error(w, r, apperror.Validation("Invalid request body"))
		return
	}

	// Stored assessments are only reachable through a server-issued id; the
	// client's own id is kept as a reference.
	req.ClientReference = SanitizeSessionID(req.SessionID)
	req.SessionID = NewSessionID()

	if err := ValidateRequest(h.validate, req); err != nil {
		httpx.Error(w, r, err)
		return
	}

	result, err := h.svc.PerformTriage(r.Context(), req)
	if err != nil {
		logger.FromContext(r.Context(), h.log).Error("triage endpoint failed",
			zap.Error(err), zap.String("session_id", req.SessionID))
		appErr := apperror.Internal(failureMessage, err)
		appErr.Details = []apperror.Detail{{Field: "disclaimer", Message: h.notice}}
		httpx.Error(w, r, appErr)
		return
	}

	meta := httpx.NewMeta(r)
	meta.SessionID = req.SessionID
	meta.ResponseTime = fmt.Sprintf("%dms", time.Since(start).Milliseconds())
	httpx.SuccessWithMeta(w, result, meta)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/triage", h.Analyze)
}
