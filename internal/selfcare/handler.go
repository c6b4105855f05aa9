package selfcare

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"meditriage/internal/apperror"
	"meditriage/internal/logger"
	"meditriage/internal/platform/httpx"
	"meditriage/internal/triage"
)

// Lookup finds advice for symptom. An exact key wins over a fuzzy match.
func Lookup(symptom string) (Advice, bool) {
	name := triage.Normalize(symptom)
	for _, a := range catalog {
		if a.Key == name {
			return a, true
		}
	}
	for _, a := range catalog {
		if triage.FuzzyMatch(name, a.Key) {
			return a, true
		}
	}
	return Advice{}, false
}

// CheckSeverity rejects severities that must go through triage instead.
func CheckSeverity(sev triage.Severity) error {
	switch sev {
	case triage.SeverityMild, triage.SeverityModerate:
		return nil
	case triage.SeveritySevere, triage.SeverityCritical:
		return apperror.BadRequest(apperror.CodeSeverityTooHigh,
			fmt.Sprintf("Self-care advice is not appropriate for %s symptoms. Request a full triage and seek medical attention without delay.", sev))
	default:
		return apperror.Validation("severity must be one of: MILD, MODERATE, SEVERE, CRITICAL",
			apperror.Detail{Field: "severity", Message: "invalid severity", Code: "ONEOF"})
	}
}

type Response struct {
	Symptom           string   `json:"symptom"`
	Severity          string   `json:"severity"`
	Found             bool     `json:"found"`
	Advice            *Advice  `json:"advice,omitempty"`
	GeneralGuidelines []string `json:"generalGuidelines,omitempty"`
	Reminders         []string `json:"reminders"`
}

// RedFlagChecker names the red flag a symptom describes.
type RedFlagChecker interface {
	RedFlagIn(name string) (string, bool)
}

type Handler struct {
	redFlags RedFlagChecker
	log      *zap.Logger
}

func NewHandler(redFlags RedFlagChecker, log *zap.Logger) *Handler {
	return &Handler{redFlags: redFlags, log: log}
}

// Get handles GET /self-care?symptom=&severity=.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	symptom := strings.TrimSpace(r.URL.Query().Get("symptom"))
	if symptom == "" {
		httpx.Error(w, r, apperror.BadRequest(apperror.CodeMissingQuery, `Query parameter "symptom" is required`))
		return
	}
	sev := triage.Severity(strings.ToUpper(r.URL.Query().Get("severity")))
	if sev == "" {
		sev = triage.SeverityMild
	}
	if err := CheckSeverity(sev); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if rf, ok := h.redFlags.RedFlagIn(symptom); ok {
		logger.FromContext(r.Context(), h.log).Warn("self-care refused for red flag symptom",
			zap.String("symptom", symptom), zap.String("red_flag", rf))
		httpx.Error(w, r, apperror.BadRequest(apperror.CodeSeverityTooHigh,
			fmt.Sprintf("%s is a warning sign that needs medical attention. Request a full triage or call your local emergency number.", rf)))
		return
	}

	resp := Response{Symptom: symptom, Severity: string(sev), Reminders: Reminders}
	if advice, ok := Lookup(symptom); ok {
		resp.Found = true
		resp.Advice = &advice
	} else {
		resp.GeneralGuidelines = GeneralGuidelines
	}

	logger.FromContext(r.Context(), h.log).Info("self-care advice served",
		zap.String("symptom", symptom), zap.Bool("found", resp.Found))
	httpx.Success(w, r, resp)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/self-care", h.Get)
}
