package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"meditriage/internal/apperror"
	"meditriage/internal/logger"
	"meditriage/internal/platform/httpx"
)

const minQueryLength = 2

type Handler struct {
	repo Repository
	log  *zap.Logger
}

func NewHandler(repo Repository, log *zap.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

type SearchResponse struct {
	Symptoms   []SymptomRecord `json:"symptoms"`
	TotalCount int             `json:"totalCount"`
	Query      string          `json:"query"`
}

// SearchSymptoms handles GET /symptoms/search?q=&bodySystem=&redFlagOnly=&limit=.
func (h *Handler) SearchSymptoms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		httpx.Error(w, r, apperror.BadRequest(apperror.CodeMissingQuery, `Search query parameter "q" is required`))
		return
	}
	if len([]rune(query)) < minQueryLength {
		httpx.Error(w, r, apperror.BadRequest(apperror.CodeQueryTooShort, "Search query must be at least 2 characters"))
		return
	}

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxSymptomsSearch {
		limit = MaxSymptomsSearch
	}

	symptoms, err := h.repo.SearchSymptoms(r.Context(), SearchOptions{
		Query:       query,
		BodySystem:  q.Get("bodySystem"),
		RedFlagOnly: q.Get("redFlagOnly") == "true",
		Limit:       limit,
	})
	if err != nil {
		h.fail(w, r, "symptom search failed", "Failed to search symptoms", err)
		return
	}
	httpx.Success(w, r, SearchResponse{Symptoms: symptoms, TotalCount: len(symptoms), Query: query})
}

func (h *Handler) GetSymptom(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, apperror.NotFound(apperror.CodeSymptomNotFound, "Symptom not found"))
		return
	}

	symptom, err := h.repo.GetSymptom(r.Context(), id.String())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			httpx.Error(w, r, apperror.NotFound(apperror.CodeSymptomNotFound, "Symptom not found"))
			return
		}
		h.fail(w, r, "get symptom failed", "Failed to fetch symptom", err)
		return
	}
	httpx.Success(w, r, symptom)
}

func (h *Handler) ListBodySystems(w http.ResponseWriter, r *http.Request) {
	systems, err := h.repo.ListBodySystems(r.Context())
	if err != nil {
		h.fail(w, r, "list body systems failed", "Failed to fetch body systems", err)
		return
	}
	httpx.Success(w, r, systems)
}

func (h *Handler) ListRedFlags(w http.ResponseWriter, r *http.Request) {
	symptoms, err := h.repo.ListRedFlagSymptoms(r.Context())
	if err != nil {
		h.fail(w, r, "list red flag symptoms failed", "Failed to fetch red flag symptoms", err)
		return
	}
	httpx.Success(w, r, symptoms)
}

// LookupCondition handles GET /conditions/lookup?name=.
func (h *Handler) LookupCondition(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		httpx.Error(w, r, apperror.BadRequest(apperror.CodeMissingQuery, `Query parameter "name" is required`))
		return
	}

	detail, err := h.repo.LookupCondition(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			httpx.Error(w, r, apperror.NotFound(apperror.CodeConditionNotFound, "No condition found matching \""+name+"\""))
			return
		}
		h.fail(w, r, "condition lookup failed", "Failed to look up condition", err)
		return
	}
	httpx.Success(w, r, detail)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, logMsg, userMsg string, err error) {
	logger.FromContext(r.Context(), h.log).Error(logMsg, zap.Error(err))
	httpx.Error(w, r, apperror.Internal(userMsg, err))
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/symptoms", func(r chi.Router) {
		r.Get("/search", h.SearchSymptoms)
		r.Get("/body-systems", h.ListBodySystems)
		r.Get("/red-flags", h.ListRedFlags)
		r.Get("/{id}", h.GetSymptom)
	})
	r.Get("/conditions/lookup", h.LookupCondition)
}
