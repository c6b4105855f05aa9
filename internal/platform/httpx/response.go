package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"meditriage/internal/apperror"
)

// Response is the envelope shared by every JSON endpoint.
type Response struct {
	Success bool            `json:"success"`
	Data    interface{}     `json:"data,omitempty"`
	Error   *apperror.Error `json:"error,omitempty"`
	Meta    Meta            `json:"meta"`
}

type Meta struct {
	Timestamp    string `json:"timestamp"`
	RequestID    string `json:"requestId,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
	ResponseTime string `json:"responseTime,omitempty"`
}

// NewMeta stamps the current time and the chi request id.
func NewMeta(r *http.Request) Meta {
	return Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: middleware.GetReqID(r.Context()),
	}
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Success writes a 200 envelope.
func Success(w http.ResponseWriter, r *http.Request, data interface{}) {
	SuccessWithMeta(w, data, NewMeta(r))
}

// SuccessWithMeta writes a 200 envelope with caller-provided meta.
func SuccessWithMeta(w http.ResponseWriter, data interface{}, meta Meta) {
	JSON(w, http.StatusOK, Response{Success: true, Data: data, Meta: meta})
}

// Error classifies err and writes the matching envelope.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)
	JSON(w, appErr.Status, Response{Success: false, Error: appErr, Meta: NewMeta(r)})
}
