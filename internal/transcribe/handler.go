package transcribe

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"meditriage/internal/apperror"
	"meditriage/internal/logger"
	"meditriage/internal/platform/httpx"
)

const MaxAudioBytes = 10 << 20

type Handler struct {
	stt Transcriber
	log *zap.Logger
}

func NewHandler(stt Transcriber, log *zap.Logger) *Handler {
	return &Handler{stt: stt, log: log}
}

type Response struct {
	Text string `json:"text"`
}

// Transcribe handles POST /transcribe with a multipart "audio" file.
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	r.Body = http.MaxBytesReader(w, r.Body, MaxAudioBytes+1<<20)
	if err := r.ParseMultipartForm(MaxAudioBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Error(w, r, apperror.Validation("audio file exceeds the 10MB limit",
				apperror.Detail{Field: "audio", Message: "file too large", Code: "MAX"}))
			return
		}
		httpx.Error(w, r, apperror.Validation("request must be multipart/form-data with an audio file"))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		httpx.Error(w, r, apperror.Validation("audio file is required",
			apperror.Detail{Field: "audio", Message: "audio is required", Code: "REQUIRED"}))
		return
	}
	defer file.Close()

	if header.Size > MaxAudioBytes {
		httpx.Error(w, r, apperror.Validation("audio file exceeds the 10MB limit",
			apperror.Detail{Field: "audio", Message: "file too large", Code: "MAX"}))
		return
	}

	audio, err := io.ReadAll(file)
	if err != nil {
		httpx.Error(w, r, apperror.Internal("failed to read audio", err))
		return
	}

	text, err := h.stt.Transcribe(r.Context(), audio, header.Filename)
	if err != nil {
		log.Error("transcription failed", zap.Error(err), zap.Int("bytes", len(audio)))
		httpx.Error(w, r, fmt.Errorf("transcription: %w", apperror.ErrUnavailable))
		return
	}

	log.Info("audio transcribed", zap.Int("bytes", len(audio)), zap.Int("chars", len(text)))
	httpx.Success(w, r, Response{Text: strings.TrimSpace(text)})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/transcribe", h.Transcribe)
}
