package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"meditriage/internal/logger"
	"meditriage/internal/triage"
)

// Sender delivers messages to a chat. *telegram.Client satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName, caption string) error
}

// ClinicianEscalation forwards EMERGENCY assessments to an on-call chat as a
// PDF, falling back to a text summary when no PDF can be rendered.
type ClinicianEscalation struct {
	renderer *Renderer
	sender   Sender
	chatID   int64
	timeout  time.Duration
	log      *zap.Logger
}

func NewClinicianEscalation(renderer *Renderer, sender Sender, chatID int64, timeout time.Duration, log *zap.Logger) *ClinicianEscalation {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ClinicianEscalation{renderer: renderer, sender: sender, chatID: chatID, timeout: timeout, log: log}
}

func (e *ClinicianEscalation) Record(ctx context.Context, a triage.Assessment) {
	if a.Result.UrgencyLevel != triage.UrgencyEmergency {
		return
	}
	log := logger.FromContext(ctx, e.log)
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.send(ctx, FromAssessment(a, time.Now().UTC())); err != nil {
		log.Error("clinician escalation failed", zap.Error(err))
		return
	}
	log.Info("clinician escalation sent", zap.Int64("chat_id", e.chatID))
}

func (e *ClinicianEscalation) send(ctx context.Context, doc Document) error {
	caption := fmt.Sprintf("EMERGENCY triage %s", doc.SessionID)

	pdf, err := e.renderer.Render(doc)
	if err != nil {
		if !errors.Is(err, ErrFontUnavailable) {
			return err
		}
		return e.sender.SendMessage(ctx, e.chatID, caption+"\n\n"+Summary(doc))
	}
	return e.sender.SendDocument(ctx, e.chatID, pdf, doc.SessionID+".pdf", caption)
}
