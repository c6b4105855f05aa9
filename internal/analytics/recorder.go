package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meditriage/internal/logger"
	"meditriage/internal/triage"
)

const defaultRecordTimeout = 5 * time.Second

// EventPublisher is satisfied by *Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event CompletedEvent) error
}

// Recorder persists every assessment and announces it. Failures are logged
// and never reach the triage caller.
type Recorder struct {
	store     Store
	publisher EventPublisher
	timeout   time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// NewRecorder builds a Recorder; publisher may be nil.
func NewRecorder(store Store, publisher EventPublisher, timeout time.Duration, log *zap.Logger) *Recorder {
	if timeout <= 0 {
		timeout = defaultRecordTimeout
	}
	return &Recorder{store: store, publisher: publisher, timeout: timeout, log: log, now: time.Now}
}

func (r *Recorder) Record(ctx context.Context, a triage.Assessment) {
	log := logger.FromContext(ctx, r.log)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	entry, err := r.buildLog(a)
	if err != nil {
		log.Error("failed to build triage log", zap.Error(err))
		return
	}
	if err := r.store.Create(ctx, entry); err != nil {
		log.Error("failed to log triage result", zap.Error(err))
		return
	}

	if r.publisher == nil {
		return
	}
	event := CompletedEvent{
		LogID:        entry.ID,
		SessionID:    entry.SessionID,
		UrgencyLevel: entry.UrgencyLevel,
		TotalScore:   entry.TotalScore,
		HasRedFlags:  a.RedFlags.HasRedFlags,
		Timestamp:    entry.CreatedAt,
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish triage completion", zap.Error(err))
	}
}

func (r *Recorder) buildLog(a triage.Assessment) (*TriageLog, error) {
	symptoms := make([]LoggedSymptom, len(a.Request.Symptoms))
	for i, s := range a.Request.Symptoms {
		symptoms[i] = LoggedSymptom{Name: s.Name, Severity: string(s.Severity), Duration: s.Duration}
	}
	conditions := make([]LoggedCondition, len(a.Result.TopConditions))
	for i, m := range a.Result.TopConditions {
		conditions[i] = LoggedCondition{
			Name:       m.Condition.Name,
			Urgency:    string(m.Condition.TypicalUrgency),
			MatchScore: m.MatchScore,
		}
	}
	patterns := make([]string, len(a.RedFlags.EmergencyPatterns))
	for i, p := range a.RedFlags.EmergencyPatterns {
		patterns[i] = p.Name
	}

	symptomsJSON, err := json.Marshal(symptoms)
	if err != nil {
		return nil, err
	}
	conditionsJSON, err := json.Marshal(conditions)
	if err != nil {
		return nil, err
	}
	redFlagsJSON, err := json.Marshal(a.Result.RedFlagsDetected)
	if err != nil {
		return nil, err
	}
	metadataJSON, err := json.Marshal(Metadata{
		ExistingConditions: a.Request.ExistingConditions,
		Medications:        a.Request.Medications,
		EmergencyPatterns:  patterns,
		ClientReference:    a.Request.ClientReference,
	})
	if err != nil {
		return nil, err
	}

	return &TriageLog{
		ID:              uuid.NewString(),
		SessionID:       a.Request.SessionID,
		Symptoms:        symptomsJSON,
		AgeGroup:        a.Request.AgeGroup,
		UrgencyLevel:    string(a.Result.UrgencyLevel),
		Confidence:      a.Result.Confidence,
		TotalScore:      a.Score.TotalScore,
		Criticality:     string(a.RedFlags.CriticalityLevel),
		TopConditions:   conditionsJSON,
		RedFlags:        redFlagsJSON,
		Recommendation:  a.Result.Recommendation,
		Reasoning:       a.Result.Reasoning,
		ResponseTime:    a.Result.EstimatedResponseTime,
		DisclaimerShown: a.Result.Disclaimer != "",
		ResponseTimeMs:  a.ResponseTime,
		Metadata:        metadataJSON,
		CreatedAt:       r.now().UTC(),
	}, nil
}
