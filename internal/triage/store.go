package triage

import (
	"context"

	"meditriage/internal/catalog"
)

// ReferenceStore is the read-only view of the symptom/condition catalog the
// engine depends on. Names passed in are already normalized.
type ReferenceStore interface {
	FindRedFlagSymptoms(ctx context.Context, names []string) ([]catalog.SymptomRecord, error)
	FindMatchingConditions(ctx context.Context, names []string, limit int) ([]catalog.ConditionCandidate, error)
	CountRedFlagSymptoms(ctx context.Context) (int, error)
}

// Reporter is told whenever a store lookup fails and the engine falls back
// to degraded behaviour, and whenever a triage call fails outright.
type Reporter interface {
	StoreDegraded(ctx context.Context, component string, err error)
	InternalFailure(ctx context.Context, err error)
}

// AssessmentSink receives every completed assessment. Implementations must
// not block; the service calls them from a detached goroutine.
type AssessmentSink interface {
	Record(ctx context.Context, a Assessment)
}

type noopReporter struct{}

func (noopReporter) StoreDegraded(context.Context, string, error) {}

func (noopReporter) InternalFailure(context.Context, error) {}
