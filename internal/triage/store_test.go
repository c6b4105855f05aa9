package triage

import (
	"context"
	"sync"

	"meditriage/internal/catalog"
)

type fakeStore struct {
	redFlags   []catalog.SymptomRecord
	candidates []catalog.ConditionCandidate
	count      int
	err        error
	// block makes lookups wait for their context to end.
	block bool
}

func (f *fakeStore) FindRedFlagSymptoms(ctx context.Context, names []string) ([]catalog.SymptomRecord, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	var out []catalog.SymptomRecord
	for _, rec := range f.redFlags {
		for _, n := range names {
			if FuzzyMatch(Normalize(rec.Name), n) {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) FindMatchingConditions(ctx context.Context, names []string, limit int) ([]catalog.ConditionCandidate, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	out := f.candidates
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CountRedFlagSymptoms(ctx context.Context) (int, error) {
	return f.count, f.err
}

type recordingReporter struct {
	mu         sync.Mutex
	components []string
	failures   int
}

func (r *recordingReporter) StoreDegraded(_ context.Context, component string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components = append(r.components, component)
}

func (r *recordingReporter) InternalFailure(context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

type channelSink chan Assessment

func (c channelSink) Record(_ context.Context, a Assessment) {
	c <- a
}

func condition(name string, urgency catalog.Urgency) catalog.ConditionRecord {
	return catalog.ConditionRecord{ID: name, Name: name, TypicalUrgency: urgency}
}

func rows(pairs ...interface{}) []catalog.RelevanceRow {
	var out []catalog.RelevanceRow
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, catalog.RelevanceRow{
			SymptomName:      pairs[i].(string),
			RelevanceScore:   pairs[i+1].(float64),
			SeverityModifier: 1.0,
		})
	}
	return out
}
