package triage

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"meditriage/internal/catalog"
	"meditriage/internal/logger"
)

// ConditionMatcher ranks catalog conditions against the reported symptoms.
type ConditionMatcher struct {
	cfg      Config
	store    ReferenceStore
	reporter Reporter
	log      *zap.Logger
}

func NewConditionMatcher(cfg Config, store ReferenceStore, reporter Reporter, log *zap.Logger) *ConditionMatcher {
	if reporter == nil {
		reporter = noopReporter{}
	}
	return &ConditionMatcher{cfg: cfg, store: store, reporter: reporter, log: log}
}

// Match returns candidates at or above the minimum confidence, best first.
// A store failure yields an empty list.
func (m *ConditionMatcher) Match(ctx context.Context, symptoms []PatientSymptom) (matches []ConditionMatch) {
	log := logger.FromContext(ctx, m.log)
	defer func() {
		if r := recover(); r != nil {
			log.Error("condition matching failed", zap.Any("panic", r))
			matches = []ConditionMatch{}
		}
	}()

	if m.store == nil {
		return []ConditionMatch{}
	}

	names := normalizeAll(symptoms)

	storeCtx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()
	candidates, err := m.store.FindMatchingConditions(storeCtx, names, m.cfg.MaxCandidates)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("request cancelled before condition lookup finished", zap.Error(ctx.Err()))
			return []ConditionMatch{}
		}
		log.Error("condition store lookup failed, continuing with symptom-only scoring",
			zap.Error(err), zap.String("event", "condition_store_degraded"))
		m.reporter.StoreDegraded(ctx, ComponentCondition, err)
		return []ConditionMatch{}
	}
	if len(candidates) > m.cfg.MaxCandidates {
		candidates = candidates[:m.cfg.MaxCandidates]
	}

	matches = make([]ConditionMatch, 0, len(candidates))
	for _, c := range candidates {
		score := m.MatchScore(symptoms, c.RelevanceRows)
		if score < m.cfg.MinConfidence {
			continue
		}
		matchingSymptoms := make([]string, len(c.RelevanceRows))
		for i, row := range c.RelevanceRows {
			matchingSymptoms[i] = row.SymptomName
		}
		matches = append(matches, ConditionMatch{
			Condition:        c.Condition,
			MatchScore:       score,
			MatchingSymptoms: matchingSymptoms,
			Relevance:        meanRelevance(c.RelevanceRows),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	return matches
}

// MatchScore is the severity-weighted share of the condition's relevance mass
// covered by the reported symptoms, clamped to [0,1].
func (m *ConditionMatcher) MatchScore(symptoms []PatientSymptom, rows []catalog.RelevanceRow) float64 {
	if len(symptoms) == 0 || len(rows) == 0 {
		return 0
	}
	names := normalizeAll(symptoms)

	var score, maxPossible float64
	for _, row := range rows {
		maxPossible += row.RelevanceScore

		rowName := Normalize(row.SymptomName)
		matched := false
		for _, name := range names {
			if FuzzyMatch(name, rowName) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		if sev, ok := m.resolveSeverity(symptoms, names, rowName); ok {
			weight := m.cfg.SeverityScore(sev) / 100
			score += row.RelevanceScore * weight * row.SeverityModifier
		} else {
			score += row.RelevanceScore
		}
	}

	if maxPossible <= 0 {
		return 0
	}
	return clamp01(score / maxPossible)
}

// resolveSeverity finds the patient symptom a catalog name refers to. Only a
// patient name equal to or containing the catalog name counts; a catalog name
// that merely contains the patient name falls back to raw relevance.
func (m *ConditionMatcher) resolveSeverity(symptoms []PatientSymptom, names []string, rowName string) (Severity, bool) {
	for i, name := range names {
		if containsOrEqual(name, rowName) {
			return symptoms[i].Severity, true
		}
	}
	return "", false
}

func meanRelevance(rows []catalog.RelevanceRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, row := range rows {
		sum += row.RelevanceScore
	}
	return clamp01(sum / float64(len(rows)))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
