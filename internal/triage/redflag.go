package triage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"meditriage/internal/logger"
)

// Component names reported on store degradation.
const (
	ComponentRedFlag   = "red_flag_detector"
	ComponentCondition = "condition_matcher"
)

// RedFlagDetector flags symptoms and symptom combinations that need
// immediate escalation. It combines the catalog, a static list and the
// configured emergency patterns so that a stale or unreachable catalog still
// leaves the well-known emergencies covered.
type RedFlagDetector struct {
	cfg      Config
	store    ReferenceStore
	reporter Reporter
	log      *zap.Logger

	// normalized copies of cfg.RedFlagSymptoms and pattern symptoms
	redFlags []string
	patterns [][]string
}

func NewRedFlagDetector(cfg Config, store ReferenceStore, reporter Reporter, log *zap.Logger) *RedFlagDetector {
	if reporter == nil {
		reporter = noopReporter{}
	}
	d := &RedFlagDetector{
		cfg:      cfg,
		store:    store,
		reporter: reporter,
		log:      log,
		redFlags: make([]string, len(cfg.RedFlagSymptoms)),
		patterns: make([][]string, len(cfg.Patterns)),
	}
	for i, rf := range cfg.RedFlagSymptoms {
		d.redFlags[i] = Normalize(rf)
	}
	for i, p := range cfg.Patterns {
		d.patterns[i] = make([]string, len(p.Symptoms))
		for j, s := range p.Symptoms {
			d.patterns[i][j] = Normalize(s)
		}
	}
	return d
}

// Detect never fails. A store error degrades to the static checks; any other
// failure yields an empty result.
func (d *RedFlagDetector) Detect(ctx context.Context, symptoms []PatientSymptom) (result RedFlagResult) {
	log := logger.FromContext(ctx, d.log)
	defer func() {
		if r := recover(); r != nil {
			log.Error("red flag detection failed", zap.Any("panic", r))
			result = emptyRedFlagResult()
		}
	}()

	names := normalizeAll(symptoms)

	storeFlags := d.storeRedFlags(ctx, names)
	staticFlags := d.staticRedFlags(names)
	flags := dedupeNames(append(storeFlags, staticFlags...))
	patterns := d.emergencyPatterns(names)

	result = RedFlagResult{
		HasRedFlags:       len(flags) > 0 || len(patterns) > 0,
		DetectedRedFlags:  flags,
		EmergencyPatterns: patterns,
		CriticalityLevel:  criticality(len(flags), len(patterns)),
	}

	if result.HasRedFlags {
		patternNames := make([]string, len(patterns))
		for i, p := range patterns {
			patternNames[i] = p.Name
		}
		log.Warn("red flags detected",
			zap.Strings("red_flags", flags),
			zap.Strings("patterns", patternNames),
			zap.String("criticality", string(result.CriticalityLevel)),
			zap.String("event", "red_flag_detection"),
		)
	}
	return result
}

func (d *RedFlagDetector) storeRedFlags(ctx context.Context, names []string) []string {
	if d.store == nil {
		return nil
	}
	storeCtx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
	defer cancel()

	records, err := d.store.FindRedFlagSymptoms(storeCtx, names)
	if err != nil {
		log := logger.FromContext(ctx, d.log)
		// A caller that went away is not a store outage.
		if ctx.Err() != nil {
			log.Info("request cancelled before red flag lookup finished", zap.Error(ctx.Err()))
			return nil
		}
		log.Error("red flag store lookup failed, using static list only",
			zap.Error(err), zap.String("event", "red_flag_store_degraded"))
		d.reporter.StoreDegraded(ctx, ComponentRedFlag, err)
		return nil
	}
	out := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.IsRedFlag {
			out = append(out, rec.Name)
		}
	}
	return out
}

// staticRedFlags maps each reported name to the first configured red flag it
// matches.
func (d *RedFlagDetector) staticRedFlags(names []string) []string {
	var out []string
	for _, name := range names {
		for i, rf := range d.redFlags {
			if FuzzyMatch(rf, name) {
				out = append(out, d.cfg.RedFlagSymptoms[i])
				break
			}
		}
	}
	return out
}

func (d *RedFlagDetector) emergencyPatterns(names []string) []EmergencyPatternMatch {
	matches := []EmergencyPatternMatch{}
	for i, pattern := range d.cfg.Patterns {
		var matched []string
		for j, ps := range d.patterns[i] {
			for _, name := range names {
				if FuzzyMatch(ps, name) {
					matched = append(matched, pattern.Symptoms[j])
					break
				}
			}
		}
		if len(matched) >= d.cfg.PatternMinHits {
			matches = append(matches, EmergencyPatternMatch{
				Name:            pattern.Name,
				Message:         pattern.Message,
				MatchedSymptoms: matched,
			})
		}
	}
	return matches
}

// IsRedFlag reports whether name matches the static red-flag list.
func (d *RedFlagDetector) IsRedFlag(name string) bool {
	n := Normalize(name)
	for _, rf := range d.redFlags {
		if FuzzyMatch(rf, n) {
			return true
		}
	}
	return false
}

// RedFlagIn returns the static red flag that name spells out, if any. Unlike
// IsRedFlag it only matches when name contains the whole red flag, so a plain
// "headache" is not read as "Sudden severe headache".
func (d *RedFlagDetector) RedFlagIn(name string) (string, bool) {
	n := Normalize(name)
	for i, rf := range d.redFlags {
		if containsOrEqual(n, rf) {
			return d.cfg.RedFlagSymptoms[i], true
		}
	}
	return "", false
}

// EmergencyMessage returns the message of the first fired pattern, or the
// generic emergency message when none fired.
func (d *RedFlagDetector) EmergencyMessage(patterns []EmergencyPatternMatch) string {
	if len(patterns) == 0 {
		return d.cfg.DefaultEmergency
	}
	return patterns[0].Message
}

// ValidateConfiguration checks that both the catalog and the static
// configuration carry red-flag data. It backs the detailed health check.
func (d *RedFlagDetector) ValidateConfiguration(ctx context.Context) (bool, []string) {
	var issues []string
	if d.store == nil {
		issues = append(issues, "No reference store configured")
	} else {
		ctx, cancel := context.WithTimeout(ctx, d.cfg.StoreTimeout)
		defer cancel()
		count, err := d.store.CountRedFlagSymptoms(ctx)
		switch {
		case err != nil:
			issues = append(issues, fmt.Sprintf("Failed to validate red flag configuration: %v", err))
		case count == 0:
			issues = append(issues, "No red flag symptoms found in database")
		}
	}
	if len(d.cfg.RedFlagSymptoms) == 0 {
		issues = append(issues, "No red flag symptoms in configuration")
	}
	if len(d.cfg.Patterns) == 0 {
		issues = append(issues, "No emergency patterns configured")
	}
	return len(issues) == 0, issues
}

func criticality(redFlags, patterns int) Criticality {
	switch {
	case patterns > 0 || redFlags >= 3:
		return CriticalityCritical
	case redFlags == 2:
		return CriticalitySevere
	case redFlags == 1:
		return CriticalityModerate
	default:
		return CriticalityLow
	}
}

func emptyRedFlagResult() RedFlagResult {
	return RedFlagResult{
		DetectedRedFlags:  []string{},
		EmergencyPatterns: []EmergencyPatternMatch{},
		CriticalityLevel:  CriticalityLow,
	}
}

// dedupeNames keeps the first spelling of every normalized name.
func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := Normalize(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
