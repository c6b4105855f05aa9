package triage

import (
	"math"
)

// Aggregator folds severity, red flags and matched conditions into one score.
type Aggregator struct {
	cfg Config
}

func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// SymptomScore is the mean severity score, capped at 100.
func (a *Aggregator) SymptomScore(symptoms []PatientSymptom) float64 {
	if len(symptoms) == 0 {
		return 0
	}
	var total float64
	for _, s := range symptoms {
		total += a.cfg.SeverityScore(s.Severity)
	}
	return math.Min(total/float64(len(symptoms)), 100)
}

// AverageRelevance is the mean match score of the matched conditions.
func (a *Aggregator) AverageRelevance(matches []ConditionMatch) float64 {
	if len(matches) == 0 {
		return 0
	}
	var total float64
	for _, m := range matches {
		total += m.MatchScore
	}
	return total / float64(len(matches))
}

// ConditionUrgencyScore is the match-weighted mean of condition urgency values.
func (a *Aggregator) ConditionUrgencyScore(matches []ConditionMatch) float64 {
	var weighted, totalWeight float64
	for _, m := range matches {
		totalWeight += m.MatchScore
		weighted += a.cfg.UrgencyValue(m.Condition.TypicalUrgency) * m.MatchScore
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// Score caps the weighted components at 100 and then adds the red-flag bonus,
// so the total can exceed 100. Any red flag forces EMERGENCY.
func (a *Aggregator) Score(symptomScore, conditionUrgency, avgRelevance float64, redFlags RedFlagResult) TriageScore {
	w := a.cfg.Weights
	symptomComponent := symptomScore * w.SymptomSeverity
	conditionComponent := conditionUrgency * w.ConditionUrgency
	relevanceComponent := avgRelevance * 100 * w.Relevance
	bonus := float64(len(redFlags.DetectedRedFlags)) * w.RedFlagBonus

	total := round(math.Min(symptomComponent+conditionComponent+relevanceComponent, 100) + bonus)

	return TriageScore{
		TotalScore:   total,
		UrgencyLevel: a.UrgencyFor(float64(total), redFlags.HasRedFlags),
		Breakdown: ScoreBreakdown{
			SymptomSeverity:  round(symptomComponent),
			RedFlagBonus:     round(bonus),
			ConditionUrgency: round(conditionComponent),
			DurationFactor:   round(relevanceComponent),
		},
	}
}

// UrgencyFor maps a score onto a tier. Red flags win unconditionally.
func (a *Aggregator) UrgencyFor(score float64, hasRedFlags bool) UrgencyLevel {
	t := a.cfg.Thresholds
	switch {
	case hasRedFlags:
		return UrgencyEmergency
	case score >= t.Emergency:
		return UrgencyEmergency
	case score >= t.Urgent:
		return UrgencyUrgent
	case score >= t.NonUrgent:
		return UrgencyNonUrgent
	default:
		return UrgencySelfCare
	}
}

// Confidence grows with symptom count (up to 5), matched conditions (up to
// 3) and average match score. Rounded to two decimals.
func (a *Aggregator) Confidence(symptomCount, matchedCount int, avgRelevance float64) float64 {
	symptomFactor := math.Min(float64(symptomCount)/5, 1) * 0.3
	conditionFactor := math.Min(float64(matchedCount)/3, 1) * 0.3
	matchFactor := clamp01(avgRelevance) * 0.4
	return clamp01(math.Round((symptomFactor+conditionFactor+matchFactor)*100) / 100)
}

// round matches half-up rounding for the non-negative scores produced here.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
