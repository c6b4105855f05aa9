package triage

import (
	"fmt"
	"math"
	"strings"
)

// Composer turns the aggregated result into user-facing text. Emergency
// pattern messages come from the detector that fired them.
type Composer struct {
	cfg      Config
	detector *RedFlagDetector
}

func NewComposer(cfg Config, detector *RedFlagDetector) *Composer {
	return &Composer{cfg: cfg, detector: detector}
}

// Recommendation picks the action text. A fired emergency pattern overrides
// everything else.
func (c *Composer) Recommendation(urgency UrgencyLevel, redFlags RedFlagResult, matches []ConditionMatch) string {
	if len(redFlags.EmergencyPatterns) > 0 {
		return c.detector.EmergencyMessage(redFlags.EmergencyPatterns) + "\n\n" + c.cfg.Disclaimers[UrgencyEmergency]
	}

	var parts []string
	switch urgency {
	case UrgencyEmergency:
		parts = append(parts, "🚨 EMERGENCY: Call 911 or your local emergency number immediately.")
		if len(redFlags.DetectedRedFlags) > 0 {
			parts = append(parts, "Critical symptoms detected: "+strings.Join(redFlags.DetectedRedFlags, ", "))
		}
	case UrgencyUrgent:
		parts = append(parts,
			"⚠️ URGENT: Seek medical care within the next 4-6 hours.",
			"Contact your healthcare provider or visit an urgent care facility.")
		if len(matches) > 0 {
			parts = append(parts, "Possible conditions to discuss: "+conditionNames(matches, 3))
		}
	case UrgencyNonUrgent:
		parts = append(parts,
			"📋 NON-URGENT: Schedule an appointment with your healthcare provider.",
			"You should see a doctor within the next 1-3 days.")
		if len(matches) > 0 {
			parts = append(parts, "Possible conditions: "+conditionNames(matches, 3))
		}
	default:
		parts = append(parts,
			"🏠 SELF-CARE: Your symptoms may be manageable at home.",
			"Monitor your symptoms for the next 24-48 hours.",
			"Seek medical attention if symptoms worsen or new symptoms develop.")
		if len(matches) > 0 {
			parts = append(parts, "Possible conditions: "+conditionNames(matches, 2))
		}
	}
	parts = append(parts, c.Disclaimer(urgency))
	return strings.Join(parts, "\n\n")
}

// Reasoning is a one-paragraph narrative of how the tier was reached.
func (c *Composer) Reasoning(symptomCount int, redFlags RedFlagResult, matches []ConditionMatch, score TriageScore) string {
	parts := []string{fmt.Sprintf("Analyzed %d symptom(s).", symptomCount)}

	if len(redFlags.DetectedRedFlags) > 0 {
		parts = append(parts, fmt.Sprintf("⚠️ %d critical warning sign(s) detected: %s.",
			len(redFlags.DetectedRedFlags), strings.Join(redFlags.DetectedRedFlags, ", ")))
	}
	for _, p := range redFlags.EmergencyPatterns {
		parts = append(parts, fmt.Sprintf("Emergency pattern matched: %s (%s).", p.Name, strings.Join(p.MatchedSymptoms, ", ")))
	}

	if len(matches) > 0 {
		top := matches[0]
		parts = append(parts, fmt.Sprintf("Most likely condition: %s (%d%% match).",
			top.Condition.Name, int(math.Floor(top.MatchScore*100+0.5))))
		if len(matches) > 1 {
			parts = append(parts, fmt.Sprintf("Other possible conditions: %s.", conditionNames(matches[1:], 2)))
		}
	}

	parts = append(parts, fmt.Sprintf("Triage score: %d/100 (Symptoms: %d, Urgency: %d, Relevance: %d, Red flags: %d).",
		score.TotalScore,
		score.Breakdown.SymptomSeverity,
		score.Breakdown.ConditionUrgency,
		score.Breakdown.DurationFactor,
		score.Breakdown.RedFlagBonus,
	))
	return strings.Join(parts, " ")
}

// Disclaimer returns the tier-specific disclaimer.
func (c *Composer) Disclaimer(urgency UrgencyLevel) string {
	return c.cfg.Disclaimers[urgency]
}

// GeneralNotice is the mandatory notice attached to every result.
func (c *Composer) GeneralNotice() string {
	return c.cfg.GeneralNotice
}

// ResponseTime returns the expected response window for urgency.
func (c *Composer) ResponseTime(urgency UrgencyLevel) string {
	return c.cfg.ResponseTimes[urgency]
}

func conditionNames(matches []ConditionMatch, limit int) string {
	if len(matches) > limit {
		matches = matches[:limit]
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Condition.Name
	}
	return strings.Join(names, ", ")
}
