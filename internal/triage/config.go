package triage

import (
	"errors"
	"fmt"
	"time"
)

// Weights are the coefficients of the aggregated triage score.
type Weights struct {
	SymptomSeverity  float64 `json:"symptomSeverity"`
	ConditionUrgency float64 `json:"conditionUrgency"`
	Relevance        float64 `json:"relevance"`
	RedFlagBonus     float64 `json:"redFlagBonus"`
}

// Thresholds are the minimum scores for each urgency tier.
type Thresholds struct {
	Emergency float64 `json:"emergency"`
	Urgent    float64 `json:"urgent"`
	NonUrgent float64 `json:"nonUrgent"`
}

// EmergencyPattern is a named symptom combination that fires when at least
// two of its symptoms are reported.
type EmergencyPattern struct {
	Name     string   `json:"name"`
	Symptoms []string `json:"symptoms"`
	Message  string   `json:"message"`
}

// Config is the immutable tuning of the engine. Build it once with
// DefaultConfig (optionally overlaid by configuration) and share it.
type Config struct {
	SeverityScores   map[Severity]float64
	UrgencyValues    map[UrgencyLevel]float64
	Weights          Weights
	Thresholds       Thresholds
	MinConfidence    float64
	MaxCandidates    int
	TopConditions    int
	PatternMinHits   int
	StoreTimeout     time.Duration
	RedFlagSymptoms  []string
	Patterns         []EmergencyPattern
	Disclaimers      map[UrgencyLevel]string
	GeneralNotice    string
	ResponseTimes    map[UrgencyLevel]string
	DefaultEmergency string
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		SeverityScores: map[Severity]float64{
			SeverityCritical: 100,
			SeveritySevere:   75,
			SeverityModerate: 50,
			SeverityMild:     25,
		},
		UrgencyValues: map[UrgencyLevel]float64{
			UrgencyEmergency: 100,
			UrgencyUrgent:    70,
			UrgencyNonUrgent: 40,
			UrgencySelfCare:  20,
		},
		Weights: Weights{
			SymptomSeverity:  0.4,
			ConditionUrgency: 0.3,
			Relevance:        0.3,
			RedFlagBonus:     50,
		},
		Thresholds: Thresholds{
			Emergency: 80,
			Urgent:    60,
			NonUrgent: 40,
		},
		MinConfidence:  0.3,
		MaxCandidates:  10,
		TopConditions:  5,
		PatternMinHits: 2,
		StoreTimeout:   3 * time.Second,
		RedFlagSymptoms: []string{
			"Chest pain",
			"Severe bleeding",
			"Difficulty breathing",
			"Sudden severe headache",
			"Slurred speech",
			"Facial drooping",
			"Arm weakness",
			"Loss of consciousness",
			"Severe abdominal pain",
			"Confusion",
			"Seizures",
			"Coughing up blood",
			"Vomiting blood",
			"Severe allergic reaction",
			"Blue lips or face",
		},
		Patterns: []EmergencyPattern{
			{
				Name:     "Stroke (FAST)",
				Symptoms: []string{"Facial drooping", "Arm weakness", "Slurred speech"},
				Message:  "🚨 POSSIBLE STROKE - Call 911 IMMEDIATELY. Note the time symptoms started.",
			},
			{
				Name:     "Heart Attack",
				Symptoms: []string{"Chest pain", "Difficulty breathing"},
				Message:  "🚨 POSSIBLE HEART ATTACK - Call 911 IMMEDIATELY. Chew aspirin if not allergic.",
			},
			{
				Name:     "Severe Allergic Reaction",
				Symptoms: []string{"Difficulty breathing", "Severe allergic reaction"},
				Message:  "🚨 ANAPHYLAXIS - Call 911 IMMEDIATELY. Use EpiPen if available.",
			},
		},
		Disclaimers: map[UrgencyLevel]string{
			UrgencyEmergency: "This is a medical emergency. Call 911 or your local emergency number immediately. Do not wait for an appointment.",
			UrgencyUrgent:    "You should seek medical care within the next 4-6 hours. Contact your doctor or visit an urgent care facility.",
			UrgencyNonUrgent: "Schedule an appointment with your healthcare provider within the next few days. Monitor symptoms.",
			UrgencySelfCare:  "Your symptoms may be manageable with self-care. However, if symptoms worsen or new symptoms develop, seek medical attention.",
		},
		GeneralNotice: "⚠️ IMPORTANT: This tool is for informational purposes only and is NOT a substitute for professional medical advice, diagnosis, or treatment. Always consult qualified healthcare providers for medical concerns.",
		ResponseTimes: map[UrgencyLevel]string{
			UrgencyEmergency: "Immediate - Call 911 now",
			UrgencyUrgent:    "Within 4-6 hours",
			UrgencyNonUrgent: "Within 1-3 days",
			UrgencySelfCare:  "Monitor for 24-48 hours",
		},
		DefaultEmergency: "🚨 MEDICAL EMERGENCY DETECTED - Call 911 or your local emergency number IMMEDIATELY.",
	}
}

// Validate reports the first inconsistency in c.
func (c Config) Validate() error {
	for _, sev := range []Severity{SeverityMild, SeverityModerate, SeveritySevere, SeverityCritical} {
		score, ok := c.SeverityScores[sev]
		if !ok {
			return fmt.Errorf("severity score for %s is missing", sev)
		}
		if score < 0 || score > 100 {
			return fmt.Errorf("severity score for %s must be within [0,100], got %v", sev, score)
		}
	}
	for _, u := range []UrgencyLevel{UrgencyEmergency, UrgencyUrgent, UrgencyNonUrgent, UrgencySelfCare} {
		if _, ok := c.UrgencyValues[u]; !ok {
			return fmt.Errorf("urgency value for %s is missing", u)
		}
		if c.ResponseTimes[u] == "" {
			return fmt.Errorf("response time for %s is missing", u)
		}
		if c.Disclaimers[u] == "" {
			return fmt.Errorf("disclaimer for %s is missing", u)
		}
	}
	for name, w := range map[string]float64{
		"symptom severity":  c.Weights.SymptomSeverity,
		"condition urgency": c.Weights.ConditionUrgency,
		"relevance":         c.Weights.Relevance,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s weight must be within [0,1], got %v", name, w)
		}
	}
	if c.Weights.RedFlagBonus <= 0 {
		return errors.New("red flag bonus must be positive")
	}
	if !(c.Thresholds.Emergency > c.Thresholds.Urgent && c.Thresholds.Urgent > c.Thresholds.NonUrgent && c.Thresholds.NonUrgent > 0) {
		return errors.New("urgency thresholds must be strictly descending and positive")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be within [0,1], got %v", c.MinConfidence)
	}
	if c.MaxCandidates <= 0 || c.TopConditions <= 0 {
		return errors.New("candidate limits must be positive")
	}
	if c.PatternMinHits < 2 {
		return errors.New("emergency patterns need at least two matching symptoms")
	}
	for _, p := range c.Patterns {
		if len(p.Symptoms) < c.PatternMinHits {
			return fmt.Errorf("emergency pattern %q lists %d symptoms, needs at least %d", p.Name, len(p.Symptoms), c.PatternMinHits)
		}
		if p.Message == "" {
			return fmt.Errorf("emergency pattern %q has no message", p.Name)
		}
	}
	if c.GeneralNotice == "" {
		return errors.New("general disclaimer is required")
	}
	return nil
}

// SeverityScore returns the configured score for sev, 0 when unknown.
func (c Config) SeverityScore(sev Severity) float64 {
	return c.SeverityScores[sev]
}

// UrgencyValue returns the configured weight of a condition urgency tier.
func (c Config) UrgencyValue(u UrgencyLevel) float64 {
	return c.UrgencyValues[u]
}
