package triage

import (
	"meditriage/internal/catalog"
)

// Severity is the patient-reported intensity of a single symptom.
type Severity string

const (
	SeverityMild     Severity = "MILD"
	SeverityModerate Severity = "MODERATE"
	SeveritySevere   Severity = "SEVERE"
	SeverityCritical Severity = "CRITICAL"
)

// UrgencyLevel is the actionable tier returned to the caller. It shares the
// wire values of catalog.Urgency so condition urgencies compare directly.
type UrgencyLevel = catalog.Urgency

const (
	UrgencyEmergency = catalog.UrgencyEmergency
	UrgencyUrgent    = catalog.UrgencyUrgent
	UrgencyNonUrgent = catalog.UrgencyNonUrgent
	UrgencySelfCare  = catalog.UrgencySelfCare
)

// Criticality grades how strongly the red-flag layer fired.
type Criticality string

const (
	CriticalityCritical Criticality = "CRITICAL"
	CriticalitySevere   Criticality = "SEVERE"
	CriticalityModerate Criticality = "MODERATE"
	CriticalityLow      Criticality = "LOW"
)

// AgeGroups is the accepted vocabulary for Request.AgeGroup.
var AgeGroups = []string{"infant", "toddler", "child", "adolescent", "adult", "elderly"}

type PatientSymptom struct {
	Name     string   `json:"symptomName" validate:"required,notblank,max=255"`
	Severity Severity `json:"severity" validate:"required,oneof=MILD MODERATE SEVERE CRITICAL"`
	Duration string   `json:"duration,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

type Request struct {
	Symptoms           []PatientSymptom `json:"symptoms" validate:"required,min=1,max=20,dive"`
	AgeGroup           string           `json:"ageGroup,omitempty" validate:"omitempty,agegroup"`
	ExistingConditions []string         `json:"existingConditions,omitempty"`
	Medications        []string         `json:"medications,omitempty"`
	SessionID          string           `json:"sessionId,omitempty" validate:"omitempty,max=100"`
	ClientReference    string           `json:"-"`
}

type EmergencyPatternMatch struct {
	Name            string   `json:"name"`
	Message         string   `json:"message"`
	MatchedSymptoms []string `json:"matchedSymptoms"`
}

type RedFlagResult struct {
	HasRedFlags       bool                    `json:"hasRedFlags"`
	DetectedRedFlags  []string                `json:"detectedRedFlags"`
	EmergencyPatterns []EmergencyPatternMatch `json:"emergencyPatterns"`
	CriticalityLevel  Criticality             `json:"criticalityLevel"`
}

type ConditionMatch struct {
	Condition        catalog.ConditionRecord `json:"condition"`
	MatchScore       float64                 `json:"matchScore"`
	MatchingSymptoms []string                `json:"matchingSymptoms"`
	Relevance        float64                 `json:"relevance"`
}

// ScoreBreakdown holds the rounded components of a TriageScore.
// DurationFactor carries the relevance component; the name is kept for wire
// compatibility with existing clients.
type ScoreBreakdown struct {
	SymptomSeverity  int `json:"symptomSeverity"`
	RedFlagBonus     int `json:"redFlagBonus"`
	ConditionUrgency int `json:"conditionUrgency"`
	DurationFactor   int `json:"durationFactor"`
}

type TriageScore struct {
	TotalScore   int            `json:"totalScore"`
	UrgencyLevel UrgencyLevel   `json:"urgencyLevel"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
}

type Result struct {
	UrgencyLevel          UrgencyLevel     `json:"urgencyLevel"`
	Confidence            float64          `json:"confidence"`
	TopConditions         []ConditionMatch `json:"topConditions"`
	RedFlagsDetected      []string         `json:"redFlagsDetected"`
	Recommendation        string           `json:"recommendation"`
	Disclaimer            string           `json:"disclaimer"`
	Reasoning             string           `json:"reasoning"`
	EstimatedResponseTime string           `json:"estimatedResponseTime"`
}

// Assessment bundles everything a sink may want to record about one call.
type Assessment struct {
	Request      Request
	Result       Result
	RedFlags     RedFlagResult
	Score        TriageScore
	ResponseTime int64
}
