package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"meditriage/internal/analytics"
	"meditriage/internal/triage"
)

// Document is the printable view of one triage.
type Document struct {
	SessionID      string
	CreatedAt      time.Time
	AgeGroup       string
	UrgencyLevel   string
	Confidence     float64
	TotalScore     int
	ResponseTime   string
	Symptoms       []analytics.LoggedSymptom
	Conditions     []analytics.LoggedCondition
	RedFlags       []string
	Recommendation string
	Reasoning      string
	Disclaimer     string
}

// FromLog rebuilds a Document from a stored triage log.
func FromLog(l *analytics.TriageLog, disclaimer string) (Document, error) {
	doc := Document{
		SessionID:      l.SessionID,
		CreatedAt:      l.CreatedAt,
		AgeGroup:       l.AgeGroup,
		UrgencyLevel:   l.UrgencyLevel,
		Confidence:     l.Confidence,
		TotalScore:     l.TotalScore,
		ResponseTime:   l.ResponseTime,
		Recommendation: l.Recommendation,
		Reasoning:      l.Reasoning,
		Disclaimer:     disclaimer,
	}
	if err := unmarshalOptional(l.Symptoms, &doc.Symptoms); err != nil {
		return Document{}, fmt.Errorf("decode symptoms: %w", err)
	}
	if err := unmarshalOptional(l.TopConditions, &doc.Conditions); err != nil {
		return Document{}, fmt.Errorf("decode conditions: %w", err)
	}
	if err := unmarshalOptional(l.RedFlags, &doc.RedFlags); err != nil {
		return Document{}, fmt.Errorf("decode red flags: %w", err)
	}
	return doc, nil
}

// FromAssessment builds a Document straight from an engine assessment.
func FromAssessment(a triage.Assessment, at time.Time) Document {
	doc := Document{
		SessionID:      a.Request.SessionID,
		CreatedAt:      at,
		AgeGroup:       a.Request.AgeGroup,
		UrgencyLevel:   string(a.Result.UrgencyLevel),
		Confidence:     a.Result.Confidence,
		TotalScore:     a.Score.TotalScore,
		ResponseTime:   a.Result.EstimatedResponseTime,
		RedFlags:       a.Result.RedFlagsDetected,
		Recommendation: a.Result.Recommendation,
		Reasoning:      a.Result.Reasoning,
		Disclaimer:     a.Result.Disclaimer,
	}
	for _, s := range a.Request.Symptoms {
		doc.Symptoms = append(doc.Symptoms, analytics.LoggedSymptom{Name: s.Name, Severity: string(s.Severity), Duration: s.Duration})
	}
	for _, m := range a.Result.TopConditions {
		doc.Conditions = append(doc.Conditions, analytics.LoggedCondition{
			Name:       m.Condition.Name,
			Urgency:    string(m.Condition.TypicalUrgency),
			MatchScore: m.MatchScore,
		})
	}
	return doc
}

// Summary is the plain-text rendering used when no PDF can be produced.
func Summary(d Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Triage %s: %s (score %d, confidence %.0f%%)\n", d.SessionID, d.UrgencyLevel, d.TotalScore, d.Confidence*100)
	if d.AgeGroup != "" {
		fmt.Fprintf(&b, "Age group: %s\n", d.AgeGroup)
	}
	b.WriteString("Symptoms:\n")
	for _, s := range d.Symptoms {
		fmt.Fprintf(&b, "- %s (%s)", s.Name, s.Severity)
		if s.Duration != "" {
			fmt.Fprintf(&b, ", %s", s.Duration)
		}
		b.WriteString("\n")
	}
	if len(d.RedFlags) > 0 {
		fmt.Fprintf(&b, "Red flags: %s\n", strings.Join(d.RedFlags, ", "))
	}
	if len(d.Conditions) > 0 {
		names := make([]string, len(d.Conditions))
		for i, c := range d.Conditions {
			names[i] = fmt.Sprintf("%s (%.0f%%)", c.Name, c.MatchScore*100)
		}
		fmt.Fprintf(&b, "Possible conditions: %s\n", strings.Join(names, ", "))
	}
	if d.ResponseTime != "" {
		fmt.Fprintf(&b, "Response time: %s\n", d.ResponseTime)
	}
	return b.String()
}

func unmarshalOptional(raw []byte, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
