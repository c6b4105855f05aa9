package analytics

import (
	"time"

	"gorm.io/datatypes"
)

// TriageLog is the persisted record of one triage call.
type TriageLog struct {
	ID              string         `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	SessionID       string         `gorm:"column:session_id;type:varchar(100);not null;index" json:"sessionId"`
	Symptoms        datatypes.JSON `gorm:"column:symptoms;type:jsonb;not null" json:"symptoms"`
	AgeGroup        string         `gorm:"column:age_group;type:varchar(20)" json:"ageGroup,omitempty"`
	UrgencyLevel    string         `gorm:"column:urgency_level;type:varchar(20);not null" json:"urgencyLevel"`
	Confidence      float64        `gorm:"column:confidence;not null" json:"confidence"`
	TotalScore      int            `gorm:"column:total_score;not null" json:"totalScore"`
	Criticality     string         `gorm:"column:criticality;type:varchar(20);not null" json:"criticality"`
	TopConditions   datatypes.JSON `gorm:"column:top_conditions;type:jsonb" json:"topConditions"`
	RedFlags        datatypes.JSON `gorm:"column:red_flags;type:jsonb" json:"redFlags"`
	Recommendation  string         `gorm:"column:recommendation;type:text;not null" json:"recommendation"`
	Reasoning       string         `gorm:"column:reasoning;type:text" json:"reasoning"`
	ResponseTime    string         `gorm:"column:estimated_response_time;type:varchar(100)" json:"estimatedResponseTime"`
	DisclaimerShown bool           `gorm:"column:disclaimer_shown;not null" json:"disclaimerShown"`
	ResponseTimeMs  int64          `gorm:"column:response_time_ms" json:"responseTimeMs"`
	Metadata        datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null" json:"createdAt"`
}

func (TriageLog) TableName() string {
	return "triage_logs"
}

// LoggedSymptom is one entry of TriageLog.Symptoms.
type LoggedSymptom struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Duration string `json:"duration,omitempty"`
}

// LoggedCondition is one entry of TriageLog.TopConditions.
type LoggedCondition struct {
	Name       string  `json:"name"`
	Urgency    string  `json:"urgency"`
	MatchScore float64 `json:"matchScore"`
}

// Metadata holds the optional request context.
type Metadata struct {
	ExistingConditions []string `json:"existingConditions,omitempty"`
	Medications        []string `json:"medications,omitempty"`
	EmergencyPatterns  []string `json:"emergencyPatterns,omitempty"`
	ClientReference    string   `json:"clientReference,omitempty"`
}

// CompletedEvent is published for every recorded triage.
type CompletedEvent struct {
	LogID        string    `json:"logId"`
	SessionID    string    `json:"sessionId"`
	UrgencyLevel string    `json:"urgencyLevel"`
	TotalScore   int       `json:"totalScore"`
	HasRedFlags  bool      `json:"hasRedFlags"`
	Timestamp    time.Time `json:"timestamp"`
}
