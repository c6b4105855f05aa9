package catalog

// Urgency is the typical urgency tier of a condition.
type Urgency string

const (
	UrgencyEmergency Urgency = "EMERGENCY"
	UrgencyUrgent    Urgency = "URGENT"
	UrgencyNonUrgent Urgency = "NON_URGENT"
	UrgencySelfCare  Urgency = "SELF_CARE"
)

// SymptomRecord is one row of the symptom catalog.
type SymptomRecord struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	CommonNames     []string `json:"commonNames"`
	BodySystem      string   `json:"bodySystem"`
	DefaultSeverity string   `json:"defaultSeverity"`
	IsRedFlag       bool     `json:"isRedFlag"`
	Keywords        []string `json:"keywords"`
}

// ConditionRecord is one row of the condition catalog.
type ConditionRecord struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	TypicalUrgency Urgency  `json:"typicalUrgency"`
	ICD10Code      string   `json:"icd10Code,omitempty"`
	Prevalence     string   `json:"prevalence,omitempty"`
	AgeGroups      []string `json:"ageGroups"`
	RiskFactors    []string `json:"riskFactors"`
	Complications  []string `json:"complications"`
}

// RelevanceRow is a symptom-condition link as seen from a condition.
type RelevanceRow struct {
	SymptomName      string  `json:"symptomName"`
	RelevanceScore   float64 `json:"relevanceScore"`
	SeverityModifier float64 `json:"severityModifier"`
}

// ConditionCandidate is a condition together with the relevance rows that
// linked it to the queried symptom names.
type ConditionCandidate struct {
	Condition     ConditionRecord
	RelevanceRows []RelevanceRow
}

// ConditionDetail is a condition with every symptom linked to it.
type ConditionDetail struct {
	Condition ConditionRecord `json:"condition"`
	Symptoms  []RelevanceRow  `json:"symptoms"`
}

// SearchOptions narrows a symptom search.
type SearchOptions struct {
	Query       string
	BodySystem  string
	RedFlagOnly bool
	Limit       int
}

// Search limits.
const (
	DefaultPageSize   = 10
	MaxSymptomsSearch = 50
	MaxCandidates     = 10
)
