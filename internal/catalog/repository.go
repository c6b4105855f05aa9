package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"meditriage/internal/apperror"
)

// Repository is the read-only reference store.
type Repository interface {
	FindRedFlagSymptoms(ctx context.Context, names []string) ([]SymptomRecord, error)
	FindMatchingConditions(ctx context.Context, names []string, limit int) ([]ConditionCandidate, error)
	CountRedFlagSymptoms(ctx context.Context) (int, error)
	SearchSymptoms(ctx context.Context, opts SearchOptions) ([]SymptomRecord, error)
	GetSymptom(ctx context.Context, id string) (*SymptomRecord, error)
	ListBodySystems(ctx context.Context) ([]string, error)
	ListRedFlagSymptoms(ctx context.Context) ([]SymptomRecord, error)
	LookupCondition(ctx context.Context, name string) (*ConditionDetail, error)
	Ping(ctx context.Context) error
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const symptomColumns = `s.id, s.name, COALESCE(s.description, ''), COALESCE(s.common_names, '{}'),
	COALESCE(s.body_system, ''), COALESCE(s.default_severity, ''), s.is_red_flag, COALESCE(s.keywords, '{}')`

const conditionColumns = `c.id, c.name, COALESCE(c.description, ''), COALESCE(c.category, ''), c.typical_urgency,
	COALESCE(c.icd10_code, ''), COALESCE(c.prevalence, ''), COALESCE(c.age_groups, '{}'),
	COALESCE(c.risk_factors, '{}'), COALESCE(c.complications, '{}')`

// FindRedFlagSymptoms matches red-flag symptoms by exact name, containment in
// either direction, or keyword overlap. The containment predicate mirrors
// triage.FuzzyMatch.
func (r *postgresRepo) FindRedFlagSymptoms(ctx context.Context, names []string) ([]SymptomRecord, error) {
	query := `
		SELECT ` + symptomColumns + `
		FROM symptoms s
		WHERE s.is_red_flag = TRUE
		AND (
			LOWER(s.name) = ANY($1::text[])
			OR s.keywords && $1::text[]
			OR EXISTS (
				SELECT 1 FROM unnest($1::text[]) AS n(term)
				WHERE n.term <> ''
				AND (LOWER(s.name) LIKE '%' || n.term || '%' OR n.term LIKE '%' || LOWER(s.name) || '%')
			)
		)
		ORDER BY s.name
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("query red flag symptoms: %w", err)
	}
	return scanSymptoms(rows)
}

// FindMatchingConditions joins conditions to the relevance rows of symptoms
// matching names, most linked rows first.
func (r *postgresRepo) FindMatchingConditions(ctx context.Context, names []string, limit int) ([]ConditionCandidate, error) {
	if limit <= 0 || limit > MaxCandidates {
		limit = MaxCandidates
	}
	query := `
		SELECT ` + conditionColumns + `,
			json_agg(
				json_build_object(
					'symptomName', s.name,
					'relevanceScore', sc.relevance_score,
					'severityModifier', sc.severity_modifier
				) ORDER BY s.name
			) AS matched_symptoms
		FROM conditions c
		JOIN symptom_conditions sc ON c.id = sc.condition_id
		JOIN symptoms s ON sc.symptom_id = s.id
		WHERE LOWER(s.name) = ANY($1::text[])
			OR s.keywords && $1::text[]
		GROUP BY c.id
		ORDER BY COUNT(sc.id) DESC, c.name ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(names), limit)
	if err != nil {
		return nil, fmt.Errorf("query matching conditions: %w", err)
	}
	defer rows.Close()

	var out []ConditionCandidate
	for rows.Next() {
		var c ConditionCandidate
		var matched []byte
		dest := append(conditionDest(&c.Condition), &matched)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		if err := json.Unmarshal(matched, &c.RelevanceRows); err != nil {
			return nil, fmt.Errorf("decode relevance rows for %s: %w", c.Condition.Name, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conditions: %w", err)
	}
	return out, nil
}

func (r *postgresRepo) CountRedFlagSymptoms(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symptoms WHERE is_red_flag = TRUE`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count red flag symptoms: %w", err)
	}
	return count, nil
}

func (r *postgresRepo) SearchSymptoms(ctx context.Context, opts SearchOptions) ([]SymptomRecord, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageSize
	}
	if opts.Limit > MaxSymptomsSearch {
		opts.Limit = MaxSymptomsSearch
	}

	query := `
		SELECT ` + symptomColumns + `
		FROM symptoms s
		WHERE (
			LOWER(s.name) LIKE LOWER($1)
			OR LOWER(COALESCE(s.description, '')) LIKE LOWER($1)
			OR s.keywords && ARRAY[LOWER($2)]
			OR EXISTS (
				SELECT 1 FROM unnest(s.common_names) cn
				WHERE LOWER(cn) LIKE LOWER($1)
			)
		)
		AND ($3 = '' OR s.body_system = $3)
		AND (NOT $4 OR s.is_red_flag = TRUE)
		ORDER BY s.is_red_flag DESC, s.name ASC
		LIMIT $5
	`
	pattern := "%" + escapeLike(opts.Query) + "%"
	rows, err := r.db.QueryContext(ctx, query, pattern, opts.Query, opts.BodySystem, opts.RedFlagOnly, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("search symptoms: %w", err)
	}
	return scanSymptoms(rows)
}

func (r *postgresRepo) GetSymptom(ctx context.Context, id string) (*SymptomRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+symptomColumns+` FROM symptoms s WHERE s.id = $1`, id)
	var s SymptomRecord
	if err := row.Scan(symptomDest(&s)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("symptom %s: %w", id, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("get symptom: %w", err)
	}
	return &s, nil
}

func (r *postgresRepo) ListBodySystems(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT body_system
		FROM symptoms
		WHERE body_system IS NOT NULL
		ORDER BY body_system
	`)
	if err != nil {
		return nil, fmt.Errorf("list body systems: %w", err)
	}
	defer rows.Close()

	systems := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan body system: %w", err)
		}
		systems = append(systems, s)
	}
	return systems, rows.Err()
}

func (r *postgresRepo) ListRedFlagSymptoms(ctx context.Context) ([]SymptomRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+symptomColumns+` FROM symptoms s WHERE s.is_red_flag = TRUE ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("list red flag symptoms: %w", err)
	}
	return scanSymptoms(rows)
}

// LookupCondition prefers an exact (case-insensitive) name match, then the
// shortest name containing the query.
func (r *postgresRepo) LookupCondition(ctx context.Context, name string) (*ConditionDetail, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+conditionColumns+`
		FROM conditions c
		WHERE LOWER(c.name) LIKE '%' || LOWER($1) || '%'
		ORDER BY (LOWER(c.name) = LOWER($2)) DESC, LENGTH(c.name) ASC, c.name ASC
		LIMIT 1
	`, escapeLike(name), name)

	var detail ConditionDetail
	if err := row.Scan(conditionDest(&detail.Condition)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("condition %q: %w", name, apperror.ErrNotFound)
		}
		return nil, fmt.Errorf("lookup condition: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT s.name, sc.relevance_score, sc.severity_modifier
		FROM symptom_conditions sc
		JOIN symptoms s ON sc.symptom_id = s.id
		WHERE sc.condition_id = $1
		ORDER BY sc.relevance_score DESC, s.name ASC
	`, detail.Condition.ID)
	if err != nil {
		return nil, fmt.Errorf("list condition symptoms: %w", err)
	}
	defer rows.Close()

	detail.Symptoms = []RelevanceRow{}
	for rows.Next() {
		var rr RelevanceRow
		if err := rows.Scan(&rr.SymptomName, &rr.RelevanceScore, &rr.SeverityModifier); err != nil {
			return nil, fmt.Errorf("scan condition symptom: %w", err)
		}
		detail.Symptoms = append(detail.Symptoms, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate condition symptoms: %w", err)
	}
	return &detail, nil
}

func (r *postgresRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanSymptoms(rows *sql.Rows) ([]SymptomRecord, error) {
	defer rows.Close()
	out := []SymptomRecord{}
	for rows.Next() {
		var s SymptomRecord
		if err := rows.Scan(symptomDest(&s)...); err != nil {
			return nil, fmt.Errorf("scan symptom: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symptoms: %w", err)
	}
	return out, nil
}

func symptomDest(s *SymptomRecord) []interface{} {
	return []interface{}{
		&s.ID, &s.Name, &s.Description, pq.Array(&s.CommonNames),
		&s.BodySystem, &s.DefaultSeverity, &s.IsRedFlag, pq.Array(&s.Keywords),
	}
}

func conditionDest(c *ConditionRecord) []interface{} {
	return []interface{}{
		&c.ID, &c.Name, &c.Description, &c.Category, &c.TypicalUrgency,
		&c.ICD10Code, &c.Prevalence, pq.Array(&c.AgeGroups),
		pq.Array(&c.RiskFactors), pq.Array(&c.Complications),
	}
}

// escapeLike neutralises LIKE wildcards in user input.
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
