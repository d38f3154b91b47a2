package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EvaluationKind distinguishes the two appraisal forms.
type EvaluationKind string

const (
	EvaluationKindHTE        EvaluationKind = "HTE"
	EvaluationKindSupervisor EvaluationKind = "SUPERVISOR"
)

// EvaluationScores stores the form's rating items persisted as JSONB.
type EvaluationScores map[string]int

// Value marshals scores to JSON for persistence.
func (s EvaluationScores) Value() (driver.Value, error) {
	if s == nil {
		s = EvaluationScores{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal evaluation scores: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the scores map.
func (s *EvaluationScores) Scan(value interface{}) error {
	if value == nil {
		*s = EvaluationScores{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for EvaluationScores", value)
	}
	if len(data) == 0 {
		*s = EvaluationScores{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal evaluation scores: %w", err)
	}
	return nil
}

// Evaluation is a periodic appraisal of an intern. Created once per
// (intern, kind, academic_year, term) and never mutated afterwards.
type Evaluation struct {
	ID           string           `db:"id" json:"id"`
	InternID     string           `db:"intern_id" json:"intern_id"`
	CompanyID    *string          `db:"company_id" json:"company_id,omitempty"`
	EvaluatorID  string           `db:"evaluator_id" json:"evaluator_id"`
	Kind         EvaluationKind   `db:"kind" json:"kind"`
	AcademicYear string           `db:"academic_year" json:"academic_year"`
	Term         string           `db:"term" json:"term"`
	Scores       EvaluationScores `db:"scores" json:"scores"`
	Remarks      *string          `db:"remarks" json:"remarks,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}
