package dto

import "github.com/noah-isme/ojt-portal-api/internal/models"

// CreateEvaluationRequest records a new appraisal form.
type CreateEvaluationRequest struct {
	InternID     string                  `json:"intern_id" validate:"required"`
	Kind         models.EvaluationKind   `json:"kind" validate:"required,oneof=HTE SUPERVISOR"`
	AcademicYear string                  `json:"academic_year" validate:"required"`
	Term         string                  `json:"term" validate:"required"`
	Scores       models.EvaluationScores `json:"scores" validate:"required"`
	Remarks      *string                 `json:"remarks,omitempty"`
}
