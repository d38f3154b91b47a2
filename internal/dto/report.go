package dto

import "github.com/noah-isme/ojt-portal-api/internal/models"

// CreateReportRequest submits an asynchronous report job.
type CreateReportRequest struct {
	Type      models.ReportType   `json:"type" validate:"required,oneof=adviser_masterlist endorsement_letter"`
	Format    models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	AdviserID *string             `json:"adviser_id,omitempty"`
	InternID  *string             `json:"intern_id,omitempty"`
	Program   *string             `json:"program,omitempty"`
}
