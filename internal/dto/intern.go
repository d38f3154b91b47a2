package dto

// CreateInternRequest enrolls a student in the OJT program.
type CreateInternRequest struct {
	UserID       string  `json:"user_id" validate:"required"`
	Program      string  `json:"program" validate:"required"`
	AcademicYear string  `json:"academic_year" validate:"required"`
	AdviserID    *string `json:"adviser_id,omitempty"`
	CompanyID    *string `json:"company_id,omitempty"`
}

// PlaceInternRequest assigns or reassigns the intern's company and adviser.
type PlaceInternRequest struct {
	CompanyID *string `json:"company_id,omitempty"`
	AdviserID *string `json:"adviser_id,omitempty"`
}

// CreateCompanyRequest registers a host training establishment.
type CreateCompanyRequest struct {
	Name         string  `json:"name" validate:"required"`
	Address      string  `json:"address" validate:"required"`
	SupervisorID *string `json:"supervisor_id,omitempty"`
}
