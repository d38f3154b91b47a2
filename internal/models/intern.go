package models

import "time"

// Company is a host training establishment accepting interns. The
// supervising account on the company side is linked via SupervisorID.
type Company struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Address      string    `db:"address" json:"address"`
	SupervisorID *string   `db:"supervisor_id" json:"supervisor_id,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Intern is a student enrolled in the OJT program. CompanyID stays nil
// until placement.
type Intern struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	AdviserID    *string   `db:"adviser_id" json:"adviser_id,omitempty"`
	CompanyID    *string   `db:"company_id" json:"company_id,omitempty"`
	Program      string    `db:"program" json:"program"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// InternDetail joins the intern with display fields used by reports.
type InternDetail struct {
	Intern
	FullName    string  `db:"full_name" json:"full_name"`
	Email       string  `db:"email" json:"email"`
	CompanyName *string `db:"company_name" json:"company_name,omitempty"`
	AdviserName *string `db:"adviser_name" json:"adviser_name,omitempty"`
}

// InternFilter captures listing criteria.
type InternFilter struct {
	AdviserID string
	CompanyID string
	Program   string
	Page      int
	PageSize  int
}
