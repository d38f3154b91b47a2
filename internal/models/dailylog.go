package models

import "time"

// DailyLog is one day's activity record submitted by exactly one intern.
// DayNo is assigned at creation and never renumbered; TotalHours is
// derived from the clock times and never supplied by the caller. The
// adviser and supervisor review pairs are independent of each other.
type DailyLog struct {
	ID                string    `db:"id" json:"id"`
	InternID          string    `db:"intern_id" json:"intern_id"`
	DayNo             int       `db:"day_no" json:"day_no"`
	LogDate           time.Time `db:"log_date" json:"log_date"`
	TimeIn            string    `db:"time_in" json:"time_in"`
	TimeOut           string    `db:"time_out" json:"time_out"`
	TotalHours        float64   `db:"total_hours" json:"total_hours"`
	TasksAccomplished string    `db:"tasks_accomplished" json:"tasks_accomplished"`
	SkillsEnhanced    *string   `db:"skills_enhanced" json:"skills_enhanced,omitempty"`
	LearningApplied   *string   `db:"learning_applied" json:"learning_applied,omitempty"`
	PhotoRef          *string   `db:"photo_ref" json:"photo_ref,omitempty"`
	AdviserStatus     *string   `db:"adviser_status" json:"adviser_status,omitempty"`
	AdviserComment    *string   `db:"adviser_comment" json:"adviser_comment,omitempty"`
	SupervisorStatus  *string   `db:"supervisor_status" json:"supervisor_status,omitempty"`
	SupervisorComment *string   `db:"supervisor_comment" json:"supervisor_comment,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// DailyLogWithCompany carries the owning intern's company linkage used
// by the supervisor review and listing paths.
type DailyLogWithCompany struct {
	DailyLog
	CompanyID           *string `db:"company_id"`
	CompanySupervisorID *string `db:"company_supervisor_id"`
}

// ProgressSummary aggregates an intern's logged work.
type ProgressSummary struct {
	InternID           string  `json:"intern_id"`
	TotalDays          int     `json:"total_days"`
	TotalHours         float64 `json:"total_hours"`
	AdviserApproved    int     `json:"adviser_approved"`
	SupervisorApproved int     `json:"supervisor_approved"`
}
