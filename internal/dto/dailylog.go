package dto

// CreateLogRequest carries a new daily log submission. LogDate uses
// YYYY-MM-DD, the clock fields HH:MM. The photo travels separately as a
// PhotoUpload because submissions arrive as multipart forms.
type CreateLogRequest struct {
	LogDate           string  `form:"log_date" json:"log_date" validate:"required,datetime=2006-01-02"`
	TimeIn            string  `form:"time_in" json:"time_in" validate:"required"`
	TimeOut           string  `form:"time_out" json:"time_out" validate:"required"`
	TasksAccomplished string  `form:"tasks_accomplished" json:"tasks_accomplished" validate:"required"`
	SkillsEnhanced    *string `form:"skills_enhanced" json:"skills_enhanced,omitempty"`
	LearningApplied   *string `form:"learning_applied" json:"learning_applied,omitempty"`
}

// UpdateLogRequest applies a partial edit; only supplied fields are written.
type UpdateLogRequest struct {
	LogDate           *string `form:"log_date" json:"log_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TimeIn            *string `form:"time_in" json:"time_in,omitempty"`
	TimeOut           *string `form:"time_out" json:"time_out,omitempty"`
	TasksAccomplished *string `form:"tasks_accomplished" json:"tasks_accomplished,omitempty"`
	SkillsEnhanced    *string `form:"skills_enhanced" json:"skills_enhanced,omitempty"`
	LearningApplied   *string `form:"learning_applied" json:"learning_applied,omitempty"`
}

// PhotoUpload holds an uploaded photo's content and original name.
type PhotoUpload struct {
	OriginalName string
	ContentType  string
	Data         []byte
}

// ReviewRequest records an adviser or supervisor decision on a log.
// Re-submitting replaces the prior status and comment.
type ReviewRequest struct {
	Status  string  `json:"status" validate:"required"`
	Comment *string `json:"comment,omitempty"`
}
