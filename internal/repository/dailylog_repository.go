package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/ojt-portal-api/internal/models"
)

// ErrDuplicateLogDate signals that the intern already has a log for the
// requested date. Callers translate it into a conflict.
var ErrDuplicateLogDate = errors.New("daily log already exists for date")

const dailyLogColumns = `id, intern_id, day_no, log_date, time_in, time_out, total_hours,
	tasks_accomplished, skills_enhanced, learning_applied, photo_ref,
	adviser_status, adviser_comment, supervisor_status, supervisor_comment,
	created_at, updated_at`

// DailyLogRepository provides persistence for intern daily logs.
type DailyLogRepository struct {
	db *sqlx.DB
}

// NewDailyLogRepository constructs the repository.
func NewDailyLogRepository(db *sqlx.DB) *DailyLogRepository {
	return &DailyLogRepository{db: db}
}

// CreateSequenced inserts a log with its day number assigned inside a
// single transaction. The intern row is locked first so concurrent
// submissions for the same intern serialize; the unique index on
// (intern_id, log_date) backstops the duplicate check.
func (r *DailyLogRepository) CreateSequenced(ctx context.Context, log *models.DailyLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin daily log transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lockedID string
	if err = tx.GetContext(ctx, &lockedID, `SELECT id FROM interns WHERE id = $1 FOR UPDATE`, log.InternID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock intern row: %w", err)
	}

	var exists bool
	if err = tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM daily_logs WHERE intern_id = $1 AND log_date = $2)`,
		log.InternID, log.LogDate); err != nil {
		return fmt.Errorf("check duplicate log date: %w", err)
	}
	if exists {
		err = ErrDuplicateLogDate
		return err
	}

	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM daily_logs WHERE intern_id = $1`, log.InternID); err != nil {
		return fmt.Errorf("count intern logs: %w", err)
	}
	log.DayNo = count + 1

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now

	const insertQuery = `INSERT INTO daily_logs (id, intern_id, day_no, log_date, time_in, time_out, total_hours,
	tasks_accomplished, skills_enhanced, learning_applied, photo_ref, created_at, updated_at)
VALUES (:id, :intern_id, :day_no, :log_date, :time_in, :time_out, :total_hours,
	:tasks_accomplished, :skills_enhanced, :learning_applied, :photo_ref, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, log); err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicateLogDate
			return err
		}
		return fmt.Errorf("insert daily log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit daily log: %w", err)
	}
	return nil
}

// ListByIntern returns the intern's logs ordered most recent date first.
func (r *DailyLogRepository) ListByIntern(ctx context.Context, internID string) ([]models.DailyLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_logs WHERE intern_id = $1 ORDER BY log_date DESC`, dailyLogColumns)
	var logs []models.DailyLog
	if err := r.db.SelectContext(ctx, &logs, query, internID); err != nil {
		return nil, fmt.Errorf("list daily logs: %w", err)
	}
	return logs, nil
}

// FindByID returns a single log row.
func (r *DailyLogRepository) FindByID(ctx context.Context, id string) (*models.DailyLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_logs WHERE id = $1 LIMIT 1`, dailyLogColumns)
	var log models.DailyLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find daily log: %w", err)
	}
	return &log, nil
}

// FindByIDForIntern returns the log only when owned by the given intern.
func (r *DailyLogRepository) FindByIDForIntern(ctx context.Context, id, internID string) (*models.DailyLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM daily_logs WHERE id = $1 AND intern_id = $2 LIMIT 1`, dailyLogColumns)
	var log models.DailyLog
	if err := r.db.GetContext(ctx, &log, query, id, internID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find daily log for intern: %w", err)
	}
	return &log, nil
}

// FindByIDWithCompany loads the log joined with the owning intern's
// company linkage, used by the supervisor review path.
func (r *DailyLogRepository) FindByIDWithCompany(ctx context.Context, id string) (*models.DailyLogWithCompany, error) {
	const query = `SELECT dl.id, dl.intern_id, dl.day_no, dl.log_date, dl.time_in, dl.time_out, dl.total_hours,
	dl.tasks_accomplished, dl.skills_enhanced, dl.learning_applied, dl.photo_ref,
	dl.adviser_status, dl.adviser_comment, dl.supervisor_status, dl.supervisor_comment,
	dl.created_at, dl.updated_at,
	i.company_id AS company_id, c.supervisor_id AS company_supervisor_id
FROM daily_logs dl
JOIN interns i ON i.id = dl.intern_id
LEFT JOIN companies c ON c.id = i.company_id
WHERE dl.id = $1 LIMIT 1`
	var log models.DailyLogWithCompany
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find daily log with company: %w", err)
	}
	return &log, nil
}

// UpdateDailyLogParams defines the mutable fields of a log row.
type UpdateDailyLogParams struct {
	LogDate           *time.Time
	TimeIn            *string
	TimeOut           *string
	TotalHours        *float64
	TasksAccomplished *string
	SkillsEnhanced    *string
	LearningApplied   *string
	PhotoRef          *string
}

// Update persists the provided changes for a log row owned by the intern.
func (r *DailyLogRepository) Update(ctx context.Context, id, internID string, params UpdateDailyLogParams) error {
	set := make([]string, 0, 8)
	args := make([]interface{}, 0, 10)
	argPos := 1

	appendSet := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.LogDate != nil {
		appendSet("log_date", *params.LogDate)
	}
	if params.TimeIn != nil {
		appendSet("time_in", *params.TimeIn)
	}
	if params.TimeOut != nil {
		appendSet("time_out", *params.TimeOut)
	}
	if params.TotalHours != nil {
		appendSet("total_hours", *params.TotalHours)
	}
	if params.TasksAccomplished != nil {
		appendSet("tasks_accomplished", *params.TasksAccomplished)
	}
	if params.SkillsEnhanced != nil {
		appendSet("skills_enhanced", *params.SkillsEnhanced)
	}
	if params.LearningApplied != nil {
		appendSet("learning_applied", *params.LearningApplied)
	}
	if params.PhotoRef != nil {
		appendSet("photo_ref", *params.PhotoRef)
	}

	if len(set) == 0 {
		return nil
	}
	appendSet("updated_at", time.Now().UTC())

	query := fmt.Sprintf("UPDATE daily_logs SET %s WHERE id = $%d AND intern_id = $%d",
		strings.Join(set, ", "), argPos, argPos+1)
	args = append(args, id, internID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateLogDate
		}
		return fmt.Errorf("update daily log: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetAdviserReview overwrites the adviser's decision on a log.
func (r *DailyLogRepository) SetAdviserReview(ctx context.Context, id, status string, comment *string) error {
	const query = `UPDATE daily_logs SET adviser_status = $2, adviser_comment = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, comment, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set adviser review: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetSupervisorReview overwrites the supervisor's decision on a log.
func (r *DailyLogRepository) SetSupervisorReview(ctx context.Context, id, status string, comment *string) error {
	const query = `UPDATE daily_logs SET supervisor_status = $2, supervisor_comment = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, comment, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set supervisor review: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a log row owned by the intern.
func (r *DailyLogRepository) Delete(ctx context.Context, id, internID string) error {
	const query = `DELETE FROM daily_logs WHERE id = $1 AND intern_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, internID)
	if err != nil {
		return fmt.Errorf("delete daily log: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Summary aggregates the intern's logged days, hours, and approvals.
func (r *DailyLogRepository) Summary(ctx context.Context, internID string) (*models.ProgressSummary, error) {
	const query = `SELECT
	COUNT(*) AS total_days,
	COALESCE(SUM(total_hours), 0) AS total_hours,
	COUNT(adviser_status) FILTER (WHERE adviser_status = 'APPROVED') AS adviser_approved,
	COUNT(supervisor_status) FILTER (WHERE supervisor_status = 'APPROVED') AS supervisor_approved
FROM daily_logs WHERE intern_id = $1`
	var row struct {
		TotalDays          int     `db:"total_days"`
		TotalHours         float64 `db:"total_hours"`
		AdviserApproved    int     `db:"adviser_approved"`
		SupervisorApproved int     `db:"supervisor_approved"`
	}
	if err := r.db.GetContext(ctx, &row, query, internID); err != nil {
		return nil, fmt.Errorf("summarize daily logs: %w", err)
	}
	return &models.ProgressSummary{
		InternID:           internID,
		TotalDays:          row.TotalDays,
		TotalHours:         row.TotalHours,
		AdviserApproved:    row.AdviserApproved,
		SupervisorApproved: row.SupervisorApproved,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
