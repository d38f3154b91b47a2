package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ojt-portal-api/internal/models"
)

// InternRepository provides database access for intern enrollment rows.
type InternRepository struct {
	db *sqlx.DB
}

// NewInternRepository creates a new instance of InternRepository.
func NewInternRepository(db *sqlx.DB) *InternRepository {
	return &InternRepository{db: db}
}

// Create inserts a new intern enrollment.
func (r *InternRepository) Create(ctx context.Context, intern *models.Intern) error {
	if intern.ID == "" {
		intern.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if intern.CreatedAt.IsZero() {
		intern.CreatedAt = now
	}
	intern.UpdatedAt = now
	const query = `INSERT INTO interns (id, user_id, adviser_id, company_id, program, academic_year, created_at, updated_at)
VALUES (:id, :user_id, :adviser_id, :company_id, :program, :academic_year, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, intern); err != nil {
		return fmt.Errorf("create intern: %w", err)
	}
	return nil
}

// FindByID returns an intern by identifier.
func (r *InternRepository) FindByID(ctx context.Context, id string) (*models.Intern, error) {
	const query = `SELECT id, user_id, adviser_id, company_id, program, academic_year, created_at, updated_at
FROM interns WHERE id = $1 LIMIT 1`
	var intern models.Intern
	if err := r.db.GetContext(ctx, &intern, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find intern by id: %w", err)
	}
	return &intern, nil
}

// FindDetailByID returns a single intern joined with display fields.
func (r *InternRepository) FindDetailByID(ctx context.Context, id string) (*models.InternDetail, error) {
	const query = `SELECT i.id, i.user_id, i.adviser_id, i.company_id, i.program, i.academic_year,
	i.created_at, i.updated_at,
	u.full_name AS full_name, u.email AS email,
	c.name AS company_name, a.full_name AS adviser_name
FROM interns i
JOIN users u ON u.id = i.user_id
LEFT JOIN companies c ON c.id = i.company_id
LEFT JOIN users a ON a.id = i.adviser_id
WHERE i.id = $1 LIMIT 1`
	var detail models.InternDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find intern detail: %w", err)
	}
	return &detail, nil
}

// FindByUserID resolves the intern record owned by the given user.
func (r *InternRepository) FindByUserID(ctx context.Context, userID string) (*models.Intern, error) {
	const query = `SELECT id, user_id, adviser_id, company_id, program, academic_year, created_at, updated_at
FROM interns WHERE user_id = $1 LIMIT 1`
	var intern models.Intern
	if err := r.db.GetContext(ctx, &intern, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find intern by user id: %w", err)
	}
	return &intern, nil
}

// CompanySupervisorID returns the supervising user of the intern's
// assigned company, nil when the intern is unplaced or the company has
// no supervisor account yet.
func (r *InternRepository) CompanySupervisorID(ctx context.Context, internID string) (*string, error) {
	const query = `SELECT c.supervisor_id
FROM interns i
LEFT JOIN companies c ON c.id = i.company_id
WHERE i.id = $1 LIMIT 1`
	var supervisorID *string
	if err := r.db.GetContext(ctx, &supervisorID, query, internID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find company supervisor: %w", err)
	}
	return supervisorID, nil
}

// Place updates the intern's company and/or adviser assignment.
func (r *InternRepository) Place(ctx context.Context, id string, companyID, adviserID *string) error {
	set := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	argPos := 1

	if companyID != nil {
		set = append(set, fmt.Sprintf("company_id = $%d", argPos))
		args = append(args, *companyID)
		argPos++
	}
	if adviserID != nil {
		set = append(set, fmt.Sprintf("adviser_id = $%d", argPos))
		args = append(args, *adviserID)
		argPos++
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	query := fmt.Sprintf("UPDATE interns SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("place intern: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDetails returns interns with display fields for listings and reports.
func (r *InternRepository) ListDetails(ctx context.Context, filter models.InternFilter) ([]models.InternDetail, int, error) {
	baseQuery := `FROM interns i
JOIN users u ON u.id = i.user_id
LEFT JOIN companies c ON c.id = i.company_id
LEFT JOIN users a ON a.id = i.adviser_id
WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.AdviserID != "" {
		conditions = append(conditions, fmt.Sprintf("i.adviser_id = $%d", len(args)+1))
		args = append(args, filter.AdviserID)
	}
	if filter.CompanyID != "" {
		conditions = append(conditions, fmt.Sprintf("i.company_id = $%d", len(args)+1))
		args = append(args, filter.CompanyID)
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("i.program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf(`SELECT i.id, i.user_id, i.adviser_id, i.company_id, i.program, i.academic_year,
	i.created_at, i.updated_at,
	u.full_name AS full_name, u.email AS email,
	c.name AS company_name, a.full_name AS adviser_name
%s ORDER BY u.full_name ASC LIMIT %d OFFSET %d`, baseQuery, pageSize, offset)

	var interns []models.InternDetail
	if err := r.db.SelectContext(ctx, &interns, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list interns: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count interns: %w", err)
	}
	return interns, total, nil
}
