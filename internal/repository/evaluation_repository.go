package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ojt-portal-api/internal/models"
)

// ErrDuplicateEvaluation signals that an evaluation already exists for
// the (intern, kind, academic year, term) combination.
var ErrDuplicateEvaluation = errors.New("evaluation already recorded for term")

// EvaluationRepository provides append-only persistence for evaluations.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create inserts an evaluation. The unique index on
// (intern_id, kind, academic_year, term) enforces once-per-term.
func (r *EvaluationRepository) Create(ctx context.Context, eval *models.Evaluation) error {
	if eval.ID == "" {
		eval.ID = uuid.NewString()
	}
	if eval.CreatedAt.IsZero() {
		eval.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO evaluations (id, intern_id, company_id, evaluator_id, kind, academic_year, term, scores, remarks, created_at)
VALUES (:id, :intern_id, :company_id, :evaluator_id, :kind, :academic_year, :term, :scores, :remarks, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, eval); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEvaluation
		}
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

// ListByIntern returns the intern's evaluations newest first.
func (r *EvaluationRepository) ListByIntern(ctx context.Context, internID string) ([]models.Evaluation, error) {
	const query = `SELECT id, intern_id, company_id, evaluator_id, kind, academic_year, term, scores, remarks, created_at
FROM evaluations WHERE intern_id = $1 ORDER BY created_at DESC`
	var evals []models.Evaluation
	if err := r.db.SelectContext(ctx, &evals, query, internID); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return evals, nil
}
