package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ojt-portal-api/internal/models"
)

func TestEvaluationCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectExec("INSERT INTO evaluations").WillReturnResult(sqlmock.NewResult(1, 1))

	eval := &models.Evaluation{
		InternID:     "intern-1",
		EvaluatorID:  "adviser-1",
		Kind:         models.EvaluationKindHTE,
		AcademicYear: "2025-2026",
		Term:         "1st",
		Scores:       models.EvaluationScores{"attendance": 5},
	}
	require.NoError(t, repo.Create(context.Background(), eval))
	assert.NotEmpty(t, eval.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationCreateDuplicateTerm(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectExec("INSERT INTO evaluations").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Evaluation{InternID: "intern-1", Kind: models.EvaluationKindHTE})
	assert.ErrorIs(t, err, ErrDuplicateEvaluation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
