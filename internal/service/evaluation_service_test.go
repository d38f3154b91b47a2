package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/dto"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/repository"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
)

type mockEvaluationStore struct {
	created   []*models.Evaluation
	createErr error
	listed    []models.Evaluation
}

func (m *mockEvaluationStore) Create(ctx context.Context, eval *models.Evaluation) error {
	if m.createErr != nil {
		return m.createErr
	}
	eval.ID = "eval-1"
	m.created = append(m.created, eval)
	return nil
}

func (m *mockEvaluationStore) ListByIntern(ctx context.Context, internID string) ([]models.Evaluation, error) {
	return m.listed, nil
}

func newTestEvaluationService(store *mockEvaluationStore, interns *mockInternReader) *EvaluationService {
	return NewEvaluationService(store, interns, &mockAuditRecorder{}, validator.New(), zap.NewNop())
}

func validEvaluationRequest() dto.CreateEvaluationRequest {
	return dto.CreateEvaluationRequest{
		InternID:     "intern-1",
		Kind:         models.EvaluationKindHTE,
		AcademicYear: "2025-2026",
		Term:         "1st",
		Scores:       models.EvaluationScores{"attendance": 5, "quality_of_work": 4},
	}
}

func TestEvaluationCreateByAdviser(t *testing.T) {
	companyID := "company-1"
	store := &mockEvaluationStore{}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", CompanyID: &companyID}}
	svc := newTestEvaluationService(store, interns)

	claims := &models.JWTClaims{UserID: "adviser-1", Role: models.RoleAdviser}
	eval, err := svc.Create(context.Background(), claims, validEvaluationRequest())
	require.NoError(t, err)
	assert.Equal(t, "adviser-1", eval.EvaluatorID)
	assert.Equal(t, &companyID, eval.CompanyID)
}

func TestEvaluationCreateDuplicateTerm(t *testing.T) {
	store := &mockEvaluationStore{createErr: repository.ErrDuplicateEvaluation}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1"}}
	svc := newTestEvaluationService(store, interns)

	claims := &models.JWTClaims{UserID: "adviser-1", Role: models.RoleAdviser}
	_, err := svc.Create(context.Background(), claims, validEvaluationRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEvaluationCreateSupervisorOutsideCompany(t *testing.T) {
	other := "supervisor-2"
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1"}, supervisorID: &other}
	svc := newTestEvaluationService(&mockEvaluationStore{}, interns)

	claims := &models.JWTClaims{UserID: "supervisor-1", Role: models.RoleSupervisor}
	_, err := svc.Create(context.Background(), claims, validEvaluationRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestEvaluationCreateRejectsOutOfRangeScore(t *testing.T) {
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1"}}
	svc := newTestEvaluationService(&mockEvaluationStore{}, interns)

	req := validEvaluationRequest()
	req.Scores["attendance"] = 9
	claims := &models.JWTClaims{UserID: "adviser-1", Role: models.RoleAdviser}
	_, err := svc.Create(context.Background(), claims, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEvaluationListOwnResolvesIntern(t *testing.T) {
	store := &mockEvaluationStore{listed: []models.Evaluation{{ID: "eval-1", InternID: "intern-1"}}}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	svc := newTestEvaluationService(store, interns)

	evals, err := svc.ListByIntern(context.Background(), internClaims(), "")
	require.NoError(t, err)
	assert.Len(t, evals, 1)
}
