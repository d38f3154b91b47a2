package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/dto"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/repository"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
)

type evaluationStore interface {
	Create(ctx context.Context, eval *models.Evaluation) error
	ListByIntern(ctx context.Context, internID string) ([]models.Evaluation, error)
}

// EvaluationService records and lists periodic appraisal forms. Forms
// are append-only: one per intern, kind, academic year, and term.
type EvaluationService struct {
	evaluations evaluationStore
	interns     internReader
	audit       auditRecorder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEvaluationService constructs an EvaluationService.
func NewEvaluationService(evaluations evaluationStore, interns internReader, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{
		evaluations: evaluations,
		interns:     interns,
		audit:       audit,
		validator:   validate,
		logger:      logger,
	}
}

// Create records an appraisal. Supervisors may only evaluate interns
// placed at their own company; advisers and admins may evaluate anyone.
func (s *EvaluationService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateEvaluationRequest) (*models.Evaluation, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "intern, kind, academic year, term, and scores are required")
	}
	for item, score := range req.Scores {
		if score < 1 || score > 5 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "score for "+item+" must be between 1 and 5")
		}
	}

	intern, err := s.interns.FindByID(ctx, req.InternID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "intern record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intern")
	}

	if claims.Role == models.RoleSupervisor {
		supervisorID, err := s.interns.CompanySupervisorID(ctx, intern.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intern placement")
		}
		if supervisorID == nil || *supervisorID != claims.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not the supervisor of this intern's company")
		}
	}

	eval := &models.Evaluation{
		InternID:     intern.ID,
		CompanyID:    intern.CompanyID,
		EvaluatorID:  claims.UserID,
		Kind:         req.Kind,
		AcademicYear: req.AcademicYear,
		Term:         req.Term,
		Scores:       req.Scores,
		Remarks:      req.Remarks,
	}
	if err := s.evaluations.Create(ctx, eval); err != nil {
		if errors.Is(err, repository.ErrDuplicateEvaluation) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an evaluation of this kind already exists for the term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record evaluation")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &claims.UserID,
			Action:     models.AuditActionEvaluationCreate,
			Resource:   "evaluation",
			ResourceID: &eval.ID,
		}); err != nil {
			s.logger.Warn("failed to record audit log", zap.Error(err))
		}
	}
	return eval, nil
}

// ListByIntern returns an intern's evaluations. Interns see their own;
// supervisors are restricted to interns at their company.
func (s *EvaluationService) ListByIntern(ctx context.Context, claims *models.JWTClaims, internID string) ([]models.Evaluation, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	switch claims.Role {
	case models.RoleIntern:
		intern, err := s.interns.FindByUserID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "intern record not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intern")
		}
		internID = intern.ID
	case models.RoleSupervisor:
		supervisorID, err := s.interns.CompanySupervisorID(ctx, internID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "intern record not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intern placement")
		}
		if supervisorID == nil || *supervisorID != claims.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not the supervisor of this intern's company")
		}
	}
	if internID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "internId is required")
	}

	evals, err := s.evaluations.ListByIntern(ctx, internID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	return evals, nil
}
