package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/dto"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
)

type internStore interface {
	Create(ctx context.Context, intern *models.Intern) error
	FindByID(ctx context.Context, id string) (*models.Intern, error)
	Place(ctx context.Context, id string, companyID, adviserID *string) error
	ListDetails(ctx context.Context, filter models.InternFilter) ([]models.InternDetail, int, error)
}

type companyStore interface {
	Create(ctx context.Context, company *models.Company) error
	FindByID(ctx context.Context, id string) (*models.Company, error)
	List(ctx context.Context) ([]models.Company, error)
}

// InternService covers program administration: enrolling interns,
// registering companies, and placements.
type InternService struct {
	interns   internStore
	companies companyStore
	users     userStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInternService constructs an InternService.
func NewInternService(interns internStore, companies companyStore, users userStore, validate *validator.Validate, logger *zap.Logger) *InternService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InternService{
		interns:   interns,
		companies: companies,
		users:     users,
		validator: validate,
		logger:    logger,
	}
}

// Enroll registers a student as an intern.
func (s *InternService) Enroll(ctx context.Context, req dto.CreateInternRequest) (*models.Intern, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user, program, and academic year are required")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleIntern {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user does not have the intern role")
	}

	if req.CompanyID != nil {
		if _, err := s.companies.FindByID(ctx, *req.CompanyID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
		}
	}

	intern := &models.Intern{
		UserID:       req.UserID,
		AdviserID:    req.AdviserID,
		CompanyID:    req.CompanyID,
		Program:      req.Program,
		AcademicYear: req.AcademicYear,
	}
	if err := s.interns.Create(ctx, intern); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll intern")
	}
	return intern, nil
}

// Place assigns or reassigns an intern's company and adviser.
func (s *InternService) Place(ctx context.Context, internID string, req dto.PlaceInternRequest) (*models.Intern, error) {
	if req.CompanyID == nil && req.AdviserID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "company_id or adviser_id is required")
	}
	if req.CompanyID != nil {
		if _, err := s.companies.FindByID(ctx, *req.CompanyID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
		}
	}

	if err := s.interns.Place(ctx, internID, req.CompanyID, req.AdviserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "intern record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to place intern")
	}

	intern, err := s.interns.FindByID(ctx, internID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload intern")
	}
	return intern, nil
}

// List returns interns with display fields. Advisers see only their
// own advisees; admins see everyone.
func (s *InternService) List(ctx context.Context, claims *models.JWTClaims, filter models.InternFilter) ([]models.InternDetail, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleAdviser {
		filter.AdviserID = claims.UserID
	}

	interns, total, err := s.interns.ListDetails(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list interns")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return interns, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// CreateCompany registers a host training establishment.
func (s *InternService) CreateCompany(ctx context.Context, req dto.CreateCompanyRequest) (*models.Company, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name and address are required")
	}

	company := &models.Company{
		Name:         req.Name,
		Address:      req.Address,
		SupervisorID: req.SupervisorID,
		Active:       true,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create company")
	}
	return company, nil
}

// ListCompanies returns every registered company.
func (s *InternService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list companies")
	}
	return companies, nil
}
