package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/dto"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/repository"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/export"
	"github.com/noah-isme/ojt-portal-api/pkg/jobs"
	"github.com/noah-isme/ojt-portal-api/pkg/storage"
)

const reportJobType = "report.generate"

type reportStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error)
}

type internDetailLister interface {
	FindDetailByID(ctx context.Context, id string) (*models.InternDetail, error)
	ListDetails(ctx context.Context, filter models.InternFilter) ([]models.InternDetail, int, error)
}

type reportFileStore interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ReportService runs report generation off the request path. Submission
// persists a job row and enqueues it; workers render the artifact and
// publish a signed, expiring download token.
type ReportService struct {
	reports   reportStore
	interns   internDetailLister
	files     reportFileStore
	signer    *storage.SignedURLSigner
	queue     jobEnqueuer
	metrics   *MetricsService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs a ReportService. SetQueue must be called
// before Submit is used.
func NewReportService(
	reports reportStore,
	interns internDetailLister,
	files reportFileStore,
	signer *storage.SignedURLSigner,
	audit auditRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:   reports,
		interns:   interns,
		files:     files,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// SetQueue wires the worker queue. Split from the constructor because
// the queue's handler is this service's Process method.
func (s *ReportService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// SetMetrics attaches an optional metrics collector.
func (s *ReportService) SetMetrics(m *MetricsService) {
	s.metrics = m
}

// Submit validates the request, persists a queued job, and enqueues it.
func (s *ReportService) Submit(ctx context.Context, claims *models.JWTClaims, req dto.CreateReportRequest) (*models.ReportJob, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "type and format are required")
	}

	switch req.Type {
	case models.ReportTypeEndorsementLetter:
		if req.InternID == nil || *req.InternID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "intern_id is required for endorsement letters")
		}
		if req.Format != models.ReportFormatPDF {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endorsement letters are only available as pdf")
		}
	case models.ReportTypeAdviserMasterlist:
		if claims.Role == models.RoleAdviser {
			req.AdviserID = &claims.UserID
		}
	}

	job := &models.ReportJob{
		Type:   req.Type,
		Status: models.ReportStatusQueued,
		Params: models.ReportJobParams{
			AdviserID: req.AdviserID,
			InternID:  req.InternID,
			Program:   req.Program,
			Format:    req.Format,
		},
		CreatedBy: claims.UserID,
	}
	if err := s.reports.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report worker queue is not running")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType, Payload: job.ID}); err != nil {
		failed := models.ReportStatusFailed
		msg := "worker queue rejected the job"
		if updateErr := s.reports.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &failed, ErrorMessage: &msg}); updateErr != nil {
			s.logger.Error("failed to mark rejected report job", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &claims.UserID,
			Action:     models.AuditActionReportGenerate,
			Resource:   "report_job",
			ResourceID: &job.ID,
		}); err != nil {
			s.logger.Warn("failed to record audit log", zap.Error(err))
		}
	}
	return job, nil
}

// Get returns a job's status. Only the submitter or an admin may read it.
func (s *ReportService) Get(ctx context.Context, claims *models.JWTClaims, jobID string) (*models.ReportJob, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	job, err := s.reports.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.CreatedBy != claims.UserID && claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the owner of this report job")
	}
	return job, nil
}

// ListOwn returns the caller's recent report jobs.
func (s *ReportService) ListOwn(ctx context.Context, claims *models.JWTClaims, limit int) ([]models.ReportJob, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	jobsList, err := s.reports.ListByUser(ctx, claims.UserID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	return jobsList, nil
}

// Process is the worker queue handler. It renders the artifact for a
// queued job and records the outcome on the job row.
func (s *ReportService) Process(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok || jobID == "" {
		return fmt.Errorf("report job payload must be a job id, got %T", job.Payload)
	}

	stored, err := s.reports.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", jobID, err)
	}

	processing := models.ReportStatusProcessing
	if err := s.reports.Update(ctx, jobID, repository.UpdateReportJobParams{Status: &processing}); err != nil {
		return fmt.Errorf("mark report job processing: %w", err)
	}

	started := time.Now()
	filename, renderErr := s.render(ctx, stored)
	now := time.Now().UTC()
	if renderErr != nil {
		s.metrics.ObserveReportJob(string(stored.Type), "failed", time.Since(started))
		failed := models.ReportStatusFailed
		msg := renderErr.Error()
		if err := s.reports.Update(ctx, jobID, repository.UpdateReportJobParams{Status: &failed, ErrorMessage: &msg, FinishedAt: &now}); err != nil {
			s.logger.Error("failed to mark failed report job", zap.String("job_id", jobID), zap.Error(err))
		}
		return renderErr
	}

	token, _, err := s.signer.Generate(jobID, filename)
	if err != nil {
		failed := models.ReportStatusFailed
		msg := "failed to sign download url"
		if updateErr := s.reports.Update(ctx, jobID, repository.UpdateReportJobParams{Status: &failed, ErrorMessage: &msg, FinishedAt: &now}); updateErr != nil {
			s.logger.Error("failed to mark failed report job", zap.String("job_id", jobID), zap.Error(updateErr))
		}
		return fmt.Errorf("sign report download: %w", err)
	}

	finished := models.ReportStatusFinished
	resultURL := "/api/v1/reports/download/" + token
	if err := s.reports.Update(ctx, jobID, repository.UpdateReportJobParams{Status: &finished, ResultURL: &resultURL, FinishedAt: &now}); err != nil {
		return fmt.Errorf("mark report job finished: %w", err)
	}
	s.metrics.ObserveReportJob(string(stored.Type), "finished", time.Since(started))

	s.logger.Info("report job finished",
		zap.String("job_id", jobID),
		zap.String("type", string(stored.Type)),
		zap.String("file", filename))
	return nil
}

// ResolveDownload validates a signed token and returns the artifact's
// filesystem path and suggested filename.
func (s *ReportService) ResolveDownload(token string) (path, filename string, err error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	return s.files.Path(relPath), relPath, nil
}

// CleanupExpired removes generated artifacts older than ttl.
func (s *ReportService) CleanupExpired(ttl time.Duration) {
	removed, err := s.files.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("report artifact cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("removed expired report artifacts", zap.Int("count", len(removed)))
	}
}

func (s *ReportService) render(ctx context.Context, job *models.ReportJob) (string, error) {
	switch job.Type {
	case models.ReportTypeAdviserMasterlist:
		return s.renderMasterlist(ctx, job)
	case models.ReportTypeEndorsementLetter:
		return s.renderEndorsementLetter(ctx, job)
	default:
		return "", fmt.Errorf("unsupported report type %q", job.Type)
	}
}

func (s *ReportService) renderMasterlist(ctx context.Context, job *models.ReportJob) (string, error) {
	filter := models.InternFilter{PageSize: 100}
	if job.Params.AdviserID != nil {
		filter.AdviserID = *job.Params.AdviserID
	}
	if job.Params.Program != nil {
		filter.Program = *job.Params.Program
	}

	var rows []map[string]string
	for page := 1; ; page++ {
		filter.Page = page
		interns, total, err := s.interns.ListDetails(ctx, filter)
		if err != nil {
			return "", fmt.Errorf("list interns for masterlist: %w", err)
		}
		for _, it := range interns {
			row := map[string]string{
				"Student":       it.FullName,
				"Email":         it.Email,
				"Program":       it.Program,
				"Academic Year": it.AcademicYear,
				"Company":       "",
				"Adviser":       "",
			}
			if it.CompanyName != nil {
				row["Company"] = *it.CompanyName
			}
			if it.AdviserName != nil {
				row["Adviser"] = *it.AdviserName
			}
			rows = append(rows, row)
		}
		if len(rows) >= total || len(interns) == 0 {
			break
		}
	}

	data := export.Dataset{
		Headers: []string{"Student", "Email", "Program", "Academic Year", "Company", "Adviser"},
		Rows:    rows,
	}

	var payload []byte
	var err error
	ext := "csv"
	if job.Params.Format == models.ReportFormatPDF {
		payload, err = s.pdf.Render(data, "OJT Adviser Masterlist")
		ext = "pdf"
	} else {
		payload, err = s.csv.Render(data)
	}
	if err != nil {
		return "", fmt.Errorf("render masterlist: %w", err)
	}

	filename := fmt.Sprintf("%s.%s", job.ID, ext)
	if _, err := s.files.Save(filename, payload); err != nil {
		return "", fmt.Errorf("store masterlist artifact: %w", err)
	}
	return filename, nil
}

func (s *ReportService) renderEndorsementLetter(ctx context.Context, job *models.ReportJob) (string, error) {
	if job.Params.InternID == nil {
		return "", fmt.Errorf("endorsement letter requires an intern id")
	}
	intern, err := s.interns.FindDetailByID(ctx, *job.Params.InternID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("intern %s not found", *job.Params.InternID)
		}
		return "", fmt.Errorf("load intern for endorsement: %w", err)
	}
	if intern.CompanyName == nil {
		return "", fmt.Errorf("intern %s has no company placement", intern.ID)
	}

	letter := export.Letter{
		Heading: "On-the-Job Training Endorsement",
		Date:    time.Now().Format("January 2, 2006"),
		Recipient: []string{
			"The Training Supervisor",
			*intern.CompanyName,
		},
		Salutation: "Dear Sir/Madam:",
		Paragraphs: []string{
			fmt.Sprintf("We are pleased to endorse %s, a student of the %s program (%s), for on-the-job training at your establishment.", intern.FullName, intern.Program, intern.AcademicYear),
			"The student is required to complete the training hours prescribed by the program curriculum and will submit daily activity reports during the engagement. We would appreciate your guidance and supervision throughout the training period.",
			"Thank you for partnering with our institution.",
		},
		Closing:   "Respectfully yours,",
		SignName:  valueOr(intern.AdviserName, "The OJT Coordinator"),
		SignTitle: "OJT Adviser",
	}

	payload, err := s.pdf.RenderLetter(letter)
	if err != nil {
		return "", fmt.Errorf("render endorsement letter: %w", err)
	}

	filename := job.ID + ".pdf"
	if _, err := s.files.Save(filename, payload); err != nil {
		return "", fmt.Errorf("store endorsement artifact: %w", err)
	}
	return filename, nil
}

func valueOr(v *string, fallback string) string {
	if v != nil && *v != "" {
		return *v
	}
	return fallback
}
