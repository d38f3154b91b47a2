package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/dto"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/repository"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/storage"
)

const (
	dailyLogResource   = "daily_log"
	summaryCachePrefix = "summary:intern:"
	clockLayout        = "15:04"
	dateLayout         = "2006-01-02"
)

type dailyLogStore interface {
	CreateSequenced(ctx context.Context, log *models.DailyLog) error
	ListByIntern(ctx context.Context, internID string) ([]models.DailyLog, error)
	FindByID(ctx context.Context, id string) (*models.DailyLog, error)
	FindByIDForIntern(ctx context.Context, id, internID string) (*models.DailyLog, error)
	FindByIDWithCompany(ctx context.Context, id string) (*models.DailyLogWithCompany, error)
	Update(ctx context.Context, id, internID string, params repository.UpdateDailyLogParams) error
	SetAdviserReview(ctx context.Context, id, status string, comment *string) error
	SetSupervisorReview(ctx context.Context, id, status string, comment *string) error
	Delete(ctx context.Context, id, internID string) error
	Summary(ctx context.Context, internID string) (*models.ProgressSummary, error)
}

type internReader interface {
	FindByID(ctx context.Context, id string) (*models.Intern, error)
	FindByUserID(ctx context.Context, userID string) (*models.Intern, error)
	CompanySupervisorID(ctx context.Context, internID string) (*string, error)
}

type photoStorage interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// DailyLogService implements the daily log lifecycle: submission with
// derived day numbers and shift hours, the two independent review
// channels, owner-scoped edits, and photo bookkeeping.
type DailyLogService struct {
	logs      dailyLogStore
	interns   internReader
	photos    photoStorage
	audit     auditRecorder
	cache     summaryCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// SetMetrics attaches an optional metrics collector.
func (s *DailyLogService) SetMetrics(m *MetricsService) {
	s.metrics = m
}

// NewDailyLogService builds a DailyLogService with sane defaults.
func NewDailyLogService(
	logs dailyLogStore,
	interns internReader,
	photos photoStorage,
	audit auditRecorder,
	cache summaryCache,
	validate *validator.Validate,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *DailyLogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DailyLogService{
		logs:      logs,
		interns:   interns,
		photos:    photos,
		audit:     audit,
		cache:     cache,
		validator: validate,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// Create validates and persists a new daily log for the calling intern.
func (s *DailyLogService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateLogRequest, photo *dto.PhotoUpload) (*models.DailyLog, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	intern, err := s.resolveOwnIntern(ctx, claims)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "log date, time in, time out, and tasks are required")
	}

	logDate, err := time.Parse(dateLayout, req.LogDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "log_date must be YYYY-MM-DD")
	}
	totalHours, err := computeTotalHours(req.TimeIn, req.TimeOut)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	var photoRef *string
	if photo != nil {
		name, err := s.storePhoto(photo)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
		}
		photoRef = &name
	}

	log := &models.DailyLog{
		InternID:          intern.ID,
		LogDate:           logDate,
		TimeIn:            req.TimeIn,
		TimeOut:           req.TimeOut,
		TotalHours:        totalHours,
		TasksAccomplished: req.TasksAccomplished,
		SkillsEnhanced:    req.SkillsEnhanced,
		LearningApplied:   req.LearningApplied,
		PhotoRef:          photoRef,
	}

	if err := s.logs.CreateSequenced(ctx, log); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateLogDate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "a log for this date already exists")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "intern record not found")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create daily log")
		}
	}

	s.emitAudit(ctx, claims, models.AuditActionLogCreate, log.ID, map[string]interface{}{
		"day_no":   log.DayNo,
		"log_date": req.LogDate,
	})
	s.invalidateSummary(ctx, intern.ID)
	s.metrics.CountLogSubmission()

	normalizeLogPhoto(log)
	return log, nil
}

// ListOwn returns the calling intern's logs, newest date first.
func (s *DailyLogService) ListOwn(ctx context.Context, claims *models.JWTClaims) ([]models.DailyLog, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	intern, err := s.resolveOwnIntern(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.listLogs(ctx, intern.ID)
}

// ListForAdviser returns an intern's logs for adviser review. Role
// gating happens at the route; no per-intern ownership applies here.
func (s *DailyLogService) ListForAdviser(ctx context.Context, claims *models.JWTClaims, internID string) ([]models.DailyLog, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if internID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "internId is required")
	}
	if _, err := s.interns.FindByID(ctx, internID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "intern record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intern")
	}
	return s.listLogs(ctx, internID)
}

// ListForSupervisor returns an intern's logs when the caller supervises
// the intern's assigned company.
func (s *DailyLogService) ListForSupervisor(ctx context.Context, claims *models.JWTClaims, internID string) ([]models.DailyLog, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if internID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "internId is required")
	}
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
	return s.listLogs(ctx, internID)
}

// ReviewByAdviser overwrites the adviser's decision on a log. Repeated
// calls replace the prior status and comment.
func (s *DailyLogService) ReviewByAdviser(ctx context.Context, claims *models.JWTClaims, logID string, req dto.ReviewRequest) (*models.DailyLog, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status is required")
	}

	log, err := s.logs.FindByID(ctx, logID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "daily log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily log")
	}

	if err := s.logs.SetAdviserReview(ctx, log.ID, req.Status, req.Comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "daily log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record adviser review")
	}

	s.emitAudit(ctx, claims, models.AuditActionAdviserReview, log.ID, map[string]interface{}{"status": req.Status})
	s.invalidateSummary(ctx, log.InternID)

	log.AdviserStatus = &req.Status
	log.AdviserComment = req.Comment
	normalizeLogPhoto(log)
	return log, nil
}

// ReviewBySupervisor overwrites the supervisor's decision after
// verifying the caller supervises the owning intern's company.
func (s *DailyLogService) ReviewBySupervisor(ctx context.Context, claims *models.JWTClaims, logID string, req dto.ReviewRequest) (*models.DailyLog, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status is required")
	}

	log, err := s.logs.FindByIDWithCompany(ctx, logID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "daily log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily log")
	}
	if log.CompanySupervisorID == nil || *log.CompanySupervisorID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the supervisor of this intern's company")
	}

	if err := s.logs.SetSupervisorReview(ctx, log.ID, req.Status, req.Comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "daily log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record supervisor review")
	}

	s.emitAudit(ctx, claims, models.AuditActionSupervisorReview, log.ID, map[string]interface{}{"status": req.Status})
	s.invalidateSummary(ctx, log.InternID)

	result := log.DailyLog
	result.SupervisorStatus = &req.Status
	result.SupervisorComment = req.Comment
	normalizeLogPhoto(&result)
	return &result, nil
}

// Update applies a partial edit to a log owned by the calling intern.
// Total hours are recomputed whenever the effective clock pair changes.
func (s *DailyLogService) Update(ctx context.Context, claims *models.JWTClaims, logID string, req dto.UpdateLogRequest, photo *dto.PhotoUpload) (*models.DailyLog, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	intern, err := s.resolveOwnIntern(ctx, claims)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "log_date must be YYYY-MM-DD")
	}

	existing, err := s.logs.FindByIDForIntern(ctx, logID, intern.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "daily log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily log")
	}

	params := repository.UpdateDailyLogParams{
		TimeIn:            req.TimeIn,
		TimeOut:           req.TimeOut,
		TasksAccomplished: req.TasksAccomplished,
		SkillsEnhanced:    req.SkillsEnhanced,
		LearningApplied:   req.LearningApplied,
	}
	if req.LogDate != nil {
		parsed, err := time.Parse(dateLayout, *req.LogDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "log_date must be YYYY-MM-DD")
		}
		params.LogDate = &parsed
	}

	if req.TimeIn != nil || req.TimeOut != nil {
		timeIn := existing.TimeIn
		if req.TimeIn != nil {
			timeIn = *req.TimeIn
		}
		timeOut := existing.TimeOut
		if req.TimeOut != nil {
			timeOut = *req.TimeOut
		}
		totalHours, err := computeTotalHours(timeIn, timeOut)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		params.TotalHours = &totalHours
	}

	if photo != nil {
		if existing.PhotoRef != nil {
			if err := s.photos.Delete(storage.CanonicalName(*existing.PhotoRef)); err != nil {
				s.logger.Warn("failed to delete replaced photo",
					zap.String("log_id", existing.ID), zap.Error(err))
			}
		}
		name, err := s.storePhoto(photo)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
		}
		params.PhotoRef = &name
	}

	if err := s.logs.Update(ctx, logID, intern.ID, params); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateLogDate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "a log for this date already exists")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "daily log not found")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update daily log")
		}
	}

	s.emitAudit(ctx, claims, models.AuditActionLogUpdate, logID, nil)
	s.invalidateSummary(ctx, intern.ID)

	updated, err := s.logs.FindByIDForIntern(ctx, logID, intern.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload daily log")
	}
	normalizeLogPhoto(updated)
	return updated, nil
}

// Delete removes a log owned by the calling intern together with its
// stored photo.
func (s *DailyLogService) Delete(ctx context.Context, claims *models.JWTClaims, logID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	intern, err := s.resolveOwnIntern(ctx, claims)
	if err != nil {
		return err
	}

	existing, err := s.logs.FindByIDForIntern(ctx, logID, intern.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "daily log not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily log")
	}

	if existing.PhotoRef != nil {
		if err := s.photos.Delete(storage.CanonicalName(*existing.PhotoRef)); err != nil {
			s.logger.Warn("failed to delete log photo",
				zap.String("log_id", existing.ID), zap.Error(err))
		}
	}

	if err := s.logs.Delete(ctx, logID, intern.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "daily log not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete daily log")
	}

	s.emitAudit(ctx, claims, models.AuditActionLogDelete, logID, nil)
	s.invalidateSummary(ctx, intern.ID)
	return nil
}

// Summary returns the intern's aggregated progress, cached when a
// cache collaborator is configured. Interns read their own summary;
// supervisors are checked against the intern's company.
func (s *DailyLogService) Summary(ctx context.Context, claims *models.JWTClaims, internID string) (*models.ProgressSummary, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	switch claims.Role {
	case models.RoleIntern:
		intern, err := s.resolveOwnIntern(ctx, claims)
		if err != nil {
			return nil, err
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

	cacheKey := summaryCachePrefix + internID
	if s.cache != nil {
		var cached models.ProgressSummary
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		s.metrics.CountCacheLookup(hit)
		if err == nil && hit {
			return &cached, nil
		}
	}

	summary, err := s.logs.Summary(ctx, internID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize daily logs")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache progress summary", zap.String("intern_id", internID), zap.Error(err))
		}
	}
	return summary, nil
}

func (s *DailyLogService) resolveOwnIntern(ctx context.Context, claims *models.JWTClaims) (*models.Intern, error) {
	intern, err := s.interns.FindByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "intern record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intern")
	}
	return intern, nil
}

func (s *DailyLogService) listLogs(ctx context.Context, internID string) ([]models.DailyLog, error) {
	logs, err := s.logs.ListByIntern(ctx, internID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list daily logs")
	}
	for i := range logs {
		normalizeLogPhoto(&logs[i])
	}
	return logs, nil
}

func (s *DailyLogService) storePhoto(photo *dto.PhotoUpload) (string, error) {
	ext := strings.ToLower(filepath.Ext(photo.OriginalName))
	name := uuid.NewString() + ext
	if _, err := s.photos.Save(name, photo.Data); err != nil {
		return "", err
	}
	return name, nil
}

func (s *DailyLogService) emitAudit(ctx context.Context, claims *models.JWTClaims, action, resourceID string, values map[string]interface{}) {
	if s.audit == nil {
		return
	}
	var payload []byte
	if values != nil {
		payload, _ = json.Marshal(values)
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   dailyLogResource,
		ResourceID: &resourceID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *DailyLogService) invalidateSummary(ctx context.Context, internID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, summaryCachePrefix+internID); err != nil {
		s.logger.Warn("failed to invalidate summary cache", zap.String("intern_id", internID), zap.Error(err))
	}
}

func normalizeLogPhoto(log *models.DailyLog) {
	if log == nil || log.PhotoRef == nil {
		return
	}
	name := storage.CanonicalName(*log.PhotoRef)
	log.PhotoRef = &name
}

// computeTotalHours derives the shift length in hours from HH:MM clock
// times. A time out earlier than time in spans past midnight.
func computeTotalHours(timeIn, timeOut string) (float64, error) {
	start, err := parseClockMinutes(timeIn)
	if err != nil {
		return 0, fmt.Errorf("time_in must be HH:MM")
	}
	end, err := parseClockMinutes(timeOut)
	if err != nil {
		return 0, fmt.Errorf("time_out must be HH:MM")
	}
	if end < start {
		end += 24 * 60
	}
	hours := float64(end-start) / 60
	return math.Round(hours*100) / 100, nil
}

func parseClockMinutes(value string) (int, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
