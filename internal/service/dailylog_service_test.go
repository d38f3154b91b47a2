package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ojt-portal-api/internal/dto"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/repository"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
)

type mockDailyLogStore struct {
	logs          map[string]*models.DailyLog
	nextDayNo     int
	createErr     error
	byCompany     *models.DailyLogWithCompany
	adviserSet    *dto.ReviewRequest
	supervisorSet *dto.ReviewRequest
	updateParams  *repository.UpdateDailyLogParams
	deleted       []string
	summary       *models.ProgressSummary
}

func (m *mockDailyLogStore) CreateSequenced(ctx context.Context, log *models.DailyLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.nextDayNo == 0 {
		m.nextDayNo = 1
	}
	log.ID = "log-1"
	log.DayNo = m.nextDayNo
	if m.logs == nil {
		m.logs = make(map[string]*models.DailyLog)
	}
	m.logs[log.ID] = log
	return nil
}

func (m *mockDailyLogStore) ListByIntern(ctx context.Context, internID string) ([]models.DailyLog, error) {
	var out []models.DailyLog
	for _, l := range m.logs {
		if l.InternID == internID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockDailyLogStore) FindByID(ctx context.Context, id string) (*models.DailyLog, error) {
	l, ok := m.logs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *l
	return &copied, nil
}

func (m *mockDailyLogStore) FindByIDForIntern(ctx context.Context, id, internID string) (*models.DailyLog, error) {
	l, ok := m.logs[id]
	if !ok || l.InternID != internID {
		return nil, sql.ErrNoRows
	}
	copied := *l
	return &copied, nil
}

func (m *mockDailyLogStore) FindByIDWithCompany(ctx context.Context, id string) (*models.DailyLogWithCompany, error) {
	if m.byCompany == nil {
		return nil, sql.ErrNoRows
	}
	return m.byCompany, nil
}

func (m *mockDailyLogStore) Update(ctx context.Context, id, internID string, params repository.UpdateDailyLogParams) error {
	l, ok := m.logs[id]
	if !ok || l.InternID != internID {
		return sql.ErrNoRows
	}
	m.updateParams = &params
	if params.TimeIn != nil {
		l.TimeIn = *params.TimeIn
	}
	if params.TimeOut != nil {
		l.TimeOut = *params.TimeOut
	}
	if params.TotalHours != nil {
		l.TotalHours = *params.TotalHours
	}
	if params.PhotoRef != nil {
		l.PhotoRef = params.PhotoRef
	}
	return nil
}

func (m *mockDailyLogStore) SetAdviserReview(ctx context.Context, id, status string, comment *string) error {
	m.adviserSet = &dto.ReviewRequest{Status: status, Comment: comment}
	return nil
}

func (m *mockDailyLogStore) SetSupervisorReview(ctx context.Context, id, status string, comment *string) error {
	m.supervisorSet = &dto.ReviewRequest{Status: status, Comment: comment}
	return nil
}

func (m *mockDailyLogStore) Delete(ctx context.Context, id, internID string) error {
	l, ok := m.logs[id]
	if !ok || l.InternID != internID {
		return sql.ErrNoRows
	}
	delete(m.logs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDailyLogStore) Summary(ctx context.Context, internID string) (*models.ProgressSummary, error) {
	if m.summary != nil {
		return m.summary, nil
	}
	return &models.ProgressSummary{InternID: internID}, nil
}

type mockInternReader struct {
	intern       *models.Intern
	supervisorID *string
	findErr      error
}

func (m *mockInternReader) FindByID(ctx context.Context, id string) (*models.Intern, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.intern == nil {
		return nil, sql.ErrNoRows
	}
	return m.intern, nil
}

func (m *mockInternReader) FindByUserID(ctx context.Context, userID string) (*models.Intern, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.intern == nil {
		return nil, sql.ErrNoRows
	}
	return m.intern, nil
}

func (m *mockInternReader) CompanySupervisorID(ctx context.Context, internID string) (*string, error) {
	if m.intern == nil {
		return nil, sql.ErrNoRows
	}
	return m.supervisorID, nil
}

type mockPhotoStorage struct {
	saved   map[string][]byte
	deleted []string
}

func (m *mockPhotoStorage) Save(filename string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[filename] = data
	return filename, nil
}

func (m *mockPhotoStorage) Delete(filename string) error {
	m.deleted = append(m.deleted, filename)
	return nil
}

type mockAuditRecorder struct {
	entries []*models.AuditLog
}

func (m *mockAuditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.entries = append(m.entries, log)
	return nil
}

type mockSummaryCache struct {
	stored      map[string]*models.ProgressSummary
	invalidated []string
	hits        int
}

func (m *mockSummaryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	cached, ok := m.stored[key]
	if !ok {
		return false, nil
	}
	m.hits++
	*(dest.(*models.ProgressSummary)) = *cached
	return true, nil
}

func (m *mockSummaryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.stored == nil {
		m.stored = make(map[string]*models.ProgressSummary)
	}
	if s, ok := value.(*models.ProgressSummary); ok {
		m.stored[key] = s
	}
	return nil
}

func (m *mockSummaryCache) Invalidate(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	delete(m.stored, pattern)
	return nil
}

func internClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleIntern}
}

func newTestDailyLogService(store *mockDailyLogStore, interns *mockInternReader, photos *mockPhotoStorage) (*DailyLogService, *mockSummaryCache) {
	cache := &mockSummaryCache{}
	svc := NewDailyLogService(store, interns, photos, &mockAuditRecorder{}, cache, validator.New(), zap.NewNop(), time.Minute)
	return svc, cache
}

func TestDailyLogCreateAssignsDayNoAndHours(t *testing.T) {
	store := &mockDailyLogStore{nextDayNo: 4}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	svc, _ := newTestDailyLogService(store, interns, &mockPhotoStorage{})

	log, err := svc.Create(context.Background(), internClaims(), dto.CreateLogRequest{
		LogDate:           "2026-02-10",
		TimeIn:            "08:00",
		TimeOut:           "17:30",
		TasksAccomplished: "Built the intake form",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, log.DayNo)
	assert.Equal(t, 9.5, log.TotalHours)
	assert.Equal(t, "intern-1", log.InternID)
}

func TestDailyLogCreateOvernightShift(t *testing.T) {
	store := &mockDailyLogStore{}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	svc, _ := newTestDailyLogService(store, interns, &mockPhotoStorage{})

	log, err := svc.Create(context.Background(), internClaims(), dto.CreateLogRequest{
		LogDate:           "2026-02-10",
		TimeIn:            "22:00",
		TimeOut:           "06:00",
		TasksAccomplished: "Night shift monitoring",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 8.0, log.TotalHours)
}

func TestDailyLogCreateDuplicateDateConflict(t *testing.T) {
	store := &mockDailyLogStore{createErr: repository.ErrDuplicateLogDate}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	svc, _ := newTestDailyLogService(store, interns, &mockPhotoStorage{})

	_, err := svc.Create(context.Background(), internClaims(), dto.CreateLogRequest{
		LogDate:           "2026-02-10",
		TimeIn:            "08:00",
		TimeOut:           "17:00",
		TasksAccomplished: "Repeat submission",
	}, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestDailyLogCreateRejectsBadClock(t *testing.T) {
	store := &mockDailyLogStore{}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	svc, _ := newTestDailyLogService(store, interns, &mockPhotoStorage{})

	_, err := svc.Create(context.Background(), internClaims(), dto.CreateLogRequest{
		LogDate:           "2026-02-10",
		TimeIn:            "8 in the morning",
		TimeOut:           "17:00",
		TasksAccomplished: "Tasks",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDailyLogCreateWithoutInternRecord(t *testing.T) {
	svc, _ := newTestDailyLogService(&mockDailyLogStore{}, &mockInternReader{}, &mockPhotoStorage{})

	_, err := svc.Create(context.Background(), internClaims(), dto.CreateLogRequest{
		LogDate:           "2026-02-10",
		TimeIn:            "08:00",
		TimeOut:           "17:00",
		TasksAccomplished: "Tasks",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDailyLogCreateStoresPhoto(t *testing.T) {
	store := &mockDailyLogStore{}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	photos := &mockPhotoStorage{}
	svc, _ := newTestDailyLogService(store, interns, photos)

	log, err := svc.Create(context.Background(), internClaims(), dto.CreateLogRequest{
		LogDate:           "2026-02-10",
		TimeIn:            "08:00",
		TimeOut:           "17:00",
		TasksAccomplished: "Tasks",
	}, &dto.PhotoUpload{OriginalName: "evidence.jpg", ContentType: "image/jpeg", Data: []byte{1, 2, 3}})
	require.NoError(t, err)
	require.NotNil(t, log.PhotoRef)
	assert.Contains(t, photos.saved, *log.PhotoRef)
	assert.Regexp(t, `\.jpg$`, *log.PhotoRef)
	assert.NotContains(t, *log.PhotoRef, "uploads/")
}

func TestDailyLogListStripsLegacyPrefix(t *testing.T) {
	legacy := "uploads/photo-1.jpg"
	store := &mockDailyLogStore{logs: map[string]*models.DailyLog{
		"log-1": {ID: "log-1", InternID: "intern-1", PhotoRef: &legacy},
	}}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	svc, _ := newTestDailyLogService(store, interns, &mockPhotoStorage{})

	logs, err := svc.ListOwn(context.Background(), internClaims())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "photo-1.jpg", *logs[0].PhotoRef)
}

func TestDailyLogListForSupervisorForbidden(t *testing.T) {
	other := "someone-else"
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1"}, supervisorID: &other}
	svc, _ := newTestDailyLogService(&mockDailyLogStore{}, interns, &mockPhotoStorage{})

	claims := &models.JWTClaims{UserID: "supervisor-1", Role: models.RoleSupervisor}
	_, err := svc.ListForSupervisor(context.Background(), claims, "intern-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDailyLogReviewsAreIndependent(t *testing.T) {
	store := &mockDailyLogStore{logs: map[string]*models.DailyLog{
		"log-1": {ID: "log-1", InternID: "intern-1"},
	}}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	svc, _ := newTestDailyLogService(store, interns, &mockPhotoStorage{})

	adviser := &models.JWTClaims{UserID: "adviser-1", Role: models.RoleAdviser}
	comment := "looks good"
	log, err := svc.ReviewByAdviser(context.Background(), adviser, "log-1", dto.ReviewRequest{Status: "APPROVED", Comment: &comment})
	require.NoError(t, err)
	require.NotNil(t, store.adviserSet)
	assert.Equal(t, "APPROVED", store.adviserSet.Status)
	assert.Nil(t, store.supervisorSet)
	assert.Nil(t, log.SupervisorStatus)

	// repeated review overwrites the previous decision
	_, err = svc.ReviewByAdviser(context.Background(), adviser, "log-1", dto.ReviewRequest{Status: "REJECTED"})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", store.adviserSet.Status)
}

func TestDailyLogSupervisorReviewChecksCompany(t *testing.T) {
	supervisorID := "supervisor-1"
	store := &mockDailyLogStore{byCompany: &models.DailyLogWithCompany{
		DailyLog:            models.DailyLog{ID: "log-1", InternID: "intern-1"},
		CompanySupervisorID: &supervisorID,
	}}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1"}}
	svc, _ := newTestDailyLogService(store, interns, &mockPhotoStorage{})

	claims := &models.JWTClaims{UserID: "supervisor-2", Role: models.RoleSupervisor}
	_, err := svc.ReviewBySupervisor(context.Background(), claims, "log-1", dto.ReviewRequest{Status: "APPROVED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	claims.UserID = supervisorID
	log, err := svc.ReviewBySupervisor(context.Background(), claims, "log-1", dto.ReviewRequest{Status: "APPROVED"})
	require.NoError(t, err)
	require.NotNil(t, store.supervisorSet)
	assert.Equal(t, "APPROVED", *log.SupervisorStatus)
	assert.Nil(t, store.adviserSet)
}

func TestDailyLogUpdateRecomputesHours(t *testing.T) {
	store := &mockDailyLogStore{logs: map[string]*models.DailyLog{
		"log-1": {ID: "log-1", InternID: "intern-1", TimeIn: "08:00", TimeOut: "17:00", TotalHours: 9},
	}}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	svc, _ := newTestDailyLogService(store, interns, &mockPhotoStorage{})

	newOut := "12:30"
	log, err := svc.Update(context.Background(), internClaims(), "log-1", dto.UpdateLogRequest{TimeOut: &newOut}, nil)
	require.NoError(t, err)
	require.NotNil(t, store.updateParams.TotalHours)
	assert.Equal(t, 4.5, *store.updateParams.TotalHours)
	assert.Equal(t, 4.5, log.TotalHours)
}

func TestDailyLogUpdateReplacesPhoto(t *testing.T) {
	old := "uploads/old.jpg"
	store := &mockDailyLogStore{logs: map[string]*models.DailyLog{
		"log-1": {ID: "log-1", InternID: "intern-1", TimeIn: "08:00", TimeOut: "17:00", PhotoRef: &old},
	}}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	photos := &mockPhotoStorage{}
	svc, _ := newTestDailyLogService(store, interns, photos)

	_, err := svc.Update(context.Background(), internClaims(), "log-1", dto.UpdateLogRequest{}, &dto.PhotoUpload{OriginalName: "new.png", ContentType: "image/png", Data: []byte{9}})
	require.NoError(t, err)
	// old photo is removed by its canonical name before the new one lands
	require.Len(t, photos.deleted, 1)
	assert.Equal(t, "old.jpg", photos.deleted[0])
	require.NotNil(t, store.updateParams.PhotoRef)
	assert.Contains(t, photos.saved, *store.updateParams.PhotoRef)
}

func TestDailyLogDeleteRemovesPhotoFirst(t *testing.T) {
	ref := "photo.jpg"
	store := &mockDailyLogStore{logs: map[string]*models.DailyLog{
		"log-1": {ID: "log-1", InternID: "intern-1", PhotoRef: &ref},
	}}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	photos := &mockPhotoStorage{}
	svc, _ := newTestDailyLogService(store, interns, photos)

	require.NoError(t, svc.Delete(context.Background(), internClaims(), "log-1"))
	assert.Equal(t, []string{"photo.jpg"}, photos.deleted)
	assert.Equal(t, []string{"log-1"}, store.deleted)
}

func TestDailyLogSummaryUsesCache(t *testing.T) {
	store := &mockDailyLogStore{summary: &models.ProgressSummary{InternID: "intern-1", TotalDays: 10, TotalHours: 80}}
	interns := &mockInternReader{intern: &models.Intern{ID: "intern-1", UserID: "user-1"}}
	svc, cache := newTestDailyLogService(store, interns, &mockPhotoStorage{})

	first, err := svc.Summary(context.Background(), internClaims(), "")
	require.NoError(t, err)
	assert.Equal(t, 10, first.TotalDays)

	second, err := svc.Summary(context.Background(), internClaims(), "")
	require.NoError(t, err)
	assert.Equal(t, first.TotalDays, second.TotalDays)
	assert.Equal(t, 1, cache.hits)
}

func TestComputeTotalHoursRounding(t *testing.T) {
	hours, err := computeTotalHours("09:00", "09:20")
	require.NoError(t, err)
	assert.Equal(t, 0.33, hours)
}
