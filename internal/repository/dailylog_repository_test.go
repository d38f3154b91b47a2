package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ojt-portal-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestCreateSequencedAssignsNextDayNo(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDailyLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM interns WHERE id = $1 FOR UPDATE")).
		WithArgs("intern-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("intern-1"))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM daily_logs WHERE intern_id = $1")).
		WithArgs("intern-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectExec("INSERT INTO daily_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	log := &models.DailyLog{
		InternID:          "intern-1",
		LogDate:           time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		TimeIn:            "08:00",
		TimeOut:           "17:00",
		TotalHours:        9,
		TasksAccomplished: "Worked on the intake module",
	}
	require.NoError(t, repo.CreateSequenced(context.Background(), log))
	assert.Equal(t, 8, log.DayNo)
	assert.NotEmpty(t, log.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSequencedDuplicateDate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDailyLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM interns WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("intern-1"))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.CreateSequenced(context.Background(), &models.DailyLog{InternID: "intern-1", LogDate: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicateLogDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSequencedUniqueViolationOnInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDailyLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM interns WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("intern-1"))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO daily_logs").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateSequenced(context.Background(), &models.DailyLog{InternID: "intern-1", LogDate: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicateLogDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSequencedUnknownIntern(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDailyLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM interns WHERE id = $1 FOR UPDATE")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.CreateSequenced(context.Background(), &models.DailyLog{InternID: "ghost", LogDate: time.Now()})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAdviserReviewMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDailyLogRepository(db)

	mock.ExpectExec("UPDATE daily_logs SET adviser_status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetAdviserReview(context.Background(), "missing", "APPROVED", nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBuildsPartialSet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDailyLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE daily_logs SET time_out = $1, total_hours = $2, updated_at = $3 WHERE id = $4 AND intern_id = $5")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	timeOut := "12:30"
	hours := 4.5
	err := repo.Update(context.Background(), "log-1", "intern-1", UpdateDailyLogParams{TimeOut: &timeOut, TotalHours: &hours})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateNoFieldsIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDailyLogRepository(db)

	require.NoError(t, repo.Update(context.Background(), "log-1", "intern-1", UpdateDailyLogParams{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDailyLogRepository(db)

	mock.ExpectExec("DELETE FROM daily_logs").
		WithArgs("log-1", "intern-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "log-1", "intern-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryAggregates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDailyLogRepository(db)

	rows := sqlmock.NewRows([]string{"total_days", "total_hours", "adviser_approved", "supervisor_approved"}).
		AddRow(12, 96.5, 10, 8)
	mock.ExpectQuery("SELECT").WithArgs("intern-1").WillReturnRows(rows)

	summary, err := repo.Summary(context.Background(), "intern-1")
	require.NoError(t, err)
	assert.Equal(t, 12, summary.TotalDays)
	assert.Equal(t, 96.5, summary.TotalHours)
	assert.Equal(t, 10, summary.AdviserApproved)
	assert.Equal(t, 8, summary.SupervisorApproved)
	assert.NoError(t, mock.ExpectationsWereMet())
}
