package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainhub/training-admin-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func sessionRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "topic", "date", "place", "conducted_by", "conductor_name", "status", "cancelled_reason", "created_at", "updated_at"}).
		AddRow("s1", "Kubernetes Basics", now, "Room A", "u1", "Ada Lovelace", string(models.StatusScheduled), "", now, now)
}

func TestListSessionsScopedByConductor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions s JOIN users u ON u.id = s.conducted_by WHERE 1=1 AND s.conducted_by = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id, s.topic, s.date, s.place, s.conducted_by, TRIM(u.first_name || ' ' || u.last_name) AS conductor_name, s.status, s.cancelled_reason, s.created_at, s.updated_at FROM sessions s JOIN users u ON u.id = s.conducted_by WHERE 1=1 AND s.conducted_by = $1 ORDER BY s.date ASC, s.id ASC LIMIT 10 OFFSET 0")).
		WithArgs("u1").
		WillReturnRows(sessionRows(now))

	sessions, pagination, err := repo.List(context.Background(), models.SessionFilter{ConductedBy: "u1", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.Equal(t, "Ada Lovelace", sessions[0].ConductorName)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSessionsClampsOutOfRangePage(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions s JOIN users u ON u.id = s.conducted_by WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	// Page 9 of 25 rows at size 10 clamps to page 3, offset 20.
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 10 OFFSET 20")).
		WillReturnRows(sessionRows(now))

	_, pagination, err := repo.List(context.Background(), models.SessionFilter{Page: 9, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, pagination.Page)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.True(t, pagination.HasPrevious)
	assert.False(t, pagination.HasNext)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSessionsHistoryOrder(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY s.date DESC, s.id ASC")).
		WillReturnRows(sessionRows(now))

	_, _, err := repo.List(context.Background(), models.SessionFilter{Order: models.SortHistory, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSessionByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.id = $1 LIMIT 1")).
		WithArgs("s1").
		WillReturnRows(sessionRows(now))

	session, err := repo.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Kubernetes Basics", session.Topic)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSessionAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO sessions").WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.Session{Topic: "Go Fundamentals", Date: time.Now(), ConductedBy: "u1", Status: models.StatusScheduled}
	err := repo.Create(context.Background(), session)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopUpcoming(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.status = $1 AND s.date > $2 ORDER BY s.date ASC, s.id ASC LIMIT $3")).
		WithArgs(models.StatusScheduled, now, 3).
		WillReturnRows(sessionRows(now))

	sessions, err := repo.TopUpcoming(context.Background(), now, 3)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByTopicAndConductor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.topic = $1 AND s.conducted_by = $2 LIMIT 1")).
		WithArgs("Kubernetes Basics", "u1").
		WillReturnRows(sessionRows(now))

	session, err := repo.FindByTopicAndConductor(context.Background(), "Kubernetes Basics", "u1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
