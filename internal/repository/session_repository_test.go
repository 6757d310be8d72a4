package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

func TestPostgresSessionRoundTrip(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPostgresSessionRepository(db)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	session := &models.Session{ID: "tok", Identity: models.Identity{UserID: "u1", Name: "Jane", Role: models.RoleCitizen}, ExpiresAt: now.Add(time.Hour)}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions (id, user_id, payload, expires_at)")).
		WithArgs("tok", "u1", sqlmock.AnyArg(), session.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload, expires_at FROM sessions WHERE id = $1 AND expires_at > $2")).
		WithArgs("tok", now).
		WillReturnRows(sqlmock.NewRows([]string{"payload", "expires_at"}).AddRow([]byte(`{"id":"u1","name":"Jane","role":"citizen"}`), session.ExpiresAt))

	require.NoError(t, repo.Save(context.Background(), session))
	found, err := repo.Find(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.Identity.UserID)
	assert.Equal(t, models.RoleCitizen, found.Identity.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionExpired(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPostgresSessionRepository(db)

	mock.ExpectQuery("FROM sessions").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expires_at <= $1")).WillReturnResult(sqlmock.NewResult(0, 2))

	_, err := repo.Find(context.Background(), "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	removed, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionDeleteByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPostgresSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
