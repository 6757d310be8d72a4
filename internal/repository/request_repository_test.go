package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

var requestDetailColumns = []string{"id", "citizen_id", "service_id", "status", "request_data", "created_at", "updated_at",
	"service_name", "fee", "department_id", "department_name", "citizen_name", "citizen_email",
	"payment_id", "payment_amount", "payment_date"}

func TestRequestCreateWithDocuments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO requests")).
		WithArgs(sqlmock.AnyArg(), "c1", "s1", models.StatusSubmitted, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := &models.Request{CitizenID: "c1", ServiceID: "s1", Status: models.StatusSubmitted, Data: models.Answers{"full_name": "Jane"}}
	docs := []models.Document{{FilePath: "01h.pdf", OriginalFileName: "passport.pdf", FileType: "pdf"}}
	require.NoError(t, repo.Create(context.Background(), request, docs))
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, request.ID, docs[0].RequestID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestCreateRollsBackOnDocumentFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO requests").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO documents").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Request{CitizenID: "c1", ServiceID: "s1", Status: models.StatusSubmitted}, []models.Document{{FilePath: "a.pdf"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestListScopedToDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(requestDetailColumns).
		AddRow("r1", "c1", "s1", "submitted", `{"full_name":"Jane"}`, now, now, "Passport Renewal", 50.0, "d1", "Passports", "Jane", "jane@example.com", nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.department_id = $1 AND r.status = $2 ORDER BY r.created_at DESC, r.id DESC LIMIT 20 OFFSET 0")).
		WithArgs("d1", models.StatusSubmitted).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM requests r")).
		WithArgs("d1", models.StatusSubmitted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.List(context.Background(), models.RequestFilter{DepartmentID: "d1", Status: models.StatusSubmitted})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "Jane", requests[0].Data["full_name"])
	assert.False(t, requests[0].Paid())
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestCountByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.citizen_id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "submitted", "under_review", "approved", "rejected"}).AddRow(4, 1, 1, 1, 1))

	counts, err := repo.CountByStatus(context.Background(), models.RequestFilter{CitizenID: "c1", Status: models.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusNotifiesInSameTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("r1", models.StatusSubmitted, models.StatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(sqlmock.AnyArg(), "c1", "Your Passport Renewal request has been approved.", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := repo.TransitionStatus(context.Background(), models.StatusChange{
		RequestID:    "r1",
		From:         models.StatusSubmitted,
		To:           models.StatusApproved,
		NotifyUserID: "c1",
		Message:      "Your Passport Renewal request has been approved.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MutationOK, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusConcurrentChangeConflicts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE requests").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM requests WHERE id = $1)")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	result, err := repo.TransitionStatus(context.Background(), models.StatusChange{RequestID: "r1", From: models.StatusSubmitted, To: models.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, models.MutationConflict, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
