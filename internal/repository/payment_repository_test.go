package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

func paymentParams() PaymentParams {
	return PaymentParams{RequestID: "r1", CitizenID: "c1", Amount: 50, Message: "Your Passport Renewal request is under review.", PaidAt: time.Now()}
}

func expectLock(mock sqlmock.Sqlmock, citizenID string, status models.RequestStatus) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT citizen_id, status FROM requests WHERE id = $1 FOR UPDATE")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"citizen_id", "status"}).AddRow(citizenID, string(status)))
}

func expectPaidCheck(mock sqlmock.Sqlmock, paid bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM payments WHERE request_id = $1)")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(paid))
}

func TestCreateForRequestSuccess(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	expectLock(mock, "c1", models.StatusSubmitted)
	expectPaidCheck(mock, false)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WithArgs(sqlmock.AnyArg(), "r1", 50.0, models.PaymentStatusSuccess, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = $2")).
		WithArgs("r1", models.StatusUnderReview, sqlmock.AnyArg(), models.StatusSubmitted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO notifications")).
		WithArgs(sqlmock.AnyArg(), "c1", "Your Passport Renewal request is under review.", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	outcome, err := repo.CreateForRequest(context.Background(), paymentParams())
	require.NoError(t, err)
	assert.Equal(t, models.MutationOK, outcome.Result)
	assert.Equal(t, models.StatusUnderReview, outcome.Status)
	require.NotNil(t, outcome.Payment)
	assert.Equal(t, 50.0, outcome.Payment.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateForRequestAlreadyPaid(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	expectLock(mock, "c1", models.StatusUnderReview)
	expectPaidCheck(mock, true)
	mock.ExpectRollback()

	outcome, err := repo.CreateForRequest(context.Background(), paymentParams())
	require.NoError(t, err)
	assert.Equal(t, models.MutationConflict, outcome.Result)
	assert.Equal(t, PaymentReasonAlreadyPaid, outcome.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateForRequestWrongStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	expectLock(mock, "c1", models.StatusRejected)
	expectPaidCheck(mock, false)
	mock.ExpectRollback()

	outcome, err := repo.CreateForRequest(context.Background(), paymentParams())
	require.NoError(t, err)
	assert.Equal(t, models.MutationConflict, outcome.Result)
	assert.Equal(t, PaymentReasonStatus, outcome.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateForRequestForeignOrMissing(t *testing.T) {
	t.Run("foreign", func(t *testing.T) {
		db, mock, cleanup := newMock(t)
		defer cleanup()
		repo := NewPaymentRepository(db)

		mock.ExpectBegin()
		expectLock(mock, "someone-else", models.StatusSubmitted)
		mock.ExpectRollback()

		outcome, err := repo.CreateForRequest(context.Background(), paymentParams())
		require.NoError(t, err)
		assert.Equal(t, models.MutationNotFound, outcome.Result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, mock, cleanup := newMock(t)
		defer cleanup()
		repo := NewPaymentRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		outcome, err := repo.CreateForRequest(context.Background(), paymentParams())
		require.NoError(t, err)
		assert.Equal(t, models.MutationNotFound, outcome.Result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateForRequestUniqueViolationIsConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	expectLock(mock, "c1", models.StatusSubmitted)
	expectPaidCheck(mock, false)
	mock.ExpectExec("INSERT INTO payments").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	outcome, err := repo.CreateForRequest(context.Background(), paymentParams())
	require.NoError(t, err)
	assert.Equal(t, models.MutationConflict, outcome.Result)
	assert.Equal(t, PaymentReasonAlreadyPaid, outcome.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}
