package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

func invalidUUID(value string) error {
	return &pq.Error{Code: pqInvalidText, Message: fmt.Sprintf("invalid input syntax for type uuid: %q", value)}
}

func TestIsMissing(t *testing.T) {
	assert.True(t, IsMissing(sql.ErrNoRows))
	assert.True(t, IsMissing(fmt.Errorf("find request: %w", invalidUUID("abc"))))
	assert.False(t, IsMissing(&pq.Error{Code: pqUniqueViolation}))
	assert.False(t, IsMissing(nil))
}

func TestMalformedIDsReadAsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	ctx := context.Background()

	mock.ExpectQuery("FROM requests").WithArgs("abc").WillReturnError(invalidUUID("abc"))
	_, err := NewRequestRepository(db).FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectQuery("FROM users").WithArgs("abc").WillReturnError(invalidUUID("abc"))
	_, err = NewUserRepository(db).FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectQuery("FROM services").WithArgs("abc").WillReturnError(invalidUUID("abc"))
	_, err = NewServiceRepository(db).FindByID(ctx, "abc")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectExec("UPDATE notifications").WithArgs("abc", "c1").WillReturnError(invalidUUID("abc"))
	updated, err := NewNotificationRepository(db).MarkRead(ctx, "abc", "c1")
	require.NoError(t, err)
	assert.False(t, updated)

	mock.ExpectQuery("WITH guard").WithArgs("abc").WillReturnError(invalidUUID("abc"))
	guard, err := NewDepartmentRepository(db).Delete(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, models.MutationNotFound, guard.Result)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT citizen_id, status FROM requests").WithArgs("abc").WillReturnError(invalidUUID("abc"))
	mock.ExpectRollback()
	outcome, err := NewPaymentRepository(db).CreateForRequest(ctx, PaymentParams{RequestID: "abc", CitizenID: "c1", Amount: 50})
	require.NoError(t, err)
	assert.Equal(t, models.MutationNotFound, outcome.Result)

	assert.NoError(t, mock.ExpectationsWereMet())
}
