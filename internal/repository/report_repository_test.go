package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepartmentRequestsAllDepartments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"department_id", "department_name", "total", "submitted", "under_review", "approved", "rejected"}).
		AddRow("d1", "Passports", 5, 1, 1, 2, 1).
		AddRow("d2", "Taxes", 0, 0, 0, 0, 0)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN requests r ON r.service_id = s.id GROUP BY d.id, d.name ORDER BY d.name ASC")).
		WillReturnRows(rows)

	stats, err := repo.DepartmentRequests(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 2, stats[0].Approved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentSummaryForDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"department_id", "department_name", "payment_count", "total_amount"}).
		AddRow("d1", "Passports", 3, 150.0)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE d.id = $1 GROUP BY d.id, d.name")).
		WithArgs("d1").
		WillReturnRows(rows)

	summary, err := repo.PaymentSummary(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 150.0, summary[0].TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRequestsAndAdminTotals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.department_id = $1")).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"service_id", "service_name", "total", "approved", "rejected", "pending"}).
			AddRow("s1", "Passport Renewal", 4, 1, 1, 2))
	mock.ExpectQuery(regexp.QuoteMeta("AS total_revenue")).
		WillReturnRows(sqlmock.NewRows([]string{"total_users", "total_requests", "pending_requests", "total_departments", "total_revenue"}).
			AddRow(10, 4, 2, 3, 200.0))

	stats, err := repo.ServiceRequests(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats[0].Pending)

	totals, err := repo.AdminTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200.0, totals.TotalRevenue)
	assert.Equal(t, 2, totals.PendingRequests)
	assert.NoError(t, mock.ExpectationsWereMet())
}
