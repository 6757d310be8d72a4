package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

// ReportRepository runs read-only aggregate queries.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// DepartmentRequests counts requests per department. An empty departmentID covers every department.
func (r *ReportRepository) DepartmentRequests(ctx context.Context, departmentID string) ([]models.DepartmentRequestStats, error) {
	query := `SELECT d.id AS department_id, d.name AS department_name,
	COUNT(r.id) AS total,
	COUNT(r.id) FILTER (WHERE r.status = 'submitted') AS submitted,
	COUNT(r.id) FILTER (WHERE r.status = 'under_review') AS under_review,
	COUNT(r.id) FILTER (WHERE r.status = 'approved') AS approved,
	COUNT(r.id) FILTER (WHERE r.status = 'rejected') AS rejected
FROM departments d
LEFT JOIN services s ON s.department_id = d.id
LEFT JOIN requests r ON r.service_id = s.id`
	var args []interface{}
	if departmentID != "" {
		query += ` WHERE d.id = $1`
		args = append(args, departmentID)
	}
	query += ` GROUP BY d.id, d.name ORDER BY d.name ASC`

	var stats []models.DepartmentRequestStats
	if err := r.db.SelectContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("department request report: %w", err)
	}
	return stats, nil
}

// PaymentSummary totals payments per department. An empty departmentID covers every department.
func (r *ReportRepository) PaymentSummary(ctx context.Context, departmentID string) ([]models.PaymentSummary, error) {
	query := `SELECT d.id AS department_id, d.name AS department_name,
	COUNT(p.id) AS payment_count,
	COALESCE(SUM(p.amount), 0) AS total_amount
FROM departments d
LEFT JOIN services s ON s.department_id = d.id
LEFT JOIN requests r ON r.service_id = s.id
LEFT JOIN payments p ON p.request_id = r.id`
	var args []interface{}
	if departmentID != "" {
		query += ` WHERE d.id = $1`
		args = append(args, departmentID)
	}
	query += ` GROUP BY d.id, d.name ORDER BY d.name ASC`

	var summary []models.PaymentSummary
	if err := r.db.SelectContext(ctx, &summary, query, args...); err != nil {
		return nil, fmt.Errorf("payment summary report: %w", err)
	}
	return summary, nil
}

// ServiceRequests counts requests per service inside one department.
func (r *ReportRepository) ServiceRequests(ctx context.Context, departmentID string) ([]models.ServiceRequestStats, error) {
	const query = `SELECT s.id AS service_id, s.name AS service_name,
	COUNT(r.id) AS total,
	COUNT(r.id) FILTER (WHERE r.status = 'approved') AS approved,
	COUNT(r.id) FILTER (WHERE r.status = 'rejected') AS rejected,
	COUNT(r.id) FILTER (WHERE r.status IN ('submitted', 'under_review')) AS pending
FROM services s
LEFT JOIN requests r ON r.service_id = s.id
WHERE s.department_id = $1
GROUP BY s.id, s.name
ORDER BY s.name ASC`

	var stats []models.ServiceRequestStats
	if err := r.db.SelectContext(ctx, &stats, query, departmentID); err != nil {
		return nil, fmt.Errorf("service request report: %w", err)
	}
	return stats, nil
}

// AdminTotals returns the portal-wide counters shown on the admin dashboard.
func (r *ReportRepository) AdminTotals(ctx context.Context) (*models.AdminDashboard, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM users) AS total_users,
	(SELECT COUNT(*) FROM requests) AS total_requests,
	(SELECT COUNT(*) FROM requests WHERE status IN ('submitted', 'under_review')) AS pending_requests,
	(SELECT COUNT(*) FROM departments) AS total_departments,
	(SELECT COALESCE(SUM(amount), 0) FROM payments) AS total_revenue`

	var totals models.AdminDashboard
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("admin totals: %w", err)
	}
	return &totals, nil
}
