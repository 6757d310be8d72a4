package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

const requestDetailSelect = `SELECT r.id, r.citizen_id, r.service_id, r.status, r.request_data, r.created_at, r.updated_at,
	s.name AS service_name, s.fee, s.department_id, d.name AS department_name,
	u.name AS citizen_name, u.email AS citizen_email,
	p.id AS payment_id, p.amount AS payment_amount, p.payment_date
FROM requests r
JOIN services s ON s.id = r.service_id
JOIN departments d ON d.id = s.department_id
JOIN users u ON u.id = r.citizen_id
LEFT JOIN payments p ON p.request_id = r.id`

// RequestRepository persists service requests and their status changes.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts the request and its documents in one transaction.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request, documents []models.Document) (err error) {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO requests (id, citizen_id, service_id, status, request_data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err = tx.ExecContext(ctx, query, request.ID, request.CitizenID, request.ServiceID, request.Status, request.Data, request.CreatedAt, request.UpdatedAt); err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	for i := range documents {
		documents[i].RequestID = request.ID
		if err = insertDocument(ctx, tx, &documents[i]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create request tx: %w", err)
	}
	return nil
}

// FindByID returns the request joined with service, department, citizen and payment.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.RequestDetail, error) {
	var detail models.RequestDetail
	if err := r.db.GetContext(ctx, &detail, requestDetailSelect+` WHERE r.id = $1`, id); err != nil {
		if IsMissing(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find request: %w", err)
	}
	return &detail, nil
}

// List returns requests newest-first matching the filter with the total count.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error) {
	where, args := requestConditions(filter)
	_, pageSize, offset := normalizePage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("%s%s ORDER BY r.created_at DESC, r.id DESC LIMIT %d OFFSET %d", requestDetailSelect, where, pageSize, offset)
	var requests []models.RequestDetail
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		if isInvalidText(err) {
			// a malformed id filter matches nothing
			return []models.RequestDetail{}, 0, nil
		}
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM requests r JOIN services s ON s.id = r.service_id JOIN users u ON u.id = r.citizen_id` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}
	return requests, total, nil
}

// CountByStatus tallies requests matching the scope of filter.
func (r *RequestRepository) CountByStatus(ctx context.Context, filter models.RequestFilter) (models.StatusCounts, error) {
	where, args := requestConditions(models.RequestFilter{CitizenID: filter.CitizenID, DepartmentID: filter.DepartmentID})
	query := `SELECT COUNT(*) AS total,
	COUNT(*) FILTER (WHERE r.status = 'submitted') AS submitted,
	COUNT(*) FILTER (WHERE r.status = 'under_review') AS under_review,
	COUNT(*) FILTER (WHERE r.status = 'approved') AS approved,
	COUNT(*) FILTER (WHERE r.status = 'rejected') AS rejected
FROM requests r JOIN services s ON s.id = r.service_id JOIN users u ON u.id = r.citizen_id` + where

	var counts models.StatusCounts
	if err := r.db.GetContext(ctx, &counts, query, args...); err != nil {
		return models.StatusCounts{}, fmt.Errorf("count requests by status: %w", err)
	}
	return counts, nil
}

// TransitionStatus moves the request from change.From to change.To and notifies
// the owner in the same transaction. A request no longer in change.From yields a conflict.
func (r *RequestRepository) TransitionStatus(ctx context.Context, change models.StatusChange) (result models.MutationResult, err error) {
	if change.ChangedAt.IsZero() {
		change.ChangedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() {
		if err != nil || result != models.MutationOK {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE requests SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := tx.ExecContext(ctx, update, change.RequestID, change.From, change.To, change.ChangedAt)
	if err != nil {
		if isInvalidText(err) {
			return models.MutationNotFound, nil
		}
		return "", fmt.Errorf("update request status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		var exists bool
		if err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM requests WHERE id = $1)`, change.RequestID); err != nil {
			return "", fmt.Errorf("check request exists: %w", err)
		}
		if exists {
			return models.MutationConflict, nil
		}
		return models.MutationNotFound, nil
	}

	if err = insertNotification(ctx, tx, change.NotifyUserID, change.Message, change.ChangedAt); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit transition tx: %w", err)
	}
	return models.MutationOK, nil
}

func requestConditions(filter models.RequestFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.CitizenID != "" {
		conditions = append(conditions, fmt.Sprintf("r.citizen_id = $%d", len(args)+1))
		args = append(args, filter.CitizenID)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("s.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.ServiceID != "" {
		conditions = append(conditions, fmt.Sprintf("r.service_id = $%d", len(args)+1))
		args = append(args, filter.ServiceID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.RequestID != "" {
		conditions = append(conditions, fmt.Sprintf("r.id::text = $%d", len(args)+1))
		args = append(args, filter.RequestID)
	}
	if filter.CitizenName != "" {
		conditions = append(conditions, fmt.Sprintf("u.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.CitizenName+"%")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
