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

const serviceSelect = `SELECT s.id, s.department_id, d.name AS department_name, s.name, s.description, s.fee, s.required_fields, s.created_at, s.updated_at
FROM services s JOIN departments d ON d.id = s.department_id`

// ServiceRepository manages the service catalog.
type ServiceRepository struct {
	db *sqlx.DB
}

// NewServiceRepository constructs the repository.
func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// List returns services, optionally narrowed to a department or a name search.
func (r *ServiceRepository) List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error) {
	query := serviceSelect + ` WHERE 1=1`
	var args []interface{}
	if filter.DepartmentID != "" {
		query += fmt.Sprintf(" AND s.department_id = $%d", len(args)+1)
		args = append(args, filter.DepartmentID)
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND LOWER(s.name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	query += ` ORDER BY d.name ASC, s.name ASC`

	var services []models.Service
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

// FindByID returns a service with its department name.
func (r *ServiceRepository) FindByID(ctx context.Context, id string) (*models.Service, error) {
	var service models.Service
	if err := r.db.GetContext(ctx, &service, serviceSelect+` WHERE s.id = $1`, id); err != nil {
		if IsMissing(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find service: %w", err)
	}
	return &service, nil
}

// ExistsByName reports whether the department already has a service called name.
func (r *ServiceRepository) ExistsByName(ctx context.Context, departmentID, name, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM services WHERE department_id = $1 AND LOWER(name) = LOWER($2) AND ($3 = '' OR id::text <> $3))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, departmentID, name, excludeID); err != nil {
		return false, fmt.Errorf("check service name: %w", err)
	}
	return exists, nil
}

// Create inserts a service.
func (r *ServiceRepository) Create(ctx context.Context, service *models.Service) error {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	service.CreatedAt = now
	service.UpdatedAt = now
	const query = `INSERT INTO services (id, department_id, name, description, fee, required_fields, created_at, updated_at) VALUES (:id, :department_id, :name, :description, :fee, :required_fields, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, service); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// Update rewrites the mutable service fields.
func (r *ServiceRepository) Update(ctx context.Context, service *models.Service) error {
	service.UpdatedAt = time.Now().UTC()
	const query = `UPDATE services SET department_id = :department_id, name = :name, description = :description, fee = :fee, required_fields = :required_fields, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, service)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if isInvalidText(err) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update service: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a service no request refers to.
func (r *ServiceRepository) Delete(ctx context.Context, id string) (models.MutationResult, error) {
	const query = `DELETE FROM services s WHERE s.id = $1 AND NOT EXISTS (SELECT 1 FROM requests r WHERE r.service_id = s.id)`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return models.MutationConflict, nil
		case isInvalidText(err):
			return models.MutationNotFound, nil
		}
		return "", fmt.Errorf("delete service: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		return models.MutationOK, nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM services WHERE id = $1)`, id); err != nil {
		return "", fmt.Errorf("check service exists: %w", err)
	}
	if exists {
		return models.MutationConflict, nil
	}
	return models.MutationNotFound, nil
}
