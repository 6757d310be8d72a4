package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

const departmentSelect = `SELECT d.id, d.name, d.description, d.created_at, d.updated_at,
	(SELECT COUNT(*) FROM services s WHERE s.department_id = d.id) AS service_count,
	(SELECT COUNT(*) FROM users u WHERE u.department_id = d.id AND u.role IN ('officer', 'department_head')) AS officer_count
FROM departments d`

// DepartmentRepository manages departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns all departments ordered by name with their service and officer counts.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, departmentSelect+` ORDER BY d.name ASC`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID returns a department.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	var department models.Department
	if err := r.db.GetContext(ctx, &department, departmentSelect+` WHERE d.id = $1`, id); err != nil {
		if IsMissing(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find department: %w", err)
	}
	return &department, nil
}

// ExistsByName reports whether another department already uses name.
func (r *DepartmentRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM departments WHERE LOWER(name) = LOWER($1) AND ($2 = '' OR id::text <> $2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name, excludeID); err != nil {
		return false, fmt.Errorf("check department name: %w", err)
	}
	return exists, nil
}

// Create inserts a department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	department.CreatedAt = now
	department.UpdatedAt = now
	const query = `INSERT INTO departments (id, name, description, created_at, updated_at) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update changes the name and description.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	department.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, department)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if isInvalidText(err) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("update department: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the department only when it owns no services and no users.
// The guard and the delete run as one statement.
func (r *DepartmentRepository) Delete(ctx context.Context, id string) (*models.DepartmentDeleteGuard, error) {
	const query = `WITH guard AS (
	SELECT
		(SELECT COUNT(*) FROM services WHERE department_id = $1) AS service_count,
		(SELECT COUNT(*) FROM users WHERE department_id = $1) AS user_count,
		EXISTS(SELECT 1 FROM departments WHERE id = $1) AS found
), deleted AS (
	DELETE FROM departments d USING guard g
	WHERE d.id = $1 AND g.service_count = 0 AND g.user_count = 0
	RETURNING d.id
)
SELECT g.service_count, g.user_count, g.found, EXISTS(SELECT 1 FROM deleted) AS deleted FROM guard g`

	var row struct {
		ServiceCount int  `db:"service_count"`
		UserCount    int  `db:"user_count"`
		Found        bool `db:"found"`
		Deleted      bool `db:"deleted"`
	}
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		switch {
		case isForeignKeyViolation(err):
			return &models.DepartmentDeleteGuard{Result: models.MutationConflict}, nil
		case isInvalidText(err):
			return &models.DepartmentDeleteGuard{Result: models.MutationNotFound}, nil
		}
		return nil, fmt.Errorf("delete department: %w", err)
	}

	guard := &models.DepartmentDeleteGuard{ServiceCount: row.ServiceCount, UserCount: row.UserCount}
	switch {
	case !row.Found:
		guard.Result = models.MutationNotFound
	case row.Deleted:
		guard.Result = models.MutationOK
	default:
		guard.Result = models.MutationConflict
	}
	return guard, nil
}
