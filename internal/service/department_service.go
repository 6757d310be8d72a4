package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

type departmentRepository interface {
	List(ctx context.Context) ([]models.Department, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id string) (*models.DepartmentDeleteGuard, error)
}

// DepartmentRequest is the payload for creating or renaming a department.
type DepartmentRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=120"`
	Description string `json:"description" form:"description" validate:"max=1000"`
}

// DepartmentService manages departments.
type DepartmentService struct {
	repo      departmentRepository
	audit     auditRecorder
	policy    Policy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDepartmentService constructs the service.
func NewDepartmentService(repo departmentRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DepartmentService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns all departments with service and officer counts.
func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	departments, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// Get returns one department.
func (s *DepartmentService) Get(ctx context.Context, id string) (*models.Department, error) {
	department, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsMissing(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return department, nil
}

// Create adds a department with a unique name.
func (s *DepartmentService) Create(ctx context.Context, actor models.Identity, req DepartmentRequest, meta models.AuditMeta) (*models.Department, error) {
	if !s.policy.CanManageCatalog(actor) {
		return nil, forbidden("only administrators can manage departments")
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, req.Name, ""); err != nil {
		return nil, err
	}

	department := &models.Department{Name: req.Name, Description: req.Description}
	if err := s.repo.Create(ctx, department); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "department name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDepartmentCreate, "departments", department.ID, department, meta)
	return department, nil
}

// Update renames or re-describes a department.
func (s *DepartmentService) Update(ctx context.Context, actor models.Identity, id string, req DepartmentRequest, meta models.AuditMeta) (*models.Department, error) {
	if !s.policy.CanManageCatalog(actor) {
		return nil, forbidden("only administrators can manage departments")
	}
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	department, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, req.Name, id); err != nil {
		return nil, err
	}

	department.Name = req.Name
	department.Description = req.Description
	if err := s.repo.Update(ctx, department); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "department name already exists")
		case repository.IsMissing(err):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDepartmentUpdate, "departments", department.ID, req, meta)
	return department, nil
}

// Delete removes a department that owns no services and no users.
func (s *DepartmentService) Delete(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) error {
	if !s.policy.CanManageCatalog(actor) {
		return forbidden("only administrators can manage departments")
	}
	guard, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}
	switch guard.Result {
	case models.MutationNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, "department not found")
	case models.MutationConflict:
		return appErrors.Clone(appErrors.ErrConflict, deleteGuardMessage(guard))
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionDepartmentDelete, "departments", id, nil, meta)
	return nil
}

func (s *DepartmentService) validate(req *DepartmentRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	return nil
}

func (s *DepartmentService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check department name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "department name already exists")
	}
	return nil
}

func deleteGuardMessage(guard *models.DepartmentDeleteGuard) string {
	switch {
	case guard.ServiceCount > 0 && guard.UserCount > 0:
		return fmt.Sprintf("department still has %d services and %d users", guard.ServiceCount, guard.UserCount)
	case guard.ServiceCount > 0:
		return fmt.Sprintf("department still has %d services", guard.ServiceCount)
	case guard.UserCount > 0:
		return fmt.Sprintf("department still has %d users", guard.UserCount)
	}
	return "department is still referenced"
}
