package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

type serviceRepository interface {
	List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error)
	FindByID(ctx context.Context, id string) (*models.Service, error)
	ExistsByName(ctx context.Context, departmentID, name, excludeID string) (bool, error)
	Create(ctx context.Context, service *models.Service) error
	Update(ctx context.Context, service *models.Service) error
	Delete(ctx context.Context, id string) (models.MutationResult, error)
}

// ServiceRequest is the payload for creating or updating a catalog service.
// RequiredFields accepts a descriptor list, a list of labels or a comma separated string.
type ServiceRequest struct {
	DepartmentID   string                `json:"department_id" form:"department_id" validate:"required"`
	Name           string                `json:"name" form:"name" validate:"required,max=160"`
	Description    string                `json:"description" form:"description" validate:"max=2000"`
	Fee            *float64              `json:"fee" form:"fee" validate:"required,gte=0"`
	RequiredFields models.RequiredFields `json:"required_fields" form:"-"`
}

// CatalogService manages the services citizens can apply for.
type CatalogService struct {
	repo        serviceRepository
	departments departmentLookup
	audit       auditRecorder
	policy      Policy
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(repo serviceRepository, departments departmentLookup, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CatalogService{repo: repo, departments: departments, audit: audit, validator: validate, logger: logger}
}

// List returns services, optionally filtered by department.
func (s *CatalogService) List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error) {
	services, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list services")
	}
	return services, nil
}

// Get returns one service with its descriptors.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Service, error) {
	service, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsMissing(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "service not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load service")
	}
	return service, nil
}

// Create adds a service to a department.
func (s *CatalogService) Create(ctx context.Context, actor models.Identity, req ServiceRequest, meta models.AuditMeta) (*models.Service, error) {
	if !s.policy.CanManageCatalog(actor) {
		return nil, forbidden("only administrators can manage services")
	}
	if err := s.validate(ctx, &req, ""); err != nil {
		return nil, err
	}

	service := &models.Service{
		DepartmentID:   req.DepartmentID,
		Name:           req.Name,
		Description:    req.Description,
		Fee:            *req.Fee,
		RequiredFields: req.RequiredFields,
	}
	if err := s.repo.Create(ctx, service); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "department already offers a service with this name")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create service")
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionServiceCreate, "services", service.ID, service, meta)
	return service, nil
}

// Update rewrites a service.
func (s *CatalogService) Update(ctx context.Context, actor models.Identity, id string, req ServiceRequest, meta models.AuditMeta) (*models.Service, error) {
	if !s.policy.CanManageCatalog(actor) {
		return nil, forbidden("only administrators can manage services")
	}
	service, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &req, id); err != nil {
		return nil, err
	}

	service.DepartmentID = req.DepartmentID
	service.Name = req.Name
	service.Description = req.Description
	service.Fee = *req.Fee
	service.RequiredFields = req.RequiredFields
	if err := s.repo.Update(ctx, service); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "department already offers a service with this name")
		case repository.IsMissing(err):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "service not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update service")
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionServiceUpdate, "services", service.ID, service, meta)
	return service, nil
}

// Delete removes a service no request refers to.
func (s *CatalogService) Delete(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) error {
	if !s.policy.CanManageCatalog(actor) {
		return forbidden("only administrators can manage services")
	}
	result, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete service")
	}
	switch result {
	case models.MutationNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, "service not found")
	case models.MutationConflict:
		return appErrors.Clone(appErrors.ErrConflict, "service has requests and cannot be deleted")
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionServiceDelete, "services", id, nil, meta)
	return nil
}

func (s *CatalogService) validate(ctx context.Context, req *ServiceRequest, excludeID string) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.DepartmentID = strings.TrimSpace(req.DepartmentID)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid service payload")
	}
	if req.RequiredFields == nil {
		req.RequiredFields = models.RequiredFields{}
	}
	if err := req.RequiredFields.Validate(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		if repository.IsMissing(err) {
			return appErrors.Clone(appErrors.ErrValidation, "department does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	exists, err := s.repo.ExistsByName(ctx, req.DepartmentID, req.Name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check service name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "department already offers a service with this name")
	}
	return nil
}
