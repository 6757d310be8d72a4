package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/tracing"
)

type requestRepository interface {
	Create(ctx context.Context, request *models.Request, documents []models.Document) error
	FindByID(ctx context.Context, id string) (*models.RequestDetail, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error)
	CountByStatus(ctx context.Context, filter models.RequestFilter) (models.StatusCounts, error)
	TransitionStatus(ctx context.Context, change models.StatusChange) (models.MutationResult, error)
}

type serviceLookup interface {
	FindByID(ctx context.Context, id string) (*models.Service, error)
}

type documentLister interface {
	ListByRequest(ctx context.Context, requestID string) ([]models.Document, error)
}

type reportInvalidator interface {
	InvalidateReports(ctx context.Context)
}

// CreateRequestInput is a citizen's application.
type CreateRequestInput struct {
	ServiceID string            `json:"service_id" form:"service_id" validate:"required"`
	Answers   map[string]string `json:"answers" form:"-"`
	Files     []Upload          `json:"-" form:"-"`
}

// TransitionRequest asks for a status change.
type TransitionRequest struct {
	Status models.RequestStatus `json:"status" form:"status" validate:"required"`
}

// RequestServiceParams groups the collaborators of RequestService.
type RequestServiceParams struct {
	Requests  requestRepository
	Services  serviceLookup
	Documents documentLister
	Storage   fileStorage
	Uploads   UploadPolicy
	Cache     reportInvalidator
	Audit     auditRecorder
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// RequestService runs the request lifecycle: creation, listing and status transitions.
type RequestService struct {
	requests  requestRepository
	services  serviceLookup
	documents documentLister
	storage   fileStorage
	uploads   UploadPolicy
	cache     reportInvalidator
	audit     auditRecorder
	metrics   *MetricsService
	policy    Policy
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRequestService constructs the service.
func NewRequestService(params RequestServiceParams) *RequestService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	return &RequestService{
		requests:  params.Requests,
		services:  params.Services,
		documents: params.Documents,
		storage:   params.Storage,
		uploads:   params.Uploads,
		cache:     params.Cache,
		audit:     params.Audit,
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
		now:       time.Now,
	}
}

// Create files a new request in the submitted state owned by the caller.
// Uploaded files are stored first and removed again if the insert fails.
func (s *RequestService) Create(ctx context.Context, actor models.Identity, input CreateRequestInput) (*models.RequestDetail, error) {
	if actor.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "caller identity is required")
	}
	if !s.policy.CanCreateRequest(actor) {
		return nil, forbidden("only citizens can submit requests")
	}
	input.ServiceID = strings.TrimSpace(input.ServiceID)
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "service_id is required")
	}

	service, err := s.services.FindByID(ctx, input.ServiceID)
	if err != nil {
		if repository.IsMissing(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "service not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load service")
	}

	answers, err := validateAnswers(service.RequiredFields, input.Answers)
	if err != nil {
		return nil, err
	}

	documents, cleanup, err := storeUploads(s.storage, s.uploads, input.Files)
	if err != nil {
		return nil, err
	}

	request := &models.Request{
		CitizenID: actor.UserID,
		ServiceID: service.ID,
		Status:    models.StatusSubmitted,
		Data:      answers,
	}
	if err := s.requests.Create(ctx, request, documents); err != nil {
		cleanup()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	s.metrics.RecordRequestCreated()
	s.invalidateReports(ctx)
	s.logger.Info("request submitted", zap.String("request_id", request.ID), zap.String("service_id", service.ID), zap.Int("documents", len(documents)))

	return &models.RequestDetail{
		Request:        *request,
		ServiceName:    service.Name,
		Fee:            service.Fee,
		DepartmentID:   service.DepartmentID,
		DepartmentName: service.DepartmentName,
		CitizenName:    actor.Name,
		CitizenEmail:   actor.Email,
		Documents:      documents,
	}, nil
}

// List returns the requests visible to the caller, newest first.
func (s *RequestService) List(ctx context.Context, actor models.Identity, filter models.RequestFilter) ([]models.RequestDetail, *models.Pagination, error) {
	scoped, ok := s.policy.RequestScope(actor, filter)
	if !ok {
		return nil, nil, forbidden("you cannot list requests")
	}
	if scoped.Status != "" && !scoped.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
	}

	items, total, err := s.requests.List(ctx, scoped)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}

	page := scoped.Page
	if page < 1 {
		page = 1
	}
	pageSize := scoped.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a request with its documents. Requests outside the caller's scope look missing.
func (s *RequestService) Get(ctx context.Context, actor models.Identity, id string) (*models.RequestDetail, error) {
	detail, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if s.documents != nil {
		docs, err := s.documents.ListByRequest(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
		}
		detail.Documents = docs
	}
	return detail, nil
}

// Transition moves a request forward and notifies its owner in the same transaction.
func (s *RequestService) Transition(ctx context.Context, actor models.Identity, id string, req TransitionRequest, meta models.AuditMeta) (detail *models.RequestDetail, err error) {
	ctx, span := tracing.Start(ctx, "request.transition")
	span.SetAttributes(attribute.String("request.id", id), attribute.String("request.target_status", string(req.Status)))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", req.Status))
	}
	if actor.Role == models.RoleCitizen {
		return nil, forbidden("citizens cannot change request status")
	}

	detail, err = s.requests.FindByID(ctx, id)
	if err != nil {
		if repository.IsMissing(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if !s.policy.CanTransition(actor, detail.DepartmentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	if !detail.Status.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move request from %s to %s", detail.Status.Label(), req.Status.Label()))
	}

	change := models.StatusChange{
		RequestID:    detail.ID,
		From:         detail.Status,
		To:           req.Status,
		NotifyUserID: detail.CitizenID,
		Message:      StatusMessage(detail.ServiceName, req.Status),
		ChangedAt:    s.now().UTC(),
	}
	result, err := s.requests.TransitionStatus(ctx, change)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request status")
	}
	switch result {
	case models.MutationNotFound:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	case models.MutationConflict:
		return nil, appErrors.Clone(appErrors.ErrConflict, "request status was changed by someone else")
	}

	detail.Status = change.To
	detail.UpdatedAt = change.ChangedAt
	s.metrics.RecordTransition(string(change.From), string(change.To))
	s.invalidateReports(ctx)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionStatusChange, "requests", detail.ID,
		map[string]interface{}{"from": change.From, "to": change.To}, meta)
	return detail, nil
}

// Approve is Transition to approved.
func (s *RequestService) Approve(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) (*models.RequestDetail, error) {
	return s.Transition(ctx, actor, id, TransitionRequest{Status: models.StatusApproved}, meta)
}

// Reject is Transition to rejected.
func (s *RequestService) Reject(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) (*models.RequestDetail, error) {
	return s.Transition(ctx, actor, id, TransitionRequest{Status: models.StatusRejected}, meta)
}

// CountByStatus tallies the requests visible to the caller.
func (s *RequestService) CountByStatus(ctx context.Context, actor models.Identity) (models.StatusCounts, error) {
	scoped, ok := s.policy.RequestScope(actor, models.RequestFilter{})
	if !ok {
		return models.StatusCounts{}, forbidden("you cannot view request statistics")
	}
	counts, err := s.requests.CountByStatus(ctx, scoped)
	if err != nil {
		return models.StatusCounts{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests")
	}
	return counts, nil
}

func (s *RequestService) load(ctx context.Context, actor models.Identity, id string) (*models.RequestDetail, error) {
	detail, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if repository.IsMissing(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if !s.policy.CanViewRequest(actor, detail.CitizenID, detail.DepartmentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	return detail, nil
}

// StatusMessage is the notification text sent to the owner when a request enters status.
func StatusMessage(serviceName string, status models.RequestStatus) string {
	if status == models.StatusUnderReview {
		return fmt.Sprintf("Your %s request is under review.", serviceName)
	}
	return fmt.Sprintf("Your %s request has been %s.", serviceName, status.Label())
}

// validateAnswers checks the answers against the service descriptors: every
// required field needs a non-blank answer and unknown fields are refused.
func validateAnswers(fields models.RequiredFields, answers map[string]string) (models.Answers, error) {
	clean := make(models.Answers, len(answers))
	var unknown []string
	for key, value := range answers {
		key = strings.TrimSpace(key)
		if _, ok := fields.Lookup(key); !ok {
			unknown = append(unknown, key)
			continue
		}
		clean[key] = strings.TrimSpace(value)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown fields: "+strings.Join(unknown, ", "))
	}

	var missing []string
	for _, field := range fields {
		if field.Required && clean[field.Name] == "" {
			missing = append(missing, field.Label)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing required fields: "+strings.Join(missing, ", "))
	}
	return clean, nil
}

func (s *RequestService) invalidateReports(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateReports(ctx)
	}
}
