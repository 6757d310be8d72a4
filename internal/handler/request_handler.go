package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/service"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

type requestService interface {
	Create(ctx context.Context, actor models.Identity, input service.CreateRequestInput) (*models.RequestDetail, error)
	List(ctx context.Context, actor models.Identity, filter models.RequestFilter) ([]models.RequestDetail, *models.Pagination, error)
	Get(ctx context.Context, actor models.Identity, id string) (*models.RequestDetail, error)
	Transition(ctx context.Context, actor models.Identity, id string, req service.TransitionRequest, meta models.AuditMeta) (*models.RequestDetail, error)
	Approve(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) (*models.RequestDetail, error)
	Reject(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) (*models.RequestDetail, error)
}

const (
	trackPath          = "/citizen/track"
	applyPath          = "/citizen/apply"
	officerRequestPath = "/officer/requests"
)

// RequestHandler exposes the service request workflow.
type RequestHandler struct {
	service requestService
}

// NewRequestHandler constructs the handler.
func NewRequestHandler(svc requestService) *RequestHandler {
	return &RequestHandler{service: svc}
}

// Create godoc
// @Summary Submit a service request
// @Description Accepts JSON or a multipart form with answers[field] values and documents files
// @Tags Requests
// @Accept json,mpfd
// @Produce json
// @Param payload body service.CreateRequestInput true "Application"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}

	input, err := h.bindApplication(c)
	if err != nil {
		response.Fail(c, err, applyPath)
		return
	}

	detail, err := h.service.Create(c.Request.Context(), identity, input)
	if err != nil {
		response.Fail(c, err, applyPath+"?service_id="+input.ServiceID)
		return
	}

	response.Respond(c, http.StatusCreated, "Request submitted successfully", detail, trackPath)
}

func (h *RequestHandler) bindApplication(c *gin.Context) (service.CreateRequestInput, error) {
	var input service.CreateRequestInput
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := bindPayload(c, &input); err != nil {
			return input, err
		}
		return input, nil
	}

	input.ServiceID = strings.TrimSpace(c.PostForm("service_id"))
	input.Answers = c.PostFormMap("answers")
	files, err := uploadsFromForm(c, "documents")
	if err != nil {
		return input, err
	}
	input.Files = files
	return input, nil
}

// List godoc
// @Summary List service requests
// @Description Citizens see their own requests, staff see their department, admins see everything
// @Tags Requests
// @Produce json
// @Param status query string false "Status filter"
// @Param service_id query string false "Service filter"
// @Param department_id query string false "Department filter (admin)"
// @Param request_id query string false "Request id"
// @Param citizen_name query string false "Citizen name search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}

	page, size := pageParams(c)
	filter := models.RequestFilter{
		DepartmentID: strings.TrimSpace(c.Query("department_id")),
		ServiceID:    strings.TrimSpace(c.Query("service_id")),
		Status:       models.RequestStatus(strings.TrimSpace(c.Query("status"))),
		RequestID:    strings.TrimSpace(c.Query("request_id")),
		CitizenName:  strings.TrimSpace(c.Query("citizen_name")),
		Page:         page,
		PageSize:     size,
	}

	requests, pagination, err := h.service.List(c.Request.Context(), identity, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get a service request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Transition godoc
// @Summary Change request status
// @Description Staff move a request forward; the citizen is notified
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/status [put]
func (h *RequestHandler) Transition(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")
	location := backTo(c, officerRequestPath+"/"+id)

	var req service.TransitionRequest
	if err := bindPayload(c, &req); err != nil {
		response.Fail(c, err, location)
		return
	}

	detail, err := h.service.Transition(c.Request.Context(), identity, id, req, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, location)
		return
	}
	response.Respond(c, http.StatusOK, "Request status updated to "+detail.Status.Title(), detail, location)
}

// Approve godoc
// @Summary Approve a request
// @Tags Officer
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /officer/requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve, "Request approved")
}

// Reject godoc
// @Summary Reject a request
// @Tags Officer
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /officer/requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject, "Request rejected")
}

func (h *RequestHandler) decide(c *gin.Context, fn func(context.Context, models.Identity, string, models.AuditMeta) (*models.RequestDetail, error), message string) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")
	location := backTo(c, officerRequestPath+"/"+id)

	detail, err := fn(c.Request.Context(), identity, id, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, location)
		return
	}
	response.Respond(c, http.StatusOK, message, detail, location)
}
