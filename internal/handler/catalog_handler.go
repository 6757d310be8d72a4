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

type catalogService interface {
	List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error)
	Get(ctx context.Context, id string) (*models.Service, error)
	Create(ctx context.Context, actor models.Identity, req service.ServiceRequest, meta models.AuditMeta) (*models.Service, error)
	Update(ctx context.Context, actor models.Identity, id string, req service.ServiceRequest, meta models.AuditMeta) (*models.Service, error)
	Delete(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) error
}

const adminServicesPath = "/admin/services"

// CatalogHandler exposes the service catalog to citizens and admins.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// List godoc
// @Summary List services
// @Tags Services
// @Produce json
// @Param department_id query string false "Department filter"
// @Param search query string false "Name search"
// @Success 200 {object} response.Envelope
// @Router /citizen/services [get]
func (h *CatalogHandler) List(c *gin.Context) {
	filter := models.ServiceFilter{
		DepartmentID: strings.TrimSpace(c.Query("department_id")),
		Search:       strings.TrimSpace(c.Query("search")),
	}
	services, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, services, nil)
}

// Get godoc
// @Summary Get a service with its required fields
// @Tags Services
// @Produce json
// @Param id path string true "Service ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/services/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	svc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, svc, nil)
}

// Create godoc
// @Summary Create a service
// @Tags Services
// @Accept json
// @Produce json
// @Param payload body service.ServiceRequest true "Service"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/services [post]
func (h *CatalogHandler) Create(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	req, err := bindServiceRequest(c)
	if err != nil {
		response.Fail(c, err, adminServicesPath)
		return
	}
	svc, err := h.service.Create(c.Request.Context(), identity, req, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, adminServicesPath)
		return
	}
	response.Respond(c, http.StatusCreated, "Service created", svc, adminServicesPath)
}

// Update godoc
// @Summary Update a service
// @Tags Services
// @Accept json
// @Produce json
// @Param id path string true "Service ID"
// @Param payload body service.ServiceRequest true "Service"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/services/{id} [put]
func (h *CatalogHandler) Update(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	req, err := bindServiceRequest(c)
	if err != nil {
		response.Fail(c, err, adminServicesPath)
		return
	}
	svc, err := h.service.Update(c.Request.Context(), identity, c.Param("id"), req, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, adminServicesPath)
		return
	}
	response.Respond(c, http.StatusOK, "Service updated", svc, adminServicesPath)
}

// Delete godoc
// @Summary Delete a service
// @Description Refused while requests reference the service
// @Tags Services
// @Produce json
// @Param id path string true "Service ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/services/{id} [delete]
func (h *CatalogHandler) Delete(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), identity, c.Param("id"), middleware.AuditMeta(c)); err != nil {
		response.Fail(c, err, adminServicesPath)
		return
	}
	response.Respond(c, http.StatusOK, "Service deleted", nil, adminServicesPath)
}

// bindServiceRequest reads required_fields from JSON as descriptors or labels,
// and from forms as a comma separated list.
func bindServiceRequest(c *gin.Context) (service.ServiceRequest, error) {
	var req service.ServiceRequest
	if err := bindPayload(c, &req); err != nil {
		return req, err
	}
	if !strings.HasPrefix(c.ContentType(), "application/json") {
		req.RequiredFields = models.ParseRequiredFields(c.PostForm("required_fields"))
	}
	return req, nil
}
