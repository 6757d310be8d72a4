package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/service"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

type departmentService interface {
	List(ctx context.Context) ([]models.Department, error)
	Get(ctx context.Context, id string) (*models.Department, error)
	Create(ctx context.Context, actor models.Identity, req service.DepartmentRequest, meta models.AuditMeta) (*models.Department, error)
	Update(ctx context.Context, actor models.Identity, id string, req service.DepartmentRequest, meta models.AuditMeta) (*models.Department, error)
	Delete(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) error
}

const adminDepartmentsPath = "/admin/departments"

// DepartmentHandler handles department CRUD endpoints.
type DepartmentHandler struct {
	service departmentService
}

// NewDepartmentHandler constructs the handler.
func NewDepartmentHandler(svc departmentService) *DepartmentHandler {
	return &DepartmentHandler{service: svc}
}

// List godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	departments, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// Get godoc
// @Summary Get department
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/departments/{id} [get]
func (h *DepartmentHandler) Get(c *gin.Context) {
	department, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// Create godoc
// @Summary Create department
// @Tags Departments
// @Accept json
// @Produce json
// @Param payload body service.DepartmentRequest true "Department"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req service.DepartmentRequest
	if err := bindPayload(c, &req); err != nil {
		response.Fail(c, err, adminDepartmentsPath)
		return
	}
	department, err := h.service.Create(c.Request.Context(), identity, req, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, adminDepartmentsPath)
		return
	}
	response.Respond(c, http.StatusCreated, "Department created", department, adminDepartmentsPath)
}

// Update godoc
// @Summary Update department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body service.DepartmentRequest true "Department"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/departments/{id} [put]
func (h *DepartmentHandler) Update(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req service.DepartmentRequest
	if err := bindPayload(c, &req); err != nil {
		response.Fail(c, err, adminDepartmentsPath)
		return
	}
	department, err := h.service.Update(c.Request.Context(), identity, c.Param("id"), req, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, adminDepartmentsPath)
		return
	}
	response.Respond(c, http.StatusOK, "Department updated", department, adminDepartmentsPath)
}

// Delete godoc
// @Summary Delete department
// @Description Refused while services, staff or requests reference it
// @Tags Departments
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), identity, c.Param("id"), middleware.AuditMeta(c)); err != nil {
		response.Fail(c, err, adminDepartmentsPath)
		return
	}
	response.Respond(c, http.StatusOK, "Department deleted", nil, adminDepartmentsPath)
}
