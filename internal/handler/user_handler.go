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

type userService interface {
	List(ctx context.Context, actor models.Identity, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Get(ctx context.Context, actor models.Identity, id string) (*models.User, error)
	Create(ctx context.Context, actor models.Identity, req service.CreateUserRequest, meta models.AuditMeta) (*models.User, error)
	Update(ctx context.Context, actor models.Identity, id string, req service.UpdateUserRequest, meta models.AuditMeta) (*models.User, error)
	Delete(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) error
	ListOfficers(ctx context.Context, actor models.Identity, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	CreateOfficer(ctx context.Context, actor models.Identity, req service.OfficerRequest, meta models.AuditMeta) (*models.User, error)
	UpdateOfficer(ctx context.Context, actor models.Identity, id string, req service.OfficerRequest, meta models.AuditMeta) (*models.User, error)
	DeleteOfficer(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) error
}

const (
	adminUsersPath = "/admin/users"
	officersPath   = "/dept-head/officers"
)

// UserHandler handles account administration and officer management.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Description List users with pagination and filtering
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param role query string false "Role filter"
// @Param department_id query string false "Department filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	users, pagination, err := h.service.List(c.Request.Context(), identity, userFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Create godoc
// @Summary Create staff user
// @Description Creates officers, department heads and admins
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body service.CreateUserRequest true "Create user payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req service.CreateUserRequest
	if err := bindPayload(c, &req); err != nil {
		response.Fail(c, err, adminUsersPath)
		return
	}
	user, err := h.service.Create(c.Request.Context(), identity, req, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, adminUsersPath)
		return
	}
	response.Respond(c, http.StatusCreated, "User created", user, adminUsersPath)
}

// Update godoc
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body service.UpdateUserRequest true "Update user payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req service.UpdateUserRequest
	if err := bindPayload(c, &req); err != nil {
		response.Fail(c, err, adminUsersPath)
		return
	}
	user, err := h.service.Update(c.Request.Context(), identity, c.Param("id"), req, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, adminUsersPath)
		return
	}
	response.Respond(c, http.StatusOK, "User updated", user, adminUsersPath)
}

// Delete godoc
// @Summary Delete user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), identity, c.Param("id"), middleware.AuditMeta(c)); err != nil {
		response.Fail(c, err, adminUsersPath)
		return
	}
	response.Respond(c, http.StatusOK, "User deleted", nil, adminUsersPath)
}

// ListOfficers godoc
// @Summary List officers of the caller's department
// @Tags Officers
// @Produce json
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /dept-head/officers [get]
func (h *UserHandler) ListOfficers(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	officers, pagination, err := h.service.ListOfficers(c.Request.Context(), identity, userFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, officers, pagination)
}

// CreateOfficer godoc
// @Summary Add an officer to the caller's department
// @Tags Officers
// @Accept json
// @Produce json
// @Param payload body service.OfficerRequest true "Officer"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /dept-head/officers [post]
func (h *UserHandler) CreateOfficer(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req service.OfficerRequest
	if err := bindPayload(c, &req); err != nil {
		response.Fail(c, err, officersPath)
		return
	}
	officer, err := h.service.CreateOfficer(c.Request.Context(), identity, req, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, officersPath)
		return
	}
	response.Respond(c, http.StatusCreated, "Officer created", officer, officersPath)
}

// UpdateOfficer godoc
// @Summary Update an officer in the caller's department
// @Tags Officers
// @Accept json
// @Produce json
// @Param id path string true "Officer ID"
// @Param payload body service.OfficerRequest true "Officer"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dept-head/officers/{id} [put]
func (h *UserHandler) UpdateOfficer(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req service.OfficerRequest
	if err := bindPayload(c, &req); err != nil {
		response.Fail(c, err, officersPath)
		return
	}
	officer, err := h.service.UpdateOfficer(c.Request.Context(), identity, c.Param("id"), req, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, officersPath)
		return
	}
	response.Respond(c, http.StatusOK, "Officer updated", officer, officersPath)
}

// DeleteOfficer godoc
// @Summary Remove an officer from the caller's department
// @Tags Officers
// @Produce json
// @Param id path string true "Officer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dept-head/officers/{id} [delete]
func (h *UserHandler) DeleteOfficer(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	if err := h.service.DeleteOfficer(c.Request.Context(), identity, c.Param("id"), middleware.AuditMeta(c)); err != nil {
		response.Fail(c, err, officersPath)
		return
	}
	response.Respond(c, http.StatusOK, "Officer deleted", nil, officersPath)
}

func userFilter(c *gin.Context) models.UserFilter {
	page, size := pageParams(c)
	filter := models.UserFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     page,
		PageSize: size,
	}
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	if dept := strings.TrimSpace(c.Query("department_id")); dept != "" {
		filter.DepartmentID = &dept
	}
	return filter
}
