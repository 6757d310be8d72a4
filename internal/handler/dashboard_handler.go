package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

type dashboardService interface {
	Citizen(ctx context.Context, actor models.Identity) (*models.CitizenDashboard, error)
	Department(ctx context.Context, actor models.Identity) (*models.DepartmentDashboard, error)
	Admin(ctx context.Context, actor models.Identity) (*models.AdminDashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Citizen godoc
// @Summary Citizen dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /citizen/dashboard [get]
func (h *DashboardHandler) Citizen(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	summary, err := h.service.Citizen(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Department godoc
// @Summary Officer and department head dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /officer/dashboard [get]
func (h *DashboardHandler) Department(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	summary, err := h.service.Department(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Admin godoc
// @Summary Admin dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	summary, cacheHit, err := h.service.Admin(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ResponseMeta(c))
}
