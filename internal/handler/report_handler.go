package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/service"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

type reportService interface {
	DepartmentRequests(ctx context.Context, actor models.Identity) ([]models.DepartmentRequestStats, bool, error)
	PaymentSummary(ctx context.Context, actor models.Identity) ([]models.PaymentSummary, bool, error)
	ServiceRequests(ctx context.Context, actor models.Identity, departmentID string) ([]models.ServiceRequestStats, bool, error)
}

type exportService interface {
	Export(ctx context.Context, actor models.Identity, req service.ExportRequest) (*service.ExportFile, error)
}

// ReportOverview bundles the report tables shown on the reports pages.
type ReportOverview struct {
	DepartmentRequests []models.DepartmentRequestStats `json:"department_requests"`
	PaymentSummary     []models.PaymentSummary         `json:"payment_summary"`
	ServiceRequests    []models.ServiceRequestStats    `json:"service_requests,omitempty"`
}

// ReportHandler exposes aggregate reports and their exports.
type ReportHandler struct {
	reports reportService
	exports exportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports reportService, exports exportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// DepartmentRequests godoc
// @Summary Requests per department
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/department-requests [get]
func (h *ReportHandler) DepartmentRequests(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	rows, hit, err := h.reports.DepartmentRequests(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, rows, nil, middleware.ResponseMeta(c))
}

// PaymentSummary godoc
// @Summary Payments per department
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/payment-summary [get]
func (h *ReportHandler) PaymentSummary(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	rows, hit, err := h.reports.PaymentSummary(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, rows, nil, middleware.ResponseMeta(c))
}

// ServiceRequests godoc
// @Summary Requests per service in one department
// @Tags Reports
// @Produce json
// @Param department_id query string false "Department (required for admins)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/service-requests [get]
func (h *ReportHandler) ServiceRequests(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	rows, hit, err := h.reports.ServiceRequests(c.Request.Context(), identity, strings.TrimSpace(c.Query("department_id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, rows, nil, middleware.ResponseMeta(c))
}

// Overview godoc
// @Summary Reports page data
// @Description Admins see every department; department heads see their own plus a per-service breakdown
// @Tags Reports
// @Produce json
// @Param department_id query string false "Department for the per-service breakdown (admin)"
// @Success 200 {object} response.Envelope
// @Router /admin/reports [get]
func (h *ReportHandler) Overview(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	departments, hitDepartments, err := h.reports.DepartmentRequests(ctx, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	payments, hitPayments, err := h.reports.PaymentSummary(ctx, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	overview := ReportOverview{DepartmentRequests: departments, PaymentSummary: payments}
	hit := hitDepartments && hitPayments

	deptID := strings.TrimSpace(c.Query("department_id"))
	if identity.Role == models.RoleDepartmentHead || deptID != "" {
		services, hitServices, err := h.reports.ServiceRequests(ctx, identity, deptID)
		if err != nil {
			response.Error(c, err)
			return
		}
		overview.ServiceRequests = services
		hit = hit && hitServices
	}

	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, overview, nil, middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Export a report
// @Tags Reports
// @Produce text/csv,application/pdf
// @Param report query string false "department-requests (default), payment-summary or service-requests"
// @Param format query string false "csv (default) or pdf"
// @Param department_id query string false "Department for service-requests"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /admin/reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	if h.exports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}

	var req service.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export parameters"))
		return
	}
	if req.Kind == "" {
		req.Kind = models.ReportDepartmentRequests
	}
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format == "" {
		req.Format = "csv"
	}

	file, err := h.exports.Export(c.Request.Context(), identity, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
