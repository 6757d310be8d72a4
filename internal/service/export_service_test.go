package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

func newTestExportService() *ExportService {
	repo := &mockReportRepo{
		departments: []models.DepartmentRequestStats{{DepartmentName: "Passports", Total: 4, Submitted: 1, UnderReview: 1, Approved: 1, Rejected: 1}},
		payments: []models.PaymentSummary{
			{DepartmentName: "Passports", PaymentCount: 2, TotalAmount: 100},
			{DepartmentName: "Licensing", PaymentCount: 1, TotalAmount: 25.5},
		},
		services: []models.ServiceRequestStats{{ServiceName: "Passport Renewal", Total: 2, Pending: 1, Approved: 1}},
	}
	svc := NewExportService(NewReportService(repo, nil, nil, nil, ReportServiceConfig{}), nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceCSV(t *testing.T) {
	svc := newTestExportService()

	file, err := svc.Export(context.Background(), testAdmin, ExportRequest{Kind: models.ReportPaymentSummary, Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "payment-summary_20240501_083000.csv", file.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Department,Payments,Total Amount", lines[0])
	assert.Equal(t, "Passports,2,100.00", lines[1])
	assert.Equal(t, "All,,125.50", lines[3])
}

func TestExportServicePDF(t *testing.T) {
	svc := newTestExportService()

	file, err := svc.Export(context.Background(), testAdmin, ExportRequest{Kind: models.ReportDepartmentRequests, Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestExportServiceRejectsUnknownInput(t *testing.T) {
	svc := newTestExportService()

	_, err := svc.Export(context.Background(), testAdmin, ExportRequest{Kind: models.ReportDepartmentRequests, Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Export(context.Background(), testAdmin, ExportRequest{Kind: "grades", Format: "csv"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Export(context.Background(), testOfficer, ExportRequest{Kind: models.ReportServiceRequests, Format: "csv"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
