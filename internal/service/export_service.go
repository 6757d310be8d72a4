package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/export"
)

type reportSource interface {
	DepartmentRequests(ctx context.Context, actor models.Identity) ([]models.DepartmentRequestStats, bool, error)
	PaymentSummary(ctx context.Context, actor models.Identity) ([]models.PaymentSummary, bool, error)
	ServiceRequests(ctx context.Context, actor models.Identity, departmentID string) ([]models.ServiceRequestStats, bool, error)
}

// ExportRequest selects the report and file format to render.
type ExportRequest struct {
	Kind         models.ReportKind `form:"report" validate:"required,oneof=department-requests payment-summary service-requests"`
	Format       string            `form:"format" validate:"required,oneof=csv pdf"`
	DepartmentID string            `form:"department_id"`
}

// ExportFile is a rendered report ready to be sent as an attachment.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders reports into CSV or PDF files.
type ExportService struct {
	reports reportSource
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(reports reportSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{reports: reports, logger: logger, now: time.Now}
}

// Export builds the dataset for the requested report and renders it.
func (s *ExportService) Export(ctx context.Context, actor models.Identity, req ExportRequest) (*ExportFile, error) {
	exporter, err := export.ForFormat(req.Format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}

	dataset, title, err := s.buildDataset(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	payload, err := exporter.Render(dataset, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	name := fmt.Sprintf("%s_%s.%s", req.Kind, s.now().UTC().Format("20060102_150405"), exporter.Extension())
	s.logger.Info("report exported", zap.String("report", string(req.Kind)), zap.String("format", exporter.Extension()), zap.Int("rows", len(dataset.Rows)))
	return &ExportFile{FileName: sanitizeFilename(name), ContentType: exporter.ContentType(), Data: payload}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, actor models.Identity, req ExportRequest) (export.Dataset, string, error) {
	switch req.Kind {
	case models.ReportDepartmentRequests:
		return s.buildDepartmentDataset(ctx, actor)
	case models.ReportPaymentSummary:
		return s.buildPaymentDataset(ctx, actor)
	case models.ReportServiceRequests:
		return s.buildServiceDataset(ctx, actor, req.DepartmentID)
	default:
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report %q", req.Kind))
	}
}

func (s *ExportService) buildDepartmentDataset(ctx context.Context, actor models.Identity) (export.Dataset, string, error) {
	rows, _, err := s.reports.DepartmentRequests(ctx, actor)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Department":   row.DepartmentName,
			"Total":        fmt.Sprintf("%d", row.Total),
			"Submitted":    fmt.Sprintf("%d", row.Submitted),
			"Under Review": fmt.Sprintf("%d", row.UnderReview),
			"Approved":     fmt.Sprintf("%d", row.Approved),
			"Rejected":     fmt.Sprintf("%d", row.Rejected),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Department", "Total", "Submitted", "Under Review", "Approved", "Rejected"},
		Rows:    dataRows,
	}
	return dataset, "Requests per Department", nil
}

func (s *ExportService) buildPaymentDataset(ctx context.Context, actor models.Identity) (export.Dataset, string, error) {
	rows, _, err := s.reports.PaymentSummary(ctx, actor)
	if err != nil {
		return export.Dataset{}, "", err
	}
	var grand float64
	dataRows := make([]map[string]string, 0, len(rows)+1)
	for _, row := range rows {
		grand += row.TotalAmount
		dataRows = append(dataRows, map[string]string{
			"Department":   row.DepartmentName,
			"Payments":     fmt.Sprintf("%d", row.PaymentCount),
			"Total Amount": fmt.Sprintf("%.2f", row.TotalAmount),
		})
	}
	dataRows = append(dataRows, map[string]string{"Department": "All", "Payments": "", "Total Amount": fmt.Sprintf("%.2f", grand)})
	dataset := export.Dataset{
		Headers: []string{"Department", "Payments", "Total Amount"},
		Rows:    dataRows,
	}
	return dataset, "Payment Summary", nil
}

func (s *ExportService) buildServiceDataset(ctx context.Context, actor models.Identity, departmentID string) (export.Dataset, string, error) {
	rows, _, err := s.reports.ServiceRequests(ctx, actor, departmentID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Service":  row.ServiceName,
			"Total":    fmt.Sprintf("%d", row.Total),
			"Pending":  fmt.Sprintf("%d", row.Pending),
			"Approved": fmt.Sprintf("%d", row.Approved),
			"Rejected": fmt.Sprintf("%d", row.Rejected),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Service", "Total", "Pending", "Approved", "Rejected"},
		Rows:    dataRows,
	}
	return dataset, "Requests per Service", nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "report"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
