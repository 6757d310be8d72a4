package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

type reportRepository interface {
	DepartmentRequests(ctx context.Context, departmentID string) ([]models.DepartmentRequestStats, error)
	PaymentSummary(ctx context.Context, departmentID string) ([]models.PaymentSummary, error)
	ServiceRequests(ctx context.Context, departmentID string) ([]models.ServiceRequestStats, error)
}

// ReportServiceConfig tunes report caching.
type ReportServiceConfig struct {
	CacheTTL time.Duration
}

// ReportService serves the aggregate reports, cached per kind and department.
type ReportService struct {
	repo    reportRepository
	cache   *CacheService
	metrics *MetricsService
	policy  Policy
	logger  *zap.Logger
	cfg     ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(repo reportRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &ReportService{repo: repo, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

// Scope returns the department the actor may report on; "" means every department.
func (s *ReportService) Scope(actor models.Identity) (string, error) {
	dept, ok := s.policy.ReportScope(actor)
	if !ok {
		return "", forbidden("reports are limited to admins and department heads")
	}
	return dept, nil
}

// DepartmentRequests returns request counts per department. The bool reports a cache hit.
func (s *ReportService) DepartmentRequests(ctx context.Context, actor models.Identity) ([]models.DepartmentRequestStats, bool, error) {
	dept, err := s.Scope(actor)
	if err != nil {
		return nil, false, err
	}
	key := ReportKey(string(models.ReportDepartmentRequests), dept)
	var cached []models.DepartmentRequestStats
	if s.tryCache(ctx, key, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.DepartmentRequests(ctx, dept)
	s.metrics.ObserveDBQuery("report_department_requests", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build department report")
	}
	if rows == nil {
		rows = []models.DepartmentRequestStats{}
	}
	s.persistCache(ctx, key, rows)
	return rows, false, nil
}

// PaymentSummary returns payment totals per department.
func (s *ReportService) PaymentSummary(ctx context.Context, actor models.Identity) ([]models.PaymentSummary, bool, error) {
	dept, err := s.Scope(actor)
	if err != nil {
		return nil, false, err
	}
	key := ReportKey(string(models.ReportPaymentSummary), dept)
	var cached []models.PaymentSummary
	if s.tryCache(ctx, key, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.PaymentSummary(ctx, dept)
	s.metrics.ObserveDBQuery("report_payment_summary", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build payment report")
	}
	if rows == nil {
		rows = []models.PaymentSummary{}
	}
	s.persistCache(ctx, key, rows)
	return rows, false, nil
}

// ServiceRequests returns request counts per service of one department. Admins
// pick the department; department heads always get their own.
func (s *ReportService) ServiceRequests(ctx context.Context, actor models.Identity, departmentID string) ([]models.ServiceRequestStats, bool, error) {
	dept, err := s.Scope(actor)
	if err != nil {
		return nil, false, err
	}
	if dept == "" {
		dept = departmentID
	}
	if dept == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "department_id is required")
	}
	key := ReportKey(string(models.ReportServiceRequests), dept)
	var cached []models.ServiceRequestStats
	if s.tryCache(ctx, key, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.ServiceRequests(ctx, dept)
	s.metrics.ObserveDBQuery("report_service_requests", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build service report")
	}
	if rows == nil {
		rows = []models.ServiceRequestStats{}
	}
	s.persistCache(ctx, key, rows)
	return rows, false, nil
}

func (s *ReportService) tryCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("report cache read failed, querying database", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *ReportService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}
