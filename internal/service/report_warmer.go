package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/pkg/ids"
	"github.com/noah-isme/civic-portal-api/pkg/jobs"
)

// JobWarmReports rebuilds the organisation-wide report cache.
const JobWarmReports = "reports.warm"

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

type reportBuilder interface {
	DepartmentRequests(ctx context.Context, actor models.Identity) ([]models.DepartmentRequestStats, bool, error)
	PaymentSummary(ctx context.Context, actor models.Identity) ([]models.PaymentSummary, bool, error)
}

type reportCache interface {
	Enabled() bool
	InvalidateReports(ctx context.Context)
}

// ReportWarmer drops cached reports when requests or payments change and
// schedules a background rebuild of the admin-wide aggregates, so the next
// dashboard load is served from cache.
type ReportWarmer struct {
	cache   reportCache
	reports reportBuilder
	queue   jobEnqueuer
	logger  *zap.Logger
	pending atomic.Bool
}

// NewReportWarmer constructs the warmer. Attach a queue before traffic starts.
func NewReportWarmer(cache reportCache, reports reportBuilder, logger *zap.Logger) *ReportWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportWarmer{cache: cache, reports: reports, logger: logger}
}

// Attach sets the queue rebuild jobs are sent to.
func (w *ReportWarmer) Attach(queue jobEnqueuer) {
	w.queue = queue
}

// InvalidateReports clears the cache and schedules at most one pending rebuild.
func (w *ReportWarmer) InvalidateReports(ctx context.Context) {
	if w.cache == nil {
		return
	}
	w.cache.InvalidateReports(ctx)
	if w.queue == nil || !w.cache.Enabled() {
		return
	}
	if !w.pending.CompareAndSwap(false, true) {
		return
	}
	if err := w.queue.TryEnqueue(jobs.Job{ID: ids.New(), Type: JobWarmReports}); err != nil {
		w.pending.Store(false)
		if !errors.Is(err, jobs.ErrQueueFull) {
			w.logger.Warn("schedule report warm-up failed", zap.Error(err))
		}
	}
}

// Handle runs a queued warm-up job.
func (w *ReportWarmer) Handle(ctx context.Context, job jobs.Job) error {
	if job.Type != JobWarmReports {
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	w.pending.Store(false)
	if w.cache == nil || !w.cache.Enabled() {
		return nil
	}

	admin := models.Identity{Role: models.RoleAdmin}
	if _, _, err := w.reports.DepartmentRequests(ctx, admin); err != nil {
		return err
	}
	if _, _, err := w.reports.PaymentSummary(ctx, admin); err != nil {
		return err
	}
	w.logger.Debug("report cache warmed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
