package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/tracing"
)

type paymentRepository interface {
	FindByRequestID(ctx context.Context, requestID string) (*models.Payment, error)
	CreateForRequest(ctx context.Context, params repository.PaymentParams) (*models.PaymentOutcome, error)
}

type requestFinder interface {
	FindByID(ctx context.Context, id string) (*models.RequestDetail, error)
}

// PaymentInput is the payment form. A missing amount means the service fee.
type PaymentInput struct {
	Amount *float64 `json:"amount" form:"amount"`
}

// PaymentService records the one payment each request may receive.
type PaymentService struct {
	payments paymentRepository
	requests requestFinder
	cache    reportInvalidator
	audit    auditRecorder
	metrics  *MetricsService
	policy   Policy
	logger   *zap.Logger
	now      func() time.Time
}

// NewPaymentService constructs the service.
func NewPaymentService(payments paymentRepository, requests requestFinder, cache reportInvalidator, audit auditRecorder, metrics *MetricsService, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		payments: payments,
		requests: requests,
		cache:    cache,
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Context returns what the owner needs to pay. AlreadyPaid is set when a payment exists.
func (s *PaymentService) Context(ctx context.Context, actor models.Identity, requestID string) (*models.PaymentContext, error) {
	detail, err := s.owned(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}

	result := &models.PaymentContext{
		RequestID:      detail.ID,
		ServiceName:    detail.ServiceName,
		DepartmentName: detail.DepartmentName,
		Fee:            detail.Fee,
		Status:         detail.Status,
	}
	payment, err := s.payments.FindByRequestID(ctx, requestID)
	switch {
	case err == nil:
		result.AlreadyPaid = true
		result.Payment = payment
	case repository.IsMissing(err):
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return result, nil
}

// Submit pays for a request. The write is atomic, so of two concurrent attempts
// exactly one succeeds and the other is refused as already paid.
func (s *PaymentService) Submit(ctx context.Context, actor models.Identity, requestID string, input PaymentInput, meta models.AuditMeta) (payment *models.Payment, err error) {
	ctx, span := tracing.Start(ctx, "payment.submit")
	span.SetAttributes(attribute.String("request.id", requestID))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	detail, err := s.owned(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}

	amount := detail.Fee
	if input.Amount != nil {
		if math.Abs(*input.Amount-detail.Fee) > 0.005 {
			s.metrics.RecordPayment("invalid_amount", 0)
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("amount must equal the service fee of %.2f", detail.Fee))
		}
		amount = *input.Amount
	}
	span.SetAttributes(attribute.Float64("payment.amount", amount))

	outcome, err := s.payments.CreateForRequest(ctx, repository.PaymentParams{
		RequestID: detail.ID,
		CitizenID: actor.UserID,
		Amount:    amount,
		Message:   StatusMessage(detail.ServiceName, models.StatusUnderReview),
		PaidAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	switch outcome.Result {
	case models.MutationNotFound:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	case models.MutationConflict:
		s.metrics.RecordPayment(outcome.Reason, 0)
		if outcome.Reason == repository.PaymentReasonAlreadyPaid {
			return nil, appErrors.Clone(appErrors.ErrAlreadyPaid, "payment already processed for this request")
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("request is %s and can no longer be paid", outcome.Status.Label()))
	}

	s.metrics.RecordPayment("ok", amount)
	if s.cache != nil {
		s.cache.InvalidateReports(ctx)
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionPayment, "payments", outcome.Payment.ID,
		map[string]interface{}{"request_id": detail.ID, "amount": amount}, meta)
	s.logger.Info("payment recorded", zap.String("request_id", detail.ID), zap.Float64("amount", amount))
	return outcome.Payment, nil
}

func (s *PaymentService) owned(ctx context.Context, actor models.Identity, requestID string) (*models.RequestDetail, error) {
	if requestID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "request_id is required")
	}
	detail, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if repository.IsMissing(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if !s.policy.CanPay(actor, detail.CitizenID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	return detail, nil
}
