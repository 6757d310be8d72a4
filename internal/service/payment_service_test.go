package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

// memoryLedger mimics the locking payment transaction of the repository.
type memoryLedger struct {
	mu            sync.Mutex
	requests      map[string]*models.RequestDetail
	payments      map[string]*models.Payment
	notifications []models.Notification
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{requests: map[string]*models.RequestDetail{}, payments: map[string]*models.Payment{}}
}

func (l *memoryLedger) FindByID(ctx context.Context, id string) (*models.RequestDetail, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *r
	return &copied, nil
}

func (l *memoryLedger) FindByRequestID(ctx context.Context, requestID string) (*models.Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.payments[requestID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (l *memoryLedger) CreateForRequest(ctx context.Context, params repository.PaymentParams) (*models.PaymentOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.requests[params.RequestID]
	if !ok || r.CitizenID != params.CitizenID {
		return &models.PaymentOutcome{Result: models.MutationNotFound}, nil
	}
	if _, paid := l.payments[params.RequestID]; paid {
		return &models.PaymentOutcome{Result: models.MutationConflict, Reason: repository.PaymentReasonAlreadyPaid, Status: r.Status}, nil
	}
	if r.Status != models.StatusSubmitted {
		return &models.PaymentOutcome{Result: models.MutationConflict, Reason: repository.PaymentReasonStatus, Status: r.Status}, nil
	}
	payment := &models.Payment{ID: "pay-" + params.RequestID, RequestID: params.RequestID, Amount: params.Amount, Status: models.PaymentStatusSuccess, PaymentDate: params.PaidAt}
	l.payments[params.RequestID] = payment
	r.Status = models.StatusUnderReview
	id := params.RequestID
	r.PaymentID = &id
	l.notifications = append(l.notifications, models.Notification{UserID: params.CitizenID, Message: params.Message, CreatedAt: params.PaidAt})
	return &models.PaymentOutcome{Result: models.MutationOK, Payment: payment, Status: models.StatusUnderReview}, nil
}

func (l *memoryLedger) seed(id, citizenID string, status models.RequestStatus) {
	l.requests[id] = &models.RequestDetail{
		Request:        models.Request{ID: id, CitizenID: citizenID, Status: status},
		ServiceName:    "Passport Renewal",
		DepartmentName: "Passports",
		Fee:            50,
		DepartmentID:   "dept-a",
	}
}

func newTestPaymentService(ledger *memoryLedger, cache reportInvalidator, audit auditRecorder) *PaymentService {
	svc := NewPaymentService(ledger, ledger, cache, audit, NewMetricsService(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestPaymentServiceSubmitDefaultsToFee(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.seed("r1", "citizen-1", models.StatusSubmitted)
	cache := &countingInvalidator{}
	audit := &stubAudit{}
	svc := newTestPaymentService(ledger, cache, audit)

	payment, err := svc.Submit(context.Background(), testCitizen, "r1", PaymentInput{}, models.AuditMeta{})
	require.NoError(t, err)
	assert.Equal(t, 50.0, payment.Amount)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, models.StatusUnderReview, ledger.requests["r1"].Status)
	require.Len(t, ledger.notifications, 1)
	assert.Equal(t, "Your Passport Renewal request is under review.", ledger.notifications[0].Message)
	assert.Equal(t, 1, cache.calls)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionPayment, audit.logs[0].Action)

	_, err = svc.Submit(context.Background(), testCitizen, "r1", PaymentInput{}, models.AuditMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyPaid.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.StatusUnderReview, ledger.requests["r1"].Status)
	assert.Len(t, ledger.notifications, 1)
}

func TestPaymentServiceSubmitRules(t *testing.T) {
	cases := []struct {
		name   string
		actor  models.Identity
		status models.RequestStatus
		amount *float64
		code   string
	}{
		{name: "wrong amount", actor: testCitizen, status: models.StatusSubmitted, amount: fee(49.99), code: appErrors.ErrValidation.Code},
		{name: "foreign request", actor: models.Identity{UserID: "citizen-2", Role: models.RoleCitizen}, status: models.StatusSubmitted, code: appErrors.ErrNotFound.Code},
		{name: "officer", actor: testOfficer, status: models.StatusSubmitted, code: appErrors.ErrNotFound.Code},
		{name: "already decided", actor: testCitizen, status: models.StatusApproved, code: appErrors.ErrConflict.Code},
		{name: "explicit fee", actor: testCitizen, status: models.StatusSubmitted, amount: fee(50)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := newMemoryLedger()
			ledger.seed("r1", "citizen-1", tc.status)
			svc := newTestPaymentService(ledger, nil, nil)

			_, err := svc.Submit(context.Background(), tc.actor, "r1", PaymentInput{Amount: tc.amount}, models.AuditMeta{})
			if tc.code == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
			assert.Empty(t, ledger.payments)
		})
	}
}

func TestPaymentServiceSubmitMissingRequest(t *testing.T) {
	svc := newTestPaymentService(newMemoryLedger(), nil, nil)
	_, err := svc.Submit(context.Background(), testCitizen, "nope", PaymentInput{}, models.AuditMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceConcurrentSubmitPaysOnce(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.seed("r1", "citizen-1", models.StatusSubmitted)
	svc := newTestPaymentService(ledger, &countingInvalidator{}, nil)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), testCitizen, "r1", PaymentInput{}, models.AuditMeta{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, appErrors.ErrAlreadyPaid.Code, appErrors.FromError(err).Code)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, ledger.payments, 1)
	assert.Len(t, ledger.notifications, 1)
}

func TestPaymentServiceContext(t *testing.T) {
	ledger := newMemoryLedger()
	ledger.seed("r1", "citizen-1", models.StatusSubmitted)
	svc := newTestPaymentService(ledger, nil, nil)

	info, err := svc.Context(context.Background(), testCitizen, "r1")
	require.NoError(t, err)
	assert.False(t, info.AlreadyPaid)
	assert.Equal(t, 50.0, info.Fee)
	assert.Equal(t, "Passports", info.DepartmentName)

	_, err = svc.Submit(context.Background(), testCitizen, "r1", PaymentInput{}, models.AuditMeta{})
	require.NoError(t, err)

	info, err = svc.Context(context.Background(), testCitizen, "r1")
	require.NoError(t, err)
	assert.True(t, info.AlreadyPaid)
	require.NotNil(t, info.Payment)
	assert.Equal(t, 50.0, info.Payment.Amount)
}
