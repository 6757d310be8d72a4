package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

// Conflict reasons reported by CreateForRequest.
const (
	PaymentReasonAlreadyPaid = "already_paid"
	PaymentReasonStatus      = "status"
)

// PaymentParams describes a payment attempt.
type PaymentParams struct {
	RequestID string
	CitizenID string
	Amount    float64
	Message   string
	PaidAt    time.Time
}

// PaymentRepository records payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// FindByRequestID returns the payment for a request.
func (r *PaymentRepository) FindByRequestID(ctx context.Context, requestID string) (*models.Payment, error) {
	const query = `SELECT id, request_id, amount, status, payment_date FROM payments WHERE request_id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, requestID); err != nil {
		if IsMissing(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &payment, nil
}

// CreateForRequest records the single payment of a request atomically: it locks
// the request row, refuses a second payment, inserts the payment, advances the
// request to under_review and notifies the owner, all in one transaction.
func (r *PaymentRepository) CreateForRequest(ctx context.Context, params PaymentParams) (outcome *models.PaymentOutcome, err error) {
	if params.PaidAt.IsZero() {
		params.PaidAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin payment tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked struct {
		CitizenID string               `db:"citizen_id"`
		Status    models.RequestStatus `db:"status"`
	}
	const lock = `SELECT citizen_id, status FROM requests WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &locked, lock, params.RequestID); err != nil {
		if IsMissing(err) {
			return &models.PaymentOutcome{Result: models.MutationNotFound}, nil
		}
		return nil, fmt.Errorf("lock request: %w", err)
	}
	if locked.CitizenID != params.CitizenID {
		return &models.PaymentOutcome{Result: models.MutationNotFound}, nil
	}

	var paid bool
	if err = tx.GetContext(ctx, &paid, `SELECT EXISTS(SELECT 1 FROM payments WHERE request_id = $1)`, params.RequestID); err != nil {
		return nil, fmt.Errorf("check existing payment: %w", err)
	}
	if paid {
		return &models.PaymentOutcome{Result: models.MutationConflict, Reason: PaymentReasonAlreadyPaid, Status: locked.Status}, nil
	}
	if locked.Status != models.StatusSubmitted {
		return &models.PaymentOutcome{Result: models.MutationConflict, Reason: PaymentReasonStatus, Status: locked.Status}, nil
	}

	payment := &models.Payment{
		ID:          uuid.NewString(),
		RequestID:   params.RequestID,
		Amount:      params.Amount,
		Status:      models.PaymentStatusSuccess,
		PaymentDate: params.PaidAt,
	}
	const insert = `INSERT INTO payments (id, request_id, amount, status, payment_date) VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.ExecContext(ctx, insert, payment.ID, payment.RequestID, payment.Amount, payment.Status, payment.PaymentDate); err != nil {
		if isUniqueViolation(err) {
			return &models.PaymentOutcome{Result: models.MutationConflict, Reason: PaymentReasonAlreadyPaid, Status: locked.Status}, nil
		}
		return nil, fmt.Errorf("create payment: %w", err)
	}

	const advance = `UPDATE requests SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	if _, err = tx.ExecContext(ctx, advance, params.RequestID, models.StatusUnderReview, params.PaidAt, models.StatusSubmitted); err != nil {
		return nil, fmt.Errorf("advance request status: %w", err)
	}

	if err = insertNotification(ctx, tx, params.CitizenID, params.Message, params.PaidAt); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payment tx: %w", err)
	}
	committed = true

	return &models.PaymentOutcome{Result: models.MutationOK, Payment: payment, Status: models.StatusUnderReview}, nil
}
