package models

import "time"

// PaymentStatusSuccess is the only recorded payment outcome.
const PaymentStatusSuccess = "success"

// Payment is the one-per-request fee settlement.
type Payment struct {
	ID          string    `db:"id" json:"id"`
	RequestID   string    `db:"request_id" json:"request_id"`
	Amount      float64   `db:"amount" json:"amount"`
	Status      string    `db:"status" json:"status"`
	PaymentDate time.Time `db:"payment_date" json:"payment_date"`
}

// PaymentContext is what a citizen sees before paying.
type PaymentContext struct {
	RequestID      string        `json:"request_id"`
	ServiceName    string        `json:"service_name"`
	DepartmentName string        `json:"department_name"`
	Fee            float64       `json:"fee"`
	Status         RequestStatus `json:"status"`
	AlreadyPaid    bool          `json:"already_paid"`
	Payment        *Payment      `json:"payment,omitempty"`
}

// PaymentOutcome is returned by the atomic payment write.
type PaymentOutcome struct {
	Result  MutationResult
	Reason  string
	Payment *Payment
	Status  RequestStatus
}
