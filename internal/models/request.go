package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a service request.
type RequestStatus string

const (
	StatusSubmitted   RequestStatus = "submitted"
	StatusUnderReview RequestStatus = "under_review"
	StatusApproved    RequestStatus = "approved"
	StatusRejected    RequestStatus = "rejected"
)

var allowedTransitions = map[RequestStatus][]RequestStatus{
	StatusSubmitted:   {StatusUnderReview, StatusApproved, StatusRejected},
	StatusUnderReview: {StatusApproved, StatusRejected},
}

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s RequestStatus) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// CanTransitionTo reports whether the forward-only lifecycle permits s -> next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Label is the human readable status used in notifications.
func (s RequestStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Title is the capitalised label used in status headlines, e.g. "Under Review".
func (s RequestStatus) Title() string {
	words := strings.Fields(s.Label())
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// Answers holds the citizen's responses keyed by field name.
type Answers map[string]string

// Value implements driver.Valuer.
func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(a))
}

// Scan implements sql.Scanner.
func (a *Answers) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = Answers{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported request_data type %T", src)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode request_data: %w", err)
	}
	out := make(Answers, len(raw))
	for k, v := range raw {
		switch typed := v.(type) {
		case string:
			out[k] = typed
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(typed)
		}
	}
	*a = out
	return nil
}

// Request is a citizen's application for a service.
type Request struct {
	ID        string        `db:"id" json:"id"`
	CitizenID string        `db:"citizen_id" json:"citizen_id"`
	ServiceID string        `db:"service_id" json:"service_id"`
	Status    RequestStatus `db:"status" json:"status"`
	Data      Answers       `db:"request_data" json:"request_data"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// RequestDetail joins the request with its service, department, citizen and payment.
type RequestDetail struct {
	Request
	ServiceName    string     `db:"service_name" json:"service_name"`
	Fee            float64    `db:"fee" json:"fee"`
	DepartmentID   string     `db:"department_id" json:"department_id"`
	DepartmentName string     `db:"department_name" json:"department_name"`
	CitizenName    string     `db:"citizen_name" json:"citizen_name"`
	CitizenEmail   string     `db:"citizen_email" json:"citizen_email"`
	PaymentID      *string    `db:"payment_id" json:"payment_id,omitempty"`
	PaymentAmount  *float64   `db:"payment_amount" json:"payment_amount,omitempty"`
	PaymentDate    *time.Time `db:"payment_date" json:"payment_date,omitempty"`
	Documents      []Document `db:"-" json:"documents,omitempty"`
}

// Paid reports whether a payment exists for the request.
func (d *RequestDetail) Paid() bool {
	return d.PaymentID != nil
}

// RequestFilter scopes and narrows request listings.
type RequestFilter struct {
	CitizenID    string
	DepartmentID string
	ServiceID    string
	Status       RequestStatus
	RequestID    string
	CitizenName  string
	Page         int
	PageSize     int
}

// StatusChange describes a conditional status update and the notification it emits.
type StatusChange struct {
	RequestID    string
	From         RequestStatus
	To           RequestStatus
	NotifyUserID string
	Message      string
	ChangedAt    time.Time
}
