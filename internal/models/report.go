package models

// DepartmentRequestStats aggregates requests per department.
type DepartmentRequestStats struct {
	DepartmentID   string `db:"department_id" json:"department_id"`
	DepartmentName string `db:"department_name" json:"department_name"`
	Total          int    `db:"total" json:"total"`
	Submitted      int    `db:"submitted" json:"submitted"`
	UnderReview    int    `db:"under_review" json:"under_review"`
	Approved       int    `db:"approved" json:"approved"`
	Rejected       int    `db:"rejected" json:"rejected"`
}

// PaymentSummary aggregates payments per department.
type PaymentSummary struct {
	DepartmentID   string  `db:"department_id" json:"department_id"`
	DepartmentName string  `db:"department_name" json:"department_name"`
	PaymentCount   int     `db:"payment_count" json:"payment_count"`
	TotalAmount    float64 `db:"total_amount" json:"total_amount"`
}

// ServiceRequestStats aggregates requests per service within a department.
type ServiceRequestStats struct {
	ServiceID   string `db:"service_id" json:"service_id"`
	ServiceName string `db:"service_name" json:"service_name"`
	Total       int    `db:"total" json:"total"`
	Approved    int    `db:"approved" json:"approved"`
	Rejected    int    `db:"rejected" json:"rejected"`
	Pending     int    `db:"pending" json:"pending"`
}

// ReportKind selects a report for export.
type ReportKind string

const (
	ReportDepartmentRequests ReportKind = "department-requests"
	ReportPaymentSummary     ReportKind = "payment-summary"
	ReportServiceRequests    ReportKind = "service-requests"
)
