package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionLogout           = "LOGOUT"
	AuditActionRegister         = "REGISTER"
	AuditActionPasswordChange   = "PASSWORD_CHANGE"
	AuditActionUserCreate       = "USER_CREATE"
	AuditActionUserUpdate       = "USER_UPDATE"
	AuditActionUserDelete       = "USER_DELETE"
	AuditActionDepartmentCreate = "DEPARTMENT_CREATE"
	AuditActionDepartmentUpdate = "DEPARTMENT_UPDATE"
	AuditActionDepartmentDelete = "DEPARTMENT_DELETE"
	AuditActionServiceCreate    = "SERVICE_CREATE"
	AuditActionServiceUpdate    = "SERVICE_UPDATE"
	AuditActionServiceDelete    = "SERVICE_DELETE"
	AuditActionStatusChange     = "REQUEST_STATUS_CHANGE"
	AuditActionPayment          = "PAYMENT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditMeta carries the caller's network details into audited mutations.
type AuditMeta struct {
	IP        string
	UserAgent string
}
