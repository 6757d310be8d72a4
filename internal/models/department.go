package models

import "time"

// Department groups services and staff.
type Department struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	ServiceCount int       `db:"service_count" json:"service_count"`
	OfficerCount int       `db:"officer_count" json:"officer_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentDeleteGuard explains why a department delete was refused.
type DepartmentDeleteGuard struct {
	Result       MutationResult
	ServiceCount int
	UserCount    int
}
