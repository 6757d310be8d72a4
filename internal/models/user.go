package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleCitizen        UserRole = "citizen"
	RoleOfficer        UserRole = "officer"
	RoleDepartmentHead UserRole = "department_head"
	RoleAdmin          UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleCitizen, RoleOfficer, RoleDepartmentHead, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to department staff.
func (r UserRole) IsStaff() bool {
	return r == RoleOfficer || r == RoleDepartmentHead
}

// User represents an application user stored in the users table.
type User struct {
	ID             string     `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	Role           UserRole   `db:"role" json:"role"`
	DepartmentID   *string    `db:"department_id" json:"department_id,omitempty"`
	DepartmentName *string    `db:"department_name" json:"department_name,omitempty"`
	NationalID     *string    `db:"national_id" json:"national_id,omitempty"`
	DOB            *time.Time `db:"dob" json:"dob,omitempty"`
	Address        *string    `db:"address" json:"address,omitempty"`
	PhoneNumber    *string    `db:"phone_number" json:"phone_number,omitempty"`
	JobTitle       *string    `db:"job_title" json:"job_title,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Identity returns the request identity derived from the stored user.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, DepartmentID: u.DepartmentID}
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role         *UserRole
	DepartmentID *string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Identity is the authenticated caller resolved by the auth gate and passed
// explicitly into every service call.
type Identity struct {
	UserID       string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email,omitempty"`
	Role         UserRole `json:"role"`
	DepartmentID *string  `json:"department_id,omitempty"`
}

// InDepartment reports whether the identity is affiliated with departmentID.
func (i Identity) InDepartment(departmentID string) bool {
	return i.DepartmentID != nil && *i.DepartmentID != "" && *i.DepartmentID == departmentID
}

// Department returns the affiliated department id or an empty string.
func (i Identity) Department() string {
	if i.DepartmentID == nil {
		return ""
	}
	return *i.DepartmentID
}
