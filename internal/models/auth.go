package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" form:"email" validate:"required,email"`
	Password  string `json:"password" form:"password" validate:"required"`
	IP        string `json:"-" form:"-"`
	UserAgent string `json:"-" form:"-"`
}

// RegisterRequest creates a citizen account.
type RegisterRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=120"`
	Email       string `json:"email" form:"email" validate:"required,email"`
	Password    string `json:"password" form:"password" validate:"required,min=6"`
	NationalID  string `json:"national_id" form:"national_id" validate:"omitempty,max=64"`
	DOB         string `json:"dob" form:"dob" validate:"omitempty,datetime=2006-01-02"`
	Address     string `json:"address" form:"address" validate:"omitempty,max=255"`
	PhoneNumber string `json:"phone_number" form:"phone_number" validate:"omitempty,max=32"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
	Redirect    string    `json:"redirect"`
	Session     *Session  `json:"-"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" form:"old_password" validate:"required"`
	NewPassword string `json:"new_password" form:"new_password" validate:"required,min=6"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role"`
	DepartmentID *string  `json:"department_id,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID       string   `json:"user_id"`
	Role         UserRole `json:"role"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	DepartmentID *string  `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the request identity.
func (c *JWTClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Name: c.Name, Email: c.Email, Role: c.Role, DepartmentID: c.DepartmentID}
}

// HomePath is the landing page for a role after login.
func HomePath(role UserRole) string {
	switch role {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleDepartmentHead:
		return "/dept-head/dashboard"
	case RoleOfficer:
		return "/officer/dashboard"
	default:
		return "/citizen/dashboard"
	}
}
