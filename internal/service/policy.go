package service

import (
	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

// Policy is the single authority on who may do what. Route guards mirror it
// but every service call consults it with the explicit caller identity.
type Policy struct{}

// CanCreateRequest allows citizens to apply for services.
func (Policy) CanCreateRequest(actor models.Identity) bool {
	return actor.Role == models.RoleCitizen && actor.UserID != ""
}

// CanPay allows only the owning citizen to pay for a request.
func (Policy) CanPay(actor models.Identity, citizenID string) bool {
	return actor.Role == models.RoleCitizen && actor.UserID == citizenID
}

// CanTransition allows admins anywhere and staff within their own department.
func (Policy) CanTransition(actor models.Identity, departmentID string) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleOfficer, models.RoleDepartmentHead:
		return actor.InDepartment(departmentID)
	}
	return false
}

// CanViewRequest covers the owner, staff of the owning department and admins.
func (p Policy) CanViewRequest(actor models.Identity, citizenID, departmentID string) bool {
	if actor.Role == models.RoleCitizen {
		return actor.UserID == citizenID
	}
	return p.CanTransition(actor, departmentID)
}

// CanAttachDocuments allows only the owner to add files.
func (Policy) CanAttachDocuments(actor models.Identity, citizenID string) bool {
	return actor.Role == models.RoleCitizen && actor.UserID == citizenID
}

// CanManageCatalog covers departments, services and staff accounts.
func (Policy) CanManageCatalog(actor models.Identity) bool {
	return actor.Role == models.RoleAdmin
}

// CanManageOfficer allows admins, and department heads over officers of their own department.
func (Policy) CanManageOfficer(actor models.Identity, target *models.User) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if actor.Role != models.RoleDepartmentHead || target == nil {
		return false
	}
	return target.Role == models.RoleOfficer && target.DepartmentID != nil && actor.InDepartment(*target.DepartmentID)
}

// ReportScope returns the department an actor may report on ("" = all departments).
func (Policy) ReportScope(actor models.Identity) (string, bool) {
	switch actor.Role {
	case models.RoleAdmin:
		return "", true
	case models.RoleDepartmentHead:
		if dept := actor.Department(); dept != "" {
			return dept, true
		}
	}
	return "", false
}

// RequestScope narrows a listing filter to what the actor may see.
func (Policy) RequestScope(actor models.Identity, filter models.RequestFilter) (models.RequestFilter, bool) {
	switch actor.Role {
	case models.RoleAdmin:
		return filter, true
	case models.RoleCitizen:
		filter.CitizenID = actor.UserID
		return filter, actor.UserID != ""
	case models.RoleOfficer, models.RoleDepartmentHead:
		filter.DepartmentID = actor.Department()
		return filter, filter.DepartmentID != ""
	}
	return filter, false
}

func forbidden(message string) error {
	return appErrors.Clone(appErrors.ErrForbidden, message)
}
