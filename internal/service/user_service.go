package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/phone"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) (models.MutationResult, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type departmentLookup interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type sessionRevoker interface {
	RevokeUser(ctx context.Context, userID string) error
}

// CreateUserRequest represents payload for creating staff and admin accounts.
type CreateUserRequest struct {
	Name         string          `json:"name" form:"name" validate:"required,max=120"`
	Email        string          `json:"email" form:"email" validate:"required,email"`
	Password     string          `json:"password" form:"password" validate:"required,min=6"`
	Role         models.UserRole `json:"role" form:"role" validate:"required,oneof=officer department_head admin"`
	DepartmentID *string         `json:"department_id" form:"department_id"`
	JobTitle     string          `json:"job_title" form:"job_title" validate:"omitempty,max=120"`
	PhoneNumber  string          `json:"phone_number" form:"phone_number" validate:"omitempty,max=32"`
}

// UpdateUserRequest payload for updating users; nil fields are left unchanged.
type UpdateUserRequest struct {
	Name         *string          `json:"name" form:"name" validate:"omitempty,min=1,max=120"`
	Email        *string          `json:"email" form:"email" validate:"omitempty,email"`
	Role         *models.UserRole `json:"role" form:"role" validate:"omitempty,oneof=citizen officer department_head admin"`
	DepartmentID *string          `json:"department_id" form:"department_id"`
	JobTitle     *string          `json:"job_title" form:"job_title" validate:"omitempty,max=120"`
	PhoneNumber  *string          `json:"phone_number" form:"phone_number" validate:"omitempty,max=32"`
	Password     *string          `json:"password" form:"password" validate:"omitempty,min=6"`
}

// OfficerRequest is the payload a department head uses to manage officers.
type OfficerRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=120"`
	Email       string `json:"email" form:"email" validate:"required,email"`
	Password    string `json:"password" form:"password" validate:"omitempty,min=6"`
	JobTitle    string `json:"job_title" form:"job_title" validate:"omitempty,max=120"`
	PhoneNumber string `json:"phone_number" form:"phone_number" validate:"omitempty,max=32"`
}

// ProfileUpdateRequest carries self-service profile edits. Which fields apply depends on the role.
type ProfileUpdateRequest struct {
	Name        *string `json:"name" form:"name" validate:"omitempty,min=1,max=120"`
	JobTitle    *string `json:"job_title" form:"job_title" validate:"omitempty,max=120"`
	PhoneNumber *string `json:"phone_number" form:"phone_number" validate:"omitempty,max=32"`
	NationalID  *string `json:"national_id" form:"national_id" validate:"omitempty,max=64"`
	DOB         *string `json:"dob" form:"dob" validate:"omitempty,datetime=2006-01-02"`
	Address     *string `json:"address" form:"address" validate:"omitempty,max=255"`
}

// UserService handles account administration, officer management and profiles.
type UserService struct {
	repo          userRepository
	departments   departmentLookup
	sessions      sessionRevoker
	policy        Policy
	validator     *validator.Validate
	logger        *zap.Logger
	defaultRegion string
}

// NewUserService creates an instance of UserService.
// sessions may be nil, in which case role changes apply at the next login.
func NewUserService(repo userRepository, departments departmentLookup, sessions sessionRevoker, validate *validator.Validate, logger *zap.Logger, defaultRegion string) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, departments: departments, sessions: sessions, validator: validate, logger: logger, defaultRegion: defaultRegion}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, actor models.Identity, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if !s.policy.CanManageCatalog(actor) {
		return nil, nil, forbidden("only administrators can list users")
	}
	return s.list(ctx, filter)
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, actor models.Identity, id string) (*models.User, error) {
	if !s.policy.CanManageCatalog(actor) {
		return nil, forbidden("only administrators can view users")
	}
	return s.load(ctx, id)
}

// Create adds a staff or admin account.
func (s *UserService) Create(ctx context.Context, actor models.Identity, req CreateUserRequest, meta models.AuditMeta) (*models.User, error) {
	if !s.policy.CanManageCatalog(actor) {
		return nil, forbidden("only administrators can create users")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Role:         req.Role,
		DepartmentID: nonEmpty(req.DepartmentID),
		JobTitle:     optionalString(req.JobTitle),
	}
	if err := s.applyPhone(user, req.PhoneNumber); err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, user); err != nil {
		return nil, err
	}
	if err := s.setPassword(user, req.Password); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, s.translateWrite(err, "failed to create user")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"id": user.ID, "email": user.Email, "role": user.Role, "department_id": user.DepartmentID})
	s.audit(ctx, actor, models.AuditActionUserCreate, user.ID, nil, newPayload, meta)
	return user, nil
}

// Update modifies the user attributes.
func (s *UserService) Update(ctx context.Context, actor models.Identity, id string, req UpdateUserRequest, meta models.AuditMeta) (*models.User, error) {
	if !s.policy.CanManageCatalog(actor) {
		return nil, forbidden("only administrators can update users")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	oldPayload, _ := json.Marshal(map[string]interface{}{"name": user.Name, "email": user.Email, "role": user.Role, "department_id": user.DepartmentID})
	oldRole, oldDept := user.Role, user.Identity().Department()

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.DepartmentID != nil {
		user.DepartmentID = nonEmpty(req.DepartmentID)
	}
	if req.JobTitle != nil {
		user.JobTitle = optionalString(*req.JobTitle)
	}
	if req.PhoneNumber != nil {
		if err := s.applyPhone(user, *req.PhoneNumber); err != nil {
			return nil, err
		}
	}
	if user.Role == models.RoleCitizen || user.Role == models.RoleAdmin {
		if req.DepartmentID == nil {
			user.DepartmentID = nil
		}
	}
	if err := s.checkDepartment(ctx, user); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, s.translateWrite(err, "failed to update user")
	}
	if req.Password != nil {
		if err := s.setPassword(user, *req.Password); err != nil {
			return nil, err
		}
		if err := s.updatePassword(ctx, user); err != nil {
			return nil, err
		}
	}

	if user.Role != oldRole || user.Identity().Department() != oldDept || req.Password != nil {
		s.revokeSessions(ctx, user.ID)
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"name": user.Name, "email": user.Email, "role": user.Role, "department_id": user.DepartmentID})
	s.audit(ctx, actor, models.AuditActionUserUpdate, user.ID, oldPayload, newPayload, meta)
	return user, nil
}

// Delete removes a user. Admins cannot delete themselves and users with requests are kept.
func (s *UserService) Delete(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) error {
	if !s.policy.CanManageCatalog(actor) {
		return forbidden("only administrators can delete users")
	}
	if id == actor.UserID {
		return forbidden("you cannot delete your own account")
	}
	return s.delete(ctx, actor, id, meta)
}

// ListOfficers returns the officers of the department head's own department.
func (s *UserService) ListOfficers(ctx context.Context, actor models.Identity, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	dept, err := s.headDepartment(actor)
	if err != nil {
		return nil, nil, err
	}
	role := models.RoleOfficer
	filter.Role = &role
	filter.DepartmentID = &dept
	return s.list(ctx, filter)
}

// CreateOfficer adds an officer to the department head's department.
func (s *UserService) CreateOfficer(ctx context.Context, actor models.Identity, req OfficerRequest, meta models.AuditMeta) (*models.User, error) {
	dept, err := s.headDepartment(actor)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid officer payload")
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password is required")
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Role:         models.RoleOfficer,
		DepartmentID: &dept,
		JobTitle:     optionalString(req.JobTitle),
	}
	if err := s.applyPhone(user, req.PhoneNumber); err != nil {
		return nil, err
	}
	if err := s.setPassword(user, req.Password); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, s.translateWrite(err, "failed to create officer")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"id": user.ID, "email": user.Email, "role": user.Role, "department_id": dept})
	s.audit(ctx, actor, models.AuditActionUserCreate, user.ID, nil, newPayload, meta)
	return user, nil
}

// UpdateOfficer edits an officer of the department head's department.
func (s *UserService) UpdateOfficer(ctx context.Context, actor models.Identity, id string, req OfficerRequest, meta models.AuditMeta) (*models.User, error) {
	if _, err := s.headDepartment(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid officer payload")
	}
	user, err := s.loadOfficer(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	oldPayload, _ := json.Marshal(map[string]interface{}{"name": user.Name, "email": user.Email})

	user.Name = strings.TrimSpace(req.Name)
	user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user.JobTitle = optionalString(req.JobTitle)
	if err := s.applyPhone(user, req.PhoneNumber); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, s.translateWrite(err, "failed to update officer")
	}
	if strings.TrimSpace(req.Password) != "" {
		if err := s.setPassword(user, req.Password); err != nil {
			return nil, err
		}
		if err := s.updatePassword(ctx, user); err != nil {
			return nil, err
		}
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"name": user.Name, "email": user.Email})
	s.audit(ctx, actor, models.AuditActionUserUpdate, user.ID, oldPayload, newPayload, meta)
	return user, nil
}

// DeleteOfficer removes an officer of the department head's department.
func (s *UserService) DeleteOfficer(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) error {
	if _, err := s.headDepartment(actor); err != nil {
		return err
	}
	if _, err := s.loadOfficer(ctx, actor, id); err != nil {
		return err
	}
	return s.delete(ctx, actor, id, meta)
}

// Profile returns the caller's own account.
func (s *UserService) Profile(ctx context.Context, actor models.Identity) (*models.User, error) {
	return s.load(ctx, actor.UserID)
}

// UpdateProfile applies the fields the caller's role may edit; other fields are ignored.
// Citizens edit national id, date of birth, phone and address; staff edit name, job title
// and phone; admins edit all of them.
func (s *UserService) UpdateProfile(ctx context.Context, actor models.Identity, req ProfileUpdateRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	user, err := s.load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	citizenFields := actor.Role == models.RoleCitizen || actor.Role == models.RoleAdmin
	staffFields := actor.Role.IsStaff() || actor.Role == models.RoleAdmin

	if staffFields {
		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.JobTitle != nil {
			user.JobTitle = optionalString(*req.JobTitle)
		}
	}
	if citizenFields {
		if req.NationalID != nil {
			user.NationalID = optionalString(*req.NationalID)
		}
		if req.Address != nil {
			user.Address = optionalString(*req.Address)
		}
		if req.DOB != nil {
			user.DOB = nil
			if value := strings.TrimSpace(*req.DOB); value != "" {
				parsed, err := time.Parse("2006-01-02", value)
				if err != nil {
					return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "dob must be YYYY-MM-DD")
				}
				user.DOB = &parsed
			}
		}
	}
	if req.PhoneNumber != nil {
		if err := s.applyPhone(user, *req.PhoneNumber); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, s.translateWrite(err, "failed to update profile")
	}
	return user, nil
}

func (s *UserService) list(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsMissing(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *UserService) loadOfficer(ctx context.Context, actor models.Identity, id string) (*models.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanManageOfficer(actor, user) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "officer not found")
	}
	return user, nil
}

func (s *UserService) headDepartment(actor models.Identity) (string, error) {
	if actor.Role != models.RoleDepartmentHead {
		return "", forbidden("only department heads can manage officers")
	}
	dept := actor.Department()
	if dept == "" {
		return "", forbidden("department head has no department")
	}
	return dept, nil
}

func (s *UserService) delete(ctx context.Context, actor models.Identity, id string, meta models.AuditMeta) error {
	result, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	switch result {
	case models.MutationNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	case models.MutationConflict:
		return appErrors.Clone(appErrors.ErrConflict, "user has service requests and cannot be deleted")
	}
	s.revokeSessions(ctx, id)
	s.audit(ctx, actor, models.AuditActionUserDelete, id, nil, nil, meta)
	return nil
}

// revokeSessions logs instead of failing: the account change is already committed.
func (s *UserService) revokeSessions(ctx context.Context, userID string) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke user sessions", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *UserService) checkDepartment(ctx context.Context, user *models.User) error {
	if !user.Role.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if !user.Role.IsStaff() {
		return nil
	}
	if user.DepartmentID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "department is required for officers and department heads")
	}
	if _, err := s.departments.FindByID(ctx, *user.DepartmentID); err != nil {
		if repository.IsMissing(err) {
			return appErrors.Clone(appErrors.ErrValidation, "department does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return nil
}

func (s *UserService) applyPhone(user *models.User, raw string) error {
	normalized, err := phone.Normalize(raw, s.defaultRegion)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid phone number")
	}
	user.PhoneNumber = optionalString(normalized)
	return nil
}

func (s *UserService) setPassword(user *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user.PasswordHash = string(hash)
	return nil
}

func (s *UserService) updatePassword(ctx context.Context, user *models.User) error {
	if err := s.repo.UpdatePassword(ctx, user.ID, user.PasswordHash, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

func (s *UserService) translateWrite(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, "email already exists")
	case repository.IsMissing(err):
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *UserService) audit(ctx context.Context, actor models.Identity, action, resourceID string, oldValues, newValues []byte, meta models.AuditMeta) {
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "users",
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}

func nonEmpty(value *string) *string {
	if value == nil {
		return nil
	}
	return optionalString(*value)
}
