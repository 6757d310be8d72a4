package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

type stubAudit struct {
	logs []*models.AuditLog
}

func (s *stubAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type mockDepartmentRepo struct {
	departments map[string]*models.Department
	guard       *models.DepartmentDeleteGuard
}

func (m *mockDepartmentRepo) List(ctx context.Context) ([]models.Department, error) {
	out := make([]models.Department, 0, len(m.departments))
	for _, d := range m.departments {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockDepartmentRepo) FindByID(ctx context.Context, id string) (*models.Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *d
	return &copied, nil
}

func (m *mockDepartmentRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for id, d := range m.departments {
		if id != excludeID && strings.EqualFold(d.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDepartmentRepo) Create(ctx context.Context, department *models.Department) error {
	department.ID = "dept-" + strings.ToLower(department.Name)
	m.departments[department.ID] = department
	return nil
}

func (m *mockDepartmentRepo) Update(ctx context.Context, department *models.Department) error {
	m.departments[department.ID] = department
	return nil
}

func (m *mockDepartmentRepo) Delete(ctx context.Context, id string) (*models.DepartmentDeleteGuard, error) {
	if _, ok := m.departments[id]; !ok {
		return &models.DepartmentDeleteGuard{Result: models.MutationNotFound}, nil
	}
	if m.guard != nil {
		return m.guard, nil
	}
	delete(m.departments, id)
	return &models.DepartmentDeleteGuard{Result: models.MutationOK}, nil
}

func TestDepartmentServiceCreateUniqueName(t *testing.T) {
	repo := &mockDepartmentRepo{departments: map[string]*models.Department{"d1": {ID: "d1", Name: "Passports"}}}
	audit := &stubAudit{}
	svc := NewDepartmentService(repo, audit, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), testAdmin, DepartmentRequest{Name: " passports "}, models.AuditMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	dept, err := svc.Create(context.Background(), testAdmin, DepartmentRequest{Name: "Licensing", Description: "Driver licences"}, models.AuditMeta{})
	require.NoError(t, err)
	assert.Equal(t, "Licensing", dept.Name)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionDepartmentCreate, audit.logs[0].Action)

	_, err = svc.Create(context.Background(), testHead, DepartmentRequest{Name: "Other"}, models.AuditMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDepartmentServiceUpdate(t *testing.T) {
	repo := &mockDepartmentRepo{departments: map[string]*models.Department{
		"d1": {ID: "d1", Name: "Passports"},
		"d2": {ID: "d2", Name: "Licensing"},
	}}
	svc := NewDepartmentService(repo, nil, nil, nil)

	_, err := svc.Update(context.Background(), testAdmin, "d2", DepartmentRequest{Name: "Passports"}, models.AuditMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(context.Background(), testAdmin, "d1", DepartmentRequest{Name: "Passports", Description: "Travel documents"}, models.AuditMeta{})
	require.NoError(t, err)
	assert.Equal(t, "Travel documents", updated.Description)

	_, err = svc.Update(context.Background(), testAdmin, "missing", DepartmentRequest{Name: "X"}, models.AuditMeta{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDepartmentServiceDeleteGuard(t *testing.T) {
	cases := []struct {
		name    string
		guard   *models.DepartmentDeleteGuard
		id      string
		code    string
		message string
	}{
		{name: "services and users", id: "d1", guard: &models.DepartmentDeleteGuard{Result: models.MutationConflict, ServiceCount: 2, UserCount: 1}, code: appErrors.ErrConflict.Code, message: "department still has 2 services and 1 users"},
		{name: "users only", id: "d1", guard: &models.DepartmentDeleteGuard{Result: models.MutationConflict, UserCount: 3}, code: appErrors.ErrConflict.Code, message: "department still has 3 users"},
		{name: "missing", id: "nope", code: appErrors.ErrNotFound.Code},
		{name: "ok", id: "d1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockDepartmentRepo{departments: map[string]*models.Department{"d1": {ID: "d1", Name: "Passports"}}, guard: tc.guard}
			svc := NewDepartmentService(repo, &stubAudit{}, nil, nil)

			err := svc.Delete(context.Background(), testAdmin, tc.id, models.AuditMeta{})
			if tc.code == "" {
				require.NoError(t, err)
				assert.Empty(t, repo.departments)
				return
			}
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, tc.code, appErr.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, appErr.Message)
				assert.Len(t, repo.departments, 1)
			}
		})
	}
}
