package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

type stubTotals struct {
	calls int
}

func (s *stubTotals) AdminTotals(ctx context.Context) (*models.AdminDashboard, error) {
	s.calls++
	return &models.AdminDashboard{TotalUsers: 4, TotalRequests: 2, PendingRequests: 1, TotalDepartments: 2, TotalRevenue: 50}, nil
}

func newDashboardFixture() (*DashboardService, *mockRequestRepo, *stubTotals, *CacheService) {
	requests := &mockRequestRepo{requests: map[string]*models.RequestDetail{
		"r1": {Request: models.Request{ID: "r1", CitizenID: "citizen-1", Status: models.StatusSubmitted}, DepartmentID: "dept-a"},
		"r2": {Request: models.Request{ID: "r2", CitizenID: "citizen-2", Status: models.StatusApproved}, DepartmentID: "dept-b"},
	}}
	notifications := &mockNotificationRepo{items: []models.Notification{{ID: "n1", UserID: "citizen-1"}}}
	users := newMockUserRepo(
		&models.User{ID: "o1", Role: models.RoleOfficer, DepartmentID: strPtr("dept-a")},
		&models.User{ID: "o2", Role: models.RoleOfficer, DepartmentID: strPtr("dept-b")},
	)
	totals := &stubTotals{}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(DashboardServiceParams{
		Requests:      requests,
		Notifications: notifications,
		Departments:   stubDepartments{"dept-a": {ID: "dept-a", Name: "Passports"}},
		Users:         users,
		Totals:        totals,
		Cache:         cache,
	})
	return svc, requests, totals, cache
}

func TestDashboardServiceCitizen(t *testing.T) {
	svc, requests, _, _ := newDashboardFixture()

	summary, err := svc.Citizen(context.Background(), testCitizen)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UnreadNotifications)
	require.Len(t, summary.RecentRequests, 1)
	assert.Equal(t, "r1", summary.RecentRequests[0].ID)
	assert.Equal(t, 5, requests.lastFilter.PageSize)

	_, err = svc.Citizen(context.Background(), testOfficer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDashboardServiceDepartment(t *testing.T) {
	svc, _, _, _ := newDashboardFixture()

	officerView, err := svc.Department(context.Background(), testOfficer)
	require.NoError(t, err)
	assert.Equal(t, "Passports", officerView.DepartmentName)
	assert.Nil(t, officerView.Officers)
	require.Len(t, officerView.RecentRequests, 1)

	headView, err := svc.Department(context.Background(), testHead)
	require.NoError(t, err)
	require.Len(t, headView.Officers, 1)
	assert.Equal(t, "o1", headView.Officers[0].ID)
}

func TestDashboardServiceAdminUsesCache(t *testing.T) {
	svc, _, totals, cache := newDashboardFixture()
	ctx := context.Background()

	summary, hit, err := svc.Admin(ctx, testAdmin)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 50.0, summary.TotalRevenue)
	assert.Len(t, summary.RecentRequests, 2)

	_, hit, err = svc.Admin(ctx, testAdmin)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, totals.calls)

	cache.InvalidateReports(ctx)
	_, hit, err = svc.Admin(ctx, testAdmin)
	require.NoError(t, err)
	assert.False(t, hit)

	_, _, err = svc.Admin(ctx, testHead)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
