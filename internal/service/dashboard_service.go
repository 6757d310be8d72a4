package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

type dashboardRequestReader interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error)
	CountByStatus(ctx context.Context, filter models.RequestFilter) (models.StatusCounts, error)
}

type unreadCounter interface {
	CountUnread(ctx context.Context, userID string) (int, error)
}

type officerLister interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type adminTotals interface {
	AdminTotals(ctx context.Context) (*models.AdminDashboard, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL     time.Duration
	RecentLimit  int
	OfficerLimit int
}

// DashboardService composes the per-role landing pages.
type DashboardService struct {
	requests      dashboardRequestReader
	notifications unreadCounter
	departments   departmentLookup
	users         officerLister
	totals        adminTotals
	cache         *CacheService
	logger        *zap.Logger
	cfg           DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Requests      dashboardRequestReader
	Notifications unreadCounter
	Departments   departmentLookup
	Users         officerLister
	Totals        adminTotals
	Cache         *CacheService
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if cfg.OfficerLimit <= 0 {
		cfg.OfficerLimit = 100
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		requests:      params.Requests,
		notifications: params.Notifications,
		departments:   params.Departments,
		users:         params.Users,
		totals:        params.Totals,
		cache:         params.Cache,
		logger:        logger,
		cfg:           cfg,
	}
}

// Citizen returns the caller's request counts, unread notifications and latest requests.
func (s *DashboardService) Citizen(ctx context.Context, actor models.Identity) (*models.CitizenDashboard, error) {
	if actor.Role != models.RoleCitizen {
		return nil, forbidden("citizen dashboard is for citizens")
	}
	filter := models.RequestFilter{CitizenID: actor.UserID}
	counts, err := s.requests.CountByStatus(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests")
	}
	recent, err := s.recent(ctx, filter)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return &models.CitizenDashboard{Requests: counts, UnreadNotifications: unread, RecentRequests: recent}, nil
}

// Department returns the statistics of the caller's department. Department heads
// also receive the officer roster.
func (s *DashboardService) Department(ctx context.Context, actor models.Identity) (*models.DepartmentDashboard, error) {
	if !actor.Role.IsStaff() {
		return nil, forbidden("department dashboard is for department staff")
	}
	deptID := actor.Department()
	if deptID == "" {
		return nil, forbidden("your account is not assigned to a department")
	}
	dept, err := s.departments.FindByID(ctx, deptID)
	if err != nil {
		if repository.IsMissing(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	filter := models.RequestFilter{DepartmentID: deptID}
	counts, err := s.requests.CountByStatus(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests")
	}
	recent, err := s.recent(ctx, filter)
	if err != nil {
		return nil, err
	}
	summary := &models.DepartmentDashboard{
		DepartmentID:   dept.ID,
		DepartmentName: dept.Name,
		Requests:       counts,
		RecentRequests: recent,
	}

	if actor.Role == models.RoleDepartmentHead && s.users != nil {
		role := models.RoleOfficer
		officers, _, err := s.users.List(ctx, models.UserFilter{Role: &role, DepartmentID: &deptID, PageSize: s.cfg.OfficerLimit, SortBy: "name", SortOrder: "asc"})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list officers")
		}
		summary.Officers = officers
	}
	return summary, nil
}

// Admin returns portal wide totals and indicates cache utilisation.
func (s *DashboardService) Admin(ctx context.Context, actor models.Identity) (*models.AdminDashboard, bool, error) {
	if actor.Role != models.RoleAdmin {
		return nil, false, forbidden("admin dashboard is for admins")
	}
	cacheKey := ReportKey("dashboard", "")
	if summary, hit := s.tryAdminCache(ctx, cacheKey); hit {
		return summary, true, nil
	}

	summary, err := s.totals.AdminTotals(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load portal totals")
	}
	recent, err := s.recent(ctx, models.RequestFilter{})
	if err != nil {
		return nil, false, err
	}
	summary.RecentRequests = recent
	s.persistCache(ctx, cacheKey, summary)
	return summary, false, nil
}

func (s *DashboardService) recent(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, error) {
	filter.Page = 1
	filter.PageSize = s.cfg.RecentLimit
	items, _, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent requests")
	}
	if items == nil {
		items = []models.RequestDetail{}
	}
	return items, nil
}

func (s *DashboardService) tryAdminCache(ctx context.Context, key string) (*models.AdminDashboard, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached models.AdminDashboard
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil || !hit {
		return nil, false
	}
	return &cached, true
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
