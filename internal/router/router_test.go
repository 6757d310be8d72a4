package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-portal-api/internal/handler"
	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/middleware/ratelimit"
)

type stubSessions struct{}

func (stubSessions) Resolve(_ context.Context, id string) (*models.Identity, error) {
	if id == "citizen" {
		return &models.Identity{UserID: "citizen-1", Role: models.RoleCitizen}, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type rejectingAuth struct{}

func (rejectingAuth) Register(context.Context, models.RegisterRequest, models.AuditMeta) (*models.User, error) {
	return nil, appErrors.ErrValidation
}

func (rejectingAuth) Login(context.Context, models.LoginRequest) (*models.LoginResponse, error) {
	return nil, appErrors.ErrInvalidCredentials
}

func (rejectingAuth) Logout(context.Context, models.Identity, string, models.AuditMeta) error {
	return nil
}

func (rejectingAuth) Me(_ context.Context, actor models.Identity) (*models.User, error) {
	return &models.User{ID: actor.UserID, Role: actor.Role}, nil
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := Handlers{
		Auth:          handler.NewAuthHandler(rejectingAuth{}, handler.CookieConfig{}),
		Profile:       handler.NewProfileHandler(nil, nil),
		Requests:      handler.NewRequestHandler(nil),
		Payments:      handler.NewPaymentHandler(nil),
		Documents:     handler.NewDocumentHandler(nil),
		Notifications: handler.NewNotificationHandler(nil),
		Dashboards:    handler.NewDashboardHandler(nil),
		Catalog:       handler.NewCatalogHandler(nil),
		Departments:   handler.NewDepartmentHandler(nil),
		Users:         handler.NewUserHandler(nil),
		Reports:       handler.NewReportHandler(nil, nil),
		Metrics:       handler.NewMetricsHandler(nil, nil),
	}
	return New(h, Options{
		Auth:        middleware.NewAuthenticator(stubSessions{}, nil, "portal_session"),
		AuthLimiter: ratelimit.New(60, 2),
	})
}

func TestRouteTable(t *testing.T) {
	r := newTestEngine()
	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"POST /auth/register", "POST /auth/login", "POST /auth/logout", "GET /auth/logout", "GET /auth/me",
		"GET /profile", "PUT /profile", "POST /profile/password",
		"POST /requests", "GET /requests", "GET /requests/:id", "PUT /requests/:id/status", "POST /requests/:id/pay",
		"GET /requests/:id/documents", "POST /requests/:id/documents",
		"GET /requests/:id/documents/:documentId/link", "GET /requests/:id/documents/:documentId/download",
		"GET /payments", "POST /payments/:requestId",
		"GET /notifications", "GET /notifications/unread-count", "PUT /notifications/:id/read", "PUT /notifications/read-all",
		"GET /citizen/dashboard", "GET /citizen/services", "POST /citizen/apply", "GET /citizen/track",
		"GET /officer/dashboard", "GET /officer/requests", "GET /officer/requests/:id",
		"POST /officer/requests/:id/status", "POST /officer/requests/:id/approve", "POST /officer/requests/:id/reject",
		"GET /dept-head/dashboard", "GET /dept-head/officers", "POST /dept-head/officers",
		"PUT /dept-head/officers/:id", "DELETE /dept-head/officers/:id", "GET /dept-head/reports",
		"GET /admin/dashboard", "GET /admin/users", "POST /admin/users", "PUT /admin/users/:id", "DELETE /admin/users/:id",
		"GET /admin/departments", "POST /admin/departments", "PUT /admin/departments/:id", "DELETE /admin/departments/:id",
		"GET /admin/services", "POST /admin/services", "PUT /admin/services/:id", "DELETE /admin/services/:id",
		"GET /admin/reports", "GET /admin/reports/export",
		"GET /reports/department-requests", "GET /reports/payment-summary",
		"GET /health", "GET /ready", "GET /metrics",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.False(t, registered["GET /docs/*any"])
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	r := newTestEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/citizen/dashboard", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	req.Header.Set("Accept", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRoleAreasAreSeparated(t *testing.T) {
	r := newTestEngine()

	for _, path := range []string{"/admin/dashboard", "/officer/requests", "/dept-head/officers", "/reports/payment-summary"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept", "application/json")
		req.AddCookie(&http.Cookie{Name: "portal_session", Value: "citizen"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	r := newTestEngine()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@example.com","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	require.Len(t, codes, 3)
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestHealth(t *testing.T) {
	r := newTestEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
