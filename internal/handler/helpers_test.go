package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/models"
)

type responseEnvelope struct {
	Message    string                 `json:"message"`
	Data       json.RawMessage        `json:"data"`
	Meta       map[string]interface{} `json:"meta"`
	Pagination map[string]interface{} `json:"pagination"`
	Error      map[string]interface{} `json:"error"`
}

func strPtr(v string) *string { return &v }

var (
	citizen = models.Identity{UserID: "citizen-1", Name: "Cora", Role: models.RoleCitizen}
	officer = models.Identity{UserID: "officer-1", Name: "Omar", Role: models.RoleOfficer, DepartmentID: strPtr("dept-a")}
	admin   = models.Identity{UserID: "admin-1", Name: "Ada", Role: models.RoleAdmin}
	head    = models.Identity{UserID: "head-1", Name: "Hana", Role: models.RoleDepartmentHead, DepartmentID: strPtr("dept-a")}
)

// newJSONContext builds a test context for an API caller, optionally authenticated.
func newJSONContext(method, target string, body interface{}, identity *models.Identity) (*gin.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	c, w := newContext(method, target, reader, identity)
	c.Request.Header.Set("Accept", "application/json")
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c, w
}

// newFormContext builds a test context for a browser form post.
func newFormContext(method, target, form string, identity *models.Identity) (*gin.Context, *httptest.ResponseRecorder) {
	c, w := newContext(method, target, strings.NewReader(form), identity)
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c, w
}

func newContext(method, target string, body io.Reader, identity *models.Identity) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, body)
	if identity != nil {
		c.Set(middleware.ContextIdentityKey, *identity)
	}
	return c, w
}

func decodeEnvelope(w *httptest.ResponseRecorder) responseEnvelope {
	var env responseEnvelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return env
}
