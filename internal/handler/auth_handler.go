package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest, meta models.AuditMeta) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, actor models.Identity, sessionID string, meta models.AuditMeta) error
	Me(ctx context.Context, actor models.Identity) (*models.User, error)
}

// CookieConfig controls the session cookie written at login.
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookie  CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "portal_session"
	}
	return &AuthHandler{service: svc, cookie: cookie}
}

// Register godoc
// @Summary Register citizen
// @Description Create a citizen account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := bindPayload(c, &req); err != nil {
		response.Fail(c, err, "/register")
		return
	}

	user, err := h.service.Register(c.Request.Context(), req, middleware.AuditMeta(c))
	if err != nil {
		response.Fail(c, err, "/register")
		return
	}

	response.Respond(c, http.StatusCreated, "Registration successful. Please log in.", user, middleware.LoginPath)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by email and password; sets the session cookie and returns a bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := bindPayload(c, &req); err != nil {
		response.Fail(c, err, middleware.LoginPath)
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err, middleware.LoginPath)
		return
	}

	if res.Session != nil {
		maxAge := int(time.Until(res.Session.ExpiresAt).Seconds())
		if maxAge <= 0 {
			maxAge = int(h.cookie.TTL.Seconds())
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookie.Name, res.Session.ID, maxAge, "/", "", h.cookie.Secure, true)
	}

	if response.WantsJSON(c) {
		response.JSON(c, http.StatusOK, res, nil)
		return
	}
	response.Redirect(c, res.Redirect, "", "")
}

// Logout godoc
// @Summary Logout current session
// @Description Destroys the session and clears the cookie. GET is accepted for browser links.
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, _ := middleware.IdentityFromContext(c)
	sessionID := middleware.SessionIDFromContext(c)
	if sessionID == "" {
		sessionID, _ = c.Cookie(h.cookie.Name)
	}

	if err := h.service.Logout(c.Request.Context(), identity, sessionID, middleware.AuditMeta(c)); err != nil {
		response.Fail(c, err, middleware.LoginPath)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	response.Respond(c, http.StatusOK, "Logged out", nil, middleware.LoginPath)
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.Me(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
