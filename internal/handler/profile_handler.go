package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/middleware"
	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/service"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

type profileService interface {
	Profile(ctx context.Context, actor models.Identity) (*models.User, error)
	UpdateProfile(ctx context.Context, actor models.Identity, req service.ProfileUpdateRequest) (*models.User, error)
}

type passwordChanger interface {
	ChangePassword(ctx context.Context, actor models.Identity, req models.ChangePasswordRequest, meta models.AuditMeta) error
}

const profilePath = "/profile"

// ProfileHandler serves self-service profile pages for every role.
type ProfileHandler struct {
	users     profileService
	passwords passwordChanger
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(users profileService, passwords passwordChanger) *ProfileHandler {
	return &ProfileHandler{users: users, passwords: passwords}
}

// Get godoc
// @Summary View own profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	user, err := h.users.Profile(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Update godoc
// @Summary Update own profile
// @Description Citizens may edit personal details, staff may edit name, job title and phone
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body service.ProfileUpdateRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req service.ProfileUpdateRequest
	if err := bindPayload(c, &req); err != nil {
		response.Fail(c, err, profilePath)
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), identity, req)
	if err != nil {
		response.Fail(c, err, profilePath)
		return
	}
	response.Respond(c, http.StatusOK, "Profile updated", user, profilePath)
}

// ChangePassword godoc
// @Summary Change password
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body models.ChangePasswordRequest true "Change password"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /profile/password [post]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if err := bindPayload(c, &req); err != nil {
		response.Fail(c, err, profilePath)
		return
	}
	if err := h.passwords.ChangePassword(c.Request.Context(), identity, req, middleware.AuditMeta(c)); err != nil {
		response.Fail(c, err, profilePath)
		return
	}
	response.Respond(c, http.StatusOK, "Password changed", nil, profilePath)
}
