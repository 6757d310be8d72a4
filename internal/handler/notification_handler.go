package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/pkg/response"
)

const citizenNotificationsPath = "/citizen/notifications"

type notificationService interface {
	List(ctx context.Context, actor models.Identity, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, actor models.Identity) (int, error)
	MarkRead(ctx context.Context, actor models.Identity, id string) error
	MarkAllRead(ctx context.Context, actor models.Identity) (int64, error)
}

// NotificationHandler serves the caller's notification feed.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// List godoc
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.service.List(c.Request.Context(), identity, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// UnreadCount godoc
// @Summary Count unread notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unread": count}, nil)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	location := backTo(c, citizenNotificationsPath)
	if err := h.service.MarkRead(c.Request.Context(), identity, c.Param("id")); err != nil {
		response.Fail(c, err, location)
		return
	}
	response.Respond(c, http.StatusOK, "Notification marked as read", nil, location)
}

// MarkAllRead godoc
// @Summary Mark every notification read
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	location := backTo(c, citizenNotificationsPath)
	updated, err := h.service.MarkAllRead(c.Request.Context(), identity)
	if err != nil {
		response.Fail(c, err, location)
		return
	}
	response.Respond(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated}, location)
}
