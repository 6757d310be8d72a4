package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

type fakeNotificationSrv struct {
	lastLimit int
	read      []string
}

func (f *fakeNotificationSrv) List(_ context.Context, _ models.Identity, limit int) ([]models.Notification, error) {
	f.lastLimit = limit
	return []models.Notification{{ID: "n-1", Message: "Your request has been approved."}}, nil
}

func (f *fakeNotificationSrv) UnreadCount(context.Context, models.Identity) (int, error) {
	return 3, nil
}

func (f *fakeNotificationSrv) MarkRead(_ context.Context, _ models.Identity, id string) error {
	if id != "n-1" {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	f.read = append(f.read, id)
	return nil
}

func (f *fakeNotificationSrv) MarkAllRead(context.Context, models.Identity) (int64, error) {
	return 2, nil
}

func TestNotificationHandlerListAndCount(t *testing.T) {
	srv := &fakeNotificationSrv{}
	h := NewNotificationHandler(srv)

	c, w := newJSONContext(http.MethodGet, "/notifications?limit=5", nil, &citizen)
	h.List(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, srv.lastLimit)
	assert.Contains(t, string(decodeEnvelope(w).Data), "approved")

	c, w = newJSONContext(http.MethodGet, "/notifications/unread-count", nil, &citizen)
	h.UnreadCount(c)
	assert.JSONEq(t, `{"unread":3}`, string(decodeEnvelope(w).Data))
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	srv := &fakeNotificationSrv{}
	h := NewNotificationHandler(srv)

	c, w := newJSONContext(http.MethodPut, "/notifications/n-1/read", nil, &citizen)
	c.Params = gin.Params{{Key: "id", Value: "n-1"}}
	h.MarkRead(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"n-1"}, srv.read)

	c, w = newJSONContext(http.MethodPut, "/notifications/n-9/read", nil, &citizen)
	c.Params = gin.Params{{Key: "id", Value: "n-9"}}
	h.MarkRead(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationHandlerMarkAllReadRedirectsBrowser(t *testing.T) {
	h := NewNotificationHandler(&fakeNotificationSrv{})

	c, w := newFormContext(http.MethodPost, "/notifications/read-all", "redirect=/citizen/dashboard", &citizen)
	h.MarkAllRead(c)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/citizen/dashboard?success="))

	c, w = newJSONContext(http.MethodPut, "/notifications/read-all", nil, &citizen)
	h.MarkAllRead(c)
	assert.JSONEq(t, `{"updated":2}`, string(decodeEnvelope(w).Data))
}
