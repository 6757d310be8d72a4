package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-portal-api/internal/models"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

type mockNotificationRepo struct {
	items     []models.Notification
	lastLimit int
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	m.lastLimit = limit
	var out []models.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	count := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	var changed int64
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].IsRead {
			m.items[i].IsRead = true
			changed++
		}
	}
	return changed, nil
}

func TestNotificationServiceFeed(t *testing.T) {
	repo := &mockNotificationRepo{items: []models.Notification{
		{ID: "n1", UserID: "citizen-1", Message: "Your Passport Renewal request has been approved."},
		{ID: "n2", UserID: "citizen-1", Message: "Your Passport Renewal request is under review."},
		{ID: "n3", UserID: "citizen-2", Message: "other"},
	}}
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	items, err := svc.List(ctx, testCitizen, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, defaultNotificationLimit, repo.lastLimit)

	count, err := svc.UnreadCount(ctx, testCitizen)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	err = svc.MarkRead(ctx, testCitizen, "n3")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.items[2].IsRead)

	require.NoError(t, svc.MarkRead(ctx, testCitizen, "n1"))
	changed, err := svc.MarkAllRead(ctx, testCitizen)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	count, err = svc.UnreadCount(ctx, testCitizen)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNotificationServiceRequiresIdentity(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, nil)
	_, err := svc.List(context.Background(), models.Identity{}, 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
