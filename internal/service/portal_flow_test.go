package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

// notifyingRequestRepo writes the owner notification alongside a successful
// status change, the way the SQL repository does inside one transaction.
type notifyingRequestRepo struct {
	*mockRequestRepo
	inbox *mockNotificationRepo
}

func (r *notifyingRequestRepo) TransitionStatus(ctx context.Context, change models.StatusChange) (models.MutationResult, error) {
	result, err := r.mockRequestRepo.TransitionStatus(ctx, change)
	if err != nil || result != models.MutationOK {
		return result, err
	}
	r.inbox.items = append(r.inbox.items, models.Notification{
		ID:        "n-" + change.RequestID,
		UserID:    change.NotifyUserID,
		Message:   change.Message,
		CreatedAt: change.ChangedAt,
	})
	return result, nil
}

func TestCitizenApplicationApprovedEndToEnd(t *testing.T) {
	ctx := context.Background()

	users := &mockAuthRepo{}
	auth := newTestAuthService(users, &stubSessions{})
	jane, err := auth.Register(ctx, models.RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "secret1"}, models.AuditMeta{})
	require.NoError(t, err)
	users.userByEmail = users.created

	login, err := auth.Login(ctx, models.LoginRequest{Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotNil(t, login.Session)
	citizen := login.Session.Identity
	assert.Equal(t, jane.ID, citizen.UserID)
	assert.Equal(t, models.RoleCitizen, citizen.Role)

	f := newRequestFixture(t)
	inbox := &mockNotificationRepo{}
	f.svc.requests = &notifyingRequestRepo{mockRequestRepo: f.repo, inbox: inbox}

	created, err := f.svc.Create(ctx, citizen, CreateRequestInput{
		ServiceID: "svc-passport",
		Answers:   map[string]string{"full_name": "Jane", "passport_number": "P123"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, created.Status)
	assert.Equal(t, 50.0, created.Fee)
	assert.Equal(t, "dept-a", created.DepartmentID)

	// the fake insert does not keep rows
	stored := *created
	f.repo.requests[created.ID] = &stored

	approved, err := f.svc.Approve(ctx, testOfficer, created.ID, models.AuditMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	notifications := NewNotificationService(inbox, nil)
	items, err := notifications.List(ctx, citizen, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, strings.Contains(items[0].Message, "approved"), items[0].Message)
	assert.False(t, items[0].IsRead)

	officerItems, err := notifications.List(ctx, testOfficer, 0)
	require.NoError(t, err)
	assert.Empty(t, officerItems)
}
