package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	purged   int
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]*models.Session{}}
}

func (m *memorySessionStore) Save(ctx context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *memorySessionStore) Find(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return session, nil
}

func (m *memorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memorySessionStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, session := range m.sessions {
		if session.Identity.UserID == userID {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

type expiringMemoryStore struct {
	*memorySessionStore
}

func (m expiringMemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purged++
	return 0, nil
}

func TestSessionServiceCreateAndResolve(t *testing.T) {
	store := newMemorySessionStore()
	svc := NewSessionService(store, time.Hour, zap.NewNop())

	session, err := svc.Create(context.Background(), models.Identity{UserID: "u1", Role: models.RoleCitizen})
	require.NoError(t, err)
	assert.Len(t, session.ID, 43)

	identity, err := svc.Resolve(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.UserID)

	require.NoError(t, svc.Destroy(context.Background(), session.ID))
	_, err = svc.Resolve(context.Background(), session.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceResolveExpired(t *testing.T) {
	store := newMemorySessionStore()
	svc := NewSessionService(store, time.Minute, zap.NewNop())
	session, err := svc.Create(context.Background(), models.Identity{UserID: "u1"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Resolve(context.Background(), session.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, findErr := store.Find(context.Background(), session.ID)
	assert.ErrorIs(t, findErr, repository.ErrSessionNotFound)
}

func TestSessionServiceJanitorOnlyForExpiringStores(t *testing.T) {
	svc := NewSessionService(newMemorySessionStore(), time.Hour, zap.NewNop())
	done := make(chan struct{})
	go func() {
		svc.RunJanitor(context.Background(), time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor should return for stores without DeleteExpired")
	}

	store := expiringMemoryStore{newMemorySessionStore()}
	svc = NewSessionService(store, time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go svc.RunJanitor(ctx, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.purged > 0
	}, time.Second, 5*time.Millisecond)
	cancel()
}

func TestSessionServiceRevokeUser(t *testing.T) {
	store := newMemorySessionStore()
	svc := NewSessionService(store, time.Hour, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Create(ctx, models.Identity{UserID: "u1", Role: models.RoleOfficer})
	require.NoError(t, err)
	second, err := svc.Create(ctx, models.Identity{UserID: "u1", Role: models.RoleOfficer})
	require.NoError(t, err)
	other, err := svc.Create(ctx, models.Identity{UserID: "u2", Role: models.RoleCitizen})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeUser(ctx, "u1"))

	for _, id := range []string{first.ID, second.ID} {
		_, err = svc.Resolve(ctx, id)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	}
	identity, err := svc.Resolve(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "u2", identity.UserID)

	assert.NoError(t, svc.RevokeUser(ctx, ""))
}
