package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-portal-api/internal/models"
	"github.com/noah-isme/civic-portal-api/internal/repository"
	appErrors "github.com/noah-isme/civic-portal-api/pkg/errors"
)

// SessionStore persists sessions; Redis and Postgres implementations live in the repository package.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type expiringSessionStore interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionService issues and resolves server-side login sessions.
type SessionService struct {
	store  SessionStore
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionService constructs a session service over the configured store.
func NewSessionService(store SessionStore, ttl time.Duration, logger *zap.Logger) *SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{store: store, ttl: ttl, logger: logger, now: time.Now}
}

// TTL returns the session lifetime, used for the cookie max-age.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Create starts a session for identity.
func (s *SessionService) Create(ctx context.Context, identity models.Identity) (*models.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	session := &models.Session{ID: id, Identity: identity, ExpiresAt: s.now().UTC().Add(s.ttl)}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}
	return session, nil
}

// Resolve returns the identity of a live session.
func (s *SessionService) Resolve(ctx context.Context, id string) (*models.Identity, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session required")
	}
	session, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if !session.ExpiresAt.After(s.now().UTC()) {
		_ = s.store.Delete(ctx, id)
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
	}
	return &session.Identity, nil
}

// Destroy ends a session. Unknown ids are ignored.
func (s *SessionService) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to destroy session")
	}
	return nil
}

// RevokeUser ends every session of a user, e.g. after their role changes or the account is removed.
func (s *SessionService) RevokeUser(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	removed, err := s.store.DeleteByUser(ctx, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke sessions")
	}
	if removed > 0 {
		s.logger.Info("revoked user sessions", zap.String("user_id", userID), zap.Int64("count", removed))
	}
	return nil
}

// RunJanitor purges expired rows for stores that do not expire keys themselves.
// It returns immediately for stores with native TTLs.
func (s *SessionService) RunJanitor(ctx context.Context, interval time.Duration) {
	store, ok := s.store.(expiringSessionStore)
	if !ok {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.DeleteExpired(ctx)
			if err != nil {
				s.logger.Warn("failed to purge expired sessions", zap.Error(err))
				continue
			}
			if removed > 0 {
				s.logger.Debug("purged expired sessions", zap.Int64("count", removed))
			}
		}
	}
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
