package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

// ErrSessionNotFound is returned when a session is missing or expired.
var ErrSessionNotFound = errors.New("session not found")

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "session:user:"
)

// RedisSessionRepository keeps sessions in Redis with a TTL. Each user also has
// a set of their session ids so every session of a user can be revoked at once.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository constructs the Redis-backed session store.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

// Save stores the session until its expiry.
func (r *RedisSessionRepository) Save(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	index := userSessionKeyPrefix + session.Identity.UserID
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl)
	pipe.SAdd(ctx, index, session.ID)
	// sessions share one lifetime, so the newest session bounds the index
	pipe.Expire(ctx, index, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

// Find loads a live session.
func (r *RedisSessionRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis find session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes a session and its entry in the owner's index.
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	session, err := r.Find(ctx, id)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+id)
	if session != nil {
		pipe.SRem(ctx, userSessionKeyPrefix+session.Identity.UserID, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// DeleteByUser revokes every session of the user and returns how many were live.
func (r *RedisSessionRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	index := userSessionKeyPrefix + userID
	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list user sessions: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKeyPrefix+id)
	}
	var removed int64
	if len(keys) > 0 {
		if removed, err = r.client.Del(ctx, keys...).Result(); err != nil {
			return 0, fmt.Errorf("redis delete user sessions: %w", err)
		}
	}
	if err := r.client.Del(ctx, index).Err(); err != nil {
		return removed, fmt.Errorf("redis delete session index: %w", err)
	}
	return removed, nil
}

// PostgresSessionRepository keeps sessions in the sessions table.
type PostgresSessionRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresSessionRepository constructs the relational session store.
func NewPostgresSessionRepository(db *sqlx.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db, now: time.Now}
}

// Save upserts the session row.
func (r *PostgresSessionRepository) Save(ctx context.Context, session *models.Session) error {
	payload, err := json.Marshal(session.Identity)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	const query = `INSERT INTO sessions (id, user_id, payload, expires_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at`
	if _, err := r.db.ExecContext(ctx, query, session.ID, session.Identity.UserID, payload, session.ExpiresAt); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Find loads a session that has not expired.
func (r *PostgresSessionRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT payload, expires_at FROM sessions WHERE id = $1 AND expires_at > $2`
	var row struct {
		Payload   []byte    `db:"payload"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	if err := r.db.GetContext(ctx, &row, query, id, r.now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	session := &models.Session{ID: id, ExpiresAt: row.ExpiresAt}
	if err := json.Unmarshal(row.Payload, &session.Identity); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

// Delete removes a session row.
func (r *PostgresSessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUser removes every session row of the user.
func (r *PostgresSessionRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// DeleteExpired purges sessions past their expiry and returns how many were removed.
func (r *PostgresSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
