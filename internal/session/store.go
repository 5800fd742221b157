// Package session implements the Redis-backed persisted client state: the
// durable session copy restored at startup and the cached profile row.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JohannsenLum/chow/internal/domain"
	apperrors "github.com/JohannsenLum/chow/pkg/errors"
)

const (
	sessionKeyPrefix   = "chow:session:"
	userIndexKeyPrefix = "chow:user_sessions:"
)

// Store persists sessions in Redis keyed by device ID, so each device holds at
// most one session. A per-user index set supports revoking every device at once.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store. The TTL should match the refresh token
// lifetime: a persisted pair outliving its refresh token is dead weight.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func sessionKey(deviceID string) string {
	return sessionKeyPrefix + deviceID
}

func userIndexKey(userID string) string {
	return userIndexKeyPrefix + userID
}

// Save persists the session, replacing any previous session for the device.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sess.DeviceID), data, s.ttl)
	pipe.SAdd(ctx, userIndexKey(sess.UserID), sess.DeviceID)
	pipe.Expire(ctx, userIndexKey(sess.UserID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	return nil
}

// Get loads the persisted session for the device. A missing key maps to
// ErrNotFound so callers can distinguish "no session" from a store failure.
func (s *Store) Get(ctx context.Context, deviceID string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(deviceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &sess, nil
}

// Delete removes the persisted session for the device. Deleting an absent
// session is not an error.
func (s *Store) Delete(ctx context.Context, deviceID string) error {
	sess, err := s.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(deviceID))
	pipe.SRem(ctx, userIndexKey(sess.UserID), deviceID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// ListByUserID returns every persisted session for the user across all
// devices. Index entries whose session has already expired are skipped.
func (s *Store) ListByUserID(ctx context.Context, userID string) ([]domain.Session, error) {
	deviceIDs, err := s.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(deviceIDs))
	for _, deviceID := range deviceIDs {
		sess, err := s.Get(ctx, deviceID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, *sess)
	}

	return sessions, nil
}

// DeleteByUserID removes every persisted session for the user across all
// devices. Used when a revocation event arrives.
func (s *Store) DeleteByUserID(ctx context.Context, userID string) error {
	deviceIDs, err := s.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, deviceID := range deviceIDs {
		pipe.Del(ctx, sessionKey(deviceID))
	}
	pipe.Del(ctx, userIndexKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}

	return nil
}
