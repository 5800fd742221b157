package service

import (
	"context"
	"time"

	"github.com/JohannsenLum/chow/internal/domain"
)

// SessionStore is the persisted session storage, keyed by device ID.
// Implemented by session.Store on Redis.
type SessionStore interface {
	// Save persists the session, replacing any previous one for the device.
	Save(ctx context.Context, sess *domain.Session) error

	// Get loads the persisted session for the device, or ErrNotFound.
	Get(ctx context.Context, deviceID string) (*domain.Session, error)

	// Delete removes the persisted session for the device. Idempotent.
	Delete(ctx context.Context, deviceID string) error

	// ListByUserID returns every persisted session for the user.
	ListByUserID(ctx context.Context, userID string) ([]domain.Session, error)

	// DeleteByUserID removes every persisted session for the user.
	DeleteByUserID(ctx context.Context, userID string) error
}

// ProfileCache is the last-known profile storage. Implemented by
// session.ProfileCache on Redis.
type ProfileCache interface {
	// Get returns the cached profile, or ErrNotFound.
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)

	// Set replaces the cached row wholesale.
	Set(ctx context.Context, profile *domain.UserProfile) error

	// Delete invalidates the cached profile. Idempotent.
	Delete(ctx context.Context, userID string) error
}

// EventPublisher publishes domain events. Implemented by event.Producer.
// Publish failures never fail the operation that triggered them; callers log
// and continue.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.UserProfile) error
	PublishProfileUpdated(ctx context.Context, profile *domain.UserProfile) error
	PublishSessionRevoked(ctx context.Context, userID string, revokedAt time.Time) error
	PublishQuestStarted(ctx context.Context, userID, questID string) error
	PublishQuestCompleted(ctx context.Context, userID, questID string) error
	PublishQuestClaimed(ctx context.Context, userID, questID string, rewardExp, rewardPaw int) error
}
