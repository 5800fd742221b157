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

const profileKeyPrefix = "chow:profile:"

// ProfileCache stores the last-known profile row wholesale in Redis. The
// cached row is tentative between an optimistic update and the next confirmed
// read or pushed event.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache creates a profile cache with the given entry TTL.
func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl}
}

func profileKey(userID string) string {
	return profileKeyPrefix + userID
}

// Get returns the cached profile, or ErrNotFound when no entry exists.
func (c *ProfileCache) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	data, err := c.client.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("load cached profile: %w", err)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal cached profile: %w", err)
	}

	return &profile, nil
}

// Set replaces the cached row wholesale.
func (c *ProfileCache) Set(ctx context.Context, profile *domain.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if err := c.client.Set(ctx, profileKey(profile.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache profile: %w", err)
	}

	return nil
}

// Delete invalidates the cached profile. Deleting an absent entry is not an error.
func (c *ProfileCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, profileKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached profile: %w", err)
	}
	return nil
}
