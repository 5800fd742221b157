package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/internal/repository"
	apperrors "github.com/JohannsenLum/chow/pkg/errors"
)

// ProfileService reads and writes user profiles. The cache in front of
// Postgres holds the last-known row per user; reads serve from it when the
// database is unreachable, so callers see stale data rather than errors.
type ProfileService struct {
	userRepo repository.UserRepository
	cache    ProfileCache
	producer EventPublisher
	logger   *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(
	userRepo repository.UserRepository,
	cache ProfileCache,
	producer EventPublisher,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		userRepo: userRepo,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// UpdateProfileInput holds the editable profile fields. A nil field is left
// unchanged.
type UpdateProfileInput struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

// Load fetches the user's profile from the database and caches it. When the
// database is unavailable it falls back to the last cached row; if neither is
// reachable it returns (nil, nil) so the caller can degrade instead of fail.
func (s *ProfileService) Load(ctx context.Context, userID string) (*domain.UserProfile, error) {
	profile, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load profile from database",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)

		cached, cacheErr := s.cache.Get(ctx, userID)
		if cacheErr != nil {
			return nil, nil
		}
		return cached, nil
	}

	if err := s.cache.Set(ctx, profile); err != nil {
		s.logger.ErrorContext(ctx, "failed to cache profile",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	return profile, nil
}

// Refresh invalidates the cached row and re-reads from the database. This is
// the read to use after a write whose result the caller must observe, such as
// a claimed reward.
func (s *ProfileService) Refresh(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to invalidate cached profile",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	return s.Load(ctx, userID)
}

// Get returns the profile for the user, preferring the cache. A cache miss
// falls through to Load.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	cached, err := s.cache.Get(ctx, userID)
	if err == nil {
		return cached, nil
	}

	return s.Load(ctx, userID)
}

// Update merges the given fields into the cached row only. It is the
// optimistic half of an edit; persisting is the caller's Save. With no cached
// row there is nothing to merge, which is not an error.
func (s *ProfileService) Update(ctx context.Context, userID string, input UpdateProfileInput) error {
	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		return nil
	}

	if input.DisplayName != nil {
		cached.DisplayName = *input.DisplayName
	}
	if input.Bio != nil {
		cached.Bio = input.Bio
	}
	if input.AvatarURL != nil {
		cached.AvatarURL = input.AvatarURL
	}

	if err := s.cache.Set(ctx, cached); err != nil {
		return fmt.Errorf("merge cached profile: %w", err)
	}

	return nil
}

// Save persists the editable profile fields, updates the cache, and publishes
// the new row. Point totals and level are never written here; those belong to
// the reward claim path.
func (s *ProfileService) Save(ctx context.Context, userID string, input UpdateProfileInput) (*domain.UserProfile, error) {
	profile, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.DisplayName != nil {
		if *input.DisplayName == "" {
			return nil, apperrors.InvalidInput("display name cannot be empty")
		}
		profile.DisplayName = *input.DisplayName
	}
	if input.Bio != nil {
		profile.Bio = input.Bio
	}
	if input.AvatarURL != nil {
		profile.AvatarURL = input.AvatarURL
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if err := s.cache.Set(ctx, profile); err != nil {
		s.logger.ErrorContext(ctx, "failed to cache updated profile",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishProfileUpdated(ctx, profile); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish profile.updated event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", userID))

	return profile, nil
}

// ApplyPush replaces the cached row with a profile received from a
// profile.updated event. The event carries the full row, so the cache is
// overwritten wholesale rather than merged.
func (s *ProfileService) ApplyPush(ctx context.Context, profile *domain.UserProfile) error {
	if err := s.cache.Set(ctx, profile); err != nil {
		return fmt.Errorf("apply pushed profile: %w", err)
	}

	s.logger.DebugContext(ctx, "applied pushed profile update",
		slog.String("user_id", profile.ID),
	)

	return nil
}
