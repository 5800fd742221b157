package repository

import (
	"context"
	"time"

	"github.com/JohannsenLum/chow/internal/domain"
)

// UserRepository defines the interface for user profile persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.UserProfile) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error)

	// UpdateProfile persists the mutable profile fields (display name, bio,
	// avatar URL) of an existing user.
	UpdateProfile(ctx context.Context, user *domain.UserProfile) error
}

// RefreshTokenRepository defines the interface for refresh token persistence operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token hash.
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// GetByHash retrieves a refresh token record by its hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// RevokeByUserID revokes all refresh tokens for the given user.
	RevokeByUserID(ctx context.Context, userID string) error

	// Revoke revokes a specific refresh token by its hash.
	Revoke(ctx context.Context, tokenHash string) error
}

// QuestRepository defines the interface for quest catalog and user quest
// persistence operations.
type QuestRepository interface {
	// ListActive returns the active quest catalog ordered by difficulty.
	ListActive(ctx context.Context) ([]domain.Quest, error)

	// GetByID retrieves a catalog quest by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Quest, error)

	// ListByUserID returns all of a user's quest rows with the catalog quest joined.
	ListByUserID(ctx context.Context, userID string) ([]domain.UserQuest, error)

	// Start records that the user started a quest. The write is idempotent:
	// an already-active row is left untouched and reported as started.
	Start(ctx context.Context, userID, questID string) (*domain.UserQuest, error)

	// Complete transitions an active quest row to completed. A row in any
	// other status is a conflict, never a silent no-op.
	Complete(ctx context.Context, userID, questID string) (*domain.UserQuest, error)

	// Claim atomically marks a completed quest row claimed and applies the
	// reward to the user's point totals in the same transaction. It returns
	// the updated profile row.
	Claim(ctx context.Context, userID, questID string, rewardExp, rewardPaw int) (*domain.UserProfile, error)

	// ResetDaily invokes the server-side reset routine, returning the user's
	// quest rows to the initial state.
	ResetDaily(ctx context.Context, userID string) error
}

// PetRepository defines the interface for pet persistence operations.
type PetRepository interface {
	// Create inserts a new pet into the store.
	Create(ctx context.Context, pet *domain.Pet) error

	// GetByID retrieves a pet by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Pet, error)

	// ListByOwnerID returns all pets for the given owner.
	ListByOwnerID(ctx context.Context, ownerID string) ([]domain.Pet, error)

	// Update modifies an existing pet in the store.
	Update(ctx context.Context, pet *domain.Pet) error

	// Delete removes a pet from the store by its identifier.
	Delete(ctx context.Context, id string) error
}
