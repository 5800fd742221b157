package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/pkg/database"
	apperrors "github.com/JohannsenLum/chow/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, username, password_hash, display_name, bio, avatar_url, exp_points, paw_points, level, created_at, updated_at`

// Create inserts a new user into the database. The single insert is both the
// auth identity and the profile, so a failed sign-up leaves nothing behind.
func (r *UserRepository) Create(ctx context.Context, u *domain.UserProfile) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, display_name, bio, avatar_url, exp_points, paw_points, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Email,
		u.Username,
		u.PasswordHash,
		u.DisplayName,
		u.Bio,
		u.AvatarURL,
		u.ExpPoints,
		u.PawPoints,
		u.Level,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "users_username_key") {
				return apperrors.AlreadyExists("user", "username", u.Username)
			}
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(ctx, query, email)
}

// UpdateProfile persists the mutable profile fields of an existing user.
// Point totals are only ever written by the claim transaction.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *domain.UserProfile) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET display_name = $1, bio = $2, avatar_url = $3, updated_at = $4
		WHERE id = $5`

	ct, err := r.db.Exec(ctx, query,
		u.DisplayName,
		u.Bio,
		u.AvatarURL,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.UserProfile, error) {
	var u domain.UserProfile

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.DisplayName,
		&u.Bio,
		&u.AvatarURL,
		&u.ExpPoints,
		&u.PawPoints,
		&u.Level,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

// --- Refresh Token Repository ---

// RefreshTokenRepository implements repository.RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepository struct {
	db database.DBTX
}

// NewRefreshTokenRepository creates a new PostgreSQL-backed refresh token repository.
func NewRefreshTokenRepository(db database.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create stores a new refresh token hash in the database.
func (r *RefreshTokenRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, userID, tokenHash, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetByHash retrieves a refresh token record by its hash.
func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	var rt domain.RefreshToken
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.TokenHash,
		&rt.ExpiresAt,
		&rt.CreatedAt,
		&rt.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	return &rt, nil
}

// RevokeByUserID revokes all refresh tokens for the given user.
func (r *RefreshTokenRepository) RevokeByUserID(ctx context.Context, userID string) error {
	query := `UPDATE refresh_tokens SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`

	_, err := r.db.Exec(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens by user: %w", err)
	}

	return nil
}

// Revoke revokes a specific refresh token by its hash.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	query := `UPDATE refresh_tokens SET revoked_at = $1 WHERE token_hash = $2 AND revoked_at IS NULL`

	_, err := r.db.Exec(ctx, query, time.Now().UTC(), tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation checks if the error is a PostgreSQL foreign key violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23503")
}
