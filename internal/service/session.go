package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/JohannsenLum/chow/internal/auth"
	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/internal/repository"
	apperrors "github.com/JohannsenLum/chow/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// SessionService implements the session lifecycle: sign-up, sign-in,
// sign-out, startup restore, and token rotation. The persisted copy in the
// session store is what survives an app restart.
type SessionService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	store            SessionStore
	jwtManager       *auth.JWTManager
	producer         EventPublisher
	logger           *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	store SessionStore,
	jwtManager *auth.JWTManager,
	producer EventPublisher,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		store:            store,
		jwtManager:       jwtManager,
		producer:         producer,
		logger:           logger,
	}
}

// SignUpInput holds the parameters for registering a new user.
type SignUpInput struct {
	Email       string
	Password    string
	Username    string
	DisplayName string
	DeviceID    string
}

// SignInInput holds the parameters for signing in.
type SignInInput struct {
	Email    string
	Password string
	DeviceID string
}

// SignUp registers a new user and signs them in. The users row is created
// with a single insert, so a failed sign-up never leaves a partial profile.
// New users start at zero points, level 1.
func (s *SessionService) SignUp(ctx context.Context, input SignUpInput) (*domain.UserProfile, *domain.Session, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Username == "" {
		return nil, nil, apperrors.InvalidInput("username is required")
	}
	if input.DisplayName == "" {
		return nil, nil, apperrors.InvalidInput("display name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.UserProfile{
		ID:           uuid.New().String(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
		DisplayName:  input.DisplayName,
		ExpPoints:    0,
		PawPoints:    0,
		Level:        1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Duplicate email or username surfaces verbatim to the caller.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.establishSession(ctx, user, input.DeviceID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user signed up",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, session, nil
}

// SignIn authenticates a user with email and password. Invalid credentials
// are indistinguishable from an unknown email.
func (s *SessionService) SignIn(ctx context.Context, input SignInInput) (*domain.UserProfile, *domain.Session, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	session, err := s.establishSession(ctx, user, input.DeviceID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user signed in",
		slog.String("user_id", user.ID),
		slog.String("device_id", input.DeviceID),
	)

	return user, session, nil
}

// SignOut revokes every refresh token for the user and deletes all persisted
// sessions. Signing out twice is a no-op, not an error.
func (s *SessionService) SignOut(ctx context.Context, userID string) error {
	if err := s.refreshTokenRepo.RevokeByUserID(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	if err := s.store.DeleteByUserID(ctx, userID); err != nil {
		// The tokens are already revoked remotely; a stale persisted copy
		// will fail Restore and be discarded there.
		s.logger.ErrorContext(ctx, "failed to delete persisted sessions",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	revokedAt := time.Now().UTC()
	if err := s.producer.PublishSessionRevoked(ctx, userID, revokedAt); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.revoked event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user signed out", slog.String("user_id", userID))

	return nil
}

// Restore implements the startup protocol: load the persisted session for the
// device, validate it, and revalidate remotely via token rotation when the
// access token has expired. Any validation failure discards the persisted
// copy; the caller only ever sees a working session or Unauthorized. There is
// no session until Restore returns.
func (s *SessionService) Restore(ctx context.Context, deviceID string) (*domain.Session, error) {
	if deviceID == "" {
		return nil, apperrors.InvalidInput("device id is required")
	}

	sess, err := s.store.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("no persisted session")
		}
		return nil, fmt.Errorf("load persisted session: %w", err)
	}

	// Still-valid access token: the persisted session is usable as-is.
	if _, err := s.jwtManager.ValidateAccessToken(sess.Tokens.AccessToken); err == nil {
		return sess, nil
	}

	// Expired or damaged access token: revalidate remotely by rotating the
	// refresh token.
	refreshed, err := s.Refresh(ctx, sess.Tokens.RefreshToken, deviceID)
	if err != nil {
		if delErr := s.store.Delete(ctx, deviceID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to discard invalid persisted session",
				slog.String("device_id", deviceID),
				slog.String("error", delErr.Error()),
			)
		}
		s.logger.InfoContext(ctx, "persisted session rejected on restore",
			slog.String("device_id", deviceID),
			slog.String("user_id", sess.UserID),
		)
		return nil, apperrors.Unauthorized("persisted session is no longer valid")
	}

	return refreshed, nil
}

// Refresh validates a refresh token and rotates the pair: the old token is
// revoked and a new session is issued and persisted for the device.
func (s *SessionService) Refresh(ctx context.Context, refreshToken, deviceID string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	tokenHash := hashToken(refreshToken)
	storedToken, err := s.refreshTokenRepo.GetByHash(ctx, tokenHash)
	if err != nil {
		return nil, apperrors.Unauthorized("refresh token not found")
	}

	if storedToken.RevokedAt != nil {
		return nil, apperrors.Unauthorized("refresh token has been revoked")
	}

	if time.Now().UTC().After(storedToken.ExpiresAt) {
		return nil, apperrors.Unauthorized("refresh token has expired")
	}

	if err := s.refreshTokenRepo.Revoke(ctx, tokenHash); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke old refresh token",
			slog.String("user_id", claims.UserID),
			slog.String("error", err.Error()),
		)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user for token refresh: %w", err)
	}

	session, err := s.establishSession(ctx, user, deviceID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "session refreshed",
		slog.String("user_id", user.ID),
		slog.String("device_id", deviceID),
	)

	return session, nil
}

// ApplyRevocation applies a session.revoked event to the local store. A
// session issued after the revocation is left alone: a replayed or bootstrap
// event must never clear a session that was just established.
func (s *SessionService) ApplyRevocation(ctx context.Context, userID string, revokedAt time.Time) error {
	sessions, err := s.store.ListByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("list sessions for revocation: %w", err)
	}

	for _, sess := range sessions {
		if sess.IssuedAt.After(revokedAt) {
			s.logger.DebugContext(ctx, "ignoring stale revocation for newer session",
				slog.String("user_id", userID),
				slog.String("device_id", sess.DeviceID),
			)
			continue
		}
		if err := s.store.Delete(ctx, sess.DeviceID); err != nil {
			return fmt.Errorf("delete revoked session: %w", err)
		}
	}

	return nil
}

// establishSession issues a token pair, stores the refresh token hash, and
// persists the session for the device.
func (s *SessionService) establishSession(ctx context.Context, user *domain.UserProfile, deviceID string) (*domain.Session, error) {
	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	session := &domain.Session{
		UserID:   user.ID,
		DeviceID: deviceID,
		Tokens:   *tokens,
		IssuedAt: time.Now().UTC(),
	}

	if deviceID != "" {
		if err := s.store.Save(ctx, session); err != nil {
			// The session itself is valid; only its durable copy is missing.
			s.logger.ErrorContext(ctx, "failed to persist session",
				slog.String("user_id", user.ID),
				slog.String("device_id", deviceID),
				slog.String("error", err.Error()),
			)
		}
	}

	return session, nil
}

// generateTokenPair creates an access/refresh token pair and stores the refresh token hash.
func (s *SessionService) generateTokenPair(ctx context.Context, user *domain.UserProfile) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	tokenHash := hashToken(refreshToken)
	refreshClaims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("validate refresh token for expiry: %w", err)
	}

	if err := s.refreshTokenRepo.Create(ctx, user.ID, tokenHash, refreshClaims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// hashToken returns the SHA256 hex digest of the given token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
