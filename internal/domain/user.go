package domain

import (
	"time"
)

// UserProfile represents a registered pet owner. The row doubles as the auth
// identity and the public profile, so a failed sign-up can never leave a
// profile behind.
type UserProfile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Bio          *string   `json:"bio,omitempty"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	ExpPoints    int       `json:"exp_points"`
	PawPoints    int       `json:"paw_points"`
	Level        int       `json:"level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// expPerLevel is the experience required to advance one level.
const expPerLevel = 100

// LevelForExp returns the level corresponding to a total experience count.
// Levels start at 1 and advance every expPerLevel points.
func LevelForExp(exp int) int {
	if exp < 0 {
		return 1
	}
	return exp/expPerLevel + 1
}

// RefreshToken represents a stored refresh token for a user session.
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session is an authenticated session: the token pair plus the identity it
// belongs to. DeviceID keys the persisted copy, so each device holds at most
// one session. IssuedAt orders the session against revocation events.
type Session struct {
	UserID   string    `json:"user_id"`
	DeviceID string    `json:"device_id"`
	Tokens   TokenPair `json:"tokens"`
	IssuedAt time.Time `json:"issued_at"`
}
