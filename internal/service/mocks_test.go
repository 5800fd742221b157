package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/JohannsenLum/chow/internal/auth"
	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/internal/session"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.UserProfile) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.UserProfile) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Mock Refresh Token Repository ---

type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) RevokeByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

// --- Mock Quest Repository ---

type mockQuestRepository struct {
	mock.Mock
}

func (m *mockQuestRepository) ListActive(ctx context.Context) ([]domain.Quest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Quest), args.Error(1)
}

func (m *mockQuestRepository) GetByID(ctx context.Context, id string) (*domain.Quest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quest), args.Error(1)
}

func (m *mockQuestRepository) ListByUserID(ctx context.Context, userID string) ([]domain.UserQuest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserQuest), args.Error(1)
}

func (m *mockQuestRepository) Start(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	args := m.Called(ctx, userID, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserQuest), args.Error(1)
}

func (m *mockQuestRepository) Complete(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	args := m.Called(ctx, userID, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserQuest), args.Error(1)
}

func (m *mockQuestRepository) Claim(ctx context.Context, userID, questID string, rewardExp, rewardPaw int) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID, questID, rewardExp, rewardPaw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *mockQuestRepository) ResetDaily(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Publisher stub ---

// stubPublisher records published event names. Publishing is fire-and-forget
// in every service, so the stub never fails.
type stubPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *stubPublisher) record(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, name)
	return nil
}

func (p *stubPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *stubPublisher) PublishUserRegistered(_ context.Context, _ *domain.UserProfile) error {
	return p.record("user.registered")
}

func (p *stubPublisher) PublishProfileUpdated(_ context.Context, _ *domain.UserProfile) error {
	return p.record("profile.updated")
}

func (p *stubPublisher) PublishSessionRevoked(_ context.Context, _ string, _ time.Time) error {
	return p.record("session.revoked")
}

func (p *stubPublisher) PublishQuestStarted(_ context.Context, _, _ string) error {
	return p.record("quest.started")
}

func (p *stubPublisher) PublishQuestCompleted(_ context.Context, _, _ string) error {
	return p.record("quest.completed")
}

func (p *stubPublisher) PublishQuestClaimed(_ context.Context, _, _ string, _, _ int) error {
	return p.record("quest.claimed")
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-testing", 15*time.Minute, 7*24*time.Hour)
}

// newTestRedis starts a miniredis instance and returns a connected client.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func newTestSessionStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(newTestRedis(t), time.Hour)
}

func newTestProfileCache(t *testing.T) *session.ProfileCache {
	t.Helper()
	return session.NewProfileCache(newTestRedis(t), time.Hour)
}

func strPtr(s string) *string {
	return &s
}

// hashForTest creates a bcrypt hash with cost 4 for fast tests.
func hashForTest(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	if err != nil {
		panic(err)
	}
	return string(h)
}
