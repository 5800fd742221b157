package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JohannsenLum/chow/internal/auth"
	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/internal/service"
	"github.com/JohannsenLum/chow/internal/session"
	"github.com/JohannsenLum/chow/pkg/middleware"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.UserProfile) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *domain.UserProfile) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockRefreshTokenRepo struct {
	mock.Mock
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepo) RevokeByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

type mockQuestRepo struct {
	mock.Mock
}

func (m *mockQuestRepo) ListActive(ctx context.Context) ([]domain.Quest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Quest), args.Error(1)
}

func (m *mockQuestRepo) GetByID(ctx context.Context, id string) (*domain.Quest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quest), args.Error(1)
}

func (m *mockQuestRepo) ListByUserID(ctx context.Context, userID string) ([]domain.UserQuest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserQuest), args.Error(1)
}

func (m *mockQuestRepo) Start(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	args := m.Called(ctx, userID, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserQuest), args.Error(1)
}

func (m *mockQuestRepo) Complete(ctx context.Context, userID, questID string) (*domain.UserQuest, error) {
	args := m.Called(ctx, userID, questID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserQuest), args.Error(1)
}

func (m *mockQuestRepo) Claim(ctx context.Context, userID, questID string, rewardExp, rewardPaw int) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID, questID, rewardExp, rewardPaw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *mockQuestRepo) ResetDaily(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockPetRepo struct {
	mock.Mock
}

func (m *mockPetRepo) Create(ctx context.Context, pet *domain.Pet) error {
	args := m.Called(ctx, pet)
	return args.Error(0)
}

func (m *mockPetRepo) GetByID(ctx context.Context, id string) (*domain.Pet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pet), args.Error(1)
}

func (m *mockPetRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]domain.Pet, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Pet), args.Error(1)
}

func (m *mockPetRepo) Update(ctx context.Context, pet *domain.Pet) error {
	args := m.Called(ctx, pet)
	return args.Error(0)
}

func (m *mockPetRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Publisher stub ---

type stubPublisher struct{}

func (stubPublisher) PublishUserRegistered(context.Context, *domain.UserProfile) error { return nil }
func (stubPublisher) PublishProfileUpdated(context.Context, *domain.UserProfile) error { return nil }
func (stubPublisher) PublishSessionRevoked(context.Context, string, time.Time) error   { return nil }
func (stubPublisher) PublishQuestStarted(context.Context, string, string) error        { return nil }
func (stubPublisher) PublishQuestCompleted(context.Context, string, string) error      { return nil }
func (stubPublisher) PublishQuestClaimed(context.Context, string, string, int, int) error {
	return nil
}

// ============================================================================
// Test Helpers
// ============================================================================

const testUserID = "550e8400-e29b-41d4-a716-446655440001"
const testQuestID = "550e8400-e29b-41d4-a716-446655440002"
const testPetID = "550e8400-e29b-41d4-a716-446655440003"

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-testing", 15*time.Minute, 7*24*time.Hour)
}

func handlerTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func handlerTestSessionService(t *testing.T, userRepo *mockUserRepo, tokenRepo *mockRefreshTokenRepo) *service.SessionService {
	t.Helper()
	store := session.NewStore(handlerTestRedis(t), time.Hour)
	return service.NewSessionService(userRepo, tokenRepo, store, handlerTestJWTManager(), stubPublisher{}, handlerTestLogger())
}

func handlerTestProfileService(t *testing.T, userRepo *mockUserRepo) *service.ProfileService {
	t.Helper()
	cache := session.NewProfileCache(handlerTestRedis(t), time.Hour)
	return service.NewProfileService(userRepo, cache, stubPublisher{}, handlerTestLogger())
}

func handlerTestQuestService(t *testing.T, questRepo *mockQuestRepo, userRepo *mockUserRepo) *service.QuestService {
	t.Helper()
	profiles := handlerTestProfileService(t, userRepo)
	return service.NewQuestService(questRepo, profiles, stubPublisher{}, handlerTestLogger())
}

// fakeTokenValidator returns a middleware.TokenValidator that always succeeds
// and injects the given userID into the request context.
func fakeTokenValidator(userID string) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		return &middleware.Claims{UserID: userID, Email: "test@example.com", Username: "tester"}, nil
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var resp response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}
