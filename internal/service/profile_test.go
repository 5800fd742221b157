package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/internal/session"
	apperrors "github.com/JohannsenLum/chow/pkg/errors"
)

type profileTestFixture struct {
	userRepo  *mockUserRepository
	cache     *session.ProfileCache
	publisher *stubPublisher
	svc       *ProfileService
}

func newProfileTestFixture(t *testing.T) *profileTestFixture {
	t.Helper()

	f := &profileTestFixture{
		userRepo:  new(mockUserRepository),
		cache:     newTestProfileCache(t),
		publisher: &stubPublisher{},
	}
	f.svc = NewProfileService(f.userRepo, f.cache, f.publisher, newTestLogger())
	return f
}

func sampleProfile() *domain.UserProfile {
	now := time.Now().UTC()
	return &domain.UserProfile{
		ID:          uuid.New().String(),
		Email:       "amy@example.com",
		Username:    "amy",
		DisplayName: "Amy",
		ExpPoints:   50,
		PawPoints:   10,
		Level:       1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// --- Load Tests ---

func TestProfileLoad_CachesRow(t *testing.T) {
	f := newProfileTestFixture(t)
	ctx := context.Background()
	profile := sampleProfile()

	f.userRepo.On("GetByID", ctx, profile.ID).Return(profile, nil)

	loaded, err := f.svc.Load(ctx, profile.ID)

	require.NoError(t, err)
	assert.Equal(t, profile.ID, loaded.ID)

	cached, err := f.cache.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.DisplayName, cached.DisplayName)
}

func TestProfileLoad_DatabaseDownFallsBackToCache(t *testing.T) {
	f := newProfileTestFixture(t)
	ctx := context.Background()
	profile := sampleProfile()

	require.NoError(t, f.cache.Set(ctx, profile))
	f.userRepo.On("GetByID", ctx, profile.ID).Return(nil, errors.New("connection refused"))

	loaded, err := f.svc.Load(ctx, profile.ID)

	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, profile.ID, loaded.ID)
}

func TestProfileLoad_UnavailableYieldsNilNotError(t *testing.T) {
	f := newProfileTestFixture(t)
	ctx := context.Background()
	userID := uuid.New().String()

	f.userRepo.On("GetByID", ctx, userID).Return(nil, errors.New("connection refused"))

	loaded, err := f.svc.Load(ctx, userID)

	// Unavailable, not "new user with defaults" and not a hard failure.
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

// --- Refresh Tests ---

func TestProfileRefresh_RereadsFromDatabase(t *testing.T) {
	f := newProfileTestFixture(t)
	ctx := context.Background()

	stale := sampleProfile()
	require.NoError(t, f.cache.Set(ctx, stale))

	fresh := *stale
	fresh.ExpPoints = 150
	fresh.Level = 2
	f.userRepo.On("GetByID", ctx, stale.ID).Return(&fresh, nil)

	loaded, err := f.svc.Refresh(ctx, stale.ID)

	require.NoError(t, err)
	assert.Equal(t, 150, loaded.ExpPoints)
	assert.Equal(t, 2, loaded.Level)

	cached, err := f.cache.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, 150, cached.ExpPoints)
}

// --- Get Tests ---

func TestProfileGet_PrefersCache(t *testing.T) {
	f := newProfileTestFixture(t)
	ctx := context.Background()
	profile := sampleProfile()

	require.NoError(t, f.cache.Set(ctx, profile))

	loaded, err := f.svc.Get(ctx, profile.ID)

	require.NoError(t, err)
	assert.Equal(t, profile.ID, loaded.ID)
	f.userRepo.AssertNotCalled(t, "GetByID", ctx, profile.ID)
}

func TestProfileGet_CacheMissLoads(t *testing.T) {
	f := newProfileTestFixture(t)
	ctx := context.Background()
	profile := sampleProfile()

	f.userRepo.On("GetByID", ctx, profile.ID).Return(profile, nil)

	loaded, err := f.svc.Get(ctx, profile.ID)

	require.NoError(t, err)
	assert.Equal(t, profile.ID, loaded.ID)
	f.userRepo.AssertExpectations(t)
}

// --- Update (optimistic merge) Tests ---

func TestProfileUpdate_MergesCacheOnly(t *testing.T) {
	f := newProfileTestFixture(t)
	ctx := context.Background()
	profile := sampleProfile()

	require.NoError(t, f.cache.Set(ctx, profile))

	err := f.svc.Update(ctx, profile.ID, UpdateProfileInput{Bio: strPtr("dog person")})

	require.NoError(t, err)
	cached, err := f.cache.Get(ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, cached.Bio)
	assert.Equal(t, "dog person", *cached.Bio)
	f.userRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestProfileUpdate_NoCachedRowIsNoop(t *testing.T) {
	f := newProfileTestFixture(t)

	err := f.svc.Update(context.Background(), uuid.New().String(), UpdateProfileInput{Bio: strPtr("dog person")})

	assert.NoError(t, err)
}

// --- Save Tests ---

func TestProfileSave_PersistsAndPublishes(t *testing.T) {
	f := newProfileTestFixture(t)
	ctx := context.Background()
	profile := sampleProfile()

	f.userRepo.On("GetByID", ctx, profile.ID).Return(profile, nil)
	f.userRepo.On("UpdateProfile", ctx, mock.AnythingOfType("*domain.UserProfile")).Return(nil)

	saved, err := f.svc.Save(ctx, profile.ID, UpdateProfileInput{
		DisplayName: strPtr("Amy W"),
		Bio:         strPtr("dog person"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Amy W", saved.DisplayName)
	require.NotNil(t, saved.Bio)
	assert.Equal(t, "dog person", *saved.Bio)
	assert.Contains(t, f.publisher.published(), "profile.updated")

	cached, err := f.cache.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amy W", cached.DisplayName)

	f.userRepo.AssertExpectations(t)
}

func TestProfileSave_EmptyDisplayName(t *testing.T) {
	f := newProfileTestFixture(t)
	ctx := context.Background()
	profile := sampleProfile()

	f.userRepo.On("GetByID", ctx, profile.ID).Return(profile, nil)

	saved, err := f.svc.Save(ctx, profile.ID, UpdateProfileInput{DisplayName: strPtr("")})

	assert.Nil(t, saved)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestProfileSave_UnknownUser(t *testing.T) {
	f := newProfileTestFixture(t)
	ctx := context.Background()
	userID := uuid.New().String()

	f.userRepo.On("GetByID", ctx, userID).Return(nil, apperrors.NotFound("user", userID))

	saved, err := f.svc.Save(ctx, userID, UpdateProfileInput{Bio: strPtr("dog person")})

	assert.Nil(t, saved)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- ApplyPush Tests ---

func TestApplyPush_OverwritesOptimisticMerge(t *testing.T) {
	f := newProfileTestFixture(t)
	ctx := context.Background()
	profile := sampleProfile()

	require.NoError(t, f.cache.Set(ctx, profile))

	// Optimistic merge that was never persisted.
	require.NoError(t, f.svc.Update(ctx, profile.ID, UpdateProfileInput{Bio: strPtr("dog person")}))

	// A pushed row replaces the cache wholesale; the pending merge is gone.
	pushed := *profile
	pushed.DisplayName = "Amy (verified)"
	require.NoError(t, f.svc.ApplyPush(ctx, &pushed))

	cached, err := f.cache.Get(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amy (verified)", cached.DisplayName)
	assert.Nil(t, cached.Bio)
}
