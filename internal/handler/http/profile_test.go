package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/pkg/middleware"
)

func setupProfileRouter(handler *ProfileHandler, userID string) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(middleware.Auth(fakeTokenValidator(userID)))
		r.Get("/me", handler.GetProfile)
		r.Put("/me", handler.UpdateProfile)
	})
	return r
}

func sampleProfileRow() *domain.UserProfile {
	now := time.Now().UTC()
	return &domain.UserProfile{
		ID:          testUserID,
		Email:       "test@example.com",
		Username:    "tester",
		DisplayName: "Tester",
		ExpPoints:   50,
		PawPoints:   10,
		Level:       1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ============================================================================
// GetProfile Tests
// ============================================================================

func TestGetProfileEndpoint_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	handler := NewProfileHandler(handlerTestProfileService(t, userRepo))
	router := setupProfileRouter(handler, testUserID)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(sampleProfileRow(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "tester", data["username"])

	userRepo.AssertExpectations(t)
}

func TestGetProfileEndpoint_Unauthorized(t *testing.T) {
	userRepo := new(mockUserRepo)
	handler := NewProfileHandler(handlerTestProfileService(t, userRepo))

	r := chi.NewRouter()
	r.Get("/api/v1/users/me", handler.GetProfile)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetProfileEndpoint_Unavailable(t *testing.T) {
	userRepo := new(mockUserRepo)
	handler := NewProfileHandler(handlerTestProfileService(t, userRepo))
	router := setupProfileRouter(handler, testUserID)

	// Database down, empty cache: the profile is unavailable, not missing.
	userRepo.On("GetByID", mock.Anything, testUserID).Return(nil, errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAVAILABLE", resp.Error.Code)
}

// ============================================================================
// UpdateProfile Tests
// ============================================================================

func TestUpdateProfileEndpoint_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	handler := NewProfileHandler(handlerTestProfileService(t, userRepo))
	router := setupProfileRouter(handler, testUserID)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(sampleProfileRow(), nil)
	userRepo.On("UpdateProfile", mock.Anything, mock.AnythingOfType("*domain.UserProfile")).Return(nil)

	body := []byte(`{"display_name": "Tester T", "bio": "dog person"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Tester T", data["display_name"])
	assert.Equal(t, "dog person", data["bio"])

	userRepo.AssertExpectations(t)
}

func TestUpdateProfileEndpoint_InvalidAvatarURL(t *testing.T) {
	userRepo := new(mockUserRepo)
	handler := NewProfileHandler(handlerTestProfileService(t, userRepo))
	router := setupProfileRouter(handler, testUserID)

	body := []byte(`{"avatar_url": "not a url"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	userRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}
