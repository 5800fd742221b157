package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JohannsenLum/chow/internal/service"
	"github.com/JohannsenLum/chow/pkg/middleware"
	"github.com/JohannsenLum/chow/pkg/validator"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	sessions *service.SessionService
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(sessions *service.SessionService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

// --- Request DTOs ---

// SignUpRequest is the JSON request body for user registration.
type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Username    string `json:"username" validate:"required,min=3,max=30,alphanum"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
	DeviceID    string `json:"device_id" validate:"omitempty,max=128"`
}

// SignInRequest is the JSON request body for signing in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	DeviceID string `json:"device_id" validate:"omitempty,max=128"`
}

// RefreshRequest is the JSON request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	DeviceID     string `json:"device_id" validate:"omitempty,max=128"`
}

// RestoreRequest is the JSON request body for restoring a persisted session.
type RestoreRequest struct {
	DeviceID string `json:"device_id" validate:"required,max=128"`
}

// --- Response types ---

// AuthResponse wraps user data with the session.
type AuthResponse struct {
	User    any `json:"user"`
	Session any `json:"session"`
}

// --- Handlers ---

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	input := service.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		DeviceID:    req.DeviceID,
	}

	user, sess, err := h.sessions.SignUp(r.Context(), input)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{
		Data: AuthResponse{
			User:    user,
			Session: sess,
		},
	})
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	input := service.SignInInput{
		Email:    req.Email,
		Password: req.Password,
		DeviceID: req.DeviceID,
	}

	user, sess, err := h.sessions.SignIn(r.Context(), input)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Data: AuthResponse{
			User:    user,
			Session: sess,
		},
	})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	sess, err := h.sessions.Refresh(r.Context(), req.RefreshToken, req.DeviceID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: sess})
}

// Restore handles POST /api/v1/auth/restore
func (h *AuthHandler) Restore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	sess, err := h.sessions.Restore(r.Context(), req.DeviceID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: sess})
}

// SignOut handles POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	if err := h.sessions.SignOut(r.Context(), userID); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "signed_out"}})
}

// Session handles GET /api/v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{
		"user_id":  userID,
		"username": middleware.UsernameFromContext(r.Context()),
	}})
}
