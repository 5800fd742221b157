package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/internal/repository"
	apperrors "github.com/JohannsenLum/chow/pkg/errors"
	"github.com/JohannsenLum/chow/pkg/middleware"
	"github.com/JohannsenLum/chow/pkg/validator"
)

// PetHandler handles HTTP requests for pet endpoints. Pets are a plain
// sub-resource of the user; the handler talks to the repository directly.
type PetHandler struct {
	repo repository.PetRepository
}

// NewPetHandler creates a new pet HTTP handler.
func NewPetHandler(repo repository.PetRepository) *PetHandler {
	return &PetHandler{repo: repo}
}

// --- Request DTOs ---

// CreatePetRequest is the JSON request body for creating a pet.
type CreatePetRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Species     string `json:"species" validate:"required,min=1,max=50"`
	Breed       string `json:"breed" validate:"omitempty,max=100"`
	Age         int    `json:"age" validate:"omitempty,min=0,max=100"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female unknown"`
	AvatarEmoji string `json:"avatar_emoji" validate:"omitempty,max=16"`
	Bio         string `json:"bio" validate:"omitempty,max=500"`
	IsPublic    bool   `json:"is_public"`
}

// UpdatePetRequest is the JSON request body for updating a pet.
type UpdatePetRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Species     *string `json:"species" validate:"omitempty,min=1,max=50"`
	Breed       *string `json:"breed" validate:"omitempty,max=100"`
	Age         *int    `json:"age" validate:"omitempty,min=0,max=100"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female unknown"`
	AvatarEmoji *string `json:"avatar_emoji" validate:"omitempty,max=16"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	IsPublic    *bool   `json:"is_public"`
}

// --- Handlers ---

// List handles GET /api/v1/users/me/pets
func (h *PetHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	pets, err := h.repo.ListByOwnerID(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: pets})
}

// Create handles POST /api/v1/users/me/pets
func (h *PetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	var req CreatePetRequest
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

	now := time.Now().UTC()
	pet := &domain.Pet{
		ID:          uuid.New().String(),
		OwnerID:     userID,
		Name:        req.Name,
		Species:     req.Species,
		Breed:       req.Breed,
		Age:         req.Age,
		Gender:      req.Gender,
		AvatarEmoji: req.AvatarEmoji,
		Bio:         req.Bio,
		IsPublic:    req.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.repo.Create(r.Context(), pet); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Data: pet})
}

// Update handles PUT /api/v1/users/me/pets/{id}
func (h *PetHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	petID := chi.URLParam(r, "id")
	if petID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "pet id is required"},
		})
		return
	}

	var req UpdatePetRequest
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

	pet, err := h.repo.GetByID(r.Context(), petID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if pet.OwnerID != userID {
		// Ownership leak: respond as if the pet does not exist.
		writeAppError(w, r, apperrors.NotFound("pet", petID))
		return
	}

	if req.Name != nil {
		pet.Name = *req.Name
	}
	if req.Species != nil {
		pet.Species = *req.Species
	}
	if req.Breed != nil {
		pet.Breed = *req.Breed
	}
	if req.Age != nil {
		pet.Age = *req.Age
	}
	if req.Gender != nil {
		pet.Gender = *req.Gender
	}
	if req.AvatarEmoji != nil {
		pet.AvatarEmoji = *req.AvatarEmoji
	}
	if req.Bio != nil {
		pet.Bio = *req.Bio
	}
	if req.IsPublic != nil {
		pet.IsPublic = *req.IsPublic
	}
	pet.UpdatedAt = time.Now().UTC()

	if err := h.repo.Update(r.Context(), pet); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: pet})
}

// Delete handles DELETE /api/v1/users/me/pets/{id}
func (h *PetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	petID := chi.URLParam(r, "id")
	if petID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "pet id is required"},
		})
		return
	}

	pet, err := h.repo.GetByID(r.Context(), petID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if pet.OwnerID != userID {
		writeAppError(w, r, apperrors.NotFound("pet", petID))
		return
	}

	if err := h.repo.Delete(r.Context(), petID); err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"id": petID, "status": "deleted"}})
}
