package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JohannsenLum/chow/internal/domain"
	"github.com/JohannsenLum/chow/internal/service"
	apperrors "github.com/JohannsenLum/chow/pkg/errors"
	"github.com/JohannsenLum/chow/pkg/middleware"
)

// QuestHandler handles HTTP requests for the quest endpoints.
type QuestHandler struct {
	quests *service.QuestService
}

// NewQuestHandler creates a new quest HTTP handler.
func NewQuestHandler(quests *service.QuestService) *QuestHandler {
	return &QuestHandler{quests: quests}
}

// --- Handlers ---

// ListCatalog handles GET /api/v1/quests
func (h *QuestHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	quests := h.quests.ListQuests(r.Context())
	writeJSON(w, http.StatusOK, response{Data: quests})
}

// ListMine handles GET /api/v1/quests/me
func (h *QuestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && !domain.IsValidQuestStatus(status) {
		writeAppError(w, r, apperrors.InvalidInput(fmt.Sprintf("unknown quest status %q", status)))
		return
	}

	var (
		err  error
		data any
	)
	switch status {
	case domain.QuestStatusAvailable:
		data, err = h.quests.AvailableQuests(r.Context(), userID)
	case domain.QuestStatusActive:
		data, err = h.quests.ActiveQuests(r.Context(), userID)
	case domain.QuestStatusCompleted:
		data, err = h.quests.CompletedQuests(r.Context(), userID)
	case domain.QuestStatusClaimed:
		data, err = h.quests.ClaimedQuests(r.Context(), userID)
	default:
		data, err = h.quests.ListUserQuests(r.Context(), userID)
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: data})
}

// Start handles POST /api/v1/quests/{id}/start
func (h *QuestHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, questID, ok := h.questParams(w, r)
	if !ok {
		return
	}

	userQuest, err := h.quests.StartQuest(r.Context(), userID, questID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: userQuest})
}

// Complete handles POST /api/v1/quests/{id}/complete
func (h *QuestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, questID, ok := h.questParams(w, r)
	if !ok {
		return
	}

	userQuest, err := h.quests.CompleteQuest(r.Context(), userID, questID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: userQuest})
}

// Claim handles POST /api/v1/quests/{id}/claim
func (h *QuestHandler) Claim(w http.ResponseWriter, r *http.Request) {
	userID, questID, ok := h.questParams(w, r)
	if !ok {
		return
	}

	result, err := h.quests.ClaimReward(r.Context(), userID, questID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: result})
}

// Reset handles POST /api/v1/quests/reset
func (h *QuestHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return
	}

	rows, err := h.quests.ResetDailyQuests(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: rows})
}

func (h *QuestHandler) questParams(w http.ResponseWriter, r *http.Request) (userID, questID string, ok bool) {
	userID = middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return "", "", false
	}

	questID = chi.URLParam(r, "id")
	if questID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "quest id is required"},
		})
		return "", "", false
	}

	return userID, questID, true
}
