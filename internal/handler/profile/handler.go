// Package profile exposes the user profile, bookmark, and interview-record
// endpoints backed by the persistence store.
package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ZaidMomin2003/talxify/backend/internal/observability/logging"
	"github.com/ZaidMomin2003/talxify/backend/internal/store"
	"github.com/ZaidMomin2003/talxify/backend/pkg/utils"
)

// Handler serves profile and interview-record endpoints.
type Handler struct {
	store store.Store
	log   zerolog.Logger
}

// New creates a profile handler.
func New(s store.Store) *Handler {
	return &Handler{
		store: s,
		log:   logging.WithComponent("profile-handler"),
	}
}

// RegisterRoutes mounts the profile endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{userID}", func(userRouter chi.Router) {
		userRouter.Get("/profile", h.handleGetProfile)
		userRouter.Patch("/profile", h.handleMergeProfile)
		userRouter.Post("/bookmarks", h.handleAddBookmark)
		userRouter.Delete("/bookmarks/{bookmarkID}", h.handleRemoveBookmark)
		userRouter.Post("/activity", h.handleAppendActivity)
	})
	r.Get("/interviews/{sessionID}", h.handleGetInterview)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	profile, err := h.store.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "profile not found")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to load profile")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	utils.RespondJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleMergeProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(fields) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if err := h.store.MergeProfile(r.Context(), userID, fields); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to update profile")
		utils.RespondError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var bookmark map[string]any
	if err := json.NewDecoder(r.Body).Decode(&bookmark); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, _ := bookmark["id"].(string)
	if strings.TrimSpace(id) == "" {
		utils.RespondError(w, http.StatusBadRequest, "bookmark id is required")
		return
	}

	if err := h.store.AddBookmark(r.Context(), userID, bookmark); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to add bookmark")
		utils.RespondError(w, http.StatusInternalServerError, "failed to add bookmark")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (h *Handler) handleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	bookmarkID := chi.URLParam(r, "bookmarkID")

	if err := h.store.RemoveBookmark(r.Context(), userID, bookmarkID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "bookmark not found")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to remove bookmark")
		utils.RespondError(w, http.StatusInternalServerError, "failed to remove bookmark")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) handleAppendActivity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var entry map[string]any
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.AppendActivity(r.Context(), userID, entry); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("failed to record activity")
		utils.RespondError(w, http.StatusInternalServerError, "failed to record activity")
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func (h *Handler) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	record, err := h.store.GetInterview(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "interview not found")
			return
		}
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to load interview")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load interview")
		return
	}

	utils.RespondJSON(w, http.StatusOK, record)
}
