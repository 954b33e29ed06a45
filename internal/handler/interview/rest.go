package interview

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	interviewmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
	"github.com/ZaidMomin2003/talxify/backend/internal/model/interviewer"
	interviewservice "github.com/ZaidMomin2003/talxify/backend/internal/service/interview"
	"github.com/ZaidMomin2003/talxify/backend/pkg/utils"
)

// RESTHandler serves the session-management endpoints used by the SSE
// conduct flow, where the client creates a session up front instead of
// over the websocket.
type RESTHandler struct {
	sessions     *interviewservice.Service
	interviewers interviewer.Store
}

// NewRESTHandler creates the session-management handler.
func NewRESTHandler(sessions *interviewservice.Service, interviewers interviewer.Store) *RESTHandler {
	return &RESTHandler{
		sessions:     sessions,
		interviewers: interviewers,
	}
}

// RegisterRoutes mounts the session endpoints.
func (h *RESTHandler) RegisterRoutes(r chi.Router) {
	r.Route("/interview", func(ivRouter chi.Router) {
		ivRouter.Post("/session", h.handleCreateSession)
		ivRouter.Get("/session/{sessionID}", h.handleGetSession)
		ivRouter.Get("/session/{sessionID}/transcript", h.handleGetTranscript)
		ivRouter.Delete("/session/{sessionID}", h.handleEndSession)
	})
}

func (h *RESTHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Role  string `json:"role"`
		Level string `json:"level"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Role) == "" {
		utils.RespondError(w, http.StatusBadRequest, "role is required")
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), payload.Role, interviewmodel.NormalizeLevel(payload.Level))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile := h.interviewers.ForRole(session.TargetRole)
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"session":     session,
		"interviewer": profile,
	})
}

func (h *RESTHandler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *RESTHandler) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	transcript, err := h.sessions.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": transcript})
}

func (h *RESTHandler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	transcript, err := h.sessions.EndSession(r.Context(), sessionID)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":   "ended",
		"messages": transcript,
	})
}

func (h *RESTHandler) respondSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, interviewservice.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
