// Package interviewer serves the interviewer catalog.
package interviewer

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ZaidMomin2003/talxify/backend/internal/model/interviewer"
	"github.com/ZaidMomin2003/talxify/backend/pkg/utils"
)

// Handler serves interviewer profile lookups.
type Handler struct {
	interviewers interviewer.Store
}

// New creates an interviewer handler.
func New(interviewers interviewer.Store) *Handler {
	return &Handler{
		interviewers: interviewers,
	}
}

// RegisterRoutes mounts the interviewer endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/interviewers", h.handleListInterviewers)
	r.Get("/interviewers/{interviewerID}", h.handleGetInterviewer)
}

func (h *Handler) handleListInterviewers(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.interviewers.List())
}

func (h *Handler) handleGetInterviewer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "interviewerID")

	profile, ok := h.interviewers.FindByID(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "interviewer not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, profile)
}
