// Package generate exposes the AI content-generation endpoints: resume
// drafting and coding-question batches.
package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	generatemodel "github.com/ZaidMomin2003/talxify/backend/internal/model/generate"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/logging"
	"github.com/ZaidMomin2003/talxify/backend/pkg/utils"
)

// Generator abstracts the AI flows for tests.
type Generator interface {
	GenerateResume(ctx context.Context, req *generatemodel.ResumeRequest) (*generatemodel.Resume, error)
	GenerateQuestions(ctx context.Context, req *generatemodel.QuestionsRequest) ([]generatemodel.CodingQuestion, error)
}

// Handler serves the generation endpoints.
type Handler struct {
	generator Generator
	log       zerolog.Logger
}

// New creates a generate handler.
func New(generator Generator) *Handler {
	return &Handler{
		generator: generator,
		log:       logging.WithComponent("generate-handler"),
	}
}

// RegisterRoutes mounts the generation endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/generate", func(genRouter chi.Router) {
		genRouter.Post("/resume", h.handleResume)
		genRouter.Post("/questions", h.handleQuestions)
	})
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	var req generatemodel.ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		utils.RespondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if strings.TrimSpace(req.TargetRole) == "" {
		utils.RespondError(w, http.StatusBadRequest, "targetRole is required")
		return
	}

	resume, err := h.generator.GenerateResume(r.Context(), &req)
	if err != nil {
		h.log.Error().Err(err).Str("target_role", req.TargetRole).Msg("resume generation failed")
		utils.RespondError(w, http.StatusInternalServerError, "resume generation failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, resume)
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	var req generatemodel.QuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Topic) == "" {
		utils.RespondError(w, http.StatusBadRequest, "topic is required")
		return
	}

	questions, err := h.generator.GenerateQuestions(r.Context(), &req)
	if err != nil {
		h.log.Error().Err(err).Str("topic", req.Topic).Msg("question generation failed")
		utils.RespondError(w, http.StatusInternalServerError, "question generation failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"questions": questions})
}
