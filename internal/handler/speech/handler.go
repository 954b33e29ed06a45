// Package speech exposes the one-shot REST speech endpoints used by the
// resume-practice pages. The live interview pipeline runs over the gateway
// instead.
package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	speechmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/speech"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/logging"
	speechservice "github.com/ZaidMomin2003/talxify/backend/internal/service/speech"
)

// SpeechService abstracts the speech layer for tests.
type SpeechService interface {
	TranscribeOnce(ctx context.Context, req *speechmodel.TranscribeRequest) (*speechmodel.TranscribeResponse, error)
	SynthesizeToBuffer(ctx context.Context, sessionID, text, voice, language string) (*speechmodel.SynthesizeResponse, error)
}

// Handler serves the REST speech endpoints.
type Handler struct {
	speechSvc SpeechService
	log       zerolog.Logger
}

// New creates a speech handler.
func New(speechSvc SpeechService) *Handler {
	return &Handler{
		speechSvc: speechSvc,
		log:       logging.WithComponent("speech-handler"),
	}
}

// RegisterRoutes mounts the speech endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Post("/transcribe", h.handleTranscribe)
		speechRouter.Post("/synthesize", h.handleSynthesize)
		speechRouter.Get("/health", h.handleHealth)
	})
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(32 << 20) // 32MB max
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	sessionID := r.FormValue("sessionId")
	if sessionID == "" {
		sessionID = "adhoc"
	}

	language := r.FormValue("language")
	if language == "" {
		language = "en-US"
	}

	req := &speechmodel.TranscribeRequest{
		SessionID: sessionID,
		AudioData: file,
		Format:    inferAudioFormat(header.Filename),
		Language:  language,
	}

	resp, err := h.speechSvc.TranscribeOnce(r.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("transcription failed")
		h.respondError(w, http.StatusInternalServerError, "speech recognition failed")
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req speechmodel.SynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		h.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = "adhoc"
	}

	resp, err := h.speechSvc.SynthesizeToBuffer(r.Context(), req.SessionID, req.Text, req.Voice, req.Language)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", req.SessionID).Msg("synthesis failed")
		h.respondError(w, http.StatusInternalServerError, "speech synthesis failed")
		return
	}

	wav := speechservice.EncodeWAV(resp.PCM, resp.SampleRate)
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(wav); err != nil {
		h.log.Warn().Err(err).Msg("failed to write audio response")
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "speech",
	})
}

func inferAudioFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "mp3"
	case ".pcm", ".raw":
		return "pcm"
	case ".webm":
		return "webm"
	case ".m4a":
		return "m4a"
	default:
		return "wav"
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Warn().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
