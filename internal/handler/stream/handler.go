// Package stream serves the text-only interview flow over Server-Sent
// Events. Unlike the WebSocket gateway, this flow greets the candidate only
// when the session history is empty.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	interviewmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
	"github.com/ZaidMomin2003/talxify/backend/internal/model/interviewer"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/logging"
	aiservice "github.com/ZaidMomin2003/talxify/backend/internal/service/ai"
	interviewservice "github.com/ZaidMomin2003/talxify/backend/internal/service/interview"
	"github.com/ZaidMomin2003/talxify/backend/pkg/utils"
)

// Handler streams interviewer replies via SSE.
type Handler struct {
	aiService    *aiservice.Service
	sessions     *interviewservice.Service
	interviewers interviewer.Store
	log          zerolog.Logger
}

// New creates a new stream handler.
func New(aiSvc *aiservice.Service, sessions *interviewservice.Service, interviewers interviewer.Store) *Handler {
	return &Handler{
		aiService:    aiSvc,
		sessions:     sessions,
		interviewers: interviewers,
		log:          logging.WithComponent("stream"),
	}
}

// StreamResponse represents a streaming response chunk.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest runs one text interview turn over SSE. With an empty
// session history the interviewer opens the conversation; the message
// parameter is then optional.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	session, err := h.sessions.GetSession(ctx, sessionID)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("session not found: %v", err))
		return err
	}
	profile := h.interviewers.ForRole(session.TargetRole)

	history, err := h.sessions.LoadTranscript(ctx, session.ID)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("failed to load transcript: %v", err))
		return err
	}

	opening := len(history) == 0
	query := userMessage
	if opening {
		query = aiservice.OpeningQuery
	} else {
		if userMessage == "" {
			err := fmt.Errorf("message is required once the interview has started")
			h.sendSSEError(w, flusher, err.Error())
			return err
		}
		candidateMsg := interviewmodel.Message{
			SessionID: sessionID,
			Role:      interviewmodel.RoleCandidate,
			Content:   userMessage,
		}
		if saveErr := h.sessions.SaveMessage(ctx, candidateMsg); saveErr != nil {
			h.log.Warn().Err(saveErr).Str("session_id", sessionID).Msg("failed to save candidate message")
		}
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	response, err := h.dispatchReply(ctx, w, flusher, session, &profile, history, query)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("reply generation failed: %v", err))
		return err
	}

	interviewerMsg := interviewmodel.Message{
		SessionID: sessionID,
		Role:      interviewmodel.RoleInterviewer,
		Content:   response.Content,
	}
	if err := h.sessions.SaveMessage(ctx, interviewerMsg); err != nil {
		h.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to save interviewer message")
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	h.log.Info().Str("session_id", sessionID).Bool("opening", opening).Msg("completed streamed turn")
	return nil
}

func (h *Handler) dispatchReply(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, session interviewmodel.Session, profile *interviewer.Profile, history []interviewmodel.Message, query string) (*schema.Message, error) {
	if h.aiService.StreamingEnabled() {
		return h.streamReply(ctx, w, flusher, session, profile, history, query)
	}

	response, err := h.aiService.GenerateReply(ctx, session, profile, history, query)
	if err != nil {
		return nil, err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: session.ID,
		Content:   response.Content,
	})
	return response, nil
}

func (h *Handler) streamReply(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, session interviewmodel.Session, profile *interviewer.Profile, history []interviewmodel.Message, query string) (*schema.Message, error) {
	stream, err := h.aiService.StreamReply(ctx, session, profile, history, query)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: session.ID,
				Content:   chunk.Content,
			})
		}
	}

	if len(chunks) == 0 {
		return nil, aiservice.ErrNoReply
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return nil, err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: session.ID,
		Content:   response.Content,
	})
	return response, nil
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
