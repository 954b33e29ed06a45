package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	generateHandler "github.com/ZaidMomin2003/talxify/backend/internal/handler/generate"
	interviewHandler "github.com/ZaidMomin2003/talxify/backend/internal/handler/interview"
	interviewerHandler "github.com/ZaidMomin2003/talxify/backend/internal/handler/interviewer"
	profileHandler "github.com/ZaidMomin2003/talxify/backend/internal/handler/profile"
	speechHandler "github.com/ZaidMomin2003/talxify/backend/internal/handler/speech"
	streamHandler "github.com/ZaidMomin2003/talxify/backend/internal/handler/stream"
	middlewarePkg "github.com/ZaidMomin2003/talxify/backend/internal/middleware"
	"github.com/ZaidMomin2003/talxify/backend/internal/model/interviewer"
	aiService "github.com/ZaidMomin2003/talxify/backend/internal/service/ai"
	assessmentService "github.com/ZaidMomin2003/talxify/backend/internal/service/assessment"
	interviewService "github.com/ZaidMomin2003/talxify/backend/internal/service/interview"
	speechService "github.com/ZaidMomin2003/talxify/backend/internal/service/speech"
	"github.com/ZaidMomin2003/talxify/backend/internal/store"
	"github.com/ZaidMomin2003/talxify/backend/pkg/utils"
)

// Services bundles everything the router wires into handlers. Speech, AI,
// assessment, eventing, and the persistent store are optional so the server
// can come up in degraded modes during local development.
type Services struct {
	Interviewers interviewer.Store
	Sessions     *interviewService.Service
	AI           *aiService.Service
	Speech       *speechService.Service
	Assessment   *assessmentService.Service
	Store        store.Store
	Publisher    interviewHandler.Publisher
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svcs Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	sessionHandler := interviewHandler.NewRESTHandler(svcs.Sessions, svcs.Interviewers)

	var sseHandler *streamHandler.Handler
	if svcs.AI != nil {
		sseHandler = streamHandler.New(svcs.AI, svcs.Sessions, svcs.Interviewers)
	}

	r.Route("/api", func(api chi.Router) {
		interviewerHandler.New(svcs.Interviewers).RegisterRoutes(api)
		sessionHandler.RegisterRoutes(api)

		// Text-mode conduct flow: the candidate types, the interviewer
		// streams back over SSE. The first request with an empty message
		// triggers the greeting turn.
		api.Get("/interview/{sessionID}/stream", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if sseHandler == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
				return
			}

			if err := sseHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Error().Err(err).Str("session_id", sessionID).Msg("stream request failed")
			}
		})

		if svcs.AI != nil {
			generateHandler.New(svcs.AI).RegisterRoutes(api)
		}

		if svcs.Speech != nil {
			speechHandler.New(svcs.Speech).RegisterRoutes(api)
		}

		if svcs.Store != nil {
			profileHandler.New(svcs.Store).RegisterRoutes(api)
		}
	})

	// Voice-mode conduct flow: full duplex gateway.
	if svcs.Speech != nil && svcs.AI != nil {
		gateway := interviewHandler.NewWebSocketHandler(interviewHandler.Deps{
			Speech:       interviewHandler.WrapSpeechService(svcs.Speech),
			Orchestrator: svcs.AI,
			Sessions:     svcs.Sessions,
			Interviewers: svcs.Interviewers,
			Assessor:     assessorOrNil(svcs.Assessment),
			Store:        svcs.Store,
			Publisher:    svcs.Publisher,
		})
		gateway.RegisterRoutes(r)
	}

	return r
}

// assessorOrNil avoids handing the gateway a typed-nil interface value.
func assessorOrNil(svc *assessmentService.Service) interviewHandler.Assessor {
	if svc == nil {
		return nil
	}
	return svc
}
