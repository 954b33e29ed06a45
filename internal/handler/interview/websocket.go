package interview

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ZaidMomin2003/talxify/backend/internal/events"
	interviewmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
	"github.com/ZaidMomin2003/talxify/backend/internal/model/interviewer"
	speechmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/speech"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/logging"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/metrics"
	"github.com/ZaidMomin2003/talxify/backend/internal/service/ai"
	interviewservice "github.com/ZaidMomin2003/talxify/backend/internal/service/interview"
	speechservice "github.com/ZaidMomin2003/talxify/backend/internal/service/speech"
	"github.com/ZaidMomin2003/talxify/backend/internal/store"
)

// Orchestrator generates interviewer replies.
type Orchestrator interface {
	StreamingEnabled() bool
	GenerateReply(ctx context.Context, session interviewmodel.Session, profile *interviewer.Profile, history []interviewmodel.Message, userMessage string) (*schema.Message, error)
	StreamReply(ctx context.Context, session interviewmodel.Session, profile *interviewer.Profile, history []interviewmodel.Message, userMessage string) (*schema.StreamReader[*schema.Message], error)
}

// TranscriptionStream is one live speech-to-text session.
type TranscriptionStream interface {
	Send(audio []byte) error
	Results() <-chan interviewmodel.TranscriptFragment
	Err() error
	Close() error
}

// SpeechService abstracts the provider bridges for the gateway.
type SpeechService interface {
	OpenTranscription(ctx context.Context, sessionID string) (TranscriptionStream, error)
	Synthesize(ctx context.Context, req *speechmodel.SynthesizeRequest) (*speechmodel.SynthesizeResponse, error)
	ReleaseTranscription(sessionID string)
}

// Assessor reviews a finished interview.
type Assessor interface {
	Assess(ctx context.Context, session interviewmodel.Session, transcript []interviewmodel.Message) *interviewmodel.Assessment
}

// Publisher emits interview lifecycle events.
type Publisher interface {
	PublishTurn(ctx context.Context, event *events.TurnEvent) error
	PublishAssessment(ctx context.Context, event *events.AssessmentEvent) error
}

type speechServiceAdapter struct {
	svc *speechservice.Service
}

func (a speechServiceAdapter) OpenTranscription(ctx context.Context, sessionID string) (TranscriptionStream, error) {
	return a.svc.OpenTranscription(ctx, sessionID)
}

func (a speechServiceAdapter) Synthesize(ctx context.Context, req *speechmodel.SynthesizeRequest) (*speechmodel.SynthesizeResponse, error) {
	return a.svc.Synthesize(ctx, req)
}

func (a speechServiceAdapter) ReleaseTranscription(sessionID string) {
	a.svc.ReleaseTranscription(sessionID)
}

// WrapSpeechService adapts the concrete speech service to the gateway's
// interface.
func WrapSpeechService(svc *speechservice.Service) SpeechService {
	return speechServiceAdapter{svc: svc}
}

// Deps wires the gateway's collaborators. Assessor, Store and Publisher may
// be nil; the gateway then skips assessment, persistence and events.
type Deps struct {
	Speech       SpeechService
	Orchestrator Orchestrator
	Sessions     *interviewservice.Service
	Interviewers interviewer.Store
	Assessor     Assessor
	Store        store.Store
	Publisher    Publisher
	Metrics      *metrics.Metrics
}

// WebSocketHandler is the session gateway: one WebSocket per candidate,
// JSON control frames and raw binary audio in, tagged events out.
type WebSocketHandler struct {
	deps     Deps
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewWebSocketHandler creates the gateway handler.
func NewWebSocketHandler(deps Deps) *WebSocketHandler {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Default
	}
	return &WebSocketHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		log: logging.WithComponent("gateway"),
	}
}

// RegisterRoutes mounts the gateway endpoint.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/interview", h.handleWebSocket)
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	gw := &gatewaySession{
		h:         h,
		conn:      conn,
		connID:    uuid.NewString(),
		state:     interviewmodel.StateIdle,
		turns:     make(chan turnRequest, 4),
		ctx:       ctx,
		cancel:    cancel,
		startedAt: time.Now(),
	}
	gw.log = logging.WithSession("gateway", gw.connID)

	h.deps.Metrics.RecordSessionStart()
	gw.log.Info().Msg("client connected")

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go gw.pingLoop()
	go gw.turnLoop()

	gw.readLoop()
	gw.finalize()
}

type turnRequest struct {
	userText   string
	opening    bool
	receivedAt time.Time
}

// gatewaySession holds the per-connection pipeline. All outbound frames go
// through writeEvent's mutex; state changes go through transition's.
type gatewaySession struct {
	h      *WebSocketHandler
	conn   *websocket.Conn
	connID string
	log    zerolog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	state   interviewmodel.State
	session interviewmodel.Session
	profile interviewer.Profile
	started bool
	stream  TranscriptionStream

	turns     chan turnRequest
	ctx       context.Context
	cancel    context.CancelFunc
	startedAt time.Time
	endOnce   sync.Once
}

func (gw *gatewaySession) readLoop() {
	for {
		messageType, data, err := gw.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				gw.log.Warn().Err(err).Msg("read error")
			}
			return
		}
		gw.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		switch messageType {
		case websocket.BinaryMessage:
			gw.handleAudio(data)
		case websocket.TextMessage:
			if done := gw.handleCommand(data); done {
				return
			}
		}
	}
}

func (gw *gatewaySession) handleCommand(data []byte) bool {
	cmd, err := parseCommand(data)
	if err != nil {
		gw.protocolError("malformed control frame")
		return false
	}

	switch cmd.Type {
	case commandStartInterview:
		gw.startInterview(cmd)
		return false
	case commandEndInterview:
		gw.writeEvent(serverEvent{Type: eventInterviewEnded, SessionID: gw.sessionID()})
		return true
	default:
		gw.protocolError("unsupported command type: " + cmd.Type)
		return false
	}
}

func (gw *gatewaySession) startInterview(cmd *clientCommand) {
	role := strings.TrimSpace(cmd.Role)
	if role == "" {
		gw.protocolError("start_interview requires a role")
		return
	}
	level := interviewmodel.NormalizeLevel(cmd.Level)

	gw.mu.Lock()
	switch gw.state {
	case interviewmodel.StateIdle, interviewmodel.StateReady, interviewmodel.StateListening:
	default:
		state := gw.state
		gw.mu.Unlock()
		gw.log.Warn().Stringer("state", state).Msg("start_interview dropped, turn in progress")
		gw.protocolError("interview turn in progress")
		return
	}
	restarting := gw.started
	oldStream := gw.stream
	oldSessionID := gw.session.ID
	gw.mu.Unlock()

	// A restart discards the previous conversation entirely.
	if restarting {
		if oldStream != nil {
			oldStream.Close()
			gw.h.deps.Speech.ReleaseTranscription(oldSessionID)
		}
		if _, err := gw.h.deps.Sessions.EndSession(gw.ctx, oldSessionID); err != nil {
			gw.log.Warn().Err(err).Msg("failed to discard previous session")
		}
	}

	session, err := gw.h.deps.Sessions.CreateSession(gw.ctx, role, level)
	if err != nil {
		gw.fail(stageProtocol, fmt.Errorf("failed to create session: %w", err))
		return
	}

	profile := gw.h.deps.Interviewers.ForRole(role)

	stream, err := gw.h.deps.Speech.OpenTranscription(gw.ctx, session.ID)
	if err != nil {
		gw.fail(stageTranscription, fmt.Errorf("failed to open transcription: %w", err))
		return
	}

	gw.mu.Lock()
	gw.session = session
	gw.profile = profile
	gw.stream = stream
	gw.started = true
	gw.state = interviewmodel.StateProcessing
	gw.mu.Unlock()

	gw.log = logging.WithSession("gateway", session.ID)
	gw.log.Info().
		Str("role", role).
		Str("level", string(level)).
		Str("interviewer", profile.ID).
		Bool("restart", restarting).
		Msg("interview started")

	go gw.consumeTranscripts(session.ID, stream)

	// The interviewer always speaks first.
	gw.enqueueTurn(turnRequest{opening: true, receivedAt: time.Now()})
}

func (gw *gatewaySession) handleAudio(data []byte) {
	gw.h.deps.Metrics.RecordAudioReceived(len(data))

	gw.mu.Lock()
	switch {
	case gw.state == interviewmodel.StateListening:
	case gw.state == interviewmodel.StateReady:
		// First audio frame after a reply re-enters listening.
		gw.state = interviewmodel.StateListening
	default:
		state := gw.state
		gw.mu.Unlock()
		gw.h.deps.Metrics.RecordFrameDropped(state.String())
		gw.log.Debug().Stringer("state", state).Int("bytes", len(data)).Msg("audio frame dropped")
		return
	}
	stream := gw.stream
	gw.mu.Unlock()

	if err := stream.Send(data); err != nil {
		if errors.Is(err, speechservice.ErrStreamClosed) {
			return
		}
		gw.fail(stageTranscription, fmt.Errorf("failed to forward audio: %w", err))
	}
}

func (gw *gatewaySession) consumeTranscripts(sessionID string, stream TranscriptionStream) {
	for fragment := range stream.Results() {
		// A restart swaps the session; fragments still buffered on the
		// discarded stream must not produce turns for the new one.
		if gw.sessionID() != sessionID {
			gw.log.Debug().Str("text", fragment.Text).Msg("transcript for discarded session dropped")
			continue
		}
		gw.h.deps.Metrics.RecordTranscript(fragment.IsFinal)
		gw.writeEvent(serverEvent{
			Type:    eventTranscript,
			Text:    fragment.Text,
			IsFinal: fragment.IsFinal,
		})

		if !fragment.IsFinal || strings.TrimSpace(fragment.Text) == "" {
			continue
		}

		if !gw.transition(interviewmodel.StateProcessing) {
			gw.log.Debug().Str("text", fragment.Text).Msg("final transcript dropped, out of turn")
			continue
		}
		gw.enqueueTurn(turnRequest{userText: fragment.Text, receivedAt: time.Now()})
	}

	if err := stream.Err(); err != nil && !gw.ended() && gw.sessionID() == sessionID {
		gw.fail(stageTranscription, err)
	}
}

func (gw *gatewaySession) turnLoop() {
	for {
		select {
		case <-gw.ctx.Done():
			return
		case req := <-gw.turns:
			gw.runTurn(req)
		}
	}
}

func (gw *gatewaySession) enqueueTurn(req turnRequest) {
	select {
	case gw.turns <- req:
	case <-gw.ctx.Done():
	}
}

func (gw *gatewaySession) runTurn(req turnRequest) {
	gw.mu.Lock()
	session := gw.session
	profile := gw.profile
	gw.mu.Unlock()

	history, err := gw.h.deps.Sessions.LoadTranscript(gw.ctx, session.ID)
	if err != nil {
		gw.fail(stageGeneration, fmt.Errorf("failed to load transcript: %w", err))
		return
	}

	query := req.userText
	if req.opening {
		query = ai.OpeningQuery
	} else {
		candidateMsg := interviewmodel.Message{
			SessionID: session.ID,
			Role:      interviewmodel.RoleCandidate,
			Content:   req.userText,
		}
		if err := gw.h.deps.Sessions.SaveMessage(gw.ctx, candidateMsg); err != nil {
			gw.log.Warn().Err(err).Msg("failed to save candidate message")
		}
	}

	gw.writeEvent(serverEvent{Type: eventResponseStart})

	replyText, err := gw.generateReply(session, profile, history, query)
	if err != nil {
		gw.h.deps.Metrics.RecordTurnFailed(stageGeneration)
		gw.fail(stageGeneration, err)
		return
	}

	interviewerMsg := interviewmodel.Message{
		SessionID: session.ID,
		Role:      interviewmodel.RoleInterviewer,
		Content:   replyText,
	}
	if err := gw.h.deps.Sessions.SaveMessage(gw.ctx, interviewerMsg); err != nil {
		gw.log.Warn().Err(err).Msg("failed to save interviewer message")
	}

	gw.transition(interviewmodel.StateSpeaking)
	textOnly := !gw.speakReply(session.ID, profile, replyText)

	gw.writeEvent(serverEvent{Type: eventResponseEnd, FullText: replyText})
	gw.transition(interviewmodel.StateReady)

	gw.h.deps.Metrics.RecordTurn(time.Since(req.receivedAt).Seconds())

	if gw.h.deps.Publisher != nil {
		event := &events.TurnEvent{
			SessionID:  session.ID,
			TargetRole: session.TargetRole,
			Level:      string(session.Level),
			Candidate:  req.userText,
			Reply:      replyText,
			TextOnly:   textOnly,
			CreatedAt:  time.Now(),
		}
		if err := gw.h.deps.Publisher.PublishTurn(gw.ctx, event); err != nil {
			gw.log.Warn().Err(err).Msg("failed to publish turn event")
		}
	}
}

// generateReply runs the orchestrator and relays text increments. Any
// failure here, including an empty reply, is fatal for the session.
func (gw *gatewaySession) generateReply(session interviewmodel.Session, profile interviewer.Profile, history []interviewmodel.Message, query string) (string, error) {
	if !gw.h.deps.Orchestrator.StreamingEnabled() {
		resp, err := gw.h.deps.Orchestrator.GenerateReply(gw.ctx, session, &profile, history, query)
		if err != nil {
			return "", err
		}
		gw.writeEvent(serverEvent{Type: eventTextChunk, Chunk: resp.Content})
		return resp.Content, nil
	}

	stream, err := gw.h.deps.Orchestrator.StreamReply(gw.ctx, session, &profile, history, query)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var chunks []*schema.Message
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", fmt.Errorf("reply stream failed: %w", recvErr)
		}
		if chunk == nil {
			continue
		}
		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			gw.writeEvent(serverEvent{Type: eventTextChunk, Chunk: chunk.Content})
		}
	}

	if len(chunks) == 0 {
		return "", ai.ErrNoReply
	}

	merged, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", fmt.Errorf("failed to merge reply chunks: %w", err)
	}
	if strings.TrimSpace(merged.Content) == "" {
		return "", ai.ErrNoReply
	}
	return merged.Content, nil
}

// speakReply synthesizes the reply and streams ordered audio chunks.
// Returns false when synthesis failed and the turn degraded to text-only.
func (gw *gatewaySession) speakReply(sessionID string, profile interviewer.Profile, text string) bool {
	resp, err := gw.h.deps.Speech.Synthesize(gw.ctx, &speechmodel.SynthesizeRequest{
		SessionID: sessionID,
		Text:      text,
		Voice:     profile.VoiceID,
	})
	if err != nil {
		gw.h.deps.Metrics.RecordSynthesisFailure()
		gw.log.Warn().Err(err).Msg("synthesis failed, degrading to text-only")
		gw.writeEvent(serverEvent{
			Type:    eventError,
			Stage:   stageSynthesis,
			Message: "speech synthesis unavailable for this reply",
		})
		return false
	}

	wav := speechservice.EncodeWAV(resp.PCM, resp.SampleRate)
	for _, chunk := range speechservice.SliceAudio(wav, speechservice.ChunkSize) {
		gw.writeEvent(serverEvent{
			Type:  eventAudioChunk,
			Chunk: base64.StdEncoding.EncodeToString(chunk),
		})
		gw.h.deps.Metrics.RecordAudioSent(len(chunk))
	}
	return true
}

// fail reports a fatal pipeline error and ends the session.
func (gw *gatewaySession) fail(stage string, err error) {
	gw.log.Error().Err(err).Str("stage", stage).Msg("session failed")
	gw.writeEvent(serverEvent{
		Type:    eventError,
		Stage:   stage,
		Message: err.Error(),
	})
	gw.finalize()
	gw.conn.Close()
}

func (gw *gatewaySession) protocolError(message string) {
	gw.h.deps.Metrics.RecordFrameDropped(stageProtocol)
	gw.log.Warn().Str("reason", message).Msg("protocol error")
	gw.writeEvent(serverEvent{
		Type:    eventError,
		Stage:   stageProtocol,
		Message: message,
	})
}

// finalize tears the session down exactly once: stops goroutines, closes the
// provider stream and, for a started interview, runs assessment and
// persistence. Safe to call from any goroutine.
func (gw *gatewaySession) finalize() {
	gw.endOnce.Do(func() {
		gw.mu.Lock()
		gw.state = interviewmodel.StateEnded
		stream := gw.stream
		started := gw.started
		session := gw.session
		gw.mu.Unlock()

		gw.cancel()

		if stream != nil {
			stream.Close()
			gw.h.deps.Speech.ReleaseTranscription(session.ID)
		}

		if started {
			// The connection context is gone; bound the teardown work.
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			gw.persistOutcome(ctx, session)
		}

		gw.h.deps.Metrics.RecordSessionEnd(time.Since(gw.startedAt).Seconds())
		gw.log.Info().Msg("session ended")
	})
}

func (gw *gatewaySession) persistOutcome(ctx context.Context, session interviewmodel.Session) {
	transcript, err := gw.h.deps.Sessions.EndSession(ctx, session.ID)
	if err != nil {
		gw.log.Warn().Err(err).Msg("failed to collect transcript")
		return
	}

	var assessment *interviewmodel.Assessment
	if gw.h.deps.Assessor != nil {
		assessment = gw.h.deps.Assessor.Assess(ctx, session, transcript)
	}

	if gw.h.deps.Store != nil {
		record := &interviewmodel.Record{
			SessionID:  session.ID,
			TargetRole: session.TargetRole,
			Level:      session.Level,
			Transcript: transcript,
			Assessment: assessment,
			StartedAt:  session.CreatedAt,
			EndedAt:    time.Now(),
		}
		if err := gw.h.deps.Store.SaveInterview(ctx, record); err != nil {
			gw.log.Warn().Err(err).Msg("failed to persist interview record")
		}
	}

	if gw.h.deps.Publisher != nil {
		event := &events.AssessmentEvent{
			SessionID:  session.ID,
			TargetRole: session.TargetRole,
			Level:      string(session.Level),
			Turns:      len(transcript),
			Assessment: assessment,
			CreatedAt:  time.Now(),
		}
		if err := gw.h.deps.Publisher.PublishAssessment(ctx, event); err != nil {
			gw.log.Warn().Err(err).Msg("failed to publish assessment event")
		}
	}
}

// transition moves to the target state if the state machine allows it.
func (gw *gatewaySession) transition(to interviewmodel.State) bool {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if !gw.state.CanTransition(to) {
		return false
	}
	gw.state = to
	return true
}

func (gw *gatewaySession) ended() bool {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	return gw.state == interviewmodel.StateEnded
}

func (gw *gatewaySession) sessionID() string {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if gw.started {
		return gw.session.ID
	}
	return gw.connID
}

func (gw *gatewaySession) writeEvent(event serverEvent) {
	gw.writeMu.Lock()
	defer gw.writeMu.Unlock()
	if err := gw.conn.WriteJSON(event); err != nil {
		gw.log.Debug().Err(err).Str("event", event.Type).Msg("write failed")
	}
}

func (gw *gatewaySession) pingLoop() {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-gw.ctx.Done():
			return
		case <-ticker.C:
			gw.writeMu.Lock()
			err := gw.conn.WriteMessage(websocket.PingMessage, nil)
			gw.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
