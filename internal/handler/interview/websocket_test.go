package interview

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	interviewmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
	"github.com/ZaidMomin2003/talxify/backend/internal/model/interviewer"
	speechmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/speech"
	interviewservice "github.com/ZaidMomin2003/talxify/backend/internal/service/interview"
)

type fakeOrchestrator struct {
	streaming bool
	chunks    []string
	err       error
	mu        sync.Mutex
	queries   []string
}

func (f *fakeOrchestrator) StreamingEnabled() bool { return f.streaming }

func (f *fakeOrchestrator) recordQuery(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
}

func (f *fakeOrchestrator) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeOrchestrator) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeOrchestrator) GenerateReply(_ context.Context, _ interviewmodel.Session, _ *interviewer.Profile, _ []interviewmodel.Message, userMessage string) (*schema.Message, error) {
	f.recordQuery(userMessage)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(strings.Join(f.chunks, ""), nil), nil
}

func (f *fakeOrchestrator) StreamReply(_ context.Context, _ interviewmodel.Session, _ *interviewer.Profile, _ []interviewmodel.Message, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	f.recordQuery(userMessage)
	if f.err != nil {
		return nil, f.err
	}
	reader, writer := schema.Pipe[*schema.Message](len(f.chunks))
	go func() {
		defer writer.Close()
		for _, chunk := range f.chunks {
			writer.Send(schema.AssistantMessage(chunk, nil), nil)
		}
	}()
	return reader, nil
}

type fakeStream struct {
	results chan interviewmodel.TranscriptFragment
	mu      sync.Mutex
	sent    [][]byte
	closed  bool
	err     error
}

func newFakeStream() *fakeStream {
	return &fakeStream{results: make(chan interviewmodel.TranscriptFragment, 8)}
}

func (f *fakeStream) Send(audio []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, audio)
	return nil
}

func (f *fakeStream) Results() <-chan interviewmodel.TranscriptFragment { return f.results }

func (f *fakeStream) Err() error { return f.err }

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.results)
	}
	return nil
}

func (f *fakeStream) emit(text string, final bool) {
	f.results <- interviewmodel.TranscriptFragment{Text: text, IsFinal: final}
}

func (f *fakeStream) sentFrames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeStream) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeSpeech struct {
	stream   *fakeStream
	pcm      []byte
	synthErr error
}

func (f *fakeSpeech) OpenTranscription(_ context.Context, _ string) (TranscriptionStream, error) {
	return f.stream, nil
}

func (f *fakeSpeech) Synthesize(_ context.Context, req *speechmodel.SynthesizeRequest) (*speechmodel.SynthesizeResponse, error) {
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	return &speechmodel.SynthesizeResponse{
		SessionID:  req.SessionID,
		PCM:        f.pcm,
		SampleRate: 24000,
	}, nil
}

func (f *fakeSpeech) ReleaseTranscription(_ string) {}

func newGatewayTest(t *testing.T, orch *fakeOrchestrator, speech *fakeSpeech) (*websocket.Conn, *interviewservice.Service) {
	t.Helper()

	sessions := interviewservice.NewService()
	handler := NewWebSocketHandler(Deps{
		Speech:       speech,
		Orchestrator: orch,
		Sessions:     sessions,
		Interviewers: interviewer.NewMemoryStore(interviewer.Seed()),
	})

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/interview"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn, sessions
}

func readEvent(t *testing.T, conn *websocket.Conn) serverEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event serverEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event err: %v", err)
	}
	return event
}

func startInterview(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	err := conn.WriteJSON(map[string]string{"type": "start_interview", "role": "backend engineer", "level": "senior"})
	if err != nil {
		t.Fatalf("start_interview err: %v", err)
	}
}

// collectReply reads one full reply cycle and returns the text chunks, the
// decoded audio and the final event.
func collectReply(t *testing.T, conn *websocket.Conn) (textChunks []string, audio []byte, end serverEvent) {
	t.Helper()

	event := readEvent(t, conn)
	if event.Type != eventResponseStart {
		t.Fatalf("expected %s first, got %s", eventResponseStart, event.Type)
	}

	sawAudioAfterText := false
	for {
		event = readEvent(t, conn)
		switch event.Type {
		case eventTextChunk:
			if sawAudioAfterText {
				t.Fatal("text chunk arrived after audio started")
			}
			textChunks = append(textChunks, event.Chunk)
		case eventAudioChunk:
			sawAudioAfterText = true
			decoded, err := base64.StdEncoding.DecodeString(event.Chunk)
			if err != nil {
				t.Fatalf("audio chunk is not valid base64: %v", err)
			}
			if len(decoded) > 4096 {
				t.Fatalf("audio chunk exceeds 4096 bytes: %d", len(decoded))
			}
			audio = append(audio, decoded...)
		case eventResponseEnd:
			return textChunks, audio, event
		default:
			t.Fatalf("unexpected event during reply: %s", event.Type)
		}
	}
}

func TestOpeningTurnStreamsTextAndAudio(t *testing.T) {
	orch := &fakeOrchestrator{streaming: true, chunks: []string{"Hello, ", "I am Alex. ", "Tell me about yourself."}}
	speech := &fakeSpeech{stream: newFakeStream(), pcm: bytes.Repeat([]byte{0x10, 0x20}, 5000)}
	conn, _ := newGatewayTest(t, orch, speech)

	startInterview(t, conn)
	textChunks, audio, end := collectReply(t, conn)

	fullText := strings.Join(orch.chunks, "")
	if got := strings.Join(textChunks, ""); got != fullText {
		t.Fatalf("text chunks mismatch: %q", got)
	}
	if end.FullText != fullText {
		t.Fatalf("fullText mismatch: %q", end.FullText)
	}

	// Reassembled audio is one WAV container wrapping the PCM.
	if !bytes.HasPrefix(audio, []byte("RIFF")) {
		t.Fatal("reassembled audio is not a WAV container")
	}
	if len(audio) != 44+len(speech.pcm) {
		t.Fatalf("unexpected audio length: %d", len(audio))
	}
	if !bytes.Equal(audio[44:], speech.pcm) {
		t.Fatal("PCM payload corrupted in transit")
	}

	if orch.lastQuery() == "" {
		t.Fatal("opening turn must carry the synthetic greeting query")
	}
}

func TestFinalTranscriptDrivesNextTurn(t *testing.T) {
	orch := &fakeOrchestrator{streaming: false, chunks: []string{"Why that approach?"}}
	speech := &fakeSpeech{stream: newFakeStream(), pcm: []byte{0x01, 0x02}}
	conn, sessions := newGatewayTest(t, orch, speech)

	startInterview(t, conn)
	collectReply(t, conn) // greeting

	speech.stream.emit("I would use a", false)
	speech.stream.emit("I would use a queue", true)

	// Partial then final transcript events relay to the client.
	event := readEvent(t, conn)
	if event.Type != eventTranscript || event.IsFinal {
		t.Fatalf("expected partial transcript, got %+v", event)
	}
	event = readEvent(t, conn)
	if event.Type != eventTranscript || !event.IsFinal {
		t.Fatalf("expected final transcript, got %+v", event)
	}

	textChunks, _, _ := collectReply(t, conn)
	if strings.Join(textChunks, "") != "Why that approach?" {
		t.Fatalf("unexpected reply: %v", textChunks)
	}
	if orch.lastQuery() != "I would use a queue" {
		t.Fatalf("turn query mismatch: %q", orch.lastQuery())
	}

	// Both sides of the exchange are in the transcript, in order.
	deadline := time.Now().Add(2 * time.Second)
	for {
		transcripts := allTranscripts(t, sessions)
		if len(transcripts) >= 3 {
			if transcripts[1].Role != interviewmodel.RoleCandidate || transcripts[1].Content != "I would use a queue" {
				t.Fatalf("candidate turn not recorded: %+v", transcripts)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("transcript never reached 3 messages: %+v", transcripts)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func allTranscripts(t *testing.T, sessions *interviewservice.Service) []interviewmodel.Message {
	t.Helper()
	// The gateway owns the session ID; find it through the only live session.
	for _, id := range sessions.SessionIDs() {
		transcript, err := sessions.LoadTranscript(context.Background(), id)
		if err == nil {
			return transcript
		}
	}
	return nil
}

func TestAudioBeforeStartIsDropped(t *testing.T) {
	orch := &fakeOrchestrator{streaming: false, chunks: []string{"hi"}}
	speech := &fakeSpeech{stream: newFakeStream(), pcm: []byte{0x01}}
	conn, _ := newGatewayTest(t, orch, speech)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte("early audio")); err != nil {
		t.Fatalf("write err: %v", err)
	}

	startInterview(t, conn)
	collectReply(t, conn)

	if frames := speech.stream.sentFrames(); frames != 0 {
		t.Fatalf("audio sent before start must be dropped, got %d frames", frames)
	}
}

func TestSynthesisFailureDegradesToTextOnly(t *testing.T) {
	orch := &fakeOrchestrator{streaming: false, chunks: []string{"Tell me about caching."}}
	speech := &fakeSpeech{stream: newFakeStream(), synthErr: errors.New("tts unavailable")}
	conn, _ := newGatewayTest(t, orch, speech)

	startInterview(t, conn)

	event := readEvent(t, conn)
	if event.Type != eventResponseStart {
		t.Fatalf("expected response start, got %s", event.Type)
	}

	var sawText, sawSynthError bool
	for {
		event = readEvent(t, conn)
		switch event.Type {
		case eventTextChunk:
			sawText = true
		case eventError:
			if event.Stage != stageSynthesis {
				t.Fatalf("unexpected error stage: %s", event.Stage)
			}
			sawSynthError = true
		case eventAudioChunk:
			t.Fatal("no audio expected when synthesis fails")
		case eventResponseEnd:
			if !sawText || !sawSynthError {
				t.Fatalf("incomplete degraded turn: text=%v synthError=%v", sawText, sawSynthError)
			}
			if event.FullText == "" {
				t.Fatal("degraded turn must still deliver the full text")
			}
			return
		default:
			t.Fatalf("unexpected event: %s", event.Type)
		}
	}
}

func TestGenerationFailureEndsSession(t *testing.T) {
	orch := &fakeOrchestrator{streaming: false, err: errors.New("model down")}
	speech := &fakeSpeech{stream: newFakeStream(), pcm: []byte{0x01}}
	conn, _ := newGatewayTest(t, orch, speech)

	startInterview(t, conn)

	sawError := false
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var event serverEvent
		if err := conn.ReadJSON(&event); err != nil {
			// The gateway closes the connection after a fatal error.
			if !sawError {
				t.Fatalf("connection closed before error event: %v", err)
			}
			return
		}
		if event.Type == eventError && event.Stage == stageGeneration {
			sawError = true
		}
	}
}

func TestStartInterviewRequiresRole(t *testing.T) {
	orch := &fakeOrchestrator{streaming: false, chunks: []string{"hi"}}
	speech := &fakeSpeech{stream: newFakeStream(), pcm: []byte{0x01}}
	conn, _ := newGatewayTest(t, orch, speech)

	if err := conn.WriteJSON(map[string]string{"type": "start_interview"}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	event := readEvent(t, conn)
	if event.Type != eventError || event.Stage != stageProtocol {
		t.Fatalf("expected protocol error, got %+v", event)
	}

	// The session survives protocol errors; a valid start still works.
	startInterview(t, conn)
	textChunks, _, _ := collectReply(t, conn)
	if len(textChunks) == 0 {
		t.Fatal("expected a reply after recovering from the protocol error")
	}
}

func TestEndInterviewCommand(t *testing.T) {
	orch := &fakeOrchestrator{streaming: false, chunks: []string{"hi"}}
	speech := &fakeSpeech{stream: newFakeStream(), pcm: []byte{0x01}}
	conn, _ := newGatewayTest(t, orch, speech)

	startInterview(t, conn)
	collectReply(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": "end_interview"}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	event := readEvent(t, conn)
	if event.Type != eventInterviewEnded {
		t.Fatalf("expected %s, got %s", eventInterviewEnded, event.Type)
	}
}

func TestDisconnectBeforeFinalTranscript(t *testing.T) {
	orch := &fakeOrchestrator{streaming: false, chunks: []string{"Tell me more."}}
	speech := &fakeSpeech{stream: newFakeStream(), pcm: []byte{0x01, 0x02}}
	conn, sessions := newGatewayTest(t, orch, speech)

	startInterview(t, conn)
	collectReply(t, conn) // greeting

	// The candidate speaks but hangs up before any final recognition.
	for i := 0; i < 10; i++ {
		if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02, 0x03}); err != nil {
			t.Fatalf("audio frame err: %v", err)
		}
	}
	speech.stream.emit("I was about to say", false)

	event := readEvent(t, conn)
	if event.Type != eventTranscript || event.IsFinal {
		t.Fatalf("expected partial transcript, got %+v", event)
	}
	if len(allTranscripts(t, sessions)) != 1 {
		t.Fatal("partial recognition must not append to the transcript")
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !speech.stream.isClosed() {
		if time.Now().After(deadline) {
			t.Fatal("transcription stream not released after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := orch.queryCount(); got != 1 {
		t.Fatalf("abandoned utterance triggered generation: %d calls", got)
	}
}

func TestRestartDropsStaleTranscripts(t *testing.T) {
	gw := &gatewaySession{
		h:       NewWebSocketHandler(Deps{}),
		log:     zerolog.Nop(),
		session: interviewmodel.Session{ID: "session-new"},
		started: true,
		state:   interviewmodel.StateReady,
		turns:   make(chan turnRequest, 4),
	}

	// The discarded stream still holds a buffered final fragment when the
	// session is swapped out underneath it.
	stale := newFakeStream()
	stale.emit("my answer to the previous interview", true)
	stale.Close()

	done := make(chan struct{})
	go func() {
		gw.consumeTranscripts("session-old", stale)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumeTranscripts did not drain the closed stream")
	}

	select {
	case req := <-gw.turns:
		t.Fatalf("stale fragment enqueued a turn: %+v", req)
	default:
	}
	if gw.state != interviewmodel.StateReady {
		t.Fatalf("stale fragment moved session state to %s", gw.state)
	}
}
