package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	interviewmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
	speechmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/speech"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/logging"
)

const defaultASREndpoint = "wss://openspeech.bytedance.com/api/v3/sauc"

// ErrStreamClosed is returned by Send after the stream has been closed.
var ErrStreamClosed = errors.New("transcription stream closed")

// Transcriber dials the provider's streaming recognition endpoint. One
// WebSocket is held per interview session for its whole lifetime.
type Transcriber struct {
	config *speechmodel.ProviderConfig
	dialer *websocket.Dialer
	log    zerolog.Logger
}

// NewTranscriber creates a streaming recognition client.
func NewTranscriber(config *speechmodel.ProviderConfig) *Transcriber {
	return &Transcriber{
		config: config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.TimeoutDuration(),
		},
		log: logging.WithComponent("speech.transcriber"),
	}
}

// asrConfigRequest is the provider's session configuration payload, sent
// once as the first frame on every recognition stream.
type asrConfigRequest struct {
	User struct {
		UID string `json:"uid,omitempty"`
	} `json:"user,omitempty"`
	Audio struct {
		Language string `json:"language,omitempty"`
		Format   string `json:"format"`
		Codec    string `json:"codec,omitempty"`
		Rate     int    `json:"rate,omitempty"`
		Bits     int    `json:"bits,omitempty"`
		Channel  int    `json:"channel,omitempty"`
	} `json:"audio"`
	Request struct {
		ModelName      string `json:"model_name"`
		EnableITN      bool   `json:"enable_itn,omitempty"`
		EnablePunc     bool   `json:"enable_punc,omitempty"`
		ShowUtterances bool   `json:"show_utterances,omitempty"`
		ResultType     string `json:"result_type,omitempty"`
		EndWindowSize  int    `json:"end_window_size,omitempty"`
	} `json:"request"`
}

// asrServerMessage is the provider's recognition result payload.
type asrServerMessage struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Result   struct {
		Text       string `json:"text"`
		Utterances []struct {
			Text      string `json:"text"`
			StartTime int64  `json:"start_time"`
			EndTime   int64  `json:"end_time"`
			Definite  bool   `json:"definite"`
		} `json:"utterances,omitempty"`
	} `json:"result,omitempty"`
	AudioInfo struct {
		Duration int64 `json:"duration"`
	} `json:"audio_info,omitempty"`
}

// Open establishes a recognition stream for one session. The stream is
// configured for raw 16kHz 16-bit mono PCM; the caller feeds audio with
// Send and consumes fragments from Results until the channel closes.
func (t *Transcriber) Open(ctx context.Context, sessionID string) (*TranscriptionStream, error) {
	appID, token, err := resolveCredentials(t.config)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("X-Api-App-Key", appID)
	header.Set("X-Api-Access-Key", token)
	header.Set("X-Api-Resource-Id", "volc.bigasr.sauc.duration")
	header.Set("X-Api-Connect-Id", sessionID)

	conn, resp, err := t.dialer.DialContext(ctx, t.endpoint(), header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to recognition endpoint: %w", err)
	}

	if logid := resp.Header.Get("X-Tt-Logid"); logid != "" {
		t.log.Debug().Str("session_id", sessionID).Str("logid", logid).Msg("recognition stream connected")
	}

	if err := t.sendConfig(conn, sessionID); err != nil {
		conn.Close()
		return nil, err
	}

	stream := &TranscriptionStream{
		sessionID: sessionID,
		conn:      conn,
		log:       logging.WithSession("speech.transcriber", sessionID),
		sequence:  2, // the config frame occupies sequence 1
		results:   make(chan interviewmodel.TranscriptFragment, 16),
	}
	go stream.readLoop()

	return stream, nil
}

func (t *Transcriber) endpoint() string {
	base := strings.TrimSuffix(t.config.BaseURL, "/")
	if base == "" || !strings.HasPrefix(base, "ws") {
		base = defaultASREndpoint
	}
	model := t.config.ASRModel
	if model == "" {
		model = "bigmodel"
	}
	return base + "/" + model + "_async"
}

func (t *Transcriber) sendConfig(conn *websocket.Conn, sessionID string) error {
	req := &asrConfigRequest{}
	req.User.UID = sessionID
	req.Audio.Format = "pcm"
	req.Audio.Codec = "raw"
	req.Audio.Language = t.config.ASRLanguage
	req.Audio.Rate = t.config.SampleRate
	req.Audio.Bits = 16
	req.Audio.Channel = 1
	req.Request.ModelName = "bigmodel"
	req.Request.EnableITN = true
	req.Request.EnablePunc = true
	req.Request.ShowUtterances = true
	req.Request.ResultType = "full"
	req.Request.EndWindowSize = 800 // ms of trailing silence that closes an utterance

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal recognition config: %w", err)
	}

	compressed, err := CompressPayload(payload, GzipCompression)
	if err != nil {
		return fmt.Errorf("failed to compress recognition config: %w", err)
	}

	msg := CreateFullClientRequest(compressed, GzipCompression)
	msgBytes, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to encode recognition config: %w", err)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, msgBytes); err != nil {
		return fmt.Errorf("failed to send recognition config: %w", err)
	}
	return nil
}

// TranscriptionStream is one live recognition session. Send and Close are
// safe for one writer goroutine; Results is consumed by one reader.
type TranscriptionStream struct {
	sessionID string
	conn      *websocket.Conn
	log       zerolog.Logger

	writeMu  sync.Mutex
	sequence int32
	closed   bool

	results chan interviewmodel.TranscriptFragment

	errMu sync.Mutex
	err   error
}

// Results delivers transcript fragments in recognition order. The channel
// closes when the provider finishes the stream or a terminal error occurs;
// check Err after it closes.
func (s *TranscriptionStream) Results() <-chan interviewmodel.TranscriptFragment {
	return s.results
}

// Err reports the terminal stream error, if any, once Results has closed.
func (s *TranscriptionStream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Send forwards one chunk of raw PCM to the provider.
func (s *TranscriptionStream) Send(audio []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if len(audio) == 0 {
		return nil
	}

	compressed, err := CompressPayload(audio, GzipCompression)
	if err != nil {
		return fmt.Errorf("failed to compress audio chunk: %w", err)
	}

	msg := CreateAudioOnlyRequest(compressed, s.sequence, false, GzipCompression)
	msgBytes, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to encode audio chunk: %w", err)
	}

	if err := s.conn.WriteMessage(websocket.BinaryMessage, msgBytes); err != nil {
		return fmt.Errorf("failed to send audio chunk: %w", err)
	}
	s.sequence++
	return nil
}

// Close signals end of audio with a final negative-sequence frame and tears
// the connection down. Safe to call more than once.
func (s *TranscriptionStream) Close() error {
	s.writeMu.Lock()
	if s.closed {
		s.writeMu.Unlock()
		return nil
	}
	s.closed = true

	msg := CreateAudioOnlyRequest(nil, s.sequence, true, NoCompression)
	if msgBytes, err := EncodeMessage(msg); err == nil {
		// Best effort; the connection close below ends the stream anyway.
		_ = s.conn.WriteMessage(websocket.BinaryMessage, msgBytes)
	}
	s.writeMu.Unlock()

	// Give the read loop a moment to drain the provider's final response.
	time.AfterFunc(2*time.Second, func() { s.conn.Close() })
	return nil
}

func (s *TranscriptionStream) readLoop() {
	defer close(s.results)
	defer s.conn.Close()

	var emittedFinal int

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.fail(fmt.Errorf("failed to read recognition response: %w", err))
			return
		}

		msg, err := DecodeMessage(bytes.NewReader(data))
		if err != nil {
			s.fail(fmt.Errorf("failed to decode recognition message: %w", err))
			return
		}

		switch msg.Header.MessageType {
		case ErrorMessage:
			payload, derr := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			if derr != nil {
				s.fail(fmt.Errorf("recognition error frame decode failed: %w", derr))
				return
			}
			s.fail(fmt.Errorf("recognition error: %s", string(payload)))
			return

		case FullServerResponse:
			payload, derr := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			if derr != nil {
				s.fail(fmt.Errorf("failed to decompress recognition payload: %w", derr))
				return
			}

			var serverResp asrServerMessage
			if uerr := json.Unmarshal(payload, &serverResp); uerr != nil {
				s.log.Warn().Err(uerr).Msg("failed to unmarshal recognition response")
				continue
			}

			if serverResp.Code != 0 && serverResp.Code != 20000000 {
				s.fail(fmt.Errorf("recognition API error %d: %s", serverResp.Code, serverResp.Message))
				return
			}

			emittedFinal = s.emitFragments(&serverResp, emittedFinal)

			if msg.IsLastPacket() || serverResp.Sequence < 0 {
				return
			}

		default:
			// Audio acks and other frame types carry no transcript.
		}
	}
}

// emitFragments turns one server response into ordered fragments. Definite
// utterances are emitted exactly once as final; the trailing indefinite text
// is relayed as a partial so the client can render live captions.
func (s *TranscriptionStream) emitFragments(resp *asrServerMessage, emittedFinal int) int {
	now := time.Now()

	if len(resp.Result.Utterances) == 0 {
		if text := strings.TrimSpace(resp.Result.Text); text != "" {
			s.results <- interviewmodel.TranscriptFragment{
				SessionID:  s.sessionID,
				Text:       text,
				IsFinal:    false,
				Confidence: estimateConfidence(text),
				CreatedAt:  now,
			}
		}
		return emittedFinal
	}

	var partial strings.Builder
	for i, u := range resp.Result.Utterances {
		if u.Definite {
			if i < emittedFinal {
				continue
			}
			s.results <- interviewmodel.TranscriptFragment{
				SessionID:  s.sessionID,
				Text:       strings.TrimSpace(u.Text),
				IsFinal:    true,
				Confidence: estimateConfidence(u.Text),
				CreatedAt:  now,
			}
			emittedFinal = i + 1
			continue
		}
		if partial.Len() > 0 {
			partial.WriteString(" ")
		}
		partial.WriteString(u.Text)
	}

	if text := strings.TrimSpace(partial.String()); text != "" {
		s.results <- interviewmodel.TranscriptFragment{
			SessionID:  s.sessionID,
			Text:       text,
			IsFinal:    false,
			Confidence: estimateConfidence(text),
			CreatedAt:  now,
		}
	}
	return emittedFinal
}

func (s *TranscriptionStream) fail(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err != nil {
		return
	}
	if s.isClosed() {
		// The session hung up first; read errors after that are expected.
		return
	}
	s.err = err
	s.log.Error().Err(err).Msg("recognition stream terminated")
}

func (s *TranscriptionStream) isClosed() bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.closed
}

func estimateConfidence(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return 0.95
}
