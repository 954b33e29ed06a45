package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	speechmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/speech"
	"github.com/ZaidMomin2003/talxify/backend/internal/observability/logging"
)

const defaultTTSEndpoint = "wss://openspeech.bytedance.com/api/v3/tts/unidirectional/stream"

const ttsResourceID = "volc.service_type.10029"

// Synthesizer renders one complete reply into raw PCM. Synthesis blocks
// until the provider delivers the full utterance; streaming playback is
// handled downstream by the gateway's chunker.
type Synthesizer struct {
	config *speechmodel.ProviderConfig
	dialer *websocket.Dialer
	log    zerolog.Logger
}

// NewSynthesizer creates a speech synthesis client.
func NewSynthesizer(config *speechmodel.ProviderConfig) *Synthesizer {
	return &Synthesizer{
		config: config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.TimeoutDuration(),
		},
		log: logging.WithComponent("speech.synthesizer"),
	}
}

type ttsRequest struct {
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	ReqParams struct {
		Speaker     string         `json:"speaker"`
		Text        string         `json:"text"`
		AudioParams ttsAudioParams `json:"audio_params"`
		Language    string         `json:"language,omitempty"`
	} `json:"req_params"`
}

type ttsAudioParams struct {
	Format      string  `json:"format"`
	SampleRate  int     `json:"sample_rate"`
	SpeedRatio  float32 `json:"speed_ratio,omitempty"`
	VolumeRatio float32 `json:"volume_ratio,omitempty"`
}

type ttsServerMessage struct {
	ReqID    string `json:"reqid"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Data     string `json:"data"`
	Addition struct {
		Duration string `json:"duration,omitempty"`
	} `json:"addition,omitempty"`
}

// Synthesize converts one reply into 16-bit mono PCM at the configured
// output sample rate. Returns only once the whole utterance is rendered.
func (s *Synthesizer) Synthesize(ctx context.Context, req *speechmodel.SynthesizeRequest) (*speechmodel.SynthesizeResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("synthesis text is empty")
	}

	appID, token, err := resolveCredentials(s.config)
	if err != nil {
		return nil, err
	}

	connectID := uuid.New().String()

	header := http.Header{}
	header.Set("X-Api-App-Key", appID)
	header.Set("X-Api-Access-Key", token)
	header.Set("X-Api-Resource-Id", ttsResourceID)
	header.Set("X-Api-Connect-Id", connectID)

	conn, resp, err := s.dialer.DialContext(ctx, defaultTTSEndpoint, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to synthesis endpoint: %w", err)
	}
	defer conn.Close()

	// A synthesis call is bounded end to end by the configured timeout.
	deadline := time.Now().Add(s.config.TimeoutDuration())
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)

	if resp != nil {
		if logid := resp.Header.Get("X-Tt-Logid"); logid != "" {
			s.log.Debug().Str("session_id", req.SessionID).Str("logid", logid).Msg("synthesis stream connected")
		}
	}

	payload, err := json.Marshal(s.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	msgBytes, err := EncodeMessage(CreateFullClientRequest(payload, NoCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, msgBytes); err != nil {
		return nil, fmt.Errorf("failed to send synthesis request: %w", err)
	}

	return s.collectAudio(ctx, conn, req.SessionID, connectID)
}

func (s *Synthesizer) buildRequest(req *speechmodel.SynthesizeRequest) *ttsRequest {
	out := &ttsRequest{}

	uid := strings.TrimSpace(req.SessionID)
	if uid == "" {
		uid = uuid.New().String()
	}
	out.User.UID = uid

	speaker := strings.TrimSpace(req.Voice)
	if speaker == "" {
		speaker = strings.TrimSpace(s.config.TTSVoice)
	}
	out.ReqParams.Speaker = speaker
	out.ReqParams.Text = req.Text

	sampleRate := s.config.TTSSampleRate
	if sampleRate == 0 {
		sampleRate = 24000
	}
	out.ReqParams.AudioParams.Format = "pcm"
	out.ReqParams.AudioParams.SampleRate = sampleRate

	speed := req.Speed
	if speed <= 0 {
		speed = s.config.TTSSpeed
	}
	if speed > 0 && speed != 1.0 {
		out.ReqParams.AudioParams.SpeedRatio = speed
	}

	volume := req.Volume
	if volume <= 0 {
		volume = s.config.TTSVolume
	}
	if volume > 0 && volume != 1.0 {
		out.ReqParams.AudioParams.VolumeRatio = volume
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = strings.TrimSpace(s.config.TTSLanguage)
	}
	out.ReqParams.Language = language

	return out
}

func (s *Synthesizer) collectAudio(ctx context.Context, conn *websocket.Conn, sessionID, connectID string) (*speechmodel.SynthesizeResponse, error) {
	var (
		audio    bytes.Buffer
		reqID    string
		duration int64
	)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read synthesis response: %w", err)
		}

		msg, err := DecodeMessage(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode synthesis message: %w", err)
		}

		switch msg.Header.MessageType {
		case ErrorMessage:
			payload, derr := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			if derr != nil {
				return nil, fmt.Errorf("synthesis error frame decode failed: %w", derr)
			}
			return nil, fmt.Errorf("synthesis error: %s", string(payload))

		case AudioOnlyServerResponse:
			chunk, derr := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			if derr != nil {
				return nil, fmt.Errorf("failed to decompress audio payload: %w", derr)
			}
			audio.Write(chunk)

		case FullServerResponse:
			payload, derr := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			if derr != nil {
				return nil, fmt.Errorf("failed to decompress synthesis payload: %w", derr)
			}

			var serverResp ttsServerMessage
			if len(payload) > 0 {
				if uerr := json.Unmarshal(payload, &serverResp); uerr != nil {
					s.log.Warn().Err(uerr).Msg("failed to unmarshal synthesis response")
				} else {
					if serverResp.Code != 0 && serverResp.Code != 3000 {
						return nil, fmt.Errorf("synthesis API error %d: %s", serverResp.Code, serverResp.Message)
					}
					if serverResp.ReqID != "" {
						reqID = serverResp.ReqID
					}
					if serverResp.Addition.Duration != "" {
						if parsed, perr := strconv.ParseInt(serverResp.Addition.Duration, 10, 64); perr == nil {
							duration = parsed
						}
					}
					if serverResp.Data != "" {
						chunk, berr := base64.StdEncoding.DecodeString(serverResp.Data)
						if berr != nil {
							return nil, fmt.Errorf("failed to decode base64 audio payload: %w", berr)
						}
						audio.Write(chunk)
					}
				}
			}

			finishedByEvent := msg.Header.MessageFlags == WithEvent && msg.EventType == EventTypeSessionFinished
			finishedBySequence := msg.IsLastPacket() || serverResp.Sequence < 0

			if finishedByEvent || finishedBySequence {
				if audio.Len() == 0 {
					return nil, fmt.Errorf("synthesis produced no audio")
				}
				if reqID == "" {
					reqID = connectID
				}
				return &speechmodel.SynthesizeResponse{
					SessionID:  sessionID,
					PCM:        audio.Bytes(),
					SampleRate: s.outputSampleRate(),
					Duration:   duration,
					RequestID:  reqID,
					CreatedAt:  time.Now(),
				}, nil
			}

		default:
			s.log.Warn().Uint8("message_type", uint8(msg.Header.MessageType)).Msg("unexpected synthesis frame")
		}
	}
}

func (s *Synthesizer) outputSampleRate() int {
	if s.config.TTSSampleRate > 0 {
		return s.config.TTSSampleRate
	}
	return 24000
}
