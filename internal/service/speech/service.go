package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	speechmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/speech"
)

// Service is the speech layer's entry point. It owns the recognition and
// synthesis clients and tracks live recognition streams so shutdown can
// release their provider connections.
type Service struct {
	config      *speechmodel.ProviderConfig
	transcriber *Transcriber
	synthesizer *Synthesizer
	streams     *streamRegistry
}

// NewService creates a speech service instance.
func NewService(config *speechmodel.ProviderConfig) *Service {
	return &Service{
		config:      config,
		transcriber: NewTranscriber(config),
		synthesizer: NewSynthesizer(config),
		streams:     newStreamRegistry(),
	}
}

// OpenTranscription starts a recognition stream bound to sessionID. Opening
// a second stream for the same session closes the first.
func (s *Service) OpenTranscription(ctx context.Context, sessionID string) (*TranscriptionStream, error) {
	stream, err := s.transcriber.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.streams.add(sessionID, stream)
	return stream, nil
}

// ReleaseTranscription closes and forgets the session's recognition stream.
func (s *Service) ReleaseTranscription(sessionID string) {
	s.streams.remove(sessionID)
}

// Synthesize renders one reply into PCM.
func (s *Service) Synthesize(ctx context.Context, req *speechmodel.SynthesizeRequest) (*speechmodel.SynthesizeResponse, error) {
	return s.synthesizer.Synthesize(ctx, req)
}

// SynthesizeToBuffer is a convenience wrapper used by the REST surface.
func (s *Service) SynthesizeToBuffer(ctx context.Context, sessionID, text, voice, language string) (*speechmodel.SynthesizeResponse, error) {
	return s.Synthesize(ctx, &speechmodel.SynthesizeRequest{
		SessionID: sessionID,
		Text:      text,
		Voice:     voice,
		Language:  language,
	})
}

// oneShotChunkSize is 200ms of 16kHz 16-bit mono PCM.
const oneShotChunkSize = 6400

// TranscribeOnce recognizes a complete pre-recorded buffer. It drives the
// streaming bridge internally, pacing chunks the way a live microphone
// would, and returns the concatenated final transcript.
func (s *Service) TranscribeOnce(ctx context.Context, req *speechmodel.TranscribeRequest) (*speechmodel.TranscribeResponse, error) {
	audio := make([]byte, 0)
	buf := make([]byte, 1024)
	for {
		n, err := req.AudioData.Read(buf)
		if n > 0 {
			audio = append(audio, buf[:n]...)
		}
		if err != nil {
			break
		}
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio data to transcribe")
	}

	stream, err := s.transcriber.Open(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	sendErrCh := make(chan error, 1)
	go func() {
		sendErrCh <- pumpAudio(ctx, stream, audio)
	}()

	var parts []string
	for fragment := range stream.Results() {
		if fragment.IsFinal {
			parts = append(parts, fragment.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	if err := <-sendErrCh; err != nil {
		return nil, err
	}

	text := strings.Join(parts, " ")
	return &speechmodel.TranscribeResponse{
		SessionID:  req.SessionID,
		Text:       text,
		Confidence: estimateConfidence(text),
		RequestID:  req.SessionID,
		CreatedAt:  time.Now(),
	}, nil
}

func pumpAudio(ctx context.Context, stream *TranscriptionStream, audio []byte) error {
	for start := 0; start < len(audio); start += oneShotChunkSize {
		end := start + oneShotChunkSize
		if end > len(audio) {
			end = len(audio)
		}
		if err := stream.Send(audio[start:end]); err != nil {
			return err
		}
		if end == len(audio) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return stream.Close()
}

// Cleanup releases all live recognition streams.
func (s *Service) Cleanup() {
	s.streams.closeAll()
}

// streamRegistry tracks live recognition streams by session.
type streamRegistry struct {
	mu      sync.RWMutex
	streams map[string]*TranscriptionStream
}

func newStreamRegistry() *streamRegistry {
	return &streamRegistry{
		streams: make(map[string]*TranscriptionStream),
	}
}

func (r *streamRegistry) add(sessionID string, stream *TranscriptionStream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, exists := r.streams[sessionID]; exists {
		old.Close()
	}
	r.streams[sessionID] = stream
}

func (r *streamRegistry) remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stream, exists := r.streams[sessionID]; exists {
		stream.Close()
		delete(r.streams, sessionID)
	}
}

func (r *streamRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sessionID, stream := range r.streams {
		stream.Close()
		delete(r.streams, sessionID)
	}
}
