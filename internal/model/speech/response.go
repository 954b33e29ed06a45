package speech

import "time"

// TranscribeResponse is the finalized result of a one-shot recognition call.
type TranscribeResponse struct {
	SessionID  string    `json:"sessionId"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Duration   int64     `json:"duration"` // milliseconds
	RequestID  string    `json:"requestId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SynthesizeResponse carries raw PCM returned by the provider for one reply.
// The gateway wraps it in a WAV container before chunking for transport.
type SynthesizeResponse struct {
	SessionID  string    `json:"sessionId"`
	PCM        []byte    `json:"-"`
	SampleRate int       `json:"sampleRate"`
	Duration   int64     `json:"duration"` // milliseconds
	RequestID  string    `json:"requestId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
