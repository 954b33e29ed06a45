package speech

import "io"

// TranscribeRequest is a one-shot speech recognition request (REST surface).
type TranscribeRequest struct {
	SessionID string    `json:"sessionId"`
	AudioData io.Reader `json:"-"`
	Format    string    `json:"format"`   // wav, pcm, webm, ...
	Language  string    `json:"language"` // en-US, ...
}

// SynthesizeRequest is a text-to-speech request for one complete reply.
type SynthesizeRequest struct {
	SessionID string  `json:"sessionId"`
	Text      string  `json:"text"`
	Voice     string  `json:"voice"`
	Speed     float32 `json:"speed"`  // rate multiplier 0.5-2.0
	Volume    float32 `json:"volume"` // 0.0-1.0
	Language  string  `json:"language"`
}
