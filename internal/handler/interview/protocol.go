package interview

import "encoding/json"

// Client commands.
const (
	commandStartInterview = "start_interview"
	commandEndInterview   = "end_interview"
)

// Server event types. Events for one reply are strictly ordered:
// ai_response_start, then text chunks interleaved with audio chunks in
// generation order, then ai_response_end.
const (
	eventTranscript     = "transcript"
	eventResponseStart  = "ai_response_start"
	eventTextChunk      = "ai_text_chunk"
	eventAudioChunk     = "ai_audio_chunk"
	eventResponseEnd    = "ai_response_end"
	eventError          = "error"
	eventInterviewEnded = "interview_ended"
)

// Error stages mirror the pipeline step that failed.
const (
	stageTranscription = "transcription"
	stageGeneration    = "generation"
	stageSynthesis     = "synthesis"
	stageProtocol      = "protocol"
)

// clientCommand is an inbound JSON control frame. Binary frames carry raw
// candidate audio and never reach this decoder.
type clientCommand struct {
	Type  string `json:"type"`
	Role  string `json:"role,omitempty"`
	Level string `json:"level,omitempty"`
}

func parseCommand(data []byte) (*clientCommand, error) {
	var cmd clientCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// serverEvent is one outbound JSON frame.
type serverEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text,omitempty"`
	IsFinal   bool   `json:"isFinal,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	FullText  string `json:"fullText,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Message   string `json:"message,omitempty"`
}
