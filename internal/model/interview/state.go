package interview

import "strings"

// State is the session lifecycle, shared between the gateway and the client.
type State int

const (
	// StateIdle is a freshly allocated session awaiting start_interview.
	StateIdle State = iota
	// StateReady means no turn is in flight and the candidate may record.
	StateReady
	// StateListening means candidate audio frames are being accepted.
	StateListening
	// StateProcessing means a final transcript was captured and the
	// interviewer's reply is being generated.
	StateProcessing
	// StateSpeaking means interviewer text/audio is streaming out.
	StateSpeaking
	// StateEnded is terminal.
	StateEnded
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StateReady:      "ready",
	StateListening:  "listening",
	StateProcessing: "processing",
	StateSpeaking:   "speaking",
	StateEnded:      "ended",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

var transitions = map[State][]State{
	StateIdle:       {StateProcessing, StateEnded},
	StateReady:      {StateListening, StateProcessing, StateEnded},
	StateListening:  {StateProcessing, StateEnded},
	StateProcessing: {StateSpeaking, StateEnded},
	StateSpeaking:   {StateReady, StateEnded},
	StateEnded:      {},
}

// CanTransition reports whether moving from one state to another is legal.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// AcceptsAudio reports whether binary audio frames may be forwarded to the
// transcription bridge in this state. Ready is included because the first
// frame of a new recording implicitly re-enters Listening.
func (s State) AcceptsAudio() bool {
	return s == StateListening || s == StateReady
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
