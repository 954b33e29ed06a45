package main

import (
	"testing"

	interviewmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
)

func TestAdvanceFollowsTurnCycle(t *testing.T) {
	state := interviewmodel.StateIdle

	steps := []struct {
		event   string
		isFinal bool
		want    interviewmodel.State
	}{
		{"ai_response_start", false, interviewmodel.StateProcessing},
		{"ai_text_chunk", false, interviewmodel.StateSpeaking},
		{"ai_audio_chunk", false, interviewmodel.StateSpeaking},
		{"ai_response_end", false, interviewmodel.StateReady},
		{"transcript", false, interviewmodel.StateReady},
		{"transcript", true, interviewmodel.StateProcessing},
		{"ai_text_chunk", false, interviewmodel.StateSpeaking},
		{"ai_response_end", false, interviewmodel.StateReady},
		{"interview_ended", false, interviewmodel.StateEnded},
	}

	for i, step := range steps {
		state = advance(state, step.event, step.isFinal)
		if state != step.want {
			t.Fatalf("step %d (%s): state = %s, want %s", i, step.event, state, step.want)
		}
	}
}

func TestAdvanceIgnoresIllegalTransitions(t *testing.T) {
	// An audio chunk cannot move a finished session.
	if got := advance(interviewmodel.StateEnded, "ai_audio_chunk", false); got != interviewmodel.StateEnded {
		t.Fatalf("ended session advanced to %s", got)
	}
	// Unknown events leave the state alone.
	if got := advance(interviewmodel.StateReady, "surprise", false); got != interviewmodel.StateReady {
		t.Fatalf("unknown event advanced to %s", got)
	}
}

func TestPlaybackGatesRecording(t *testing.T) {
	var p playback

	if p.get().AcceptsAudio() {
		t.Fatal("idle session must not record")
	}

	p.apply("ai_response_start", false)
	p.apply("ai_text_chunk", false)
	p.apply("ai_response_end", false)
	if !p.get().AcceptsAudio() {
		t.Fatal("session should accept audio once the reply finished")
	}

	p.markListening()
	if p.get() != interviewmodel.StateListening {
		t.Fatalf("state = %s, want listening", p.get())
	}

	p.apply("transcript", true)
	if p.get().AcceptsAudio() {
		t.Fatal("a finalized utterance must stop the recording")
	}
}
