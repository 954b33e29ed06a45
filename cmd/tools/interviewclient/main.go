// Command interviewclient is a terminal client for the interview gateway.
// It dials the websocket, starts an interview, optionally streams a raw PCM
// file as microphone input, and reassembles the interviewer's audio replies
// into WAV files in arrival order.
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	interviewmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/interview"
)

const frameSize = 6400 // 200ms of 16kHz mono 16-bit PCM

// writeMu serializes socket writes: control frames from the event loop can
// race the audio streamer otherwise.
var writeMu sync.Mutex

func writeJSON(conn *websocket.Conn, v any) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	return conn.WriteJSON(v)
}

func writeBinary(conn *websocket.Conn, data []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// playback tracks the session state machine on the client side, so audio is
// only sent while the gateway will accept it.
type playback struct {
	mu    sync.Mutex
	state interviewmodel.State
}

func (p *playback) get() interviewmodel.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// apply folds one server event into the state machine and returns the new
// state.
func (p *playback) apply(eventType string, isFinal bool) interviewmodel.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = advance(p.state, eventType, isFinal)
	return p.state
}

// markListening records that microphone audio is flowing.
func (p *playback) markListening() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.CanTransition(interviewmodel.StateListening) {
		p.state = interviewmodel.StateListening
	}
}

// advance maps one server event onto the session state machine. Illegal
// transitions leave the state untouched.
func advance(state interviewmodel.State, eventType string, isFinal bool) interviewmodel.State {
	var to interviewmodel.State
	switch eventType {
	case "transcript":
		if !isFinal {
			return state
		}
		to = interviewmodel.StateProcessing
	case "ai_response_start":
		to = interviewmodel.StateProcessing
	case "ai_text_chunk", "ai_audio_chunk":
		to = interviewmodel.StateSpeaking
	case "ai_response_end":
		to = interviewmodel.StateReady
	case "interview_ended":
		to = interviewmodel.StateEnded
	default:
		return state
	}
	if to == state || !state.CanTransition(to) {
		return state
	}
	return to
}

type clientEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text,omitempty"`
	IsFinal   bool   `json:"isFinal,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	FullText  string `json:"fullText,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Message   string `json:"message,omitempty"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	addr := flag.String("addr", "ws://localhost:8080/ws/interview", "gateway websocket URL")
	role := flag.String("role", "backend engineer", "target role for the interview")
	level := flag.String("level", "mid", "seniority level")
	audioPath := flag.String("audio", "", "raw PCM file streamed as microphone input after the greeting")
	outDir := flag.String("out", ".", "directory for reassembled reply WAV files")
	turns := flag.Int("turns", 1, "number of interviewer replies to wait for")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		log.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	start := map[string]string{"type": "start_interview", "role": *role, "level": *level}
	if err := writeJSON(conn, start); err != nil {
		log.Fatalf("start_interview failed: %v", err)
	}
	log.Printf("interview requested: role=%q level=%q", *role, *level)

	done := make(chan struct{})
	go func() {
		defer close(done)
		consumeEvents(conn, *audioPath, *outDir, *turns)
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("interrupted, ending interview")
		_ = writeJSON(conn, map[string]string{"type": "end_interview"})
		select {
		case <-done:
		case <-time.After(3 * time.Second):
		}
	}
}

// consumeEvents drains the server event stream. Audio chunks arrive
// base64-encoded in playback order, so appending them as they come
// reproduces the reply exactly.
func consumeEvents(conn *websocket.Conn, audioPath, outDir string, turns int) {
	var (
		state      playback
		replyAudio []byte
		replyIndex int
		audioSent  bool
	)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("connection closed by server")
			} else {
				log.Printf("read error: %v", err)
			}
			return
		}

		var event clientEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("skipping malformed event: %v", err)
			continue
		}
		state.apply(event.Type, event.IsFinal)

		switch event.Type {
		case "transcript":
			marker := "…"
			if event.IsFinal {
				marker = "✓"
			}
			log.Printf("you %s %s", marker, event.Text)

		case "ai_response_start":
			replyAudio = replyAudio[:0]
			fmt.Print("interviewer: ")

		case "ai_text_chunk":
			fmt.Print(event.Chunk)

		case "ai_audio_chunk":
			chunk, err := base64.StdEncoding.DecodeString(event.Chunk)
			if err != nil {
				log.Printf("bad audio chunk: %v", err)
				continue
			}
			replyAudio = append(replyAudio, chunk...)

		case "ai_response_end":
			fmt.Println()
			replyIndex++
			if len(replyAudio) > 0 {
				path := filepath.Join(outDir, fmt.Sprintf("reply-%02d.wav", replyIndex))
				if err := os.WriteFile(path, replyAudio, 0o644); err != nil {
					log.Printf("failed to write %s: %v", path, err)
				} else {
					log.Printf("reply audio saved to %s (%d bytes)", path, len(replyAudio))
				}
			} else {
				log.Println("reply was text-only")
			}

			if replyIndex >= turns {
				_ = writeJSON(conn, map[string]string{"type": "end_interview"})
				return
			}
			if audioPath != "" && !audioSent {
				audioSent = true
				go streamAudio(conn, audioPath, &state)
			}

		case "error":
			log.Printf("server error: stage=%s message=%s", event.Stage, event.Message)

		case "interview_ended":
			log.Println("interview ended")
			return
		}
	}
}

// streamAudio paces a raw PCM file onto the socket in real-time sized frames,
// the way a browser would deliver microphone buffers. Frames stop as soon as
// the session leaves a recording state.
func streamAudio(conn *websocket.Conn, path string, state *playback) {
	audio, err := os.ReadFile(path)
	if err != nil {
		log.Printf("failed to read audio file: %v", err)
		return
	}

	log.Printf("streaming %d bytes of audio from %s", len(audio), path)
	state.markListening()
	for offset := 0; offset < len(audio); offset += frameSize {
		if s := state.get(); !s.AcceptsAudio() {
			log.Printf("recording stopped, session is %s", s)
			return
		}
		end := offset + frameSize
		if end > len(audio) {
			end = len(audio)
		}
		if err := writeBinary(conn, audio[offset:end]); err != nil {
			log.Printf("audio frame failed: %v", err)
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}
