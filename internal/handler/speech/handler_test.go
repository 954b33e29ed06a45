package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	speechmodel "github.com/ZaidMomin2003/talxify/backend/internal/model/speech"
)

type fakeSpeechService struct {
	transcribeSession string
	transcribeFormat  string
	synthSession      string
	synthText         string
	pcm               []byte
}

func (f *fakeSpeechService) TranscribeOnce(ctx context.Context, req *speechmodel.TranscribeRequest) (*speechmodel.TranscribeResponse, error) {
	f.transcribeSession = req.SessionID
	f.transcribeFormat = req.Format
	return &speechmodel.TranscribeResponse{SessionID: req.SessionID, Text: "ok"}, nil
}

func (f *fakeSpeechService) SynthesizeToBuffer(ctx context.Context, sessionID, text, voice, language string) (*speechmodel.SynthesizeResponse, error) {
	f.synthSession = sessionID
	f.synthText = text
	return &speechmodel.SynthesizeResponse{SessionID: sessionID, PCM: f.pcm, SampleRate: 24000}, nil
}

func newTestRouter(svc SpeechService) chi.Router {
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r
}

func TestTranscribeParsesMultipart(t *testing.T) {
	fakeSvc := &fakeSpeechService{}
	r := newTestRouter(fakeSvc)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", "sample.webm")
	if err != nil {
		t.Fatalf("CreateFormFile err: %v", err)
	}
	if _, err := part.Write([]byte("audio")); err != nil {
		t.Fatalf("write audio err: %v", err)
	}
	if err := writer.WriteField("sessionId", "sess-1"); err != nil {
		t.Fatalf("WriteField err: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close err: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if fakeSvc.transcribeSession != "sess-1" {
		t.Fatalf("expected session sess-1, got %s", fakeSvc.transcribeSession)
	}
	if fakeSvc.transcribeFormat != "webm" {
		t.Fatalf("expected webm format, got %s", fakeSvc.transcribeFormat)
	}

	var resp speechmodel.TranscribeResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response err: %v", err)
	}
	if resp.Text != "ok" {
		t.Fatalf("unexpected transcript: %s", resp.Text)
	}
}

func TestTranscribeRequiresAudio(t *testing.T) {
	r := newTestRouter(&fakeSpeechService{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("sessionId", "sess-1"); err != nil {
		t.Fatalf("WriteField err: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close err: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 status, got %d", rr.Code)
	}
}

func TestSynthesizeRespondsWAV(t *testing.T) {
	fakeSvc := &fakeSpeechService{pcm: bytes.Repeat([]byte{0x01, 0x02}, 100)}
	r := newTestRouter(fakeSvc)

	payload, err := json.Marshal(map[string]any{"sessionId": "sess-2", "text": "hello there"})
	if err != nil {
		t.Fatalf("Marshal err: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/speech/synthesize", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Fatalf("expected audio/wav, got %s", ct)
	}
	if fakeSvc.synthSession != "sess-2" {
		t.Fatalf("expected session sess-2, got %s", fakeSvc.synthSession)
	}

	wav, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("ReadAll err: %v", err)
	}
	if len(wav) != 44+len(fakeSvc.pcm) {
		t.Fatalf("unexpected wav length: %d", len(wav))
	}
	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Fatalf("expected RIFF header, got %q", wav[:4])
	}
}

func TestSynthesizeRequiresText(t *testing.T) {
	r := newTestRouter(&fakeSpeechService{})

	payload := []byte(`{"sessionId":"sess-3","text":"   "}`)
	req := httptest.NewRequest(http.MethodPost, "/speech/synthesize", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 status, got %d", rr.Code)
	}
}

func TestInferAudioFormat(t *testing.T) {
	cases := map[string]string{
		"clip.mp3":  "mp3",
		"clip.PCM":  "pcm",
		"clip.webm": "webm",
		"clip.m4a":  "m4a",
		"clip.wav":  "wav",
		"clip":      "wav",
	}
	for filename, want := range cases {
		if got := inferAudioFormat(filename); got != want {
			t.Fatalf("inferAudioFormat(%s) = %s, want %s", filename, got, want)
		}
	}
}
