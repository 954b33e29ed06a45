package speech

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]byte, 480) // 10ms at 24kHz mono 16-bit
	wav := EncodeWAV(pcm, 24000)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("unexpected wav length: %d", len(wav))
	}
	if !bytes.Equal(wav[0:4], []byte("RIFF")) {
		t.Fatalf("missing RIFF marker: %q", wav[0:4])
	}
	if !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Fatalf("missing WAVE marker: %q", wav[8:12])
	}

	if channels := binary.LittleEndian.Uint16(wav[22:24]); channels != 1 {
		t.Fatalf("expected mono, got %d channels", channels)
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 24000 {
		t.Fatalf("unexpected sample rate: %d", rate)
	}
	if bits := binary.LittleEndian.Uint16(wav[34:36]); bits != 16 {
		t.Fatalf("unexpected bit depth: %d", bits)
	}
	if dataLen := binary.LittleEndian.Uint32(wav[40:44]); dataLen != uint32(len(pcm)) {
		t.Fatalf("unexpected data chunk length: %d", dataLen)
	}
}

func TestSliceAudioPreservesOrderAndContent(t *testing.T) {
	data := make([]byte, ChunkSize*2+100)
	for i := range data {
		data[i] = byte(i % 251)
	}

	chunks := SliceAudio(data, ChunkSize)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != ChunkSize || len(chunks[1]) != ChunkSize {
		t.Fatalf("full chunks must be %d bytes, got %d and %d", ChunkSize, len(chunks[0]), len(chunks[1]))
	}
	if len(chunks[2]) != 100 {
		t.Fatalf("tail chunk must be 100 bytes, got %d", len(chunks[2]))
	}

	// Concatenating in order must reproduce the input exactly.
	var joined []byte
	for _, chunk := range chunks {
		joined = append(joined, chunk...)
	}
	if !bytes.Equal(joined, data) {
		t.Fatal("chunk concatenation does not match input")
	}
}

func TestSliceAudioEmpty(t *testing.T) {
	if chunks := SliceAudio(nil, ChunkSize); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestSliceAudioSingleChunk(t *testing.T) {
	data := []byte("short")
	chunks := SliceAudio(data, ChunkSize)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !bytes.Equal(chunks[0], data) {
		t.Fatal("single chunk must equal input")
	}
}
