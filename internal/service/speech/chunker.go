package speech

import "encoding/binary"

// ChunkSize is the fixed transport slice size for synthesized audio. The
// client decodes chunks in array order; chunk N may depend on container
// framing carried from chunk N-1, so order must be preserved end to end.
const ChunkSize = 4096

const (
	wavHeaderSize  = 44
	wavNumChannels = 1
	wavBitsPerSamp = 16
)

// EncodeWAV wraps raw 16-bit mono PCM in a RIFF/WAVE container so the
// browser can decode one coherent buffer per turn.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	out := make([]byte, wavHeaderSize+len(pcm))

	byteRate := sampleRate * wavNumChannels * wavBitsPerSamp / 8
	blockAlign := wavNumChannels * wavBitsPerSamp / 8

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // linear PCM
	binary.LittleEndian.PutUint16(out[22:24], wavNumChannels)
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], wavBitsPerSamp)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[wavHeaderSize:], pcm)

	return out
}

// SliceAudio splits an audio buffer into sequential chunks of at most size
// bytes. Slices reference the original buffer; callers must not mutate it.
func SliceAudio(data []byte, size int) [][]byte {
	if size <= 0 || len(data) == 0 {
		return nil
	}

	chunks := make([][]byte, 0, (len(data)+size-1)/size)
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[start:end])
	}

	return chunks
}
