package live

import (
	"math"
	"sync"
)

// CalculateRMSEnergy computes the root-mean-square energy of PCM audio.
// Input is assumed to be 16-bit signed little-endian PCM.
// Returns a value between 0.0 and 1.0.
func CalculateRMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < len(pcm)-1; i += 2 {
		// Little-endian 16-bit signed integer
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		// Normalize to -1.0 to 1.0
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}

// AudioLevel maps an RMS value to the 0..1 level shown on the visualizer.
func AudioLevel(rms float64) float64 {
	return math.Min(1, rms*4)
}

// AudioBuffer accumulates PCM audio chunks with a configurable maximum size.
type AudioBuffer struct {
	mu       sync.Mutex
	data     []byte
	maxBytes int
	config   AudioConfig
}

// NewAudioBuffer creates a buffer that holds up to maxDurationMs of audio.
func NewAudioBuffer(config AudioConfig, maxDurationMs int) *AudioBuffer {
	maxBytes := config.BytesForDurationMs(maxDurationMs)
	return &AudioBuffer{
		data:     make([]byte, 0, maxBytes),
		maxBytes: maxBytes,
		config:   config,
	}
}

// Write appends audio data to the buffer.
// If the buffer would exceed maxBytes, older data is discarded.
func (b *AudioBuffer) Write(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data, data...)

	// Trim from the beginning if we exceed max size
	if len(b.data) > b.maxBytes {
		excess := len(b.data) - b.maxBytes
		b.data = b.data[excess:]
	}
}

// Read drains up to len(p) bytes into p and returns the count. Unread
// data stays buffered for the next call.
func (b *AudioBuffer) Read(p []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := copy(p, b.data)
	b.data = b.data[:copy(b.data, b.data[n:])]
	return n
}

// ReadAll drains and returns everything currently buffered.
func (b *AudioBuffer) ReadAll() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]byte, len(b.data))
	copy(result, b.data)
	b.data = b.data[:0]
	return result
}

// Len returns the current buffer size in bytes.
func (b *AudioBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// DurationMs returns the current buffer duration in milliseconds.
func (b *AudioBuffer) DurationMs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.config.DurationMs(len(b.data))
}

// Clear empties the buffer.
func (b *AudioBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = b.data[:0]
}
