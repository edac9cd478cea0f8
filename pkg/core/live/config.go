package live

import (
	"time"
)

// SessionState represents the current state of the voice session.
type SessionState int

const (
	// StateIdle is before Start and after Close.
	StateIdle SessionState = iota
	// StateConnecting is while the live connection is being established.
	StateConnecting
	// StateConnected is after the transport is up, before the first
	// listening transition.
	StateConnected
	// StateListening is when mic audio is being forwarded and no reply is
	// playing.
	StateListening
	// StateSpeaking is while reply audio is queued or playing.
	StateSpeaking
	// StateError is terminal after a connection failure.
	StateError
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateListening:
		return "LISTENING"
	case StateSpeaking:
		return "SPEAKING"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// AudioConfig describes a PCM format. All audio here is s16le.
type AudioConfig struct {
	SampleRate    int `json:"sample_rate"`
	Channels      int `json:"channels"`
	BitsPerSample int `json:"bits_per_sample"`
}

// DefaultInputAudioConfig is the mic format the live API expects.
func DefaultInputAudioConfig() AudioConfig {
	return AudioConfig{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
}

// DefaultOutputAudioConfig is the synthesized speech format.
func DefaultOutputAudioConfig() AudioConfig {
	return AudioConfig{SampleRate: 24000, Channels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the byte rate for this format.
func (c AudioConfig) BytesPerSecond() int {
	return c.SampleRate * c.Channels * c.BitsPerSample / 8
}

// DurationMs returns how many milliseconds of audio the given byte count
// holds.
func (c AudioConfig) DurationMs(byteCount int) int {
	bps := c.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return byteCount * 1000 / bps
}

// BytesForDurationMs returns how many bytes cover the given duration.
func (c AudioConfig) BytesForDurationMs(ms int) int {
	return c.BytesPerSecond() * ms / 1000
}

// BargeInConfig tunes interruption detection.
type BargeInConfig struct {
	// EnergyThreshold is the RMS level (0..1) a mic frame must exceed to
	// count as speech over playback.
	EnergyThreshold float64 `json:"energy_threshold"`

	// ConsecutiveFrames is how many frames in a row must exceed the
	// threshold before the interrupt fires.
	ConsecutiveFrames int `json:"consecutive_frames"`
}

// DefaultBargeInConfig returns the tuned defaults.
func DefaultBargeInConfig() BargeInConfig {
	return BargeInConfig{
		EnergyThreshold:   0.015,
		ConsecutiveFrames: 2,
	}
}

// VideoConfig tunes the auxiliary frame feed.
type VideoConfig struct {
	// Interval between captured frames.
	Interval time.Duration `json:"interval"`

	// MaxWidth bounds the frame width after downscaling.
	MaxWidth int `json:"max_width"`

	// JPEGQuality for the encoded frame, 1..100.
	JPEGQuality int `json:"jpeg_quality"`
}

// DefaultCameraConfig captures camera frames every 1.5s.
func DefaultCameraConfig() VideoConfig {
	return VideoConfig{Interval: 1500 * time.Millisecond, MaxWidth: 1024, JPEGQuality: 70}
}

// DefaultScreenConfig captures screen frames every 2s.
func DefaultScreenConfig() VideoConfig {
	return VideoConfig{Interval: 2 * time.Second, MaxWidth: 1024, JPEGQuality: 70}
}

// Config holds everything a voice session needs.
type Config struct {
	// Model is the live model name.
	Model string `json:"model"`

	// System is the assembled voice system instruction.
	System string `json:"system,omitempty"`

	// LanguageCode selects speech synthesis language, e.g. "ru-RU".
	LanguageCode string `json:"language_code,omitempty"`

	// APIKey is the credential for the live connection.
	APIKey string `json:"-"`

	Input  AudioConfig `json:"input"`
	Output AudioConfig `json:"output"`

	BargeIn BargeInConfig `json:"barge_in"`

	// SettleDelay is the quiet window after the last played chunk before
	// the turn is considered finished.
	SettleDelay time.Duration `json:"settle_delay"`

	// PollInterval is how often turn completion is re-checked.
	PollInterval time.Duration `json:"poll_interval"`

	// Incognito suppresses transcript commits to the store.
	Incognito bool `json:"incognito,omitempty"`

	// WebSearch enables grounded search inside the session.
	WebSearch bool `json:"web_search,omitempty"`

	Unrestricted bool `json:"unrestricted,omitempty"`
}

// DefaultLiveModel is used when Config.Model is empty.
const DefaultLiveModel = "gemini-2.0-flash-live-001"

// DefaultConfig returns a Config with the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Model:        DefaultLiveModel,
		Input:        DefaultInputAudioConfig(),
		Output:       DefaultOutputAudioConfig(),
		BargeIn:      DefaultBargeInConfig(),
		SettleDelay:  300 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
	}
}
