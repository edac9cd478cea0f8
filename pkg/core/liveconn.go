package core

// LiveConfig configures a duplex audio session.
type LiveConfig struct {
	Model  string
	System string
	APIKey string

	// LanguageCode selects the speech synthesis language, e.g. "en-US".
	LanguageCode string

	// InputSampleRate is the mic sample rate in Hz. s16le mono.
	InputSampleRate int

	// OutputSampleRate is the playback sample rate in Hz. s16le mono.
	OutputSampleRate int

	// WebSearch enables grounded search inside the live session.
	WebSearch bool

	Unrestricted bool
}

// DefaultLiveConfig returns a config with the standard audio rates.
func DefaultLiveConfig() *LiveConfig {
	return &LiveConfig{
		InputSampleRate:  16000,
		OutputSampleRate: 24000,
		LanguageCode:     "en-US",
	}
}

// LiveEventKind tags events arriving from a live connection.
type LiveEventKind int

const (
	// LiveEventInputTranscript is an incremental transcript of the user's
	// speech.
	LiveEventInputTranscript LiveEventKind = iota

	// LiveEventOutputText is incremental text of the model's spoken reply.
	LiveEventOutputText

	// LiveEventAudio carries a chunk of synthesized output audio.
	LiveEventAudio

	// LiveEventTurnComplete signals the model finished its turn. Playback
	// may still be draining.
	LiveEventTurnComplete

	// LiveEventInterrupted signals the server noticed barge-in and stopped
	// generating.
	LiveEventInterrupted

	// LiveEventError carries a terminal connection error.
	LiveEventError
)

// LiveEvent is one server event on a live connection.
type LiveEvent struct {
	Kind  LiveEventKind
	Text  string
	Audio []byte
	Err   error
}

// LiveConn is a duplex audio connection to the model. Send methods are safe
// for concurrent use. Events is closed when the connection ends.
type LiveConn interface {
	// SendAudio forwards a frame of mic audio, s16le mono at the configured
	// input rate.
	SendAudio(pcm []byte) error

	// SendVideoFrame forwards one JPEG-encoded video frame.
	SendVideoFrame(jpeg []byte) error

	// SendText injects a text turn into the session.
	SendText(text string) error

	// Events returns the server event stream.
	Events() <-chan LiveEvent

	// Close tears the connection down. Safe to call more than once.
	Close() error
}
