package live

// Event is implemented by all session events.
type Event interface {
	EventType() string
}

// StateChangedEvent is emitted on every state machine transition.
type StateChangedEvent struct {
	From SessionState
	To   SessionState
}

func (e StateChangedEvent) EventType() string { return "state_changed" }

// AudioLevelEvent carries the current microphone input level (0.0 to 1.0).
type AudioLevelEvent struct {
	Level float64
}

func (e AudioLevelEvent) EventType() string { return "audio_level" }

// InputTranscriptEvent carries a fragment of the user's speech transcript.
type InputTranscriptEvent struct {
	Text string
}

func (e InputTranscriptEvent) EventType() string { return "input_transcript" }

// OutputTranscriptEvent carries a fragment of the model's spoken response text.
type OutputTranscriptEvent struct {
	Text string
}

func (e OutputTranscriptEvent) EventType() string { return "output_transcript" }

// BargeInEvent is emitted when the user interrupts model playback by speaking.
type BargeInEvent struct {
	Energy float64
}

func (e BargeInEvent) EventType() string { return "barge_in" }

// TurnCommittedEvent is emitted after a completed exchange has been written
// to the session store. MessageIDs holds the user and model message ids.
type TurnCommittedEvent struct {
	SessionID  string
	MessageIDs [2]string
	UserText   string
	ModelText  string
}

func (e TurnCommittedEvent) EventType() string { return "turn_committed" }

// MutedEvent is emitted when the microphone side is paused or resumed.
type MutedEvent struct {
	Muted bool
}

func (e MutedEvent) EventType() string { return "muted" }

// VideoEndedEvent is emitted when a frame source reports end of track and
// the capture loop stops.
type VideoEndedEvent struct{}

func (e VideoEndedEvent) EventType() string { return "video_ended" }

// ErrorEvent carries a session error. Fatal errors are followed by a
// transition to StateError.
type ErrorEvent struct {
	Err   error
	Fatal bool
}

func (e ErrorEvent) EventType() string { return "error" }

// ClosedEvent is the last event emitted before the event channel closes.
type ClosedEvent struct{}

func (e ClosedEvent) EventType() string { return "closed" }
