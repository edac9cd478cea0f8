package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/neochat-ai/neochat/pkg/core"
	"github.com/neochat-ai/neochat/pkg/core/store"
	"github.com/neochat-ai/neochat/pkg/core/types"
)

// Controller runs one duplex voice session end to end: it owns the live
// connection, the playback queue, barge-in detection, and transcript
// commits to the session store.
type Controller struct {
	gateway core.ModelGateway
	store   *store.Store
	sink    AudioSink
	config  Config
	logger  *slog.Logger

	conn     core.LiveConn
	queue    *PlaybackQueue
	detector *BargeInDetector

	mu          sync.Mutex
	state       SessionState
	sessionID   string
	muted       bool
	userText    strings.Builder
	modelText   strings.Builder
	turnPending bool

	// evMu orders emit against the channel close in Close.
	evMu   sync.RWMutex
	events chan Event
	closed atomic.Bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a controller in StateIdle. st may be nil when
// transcripts should not be persisted at all.
func NewController(gateway core.ModelGateway, st *store.Store, sink AudioSink, config Config, opts ...ControllerOption) *Controller {
	def := DefaultConfig()
	if config.Model == "" {
		config.Model = def.Model
	}
	if config.Input.SampleRate == 0 {
		config.Input = def.Input
	}
	if config.Output.SampleRate == 0 {
		config.Output = def.Output
	}
	if config.SettleDelay <= 0 {
		config.SettleDelay = def.SettleDelay
	}
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}

	c := &Controller{
		gateway:  gateway,
		store:    st,
		sink:     sink,
		config:   config,
		logger:   slog.Default(),
		state:    StateIdle,
		detector: NewBargeInDetector(config.BargeIn),
		events:   make(chan Event, 64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the session event stream. The channel closes after Close.
func (c *Controller) Events() <-chan Event { return c.events }

// State returns the current session state.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start opens the live connection and begins the session. sessionID names
// the chat session that receives committed transcripts; it may be empty
// when the controller was built without a store.
func (c *Controller) Start(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("session already started (state %s)", c.state)
	}
	c.sessionID = sessionID
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.setState(StateConnecting)

	conn, err := c.gateway.Live(ctx, &core.LiveConfig{
		Model:            c.config.Model,
		System:           c.config.System,
		APIKey:           c.config.APIKey,
		LanguageCode:     c.config.LanguageCode,
		InputSampleRate:  c.config.Input.SampleRate,
		OutputSampleRate: c.config.Output.SampleRate,
		WebSearch:        c.config.WebSearch,
		Unrestricted:     c.config.Unrestricted,
	})
	if err != nil {
		cancel()
		c.setState(StateError)
		c.emit(ErrorEvent{Err: err, Fatal: true})
		return err
	}
	c.conn = conn
	c.queue = NewPlaybackQueue(c.sink, func(err error) {
		c.logger.Warn("playback error", "error", err)
		c.emit(ErrorEvent{Err: err})
	})

	c.setState(StateConnected)
	c.setState(StateListening)

	c.wg.Add(2)
	go c.readLoop()
	go c.completionLoop(ctx)

	c.logger.Info("voice session started", "session_id", sessionID, "model", c.config.Model)
	return nil
}

// ProcessAudio feeds one frame of mic audio into the session. Audio is
// always forwarded upstream, even while the model is speaking; the server
// needs it for its own interruption detection. While speaking, sustained
// input energy triggers a local barge-in that cuts playback immediately.
// Muted frames are dropped before any of that happens.
func (c *Controller) ProcessAudio(pcm []byte) error {
	if c.closed.Load() {
		return nil
	}

	c.mu.Lock()
	state := c.state
	conn := c.conn
	muted := c.muted
	c.mu.Unlock()

	if muted {
		return nil
	}
	if state != StateListening && state != StateSpeaking {
		return nil
	}

	if err := conn.SendAudio(pcm); err != nil {
		return err
	}

	rms := CalculateRMSEnergy(pcm)
	c.emit(AudioLevelEvent{Level: AudioLevel(rms)})

	if state == StateSpeaking && c.detector.Process(rms) {
		c.bargeIn(rms)
	}
	return nil
}

// SetMuted pauses or resumes the microphone side of the session. While
// muted, ProcessAudio drops frames instead of forwarding them, so the
// barge-in detector sees no input either.
func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	changed := c.muted != muted
	c.muted = muted
	if muted {
		// A stale streak must not fire the moment the mic comes back.
		c.detector.Reset()
	}
	c.mu.Unlock()
	if changed {
		c.emit(MutedEvent{Muted: muted})
		c.logger.Debug("mute toggled", "muted", muted)
	}
}

// ToggleMute flips the mute state and returns the new value.
func (c *Controller) ToggleMute() bool {
	c.mu.Lock()
	c.muted = !c.muted
	muted := c.muted
	if muted {
		c.detector.Reset()
	}
	c.mu.Unlock()
	c.emit(MutedEvent{Muted: muted})
	c.logger.Debug("mute toggled", "muted", muted)
	return muted
}

// Muted reports whether the microphone side is paused.
func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// SendVideoFrame forwards one captured frame, downscaled and JPEG-encoded
// per cfg. Used by StartVideo and available directly for callers that run
// their own capture loop.
func (c *Controller) SendVideoFrame(frame []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil || c.closed.Load() {
		return nil
	}
	return conn.SendVideoFrame(frame)
}

// SendText injects a typed message into the voice session.
func (c *Controller) SendText(text string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("session not started")
	}
	return conn.SendText(text)
}

// StartVideo begins a capture loop that grabs a frame from source every
// cfg.Interval and sends it until the session closes or ctx ends.
func (c *Controller) StartVideo(ctx context.Context, source FrameSource, cfg VideoConfig) {
	if cfg.Interval <= 0 {
		cfg = DefaultCameraConfig()
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if c.closed.Load() {
				return
			}
			img, err := source.Grab()
			if err != nil {
				if errors.Is(err, io.EOF) {
					// The underlying track ended; stop capturing.
					c.emit(VideoEndedEvent{})
					c.logger.Info("video capture ended")
					return
				}
				c.logger.Warn("frame capture failed", "error", err)
				continue
			}
			encoded, err := EncodeFrame(img, cfg)
			if err != nil {
				c.logger.Warn("frame encode failed", "error", err)
				continue
			}
			if err := c.SendVideoFrame(encoded); err != nil {
				c.logger.Warn("frame send failed", "error", err)
			}
		}
	}()
}

// Close tears the session down. Safe to call more than once; only the
// first call does anything.
func (c *Controller) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}
	var err error
	if c.conn != nil {
		err = c.conn.Close()
	}
	if c.queue != nil {
		c.queue.Close()
	}
	c.wg.Wait()

	c.setState(StateIdle)
	c.evMu.Lock()
	select {
	case c.events <- ClosedEvent{}:
	default:
	}
	close(c.events)
	c.evMu.Unlock()
	c.logger.Info("voice session closed", "session_id", c.sessionID)
	return err
}

func (c *Controller) bargeIn(energy float64) {
	c.queue.Clear()
	c.mu.Lock()
	// The partial model reply is gone from the air; do not commit it.
	c.modelText.Reset()
	c.turnPending = false
	c.mu.Unlock()
	c.setState(StateListening)
	c.emit(BargeInEvent{Energy: energy})
	c.logger.Debug("barge-in", "energy", energy)
}

func (c *Controller) readLoop() {
	defer c.wg.Done()

	for ev := range c.conn.Events() {
		if c.closed.Load() {
			return
		}
		switch ev.Kind {
		case core.LiveEventInputTranscript:
			c.mu.Lock()
			c.userText.WriteString(ev.Text)
			c.mu.Unlock()
			c.emit(InputTranscriptEvent{Text: ev.Text})

		case core.LiveEventOutputText:
			c.mu.Lock()
			c.modelText.WriteString(ev.Text)
			c.mu.Unlock()
			c.emit(OutputTranscriptEvent{Text: ev.Text})

		case core.LiveEventAudio:
			c.queue.Enqueue(ev.Audio)
			if c.State() == StateListening {
				c.detector.Reset()
				c.setState(StateSpeaking)
			}

		case core.LiveEventTurnComplete:
			c.mu.Lock()
			c.turnPending = true
			c.mu.Unlock()

		case core.LiveEventInterrupted:
			// Server-side interruption detection beat the local detector.
			c.queue.Clear()
			c.mu.Lock()
			c.modelText.Reset()
			c.turnPending = false
			c.mu.Unlock()
			if c.State() == StateSpeaking {
				c.setState(StateListening)
			}

		case core.LiveEventError:
			c.emit(ErrorEvent{Err: ev.Err, Fatal: true})
			c.setState(StateError)
			return
		}
	}
}

// completionLoop watches for the end of a model turn. A turn is complete
// only when the server signaled turn complete AND the playback queue has
// drained AND nothing is playing. The settle delay guards against audio
// chunks that arrive just after the queue momentarily empties.
func (c *Controller) completionLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if c.closed.Load() {
			return
		}

		c.mu.Lock()
		pending := c.turnPending
		c.mu.Unlock()
		if !pending || !c.queue.Idle() {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.config.SettleDelay):
		}

		c.mu.Lock()
		if !c.turnPending {
			c.mu.Unlock()
			continue
		}
		c.mu.Unlock()
		if !c.queue.Idle() {
			continue
		}

		c.finishTurn()
	}
}

func (c *Controller) finishTurn() {
	c.mu.Lock()
	user := strings.TrimSpace(c.userText.String())
	model := strings.TrimSpace(c.modelText.String())
	c.userText.Reset()
	c.modelText.Reset()
	c.turnPending = false
	sessionID := c.sessionID
	c.mu.Unlock()

	if c.State() == StateSpeaking {
		c.setState(StateListening)
	}

	// A spoken exchange is only worth keeping when both sides said
	// something. One-sided turns (a question the model never answered,
	// or model audio with no transcribed input) are dropped.
	if user == "" || model == "" {
		return
	}

	var ids [2]string
	if c.store != nil && sessionID != "" && !c.config.Incognito {
		ids = c.commit(sessionID, user, model)
	}

	c.emit(TurnCommittedEvent{
		SessionID:  sessionID,
		MessageIDs: ids,
		UserText:   user,
		ModelText:  model,
	})
}

func (c *Controller) commit(sessionID, user, model string) [2]string {
	ctx := context.Background()
	now := time.Now()
	var ids [2]string

	if user != "" {
		msg := types.Message{
			ID:        uuid.NewString(),
			Role:      types.RoleUser,
			Text:      user,
			Timestamp: now,
		}
		if c.store.AppendMessage(ctx, sessionID, msg) {
			ids[0] = msg.ID
		}
	}
	if model != "" {
		msg := types.Message{
			ID:        uuid.NewString(),
			Role:      types.RoleModel,
			Text:      model,
			Timestamp: now,
		}
		if c.store.AppendMessage(ctx, sessionID, msg) {
			ids[1] = msg.ID
		}
	}
	return ids
}

func (c *Controller) setState(to SessionState) {
	c.mu.Lock()
	from := c.state
	if from == to {
		c.mu.Unlock()
		return
	}
	c.state = to
	c.mu.Unlock()

	c.emit(StateChangedEvent{From: from, To: to})
	c.logger.Debug("state", "from", from, "to", to)
}

// emit delivers an event without blocking. A slow consumer drops events
// rather than stalling the audio path. The read lock keeps the send from
// racing the channel close in Close: once Close holds the write lock, no
// emitter can be mid-send, and every later emitter observes closed.
func (c *Controller) emit(ev Event) {
	c.evMu.RLock()
	defer c.evMu.RUnlock()
	if c.closed.Load() {
		return
	}
	select {
	case c.events <- ev:
	default:
	}
}
