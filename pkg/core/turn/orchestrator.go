// Package turn drives the lifecycle of one chat turn: placeholder insertion,
// streaming fold, grounding dedup, cancellation, retries, credential
// rotation, regeneration, and fire-and-forget enrichment.
package turn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neochat-ai/neochat/pkg/core"
	"github.com/neochat-ai/neochat/pkg/core/attach"
	"github.com/neochat-ai/neochat/pkg/core/keys"
	"github.com/neochat-ai/neochat/pkg/core/prompt"
	"github.com/neochat-ai/neochat/pkg/core/store"
	"github.com/neochat-ai/neochat/pkg/core/types"
)

// DefaultRetryDelay is the pause before the single transient-error retry.
const DefaultRetryDelay = time.Second

// Orchestrator runs chat turns against a gateway, writing progress into the
// store as it streams.
type Orchestrator struct {
	gateway    core.ModelGateway
	store      *store.Store
	ring       *keys.Ring
	keywords   prompt.KeywordConfig
	logger     *slog.Logger
	retryDelay time.Duration
	enrichWait time.Duration

	// onUpdate, when set, is called after every store write for a turn's
	// placeholder message.
	onUpdate func(sessionID string, msg types.Message)

	// onArtifact, when set, is called once per finalized message whose
	// text carries a previewable fenced code block.
	onArtifact func(sessionID, messageID string, artifact Artifact)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithKeywordConfig overrides the search keyword data.
func WithKeywordConfig(cfg prompt.KeywordConfig) Option {
	return func(o *Orchestrator) { o.keywords = cfg }
}

// WithRetryDelay overrides the transient-retry pause.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.retryDelay = d }
}

// WithOnUpdate registers a callback fired after each placeholder update.
func WithOnUpdate(fn func(sessionID string, msg types.Message)) Option {
	return func(o *Orchestrator) { o.onUpdate = fn }
}

// WithOnArtifact registers a callback fired when a finalized reply
// contains previewable code.
func WithOnArtifact(fn func(sessionID, messageID string, artifact Artifact)) Option {
	return func(o *Orchestrator) { o.onArtifact = fn }
}

// New creates an Orchestrator.
func New(gw core.ModelGateway, st *store.Store, ring *keys.Ring, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:    gw,
		store:      st,
		ring:       ring,
		keywords:   prompt.DefaultKeywordConfig(),
		logger:     slog.Default(),
		retryDelay: DefaultRetryDelay,
		enrichWait: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Turn is the handle for one in-flight turn.
type Turn struct {
	SessionID     string
	MessageID     string
	UserMessageID string

	token *Token
	done  chan struct{}
	err   error
}

// Cancel stops the turn, keeping whatever text has streamed so far.
func (t *Turn) Cancel() { t.token.Cancel() }

// Done is closed when the turn has fully settled.
func (t *Turn) Done() <-chan struct{} { return t.done }

// Wait blocks until the turn settles and returns its terminal error, nil
// for a delivered answer (including notice texts).
func (t *Turn) Wait() error {
	<-t.done
	return t.err
}

type runInput struct {
	sessionID     string
	placeholderID string
	history       []types.Message
	userText      string
	settings      types.Settings
	decision      prompt.Decision
	firstExchange bool
	incognito     bool
}

// Send appends a user message and runs a turn for it. The returned Turn is
// already running.
func (o *Orchestrator) Send(ctx context.Context, sessionID, text string, atts []types.Attachment, s types.Settings) (*Turn, error) {
	snap, ok := o.store.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("turn: unknown session %q", sessionID)
	}

	prepared := attach.Prepare(atts)
	userMsg := types.Message{
		ID:          uuid.NewString(),
		Role:        types.RoleUser,
		Text:        text,
		Timestamp:   time.Now(),
		Attachments: prepared,
		Mode:        s.Mode,
	}
	o.store.AppendMessage(ctx, sessionID, userMsg)

	history := append(append([]types.Message(nil), snap.Messages...), userMsg)
	return o.start(ctx, runInput{
		sessionID:     sessionID,
		placeholderID: uuid.NewString(),
		history:       history,
		userText:      text,
		settings:      s,
		decision:      prompt.Decide(text, s, o.keywords),
		firstExchange: len(snap.Messages) == 0,
		incognito:     snap.Session.Incognito || s.Incognito,
	}, userMsg.ID)
}

// Regenerate reruns the turn that produced messageID. For a model message
// the conversation is truncated to everything before it and the same id is
// reused. For a user message everything after it is dropped and its reply is
// regenerated, keeping the old reply's id when there was one.
func (o *Orchestrator) Regenerate(ctx context.Context, sessionID, messageID string, s types.Settings) (*Turn, error) {
	snap, ok := o.store.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("turn: unknown session %q", sessionID)
	}
	idx := -1
	for i, m := range snap.Messages {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("turn: unknown message %q", messageID)
	}

	target := snap.Messages[idx]
	var (
		history       []types.Message
		placeholderID string
	)
	switch target.Role {
	case types.RoleModel:
		if idx == 0 {
			return nil, errors.New("turn: model message has no preceding user message")
		}
		history = snap.Messages[:idx]
		placeholderID = target.ID
		o.store.TruncateBefore(ctx, sessionID, target.ID)

	case types.RoleUser:
		history = snap.Messages[:idx+1]
		placeholderID = uuid.NewString()
		if idx+1 < len(snap.Messages) && snap.Messages[idx+1].Role == types.RoleModel {
			placeholderID = snap.Messages[idx+1].ID
		}
		o.store.TruncateAfter(ctx, sessionID, target.ID)

	default:
		return nil, fmt.Errorf("turn: unsupported role %q", target.Role)
	}

	lastUser := history[len(history)-1]
	return o.start(ctx, runInput{
		sessionID:     sessionID,
		placeholderID: placeholderID,
		history:       history,
		userText:      lastUser.Text,
		settings:      s,
		decision:      prompt.Decide(lastUser.Text, s, o.keywords),
		incognito:     snap.Session.Incognito || s.Incognito,
	}, lastUser.ID)
}

// Edit replaces a user message's text, drops everything after it, and runs a
// fresh turn.
func (o *Orchestrator) Edit(ctx context.Context, sessionID, messageID, newText string, s types.Settings) (*Turn, error) {
	snap, ok := o.store.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("turn: unknown session %q", sessionID)
	}
	idx := -1
	for i, m := range snap.Messages {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("turn: unknown message %q", messageID)
	}
	if snap.Messages[idx].Role != types.RoleUser {
		return nil, errors.New("turn: only user messages can be edited")
	}

	o.store.UpdateMessage(ctx, sessionID, messageID, func(m *types.Message) {
		m.Text = newText
	})
	o.store.TruncateAfter(ctx, sessionID, messageID)

	history := append([]types.Message(nil), snap.Messages[:idx+1]...)
	history[idx].Text = newText

	return o.start(ctx, runInput{
		sessionID:     sessionID,
		placeholderID: uuid.NewString(),
		history:       history,
		userText:      newText,
		settings:      s,
		decision:      prompt.Decide(newText, s, o.keywords),
		incognito:     snap.Session.Incognito || s.Incognito,
	}, messageID)
}

func (o *Orchestrator) start(ctx context.Context, in runInput, userMessageID string) (*Turn, error) {
	runCtx, cancel := context.WithCancel(ctx)
	t := &Turn{
		SessionID:     in.sessionID,
		MessageID:     in.placeholderID,
		UserMessageID: userMessageID,
		token:         newToken(cancel),
		done:          make(chan struct{}),
	}

	o.store.AppendMessage(ctx, in.sessionID, types.Message{
		ID:        in.placeholderID,
		Role:      types.RoleModel,
		Timestamp: time.Now(),
		Thinking:  true,
		Searching: in.decision.Search,
		Mode:      in.settings.Mode,
	})
	o.store.SetMode(ctx, in.sessionID, in.settings.Mode)

	go o.run(runCtx, t, in)
	return t, nil
}

func (o *Orchestrator) run(ctx context.Context, t *Turn, in runInput) {
	defer close(t.done)

	// Store writes must land even after the turn context dies.
	writeCtx := context.WithoutCancel(ctx)
	n := NoticesFor(in.settings.ReplyLanguage)

	lastUser := in.history[len(in.history)-1]
	if strings.TrimSpace(lastUser.Text) == "" && len(lastUser.Attachments) == 0 {
		o.finalize(writeCtx, t, n.NoContent, nil)
		return
	}

	apiKey, err := o.ring.Active()
	if err != nil {
		o.finalize(writeCtx, t, n.QuotaAllKeys, nil)
		t.err = err
		return
	}

	system := prompt.BuildSystem(in.settings)
	webSearch := in.decision.Search

	var (
		prefix       string
		sources      []types.GroundingSource
		seen         = make(map[string]bool)
		rotated      bool
		netRetried   bool
		emptyRetried bool
	)

	for {
		req := &core.GenerateRequest{
			Model:           in.settings.ModelName(),
			System:          system,
			History:         in.history,
			Temperature:     in.settings.Creativity.Temperature(),
			MaxOutputTokens: in.settings.MaxOutputTokens,
			WebSearch:       webSearch,
			Unrestricted:    in.settings.Unrestricted,
			APIKey:          apiKey,
		}

		text, streamErr := o.streamFold(ctx, t, in, req, prefix, &sources, seen)

		if t.token.Cancelled() || core.TypeOf(streamErr) == core.ErrAborted {
			// Partial text stays; the turn just stops being "thinking".
			// Enrichment is skipped entirely.
			o.finalize(writeCtx, t, text, sources)
			return
		}

		if streamErr == nil {
			if strings.TrimSpace(strings.TrimPrefix(text, prefix)) == "" {
				if !emptyRetried {
					emptyRetried = true
					webSearch = false
					o.logger.Info("empty response, retrying without search augmentation",
						"session_id", in.sessionID)
					continue
				}
				o.finalize(writeCtx, t, joinNotice(prefix, n.EmptyResponse), sources)
				o.maybeEnrichTitle(in, apiKey)
				return
			}

			o.finalize(writeCtx, t, text, sources)
			o.maybeEnrichTitle(in, apiKey)
			go o.withEnrichTimeout(func(ectx context.Context) {
				o.enrichSuggestions(ectx, in.sessionID, in.placeholderID, in.userText,
					strings.TrimPrefix(text, prefix), in.settings, apiKey)
			})
			return
		}

		switch core.TypeOf(streamErr) {
		case core.ErrQuota:
			if !rotated {
				if next, rerr := o.ring.Rotate(); rerr == nil {
					rotated = true
					apiKey = next
					prefix = text + n.SwitchingKey
					o.applyProgress(writeCtx, t, prefix, sources)
					continue
				}
			}
			o.finalize(writeCtx, t, joinNotice(text, n.QuotaAllKeys), sources)
			t.err = streamErr
			return

		case core.ErrInvalidCredential:
			o.ring.MarkInvalid(apiKey)
			o.finalize(writeCtx, t, joinNotice(text, n.InvalidKey), sources)
			t.err = streamErr
			return

		case core.ErrNetwork:
			if !netRetried {
				netRetried = true
				prefix = text + n.Reconnecting
				o.applyProgress(writeCtx, t, prefix, sources)
				select {
				case <-time.After(o.retryDelay):
					continue
				case <-ctx.Done():
					o.finalize(writeCtx, t, text, sources)
					return
				}
			}
			fallthrough

		default:
			o.logger.Error("turn failed",
				"session_id", in.sessionID, "error", streamErr)
			o.finalize(writeCtx, t, joinNotice(text, n.ErrorPrefix+clip(streamErr.Error(), 200)), sources)
			t.err = streamErr
			return
		}
	}
}

// streamFold consumes one stream attempt, folding chunks into the
// placeholder. Chunks carry the full accumulated text, so each one
// overwrites rather than appends; prefix survives restarts. Grounding
// sources dedup by URI in first-seen order.
func (o *Orchestrator) streamFold(ctx context.Context, t *Turn, in runInput, req *core.GenerateRequest, prefix string, sources *[]types.GroundingSource, seen map[string]bool) (string, error) {
	writeCtx := context.WithoutCancel(ctx)

	stream, err := o.gateway.Stream(ctx, req)
	if err != nil {
		return prefix, err
	}
	defer stream.Close()

	accum := prefix
	for {
		if t.token.Cancelled() {
			return accum, core.NewAbortedError("turn cancelled")
		}

		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return accum, nil
		}
		if err != nil {
			return accum, err
		}

		accum = prefix + chunk.Text
		for _, src := range chunk.Sources {
			normalized, ok := types.NormalizeGroundingSource(src.Title, src.URI)
			if !ok || seen[normalized.URI] {
				continue
			}
			seen[normalized.URI] = true
			*sources = append(*sources, normalized)
		}

		o.applyProgress(writeCtx, t, accum, *sources)
	}
}

func (o *Orchestrator) applyProgress(ctx context.Context, t *Turn, text string, sources []types.GroundingSource) {
	o.store.UpdateMessage(ctx, t.SessionID, t.MessageID, func(m *types.Message) {
		m.Text = text
		m.GroundingSources = append([]types.GroundingSource(nil), sources...)
	})
	o.notify(t)
}

func (o *Orchestrator) finalize(ctx context.Context, t *Turn, text string, sources []types.GroundingSource) {
	o.store.UpdateMessage(ctx, t.SessionID, t.MessageID, func(m *types.Message) {
		m.Text = text
		m.Thinking = false
		m.Searching = false
		m.GroundingSources = append([]types.GroundingSource(nil), sources...)
	})
	o.notify(t)
	if o.onArtifact != nil {
		if a, ok := ExtractArtifact(text); ok {
			o.onArtifact(t.SessionID, t.MessageID, a)
		}
	}
}

func (o *Orchestrator) notify(t *Turn) {
	if o.onUpdate == nil {
		return
	}
	if m, ok := o.store.Message(t.SessionID, t.MessageID); ok {
		o.onUpdate(t.SessionID, m)
	}
}

func (o *Orchestrator) maybeEnrichTitle(in runInput, apiKey string) {
	if !in.firstExchange || in.incognito {
		return
	}
	go o.withEnrichTimeout(func(ectx context.Context) {
		o.enrichTitle(ectx, in.sessionID, in.userText, in.settings, apiKey)
	})
}

func (o *Orchestrator) withEnrichTimeout(fn func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), o.enrichWait)
	defer cancel()
	fn(ctx)
}

func joinNotice(text, notice string) string {
	if strings.TrimSpace(text) == "" {
		return notice
	}
	return text + "\n\n" + notice
}
