// Package neochat is the embeddable client for the NEO chat core. It wires
// the session store, credential ring, turn pipeline, and voice sessions
// behind one entry point.
package neochat

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/neochat-ai/neochat/pkg/core"
	"github.com/neochat-ai/neochat/pkg/core/keys"
	"github.com/neochat-ai/neochat/pkg/core/kb"
	"github.com/neochat-ai/neochat/pkg/core/live"
	"github.com/neochat-ai/neochat/pkg/core/prompt"
	"github.com/neochat-ai/neochat/pkg/core/providers/gemini"
	"github.com/neochat-ai/neochat/pkg/core/store"
	"github.com/neochat-ai/neochat/pkg/core/turn"
	"github.com/neochat-ai/neochat/pkg/core/types"
)

// Client is the main entry point for the SDK.
type Client struct {
	cfg clientConfig

	gateway      core.ModelGateway
	store        *store.Store
	ring         *keys.Ring
	orchestrator *turn.Orchestrator
	knowledge    *kb.Base
	persister    *store.SQLitePersister
}

// NewClient creates a client. API keys come from WithAPIKeys or, when none
// are given, from the GEMINI_API_KEY / GEMINI_API_KEYS / GOOGLE_API_KEY
// environment variables.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Client{cfg: cfg}

	apiKeys := cfg.apiKeys
	if len(apiKeys) == 0 {
		apiKeys = keysFromEnv()
	}
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("neochat: no API keys configured")
	}
	c.ring = keys.NewRing(apiKeys...)
	c.ring.SetLogger(cfg.logger)

	c.gateway = cfg.gateway
	if c.gateway == nil {
		c.gateway = gemini.New(
			gemini.WithLogger(cfg.logger),
			gemini.WithHTTPClient(cfg.httpClient),
		)
	}

	storeOpts := []store.Option{store.WithLogger(cfg.logger)}
	if cfg.dbPath != "" {
		p, err := store.OpenSQLite(cfg.dbPath)
		if err != nil {
			return nil, fmt.Errorf("neochat: open store: %w", err)
		}
		c.persister = p
		storeOpts = append(storeOpts, store.WithPersister(p))
	} else if cfg.persister != nil {
		storeOpts = append(storeOpts, store.WithPersister(cfg.persister))
	}
	c.store = store.New(storeOpts...)
	if err := c.store.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("neochat: load sessions: %w", err)
	}

	if cfg.kbDir != "" {
		base, err := kb.Open(cfg.kbDir, cfg.logger)
		if err != nil {
			return nil, fmt.Errorf("neochat: knowledge base: %w", err)
		}
		c.knowledge = base
	}

	keywordCfg := prompt.DefaultKeywordConfig()
	if cfg.keywordPath != "" {
		loaded, err := prompt.LoadKeywordConfig(cfg.keywordPath)
		if err != nil {
			return nil, fmt.Errorf("neochat: keyword config: %w", err)
		}
		keywordCfg = loaded
	}

	turnOpts := []turn.Option{
		turn.WithLogger(cfg.logger),
		turn.WithKeywordConfig(keywordCfg),
	}
	if cfg.retryDelay > 0 {
		turnOpts = append(turnOpts, turn.WithRetryDelay(cfg.retryDelay))
	}
	if cfg.onUpdate != nil {
		turnOpts = append(turnOpts, turn.WithOnUpdate(cfg.onUpdate))
	}
	if cfg.onArtifact != nil {
		turnOpts = append(turnOpts, turn.WithOnArtifact(cfg.onArtifact))
	}
	c.orchestrator = turn.New(c.gateway, c.store, c.ring, turnOpts...)

	return c, nil
}

func keysFromEnv() []string {
	if multi := os.Getenv("GEMINI_API_KEYS"); multi != "" {
		var out []string
		for _, k := range strings.Split(multi, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return []string{key}
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		return []string{key}
	}
	return nil
}

// Store returns the session store.
func (c *Client) Store() *store.Store { return c.store }

// Keys returns the credential ring.
func (c *Client) Keys() *keys.Ring { return c.ring }

// Gateway returns the model gateway.
func (c *Client) Gateway() core.ModelGateway { return c.gateway }

// NewSession creates a chat session.
func (c *Client) NewSession(ctx context.Context, s types.Settings) store.Snapshot {
	title := "New Chat"
	return c.store.Create(ctx, title, s.Persona, s.Incognito)
}

// Send starts a turn in a session. The settings are merged with the
// knowledge base text when one is configured.
func (c *Client) Send(ctx context.Context, sessionID, text string, atts []types.Attachment, s types.Settings) (*turn.Turn, error) {
	ctx, span := c.cfg.tracer.Start(ctx, "neochat.Send")
	defer span.End()
	return c.orchestrator.Send(ctx, sessionID, text, atts, c.withKnowledge(s))
}

// Regenerate re-runs the model turn at messageID.
func (c *Client) Regenerate(ctx context.Context, sessionID, messageID string, s types.Settings) (*turn.Turn, error) {
	ctx, span := c.cfg.tracer.Start(ctx, "neochat.Regenerate")
	defer span.End()
	return c.orchestrator.Regenerate(ctx, sessionID, messageID, c.withKnowledge(s))
}

// Edit rewrites a user message and re-runs the turn from there.
func (c *Client) Edit(ctx context.Context, sessionID, messageID, newText string, s types.Settings) (*turn.Turn, error) {
	ctx, span := c.cfg.tracer.Start(ctx, "neochat.Edit")
	defer span.End()
	return c.orchestrator.Edit(ctx, sessionID, messageID, newText, c.withKnowledge(s))
}

// RateMessage records thumbs feedback on a model message. It reports
// false when the message does not exist or is not a model message.
func (c *Client) RateMessage(ctx context.Context, sessionID, messageID string, rating types.Rating) bool {
	return c.store.SetRating(ctx, sessionID, messageID, rating)
}

// StartVoice opens a duplex voice session bound to sessionID. The caller
// feeds mic audio via Controller.ProcessAudio and consumes events from
// Controller.Events.
func (c *Client) StartVoice(ctx context.Context, sessionID string, sink live.AudioSink, s types.Settings) (*live.Controller, error) {
	key, err := c.ring.Active()
	if err != nil {
		return nil, err
	}

	cfg := live.DefaultConfig()
	cfg.APIKey = key
	cfg.System = prompt.BuildVoiceSystem(c.withKnowledge(s))
	cfg.LanguageCode = prompt.SpeechLanguageCode(s.ReplyLanguage)
	cfg.Incognito = s.Incognito
	cfg.WebSearch = s.WebSearchEnabled
	cfg.Unrestricted = s.Unrestricted

	ctrl := live.NewController(c.gateway, c.store, sink, cfg, live.WithLogger(c.cfg.logger))
	if err := ctrl.Start(ctx, sessionID); err != nil {
		return nil, err
	}
	return ctrl, nil
}

// ValidateKeys probes every configured key against the provider.
func (c *Client) ValidateKeys(ctx context.Context) ([]keys.Key, error) {
	if err := c.ring.ValidateAll(ctx, c.gateway); err != nil {
		return nil, err
	}
	return c.ring.Keys(), nil
}

func (c *Client) withKnowledge(s types.Settings) types.Settings {
	if c.knowledge != nil && s.KnowledgeBase == "" {
		s.KnowledgeBase = c.knowledge.Text()
	}
	return s
}

// Close releases the knowledge base watcher and the store's database.
func (c *Client) Close() error {
	var firstErr error
	if c.knowledge != nil {
		if err := c.knowledge.Close(); err != nil {
			firstErr = err
		}
	}
	if c.persister != nil {
		if err := c.persister.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
