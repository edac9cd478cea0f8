// Package gemini implements the model gateway on top of the Google Gemini
// API, using the official genai SDK for generation and a websocket client
// for live audio sessions.
package gemini

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/neochat-ai/neochat/pkg/core"
)

// DefaultModel is used when a request does not name a model.
const DefaultModel = "gemini-2.5-flash"

// Gateway implements core.ModelGateway against the Gemini API. Clients are
// cached per API key because the turn pipeline rotates keys mid-stream.
type Gateway struct {
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithLogger sets the gateway's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a Gemini gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		logger:  slog.Default(),
		clients: make(map[string]*genai.Client),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	})
	if err != nil {
		return nil, classify(err)
	}
	g.clients[apiKey] = c
	return c, nil
}

// Stream starts a streaming generation. The returned stream reports the
// full accumulated text on every chunk.
func (g *Gateway) Stream(ctx context.Context, req *core.GenerateRequest) (core.ModelStream, error) {
	client, err := g.client(ctx, req.APIKey)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	contents := buildContents(req.History)
	config := buildConfig(req)

	g.logger.Debug("stream request", "model", model, "messages", len(contents), "search", req.WebSearch)

	seq := client.Models.GenerateContentStream(ctx, model, contents, config)
	return newStream(seq), nil
}

// Generate runs a one-shot generation and returns the response text.
func (g *Gateway) Generate(ctx context.Context, req *core.GenerateRequest) (string, error) {
	client, err := g.client(ctx, req.APIKey)
	if err != nil {
		return "", err
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	resp, err := client.Models.GenerateContent(ctx, model, buildContents(req.History), buildConfig(req))
	if err != nil {
		return "", classify(err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// ValidateCredential probes a key with a minimal generation.
func (g *Gateway) ValidateCredential(ctx context.Context, key string) (core.CredentialStatus, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	})
	if err != nil {
		return core.CredentialInvalid, classify(err)
	}

	contents := []*genai.Content{genai.NewContentFromText("ping", genai.RoleUser)}
	config := &genai.GenerateContentConfig{MaxOutputTokens: 1}

	_, err = client.Models.GenerateContent(ctx, DefaultModel, contents, config)
	if err == nil {
		return core.CredentialValid, nil
	}
	switch core.TypeOf(classify(err)) {
	case core.ErrInvalidCredential:
		return core.CredentialInvalid, nil
	case core.ErrQuota:
		return core.CredentialQuotaExhausted, nil
	default:
		return core.CredentialInvalid, classify(err)
	}
}
