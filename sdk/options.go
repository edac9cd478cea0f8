package neochat

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/neochat-ai/neochat/pkg/core"
	"github.com/neochat-ai/neochat/pkg/core/store"
	"github.com/neochat-ai/neochat/pkg/core/turn"
	"github.com/neochat-ai/neochat/pkg/core/types"
)

type clientConfig struct {
	apiKeys     []string
	logger      *slog.Logger
	tracer      trace.Tracer
	httpClient  *http.Client
	gateway     core.ModelGateway
	persister   store.Persister
	dbPath      string
	kbDir       string
	keywordPath string
	retryDelay  time.Duration
	onUpdate    func(sessionID string, msg types.Message)
	onArtifact  func(sessionID, messageID string, artifact turn.Artifact)
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("neochat"),
	}
}

// ClientOption is a function that configures a Client.
type ClientOption func(*clientConfig)

// WithAPIKeys sets the Gemini API keys. The first key is primary; the rest
// are backups used when quota runs out.
func WithAPIKeys(keys ...string) ClientOption {
	return func(c *clientConfig) {
		c.apiKeys = keys
	}
}

// WithLogger sets the logger for the client.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer sets the OpenTelemetry tracer for the client.
func WithTracer(t trace.Tracer) ClientOption {
	return func(c *clientConfig) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithHTTPClient sets a custom HTTP client for provider calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithGateway replaces the default Gemini gateway. Used in tests and for
// alternative providers.
func WithGateway(gw core.ModelGateway) ClientOption {
	return func(c *clientConfig) {
		c.gateway = gw
	}
}

// WithSQLite persists sessions to a SQLite database at path.
func WithSQLite(path string) ClientOption {
	return func(c *clientConfig) {
		c.dbPath = path
	}
}

// WithPersister sets a custom session persister. Ignored when WithSQLite
// is also given.
func WithPersister(p store.Persister) ClientOption {
	return func(c *clientConfig) {
		c.persister = p
	}
}

// WithKnowledgeBase watches dir for markdown and text files and injects
// their contents into the system prompt.
func WithKnowledgeBase(dir string) ClientOption {
	return func(c *clientConfig) {
		c.kbDir = dir
	}
}

// WithKeywordConfig loads web search trigger keywords from a YAML file.
func WithKeywordConfig(path string) ClientOption {
	return func(c *clientConfig) {
		c.keywordPath = path
	}
}

// WithRetryDelay sets the wait before retrying a failed network call.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.retryDelay = d
	}
}

// WithOnUpdate registers a callback fired on every streamed message update.
func WithOnUpdate(fn func(sessionID string, msg types.Message)) ClientOption {
	return func(c *clientConfig) {
		c.onUpdate = fn
	}
}

// WithOnArtifact registers a callback fired when a finalized reply
// contains previewable code, such as a fenced html block.
func WithOnArtifact(fn func(sessionID, messageID string, artifact turn.Artifact)) ClientOption {
	return func(c *clientConfig) {
		c.onArtifact = fn
	}
}
