package core

import (
	"context"

	"github.com/neochat-ai/neochat/pkg/core/types"
)

// GenerateRequest carries everything a gateway needs for one model call.
type GenerateRequest struct {
	Model           string
	System          string
	History         []types.Message
	Temperature     float32
	MaxOutputTokens int

	// WebSearch enables grounded search for this call.
	WebSearch bool

	// Unrestricted lifts the provider's content safety thresholds.
	Unrestricted bool

	// APIKey is the credential for this call. The turn pipeline swaps it
	// when rotating to a backup key.
	APIKey string
}

// StreamChunk is one streaming update. Text carries the FULL accumulated
// text so far, not a delta: consumers fold by overwrite. Sources may repeat
// across chunks; consumers dedup by URI.
type StreamChunk struct {
	Text    string
	Sources []types.GroundingSource
}

// ModelStream is an iterator over streaming chunks.
type ModelStream interface {
	// Next returns the next chunk. Returns io.EOF when the stream is done.
	Next() (StreamChunk, error)

	// Close releases resources. Safe to call more than once.
	Close() error
}

// CredentialStatus is the outcome of a credential check.
type CredentialStatus string

const (
	CredentialValid CredentialStatus = "valid"

	CredentialInvalid CredentialStatus = "invalid"

	// CredentialQuotaExhausted means the key authenticated but its quota is
	// currently spent. It stays usable later.
	CredentialQuotaExhausted CredentialStatus = "quota_exhausted"
)

// ModelGateway is the narrow boundary between the chat core and a model
// provider. Construct one explicitly and pass it down; nothing in the core
// reaches for a package-level instance.
type ModelGateway interface {
	// Stream starts a streaming generation.
	Stream(ctx context.Context, req *GenerateRequest) (ModelStream, error)

	// Generate runs a one-shot generation and returns the full text. Used
	// for enrichment calls (title, follow-up questions).
	Generate(ctx context.Context, req *GenerateRequest) (string, error)

	// ValidateCredential probes whether a key is usable.
	ValidateCredential(ctx context.Context, key string) (CredentialStatus, error)

	// Live opens a duplex audio session.
	Live(ctx context.Context, cfg *LiveConfig) (LiveConn, error)
}
