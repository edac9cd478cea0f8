// Package keys manages the ordered ring of API credentials the turn
// pipeline draws from, including rotation to a backup key when the active
// one runs out of quota.
package keys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neochat-ai/neochat/pkg/core"
)

// Key is one stored credential.
type Key struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Secret      string    `json:"secret"`
	Valid       bool      `json:"valid"`
	Exhausted   bool      `json:"exhausted"`
	TokensUsed  int64     `json:"tokens_used"`
	LastChecked time.Time `json:"last_checked,omitempty"`
}

// ErrNoUsableKey is returned when every key is invalid or exhausted.
var ErrNoUsableKey = errors.New("keys: no usable API key")

// Ring holds the credentials in priority order with one active at a time.
type Ring struct {
	mu     sync.Mutex
	keys   []*Key
	active int
	logger *slog.Logger
}

// NewRing builds a ring from raw secrets, all presumed valid until checked.
func NewRing(secrets ...string) *Ring {
	r := &Ring{logger: slog.Default()}
	for i, s := range secrets {
		if s == "" {
			continue
		}
		r.keys = append(r.keys, &Key{
			ID:     uuid.NewString(),
			Name:   keyName(i),
			Secret: s,
			Valid:  true,
		})
	}
	return r
}

func keyName(i int) string {
	if i == 0 {
		return "primary"
	}
	return fmt.Sprintf("backup-%d", i)
}

// SetLogger overrides the default logger.
func (r *Ring) SetLogger(l *slog.Logger) {
	r.mu.Lock()
	r.logger = l
	r.mu.Unlock()
}

// Active returns the current credential secret.
func (r *Ring) Active() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k := r.activeLocked(); k != nil {
		return k.Secret, nil
	}
	return "", ErrNoUsableKey
}

func (r *Ring) activeLocked() *Key {
	for i := 0; i < len(r.keys); i++ {
		idx := (r.active + i) % len(r.keys)
		k := r.keys[idx]
		if k.Valid && !k.Exhausted {
			r.active = idx
			return k
		}
	}
	return nil
}

// Rotate marks the active key exhausted and advances to the next usable
// one. Returns the new secret, or ErrNoUsableKey when the ring is spent.
func (r *Ring) Rotate() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return "", ErrNoUsableKey
	}

	cur := r.keys[r.active]
	cur.Exhausted = true
	r.logger.Info("rotating API key", "from", cur.Name)

	if k := r.activeLocked(); k != nil {
		r.logger.Info("rotated API key", "to", k.Name)
		return k.Secret, nil
	}
	return "", ErrNoUsableKey
}

// MarkInvalid flags the key holding this secret as rejected by the
// provider.
func (r *Ring) MarkInvalid(secret string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k.Secret == secret {
			k.Valid = false
			k.LastChecked = time.Now()
		}
	}
}

// AddUsage accumulates token usage on the key holding this secret.
func (r *Ring) AddUsage(secret string, tokens int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k.Secret == secret {
			k.TokensUsed += tokens
		}
	}
}

// Reset clears exhaustion flags, making every valid key usable again.
// Quota windows reset upstream on their own schedule; the caller decides
// when to call this.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = 0
	for _, k := range r.keys {
		k.Exhausted = false
	}
}

// Keys returns a copy of the ring state for display.
func (r *Ring) Keys() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Key, len(r.keys))
	for i, k := range r.keys {
		out[i] = *k
	}
	return out
}

// ValidateAll probes every key against the gateway and updates flags.
func (r *Ring) ValidateAll(ctx context.Context, gw core.ModelGateway) error {
	r.mu.Lock()
	keys := make([]*Key, len(r.keys))
	copy(keys, r.keys)
	r.mu.Unlock()

	for _, k := range keys {
		status, err := gw.ValidateCredential(ctx, k.Secret)
		if err != nil {
			return err
		}
		r.mu.Lock()
		k.LastChecked = time.Now()
		switch status {
		case core.CredentialValid:
			k.Valid = true
			k.Exhausted = false
		case core.CredentialQuotaExhausted:
			k.Valid = true
			k.Exhausted = true
		case core.CredentialInvalid:
			k.Valid = false
		}
		r.mu.Unlock()
	}
	return nil
}
