package turn

import (
	"context"
	"sync/atomic"
)

// Token cancels one in-flight turn. Each turn gets its own token; cancelling
// it never touches any other turn. Cancel is idempotent.
type Token struct {
	cancelled atomic.Bool
	cancel    context.CancelFunc
}

func newToken(cancel context.CancelFunc) *Token {
	return &Token{cancel: cancel}
}

// Cancel stops the turn. The placeholder keeps whatever text has streamed
// so far.
func (t *Token) Cancel() {
	if t.cancelled.Swap(true) {
		return
	}
	t.cancel()
}

// Cancelled reports whether Cancel has been called.
func (t *Token) Cancelled() bool {
	return t.cancelled.Load()
}
