// Package store keeps chat sessions in memory with copy-on-write snapshots
// and optionally mirrors them to a Persister.
//
// Messages are held in an id-keyed map plus an ordered id slice, so lookups
// during streaming are O(1) while iteration order stays stable. Every read
// hands out copies; callers never share memory with the store.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neochat-ai/neochat/pkg/core/types"
)

// Snapshot is a point-in-time copy of one session and its messages.
type Snapshot struct {
	Session  types.ChatSession `json:"session"`
	Messages []types.Message   `json:"messages"`
}

// Persister mirrors store mutations to durable storage. Implementations must
// be safe for concurrent use. A nil Persister leaves the store memory-only.
type Persister interface {
	SaveSession(ctx context.Context, snap Snapshot) error
	DeleteSession(ctx context.Context, sessionID string) error
	LoadAll(ctx context.Context) ([]Snapshot, error)
}

type record struct {
	session types.ChatSession
	order   []string
	byID    map[string]types.Message
}

func (r *record) snapshot() Snapshot {
	msgs := make([]types.Message, 0, len(r.order))
	for _, id := range r.order {
		if m, ok := r.byID[id]; ok {
			msgs = append(msgs, m.Clone())
		}
	}
	return Snapshot{Session: r.session, Messages: msgs}
}

// Store is the in-memory session store.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*record
	persister Persister
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPersister attaches durable storage.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*record),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load hydrates the store from the persister. No-op without one.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snaps, err := s.persister.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snaps {
		s.sessions[snap.Session.ID] = recordFromSnapshot(snap)
	}
	return nil
}

func recordFromSnapshot(snap Snapshot) *record {
	r := &record{
		session: snap.Session,
		order:   make([]string, 0, len(snap.Messages)),
		byID:    make(map[string]types.Message, len(snap.Messages)),
	}
	for _, m := range snap.Messages {
		r.order = append(r.order, m.ID)
		r.byID[m.ID] = m.Clone()
	}
	return r
}

// Create adds a new session and returns its snapshot.
func (s *Store) Create(ctx context.Context, title string, persona types.Persona, incognito bool) Snapshot {
	now := s.now()
	sess := types.ChatSession{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Persona:   persona,
		LastMode:  types.ModeStandard,
		Incognito: incognito,
	}

	s.mu.Lock()
	r := &record{session: sess, byID: make(map[string]types.Message)}
	s.sessions[sess.ID] = r
	snap := r.snapshot()
	s.mu.Unlock()

	s.persist(ctx, snap)
	return snap
}

// Get returns a snapshot of one session.
func (s *Store) Get(sessionID string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, false
	}
	return r.snapshot(), true
}

// Message returns a copy of one message by id.
func (s *Store) Message(sessionID, messageID string) (types.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.sessions[sessionID]
	if !ok {
		return types.Message{}, false
	}
	m, ok := r.byID[messageID]
	if !ok {
		return types.Message{}, false
	}
	return m.Clone(), true
}

// List returns all sessions, newest first.
func (s *Store) List() []types.ChatSession {
	s.mu.RLock()
	out := make([]types.ChatSession, 0, len(s.sessions))
	for _, r := range s.sessions {
		out = append(out, r.session)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, sessionID string) {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if ok && s.persister != nil {
		if err := s.persister.DeleteSession(ctx, sessionID); err != nil {
			s.logger.Warn("delete session from persister failed",
				"session_id", sessionID, "error", err)
		}
	}
}

// ReplaceMessages swaps a session's entire message set atomically.
func (s *Store) ReplaceMessages(ctx context.Context, sessionID string, msgs []types.Message) bool {
	s.mu.Lock()
	r, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	r.order = make([]string, 0, len(msgs))
	r.byID = make(map[string]types.Message, len(msgs))
	for _, m := range msgs {
		r.order = append(r.order, m.ID)
		r.byID[m.ID] = m.Clone()
	}
	r.session.UpdatedAt = s.now()
	snap := r.snapshot()
	s.mu.Unlock()

	s.persist(ctx, snap)
	return true
}

// AppendMessage adds a message to the end of a session.
func (s *Store) AppendMessage(ctx context.Context, sessionID string, msg types.Message) bool {
	s.mu.Lock()
	r, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if _, exists := r.byID[msg.ID]; !exists {
		r.order = append(r.order, msg.ID)
	}
	r.byID[msg.ID] = msg.Clone()
	r.session.UpdatedAt = s.now()
	snap := r.snapshot()
	s.mu.Unlock()

	s.persist(ctx, snap)
	return true
}

// UpdateMessage applies fn to a copy of the message and stores the result.
// Returns false when the session or message is gone, which callers use as
// their stale-write signal.
func (s *Store) UpdateMessage(ctx context.Context, sessionID, messageID string, fn func(*types.Message)) bool {
	s.mu.Lock()
	r, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	m, ok := r.byID[messageID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	updated := m.Clone()
	fn(&updated)
	updated.ID = messageID
	r.byID[messageID] = updated
	r.session.UpdatedAt = s.now()
	snap := r.snapshot()
	s.mu.Unlock()

	s.persist(ctx, snap)
	return true
}

// TruncateBefore drops the message with the given id and everything after
// it. Used when regenerating a model message in place.
func (s *Store) TruncateBefore(ctx context.Context, sessionID, messageID string) bool {
	return s.truncate(ctx, sessionID, messageID, false)
}

// TruncateAfter keeps the message with the given id and drops everything
// after it. Used for edit-resubmit and user-message regeneration.
func (s *Store) TruncateAfter(ctx context.Context, sessionID, messageID string) bool {
	return s.truncate(ctx, sessionID, messageID, true)
}

func (s *Store) truncate(ctx context.Context, sessionID, messageID string, keep bool) bool {
	s.mu.Lock()
	r, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	idx := -1
	for i, id := range r.order {
		if id == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	cut := idx
	if keep {
		cut = idx + 1
	}
	for _, id := range r.order[cut:] {
		delete(r.byID, id)
	}
	r.order = r.order[:cut]
	r.session.UpdatedAt = s.now()
	snap := r.snapshot()
	s.mu.Unlock()

	s.persist(ctx, snap)
	return true
}

// SetTitle overwrites the session title only while it is still a default.
// Returns false when the session is gone or already customized.
func (s *Store) SetTitle(ctx context.Context, sessionID, title string) bool {
	s.mu.Lock()
	r, ok := s.sessions[sessionID]
	if !ok || !types.IsDefaultTitle(r.session.Title) {
		s.mu.Unlock()
		return false
	}
	r.session.Title = title
	r.session.UpdatedAt = s.now()
	snap := r.snapshot()
	s.mu.Unlock()

	s.persist(ctx, snap)
	return true
}

// RenameTitle sets the title unconditionally (user-initiated rename).
func (s *Store) RenameTitle(ctx context.Context, sessionID, title string) bool {
	s.mu.Lock()
	r, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	r.session.Title = title
	r.session.UpdatedAt = s.now()
	snap := r.snapshot()
	s.mu.Unlock()

	s.persist(ctx, snap)
	return true
}

// SetSuggestions attaches follow-up questions to a message. Both ids are
// re-checked so late enrichment never writes into a replaced conversation.
func (s *Store) SetSuggestions(ctx context.Context, sessionID, messageID string, questions []string) bool {
	return s.UpdateMessage(ctx, sessionID, messageID, func(m *types.Message) {
		m.SuggestedQuestions = append([]string(nil), questions...)
	})
}

// SetRating records thumbs feedback on a model message. Rating a user
// message is refused.
func (s *Store) SetRating(ctx context.Context, sessionID, messageID string, rating types.Rating) bool {
	applied := false
	s.UpdateMessage(ctx, sessionID, messageID, func(m *types.Message) {
		if m.Role != types.RoleModel {
			return
		}
		m.Rating = rating
		applied = true
	})
	return applied
}

// SetMode records the last used chat mode on the session.
func (s *Store) SetMode(ctx context.Context, sessionID string, mode types.ChatMode) bool {
	s.mu.Lock()
	r, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	r.session.LastMode = mode
	snap := r.snapshot()
	s.mu.Unlock()

	s.persist(ctx, snap)
	return true
}

// Search returns sessions whose title or any message text contains the
// query, case-insensitively. Newest first.
func (s *Store) Search(query string) []types.ChatSession {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.List()
	}

	s.mu.RLock()
	var out []types.ChatSession
	for _, r := range s.sessions {
		if strings.Contains(strings.ToLower(r.session.Title), q) {
			out = append(out, r.session)
			continue
		}
		for _, id := range r.order {
			if strings.Contains(strings.ToLower(r.byID[id].Text), q) {
				out = append(out, r.session)
				break
			}
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Export serializes every non-incognito session to JSON.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	snaps := make([]Snapshot, 0, len(s.sessions))
	for _, r := range s.sessions {
		if r.session.Incognito {
			continue
		}
		snaps = append(snaps, r.snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Session.CreatedAt.Before(snaps[j].Session.CreatedAt)
	})
	return json.MarshalIndent(snaps, "", "  ")
}

// Import merges exported sessions into the store. Existing ids are
// overwritten.
func (s *Store) Import(ctx context.Context, data []byte) (int, error) {
	var snaps []Snapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return 0, fmt.Errorf("parse import: %w", err)
	}

	s.mu.Lock()
	for _, snap := range snaps {
		if snap.Session.ID == "" {
			snap.Session.ID = uuid.NewString()
		}
		s.sessions[snap.Session.ID] = recordFromSnapshot(snap)
	}
	s.mu.Unlock()

	for _, snap := range snaps {
		s.persist(ctx, snap)
	}
	return len(snaps), nil
}

func (s *Store) persist(ctx context.Context, snap Snapshot) {
	if s.persister == nil || snap.Session.Incognito {
		return
	}
	if err := s.persister.SaveSession(ctx, snap); err != nil {
		s.logger.Warn("persist session failed",
			"session_id", snap.Session.ID, "error", err)
	}
}
