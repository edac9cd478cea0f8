package store

import (
	"context"
	"testing"
	"time"

	"github.com/neochat-ai/neochat/pkg/core/types"
)

func newTestStore() *Store {
	return New()
}

func seedSession(t *testing.T, s *Store, texts ...string) (Snapshot, []string) {
	t.Helper()
	snap := s.Create(context.Background(), "New Chat", types.PersonaAssistant, false)
	ids := make([]string, 0, len(texts))
	for i, text := range texts {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleModel
		}
		msg := types.Message{ID: text + "-id", Role: role, Text: text, Timestamp: time.Now()}
		if !s.AppendMessage(context.Background(), snap.Session.ID, msg) {
			t.Fatalf("AppendMessage(%q) failed", text)
		}
		ids = append(ids, msg.ID)
	}
	return snap, ids
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := newTestStore()
	snap, ids := seedSession(t, s, "hello", "hi there")

	got, ok := s.Get(snap.Session.ID)
	if !ok {
		t.Fatal("Get failed")
	}
	got.Messages[0].Text = "mutated"

	again, _ := s.Get(snap.Session.ID)
	if again.Messages[0].Text != "hello" {
		t.Error("mutating a snapshot leaked into the store")
	}

	if _, ok := s.Message(snap.Session.ID, ids[1]); !ok {
		t.Error("Message lookup by id failed")
	}
}

func TestStore_UpdateMessage(t *testing.T) {
	s := newTestStore()
	snap, ids := seedSession(t, s, "q", "a")

	ok := s.UpdateMessage(context.Background(), snap.Session.ID, ids[1], func(m *types.Message) {
		m.Text = "updated"
		m.Thinking = false
	})
	if !ok {
		t.Fatal("UpdateMessage returned false")
	}

	m, _ := s.Message(snap.Session.ID, ids[1])
	if m.Text != "updated" {
		t.Errorf("Text = %q, want %q", m.Text, "updated")
	}

	if s.UpdateMessage(context.Background(), snap.Session.ID, "missing", func(*types.Message) {}) {
		t.Error("UpdateMessage on a missing id should report false")
	}
	if s.UpdateMessage(context.Background(), "missing", ids[1], func(*types.Message) {}) {
		t.Error("UpdateMessage on a missing session should report false")
	}
}

func TestStore_SetRating(t *testing.T) {
	s := newTestStore()
	snap, ids := seedSession(t, s, "q", "a")

	if !s.SetRating(context.Background(), snap.Session.ID, ids[1], types.RatingUp) {
		t.Fatal("SetRating on a model message returned false")
	}
	m, _ := s.Message(snap.Session.ID, ids[1])
	if m.Rating != types.RatingUp {
		t.Errorf("Rating = %q, want %q", m.Rating, types.RatingUp)
	}

	if !s.SetRating(context.Background(), snap.Session.ID, ids[1], types.RatingNone) {
		t.Fatal("clearing a rating returned false")
	}
	m, _ = s.Message(snap.Session.ID, ids[1])
	if m.Rating != types.RatingNone {
		t.Errorf("Rating after clear = %q, want none", m.Rating)
	}

	if s.SetRating(context.Background(), snap.Session.ID, ids[0], types.RatingDown) {
		t.Error("SetRating on a user message should report false")
	}
	if s.SetRating(context.Background(), snap.Session.ID, "missing", types.RatingUp) {
		t.Error("SetRating on a missing message should report false")
	}
}

func TestStore_Truncate(t *testing.T) {
	s := newTestStore()
	snap, ids := seedSession(t, s, "q1", "a1", "q2", "a2")

	// Drop a2 and everything after, keeping q2.
	if !s.TruncateAfter(context.Background(), snap.Session.ID, ids[2]) {
		t.Fatal("TruncateAfter failed")
	}
	got, _ := s.Get(snap.Session.ID)
	if len(got.Messages) != 3 || got.Messages[2].ID != ids[2] {
		t.Fatalf("after TruncateAfter: %d messages, last %q", len(got.Messages), got.Messages[len(got.Messages)-1].ID)
	}

	// Drop a1 and everything after.
	if !s.TruncateBefore(context.Background(), snap.Session.ID, ids[1]) {
		t.Fatal("TruncateBefore failed")
	}
	got, _ = s.Get(snap.Session.ID)
	if len(got.Messages) != 1 || got.Messages[0].ID != ids[0] {
		t.Fatalf("after TruncateBefore: %d messages", len(got.Messages))
	}

	// Truncated ids are gone from the index too.
	if _, ok := s.Message(snap.Session.ID, ids[3]); ok {
		t.Error("truncated message still resolvable by id")
	}
}

func TestStore_ReplaceMessages(t *testing.T) {
	s := newTestStore()
	snap, _ := seedSession(t, s, "q", "a")

	repl := []types.Message{
		{ID: "n1", Role: types.RoleUser, Text: "new"},
	}
	if !s.ReplaceMessages(context.Background(), snap.Session.ID, repl) {
		t.Fatal("ReplaceMessages failed")
	}
	got, _ := s.Get(snap.Session.ID)
	if len(got.Messages) != 1 || got.Messages[0].ID != "n1" {
		t.Errorf("messages after replace: %+v", got.Messages)
	}
}

func TestStore_SetTitle_StaleChecks(t *testing.T) {
	s := newTestStore()
	snap, _ := seedSession(t, s, "q")

	if !s.SetTitle(context.Background(), snap.Session.ID, "Trip planning") {
		t.Fatal("SetTitle on a default title should succeed")
	}
	if s.SetTitle(context.Background(), snap.Session.ID, "Other") {
		t.Error("SetTitle should refuse to overwrite a customized title")
	}
	if s.SetTitle(context.Background(), "gone", "x") {
		t.Error("SetTitle on a missing session should report false")
	}

	got, _ := s.Get(snap.Session.ID)
	if got.Session.Title != "Trip planning" {
		t.Errorf("Title = %q", got.Session.Title)
	}

	// User-initiated rename is unconditional.
	if !s.RenameTitle(context.Background(), snap.Session.ID, "Renamed") {
		t.Fatal("RenameTitle failed")
	}
}

func TestStore_SetSuggestions_Stale(t *testing.T) {
	s := newTestStore()
	snap, ids := seedSession(t, s, "q", "a")

	if !s.SetSuggestions(context.Background(), snap.Session.ID, ids[1], []string{"one", "two"}) {
		t.Fatal("SetSuggestions failed")
	}
	m, _ := s.Message(snap.Session.ID, ids[1])
	if len(m.SuggestedQuestions) != 2 {
		t.Errorf("SuggestedQuestions = %v", m.SuggestedQuestions)
	}

	// After the message is truncated away the write must be refused.
	s.TruncateBefore(context.Background(), snap.Session.ID, ids[1])
	if s.SetSuggestions(context.Background(), snap.Session.ID, ids[1], []string{"late"}) {
		t.Error("SetSuggestions should refuse a stale message id")
	}
}

func TestStore_Search(t *testing.T) {
	s := newTestStore()
	a, _ := seedSession(t, s, "how do I bake bread")
	s.RenameTitle(context.Background(), a.Session.ID, "Baking")
	b, _ := seedSession(t, s, "tax law question")
	s.RenameTitle(context.Background(), b.Session.ID, "Taxes")

	got := s.Search("BREAD")
	if len(got) != 1 || got[0].ID != a.Session.ID {
		t.Errorf("Search(BREAD) = %v", got)
	}
	if got := s.Search(""); len(got) != 2 {
		t.Errorf("empty query should list all, got %d", len(got))
	}
}

func TestStore_ExportImport(t *testing.T) {
	s := newTestStore()
	seedSession(t, s, "q", "a")
	incog := s.Create(context.Background(), "New Chat", types.PersonaAssistant, true)
	s.AppendMessage(context.Background(), incog.Session.ID, types.Message{ID: "secret", Role: types.RoleUser, Text: "private"})

	data, err := s.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	dst := newTestStore()
	n, err := dst.Import(context.Background(), data)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n != 1 {
		t.Errorf("imported %d sessions, want 1 (incognito excluded)", n)
	}
}

func TestStore_IncognitoNeverPersisted(t *testing.T) {
	p := &fakePersister{}
	s := New(WithPersister(p))

	s.Create(context.Background(), "New Chat", types.PersonaAssistant, true)
	if p.saves != 0 {
		t.Errorf("incognito session reached the persister %d times", p.saves)
	}

	s.Create(context.Background(), "New Chat", types.PersonaAssistant, false)
	if p.saves != 1 {
		t.Errorf("saves = %d, want 1", p.saves)
	}
}

type fakePersister struct {
	saves   int
	deletes int
}

func (f *fakePersister) SaveSession(context.Context, Snapshot) error {
	f.saves++
	return nil
}

func (f *fakePersister) DeleteSession(context.Context, string) error {
	f.deletes++
	return nil
}

func (f *fakePersister) LoadAll(context.Context) ([]Snapshot, error) {
	return nil, nil
}
