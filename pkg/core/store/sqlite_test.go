package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/neochat-ai/neochat/pkg/core/types"
)

func TestSQLitePersister_RoundTrip(t *testing.T) {
	p, err := OpenSQLite(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer p.Close()

	now := time.Now().Truncate(time.Millisecond)
	snap := Snapshot{
		Session: types.ChatSession{
			ID:        "s1",
			Title:     "Baking",
			CreatedAt: now,
			UpdatedAt: now,
			Persona:   types.PersonaTeacher,
			LastMode:  types.ModeResearch,
		},
		Messages: []types.Message{
			{ID: "m1", Role: types.RoleUser, Text: "how do I bake bread", Timestamp: now},
			{ID: "m2", Role: types.RoleModel, Text: "start with flour", Timestamp: now,
				GroundingSources: []types.GroundingSource{{Title: "src", URI: "https://example.com"}}},
		},
	}

	if err := p.SaveSession(context.Background(), snap); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	// Saving again with fewer messages replaces, not appends.
	snap.Messages = snap.Messages[:1]
	if err := p.SaveSession(context.Background(), snap); err != nil {
		t.Fatalf("second SaveSession() error = %v", err)
	}

	got, err := p.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("loaded %d sessions, want 1", len(got))
	}
	if got[0].Session.Persona != types.PersonaTeacher || got[0].Session.LastMode != types.ModeResearch {
		t.Errorf("session fields lost: %+v", got[0].Session)
	}
	if len(got[0].Messages) != 1 || got[0].Messages[0].ID != "m1" {
		t.Errorf("messages = %+v, want just m1", got[0].Messages)
	}

	if err := p.DeleteSession(context.Background(), "s1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	got, err = p.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() after delete error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("loaded %d sessions after delete, want 0", len(got))
	}
}

func TestStore_LoadFromSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	p, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}

	s := New(WithPersister(p))
	snap := s.Create(context.Background(), "New Chat", types.PersonaAssistant, false)
	s.AppendMessage(context.Background(), snap.Session.ID, types.Message{ID: "m1", Role: types.RoleUser, Text: "hi"})
	p.Close()

	p2, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer p2.Close()

	s2 := New(WithPersister(p2))
	if err := s2.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got, ok := s2.Get(snap.Session.ID)
	if !ok {
		t.Fatal("session not restored")
	}
	if len(got.Messages) != 1 || got.Messages[0].Text != "hi" {
		t.Errorf("restored messages = %+v", got.Messages)
	}
}
