package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/neochat-ai/neochat/pkg/core/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	persona    TEXT NOT NULL,
	last_mode  TEXT NOT NULL,
	project_id TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	id         TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (session_id, id)
);
CREATE INDEX IF NOT EXISTS idx_messages_session_seq ON messages(session_id, seq);
`

// SQLitePersister stores sessions in a local SQLite database.
type SQLitePersister struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at path. Use ":memory:" for
// an ephemeral database in tests.
func OpenSQLite(path string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// The sqlite driver serializes access per connection; a single
	// connection avoids table lock errors under concurrent writes.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLitePersister{db: db}, nil
}

// Close releases the database handle.
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}

// SaveSession writes the whole session transactionally, replacing any prior
// message set.
func (p *SQLitePersister) SaveSession(ctx context.Context, snap Snapshot) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	sess := snap.Session
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, title, created_at, updated_at, persona, last_mode, project_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at,
			persona = excluded.persona,
			last_mode = excluded.last_mode,
			project_id = excluded.project_id`,
		sess.ID, sess.Title, sess.CreatedAt.UnixMilli(), sess.UpdatedAt.UnixMilli(),
		string(sess.Persona), string(sess.LastMode), sess.ProjectID)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	for i, m := range snap.Messages {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode message %s: %w", m.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, id, seq, data) VALUES (?, ?, ?, ?)`,
			sess.ID, m.ID, i, string(data)); err != nil {
			return fmt.Errorf("insert message %s: %w", m.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteSession removes a session and its messages.
func (p *SQLitePersister) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LoadAll reads every stored session.
func (p *SQLitePersister) LoadAll(ctx context.Context) ([]Snapshot, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at, persona, last_mode, project_id
		FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var (
			sess              types.ChatSession
			created, updated  int64
			persona, lastMode string
		)
		if err := rows.Scan(&sess.ID, &sess.Title, &created, &updated, &persona, &lastMode, &sess.ProjectID); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.CreatedAt = time.UnixMilli(created)
		sess.UpdatedAt = time.UnixMilli(updated)
		sess.Persona = types.Persona(persona)
		sess.LastMode = types.ChatMode(lastMode)
		snaps = append(snaps, Snapshot{Session: sess})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	for i := range snaps {
		msgs, err := p.loadMessages(ctx, snaps[i].Session.ID)
		if err != nil {
			return nil, err
		}
		snaps[i].Messages = msgs
	}
	return snaps, nil
}

func (p *SQLitePersister) loadMessages(ctx context.Context, sessionID string) ([]types.Message, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT data FROM messages WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []types.Message
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		var m types.Message
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
