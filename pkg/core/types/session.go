package types

import (
	"time"
)

// ChatSession is the metadata for one conversation. Message content lives in
// the store, keyed by id with a separate order slice, so the session struct
// stays cheap to copy.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Persona   Persona   `json:"persona"`
	LastMode  ChatMode  `json:"last_mode"`
	ProjectID string    `json:"project_id,omitempty"`
	Incognito bool      `json:"incognito,omitempty"`
}

// DefaultTitles are the titles a freshly created session may carry, in any
// supported UI language. Title enrichment only overwrites these.
var DefaultTitles = []string{
	"New Chat",
	"Новый чат",
	"Жаңа чат",
}

// IsDefaultTitle reports whether title is still one of the untouched
// defaults.
func IsDefaultTitle(title string) bool {
	if title == "" {
		return true
	}
	for _, d := range DefaultTitles {
		if title == d {
			return true
		}
	}
	return false
}

// Project groups sessions in the sidebar.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
