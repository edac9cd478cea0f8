// Package types defines the chat domain model shared by the store, the turn
// pipeline, and the voice session.
package types

import (
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Rating is user feedback on a model message.
type Rating string

const (
	RatingNone Rating = ""
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

// GroundingSource is one web source backing a grounded answer.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Message is a single chat message. While a turn is in flight the model
// message acts as a placeholder: Thinking is set until the stream finalizes,
// Searching while grounded search is active.
type Message struct {
	ID                 string            `json:"id"`
	Role               Role              `json:"role"`
	Text               string            `json:"text"`
	Timestamp          time.Time         `json:"timestamp"`
	Attachments        []Attachment      `json:"attachments,omitempty"`
	Thinking           bool              `json:"thinking,omitempty"`
	Searching          bool              `json:"searching,omitempty"`
	GroundingSources   []GroundingSource `json:"grounding_sources,omitempty"`
	SuggestedQuestions []string          `json:"suggested_questions,omitempty"`
	Rating             Rating            `json:"rating,omitempty"`
	Mode               ChatMode          `json:"mode,omitempty"`
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.Attachments != nil {
		out.Attachments = make([]Attachment, len(m.Attachments))
		for i, a := range m.Attachments {
			out.Attachments[i] = a.Clone()
		}
	}
	if m.GroundingSources != nil {
		out.GroundingSources = append([]GroundingSource(nil), m.GroundingSources...)
	}
	if m.SuggestedQuestions != nil {
		out.SuggestedQuestions = append([]string(nil), m.SuggestedQuestions...)
	}
	return out
}

// NormalizeGroundingSource fills the title fallback chain and reports whether
// the source is usable. Placeholder URIs are rejected.
func NormalizeGroundingSource(title, uri string) (GroundingSource, bool) {
	if uri == "" || uri == "#" {
		return GroundingSource{}, false
	}
	if title == "" {
		title = uri
	}
	return GroundingSource{Title: title, URI: uri}, true
}
