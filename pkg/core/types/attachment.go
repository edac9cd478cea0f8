package types

import (
	"strings"
)

// Attachment is a file the user attached to a message. Data holds the raw
// bytes; encoding for the wire is the gateway's concern.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data,omitempty"`
}

// Clone returns a deep copy of the attachment.
func (a Attachment) Clone() Attachment {
	out := a
	if a.Data != nil {
		out.Data = append([]byte(nil), a.Data...)
	}
	return out
}

// IsImage reports whether the attachment is an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}
