package types

// UserProfile is what the user told us about themselves. Both fields feed
// the system instruction when present.
type UserProfile struct {
	Name string `json:"name,omitempty"`
	Bio  string `json:"bio,omitempty"`
}

// Settings is the per-client configuration that shapes every turn.
type Settings struct {
	Model            string         `json:"model"`
	ReplyLanguage    string         `json:"reply_language,omitempty"`
	ResponseLength   ResponseLength `json:"response_length,omitempty"`
	Creativity       Creativity     `json:"creativity,omitempty"`
	Mode             ChatMode       `json:"mode,omitempty"`
	WebSearchEnabled bool           `json:"web_search_enabled,omitempty"`
	Incognito        bool           `json:"incognito,omitempty"`
	Unrestricted     bool           `json:"unrestricted,omitempty"`
	KnowledgeBase    string         `json:"knowledge_base,omitempty"`
	Persona          Persona        `json:"persona,omitempty"`
	CustomPersona    string         `json:"custom_persona,omitempty"`
	Profile          UserProfile    `json:"profile,omitempty"`
	MaxOutputTokens  int            `json:"max_output_tokens,omitempty"`
}

// DefaultModel is used when Settings.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// ModelName returns the configured model or the default.
func (s Settings) ModelName() string {
	if s.Model == "" {
		return DefaultModel
	}
	return s.Model
}
