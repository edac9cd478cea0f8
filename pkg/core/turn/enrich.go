package turn

import (
	"context"
	"fmt"
	"strings"

	"github.com/neochat-ai/neochat/pkg/core"
	"github.com/neochat-ai/neochat/pkg/core/types"
)

const (
	titleMaxLen      = 50
	titleSourceSlice = 150
	maxSuggestions   = 3
)

// badTitlePatterns catch leaked role descriptions; a title starting with one
// is discarded in favor of the default.
var badTitlePatterns = []string{
	"You are", "Ты ", "I am", "Я ", "As an AI", "As a ", "I'm a",
}

func titlePrompt(firstMessage, lang string) string {
	src := firstMessage
	if len(src) > titleSourceSlice {
		src = src[:titleSourceSlice]
	}
	if lang == "ru" {
		return fmt.Sprintf(`Придумай короткое название (2-4 слова) для чата на основе сообщения: "%s". Ответь ТОЛЬКО названием, без кавычек и пояснений.`, src)
	}
	return fmt.Sprintf(`Create a short title (2-4 words) for chat based on: "%s". Reply with ONLY the title, no quotes or explanations.`, src)
}

func suggestionsPrompt(userText, modelText, lang string) string {
	if lang == "ru" {
		return fmt.Sprintf("Пользователь спросил: %q\nОтвет: %q\n\nПредложи 3 коротких уточняющих вопроса, которые пользователь мог бы задать дальше. По одному в строке, без нумерации и пояснений.", clip(userText, 300), clip(modelText, 500))
	}
	return fmt.Sprintf("The user asked: %q\nThe answer was: %q\n\nSuggest 3 short follow-up questions the user might ask next. One per line, no numbering, no explanations.", clip(userText, 300), clip(modelText, 500))
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// SanitizeTitle normalizes raw model output into a usable session title,
// falling back when the output is junk.
func SanitizeTitle(raw, fallback string) string {
	title := strings.TrimSpace(raw)
	title = strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '`', '«', '»', '„', '“', '”':
			return -1
		}
		return r
	}, title)
	title = strings.ReplaceAll(title, "\n", " ")
	title = strings.Trim(title, ". :\t")
	if len(title) > titleMaxLen {
		title = strings.TrimSpace(title[:titleMaxLen])
	}

	lower := strings.ToLower(title)
	for _, p := range badTitlePatterns {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return fallback
		}
	}
	if len(title) <= 1 {
		return fallback
	}
	return title
}

// ParseSuggestions extracts up to three follow-up questions from line-wise
// model output, stripping bullets and numbering.
func ParseSuggestions(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		q := strings.TrimSpace(line)
		q = strings.TrimLeft(q, "-*•0123456789.) ")
		q = strings.Trim(q, `"`)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// enrichTitle generates a session title from the first user message. Runs
// fire-and-forget; the store's SetTitle refuses the write when the session
// is gone or the user already renamed it.
func (o *Orchestrator) enrichTitle(ctx context.Context, sessionID, firstMessage string, s types.Settings, apiKey string) {
	fallback := "New Chat"
	if s.ReplyLanguage == "ru" {
		fallback = "Новый чат"
	}

	raw, err := o.gateway.Generate(ctx, &core.GenerateRequest{
		Model:           s.ModelName(),
		History:         []types.Message{{Role: types.RoleUser, Text: titlePrompt(firstMessage, s.ReplyLanguage)}},
		Temperature:     0.5,
		MaxOutputTokens: 30,
		APIKey:          apiKey,
	})
	if err != nil {
		o.logger.Debug("title enrichment failed", "session_id", sessionID, "error", err)
		return
	}

	title := SanitizeTitle(raw, fallback)
	if types.IsDefaultTitle(title) {
		return
	}
	if !o.store.SetTitle(ctx, sessionID, title) {
		o.logger.Debug("title enrichment dropped as stale", "session_id", sessionID)
	}
}

// enrichSuggestions attaches follow-up questions to a finished model
// message. Stale writes are refused by the store.
func (o *Orchestrator) enrichSuggestions(ctx context.Context, sessionID, messageID, userText, modelText string, s types.Settings, apiKey string) {
	raw, err := o.gateway.Generate(ctx, &core.GenerateRequest{
		Model:           s.ModelName(),
		History:         []types.Message{{Role: types.RoleUser, Text: suggestionsPrompt(userText, modelText, s.ReplyLanguage)}},
		Temperature:     0.7,
		MaxOutputTokens: 120,
		APIKey:          apiKey,
	})
	if err != nil {
		o.logger.Debug("suggestion enrichment failed", "session_id", sessionID, "error", err)
		return
	}

	qs := ParseSuggestions(raw)
	if len(qs) == 0 {
		return
	}
	if !o.store.SetSuggestions(ctx, sessionID, messageID, qs) {
		o.logger.Debug("suggestion enrichment dropped as stale",
			"session_id", sessionID, "message_id", messageID)
	}
}
