package turn

// Notices are the user-facing texts the orchestrator writes into the
// placeholder when a turn cannot produce a normal answer. Keyed by UI
// language with English as the fallback.
type Notices struct {
	NoContent     string
	EmptyResponse string
	QuotaAllKeys  string
	InvalidKey    string
	SwitchingKey  string
	Reconnecting  string
	ErrorPrefix   string
}

var noticesByLanguage = map[string]Notices{
	"en": {
		NoContent:     "❌ No content to send. Add text or a supported file.",
		EmptyResponse: "🤔 Could not get a response. Try rephrasing your question.",
		QuotaAllKeys:  "**Error**: API quota exceeded on all keys. Please try later or add more API keys.",
		InvalidKey:    "**Error**: Invalid API key. Please check your API key in Settings.",
		SwitchingKey:  "\n\n*Switching to backup API key...*\n\n",
		Reconnecting:  "\n\n*Connection error, retrying...*\n\n",
		ErrorPrefix:   "**Error**: ",
	},
	"ru": {
		NoContent:     "❌ Нет содержимого для отправки. Добавьте текст или поддерживаемый файл.",
		EmptyResponse: "🤔 Не удалось получить ответ. Попробуйте переформулировать вопрос.",
		QuotaAllKeys:  "**Ошибка**: квота API исчерпана на всех ключах. Попробуйте позже или добавьте ключи.",
		InvalidKey:    "**Ошибка**: неверный API-ключ. Проверьте ключ в настройках.",
		SwitchingKey:  "\n\n*Переключаюсь на резервный API-ключ...*\n\n",
		Reconnecting:  "\n\n*Ошибка соединения, повторяю...*\n\n",
		ErrorPrefix:   "**Ошибка**: ",
	},
}

// NoticesFor returns the notice set for a UI language.
func NoticesFor(lang string) Notices {
	if n, ok := noticesByLanguage[lang]; ok {
		return n
	}
	return noticesByLanguage["en"]
}
