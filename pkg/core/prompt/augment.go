package prompt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/neochat-ai/neochat/pkg/core/types"
)

// Trigger records which rule turned search augmentation on.
type Trigger string

const (
	TriggerNone    Trigger = ""
	TriggerToggle  Trigger = "toggle"
	TriggerMode    Trigger = "mode"
	TriggerURL     Trigger = "url"
	TriggerKeyword Trigger = "keyword"
)

// Decision is the outcome of the augmentation check for one turn.
type Decision struct {
	Search  bool
	Trigger Trigger
}

// KeywordConfig holds the data-driven part of the augmentation heuristic.
// Matching is case-insensitive substring.
type KeywordConfig struct {
	SearchKeywords []string `yaml:"search_keywords"`
}

// DefaultKeywordConfig covers freshness, news, and price intents in the
// languages the product ships in.
func DefaultKeywordConfig() KeywordConfig {
	return KeywordConfig{
		SearchKeywords: []string{
			"today", "latest", "news", "current", "right now",
			"price of", "weather", "score", "stock",
			"сегодня", "новости", "последние", "сейчас",
			"курс", "цена", "погода",
		},
	}
}

// LoadKeywordConfig reads a YAML keyword config. A missing file falls back
// to the defaults.
func LoadKeywordConfig(path string) (KeywordConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultKeywordConfig(), nil
		}
		return KeywordConfig{}, fmt.Errorf("read keyword config %q: %w", path, err)
	}
	var cfg KeywordConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return KeywordConfig{}, fmt.Errorf("parse keyword config %q: %w", path, err)
	}
	if len(cfg.SearchKeywords) == 0 {
		cfg = DefaultKeywordConfig()
	}
	return cfg, nil
}

// Decide determines whether a turn should run with search augmentation.
// Pure: same inputs, same answer. Checks run cheapest-first and the first
// hit wins.
func Decide(text string, s types.Settings, cfg KeywordConfig) Decision {
	if s.WebSearchEnabled {
		return Decision{Search: true, Trigger: TriggerToggle}
	}
	if s.Mode == types.ModeResearch {
		return Decision{Search: true, Trigger: TriggerMode}
	}
	if strings.Contains(text, "http") || strings.Contains(text, "www.") {
		return Decision{Search: true, Trigger: TriggerURL}
	}
	lower := strings.ToLower(text)
	for _, kw := range cfg.SearchKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return Decision{Search: true, Trigger: TriggerKeyword}
		}
	}
	return Decision{}
}
