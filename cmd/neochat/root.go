package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/neochat-ai/neochat/internal/dotenv"
	"github.com/neochat-ai/neochat/pkg/core/types"
	neochat "github.com/neochat-ai/neochat/sdk"
)

var (
	verbose      bool
	envFile      string
	dbPath       string
	kbDir        string
	keywordsPath string

	modelName     string
	replyLanguage string
	personaName   string
	lengthName    string
	creativity    string
	chatMode      string
	webSearch     bool
	incognito     bool
	unrestricted  bool
	profileName   string
	profileBio    string
)

var rootCmd = &cobra.Command{
	Use:   "neochat",
	Short: "Chat with NEO from the terminal",
	Long: `NEO chat client: Gemini-backed conversations with streaming replies,
grounded web search, multiple API key rotation, and live voice sessions.

Quick Start:
  neochat chat                 # Start an interactive chat
  neochat voice                # Start a live voice session
  neochat keys validate        # Check the configured API keys`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&envFile, "env-file", ".env", "Path to a dotenv file with API keys")
	pf.StringVar(&dbPath, "db", defaultDBPath(), "SQLite database for chat history (empty = in-memory)")
	pf.StringVar(&kbDir, "kb", "", "Directory of .md/.txt files injected as a knowledge base")
	pf.StringVar(&keywordsPath, "keywords", "", "YAML file with web search trigger keywords")

	pf.StringVar(&modelName, "model", "", "Model name (default gemini-2.5-flash)")
	pf.StringVar(&replyLanguage, "lang", "", "Reply language, e.g. en, ru, kk")
	pf.StringVar(&personaName, "persona", "assistant", "Persona: assistant, teacher, developer, creator, analyst")
	pf.StringVar(&lengthName, "length", "balanced", "Response length: brief, balanced, detailed")
	pf.StringVar(&creativity, "creativity", "balanced", "Creativity: precise, balanced, creative")
	pf.StringVar(&chatMode, "mode", "standard", "Chat mode: standard, research, labs")
	pf.BoolVar(&webSearch, "search", false, "Always ground replies in web search")
	pf.BoolVar(&incognito, "incognito", false, "Do not persist this conversation")
	pf.BoolVar(&unrestricted, "unrestricted", false, "Lift content safety thresholds")
	pf.StringVar(&profileName, "name", "", "Your name, shared with the assistant")
	pf.StringVar(&profileBio, "bio", "", "Short bio, shared with the assistant")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "neochat.db"
	}
	return home + "/.neochat/history.db"
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newClient() (*neochat.Client, error) {
	if err := dotenv.LoadFile(envFile); err != nil {
		return nil, err
	}

	opts := []neochat.ClientOption{
		neochat.WithLogger(newLogger()),
	}
	if dbPath != "" && !incognito {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
		opts = append(opts, neochat.WithSQLite(dbPath))
	}
	if kbDir != "" {
		opts = append(opts, neochat.WithKnowledgeBase(kbDir))
	}
	if keywordsPath != "" {
		opts = append(opts, neochat.WithKeywordConfig(keywordsPath))
	}
	return neochat.NewClient(opts...)
}

func settingsFromFlags() types.Settings {
	return types.Settings{
		Model:            modelName,
		ReplyLanguage:    replyLanguage,
		ResponseLength:   types.ResponseLength(lengthName),
		Creativity:       types.Creativity(creativity),
		Mode:             types.ChatMode(chatMode),
		WebSearchEnabled: webSearch,
		Incognito:        incognito,
		Unrestricted:     unrestricted,
		Persona:          types.Persona(personaName),
		Profile: types.UserProfile{
			Name: profileName,
			Bio:  profileBio,
		},
	}
}

func main() {
	Execute()
}
