package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neochat-ai/neochat/pkg/core/turn"
	"github.com/neochat-ai/neochat/pkg/core/types"
	neochat "github.com/neochat-ai/neochat/sdk"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Starts a REPL-style chat. Besides plain messages, a few commands
are available:

  /new            start a fresh session
  /sessions       list saved sessions
  /open <id>      continue a saved session
  /search <text>  search saved sessions
  /regen          regenerate the last reply
  /quit           exit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	settings := settingsFromFlags()
	snap := client.NewSession(ctx, settings)
	sessionID := snap.Session.ID

	fmt.Println("NEO chat. Type /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, newID := handleCommand(ctx, client, sessionID, line, settings)
			if done {
				return nil
			}
			if newID != "" {
				sessionID = newID
			}
			continue
		}

		if err := sendAndPrint(ctx, client, sessionID, line, settings); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

func handleCommand(ctx context.Context, client *neochat.Client, sessionID, line string, settings types.Settings) (done bool, newSessionID string) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true, ""

	case "/new":
		snap := client.NewSession(ctx, settings)
		fmt.Println("Started a new session.")
		return false, snap.Session.ID

	case "/sessions":
		for _, s := range client.Store().List() {
			fmt.Printf("  %s  %s\n", s.ID, s.Title)
		}

	case "/open":
		if _, ok := client.Store().Get(arg); !ok {
			fmt.Println("No such session.")
			return false, ""
		}
		return false, arg

	case "/search":
		for _, s := range client.Store().Search(arg) {
			fmt.Printf("  %s  %s\n", s.ID, s.Title)
		}

	case "/regen":
		snap, ok := client.Store().Get(sessionID)
		if !ok || len(snap.Messages) == 0 {
			fmt.Println("Nothing to regenerate.")
			return false, ""
		}
		last := snap.Messages[len(snap.Messages)-1]
		turn, err := client.Regenerate(ctx, sessionID, last.ID, settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false, ""
		}
		waitAndPrint(client, sessionID, turn)

	default:
		fmt.Println("Unknown command.")
	}
	return false, ""
}

func sendAndPrint(ctx context.Context, client *neochat.Client, sessionID, text string, settings types.Settings) error {
	turn, err := client.Send(ctx, sessionID, text, nil, settings)
	if err != nil {
		return err
	}
	waitAndPrint(client, sessionID, turn)
	return nil
}

func waitAndPrint(client *neochat.Client, sessionID string, turn *turn.Turn) {
	if err := turn.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	msg, ok := client.Store().Message(sessionID, turn.MessageID)
	if !ok {
		return
	}
	fmt.Println(msg.Text)
	if len(msg.GroundingSources) > 0 {
		fmt.Println("Sources:")
		for _, src := range msg.GroundingSources {
			fmt.Printf("  %s  %s\n", src.Title, src.URI)
		}
	}
	fmt.Println()
}
