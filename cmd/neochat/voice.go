package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neochat-ai/neochat/pkg/core/live"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Start a live voice session",
	Long: `Opens a duplex voice session: speak into the microphone and NEO
answers out loud. Start speaking over the answer to interrupt it.
Press Ctrl+C to end the session.`,
	RunE: runVoice,
}

func init() {
	rootCmd.AddCommand(voiceCmd)
}

func runVoice(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := cmd.Context()
	settings := settingsFromFlags()
	snap := client.NewSession(ctx, settings)

	cfg := live.DefaultConfig()
	mic, sink, cleanup, err := initAudio(cfg.Input.SampleRate, cfg.Output.SampleRate)
	if err != nil {
		return err
	}
	defer cleanup()

	ctrl, err := client.StartVoice(ctx, snap.Session.ID, sink, settings)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	fmt.Println("Voice session started. Speak, or press Ctrl+C to stop.")

	go printVoiceEvents(ctrl)

	// 20ms frames at the input rate
	frameBytes := cfg.Input.BytesForDurationMs(20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		frame := make([]byte, frameBytes)
		for {
			n := mic.Read(frame)
			if n == 0 {
				return
			}
			if err := ctrl.ProcessAudio(frame[:n]); err != nil {
				return
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-done:
	case <-ctx.Done():
	}

	fmt.Println("\nEnding session.")
	return nil
}

func printVoiceEvents(ctrl *live.Controller) {
	for ev := range ctrl.Events() {
		switch e := ev.(type) {
		case live.InputTranscriptEvent:
			fmt.Printf("you: %s\n", e.Text)
		case live.OutputTranscriptEvent:
			fmt.Printf("neo: %s\n", e.Text)
		case live.BargeInEvent:
			fmt.Println("(interrupted)")
		case live.ErrorEvent:
			fmt.Fprintf(os.Stderr, "voice error: %v\n", e.Err)
		}
	}
}
