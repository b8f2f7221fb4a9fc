package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agenthands/blockvoice/internal/core"
	"github.com/agenthands/blockvoice/internal/core/feedback"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Type transcripts against a local session",
	Long: `Each line is handled as if it had been spoken. Lines starting with ":"
are REPL commands:

  :code   print the generated code
  :run    run the code on the configured runner
  :blocks list the blocks in the workspace
  :quit   exit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.close(logger)

		out := cmd.OutOrStdout()
		deps := a.deps
		deps.Sinks = []feedback.Channels{feedback.Writer{W: out}}
		sess := core.NewVoiceControlSession(uuid.New().String(), core.OptionsFromConfig(cfg), deps, logger)
		defer sess.Dispose()

		return runREPL(ctx, sess, cmd.InOrStdin(), out)
	},
}

func runREPL(ctx context.Context, sess *core.VoiceControlSession, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "voice> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case ":quit", ":q":
			return nil
		case ":code":
			fmt.Fprint(out, sess.Code().Code)
		case ":run":
			// Feedback already printed the outcome.
			sess.RunCode(ctx)
		case ":blocks":
			for _, n := range sess.View().Nodes {
				fmt.Fprintf(out, "  %s %s (%.0f, %.0f)\n", shortID(n.ID), n.Type, n.Position.X, n.Position.Y)
			}
		default:
			sess.HandleTranscript(ctx, line)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
