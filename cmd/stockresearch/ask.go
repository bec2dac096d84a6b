package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/smallnest/stockresearch/research"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question",
	Long: `Ask answers one question and prints the answer followed by the sources it cites.
Use --session to continue an earlier conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		stream, _ := cmd.Flags().GetBool("stream")

		a, closeStore, err := newAssistant(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		req := research.TurnRequest{Question: strings.Join(args, " "), SessionID: session}
		out := cmd.OutOrStdout()
		if stream {
			return streamTurn(cmd, a, req)
		}

		res, err := a.RunTurn(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, res.Answer)
		printSources(out, res.Sources)
		return nil
	},
}

func init() {
	askCmd.Flags().String("session", research.DefaultSessionID, "session id")
	askCmd.Flags().Bool("stream", false, "print the answer as it is generated")

	rootCmd.AddCommand(askCmd)
}

// streamTurn prints status lines and answer fragments as they arrive.
func streamTurn(cmd *cobra.Command, a *research.Assistant, req research.TurnRequest) error {
	events, err := a.RunTurnStreaming(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for ev := range events {
		switch ev.Type {
		case research.EventMetadata:
			if ev.NeedsSearch {
				fmt.Fprintln(cmd.ErrOrStderr(), statusStyle.Render("live data needed"))
			}
		case research.EventStatus:
			fmt.Fprintln(cmd.ErrOrStderr(), statusStyle.Render(ev.Status))
		case research.EventContent:
			fmt.Fprint(out, ev.Content)
		case research.EventComplete:
			fmt.Fprintln(out)
			printSources(out, ev.Sources)
		case research.EventError:
			return ev.Err
		}
	}
	return cmd.Context().Err()
}

func printSources(w io.Writer, sources []string) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(w, titleStyle.Render("\nSources used:"))
	for _, s := range sources {
		fmt.Fprintln(w, sourceStyle.Render("  "+s))
	}
}
