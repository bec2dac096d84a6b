package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/smallnest/stockresearch/research"
	"github.com/spf13/cobra"
)

var exitCommands = map[string]bool{"quit": true, "exit": true, "bye": true, "q": true}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive research session",
	Long: `Chat reads questions from standard input and streams the answers. Follow-up
questions reuse the conversation. Type quit, exit, bye or q to leave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		if session == "" {
			session = uuid.NewString()
		}

		a, closeStore, err := newAssistant(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render("📈 Stock Market Research Assistant"))
		fmt.Fprintln(out, statusStyle.Render("session "+session+" | type 'quit' to end"))
		fmt.Fprintln(out)

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, promptStyle.Render("📈 Your stock question: "))
			if !scanner.Scan() {
				fmt.Fprintln(out)
				return scanner.Err()
			}

			question := strings.TrimSpace(scanner.Text())
			if exitCommands[strings.ToLower(question)] {
				fmt.Fprintln(out, "💰 Happy Trading!")
				return nil
			}
			if question == "" {
				fmt.Fprintln(out, "Please enter a stock market question.")
				continue
			}

			err := streamTurn(cmd, a, research.TurnRequest{Question: question, SessionID: session})
			if err != nil {
				if ctxErr := cmd.Context().Err(); ctxErr != nil {
					return ctxErr
				}
				fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("❌ "+err.Error()))
			}
			fmt.Fprintln(out, statusStyle.Render("💡 This is not financial advice."))
			fmt.Fprintln(out)
		}
	},
}

func init() {
	chatCmd.Flags().String("session", "", "session id (default: a new random id)")

	rootCmd.AddCommand(chatCmd)
}
