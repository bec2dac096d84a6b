package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and manage stored sessions",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the message history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, closeStore, err := openSessionStore(cmd.Context(), cfg.Session)
		if err != nil {
			return err
		}
		defer closeStore()

		sess, err := sessions.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		full, _ := cmd.Flags().GetBool("full")
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("session %s: %d messages", sess.ID, len(sess.Messages))))
		for _, m := range sess.Messages {
			content := m.Content
			if !full && len([]rune(content)) > 200 {
				content = string([]rune(content)[:200]) + "..."
			}
			fmt.Fprintf(out, "%s %s\n%s\n\n",
				statusStyle.Render(m.CreatedAt.Local().Format(time.DateTime)),
				promptStyle.Render(string(m.Role)),
				content)
		}
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, closeStore, err := openSessionStore(cmd.Context(), cfg.Session)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := sessions.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted session %s\n", args[0])
		return nil
	},
}

var sessionPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sessions idle for longer than --older-than",
	Long: `Prune removes sessions whose newest message is older than the given age. It is
needed for the sqlite and postgres backends only: memory and redis sessions expire
after session.ttl on their own.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		age, _ := cmd.Flags().GetDuration("older-than")

		sessions, closeStore, err := openSessionStore(cmd.Context(), cfg.Session)
		if err != nil {
			return err
		}
		defer closeStore()

		p, ok := sessions.(pruner)
		if !ok {
			return fmt.Errorf("the %s backend expires sessions by itself", cfg.Session.Backend)
		}
		n, err := p.Prune(cmd.Context(), time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d messages\n", n)
		return nil
	},
}

func init() {
	sessionShowCmd.Flags().Bool("full", false, "print messages without truncation")
	sessionPruneCmd.Flags().Duration("older-than", 7*24*time.Hour, "minimum idle time of pruned sessions")

	sessionCmd.AddCommand(sessionShowCmd, sessionDeleteCmd, sessionPruneCmd)
	rootCmd.AddCommand(sessionCmd)
}
