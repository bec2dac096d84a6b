// Command stockresearch answers stock market questions from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/smallnest/stockresearch/config"
	"github.com/smallnest/stockresearch/log"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	statusStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("108"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

var rootCmd = &cobra.Command{
	Use:     "stockresearch",
	Short:   "Live stock market research assistant",
	Version: version,
	Long: `stockresearch answers natural-language market questions. Questions that need
live data are answered from fresh web search results and encyclopedic background;
conversational questions are answered from the session history.

Configuration is read from ./stockresearch.yaml or ~/.config/stockresearch/config.yaml,
and every key can be overridden with a STOCKRESEARCH_ environment variable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			c.Log.Level = lvl
		}
		level, err := log.ParseLevel(c.Log.Level)
		if err != nil {
			return err
		}
		log.SetLogLevel(level)
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./stockresearch.yaml or ~/.config/stockresearch/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error, none")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		stop()
		os.Exit(1)
	}
}
