// Package main provides the lit CLI entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/litreview/lit/internal/config"
	"github.com/litreview/lit/internal/logging"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(outputError(ExitError, "%v", err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "lit",
	Short: "Bibliography toolkit for literature reviews",
	Long: `lit works on BibTeX exports of literature searches.

It converts entries to CSV and spreadsheets, builds and compares DOI sets,
validates and discovers DOIs through Crossref, counts topics, scores terms
with TF-IDF, labels papers with a chat-completion model and crawls Springer
RSS search feeds. All commands output JSON by default; pass --human for
console reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")
	rootCmd.Version = Version
}

// newLogger returns the stderr progress logger for a command run.
func newLogger() *log.Logger {
	return logging.New(os.Stderr, logging.Level(verbose))
}

// loadSettings resolves configuration or exits with ExitConfigError.
func loadSettings() *config.Settings {
	s, err := config.Resolve()
	if err != nil {
		exitWithError(ExitConfigError, "loading configuration: %v\n%s", err, config.HelpfulConfigMessage())
	}
	return s
}
