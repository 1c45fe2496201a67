// Package commands provides CLI commands for pagechat.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diogo/pagechat/internal/config"
	"github.com/diogo/pagechat/internal/logger"
	"github.com/diogo/pagechat/internal/tui"
)

var (
	// Global flags
	serverFlag  string
	verboseFlag bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// errReported is returned when the failure has already been shown to the user
var errReported = errors.New("operation failed")

// NewRootCmd builds the command tree around deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}

	cmd := &cobra.Command{
		Use:   "pagechat",
		Short: "Chat with any web page",
		Long: `pagechat scrapes a web page, summarizes it and answers questions about it.

The backend keeps the scraped page in your session; the terminal client and
the browser UI talk to the same backend.

Examples:
  pagechat serve                          Start the backend
  pagechat chat                           Start the interactive chat
  pagechat scrape https://go.dev          Scrape a page and print its summary
  pagechat ask "What is this page about?" Ask about the scraped page
  pagechat import-session --browser firefox
  pagechat config                         Show the effective configuration`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "pagechat %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "Backend URL (default from config, "+config.DefaultServerURL+")")
	cmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Show detailed progress on stderr")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	cmd.AddCommand(
		newChatCmd(deps),
		newScrapeCmd(deps),
		newAskCmd(deps),
		newServeCmd(deps),
		newImportSessionCmd(deps),
		NewConfigCmd(deps),
	)
	return cmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	deps := NewDependencies()
	err := NewRootCmd(deps).ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errReported) {
			tui.PrintError(deps.Stderr, err)
		}
		os.Exit(1)
	}
}

// loadClientConfig reads the client config and applies the global flags
func loadClientConfig() (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}
	if verboseFlag {
		cfg.Verbose = true
	}
	return cfg, nil
}

// setupClientLogging routes library logs to stderr, quiet unless verbose
func setupClientLogging(deps *Dependencies, verbose bool) {
	if verbose {
		logger.Setup(deps.Stderr, "debug")
		return
	}
	logger.Setup(deps.Stderr, "warn")
}
