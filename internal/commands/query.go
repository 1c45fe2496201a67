package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/diogo/pagechat/internal/config"
	"github.com/diogo/pagechat/internal/controller"
	"github.com/diogo/pagechat/internal/render"
)

// operation selects which controller action a one-shot run performs
type operation int

const (
	opScrape operation = iota
	opAsk
)

func (o operation) progress() string {
	if o == opScrape {
		return "Scraping"
	}
	return "Thinking"
}

// valueField is a controller.Field holding a command-line argument
type valueField struct {
	value string
}

func (f *valueField) Value() string     { return f.value }
func (f *valueField) SetValue(v string) { f.value = v }

func newScrapeCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape <url>",
		Short: "Scrape a page and print its summary",
		Long: `Scrape a web page through the backend and print the summary.

The page becomes the context of later 'ask' and 'chat' questions in the same
session. A missing scheme defaults to https.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(cmd.Context(), deps, opScrape, args[0])
		},
	}
}

func newAskCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the scraped page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			if strings.TrimSpace(question) == "" {
				return fmt.Errorf("question cannot be empty")
			}
			return runOneShot(cmd.Context(), deps, opAsk, question)
		},
	}
}

// runOneShot performs a single controller operation and prints the resulting
// entries. Bot entries go to stdout, error entries to stderr.
func runOneShot(ctx context.Context, deps *Dependencies, op operation, input string) error {
	cfg, err := loadClientConfig()
	if err != nil {
		return err
	}
	setupClientLogging(deps, cfg.Verbose)
	render.SetPalette(cfg.TUITheme)

	client, err := deps.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	if cfg.Verbose {
		fmt.Fprintf(deps.Stderr, "[verbose] Server: %s\n", client.BaseURL())
	}

	log := controller.NewLog()
	ctrl := controller.New(client, log)
	field := &valueField{value: input}

	decorated := deps.IsTTY()
	var spin *progress
	if decorated {
		spin = newSpinner(deps.Stderr, op.progress())
		spin.start()
	}

	startTime := time.Now()
	var done <-chan struct{}
	if op == opScrape {
		done = ctrl.ScrapeWebsite(ctx, field)
	} else {
		done = ctrl.SendMessage(ctx, field)
	}
	<-done
	requestDuration := time.Since(startTime)

	_, failed := log.Last(controller.KindError)
	if spin != nil {
		if failed {
			spin.stopWithError()
		} else {
			spin.stopWithSuccess("Done")
		}
	}

	if cfg.Verbose {
		fmt.Fprintf(deps.Stderr, "[verbose] Request took %s\n", requestDuration.Round(time.Millisecond))
	}

	printEntries(deps.Stdout, deps.Stderr, log.Entries(), cfg, decorated)

	if err := saveSession(client); err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: failed to save session: %v\n", err)
	}

	if failed {
		return errReported
	}

	if cfg.CopyToClipboard {
		if last, ok := log.Last(controller.KindBot); ok {
			copyToClipboard(deps, last.Text)
		}
	}
	return nil
}

// printEntries writes the log. The user's own entry is not echoed.
func printEntries(stdout, stderr io.Writer, entries []controller.Entry, cfg config.Config, decorated bool) {
	styles := currentStyles()
	for _, e := range entries {
		switch e.Kind {
		case controller.KindBot:
			if !decorated {
				fmt.Fprintln(stdout, e.Text)
				continue
			}
			printBubble(stdout, styles, e.Text, cfg)
		case controller.KindError:
			if decorated {
				fmt.Fprintln(stderr, styles.failure.Render("✗ "+e.Text))
			} else {
				fmt.Fprintln(stderr, "Error: "+e.Text)
			}
		}
	}
}

// printBubble renders a bot reply the way the chat TUI does
func printBubble(w io.Writer, styles cliStyles, text string, cfg config.Config) {
	bubbleWidth := getTerminalWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}

	fmt.Fprintln(w, styles.label.Render("✦ pagechat"))
	rendered := render.Reply(text, render.FromConfig(cfg.Markdown), bubbleWidth-4)
	fmt.Fprintln(w, styles.bubble.Width(bubbleWidth).Render(rendered))
}

func copyToClipboard(deps *Dependencies, text string) {
	styles := currentStyles()
	if err := deps.Clipboard(text); err != nil {
		fmt.Fprintln(deps.Stderr, styles.failure.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		return
	}
	fmt.Fprintln(deps.Stderr, styles.success.Render("✓ Copied to clipboard"))
}
