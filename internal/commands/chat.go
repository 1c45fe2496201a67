package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/pagechat/internal/logger"
	"github.com/diogo/pagechat/internal/render"
	"github.com/diogo/pagechat/internal/tui"
)

func newChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat",
		Long: `Start the interactive chat.

Enter a URL to scrape a page, then Tab to the question field and ask about it.
Ctrl+Y copies the last answer; Esc quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), deps)
		},
	}
}

func runChat(ctx context.Context, deps *Dependencies) error {
	cfg, err := loadClientConfig()
	if err != nil {
		return err
	}

	if cfg.TUITheme != "" && !render.SetPalette(cfg.TUITheme) {
		fmt.Fprintf(deps.Stderr, "Warning: unknown theme %q, using %s\n", cfg.TUITheme, render.DefaultPalette)
	}
	tui.UpdateTheme()

	client, err := deps.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	// The backend may come up while the TUI is open, so this only warns
	if err := client.Health(ctx); err != nil {
		tui.PrintError(deps.Stderr, err)
	}

	// The TUI owns the terminal from here on
	logger.Disable()

	err = deps.RunTUI(ctx, client, tui.Options{
		ServerURL: client.BaseURL(),
		Markdown:  render.FromConfig(cfg.Markdown),
		Clipboard: deps.Clipboard,
	})

	if saveErr := saveSession(client); saveErr != nil {
		fmt.Fprintf(deps.Stderr, "Warning: failed to save session: %v\n", saveErr)
	}
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}
