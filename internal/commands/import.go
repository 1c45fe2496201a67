package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/pagechat/internal/browser"
	"github.com/diogo/pagechat/internal/config"
)

func newImportSessionCmd(deps *Dependencies) *cobra.Command {
	var (
		browserFlag string
		fileFlag    string
		listFlag    bool
	)

	cmd := &cobra.Command{
		Use:   "import-session",
		Short: "Share the browser UI's session with the terminal",
		Long: `Import the ` + config.SessionCookieName + ` cookie so the terminal client continues
the session of the browser UI (same scraped page).

By default the cookie is read from the local browser profiles. With --file it
is read from a JSON file instead, in either format:
1. A list of objects: [{"name": "` + config.SessionCookieName + `", "value": "..."}]
2. A simple dictionary: {"` + config.SessionCookieName + `": "..."}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listFlag {
				return runListBrowsers(cmd.Context(), deps)
			}
			if fileFlag != "" {
				return runImportFile(deps, fileFlag)
			}
			return runImportSession(cmd.Context(), deps, browserFlag)
		},
	}

	cmd.Flags().StringVarP(&browserFlag, "browser", "b", "auto", "Browser to read from (auto, chrome, chromium, firefox, edge, opera)")
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read the cookie from a JSON file")
	cmd.Flags().BoolVar(&listFlag, "list", false, "List browsers with a cookie store")
	return cmd
}

func runImportSession(ctx context.Context, deps *Dependencies, browserName string) error {
	cfg, err := loadClientConfig()
	if err != nil {
		return err
	}

	target, err := browser.ParseBrowser(browserName)
	if err != nil {
		return err
	}

	var spin *progress
	if deps.IsTTY() {
		spin = newSpinner(deps.Stderr, "Reading browser cookies")
		spin.start()
	}

	result, err := deps.ExtractSession(ctx, target, cfg.ServerURL)
	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		return fmt.Errorf("failed to import session: %w", err)
	}
	if spin != nil {
		spin.stopWithSuccess("Found session in " + result.BrowserName)
	}

	if err := config.SaveCookies(result.Cookies); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	cookiesPath, _ := config.GetCookiesPath()
	fmt.Fprintf(deps.Stdout, "Session imported from %s to %s\n", result.BrowserName, cookiesPath)
	return nil
}

func runImportFile(deps *Dependencies, sourcePath string) error {
	cfg, err := loadClientConfig()
	if err != nil {
		return err
	}

	if _, err := config.ImportCookies(sourcePath, cfg.ServerURL); err != nil {
		return fmt.Errorf("failed to import session: %w", err)
	}

	cookiesPath, _ := config.GetCookiesPath()
	fmt.Fprintf(deps.Stdout, "Session imported successfully to %s\n", cookiesPath)
	return nil
}

func runListBrowsers(ctx context.Context, deps *Dependencies) error {
	browsers := deps.ListBrowsers(ctx)
	if len(browsers) == 0 {
		fmt.Fprintln(deps.Stdout, "No browser cookie stores found")
		return nil
	}
	fmt.Fprintln(deps.Stdout, "Browsers with cookie stores: "+strings.Join(browsers, ", "))
	return nil
}
