package commands

import (
	"context"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/pagechat/internal/api"
	"github.com/diogo/pagechat/internal/browser"
	"github.com/diogo/pagechat/internal/config"
	"github.com/diogo/pagechat/internal/controller"
	"github.com/diogo/pagechat/internal/logger"
	"github.com/diogo/pagechat/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewClient builds the backend client for the effective config.
	NewClient func(cfg config.Config) (api.ClientInterface, error)

	// RunTUI runs the interactive chat until the user quits.
	RunTUI func(ctx context.Context, backend controller.Backend, opts tui.Options) error

	// ExtractSession reads the session cookie out of a local browser.
	ExtractSession func(ctx context.Context, b browser.SupportedBrowser, serverURL string) (*browser.ExtractResult, error)

	// ListBrowsers returns the browsers that have cookie stores.
	ListBrowsers func(ctx context.Context) []string

	Clipboard func(string) error
	IsTTY     func() bool

	Stdout io.Writer
	Stderr io.Writer
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient:      newClient,
		RunTUI:         tui.Run,
		ExtractSession: browser.ExtractSessionCookie,
		ListBrowsers:   browser.ListAvailableBrowsers,
		Clipboard:      clipboard.WriteAll,
		IsTTY:          isStdoutTTY,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
	}
}

// newClient creates a client seeded with the session stored for cfg.ServerURL
func newClient(cfg config.Config) (api.ClientInterface, error) {
	cookies, err := config.LoadCookies(cfg.ServerURL)
	if err != nil {
		logger.WarnCF("commands", "Ignoring stored session", map[string]interface{}{
			"error": err.Error(),
		})
		cookies = nil
	}

	return api.NewClient(
		api.WithBaseURL(cfg.ServerURL),
		api.WithTimeout(cfg.Timeout()),
		api.WithCookies(cookies),
	)
}

// saveSession persists the client's cookies so the next run joins the same session
func saveSession(client api.ClientInterface) error {
	items := client.Cookies()
	if len(items) == 0 {
		return nil
	}
	return config.SaveCookies(config.NewCookies(client.BaseURL(), items))
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
