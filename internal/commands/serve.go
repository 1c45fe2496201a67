package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/diogo/pagechat/internal/config"
	"github.com/diogo/pagechat/internal/llm"
	"github.com/diogo/pagechat/internal/logger"
	"github.com/diogo/pagechat/internal/scraper"
	"github.com/diogo/pagechat/internal/server"
	"github.com/diogo/pagechat/internal/session"
)

func newServeCmd(deps *Dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pagechat backend",
		Long: `Run the backend that scrapes pages and answers questions about them.

Settings come from the environment:
  PAGECHAT_LLM_BASE_URL / LLAMA_API_URL   OpenAI-compatible endpoint
  PAGECHAT_LLM_API_KEY / API_KEY          API key (required)
  PAGECHAT_LLM_PROVIDER                   openai (default) or anthropic
  PAGECHAT_FALLBACK_*                     optional second provider
  PAGECHAT_SESSION_SECRET / SESSION_SECRET
  PAGECHAT_SESSION_STORE                  file (default), memory or redis

The browser UI is served at the root of the listen address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), deps, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default PAGECHAT_ADDR or 127.0.0.1:5000)")
	return cmd
}

func runServe(ctx context.Context, deps *Dependencies, addr string) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}
	if addr != "" {
		cfg.Addr = addr
	}

	level := cfg.LogLevel
	if verboseFlag {
		level = "debug"
	}
	logger.Setup(deps.Stderr, level)

	if cfg.SessionSecret == config.DefaultSessionSecret {
		logger.WarnCF("commands", "Using the default session secret; set PAGECHAT_SESSION_SECRET", nil)
	}

	store, err := session.NewStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer closeStore(store)

	fetcher, err := scraper.NewTLSFetcher(cfg.ScrapeTimeout)
	if err != nil {
		return fmt.Errorf("failed to create scraper: %w", err)
	}

	provider, err := llm.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	srv := server.New(cfg, scraper.New(fetcher), llm.NewAssistant(provider, cfg.LLMTimeout), store)
	return srv.Run(ctx)
}

// closeStore releases stores that hold connections, such as the redis store
func closeStore(store session.Store) {
	closer, ok := store.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.WarnCF("commands", "Failed to close session store", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
