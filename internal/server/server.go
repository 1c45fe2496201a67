// Package server is the pagechat backend: it scrapes pages, keeps the last
// one per browser session and answers questions about it.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/diogo/pagechat/internal/api"
	"github.com/diogo/pagechat/internal/config"
	"github.com/diogo/pagechat/internal/logger"
	"github.com/diogo/pagechat/internal/session"
)

//go:embed web
var webFS embed.FS

// Scraper extracts the text of a page
type Scraper interface {
	Scrape(ctx context.Context, pageURL string) (string, error)
}

// Assistant produces summaries and answers from page text
type Assistant interface {
	Answer(ctx context.Context, query, pageContext string) (string, error)
	Summarize(ctx context.Context, pageContext string) (string, error)
}

// Server wires the HTTP routes to the scraper, the assistant and the session store
type Server struct {
	cfg       config.ServerConfig
	scraper   Scraper
	assistant Assistant
	sessions  session.Store
	limiter   *clientLimiter
	cookies   *cookieCodec
	router    *mux.Router
}

// New creates a Server
func New(cfg config.ServerConfig, scraper Scraper, assistant Assistant, sessions session.Store) *Server {
	s := &Server{
		cfg:       cfg,
		scraper:   scraper,
		assistant: assistant,
		sessions:  sessions,
		limiter:   newClientLimiter(cfg.ScrapeRate, cfg.ScrapeBurst),
		cookies:   newCookieCodec(cfg.SessionSecret, cfg.SessionTTL),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	static, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(fmt.Sprintf("embedded web assets missing: %v", err))
	}

	router := mux.NewRouter()
	router.Use(s.logMiddleware, s.recoverMiddleware)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/", indexHandler(static)).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static)))).Methods(http.MethodGet)

	apiRouter := router.NewRoute().Subrouter()
	apiRouter.Use(s.sessionMiddleware)
	apiRouter.Handle(api.EndpointScrape, s.rateLimit(http.HandlerFunc(s.handleScrape))).Methods(http.MethodPost)
	apiRouter.HandleFunc(api.EndpointChat, s.handleChat).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return router
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoCF("server", "Listening", map[string]interface{}{"addr": ln.Addr().String()})
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.InfoCF("server", "Shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		s.janitor(gctx, time.Minute)
		return nil
	})

	return g.Wait()
}

// janitor periodically drops expired sessions and idle rate limiters
func (s *Server) janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruner, ok := s.sessions.(session.Pruner); ok {
				if _, err := pruner.Prune(ctx); err != nil && ctx.Err() == nil {
					logger.WarnCF("server", "Session prune failed", map[string]interface{}{"error": err.Error()})
				}
			}
			s.limiter.prune(10 * time.Minute)
		}
	}
}

func indexHandler(static fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(static, "index.html")
		if err != nil {
			writeError(w, http.StatusInternalServerError, "index.html missing")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	})
}
