package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/diogo/pagechat/internal/api"
	apierrors "github.com/diogo/pagechat/internal/errors"
	"github.com/diogo/pagechat/internal/logger"
	"github.com/diogo/pagechat/internal/scraper"
	"github.com/diogo/pagechat/internal/session"
)

// Reply texts
const (
	MsgScrapeSuccess    = "Website scraped successfully!"
	ErrNoURL            = "No URL provided"
	ErrNoQuestion       = "No question provided"
	ErrNotScraped       = "Please scrape a website first"
	ErrCouldNotExtract  = "Could not extract content from the provided URL"
	ErrInvalidJSON      = "Invalid JSON body"
	ErrTooManyRequests  = "Too many requests, please slow down"
	ErrInternal         = "Internal server error"
	maxRequestBodyBytes = 1 << 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSON(w, r)
	if !ok {
		return
	}

	pageURL := body.Get(api.PathURL).String()
	if pageURL == "" {
		writeError(w, http.StatusBadRequest, ErrNoURL)
		return
	}

	ctx := r.Context()
	text, err := s.scraper.Scrape(ctx, pageURL)
	if err != nil {
		logger.WarnCF("server", "Could not extract content", map[string]interface{}{"url": pageURL, "error": err.Error()})
		writeError(w, http.StatusBadRequest, ErrCouldNotExtract)
		return
	}

	truncated := scraper.Truncate(text, s.cfg.MaxContextChars)

	summary, err := s.assistant.Summarize(ctx, truncated)
	if err != nil {
		logger.ErrorCF("server", "Summary failed", map[string]interface{}{"url": pageURL, "error": err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data := &session.Data{ScrapedData: truncated, CurrentURL: pageURL}
	if err := s.sessions.Save(ctx, sessionID(ctx), data); err != nil {
		logger.ErrorCF("server", "Session save failed", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, api.ScrapeResponse{
		Message:   MsgScrapeSuccess,
		Summary:   summary,
		SourceURL: pageURL,
		Success:   true,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSON(w, r)
	if !ok {
		return
	}

	query := body.Get(api.PathQuery).String()
	if query == "" {
		writeError(w, http.StatusBadRequest, ErrNoQuestion)
		return
	}

	ctx := r.Context()
	id := sessionID(ctx)
	data, err := s.sessions.Get(ctx, id)
	if err != nil && !errors.Is(err, apierrors.ErrNoSession) {
		logger.ErrorCF("server", "Session load failed", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !data.HasPage() {
		writeError(w, http.StatusBadRequest, ErrNotScraped)
		return
	}

	answer, err := s.assistant.Answer(ctx, query, scraper.Truncate(data.ScrapedData, s.cfg.MaxContextChars))
	if err != nil {
		logger.ErrorCF("server", "Answer failed", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// keep the session alive while it is in use
	if err := s.sessions.Save(ctx, id, data); err != nil {
		logger.WarnCF("server", "Session refresh failed", map[string]interface{}{"error": err.Error()})
	}

	writeJSON(w, http.StatusOK, api.ChatResponse{
		Answer:    answer,
		SourceURL: data.CurrentURL,
		Success:   true,
	})
}

// readJSON reads a JSON object body. On failure it has already replied.
func readJSON(w http.ResponseWriter, r *http.Request) (gjson.Result, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidJSON)
		return gjson.Result{}, false
	}

	if !gjson.ValidBytes(data) {
		writeError(w, http.StatusBadRequest, ErrInvalidJSON)
		return gjson.Result{}, false
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		writeError(w, http.StatusBadRequest, ErrInvalidJSON)
		return gjson.Result{}, false
	}
	return parsed, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WarnCF("server", "Failed to write response", map[string]interface{}{"error": err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ChatResponse{Error: message})
}
