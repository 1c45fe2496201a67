// Package scraper downloads a web page and reduces it to the labelled text
// the assistant answers from.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	apierrors "github.com/diogo/pagechat/internal/errors"
	"github.com/diogo/pagechat/internal/logger"
)

// Scraper fetches and extracts pages
type Scraper struct {
	fetcher Fetcher
}

// New creates a Scraper
func New(fetcher Fetcher) *Scraper {
	return &Scraper{fetcher: fetcher}
}

// Scrape returns the extracted text of pageURL.
// An empty extraction is reported as errors.ErrNoContent.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (string, error) {
	target, err := ValidateURL(pageURL)
	if err != nil {
		return "", err
	}

	start := time.Now()
	logger.InfoCF("scraper", "Starting scrape", map[string]interface{}{"url": target})

	page, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		logger.WarnCF("scraper", "Fetch failed", map[string]interface{}{"url": target, "error": err.Error()})
		return "", apierrors.NewScrapeError(target, err)
	}

	var text string
	if IsFeed(page.ContentType, page.Body) {
		text, err = ExtractFeed(bytes.NewReader(page.Body))
	} else {
		text, err = ExtractHTML(bytes.NewReader(page.Body), page.ContentType)
	}
	if err != nil {
		return "", apierrors.NewScrapeError(target, err)
	}

	logger.InfoCF("scraper", "Scraping completed", map[string]interface{}{
		"url":      page.URL,
		"chars":    len(text),
		"duration": time.Since(start).String(),
	})

	if strings.TrimSpace(text) == "" {
		return "", apierrors.NewScrapeError(target, apierrors.ErrNoContent)
	}
	return text, nil
}

// ValidateURL accepts absolute http(s) URLs. A missing scheme defaults to https.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apierrors.NewValidationError("url", "No URL provided")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", apierrors.NewValidationError("url", fmt.Sprintf("invalid URL: %v", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", apierrors.NewValidationError("url", fmt.Sprintf("unsupported URL scheme: %s", u.Scheme))
	}
	if u.Host == "" {
		return "", apierrors.NewValidationError("url", "URL has no host")
	}
	return u.String(), nil
}

// Truncate shortens text to at most limit characters, cutting after the last
// full stop inside the limit when there is one.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	for i := len(cut) - 1; i >= 0; i-- {
		if cut[i] == '.' {
			return string(runes[:i+1])
		}
	}
	return string(cut)
}
