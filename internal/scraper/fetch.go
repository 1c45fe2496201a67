package scraper

import (
	"context"
	"fmt"
	"io"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	apierrors "github.com/diogo/pagechat/internal/errors"
)

// MaxBodyBytes caps how much of a page is downloaded
const MaxBodyBytes = 5 << 20

// Page is a downloaded document
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher downloads a URL
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// TLSFetcher downloads pages with a browser TLS fingerprint so sites that
// reject plain Go clients still answer
type TLSFetcher struct {
	client tls_client.HttpClient
}

// NewTLSFetcher creates a fetcher with the given timeout. Redirects are followed.
func NewTLSFetcher(timeout time.Duration) (*TLSFetcher, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(timeout.Seconds())),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithCookieJar(tls_client.NewCookieJar()),
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return &TLSFetcher{client: client}, nil
}

// NewTLSFetcherWithClient wraps an existing client
func NewTLSFetcherWithClient(client tls_client.HttpClient) *TLSFetcher {
	return &TLSFetcher{client: client}
}

func (f *TLSFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range browserHeaders() {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("fetch page", pageURL, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("read page", pageURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierrors.NewAPIErrorWithBody(resp.StatusCode, pageURL, "page request failed", string(body))
	}

	final := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	return &Page{
		URL:         final,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func browserHeaders() map[string]string {
	return map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,application/rss+xml;q=0.8,*/*;q=0.7",
		"Accept-Language": "en-US,en;q=0.9",
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
