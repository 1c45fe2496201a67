package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/diogo/pagechat/internal/config"
)

// ClientInterface is the subset of Client used by the controller and the CLI
type ClientInterface interface {
	Chat(ctx context.Context, query string) (*ChatResponse, error)
	Scrape(ctx context.Context, pageURL string) (*ScrapeResponse, error)
	Health(ctx context.Context) error
	BaseURL() string
	Cookies() []config.CookieListItem
	SetCookies(items []config.CookieListItem)
	Close()
}

// Client talks to a pagechat backend
type Client struct {
	httpClient tls_client.HttpClient
	jar        http.CookieJar
	baseURL    *url.URL
	timeout    time.Duration
	seed       []config.CookieListItem
	mu         sync.RWMutex
	closed     bool
}

var _ ClientInterface = (*Client)(nil)

// ClientOption is a function that configures the client
type ClientOption func(*Client) error

// WithBaseURL sets the backend origin, e.g. http://127.0.0.1:5000
func WithBaseURL(raw string) ClientOption {
	return func(c *Client) error {
		u, err := parseBaseURL(raw)
		if err != nil {
			return err
		}
		c.baseURL = u
		return nil
	}
}

// WithTimeout sets the transport timeout. The client adds none of its own on top.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.timeout = d
		return nil
	}
}

// WithCookieJar replaces the default in-memory cookie jar
func WithCookieJar(jar http.CookieJar) ClientOption {
	return func(c *Client) error {
		c.jar = jar
		return nil
	}
}

// WithCookies seeds the jar with previously stored session cookies
func WithCookies(cookies *config.Cookies) ClientOption {
	return func(c *Client) error {
		if cookies != nil {
			c.seed = cookies.Snapshot()
		}
		return nil
	}
}

// WithHTTPClient injects the transport (used by tests)
func WithHTTPClient(hc tls_client.HttpClient) ClientOption {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// NewClient creates a new Client
func NewClient(opts ...ClientOption) (*Client, error) {
	base, _ := parseBaseURL(config.DefaultServerURL)
	client := &Client{
		baseURL: base,
		timeout: 120 * time.Second,
	}

	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}

	if client.httpClient == nil {
		if client.jar == nil {
			client.jar = tls_client.NewCookieJar()
		}
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout.Seconds())),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithCookieJar(client.jar),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	if len(client.seed) > 0 {
		client.SetCookies(client.seed)
		client.seed = nil
	}

	return client, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("server URL cannot be empty")
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", raw)
	}
	return u, nil
}

// BaseURL returns the backend origin
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// endpoint resolves path against the base URL, keeping any path prefix the base carries
func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// Cookies returns the session cookies the backend has issued to this client
func (c *Client) Cookies() []config.CookieListItem {
	var items []config.CookieListItem
	for _, ck := range c.httpClient.GetCookies(c.baseURL) {
		items = append(items, config.CookieListItem{Name: ck.Name, Value: ck.Value})
	}
	return items
}

// SetCookies stores cookies for the backend origin only
func (c *Client) SetCookies(items []config.CookieListItem) {
	cookies := make([]*http.Cookie, 0, len(items))
	for _, item := range items {
		cookies = append(cookies, &http.Cookie{Name: item.Name, Value: item.Value, Path: "/"})
	}
	c.httpClient.SetCookies(c.baseURL, cookies)
}

// Close releases idle connections. Calls after the first are no-ops.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
