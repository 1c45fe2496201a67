package api

import (
	"context"
	"sync"

	"github.com/diogo/pagechat/internal/config"
)

// MockClient is a mock implementation of ClientInterface for testing.
// ChatFunc and ScrapeFunc, when set, take precedence over the canned values.
type MockClient struct {
	// Mock return values
	ChatVal    *ChatResponse
	ChatErr    error
	ScrapeVal  *ScrapeResponse
	ScrapeErr  error
	HealthErr  error
	BaseURLVal string
	CookiesVal []config.CookieListItem

	ChatFunc   func(ctx context.Context, query string) (*ChatResponse, error)
	ScrapeFunc func(ctx context.Context, pageURL string) (*ScrapeResponse, error)

	// Call recorders
	mu          sync.Mutex
	ChatCalls   []string
	ScrapeCalls []string
	CloseCalled bool
}

// Ensure MockClient implements ClientInterface
var _ ClientInterface = (*MockClient)(nil)

func (m *MockClient) Chat(ctx context.Context, query string) (*ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, query)
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, query)
	}
	return m.ChatVal, m.ChatErr
}

func (m *MockClient) Scrape(ctx context.Context, pageURL string) (*ScrapeResponse, error) {
	m.mu.Lock()
	m.ScrapeCalls = append(m.ScrapeCalls, pageURL)
	fn := m.ScrapeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, pageURL)
	}
	return m.ScrapeVal, m.ScrapeErr
}

func (m *MockClient) Health(ctx context.Context) error {
	return m.HealthErr
}

func (m *MockClient) BaseURL() string {
	if m.BaseURLVal == "" {
		return config.DefaultServerURL
	}
	return m.BaseURLVal
}

func (m *MockClient) Cookies() []config.CookieListItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CookiesVal
}

func (m *MockClient) SetCookies(items []config.CookieListItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CookiesVal = items
}

func (m *MockClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
}

// ChatCallCount returns how many Chat calls were made
func (m *MockClient) ChatCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChatCalls)
}

// ScrapeCallCount returns how many Scrape calls were made
func (m *MockClient) ScrapeCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ScrapeCalls)
}
