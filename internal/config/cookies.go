package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SessionCookieName is the cookie the pagechat server uses to identify a session
const SessionCookieName = "pagechat_session"

// CookieListItem represents a cookie in browser export format
type CookieListItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Cookies holds the session cookies issued by one backend origin
type Cookies struct {
	mu     sync.RWMutex     `json:"-"`
	Origin string           `json:"origin"`
	Items  []CookieListItem `json:"cookies"`
}

// NewCookies creates a cookie set for origin
func NewCookies(origin string, items []CookieListItem) *Cookies {
	return &Cookies{Origin: normalizeOrigin(origin), Items: items}
}

// Snapshot returns a copy of the cookies (for serialization or HTTP requests)
func (c *Cookies) Snapshot() []CookieListItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CookieListItem, len(c.Items))
	copy(out, c.Items)
	return out
}

// Set adds or replaces a cookie by name
func (c *Cookies) Set(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.Items {
		if c.Items[i].Name == name {
			c.Items[i].Value = value
			return
		}
	}
	c.Items = append(c.Items, CookieListItem{Name: name, Value: value})
}

// Get returns the value of a cookie by name
func (c *Cookies) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.Items {
		if item.Name == name {
			return item.Value, true
		}
	}
	return "", false
}

// LoadCookies loads the stored cookies for origin.
// It returns (nil, nil) when nothing is stored or the stored cookies belong to another origin.
func LoadCookies(origin string) (*Cookies, error) {
	cookiesPath, err := GetCookiesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(cookiesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cookies file: %w", err)
	}

	cookies, err := parseCookies(data, origin)
	if err != nil {
		return nil, err
	}
	if cookies.Origin != normalizeOrigin(origin) {
		return nil, nil
	}
	return cookies, nil
}

// parseCookies parses cookies from JSON data.
// Supports the stored object format {origin, cookies}, a list [{name, value}]
// and a dict {name: value}; the last two are attributed to fallbackOrigin.
func parseCookies(data []byte, fallbackOrigin string) (*Cookies, error) {
	var stored Cookies
	if err := json.Unmarshal(data, &stored); err == nil && stored.Items != nil {
		if stored.Origin == "" {
			stored.Origin = fallbackOrigin
		}
		return NewCookies(stored.Origin, stored.Items), nil
	}

	var listFormat []CookieListItem
	if err := json.Unmarshal(data, &listFormat); err == nil {
		return NewCookies(fallbackOrigin, listFormat), nil
	}

	var dictFormat map[string]string
	if err := json.Unmarshal(data, &dictFormat); err == nil {
		cookies := NewCookies(fallbackOrigin, nil)
		for name, value := range dictFormat {
			cookies.Set(name, value)
		}
		return cookies, nil
	}

	return nil, fmt.Errorf("invalid cookies format: expected {origin, cookies}, list [{name, value}] or dict {name: value}")
}

// SaveCookies saves cookies to the cookies file
func SaveCookies(cookies *Cookies) error {
	if cookies == nil {
		return fmt.Errorf("cookies are nil")
	}

	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	cookies.mu.RLock()
	data, err := json.MarshalIndent(cookies, "", "  ")
	cookies.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	// Save with restrictive permissions (owner read/write only)
	if err := os.WriteFile(filepath.Join(configDir, "cookies.json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write cookies file: %w", err)
	}

	return nil
}

// ImportCookies imports cookies for origin from a source file
func ImportCookies(sourcePath, origin string) (*Cookies, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("source file not found: %s", sourcePath)
		}
		return nil, fmt.Errorf("could not read file: %w", err)
	}

	cookies, err := parseCookies(data, origin)
	if err != nil {
		return nil, err
	}
	if _, ok := cookies.Get(SessionCookieName); !ok {
		return nil, fmt.Errorf("missing required cookie: %s", SessionCookieName)
	}

	return cookies, SaveCookies(cookies)
}

func normalizeOrigin(origin string) string {
	return strings.TrimRight(strings.ToLower(origin), "/")
}
