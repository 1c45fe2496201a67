package browser

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/browserutils/kooky"
)

func TestParseBrowser(t *testing.T) {
	tests := []struct {
		input    string
		expected SupportedBrowser
		wantErr  bool
	}{
		{"auto", BrowserAuto, false},
		{"", BrowserAuto, false},
		{"chrome", BrowserChrome, false},
		{"Chrome", BrowserChrome, false},
		{"CHROME", BrowserChrome, false},
		{"google-chrome", BrowserChrome, false},
		{"chromium", BrowserChromium, false},
		{"firefox", BrowserFirefox, false},
		{"Firefox", BrowserFirefox, false},
		{"mozilla", BrowserFirefox, false},
		{"mozilla-firefox", BrowserFirefox, false},
		{"edge", BrowserEdge, false},
		{"microsoft-edge", BrowserEdge, false},
		{"msedge", BrowserEdge, false},
		{"opera", BrowserOpera, false},
		{"invalid", "", true},
		{"safari", "", true}, // Not supported
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseBrowser(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseBrowser(%q) expected error, got nil", tt.input)
				}
			} else {
				if err != nil {
					t.Errorf("ParseBrowser(%q) unexpected error: %v", tt.input, err)
				}
				if result != tt.expected {
					t.Errorf("ParseBrowser(%q) = %v, want %v", tt.input, result, tt.expected)
				}
			}
		})
	}
}

func TestSupportedBrowserString(t *testing.T) {
	tests := []struct {
		browser  SupportedBrowser
		expected string
	}{
		{BrowserAuto, "auto"},
		{BrowserChrome, "chrome"},
		{BrowserChromium, "chromium"},
		{BrowserFirefox, "firefox"},
		{BrowserEdge, "edge"},
		{BrowserOpera, "opera"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if result := tt.browser.String(); result != tt.expected {
				t.Errorf("SupportedBrowser.String() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestAllSupportedBrowsers(t *testing.T) {
	browsers := AllSupportedBrowsers()

	if len(browsers) == 0 {
		t.Error("AllSupportedBrowsers() returned empty slice")
	}

	// Check that all expected browsers are present
	expected := map[SupportedBrowser]bool{
		BrowserChrome:   true,
		BrowserChromium: true,
		BrowserFirefox:  true,
		BrowserEdge:     true,
		BrowserOpera:    true,
	}

	for _, browser := range browsers {
		if !expected[browser] {
			t.Errorf("Unexpected browser in AllSupportedBrowsers(): %v", browser)
		}
		delete(expected, browser)
	}

	if len(expected) > 0 {
		t.Errorf("Missing browsers in AllSupportedBrowsers(): %v", expected)
	}
}

func TestMatchesBrowser(t *testing.T) {
	tests := []struct {
		browserName string
		target      SupportedBrowser
		expected    bool
	}{
		{"chrome", BrowserChrome, true},
		{"Google Chrome", BrowserChrome, true},
		{"chromium", BrowserChrome, false}, // chromium should not match chrome
		{"chromium", BrowserChromium, true},
		{"Chromium", BrowserChromium, true},
		{"firefox", BrowserFirefox, true},
		{"Firefox", BrowserFirefox, true},
		{"Mozilla Firefox", BrowserFirefox, true},
		{"edge", BrowserEdge, true},
		{"Microsoft Edge", BrowserEdge, true},
		{"opera", BrowserOpera, true},
		{"Opera", BrowserOpera, true},
		{"safari", BrowserChrome, false},
		{"", BrowserChrome, false},
	}

	for _, tt := range tests {
		t.Run(tt.browserName+"_"+tt.target.String(), func(t *testing.T) {
			result := matchesBrowser(tt.browserName, tt.target)
			if result != tt.expected {
				t.Errorf("matchesBrowser(%q, %v) = %v, want %v", tt.browserName, tt.target, result, tt.expected)
			}
		})
	}
}

func TestHostMatches(t *testing.T) {
	tests := []struct {
		domain string
		host   string
		want   bool
	}{
		{"localhost", "localhost", true},
		{"127.0.0.1", "127.0.0.1", true},
		{".example.com", "chat.example.com", true},
		{"example.com", "example.com", true},
		{"example.com", "badexample.com", false},
		{".0.0.1", "127.0.0.1", false},
		{"other.com", "example.com", false},
		{"", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.domain+"_"+tt.host, func(t *testing.T) {
			if got := hostMatches(tt.domain, tt.host); got != tt.want {
				t.Errorf("hostMatches(%q, %q) = %v, want %v", tt.domain, tt.host, got, tt.want)
			}
		})
	}
}

func TestNewestCookie(t *testing.T) {
	now := time.Now()
	mk := func(value string, expires time.Time) *kooky.Cookie {
		c := &kooky.Cookie{}
		c.Name = "pagechat_session"
		c.Value = value
		c.Expires = expires
		return c
	}

	if got := newestCookie(nil); got != nil {
		t.Errorf("newestCookie(nil) = %v, want nil", got)
	}

	got := newestCookie([]*kooky.Cookie{mk("old", now.Add(time.Minute)), mk("new", now.Add(time.Hour))})
	if got.Value != "new" {
		t.Errorf("newestCookie() = %q, want %q", got.Value, "new")
	}

	got = newestCookie([]*kooky.Cookie{mk("persistent", now.Add(time.Hour)), mk("session", time.Time{})})
	if got.Value != "session" {
		t.Errorf("newestCookie() = %q, want %q", got.Value, "session")
	}
}

func TestCookieHost(t *testing.T) {
	host, err := cookieHost("http://127.0.0.1:5000")
	if err != nil || host != "127.0.0.1" {
		t.Errorf("cookieHost() = %q, %v", host, err)
	}
	host, err = cookieHost("https://Chat.Example.com/")
	if err != nil || host != "chat.example.com" {
		t.Errorf("cookieHost() = %q, %v", host, err)
	}
	if _, err := cookieHost("not a url"); err == nil {
		t.Error("cookieHost() expected error for invalid URL")
	}
}

func TestListAvailableBrowsers(t *testing.T) {
	// depends on the machine; must not panic
	browsers := ListAvailableBrowsers(context.Background())
	t.Logf("Found %d browsers: %v", len(browsers), browsers)
}

func TestExtractSessionCookie_InvalidBrowser(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := ExtractSessionCookie(ctx, "nonexistent", "http://127.0.0.1:5000")
	if err == nil {
		t.Error("ExtractSessionCookie with nonexistent browser should return error")
	}
}

func TestExtractSessionCookie_InvalidServerURL(t *testing.T) {
	_, err := ExtractSessionCookie(context.Background(), BrowserChrome, "::bad")
	if err == nil || !strings.Contains(err.Error(), "invalid server URL") {
		t.Errorf("expected invalid server URL error, got %v", err)
	}
}

func TestExtractSessionCookie_AnyBrowser(t *testing.T) {
	result, err := ExtractSessionCookie(context.Background(), BrowserAuto, "http://127.0.0.1:5000")
	if err != nil {
		t.Logf("no session cookie on this machine: %v", err)
		return
	}
	if _, ok := result.Cookies.Get("pagechat_session"); !ok {
		t.Error("result is missing the session cookie")
	}
}
