// Package browser reads the pagechat session cookie out of local browser
// profiles so the terminal client can join the web UI's session.
package browser

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"

	"github.com/diogo/pagechat/internal/config"
)

// SupportedBrowser represents a supported browser type
type SupportedBrowser string

const (
	BrowserAuto     SupportedBrowser = "auto"
	BrowserChrome   SupportedBrowser = "chrome"
	BrowserChromium SupportedBrowser = "chromium"
	BrowserFirefox  SupportedBrowser = "firefox"
	BrowserEdge     SupportedBrowser = "edge"
	BrowserOpera    SupportedBrowser = "opera"
)

// searchOrder is the order browsers are tried in auto mode
var searchOrder = []SupportedBrowser{
	BrowserChrome,
	BrowserFirefox,
	BrowserEdge,
	BrowserChromium,
	BrowserOpera,
}

// AllSupportedBrowsers returns a list of all supported browsers
func AllSupportedBrowsers() []SupportedBrowser {
	out := make([]SupportedBrowser, len(searchOrder))
	copy(out, searchOrder)
	return out
}

func (b SupportedBrowser) String() string {
	return string(b)
}

// ParseBrowser parses a browser string into a SupportedBrowser
func ParseBrowser(s string) (SupportedBrowser, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return BrowserAuto, nil
	case "chrome", "google-chrome":
		return BrowserChrome, nil
	case "chromium":
		return BrowserChromium, nil
	case "firefox", "mozilla", "mozilla-firefox":
		return BrowserFirefox, nil
	case "edge", "microsoft-edge", "msedge":
		return BrowserEdge, nil
	case "opera":
		return BrowserOpera, nil
	default:
		return "", fmt.Errorf("unsupported browser: %s. Supported: chrome, chromium, firefox, edge, opera", s)
	}
}

// ExtractResult contains the result of cookie extraction
type ExtractResult struct {
	Cookies     *config.Cookies
	BrowserName string
}

// ExtractSessionCookie finds the pagechat session cookie the browser holds for serverURL
func ExtractSessionCookie(ctx context.Context, browser SupportedBrowser, serverURL string) (*ExtractResult, error) {
	host, err := cookieHost(serverURL)
	if err != nil {
		return nil, err
	}

	if browser != BrowserAuto {
		return extractFromBrowser(ctx, browser, serverURL, host)
	}

	var lastErr error
	for _, b := range searchOrder {
		result, err := extractFromBrowser(ctx, b, serverURL, host)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no %s cookie for %s in any browser: %w", config.SessionCookieName, host, lastErr)
}

// cookieHost returns the host cookies for serverURL are stored under
func cookieHost(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q", serverURL)
	}
	return strings.ToLower(u.Hostname()), nil
}

// extractFromBrowser tries every profile of one browser
func extractFromBrowser(ctx context.Context, browser SupportedBrowser, serverURL, host string) (*ExtractResult, error) {
	stores := kooky.FindAllCookieStores(ctx)

	var matching []kooky.CookieStore
	for _, store := range stores {
		if matchesBrowser(store.Browser(), browser) {
			matching = append(matching, store)
		} else {
			_ = store.Close()
		}
	}
	defer func() {
		for _, store := range matching {
			_ = store.Close()
		}
	}()

	if len(matching) == 0 {
		return nil, fmt.Errorf("browser %s not found or no cookie store available", browser)
	}

	var candidates []*kooky.Cookie
	var found kooky.CookieStore
	for _, store := range matching {
		cookies := store.TraverseCookies(
			kooky.Valid,
			kooky.Name(config.SessionCookieName),
		).OnlyCookies()

		for cookie := range cookies {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if hostMatches(cookie.Domain, host) {
				candidates = append(candidates, cookie)
				if found == nil {
					found = store
				}
			}
		}
	}

	best := newestCookie(candidates)
	if best == nil {
		return nil, fmt.Errorf("cookie %s for %s not found in %s. Open the web UI once in that browser", config.SessionCookieName, host, browser)
	}

	name := found.Browser()
	if profile := found.Profile(); profile != "" {
		name = fmt.Sprintf("%s (profile: %s)", name, profile)
	}

	return &ExtractResult{
		Cookies:     config.NewCookies(serverURL, []config.CookieListItem{{Name: best.Name, Value: best.Value}}),
		BrowserName: name,
	}, nil
}

// matchesBrowser checks if a browser name matches the target browser
func matchesBrowser(browserName string, target SupportedBrowser) bool {
	browserName = strings.ToLower(browserName)

	switch target {
	case BrowserChrome:
		return strings.Contains(browserName, "chrome") && !strings.Contains(browserName, "chromium")
	case BrowserChromium:
		return strings.Contains(browserName, "chromium")
	case BrowserFirefox:
		return strings.Contains(browserName, "firefox")
	case BrowserEdge:
		return strings.Contains(browserName, "edge")
	case BrowserOpera:
		return strings.Contains(browserName, "opera")
	default:
		return false
	}
}

// hostMatches reports whether a cookie stored for domain is sent to host.
// IP hosts only match exactly.
func hostMatches(domain, host string) bool {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	if domain == "" {
		return false
	}
	if domain == host {
		return true
	}
	if net.ParseIP(host) != nil {
		return false
	}
	return strings.HasSuffix(host, "."+domain)
}

// newestCookie picks the cookie that expires last; session cookies (no expiry) win
func newestCookie(cookies []*kooky.Cookie) *kooky.Cookie {
	var best *kooky.Cookie
	for _, c := range cookies {
		switch {
		case best == nil:
			best = c
		case c.Expires.IsZero() && !best.Expires.IsZero():
			best = c
		case !best.Expires.IsZero() && c.Expires.After(best.Expires):
			best = c
		}
	}
	return best
}

// ListAvailableBrowsers returns the browsers that have cookie stores
func ListAvailableBrowsers(ctx context.Context) []string {
	var browsers []string
	seen := make(map[string]bool)
	for _, store := range kooky.FindAllCookieStores(ctx) {
		name := store.Browser()
		if !seen[name] {
			browsers = append(browsers, name)
			seen[name] = true
		}
		_ = store.Close()
	}
	return browsers
}
