// Package api provides the HTTP client for the pagechat backend.
package api

// Backend endpoints.
const (
	EndpointChat   = "/chat"
	EndpointScrape = "/scrape"
	EndpointHealth = "/healthz"
)

// GJSON paths shared by request and response bodies.
const (
	// Request fields
	PathQuery = "query"
	PathURL   = "url"

	// Response fields. error is present on every failure reply,
	// the rest only on success.
	PathError     = "error"
	PathAnswer    = "answer"
	PathSummary   = "summary"
	PathMessage   = "message"
	PathSourceURL = "source_url"
	PathSuccess   = "success"
)

// maxResponseBytes caps how much of a reply body is read
const maxResponseBytes = 4 << 20
