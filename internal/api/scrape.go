package api

import (
	"context"

	"github.com/tidwall/gjson"
)

// ScrapeRequest is the body of POST /scrape
type ScrapeRequest struct {
	URL string `json:"url"`
}

// ScrapeResponse is the reply of POST /scrape
type ScrapeResponse struct {
	Error      string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
	Summary    string `json:"summary,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
	Success    bool   `json:"success,omitempty"`
	StatusCode int    `json:"-"`
}

// Failed reports whether the backend returned an application error
func (r *ScrapeResponse) Failed() bool {
	return r.Error != ""
}

// Scrape asks the backend to fetch and summarise pageURL and remember it for
// later Chat calls in the same session.
func (c *Client) Scrape(ctx context.Context, pageURL string) (*ScrapeResponse, error) {
	rep, err := c.postJSON(ctx, EndpointScrape, ScrapeRequest{URL: pageURL})
	if err != nil {
		return nil, err
	}
	return parseScrapeResponse(rep.body, rep.status), nil
}

func parseScrapeResponse(body gjson.Result, status int) *ScrapeResponse {
	return &ScrapeResponse{
		Error:      truthyText(body.Get(PathError)),
		Message:    body.Get(PathMessage).String(),
		Summary:    truthyText(body.Get(PathSummary)),
		SourceURL:  body.Get(PathSourceURL).String(),
		Success:    body.Get(PathSuccess).Bool(),
		StatusCode: status,
	}
}
