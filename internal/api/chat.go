package api

import (
	"context"

	"github.com/tidwall/gjson"
)

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse is the reply of POST /chat. Error is set on failure, Answer on success.
type ChatResponse struct {
	Error      string `json:"error,omitempty"`
	Answer     string `json:"answer,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
	Success    bool   `json:"success,omitempty"`
	StatusCode int    `json:"-"`
}

// Failed reports whether the backend returned an application error
func (r *ChatResponse) Failed() bool {
	return r.Error != ""
}

// Chat asks a question about the page scraped earlier in this session.
// The query is sent as given; trimming is the caller's concern.
func (c *Client) Chat(ctx context.Context, query string) (*ChatResponse, error) {
	rep, err := c.postJSON(ctx, EndpointChat, ChatRequest{Query: query})
	if err != nil {
		return nil, err
	}
	return parseChatResponse(rep.body, rep.status), nil
}

func parseChatResponse(body gjson.Result, status int) *ChatResponse {
	return &ChatResponse{
		Error:      truthyText(body.Get(PathError)),
		Answer:     body.Get(PathAnswer).String(),
		SourceURL:  body.Get(PathSourceURL).String(),
		Success:    body.Get(PathSuccess).Bool(),
		StatusCode: status,
	}
}
