package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/pagechat/internal/errors"
)

// reply is a decoded JSON object body together with its status code
type reply struct {
	status int
	body   gjson.Result
}

// postJSON sends payload to path and decodes the reply body as a JSON object.
// The status code does not decide success: the backend reports failures in
// the body's error field, so any JSON object is handed back to the caller.
func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) (*reply, error) {
	if c.IsClosed() {
		return nil, fmt.Errorf("client is closed")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, path)
}

func (c *Client) do(req *http.Request, path string) (*reply, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apierrors.NewNetworkErrorWithEndpoint(path, path, apierrors.NewTimeoutError(path))
		}
		return nil, apierrors.NewNetworkErrorWithEndpoint(path, path, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint(path, path, err)
	}

	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError(fmt.Sprintf("invalid JSON in response from %s (HTTP %d)", path, resp.StatusCode), path)
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return nil, apierrors.NewParseError(fmt.Sprintf("expected a JSON object from %s (HTTP %d)", path, resp.StatusCode), path)
	}

	return &reply{status: resp.StatusCode, body: parsed}, nil
}

// truthyText returns the field as display text, or "" when it would be
// falsy: absent, null, false, 0 or the empty string.
func truthyText(r gjson.Result) string {
	switch r.Type {
	case gjson.Null, gjson.False:
		return ""
	case gjson.Number:
		if r.Num == 0 {
			return ""
		}
		return r.Raw
	case gjson.String:
		return r.Str
	case gjson.True:
		return "true"
	default:
		return r.Raw
	}
}

// Health checks that the backend answers on its health endpoint
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(EndpointHealth), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierrors.NewNetworkErrorWithEndpoint("health check", EndpointHealth, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return apierrors.NewAPIError(resp.StatusCode, EndpointHealth, "health check failed")
	}
	return nil
}
