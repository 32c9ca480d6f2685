package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blackwell-systems/clientdash/internal/source"
)

const maxReplySize = 4 << 20 // 4MB

// Request is the body POSTed to the webhook.
type Request struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// Reply is the webhook response body.
type Reply struct {
	Message  string          `json:"message,omitempty"`
	Response string          `json:"response,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Update   json.RawMessage `json:"update,omitempty"`
}

// Text returns the display string: message, then response, then the
// placeholder.
func (r Reply) Text() string {
	switch {
	case r.Message != "":
		return r.Message
	case r.Response != "":
		return r.Response
	default:
		return PlaceholderText
	}
}

// Payload returns the update payload, preferring data over update. It
// returns nil when neither field carries a value.
func (r Reply) Payload() source.UpdatePayload {
	if present(r.Data) {
		return source.UpdatePayload(r.Data)
	}
	if present(r.Update) {
		return source.UpdatePayload(r.Update)
	}
	return nil
}

// present treats absent, null, false, zero and empty-string fields as no
// payload.
func present(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// Client posts chat messages to the assistant webhook.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a webhook client. A zero timeout means no client-side
// limit.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// URL returns the webhook endpoint.
func (c *Client) URL() string { return c.url }

// Post sends text and decodes the reply. Every failure, including a non-2xx
// status or a body that is not a JSON object, is returned as
// *source.FetchError.
func (c *Client) Post(ctx context.Context, text string, at time.Time) (Reply, error) {
	body, err := json.Marshal(Request{
		Message:   text,
		Timestamp: at.UTC().Format(time.RFC3339),
		Type:      "chat_message",
	})
	if err != nil {
		return Reply{}, &source.FetchError{URL: c.url, Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, &source.FetchError{URL: c.url, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, &source.FetchError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return Reply{}, &source.FetchError{URL: c.url, StatusCode: resp.StatusCode}
	}

	var reply Reply
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReplySize)).Decode(&reply); err != nil {
		return Reply{}, &source.FetchError{URL: c.url, Err: fmt.Errorf("decoding reply: %w", err)}
	}
	return reply, nil
}
