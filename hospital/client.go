package hospital

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/skosovsky/wardly"
)

// listPaths maps entity kinds to their read-all endpoint path.
var listPaths = map[string]string{
	KindPatient:     "patients",
	KindStaff:       "staff",
	KindDepartment:  "departments",
	KindBed:         "beds",
	KindAppointment: "appointments",
}

// Client talks to the hospital records backend over HTTP: one POST per tool
// call, one GET per entity listing. It implements both wardly.Caller and
// wardly.Lister and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (and its timeout).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a backend client for the given base URL. The default
// per-request timeout is 15s.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call implements wardly.Caller: POST {base}/tools/{name} with the params as
// JSON. A non-2xx status or a non-empty "error" field in the response body
// comes back as an error; the decoded body is the payload otherwise.
func (c *Client) Call(ctx context.Context, tool string, params map[string]any) (any, error) {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params for %s: %w", tool, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tools/"+tool, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", tool, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("call %s: read response: %w", tool, err)
	}
	var payload any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("call %s: decode response (status %d): %w", tool, resp.StatusCode, err)
		}
	}
	if msg := backendError(payload); msg != "" {
		return nil, fmt.Errorf("call %s: backend error: %s", tool, msg)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("call %s: status %d", tool, resp.StatusCode)
	}
	return payload, nil
}

// List implements wardly.Lister: GET {base}/ plus the kind's plural path.
// Both a bare JSON array and a {data: [...]} envelope are accepted.
func (c *Client) List(ctx context.Context, kind string) ([]map[string]any, error) {
	path, ok := listPaths[kind]
	if !ok {
		return nil, fmt.Errorf("list %q: %w", kind, wardly.ErrUnknownEntity)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s: status %d", kind, resp.StatusCode)
	}
	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("list %s: decode response: %w", kind, err)
	}
	if m, ok := payload.(map[string]any); ok {
		payload = m["data"]
	}
	items, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("list %s: unexpected response shape", kind)
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(map[string]any); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// backendError extracts a backend-reported error message from a decoded
// payload, if any.
func backendError(payload any) string {
	m, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	if msg, ok := m["error"].(string); ok {
		return msg
	}
	return ""
}

var (
	_ wardly.Caller = (*Client)(nil)
	_ wardly.Lister = (*Client)(nil)
)
