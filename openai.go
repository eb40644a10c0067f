package wardly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// OpenAI-compatible chat-completions wire types. Only the fields this
// engine needs; unknown response fields are ignored.

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
	Tools    []openaiTool    `json:"tools,omitempty"`
}

type openaiMessage struct {
	Role         string           `json:"role"`
	Content      string           `json:"content,omitempty"`
	ToolCalls    []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID   string           `json:"tool_call_id,omitempty"`
	Name         string           `json:"name,omitempty"`
	FunctionCall *openaiCallFn    `json:"function_call,omitempty"`
}

type openaiTool struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

type openaiToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function openaiCallFn `json:"function"`
}

type openaiCallFn struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Error   *openaiError   `json:"error,omitempty"`
}

type openaiChoice struct {
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// OpenAIClient implements ModelClient against an OpenAI-compatible
// chat-completions endpoint using raw net/http (no vendor SDK). It is safe
// for concurrent use.
type OpenAIClient struct {
	httpClient *http.Client
	endpoint   string
	model      string
	apiKey     string
}

// OpenAIOption configures an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) OpenAIOption {
	return func(c *OpenAIClient) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client (and its timeout).
func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *OpenAIClient) { c.httpClient = hc }
}

// NewOpenAIClient creates a client for the given chat-completions endpoint
// URL and model name. The default request timeout is 60s.
func NewOpenAIClient(endpoint, model string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		endpoint:   endpoint,
		model:      model,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat implements ModelClient. Transport failures, non-2xx statuses, and
// backend-reported error objects all wrap ErrModelEndpoint; the orchestrator
// treats them as fatal for the current request.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, schemas []FunctionSchema) (*ModelReply, error) {
	req := openaiRequest{
		Model:    c.model,
		Messages: toWireMessages(messages),
	}
	for _, s := range schemas {
		req.Tools = append(req.Tools, openaiTool{Type: "function", Function: s})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrModelEndpoint, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelEndpoint, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelEndpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrModelEndpoint, err)
	}
	var parsed openaiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response (status %d): %w", ErrModelEndpoint, resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelEndpoint, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrModelEndpoint, resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrModelEndpoint)
	}
	return fromWireMessage(parsed.Choices[0].Message), nil
}

// toWireMessages maps engine turns to wire turns. Function turns become
// role "tool" with the originating call id; assistant call requests become
// tool_calls entries.
func toWireMessages(messages []Message) []openaiMessage {
	out := make([]openaiMessage, 0, len(messages))
	for _, m := range messages {
		wm := openaiMessage{Role: m.Role, Content: m.Content}
		if m.Role == RoleFunction {
			wm.Role = "tool"
			wm.ToolCallID = m.CallID
			wm.Name = m.Name
		}
		for _, call := range m.Calls {
			wm.ToolCalls = append(wm.ToolCalls, openaiToolCall{
				ID:       call.ID,
				Type:     "function",
				Function: openaiCallFn{Name: call.Name, Arguments: string(call.Arguments)},
			})
		}
		out = append(out, wm)
	}
	return out
}

// fromWireMessage normalizes both response shapes: a tool_calls array
// (parallel calls) and the legacy single function_call object. Calls
// without an id get a generated one so results can be correlated.
func fromWireMessage(m openaiMessage) *ModelReply {
	reply := &ModelReply{Content: m.Content}
	for _, tc := range m.ToolCalls {
		reply.Calls = append(reply.Calls, RequestedCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	if len(reply.Calls) == 0 && m.FunctionCall != nil {
		reply.Calls = append(reply.Calls, RequestedCall{
			Name:      m.FunctionCall.Name,
			Arguments: json.RawMessage(m.FunctionCall.Arguments),
		})
	}
	for i := range reply.Calls {
		if reply.Calls[i].ID == "" {
			reply.Calls[i].ID = "call_" + uuid.NewString()
		}
	}
	return reply
}
