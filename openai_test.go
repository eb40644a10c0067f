package wardly

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openaiServer(t *testing.T, status int, response string, capture *openaiRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_Chat_RequestShape(t *testing.T) {
	var captured openaiRequest
	srv := openaiServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`, &captured)

	client := NewOpenAIClient(srv.URL, "gpt-4o-mini", WithHTTPClient(srv.Client()))
	reply, err := client.Chat(context.Background(),
		[]Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: "any free beds?"},
			{Role: RoleAssistant, Calls: []RequestedCall{{ID: "c1", Name: "list_beds", Arguments: json.RawMessage(`{}`)}}},
			{Role: RoleFunction, Name: "list_beds", CallID: "c1", Content: `[]`},
		},
		[]FunctionSchema{{Name: "list_beds", Parameters: map[string]any{"type": "object"}}},
	)
	require.NoError(t, err)
	assert.Equal(t, "hi", reply.Content)
	assert.Empty(t, reply.Calls)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)

	// Assistant call requests go out as tool_calls entries.
	asst := captured.Messages[2]
	require.Len(t, asst.ToolCalls, 1)
	assert.Equal(t, "c1", asst.ToolCalls[0].ID)
	assert.Equal(t, "function", asst.ToolCalls[0].Type)
	assert.Equal(t, "list_beds", asst.ToolCalls[0].Function.Name)

	// Function turns go out as role "tool" with the call id.
	fn := captured.Messages[3]
	assert.Equal(t, "tool", fn.Role)
	assert.Equal(t, "c1", fn.ToolCallID)
	assert.Equal(t, "list_beds", fn.Name)

	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "function", captured.Tools[0].Type)
	assert.Equal(t, "list_beds", captured.Tools[0].Function.Name)
}

func TestOpenAIClient_Chat_APIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewOpenAIClient(srv.URL, "m", WithAPIKey("secret"), WithHTTPClient(srv.Client()))
	_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)
}

func TestOpenAIClient_Chat_ToolCalls(t *testing.T) {
	srv := openaiServer(t, http.StatusOK, `{"choices":[{"message":{
		"role":"assistant",
		"content":"checking",
		"tool_calls":[
			{"id":"c1","type":"function","function":{"name":"list_beds","arguments":"{}"}},
			{"id":"c2","type":"function","function":{"name":"list_patients","arguments":"{\"ward\":\"A\"}"}}
		]}}]}`, nil)

	client := NewOpenAIClient(srv.URL, "m", WithHTTPClient(srv.Client()))
	reply, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "checking", reply.Content)
	require.Len(t, reply.Calls, 2)
	assert.Equal(t, "c1", reply.Calls[0].ID)
	assert.Equal(t, "list_beds", reply.Calls[0].Name)
	assert.JSONEq(t, `{"ward":"A"}`, string(reply.Calls[1].Arguments))
}

func TestOpenAIClient_Chat_LegacyFunctionCall(t *testing.T) {
	srv := openaiServer(t, http.StatusOK, `{"choices":[{"message":{
		"role":"assistant",
		"function_call":{"name":"list_beds","arguments":"{}"}}}]}`, nil)

	client := NewOpenAIClient(srv.URL, "m", WithHTTPClient(srv.Client()))
	reply, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)
	require.Len(t, reply.Calls, 1)
	assert.Equal(t, "list_beds", reply.Calls[0].Name)
	// Legacy calls carry no id, so one is generated for correlation.
	assert.True(t, strings.HasPrefix(reply.Calls[0].ID, "call_"))
}

func TestOpenAIClient_Chat_BackendErrorObject(t *testing.T) {
	srv := openaiServer(t, http.StatusOK,
		`{"error":{"type":"invalid_request_error","message":"model is overloaded"}}`, nil)

	client := NewOpenAIClient(srv.URL, "m", WithHTTPClient(srv.Client()))
	_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelEndpoint)
	assert.Contains(t, err.Error(), "model is overloaded")
}

func TestOpenAIClient_Chat_NonOKStatus(t *testing.T) {
	srv := openaiServer(t, http.StatusInternalServerError, `{}`, nil)

	client := NewOpenAIClient(srv.URL, "m", WithHTTPClient(srv.Client()))
	_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelEndpoint)
	assert.Contains(t, err.Error(), "status 500")
}

func TestOpenAIClient_Chat_EmptyChoices(t *testing.T) {
	srv := openaiServer(t, http.StatusOK, `{"choices":[]}`, nil)

	client := NewOpenAIClient(srv.URL, "m", WithHTTPClient(srv.Client()))
	_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	assert.ErrorIs(t, err, ErrModelEndpoint)
}

func TestOpenAIClient_Chat_TransportError(t *testing.T) {
	srv := openaiServer(t, http.StatusOK, `{}`, nil)
	srv.Close()

	client := NewOpenAIClient(srv.URL, "m")
	_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	assert.ErrorIs(t, err, ErrModelEndpoint)
}
