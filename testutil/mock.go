// Package testutil provides test helpers for wardly (mock backend, scripted
// model client, preconfigured registry).
package testutil

import (
	"context"
	"sync"

	"github.com/skosovsky/wardly"
)

// MockBackend is a configurable Caller/Lister for tests. CallFn and ListFn
// take precedence; otherwise calls answer with Payload/Records. Executed
// calls are recorded and safe to read after concurrent execution.
type MockBackend struct {
	CallFn  func(ctx context.Context, tool string, params map[string]any) (any, error)
	ListFn  func(ctx context.Context, kind string) ([]map[string]any, error)
	Payload any
	Records map[string][]map[string]any

	mu    sync.Mutex
	calls []RecordedCall
}

// RecordedCall is one backend call seen by the mock.
type RecordedCall struct {
	Tool   string
	Params map[string]any
}

// Call implements wardly.Caller.
func (m *MockBackend) Call(ctx context.Context, tool string, params map[string]any) (any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, RecordedCall{Tool: tool, Params: params})
	m.mu.Unlock()
	if m.CallFn != nil {
		return m.CallFn(ctx, tool, params)
	}
	return m.Payload, nil
}

// List implements wardly.Lister.
func (m *MockBackend) List(ctx context.Context, kind string) ([]map[string]any, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, kind)
	}
	return m.Records[kind], nil
}

// Calls returns a copy of the recorded calls.
func (m *MockBackend) Calls() []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedCall, len(m.calls))
	copy(out, m.calls)
	return out
}

var (
	_ wardly.Caller = (*MockBackend)(nil)
	_ wardly.Lister = (*MockBackend)(nil)
)

// ScriptedModel is a ModelClient that replays a fixed sequence of replies.
// When the script runs out it keeps answering with the last reply (or an
// empty final answer if the script is empty). A non-nil Err fails every
// call.
type ScriptedModel struct {
	Replies []*wardly.ModelReply
	Err     error

	mu       sync.Mutex
	turn     int
	Requests [][]wardly.Message
}

// Chat implements wardly.ModelClient.
func (s *ScriptedModel) Chat(_ context.Context, messages []wardly.Message, _ []wardly.FunctionSchema) (*wardly.ModelReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	s.Requests = append(s.Requests, messages)
	if len(s.Replies) == 0 {
		return &wardly.ModelReply{}, nil
	}
	i := s.turn
	if i >= len(s.Replies) {
		i = len(s.Replies) - 1
	}
	s.turn++
	return s.Replies[i], nil
}

// Rounds returns how many chat rounds the model has served.
func (s *ScriptedModel) Rounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

var _ wardly.ModelClient = (*ScriptedModel)(nil)
