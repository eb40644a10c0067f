package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/wardly"
)

func TestMockBackend_RecordsCalls(t *testing.T) {
	m := &MockBackend{Payload: "ok"}

	payload, err := m.Call(context.Background(), "list_beds", map[string]any{"ward": "A"})
	require.NoError(t, err)
	assert.Equal(t, "ok", payload)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "list_beds", calls[0].Tool)
	assert.Equal(t, map[string]any{"ward": "A"}, calls[0].Params)
}

func TestMockBackend_CallFnTakesPrecedence(t *testing.T) {
	boom := errors.New("scripted failure")
	m := &MockBackend{
		Payload: "unused",
		CallFn: func(_ context.Context, _ string, _ map[string]any) (any, error) {
			return nil, boom
		},
	}
	_, err := m.Call(context.Background(), "list_beds", nil)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, m.Calls(), 1)
}

func TestMockBackend_ListRecords(t *testing.T) {
	m := &MockBackend{Records: map[string][]map[string]any{
		"department": {{"id": "d1", "name": "Cardiology"}},
	}}

	recs, err := m.List(context.Background(), "department")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "d1", recs[0]["id"])

	empty, err := m.List(context.Background(), "bed")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestScriptedModel_ReplaysAndRepeatsLast(t *testing.T) {
	s := &ScriptedModel{Replies: []*wardly.ModelReply{
		{Content: "first"},
		{Content: "second"},
	}}

	for _, want := range []string{"first", "second", "second"} {
		reply, err := s.Chat(context.Background(), []wardly.Message{{Role: wardly.RoleUser, Content: "q"}}, nil)
		require.NoError(t, err)
		assert.Equal(t, want, reply.Content)
	}
	assert.Equal(t, 3, s.Rounds())
}

func TestScriptedModel_EmptyScript(t *testing.T) {
	s := &ScriptedModel{}
	reply, err := s.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, reply.Content)
	assert.Empty(t, reply.Calls)
}

func TestScriptedModel_Err(t *testing.T) {
	boom := errors.New("endpoint down")
	s := &ScriptedModel{Err: boom}
	_, err := s.Chat(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Rounds())
}

func TestNewTestRegistry(t *testing.T) {
	m := &MockBackend{Payload: []any{}}
	reg := NewTestRegistry(m, &wardly.ToolDescriptor{Name: "list_beds", Category: wardly.CategoryQuery})

	res := reg.Execute(context.Background(), wardly.ToolCall{ToolName: "list_beds"})
	require.NoError(t, res.Err)
	assert.Len(t, m.Calls(), 1)
}
