package wardly

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Append_PrunesKeepingSystemTurn(t *testing.T) {
	s := NewSession("be helpful", 4)
	for i := range 10 {
		s.Append(Message{Role: RoleUser, Content: fmt.Sprintf("turn %d", i)})
	}

	h := s.History()
	require.Len(t, h, 4)
	assert.Equal(t, RoleSystem, h[0].Role)
	assert.Equal(t, "be helpful", h[0].Content)
	assert.Equal(t, "turn 7", h[1].Content)
	assert.Equal(t, "turn 8", h[2].Content)
	assert.Equal(t, "turn 9", h[3].Content)
}

func TestSession_Append_NoPruneUnderCap(t *testing.T) {
	s := NewSession("sys", 5)
	s.Append(Message{Role: RoleUser, Content: "a"})
	s.Append(Message{Role: RoleAssistant, Content: "b"})
	assert.Equal(t, 3, s.Len())
}

func TestSession_MinimumHistory(t *testing.T) {
	s := NewSession("sys", 0)
	s.Append(Message{Role: RoleUser, Content: "a"})
	s.Append(Message{Role: RoleUser, Content: "b"})
	h := s.History()
	require.Len(t, h, 2)
	assert.Equal(t, RoleSystem, h[0].Role)
	assert.Equal(t, "b", h[1].Content)
}

func TestSession_History_ReturnsCopy(t *testing.T) {
	s := NewSession("sys", 5)
	s.Append(Message{Role: RoleUser, Content: "a"})
	h := s.History()
	h[0].Content = "mutated"
	assert.Equal(t, "sys", s.History()[0].Content)
}

func TestSession_Reset(t *testing.T) {
	s := NewSession("sys", 5)
	s.Append(Message{Role: RoleUser, Content: "a"})
	s.LogQuestion("list all patients")
	s.Reset()

	require.Equal(t, 1, s.Len())
	assert.Equal(t, RoleSystem, s.History()[0].Role)
	assert.False(t, s.SeenSimilar("list all patients"))
}

func TestSession_SeenSimilar_Exact(t *testing.T) {
	s := NewSession("sys", 5)
	s.LogQuestion("List all patients!")
	assert.True(t, s.SeenSimilar("list all patients"))
	assert.True(t, s.SeenSimilar("  LIST   all, patients?  "))
}

func TestSession_SeenSimilar_Containment(t *testing.T) {
	s := NewSession("sys", 5)
	s.LogQuestion("who is on call in cardiology tonight")
	assert.True(t, s.SeenSimilar("tell me who is on call in cardiology tonight please"))

	// Short fragments never match by containment alone.
	s2 := NewSession("sys", 5)
	s2.LogQuestion("hi there")
	assert.False(t, s2.SeenSimilar("hi"))
}

func TestSession_SeenSimilar_SharedKeywords(t *testing.T) {
	s := NewSession("sys", 5)
	s.LogQuestion("show the patients")

	// Same action and entity class, different wording and plural form.
	assert.True(t, s.SeenSimilar("can you show me every patient"))
	// Same entity but different action is a new question.
	assert.False(t, s.SeenSimilar("create a patient"))
	// Same action but different entity is a new question.
	assert.False(t, s.SeenSimilar("show the beds"))
}

func TestSession_SeenSimilar_EmptyAndUnlogged(t *testing.T) {
	s := NewSession("sys", 5)
	assert.False(t, s.SeenSimilar("list all patients"))
	s.LogQuestion("list all patients")
	assert.False(t, s.SeenSimilar(""))
	assert.False(t, s.SeenSimilar("?!"))
}

func TestSession_LogQuestion_FIFOCap(t *testing.T) {
	s := NewSession("sys", 5)
	s.LogQuestion("list all patients in the hospital today")
	for i := range questionLogCap {
		s.LogQuestion(fmt.Sprintf("unrelated question number %d", i))
	}
	// The oldest question fell out of the log.
	assert.False(t, s.SeenSimilar("list all patients in the hospital today"))
	assert.True(t, s.SeenSimilar("unrelated question number 3"))
}
