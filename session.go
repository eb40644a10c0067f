package wardly

import (
	"regexp"
	"slices"
	"strings"
)

const (
	questionLogCap = 10
	// Containment only counts as similar when both normalized strings are
	// longer than this, so short fragments do not false-positive.
	minContainLen = 10
)

// Action and entity keyword classes for the similarity test: a new question
// is similar to a logged one when both share an action keyword and an
// entity keyword.
var (
	actionKeywords = []string{
		"list", "show", "get", "find", "create", "add", "register",
		"update", "assign", "delete", "discharge",
	}
	entityKeywords = []string{
		"patient", "staff", "bed", "department", "appointment",
		"doctor", "nurse", "ward",
	}
)

var questionPunct = regexp.MustCompile(`[^a-z0-9 ]+`)
var questionSpace = regexp.MustCompile(`\s+`)

// Session owns one conversation's state: the ordered turn history (capped at
// maxHistory, system turn pinned at index 0) and a bounded FIFO of recent
// user questions for duplicate detection. A Session belongs to exactly one
// orchestrator and is not safe for concurrent use.
type Session struct {
	history    []Message
	maxHistory int
	questions  []string
}

// NewSession creates a session anchored on the given system prompt.
// maxHistory below 2 is raised to 2 (system turn plus one).
func NewSession(systemPrompt string, maxHistory int) *Session {
	if maxHistory < 2 {
		maxHistory = 2
	}
	return &Session{
		history:    []Message{{Role: RoleSystem, Content: systemPrompt}},
		maxHistory: maxHistory,
	}
}

// Append adds a turn and prunes: after any prune, turn 0 is the original
// system turn and the rest are the most recent maxHistory-1 turns.
func (s *Session) Append(m Message) {
	s.history = append(s.history, m)
	if len(s.history) <= s.maxHistory {
		return
	}
	keep := s.maxHistory - 1
	pruned := make([]Message, 0, s.maxHistory)
	pruned = append(pruned, s.history[0])
	pruned = append(pruned, s.history[len(s.history)-keep:]...)
	s.history = pruned
}

// History returns a copy of the current turns.
func (s *Session) History() []Message {
	return slices.Clone(s.history)
}

// Len returns the number of turns.
func (s *Session) Len() int { return len(s.history) }

// Reset drops everything but the original system turn and clears the
// question log.
func (s *Session) Reset() {
	s.history = s.history[:1]
	s.questions = nil
}

// LogQuestion records a raw user question in the bounded FIFO.
func (s *Session) LogQuestion(q string) {
	s.questions = append(s.questions, q)
	if len(s.questions) > questionLogCap {
		s.questions = s.questions[len(s.questions)-questionLogCap:]
	}
}

// SeenSimilar reports whether q duplicates a recently logged question:
// exact match after normalization, containment either direction when both
// strings are long enough, or co-occurrence of an action keyword and an
// entity keyword in both.
func (s *Session) SeenSimilar(q string) bool {
	nq := normalizeQuestion(q)
	if nq == "" {
		return false
	}
	for _, logged := range s.questions {
		nl := normalizeQuestion(logged)
		if nl == "" {
			continue
		}
		if nq == nl {
			return true
		}
		if len(nq) > minContainLen && len(nl) > minContainLen &&
			(strings.Contains(nq, nl) || strings.Contains(nl, nq)) {
			return true
		}
		if sharedKeyword(nq, nl, actionKeywords) && sharedKeyword(nq, nl, entityKeywords) {
			return true
		}
	}
	return false
}

// normalizeQuestion lower-cases, strips punctuation, and collapses
// whitespace.
func normalizeQuestion(q string) string {
	n := strings.ToLower(q)
	n = questionPunct.ReplaceAllString(n, " ")
	n = questionSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// sharedKeyword reports whether some keyword of the class occurs in both
// normalized strings. Entity keywords match their plurals via prefix on
// whole words.
func sharedKeyword(a, b string, keywords []string) bool {
	aw := strings.Fields(a)
	bw := strings.Fields(b)
	for _, kw := range keywords {
		if containsWordPrefix(aw, kw) && containsWordPrefix(bw, kw) {
			return true
		}
	}
	return false
}

func containsWordPrefix(words []string, kw string) bool {
	for _, w := range words {
		if w == kw || w == kw+"s" || w == kw+"es" {
			return true
		}
	}
	return false
}
