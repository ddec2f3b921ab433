// Package session holds the conversation state of a running chat: the rolling
// context sent to the models and the append-only history log.
package session

import (
	"strings"
	"sync"
	"time"
)

// WindowSize is the number of trailing context messages sent with each request.
const WindowSize = 10

// TimestampLayout is the local, second-precision layout used for history entries
// and transcript echoes.
const TimestampLayout = "2006-01-02 15:04:05"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

type HistoryEntry struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	User      string `json:"user" yaml:"user"`
	Response  string `json:"response" yaml:"response"`
}

// Snapshot is a detached copy of the state. Mutating it never affects the State
// it was taken from.
type Snapshot struct {
	Context []Message      `json:"context" yaml:"context"`
	History []HistoryEntry `json:"history" yaml:"history"`
}

// Exchanges counts user/assistant pairs in the context.
func (s Snapshot) Exchanges() int {
	return len(s.Context) / 2
}

// State owns exactly one conversation context and one history log. Readers always
// observe either the state before a commit or after it.
type State struct {
	mu      sync.RWMutex
	context []Message
	history []HistoryEntry
}

func New() *State {
	return &State{}
}

// AppendUser records the user's message and returns the request window that
// includes it.
func (s *State) AppendUser(text string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = append(s.context, Message{Role: RoleUser, Content: text})
	return windowOf(s.context, WindowSize)
}

// Commit appends the combined assistant reply and the matching history entry
// under a single lock.
func (s *State) Commit(user, response string, at time.Time) HistoryEntry {
	entry := HistoryEntry{
		Timestamp: at.Format(TimestampLayout),
		User:      user,
		Response:  response,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = append(s.context, Message{Role: RoleAssistant, Content: response})
	s.history = append(s.history, entry)
	return entry
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Context: cloneMessages(s.context),
		History: cloneHistory(s.history),
	}
}

// Replace swaps in a loaded snapshot wholesale. Nothing is merged.
func (s *State) Replace(snap Snapshot) {
	context := cloneMessages(snap.Context)
	history := cloneHistory(snap.History)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = context
	s.history = history
}

func (s *State) Len() (context int, history int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.context), len(s.history)
}

// Normalize trims surrounding whitespace and reports whether anything is left.
func Normalize(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	return trimmed, trimmed != ""
}

func windowOf(messages []Message, n int) []Message {
	start := 0
	if n >= 0 && len(messages) > n {
		start = len(messages) - n
	}
	return cloneMessages(messages[start:])
}

func cloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	copy(out, in)
	return out
}

func cloneHistory(in []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(in))
	copy(out, in)
	return out
}
