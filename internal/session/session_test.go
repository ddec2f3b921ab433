package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendUserReturnsWholeContextWhenShort(t *testing.T) {
	t.Parallel()

	state := New()
	window := state.AppendUser("hello")
	require.Len(t, window, 1)
	assert.Equal(t, Message{Role: RoleUser, Content: "hello"}, window[0])

	window = state.AppendUser("again")
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleUser, Content: "again"},
	}, window)
}

func TestWindowNeverExceedsWindowSize(t *testing.T) {
	t.Parallel()

	state := New()
	var window []Message
	for i := 0; i < 25; i++ {
		window = state.AppendUser(fmt.Sprintf("m%d", i))
		assert.LessOrEqual(t, len(window), WindowSize)
	}
	require.Len(t, window, WindowSize)
	assert.Equal(t, "m15", window[0].Content)
	assert.Equal(t, "m24", window[WindowSize-1].Content)

	contextLen, _ := state.Len()
	assert.Equal(t, 25, contextLen, "context itself is never truncated")
}

func TestWindowIsACopy(t *testing.T) {
	t.Parallel()

	state := New()
	window := state.AppendUser("original")
	window[0].Content = "mutated"

	next := state.AppendUser("next")
	assert.Equal(t, "original", next[0].Content)
}

func TestCommitAppendsAssistantAndHistoryTogether(t *testing.T) {
	t.Parallel()

	state := New()
	state.AppendUser("Hello")
	at := time.Date(2026, 10, 18, 9, 30, 5, 0, time.Local)
	entry := state.Commit("Hello", "--- B ---\nHi there", at)

	assert.Equal(t, "2026-10-18 09:30:05", entry.Timestamp)
	snap := state.Snapshot()
	require.Len(t, snap.Context, 2)
	assert.Equal(t, Message{Role: RoleAssistant, Content: "--- B ---\nHi there"}, snap.Context[1])
	require.Len(t, snap.History, 1)
	assert.Equal(t, entry, snap.History[0])
}

func TestReplaceDiscardsPreviousState(t *testing.T) {
	t.Parallel()

	state := New()
	state.AppendUser("old")
	state.Commit("old", "reply", time.Now())

	state.Replace(Snapshot{Context: []Message{{Role: RoleUser, Content: "new"}}})

	snap := state.Snapshot()
	assert.Equal(t, []Message{{Role: RoleUser, Content: "new"}}, snap.Context)
	assert.Empty(t, snap.History)
}

func TestSnapshotExchanges(t *testing.T) {
	t.Parallel()

	snap := Snapshot{Context: make([]Message, 5)}
	assert.Equal(t, 2, snap.Exchanges())
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	text, ok := Normalize("  hi there \n")
	assert.True(t, ok)
	assert.Equal(t, "hi there", text)

	_, ok = Normalize(" \t\n ")
	assert.False(t, ok)
}
