package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pyramid/internal/history"
	"pyramid/internal/session"
)

func sampleSnapshot() session.Snapshot {
	response := "--- B ---\nHi there\n\n--- C ---\nHey!"
	return session.Snapshot{
		Context: []session.Message{
			{Role: session.RoleUser, Content: "Hello"},
			{Role: session.RoleAssistant, Content: response},
		},
		History: []session.HistoryEntry{
			{Timestamp: "2026-10-18 10:00:00", User: "Hello", Response: response},
		},
	}
}

func TestNewExporter(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":         "txt",
		"table":    "txt",
		"json":     "json",
		"YAML":     "yaml",
		"yml":      "yaml",
		"md":       "md",
		"markdown": "md",
	}
	for format, ext := range cases {
		exp, err := NewExporter(format)
		require.NoError(t, err, format)
		assert.Equal(t, ext, exp.Extension(), format)
	}

	_, err := NewExporter("csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: csv")
}

func TestJSONExporterKeepsFileShape(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&JSONExporter{}).Export(sampleSnapshot(), &buf))

	out := buf.String()
	assert.Less(t, strings.Index(out, `"history"`), strings.Index(out, `"context"`))
	assert.Contains(t, out, "\n  \"history\": [")

	var decoded struct {
		History []session.HistoryEntry `json:"history"`
		Context []session.Message      `json:"context"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleSnapshot().History, decoded.History)
	assert.Equal(t, sampleSnapshot().Context, decoded.Context)
}

func TestJSONExporterEmptyListsNotNull(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&JSONExporter{}).Export(session.Snapshot{}, &buf))
	assert.Contains(t, buf.String(), `"history": []`)
	assert.Contains(t, buf.String(), `"context": []`)
}

func TestYAMLExporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&YAMLExporter{}).Export(sampleSnapshot(), &buf))

	var decoded map[string][]map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded["history"], 1)
	assert.Equal(t, "Hello", decoded["history"][0]["user"])
	assert.Equal(t, "2026-10-18 10:00:00", decoded["history"][0]["timestamp"])
	require.Len(t, decoded["context"], 2)
	assert.Equal(t, "assistant", decoded["context"][1]["role"])
}

func TestMarkdownExporterKeepsFullText(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 150)
	snap := session.Snapshot{History: []session.HistoryEntry{
		{Timestamp: "2026-10-18 10:00:00", User: "use **bold**", Response: long},
	}}

	var buf bytes.Buffer
	require.NoError(t, (&MarkdownExporter{}).Export(snap, &buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Chat History\n"))
	assert.Contains(t, out, "## 1. 2026-10-18 10:00:00")
	assert.Contains(t, out, long)
	assert.Contains(t, out, `use \*\*bold\*\*`)
}

func TestEscapeMarkdownSkipsCodeBlocks(t *testing.T) {
	t.Parallel()

	in := "a **b**\n```\nx **y**\n```"
	assert.Equal(t, "a \\*\\*b\\*\\*\n```\nx **y**\n```", escapeMarkdown(in))
}

func TestTableExporterElides(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("y", 150)
	snap := session.Snapshot{History: []session.HistoryEntry{
		{Timestamp: "2026-10-18 10:00:00", User: "Hello", Response: long},
	}}

	var buf bytes.Buffer
	require.NoError(t, (&TableExporter{}).Export(snap, &buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, history.Title))
	assert.Contains(t, out, strings.Repeat("y", 97)+"...")
	assert.NotContains(t, out, long)
}

func TestTableExporterEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&TableExporter{}).Export(session.Snapshot{}, &buf))
	assert.Equal(t, history.Empty+"\n", buf.String())
}
