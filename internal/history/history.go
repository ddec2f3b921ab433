// Package history renders the history log for review. Everything here is a
// presentation transform; stored entries are never modified.
package history

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"pyramid/internal/session"
)

const (
	MaxFieldChars = 100
	ellipsis      = "..."

	Title = "=== Chat History ==="
	Empty = "No chat history available."
)

// Elide shortens text longer than MaxFieldChars runes to its first 97 runes
// followed by "...". Shorter text is returned unchanged.
func Elide(text string) string {
	return Truncate(text, MaxFieldChars)
}

// Truncate cuts text to at most limit runes, ending in "..." when it was
// shortened and there is room for it.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

// Rows returns the display rows for entries, elided and flattened to one line
// per cell.
func Rows(entries []session.HistoryEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.Timestamp,
			oneLine(Elide(entry.User)),
			oneLine(Elide(entry.Response)),
		})
	}
	return rows
}

type Styles struct {
	Border lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	// Width caps the table width, wrapping cells to fit. Zero leaves the
	// table as wide as its content.
	Width int
}

func DefaultStyles() Styles {
	return Styles{
		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Header: lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
	}
}

// Table renders entries as a bordered table.
func Table(entries []session.HistoryEntry, styles Styles) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		}).
		Headers("#", "timestamp", "user", "response")
	if styles.Width > 0 {
		t = t.Width(styles.Width)
	}
	for i, row := range Rows(entries) {
		t.Row(append([]string{strconv.Itoa(i)}, row...)...)
	}
	return t.String()
}

// Render is the full history review block shown in the transcript.
func Render(entries []session.HistoryEntry, styles Styles) string {
	if len(entries) == 0 {
		return Empty
	}
	return Title + "\n" + Table(entries, styles)
}

func oneLine(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", " "), "\n", " ")
}
