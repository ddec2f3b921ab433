package export

import (
	"fmt"
	"io"
	"strings"

	"pyramid/internal/session"
)

// MarkdownExporter writes the full, unelided history as a Markdown log.
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(snap session.Snapshot, w io.Writer) error {
	var b strings.Builder
	b.WriteString("# Chat History\n\n")
	fmt.Fprintf(&b, "**Turns:** %d  \n", len(snap.History))
	fmt.Fprintf(&b, "**Message exchanges:** %d\n\n", snap.Exchanges())

	for i, entry := range snap.History {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, entry.Timestamp)
		fmt.Fprintf(&b, "**You:**\n\n%s\n\n", escapeMarkdown(entry.User))
		fmt.Fprintf(&b, "**Assistant:**\n\n%s\n\n", escapeMarkdown(entry.Response))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks.
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	inCode := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		line = strings.ReplaceAll(line, "**", `\*\*`)
		line = strings.ReplaceAll(line, "__", `\_\_`)
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}
