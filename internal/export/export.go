// Package export writes a saved conversation in review formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"pyramid/internal/session"
)

// Exporter writes one conversation snapshot.
type Exporter interface {
	Export(snap session.Snapshot, w io.Writer) error
	Extension() string
}

// Formats lists the names NewExporter accepts.
var Formats = []string{"table", "json", "yaml", "md"}

// NewExporter creates an exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		return &TableExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// document keeps the key order of the saved file: history, then context.
type document struct {
	History []session.HistoryEntry `json:"history" yaml:"history"`
	Context []session.Message      `json:"context" yaml:"context"`
}

func toDocument(snap session.Snapshot) document {
	doc := document{History: snap.History, Context: snap.Context}
	if doc.History == nil {
		doc.History = []session.HistoryEntry{}
	}
	if doc.Context == nil {
		doc.Context = []session.Message{}
	}
	return doc
}
