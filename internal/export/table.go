package export

import (
	"io"

	"pyramid/internal/history"
	"pyramid/internal/session"
)

// TableExporter writes the elided history table shown by the "h" command.
type TableExporter struct{}

func (e *TableExporter) Export(snap session.Snapshot, w io.Writer) error {
	_, err := io.WriteString(w, history.Render(snap.History, history.DefaultStyles())+"\n")
	return err
}

func (e *TableExporter) Extension() string {
	return "txt"
}
