package export

import (
	"encoding/json"
	"io"

	"pyramid/internal/session"
)

// JSONExporter writes the snapshot as pretty-printed JSON.
type JSONExporter struct{}

func (e *JSONExporter) Export(snap session.Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toDocument(snap))
}

func (e *JSONExporter) Extension() string {
	return "json"
}
