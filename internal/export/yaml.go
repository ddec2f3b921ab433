package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"pyramid/internal/session"
)

type YAMLExporter struct{}

func (e *YAMLExporter) Export(snap session.Snapshot, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toDocument(snap)); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}
