package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter emits each record as its own YAML document ("---" separated), so
// results appear as soon as each URL finishes.
type YAMLWriter struct {
	enc *yaml.Encoder
}

// NewYAMLWriter creates a YAML writer with two-space indentation.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &YAMLWriter{enc: enc}
}

// Write encodes rec as the next document.
func (w *YAMLWriter) Write(rec Record) error {
	return w.enc.Encode(rec)
}

// Close flushes the encoder.
func (w *YAMLWriter) Close() error {
	return w.enc.Close()
}
