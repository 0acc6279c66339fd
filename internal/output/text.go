package output

import (
	"bufio"
	"fmt"
	"io"
)

// TextWriter prints the cleaned text itself, each record under a
// "==> url <==" header like tail(1).
type TextWriter struct {
	w     *bufio.Writer
	count int
}

// NewTextWriter creates a plain text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// Write prints a record. Failed records print their error in place of text.
func (w *TextWriter) Write(rec Record) error {
	if w.count > 0 {
		if _, err := w.w.WriteString("\n"); err != nil {
			return err
		}
	}
	w.count++

	if _, err := fmt.Fprintf(w.w, "==> %s <==\n", rec.URL); err != nil {
		return err
	}
	body := rec.FinalOutput
	if rec.Error != "" {
		body = "error: " + rec.Error
	}
	if _, err := w.w.WriteString(body + "\n"); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the writer.
func (w *TextWriter) Close() error {
	return w.w.Flush()
}
