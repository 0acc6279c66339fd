// Package output renders scrape results for the command line.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/jmylchreest/pagewash/pkg/pipeline"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatText  Format = "text"
)

// Formats lists the accepted format names, for flag help.
var Formats = []Format{FormatJSON, FormatJSONL, FormatYAML, FormatText}

// Record is one scraped URL as written by the CLI. The first three fields
// match the POST /scrape response.
type Record struct {
	URL         string `json:"url" yaml:"url"`
	Chunks      int    `json:"chunks" yaml:"chunks"`
	FinalOutput string `json:"final_output,omitempty" yaml:"final_output,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`

	// Populated only with WithStats.
	Stats *Stats `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// Stats carries per-URL diagnostics.
type Stats struct {
	Model         string `json:"model,omitempty" yaml:"model,omitempty"`
	TextLength    int    `json:"text_length" yaml:"text_length"`
	InputTokens   int    `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens  int    `json:"output_tokens" yaml:"output_tokens"`
	FetchDuration string `json:"fetch_duration" yaml:"fetch_duration"`
	CleanDuration string `json:"clean_duration" yaml:"clean_duration"`
}

// FromResult converts a pipeline result. A result carrying an error yields a
// record with only URL and Error set.
func FromResult(res *pipeline.Result, withStats bool) Record {
	if res.Error != nil {
		return Record{URL: res.URL, Error: res.Error.Error()}
	}

	rec := Record{
		URL:         res.URL,
		Chunks:      res.Chunks,
		FinalOutput: res.FinalOutput,
	}
	if withStats {
		rec.Stats = &Stats{
			Model:         res.Model,
			TextLength:    res.TextLength,
			InputTokens:   res.TokenUsage.InputTokens,
			OutputTokens:  res.TokenUsage.OutputTokens,
			FetchDuration: res.FetchDuration.Round(time.Millisecond).String(),
			CleanDuration: res.CleanDuration.Round(time.Millisecond).String(),
		}
	}
	return rec
}

// Writer handles output serialization.
type Writer interface {
	// Write outputs or buffers a single record.
	Write(rec Record) error

	// Close writes anything buffered.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing for JSON.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the JSON indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatText:
		return NewTextWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
