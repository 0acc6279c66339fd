// Package extract turns raw HTML into normalized plain text.
package extract

import (
	"fmt"
	"strings"
)

// Extractor converts an HTML document to plain text.
type Extractor interface {
	// Extract returns the visible text of html with whitespace collapsed.
	Extract(html string) (string, error)

	// Name returns the extractor type for logging/debugging.
	Name() string
}

// Extraction modes accepted by New.
const (
	ModeText        = "text"
	ModeReadability = "readability"
)

// New returns the extractor for mode.
func New(mode string) (Extractor, error) {
	switch mode {
	case ModeText, "":
		return NewText(), nil
	case ModeReadability:
		return NewReadability(nil), nil
	default:
		return nil, fmt.Errorf("unknown extract mode: %s (use text or readability)", mode)
	}
}

// Normalize collapses every run of whitespace (spaces, tabs, newlines,
// non-breaking spaces) into a single space and trims both ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
