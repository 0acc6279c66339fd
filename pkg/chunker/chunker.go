// Package chunker splits normalized text into bounded, ordered pieces.
//
// The default strategy is Fixed: consecutive, non-overlapping windows of a
// fixed number of characters (Unicode code points). Windows ignore word and
// sentence boundaries, so a chunk may end mid-word. Tokens is an explicitly
// selected alternative that windows over tokenizer output instead.
package chunker

import "fmt"

// DefaultSize is the default window length for the fixed strategy.
const DefaultSize = 50_000

// Chunker splits text into ordered chunks.
type Chunker interface {
	// Split returns the chunks of text in order. Concatenating them
	// reproduces text. Empty text yields no chunks.
	Split(text string) []string

	// Name returns the strategy name for logging/debugging.
	Name() string
}

// Strategies accepted by New.
const (
	StrategyFixed  = "fixed"
	StrategyTokens = "tokens"
)

// Config selects and configures a chunker.
type Config struct {
	Strategy string
	Size     int
	Encoding string // tokenizer encoding for StrategyTokens
}

// New returns the chunker for cfg.Strategy.
func New(cfg Config) (Chunker, error) {
	switch cfg.Strategy {
	case StrategyFixed, "":
		return NewFixed(cfg.Size), nil
	case StrategyTokens:
		return NewTokens(cfg.Size, cfg.Encoding)
	default:
		return nil, fmt.Errorf("unknown chunk strategy: %s (use fixed or tokens)", cfg.Strategy)
	}
}
