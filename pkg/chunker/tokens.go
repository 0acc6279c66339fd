package chunker

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used when Tokens is created without an encoding name.
const DefaultEncoding = "cl100k_base"

// DefaultTokenSize is the window length used when Tokens gets no size.
const DefaultTokenSize = 12_000

// Tokens windows text by tokenizer tokens rather than characters, which keeps
// each chunk inside a model's context window regardless of script or language.
// Windows still ignore word boundaries.
type Tokens struct {
	size     int
	encoding string
	tkm      *tiktoken.Tiktoken
}

// NewTokens loads the named tiktoken encoding. tiktoken-go downloads the BPE
// ranks on first use unless an offline loader has been registered.
func NewTokens(size int, encoding string) (*Tokens, error) {
	if size <= 0 {
		size = DefaultTokenSize
	}
	if encoding == "" {
		encoding = DefaultEncoding
	}

	tkm, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", encoding, err)
	}

	return &Tokens{size: size, encoding: encoding, tkm: tkm}, nil
}

// Split encodes text once and decodes consecutive token windows.
func (c *Tokens) Split(text string) []string {
	if text == "" {
		return nil
	}

	ids := c.tkm.Encode(text, nil, nil)
	chunks := make([]string, 0, len(ids)/c.size+1)
	for start := 0; start < len(ids); start += c.size {
		end := min(start+c.size, len(ids))
		chunks = append(chunks, c.tkm.Decode(ids[start:end]))
	}
	return chunks
}

// Name returns the strategy name.
func (c *Tokens) Name() string {
	return fmt.Sprintf("%s(%d,%s)", StrategyTokens, c.size, c.encoding)
}
