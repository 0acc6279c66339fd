// Package cleaner asks a language model to strip boilerplate from one chunk
// of page text at a time.
package cleaner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/pagewash/pkg/llm"
)

// Sentinel is the exact reply the model is told to give when a chunk holds
// nothing worth keeping.
const Sentinel = "No relevant information found."

// SystemPrompt frames the model as an extraction assistant.
const SystemPrompt = `You are an expert at extracting information.

You will receive a chunk of text.

Your job is to carefully read the chunk and return only the meaningful content.

Remove anything unrelated or low-value such as advertisements, HTML or JavaScript code, styling instructions, or boilerplate text.

Preserve the full details of the remaining content.

If no meaningful information is found, output exactly: "` + Sentinel + `"`

const userInstructions = `You are an information extraction assistant.

You will receive a chunk of text.

Instructions:
- Extract all meaningful and informative content from the text chunk.
- Remove any unrelated or low-value parts such as advertisements, HTML or JavaScript code, styling instructions, boilerplate text, or navigation menus.
- Preserve full details and explanations from relevant sections; do not shorten unless necessary to remove junk.
- Return only the cleaned, relevant text.
- If the chunk contains no meaningful information, output exactly: "` + Sentinel + `"

`

// ChunkMarker precedes the chunk text in the user prompt. It is followed by
// the 1-based chunk number, "):" and a newline.
const ChunkMarker = "Text Chunk ("

// BuildUserPrompt returns the user message for the chunk at zero-based index.
func BuildUserPrompt(chunk string, index int) string {
	var b strings.Builder
	b.Grow(len(userInstructions) + len(chunk) + 24)
	b.WriteString(userInstructions)
	b.WriteString(ChunkMarker)
	b.WriteString(strconv.Itoa(index + 1))
	b.WriteString("):\n")
	b.WriteString(chunk)
	return b.String()
}

// Result is one cleaned chunk plus what it cost to produce.
type Result struct {
	Text  string
	Usage llm.Usage
	Model string
}

// LLMCleaner cleans chunks with a single provider. It holds no per-call state
// and may be shared across goroutines when the provider can.
type LLMCleaner struct {
	provider    llm.Provider
	temperature float64
	maxTokens   int
}

// Option configures an LLMCleaner.
type Option func(*LLMCleaner)

// WithTemperature sets the sampling temperature. Zero keeps the provider default.
func WithTemperature(t float64) Option {
	return func(c *LLMCleaner) { c.temperature = t }
}

// WithMaxTokens caps the reply length.
func WithMaxTokens(n int) Option {
	return func(c *LLMCleaner) { c.maxTokens = n }
}

// New creates a cleaner backed by provider.
func New(provider llm.Provider, opts ...Option) *LLMCleaner {
	c := &LLMCleaner{provider: provider}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean returns the model's cleaned version of chunk, trimmed of surrounding
// whitespace. The reply may be Sentinel.
func (c *LLMCleaner) Clean(ctx context.Context, chunk string, index int) (string, error) {
	res, err := c.CleanChunk(ctx, chunk, index)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// CleanChunk is Clean with token usage and the serving model attached.
func (c *LLMCleaner) CleanChunk(ctx context.Context, chunk string, index int) (Result, error) {
	resp, err := c.provider.Execute(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: BuildUserPrompt(chunk, index)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("clean chunk %d: %w", index+1, err)
	}

	model := resp.Model
	if model == "" {
		model = c.provider.Model()
	}

	return Result{
		Text:  strings.TrimSpace(resp.Content),
		Usage: resp.Usage,
		Model: model,
	}, nil
}

// Provider returns the underlying provider.
func (c *LLMCleaner) Provider() llm.Provider {
	return c.provider
}
