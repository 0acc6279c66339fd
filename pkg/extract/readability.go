package extract

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"

	"github.com/jmylchreest/pagewash/internal/logger"
)

// ReadabilityConfig configures the readability extractor.
type ReadabilityConfig struct {
	// CharThreshold is the minimum character count for valid content (default: 500).
	CharThreshold int
	// BaseURL is used for resolving relative URLs. If empty, URLs remain relative.
	BaseURL string
}

// ReadabilityExtractor isolates the main article with go-readability (a port
// of Mozilla's Readability.js) before handing it to the text extractor. When
// no article can be found the whole document is extracted instead, so the
// output is never emptier than the plain text mode would give for an
// article-less page.
type ReadabilityExtractor struct {
	cfg    ReadabilityConfig
	parser readability.Parser
	text   *TextExtractor
}

// NewReadability creates a readability extractor. Pass nil for defaults.
func NewReadability(cfg *ReadabilityConfig) *ReadabilityExtractor {
	if cfg == nil {
		cfg = &ReadabilityConfig{}
	}

	parser := readability.NewParser()
	if cfg.CharThreshold > 0 {
		parser.CharThresholds = cfg.CharThreshold
	}

	return &ReadabilityExtractor{
		cfg:    *cfg,
		parser: parser,
		text:   NewText(),
	}
}

// Extract returns the normalized text of the page's main content.
func (e *ReadabilityExtractor) Extract(rawHTML string) (string, error) {
	var baseURL *url.URL
	if e.cfg.BaseURL != "" {
		if u, err := url.Parse(e.cfg.BaseURL); err == nil {
			baseURL = u
		}
	}

	article, err := e.parser.Parse(strings.NewReader(rawHTML), baseURL)
	if err != nil || article.Node == nil {
		logger.Debug("readability found no article, using whole document", "error", err)
		return e.text.Extract(rawHTML)
	}

	var buf bytes.Buffer
	if err := article.RenderHTML(&buf); err != nil || buf.Len() == 0 {
		return e.text.Extract(rawHTML)
	}

	return e.text.Extract(buf.String())
}

// Name returns the extractor type.
func (e *ReadabilityExtractor) Name() string {
	return ModeReadability
}
