package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// NoiseSelector matches the elements whose whole subtree is dropped before
// text is collected.
const NoiseSelector = "script, style, noscript, iframe"

// TextExtractor strips noise elements and returns every remaining text node,
// in document order, separated by a single space and then normalized.
// Comments and the doctype are not text nodes and never appear.
type TextExtractor struct{}

// NewText creates a text extractor.
func NewText() *TextExtractor {
	return &TextExtractor{}
}

// Extract parses html best-effort; malformed markup is repaired by the
// HTML5 parser rather than rejected.
func (e *TextExtractor) Extract(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find(NoiseSelector).Remove()

	return Normalize(joinText(doc.Nodes, " ")), nil
}

// Name returns the extractor type.
func (e *TextExtractor) Name() string {
	return ModeText
}

func joinText(roots []*html.Node, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return strings.Join(parts, sep)
}
