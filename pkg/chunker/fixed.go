package chunker

import "strconv"

// Fixed slices text into windows of Size code points; the last window may be
// shorter.
type Fixed struct {
	Size int
}

// NewFixed creates a fixed-length chunker. A non-positive size uses DefaultSize.
func NewFixed(size int) *Fixed {
	if size <= 0 {
		size = DefaultSize
	}
	return &Fixed{Size: size}
}

// Split slices text on code point boundaries without copying.
func (c *Fixed) Split(text string) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	start, count := 0, 0
	for i := range text {
		if count == c.Size {
			chunks = append(chunks, text[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(chunks, text[start:])
}

// Name returns the strategy name.
func (c *Fixed) Name() string {
	return StrategyFixed + "(" + strconv.Itoa(c.Size) + ")"
}
