package pipeline

import (
	"strconv"
	"strings"
)

// FormatOutput numbers each cleaned chunk from 1 and joins the blocks with a
// newline: "1\n<first>\n2\n<second>...". No chunks gives "".
func FormatOutput(cleaned []string) string {
	var b strings.Builder
	for i, text := range cleaned {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(text)
	}
	return b.String()
}
