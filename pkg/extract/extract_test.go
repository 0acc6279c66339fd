package extract

import (
	"fmt"
	"strings"
	"testing"
)

func TestTextExtractor_Extract(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "script removed",
			input: `<html><body><script>bad()</script><p>Hello world.</p></body></html>`,
			want:  "Hello world.",
		},
		{
			name:  "empty document",
			input: "",
			want:  "",
		},
		{
			name:  "sibling blocks separated by space",
			input: `<p>first</p><p>second</p>`,
			want:  "first second",
		},
		{
			name:  "inline siblings also separated",
			input: `<p><b>Hel</b>lo</p>`,
			want:  "Hel lo",
		},
		{
			name:  "whitespace collapsed",
			input: "<div>\n\t  lots   of\n\n space\t</div>",
			want:  "lots of space",
		},
		{
			name:  "non-breaking spaces collapsed",
			input: "<p>a&nbsp;&nbsp;b</p>",
			want:  "a b",
		},
		{
			name:  "title text kept",
			input: `<html><head><title>Page Title</title><style>p{color:red}</style></head><body>Body</body></html>`,
			want:  "Page Title Body",
		},
		{
			name:  "comments excluded",
			input: `<body><!-- hidden note --><p>shown</p></body>`,
			want:  "shown",
		},
		{
			name:  "doctype excluded",
			input: `<!DOCTYPE html><html><body>text</body></html>`,
			want:  "text",
		},
		{
			name:  "malformed markup tolerated",
			input: `<div><p>unclosed <b>bold <i>italic</div></span>`,
			want:  "unclosed bold italic",
		},
		{
			name:  "entities decoded",
			input: `<p>fish &amp; chips &lt;3</p>`,
			want:  "fish & chips <3",
		},
		{
			name:  "all noise tags removed with their subtrees",
			input: `<body><noscript><p>enable js</p></noscript><iframe src="x">frame</iframe><style>.a{}</style><p>kept</p></body>`,
			want:  "kept",
		},
		{
			name:  "nav text is still text",
			input: `<body><nav>Home About</nav><article>Story</article></body>`,
			want:  "Home About Story",
		},
	}

	e := NewText()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Extract(tt.input)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextExtractor_NeverLeaksNoise(t *testing.T) {
	const marker = "LEAKED"
	tags := []string{"script", "style", "noscript", "iframe"}
	wrappers := []struct{ open, close string }{
		{"", ""},
		{"<div>", "</div>"},
		{"<head>", "</head>"},
		{"<table><tr><td>", "</td></tr></table>"},
		{"<p><span>", "</span></p>"},
	}

	e := NewText()
	for _, tag := range tags {
		for i, w := range wrappers {
			for _, inner := range []string{
				marker,
				"<b>" + marker + "</b>",
				"x = '" + marker + "'; </not" + tag + "> " + marker,
			} {
				doc := fmt.Sprintf("<html><body>before %s<%s>%s</%s>%s after</body></html>",
					w.open, tag, inner, tag, w.close)
				t.Run(fmt.Sprintf("%s/%d", tag, i), func(t *testing.T) {
					got, err := e.Extract(doc)
					if err != nil {
						t.Fatalf("Extract() error = %v", err)
					}
					if strings.Contains(got, marker) {
						t.Errorf("Extract(%q) = %q, leaks %s content", doc, got, tag)
					}
				})
			}
		}
	}
}

func TestTextExtractor_Deterministic(t *testing.T) {
	doc := `<html><body><h1>A</h1><script>x</script><p>B <em>C</em></p></body></html>`
	e := NewText()
	first, _ := e.Extract(doc)
	for i := 0; i < 5; i++ {
		again, _ := e.Extract(doc)
		if again != first {
			t.Fatalf("Extract() not deterministic: %q vs %q", again, first)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"a", "a"},
		{" a \n b\t\tc ", "a b c"},
		{" x ", "x"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestReadabilityExtractor_Extract(t *testing.T) {
	paragraph := strings.Repeat("The committee published its findings on river water quality today. ", 20)
	doc := `<html><head><title>Report</title><script>track("LEAKED")</script></head><body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article><h1>River report</h1><p>` + paragraph + `</p><p>` + paragraph + `</p></article>
<footer>Copyright</footer>
</body></html>`

	e := NewReadability(nil)
	got, err := e.Extract(doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(got, "river water quality") {
		t.Errorf("Extract() lost article text: %q", got)
	}
	if strings.Contains(got, "LEAKED") {
		t.Errorf("Extract() leaked script content: %q", got)
	}
	if strings.Contains(got, "  ") || strings.Contains(got, "\n") {
		t.Errorf("Extract() output not normalized: %q", got)
	}
}

func TestReadabilityExtractor_FallsBackOnEmptyDocument(t *testing.T) {
	e := NewReadability(nil)
	got, err := e.Extract("")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "" {
		t.Errorf("Extract(\"\") = %q, want empty", got)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		mode    string
		want    string
		wantErr bool
	}{
		{"", "text", false},
		{"text", "text", false},
		{"readability", "readability", false},
		{"markdown", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			e, err := New(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			}
			if err == nil && e.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", e.Name(), tt.want)
			}
		})
	}
}
