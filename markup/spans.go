package markup

import "strings"

// Span is a run of plain text and the tags in effect over it.
type Span struct {
	Text string
	Tags []Tag // innermost first
}

// Has reports whether a tag with the given name is in effect.
func (s Span) Has(name string) bool {
	_, ok := s.Tag(name)
	return ok
}

// Tag returns the innermost tag with the given name.
func (s Span) Tag(name string) (Tag, bool) {
	for _, t := range s.Tags {
		if t.Name == name {
			return t, true
		}
	}
	return Tag{}, false
}

// Spans splits markup text into styled runs. Tags left open at the end are
// closed implicitly; a stray closing tag fails like in Segmenter.
func Spans(s string) ([]Span, error) {
	var (
		out   []Span
		stack []Tag
		run   strings.Builder
	)
	flush := func() {
		if run.Len() == 0 {
			return
		}
		tags := make([]Tag, len(stack))
		for i, t := range stack {
			tags[len(stack)-1-i] = t
		}
		out = append(out, Span{Text: run.String(), Tags: tags})
		run.Reset()
	}
	gs := splitGraphemes(s)
	for i := 0; i < len(gs); i++ {
		end, tag, closing, ok := scanTag(s, gs, i)
		if !ok {
			run.WriteString(gs[i].text)
			continue
		}
		flush()
		if closing {
			if len(stack) == 0 {
				return nil, ErrUnbalancedMarkup
			}
			if tag.Name != "" && stack[len(stack)-1].Name != tag.Name {
				return nil, ErrMismatchedTag
			}
			stack = stack[:len(stack)-1]
		} else {
			stack = append(stack, tag)
		}
		i = end
	}
	flush()
	return out, nil
}

// SplitLines splits spans at line breaks. Every returned line holds the
// spans drawn on it; an empty line has no spans.
func SplitLines(spans []Span) [][]Span {
	lines := [][]Span{nil}
	for _, sp := range spans {
		parts := strings.Split(strings.ReplaceAll(sp.Text, "\r\n", "\n"), "\n")
		for j, part := range parts {
			if j > 0 {
				lines = append(lines, nil)
			}
			if part != "" {
				lines[len(lines)-1] = append(lines[len(lines)-1], Span{Text: part, Tags: sp.Tags})
			}
		}
	}
	return lines
}
