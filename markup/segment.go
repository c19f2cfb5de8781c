package markup

import (
	"strings"
	"unicode"
)

// Measurer reports text metrics for the font the dialogue box renders with.
// Measure receives plain text only; markup never reaches it.
type Measurer interface {
	Measure(text string) float64
	LineHeight() float64
	LineSeparation() float64
}

// Tag is an inline markup span such as [shake rate=10].
type Tag struct {
	Name  string `json:"name"`
	Full  string `json:"full"`            // body between the brackets, attributes included
	Value string `json:"value,omitempty"` // BBCode style [color=#ff0000]
	Attrs []Attr `json:"attrs,omitempty"`
}

// Attr is a key=value pair following the tag name.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Open returns the opening markup for the tag.
func (t Tag) Open() string { return "[" + t.Full + "]" }

// Close returns the closing markup for the tag.
func (t Tag) Close() string { return "[/" + t.Name + "]" }

// Attr returns the value of the named attribute.
func (t Tag) Attr(key string) (string, bool) {
	for _, a := range t.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Segment is an independently measured chunk of a marked-up string, the unit
// the dialogue box packs onto lines.
type Segment struct {
	// Text carries the markup needed to stay consistent with the segments
	// before it, followed by the plain run.
	Text string `json:"text"`
	// Width of the visible word, trailing whitespace excluded.
	Width float64 `json:"width"`
	// Space is the width of the trailing whitespace.
	Space float64 `json:"space"`
	// Tags in effect at the end of the segment, innermost first.
	Tags []Tag `json:"tags,omitempty"`
	// Start is the byte offset in the source string where Text begins, or -1
	// for synthetic segments.
	Start int `json:"start"`
	// Newline marks a forced line break segment.
	Newline bool `json:"newline,omitempty"`
}

// TrimTrailingSpace drops the trailing whitespace of the segment text.
func (s *Segment) TrimTrailingSpace() {
	s.Text = strings.TrimRightFunc(s.Text, unicode.IsSpace)
	s.Space = 0
}

// OpenMarkup reopens tags given innermost first, outermost tag first.
func OpenMarkup(tags []Tag) string {
	var b strings.Builder
	for i := len(tags) - 1; i >= 0; i-- {
		b.WriteString(tags[i].Open())
	}
	return b.String()
}

// CloseMarkup closes tags given innermost first.
func CloseMarkup(tags []Tag) string {
	var b strings.Builder
	for _, t := range tags {
		b.WriteString(t.Close())
	}
	return b.String()
}
