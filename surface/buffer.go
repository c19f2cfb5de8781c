// Package surface provides an in-memory markup display surface. It keeps the
// pages it was cleared from, so headless playback can report what a player
// would have seen.
package surface

import (
	"strings"

	"github.com/ByLCY/parley/dialogue"
	"github.com/ByLCY/parley/markup"
	"github.com/go-text/typesetting/segmenter"
)

// Buffer is a dialogue.Surface holding markup text in memory.
type Buffer struct {
	width, height float64

	text    strings.Builder
	total   int
	visible int // -1 shows everything
	appends []string
	pages   []string
}

var _ dialogue.Surface = (*Buffer)(nil)

// New creates an empty surface of the given size.
func New(width, height float64) *Buffer {
	return &Buffer{width: width, height: height, visible: -1}
}

// AppendMarkup adds text to the current page.
func (b *Buffer) AppendMarkup(text string) {
	b.text.WriteString(text)
	b.total += Characters(text)
	b.appends = append(b.appends, text)
}

// SetVisibleCharacters limits how many characters are revealed; -1 reveals all.
func (b *Buffer) SetVisibleCharacters(n int) {
	if n < 0 {
		n = -1
	}
	b.visible = n
}

// VisibleCharacters returns the number of revealed characters.
func (b *Buffer) VisibleCharacters() int {
	if b.visible < 0 || b.visible > b.total {
		return b.total
	}
	return b.visible
}

func (b *Buffer) TotalCharacters() int { return b.total }

// PercentVisible is 1 for an empty page.
func (b *Buffer) PercentVisible() float64 {
	if b.total == 0 {
		return 1
	}
	return float64(b.VisibleCharacters()) / float64(b.total)
}

// Clear moves the current page into the history and starts an empty one.
func (b *Buffer) Clear() {
	if b.text.Len() > 0 {
		b.pages = append(b.pages, b.text.String())
	}
	b.text.Reset()
	b.total = 0
	b.visible = -1
}

func (b *Buffer) Size() (float64, float64) { return b.width, b.height }

// Text returns the markup of the current page.
func (b *Buffer) Text() string { return b.text.String() }

// Appends returns every AppendMarkup argument in call order, across pages.
func (b *Buffer) Appends() []string { return append([]string(nil), b.appends...) }

// Pages returns the cleared pages followed by the current one, if any.
func (b *Buffer) Pages() []string {
	out := append([]string(nil), b.pages...)
	if b.text.Len() > 0 {
		out = append(out, b.text.String())
	}
	return out
}

// VisiblePlain returns the plain text of the current page cut after the
// revealed characters. Line breaks are kept and never counted.
func (b *Buffer) VisiblePlain() string {
	plain := markup.Strip(b.text.String())
	n := b.VisibleCharacters()
	if n >= b.total {
		return plain
	}
	var out strings.Builder
	eachGrapheme(plain, func(g string) bool {
		if isLineBreak(g) {
			out.WriteString(g)
			return true
		}
		if n == 0 {
			return false
		}
		n--
		out.WriteString(g)
		return true
	})
	return out.String()
}

// Characters counts the revealable characters of markup text: graphemes of
// the plain text, line breaks excluded.
func Characters(text string) int {
	n := 0
	eachGrapheme(markup.Strip(text), func(g string) bool {
		if !isLineBreak(g) {
			n++
		}
		return true
	})
	return n
}

func eachGrapheme(s string, fn func(g string) bool) {
	if s == "" {
		return
	}
	var seg segmenter.Segmenter
	seg.Init([]rune(s))
	it := seg.GraphemeIterator()
	for it.Next() {
		if !fn(string(it.Grapheme().Text)) {
			return
		}
	}
}

func isLineBreak(g string) bool {
	return strings.ContainsAny(g, "\r\n")
}
