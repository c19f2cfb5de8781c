package markup

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-text/typesetting/segmenter"
)

var (
	// ErrUnbalancedMarkup reports a closing tag with no open tag left.
	ErrUnbalancedMarkup = errors.New("closing tag without open tag")
	// ErrMismatchedTag reports a closing tag that does not match the innermost open tag.
	ErrMismatchedTag = errors.New("closing tag does not match innermost open tag")
)

type grapheme struct {
	text  string
	start int // 在源字符串中的字节偏移
}

// Segmenter splits marked-up text into segments breakable at whitespace and
// tag boundaries. A Segmenter reuses its working buffers between passes, so
// it must not run two passes at once; each pass starts from a clean state.
type Segmenter struct {
	measurer Measurer

	seg       segmenter.Segmenter
	runes     []rune
	offsets   []int // 每个 rune 的字节偏移，末尾追加 len(text) 哨兵
	graphemes []grapheme

	stack        []Tag // 最外层在前
	pending      strings.Builder
	pendingStart int
	word         strings.Builder
	space        strings.Builder
	runStart     int
}

// NewSegmenter creates a segmenter measuring runs with m.
func NewSegmenter(m Measurer) *Segmenter {
	if m == nil {
		panic("markup: nil measurer")
	}
	return &Segmenter{measurer: m}
}

// Segments lazily yields the segments of text. Concatenating the yielded
// texts reproduces text, plus closing markup for tags left open at the end.
// A closing tag that pops nothing or the wrong tag yields an error and ends
// the pass.
func (s *Segmenter) Segments(text string) iter.Seq2[Segment, error] {
	return func(yield func(Segment, error) bool) {
		s.reset(text)
		for i := 0; i < len(s.graphemes); i++ {
			g := s.graphemes[i]
			switch {
			case g.text == "[":
				end, tag, closing, ok := scanTag(text, s.graphemes, i)
				if !ok {
					if !s.addWord(g, yield) {
						return
					}
					continue
				}
				if !s.flushRun(yield) {
					return
				}
				if closing {
					if err := s.pop(tag.Name); err != nil {
						yield(Segment{}, fmt.Errorf("%w: [/%s] at offset %d in %q", err, tag.Name, g.start, text))
						return
					}
				} else {
					s.stack = append(s.stack, tag)
				}
				s.appendPending(text[g.start:s.graphemes[end].start+1], g.start)
				i = end
			case isNewline(g.text):
				if !s.flushRun(yield) || !s.flushPending(yield) {
					return
				}
				nl := Segment{Text: g.text, Tags: s.tags(), Start: g.start, Newline: true}
				if !yield(nl, nil) {
					return
				}
			case isSpace(g.text):
				s.appendSpace(g)
			default:
				if !s.addWord(g, yield) {
					return
				}
			}
		}
		if !s.flushRun(yield) {
			return
		}
		if s.pending.Len() == 0 && len(s.stack) == 0 {
			return
		}
		final := Segment{Start: -1}
		if s.pending.Len() > 0 {
			final.Start = s.pendingStart
		}
		final.Text = s.pending.String() + CloseMarkup(s.tags())
		s.pending.Reset()
		s.stack = s.stack[:0]
		yield(final, nil)
	}
}

func (s *Segmenter) reset(text string) {
	s.runes = s.runes[:0]
	s.offsets = s.offsets[:0]
	for i, r := range text {
		s.runes = append(s.runes, r)
		s.offsets = append(s.offsets, i)
	}
	s.offsets = append(s.offsets, len(text))

	s.graphemes = s.graphemes[:0]
	if len(s.runes) > 0 {
		s.seg.Init(s.runes)
		it := s.seg.GraphemeIterator()
		for it.Next() {
			g := it.Grapheme()
			start := s.offsets[g.Offset]
			end := s.offsets[g.Offset+len(g.Text)]
			s.graphemes = append(s.graphemes, grapheme{text: text[start:end], start: start})
		}
	}

	s.stack = s.stack[:0]
	s.pending.Reset()
	s.pendingStart = 0
	s.word.Reset()
	s.space.Reset()
	s.runStart = 0
}

func (s *Segmenter) pop(name string) error {
	if len(s.stack) == 0 {
		return ErrUnbalancedMarkup
	}
	top := s.stack[len(s.stack)-1]
	if name != "" && top.Name != name {
		return fmt.Errorf("%w (innermost is [%s])", ErrMismatchedTag, top.Name)
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

func (s *Segmenter) appendPending(markup string, start int) {
	if s.pending.Len() == 0 {
		s.pendingStart = start
	}
	s.pending.WriteString(markup)
}

// addWord 把字素追加到当前单词；空白之后出现的字素开始新的片段。
func (s *Segmenter) addWord(g grapheme, yield func(Segment, error) bool) bool {
	if s.space.Len() > 0 && !s.flushRun(yield) {
		return false
	}
	s.appendWord(g)
	return true
}

func (s *Segmenter) appendWord(g grapheme) {
	if s.word.Len() == 0 && s.space.Len() == 0 {
		s.runStart = g.start
	}
	s.word.WriteString(g.text)
}

func (s *Segmenter) appendSpace(g grapheme) {
	if s.word.Len() == 0 && s.space.Len() == 0 {
		s.runStart = g.start
	}
	s.space.WriteString(g.text)
}

// flushRun 输出已收集的单词及其行尾空白，前面带上待输出的 markup。
// 调用方停止迭代时返回 false。
func (s *Segmenter) flushRun(yield func(Segment, error) bool) bool {
	if s.word.Len() == 0 && s.space.Len() == 0 {
		return true
	}
	seg := Segment{Start: s.runStart, Tags: s.tags()}
	if s.pending.Len() > 0 {
		seg.Start = s.pendingStart
	}
	word, space := s.word.String(), s.space.String()
	seg.Text = s.pending.String() + word + space
	if word != "" {
		seg.Width = s.measurer.Measure(word)
	}
	if space != "" {
		seg.Space = s.measurer.Measure(space)
	}
	s.pending.Reset()
	s.word.Reset()
	s.space.Reset()
	return yield(seg, nil)
}

// flushPending 把待输出的 markup 作为零宽片段输出，强制换行不会把 markup 与其原位置分开。
func (s *Segmenter) flushPending(yield func(Segment, error) bool) bool {
	if s.pending.Len() == 0 {
		return true
	}
	seg := Segment{Text: s.pending.String(), Tags: s.tags(), Start: s.pendingStart}
	s.pending.Reset()
	return yield(seg, nil)
}

// tags 返回当前未闭合的标签，最内层在前。
func (s *Segmenter) tags() []Tag {
	if len(s.stack) == 0 {
		return nil
	}
	out := make([]Tag, len(s.stack))
	for i, t := range s.stack {
		out[len(s.stack)-1-i] = t
	}
	return out
}

func isNewline(g string) bool {
	return strings.ContainsRune(g, '\n')
}

func isSpace(g string) bool {
	r, _ := utf8.DecodeRuneInString(g)
	return unicode.IsSpace(r)
}
