package dialogue

import (
	"fmt"
	"strings"
	"time"

	"github.com/ByLCY/parley/markup"
)

// LayoutError 表示某个片段比空行还宽，对话框无法折行或断字。
type LayoutError struct {
	Segment   string
	Source    string
	Width     float64
	LineWidth float64
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("dialogue: segment %q is %.2f wide, line holds %.2f (source %q)",
		e.Segment, e.Width, e.LineWidth, e.Source)
}

// packAndAppend 把 source 的片段排进本页剩余的行，并一次性写入显示区。
// 本页放不下时，在正在输出的 payload 之后插入 Break 和未排入的剩余文本。
// 返回是否写入了片段。
func (b *Box) packAndAppend(source string, speed time.Duration) (bool, error) {
	var (
		shown    []markup.Segment
		overflow markup.Segment
		overflew bool
	)
	for seg, err := range b.segmenter.Segments(source) {
		if err != nil {
			return false, err
		}
		if b.line > b.maxLine {
			overflow, overflew = seg, true
			break
		}
		if seg.Newline {
			b.line++
			if b.line > b.maxLine {
				continue
			}
			shown = append(shown, seg)
			continue
		}
		if b.fits(seg) {
			b.accept(seg)
			shown = append(shown, seg)
			continue
		}
		if b.remaining[b.line] >= b.width {
			return false, b.layoutError(seg, source)
		}
		b.line++
		if b.line > b.maxLine {
			overflow, overflew = seg, true
			break
		}
		if n := len(shown); n > 0 {
			shown[n-1].TrimTrailingSpace()
			shown[n-1].Text += "\n"
		} else {
			b.surface.AppendMarkup("\n")
		}
		if !b.fits(seg) {
			return false, b.layoutError(seg, source)
		}
		b.accept(seg)
		shown = append(shown, seg)
	}

	if overflew {
		b.pageFull = true
		remainder := remainderFrom(source, overflow)
		if n := len(shown); n > 0 {
			last := &shown[n-1]
			last.TrimTrailingSpace()
			last.Text += markup.CloseMarkup(last.Tags)
			remainder = markup.OpenMarkup(last.Tags) + remainder
		}
		b.buf.insertAfterHead(Break{}, Text{Body: remainder, Speed: speed})
		b.log.Info("dialogue page overflow", "shown", len(shown), "remainder", remainder)
	}
	if len(shown) == 0 {
		return false, nil
	}

	var out strings.Builder
	for _, s := range shown {
		out.WriteString(s.Text)
	}
	b.surface.AppendMarkup(out.String())
	return true, nil
}

// fits 判断 seg 能否放进当前行。零宽片段总能放下，markup 不会单独换行。
func (b *Box) fits(seg markup.Segment) bool {
	return seg.Width == 0 || seg.Width <= b.remaining[b.line]
}

// accept 从当前行扣除 seg 的宽度，行尾空白允许越过右边界。
func (b *Box) accept(seg markup.Segment) {
	b.remaining[b.line] -= seg.Width + seg.Space
	if strings.HasSuffix(seg.Text, "\n") {
		b.line++
	}
}

func (b *Box) layoutError(seg markup.Segment, source string) error {
	return &LayoutError{Segment: seg.Text, Source: source, Width: seg.Width, LineWidth: b.width}
}

// remainderFrom 返回 source 从 seg 开始的部分。合成片段只含闭合 markup。
func remainderFrom(source string, seg markup.Segment) string {
	if seg.Start < 0 || seg.Start > len(source) {
		return seg.Text
	}
	return source[seg.Start:]
}
