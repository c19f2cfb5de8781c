package markup

import (
	"strings"

	"github.com/go-text/typesetting/segmenter"
)

// Strip removes tag markup from s, keeping literal brackets that do not form
// a tag.
func Strip(s string) string {
	if !strings.Contains(s, "[") {
		return s
	}
	gs := splitGraphemes(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(gs); i++ {
		if end, _, _, ok := scanTag(s, gs, i); ok {
			i = end
			continue
		}
		b.WriteString(gs[i].text)
	}
	return b.String()
}

// Graphemes counts the user-perceived characters of plain text s.
func Graphemes(s string) int {
	if s == "" {
		return 0
	}
	var seg segmenter.Segmenter
	seg.Init([]rune(s))
	it := seg.GraphemeIterator()
	n := 0
	for it.Next() {
		n++
	}
	return n
}

// Balanced reports whether every tag in s is closed in nesting order and no
// closing tag is left without its opening tag.
func Balanced(s string) bool {
	gs := splitGraphemes(s)
	var stack []string
	for i := 0; i < len(gs); i++ {
		end, tag, closing, ok := scanTag(s, gs, i)
		if !ok {
			continue
		}
		if closing {
			if len(stack) == 0 {
				return false
			}
			if tag.Name != "" && stack[len(stack)-1] != tag.Name {
				return false
			}
			stack = stack[:len(stack)-1]
		} else {
			stack = append(stack, tag.Name)
		}
		i = end
	}
	return len(stack) == 0
}

// splitGraphemes 按字素簇切分 s，并记录每个字素的字节偏移。
func splitGraphemes(s string) []grapheme {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	offsets := make([]int, 0, len(runes)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))

	var seg segmenter.Segmenter
	seg.Init(runes)
	it := seg.GraphemeIterator()
	var out []grapheme
	for it.Next() {
		g := it.Grapheme()
		start, end := offsets[g.Offset], offsets[g.Offset+len(g.Text)]
		out = append(out, grapheme{text: s[start:end], start: start})
	}
	return out
}

// scanTag 判断 gs[i] 是否开启一个标签，并返回配对 ']' 的字素下标。
// 方括号必须各自是独立的字素（后接组合字符的 ']' 不算闭合），且括号内的内容能解析为标签。
// Segmenter、Strip、Balanced、Spans 共用这条规则，保证对“哪些是 markup”的判断一致。
func scanTag(text string, gs []grapheme, i int) (end int, tag Tag, closing bool, ok bool) {
	if gs[i].text != "[" {
		return 0, Tag{}, false, false
	}
	for j := i + 1; j < len(gs); j++ {
		switch g := gs[j]; {
		case g.text == "]":
			body := text[gs[i].start+1 : g.start]
			tag, closing, ok = classifyTag(body)
			return j, tag, closing, ok
		case g.text == "[" || isNewline(g.text):
			return 0, Tag{}, false, false
		}
	}
	return 0, Tag{}, false, false
}
