package transcript

// 该文件定义播放记录（transcript），供无头播放、PDF 渲染与调试输出共用。

import (
	"strings"

	"github.com/ByLCY/parley/markup"
)

// Transcript 保存一次对话播放的全部页面与事件。
type Transcript struct {
	Dialogue  string  `json:"dialogue" yaml:"dialogue"`
	Box       Box     `json:"box" yaml:"box"`
	Pages     []Page  `json:"pages" yaml:"pages"`
	Events    []Event `json:"events" yaml:"events"`
	ElapsedMS int64   `json:"elapsed_ms" yaml:"elapsed_ms"`
	Ticks     int     `json:"ticks" yaml:"ticks"`
}

// Box 记录对话框尺寸（与 Measurer 同一单位）与可容纳的行数。
type Box struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Lines  int     `json:"lines" yaml:"lines"`
}

// Page 是对话框被清空前显示的一整页内容。
type Page struct {
	Index    int      `json:"index" yaml:"index"`
	Markup   string   `json:"markup" yaml:"markup"`
	Text     string   `json:"text" yaml:"text"`
	Lines    []string `json:"lines" yaml:"lines"`
	Balanced bool     `json:"balanced" yaml:"balanced"`
}

// Event 记录对话框事件及其发生时刻（虚拟时钟，毫秒）。
type Event struct {
	AtMS int64  `json:"at_ms" yaml:"at_ms"`
	Tick int    `json:"tick" yaml:"tick"`
	Kind string `json:"kind" yaml:"kind"`
	Tag  string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// NewPage 由页面 markup 生成纯文本与分行结果。
func NewPage(index int, text string) Page {
	plain := markup.Strip(text)
	plain = strings.ReplaceAll(plain, "\r\n", "\n")
	return Page{
		Index:    index,
		Markup:   text,
		Text:     plain,
		Lines:    strings.Split(plain, "\n"),
		Balanced: markup.Balanced(text),
	}
}

// Text 返回所有页面的纯文本，页与页之间以空行分隔。
func (t *Transcript) Text() string {
	parts := make([]string, 0, len(t.Pages))
	for _, p := range t.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Count 统计指定类型的事件数量。
func (t *Transcript) Count(kind string) int {
	n := 0
	for _, ev := range t.Events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
