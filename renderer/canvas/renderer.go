package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/parley/markup"
	"github.com/ByLCY/parley/renderer"
	"github.com/ByLCY/parley/transcript"
)

const frameStrokeWidth = 0.3

// Renderer draws transcripts via github.com/tdewolff/canvas, one PDF page per
// dialogue page. The b and i tags select bold and italic faces and
// [color=...] sets the text color.
type Renderer struct {
	opts Options

	fontMu sync.Mutex
	fonts  *fontSet
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer. Lengths are millimetres.
type Options struct {
	Font   FontOptions
	Margin float64
	// Padding is the space between the box frame and the text.
	Padding float64
	// Scale converts transcript box units to millimetres; 0 skips the box
	// size and fits the frame to the text.
	Scale      float64
	Foreground color.Color
	Frame      color.Color
	// Footer prints the dialogue name and page number under the box.
	Footer bool
}

// DefaultOptions renders with the embedded Go fonts and a footer.
func DefaultOptions() Options {
	return Options{
		Font:       DefaultFontOptions(),
		Margin:     10,
		Padding:    4,
		Scale:      1,
		Foreground: canvas.Hex("#1e1e1e"),
		Frame:      canvas.Hex("#8a8a8a"),
		Footer:     true,
	}
}

// NewRenderer creates a renderer; fonts load on first use.
func NewRenderer(opts Options) *Renderer {
	if opts.Foreground == nil {
		opts.Foreground = canvas.Hex("#1e1e1e")
	}
	if opts.Frame == nil {
		opts.Frame = canvas.Hex("#8a8a8a")
	}
	return &Renderer{opts: opts}
}

// Render renders the transcript into a PDF byte slice.
func (r *Renderer) Render(t *transcript.Transcript) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(t.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	set, err := r.fontSet()
	if err != nil {
		return nil, err
	}

	pages := make([]pageLayout, 0, len(t.Pages))
	for _, p := range t.Pages {
		pl, err := r.layoutPage(set, t, p)
		if err != nil {
			return nil, err
		}
		pages = append(pages, pl)
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, pages[0].width, pages[0].height, nil)
	writer.SetInfo(t.Dialogue, "dialogue transcript", "", "", "parley")
	for i, pl := range pages {
		if i > 0 {
			writer.NewPage(pl.width, pl.height)
		}
		c := canvas.New(pl.width, pl.height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 左上角为原点，与文本行顺序一致
		r.drawPage(ctx, set, t, pl, len(pages))
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// pageLayout 是一页排版后的结果（单位：mm）。
type pageLayout struct {
	index      int
	lines      [][]markup.Span
	width      float64
	height     float64
	frameW     float64
	frameH     float64
	lineHeight float64
}

func (r *Renderer) layoutPage(set *fontSet, t *transcript.Transcript, p transcript.Page) (pageLayout, error) {
	spans, err := markup.Spans(p.Markup)
	if err != nil {
		return pageLayout{}, fmt.Errorf("第 %d 页 markup 无效: %w", p.Index, err)
	}
	lines := markup.SplitLines(spans)
	regular := set.face(canvas.FontRegular, r.opts.Foreground)
	lineHeight := regular.Metrics().LineHeight + r.opts.Font.LineSeparation

	widest := 0.0
	for _, line := range lines {
		w := 0.0
		for _, sp := range line {
			w += set.face(spanStyle(sp), r.opts.Foreground).TextWidth(sp.Text)
		}
		widest = math.Max(widest, w)
	}
	textH := float64(len(lines))*lineHeight - r.opts.Font.LineSeparation

	frameW := widest + 2*r.opts.Padding
	frameH := textH + 2*r.opts.Padding
	if r.opts.Scale > 0 {
		frameW = math.Max(frameW, t.Box.Width*r.opts.Scale+2*r.opts.Padding)
		frameH = math.Max(frameH, t.Box.Height*r.opts.Scale+2*r.opts.Padding)
	}
	height := frameH + 2*r.opts.Margin
	if r.opts.Footer {
		height += lineHeight
	}
	return pageLayout{
		index:      p.Index,
		lines:      lines,
		width:      frameW + 2*r.opts.Margin,
		height:     height,
		frameW:     frameW,
		frameH:     frameH,
		lineHeight: lineHeight,
	}, nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, set *fontSet, t *transcript.Transcript, pl pageLayout, total int) {
	// 先绘制对话框边框，再绘制文本
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(r.opts.Frame)
	ctx.SetStrokeWidth(frameStrokeWidth)
	ctx.DrawPath(r.opts.Margin, r.opts.Margin, canvas.Rectangle(pl.frameW, pl.frameH))

	cursorY := r.opts.Margin + r.opts.Padding
	for _, line := range pl.lines {
		x := r.opts.Margin + r.opts.Padding
		for _, sp := range line {
			face := set.face(spanStyle(sp), spanColor(sp, r.opts.Foreground))
			// 基线位置：行顶部加上字体上升部（Ascent）
			baseline := cursorY + face.Metrics().Ascent
			ctx.DrawText(x, baseline, canvas.NewTextLine(face, sp.Text, canvas.Left))
			x += face.TextWidth(sp.Text)
		}
		cursorY += pl.lineHeight
	}

	if r.opts.Footer {
		face := set.face(canvas.FontItalic, r.opts.Frame)
		label := fmt.Sprintf("%s · %d/%d", t.Dialogue, pl.index+1, total)
		baseline := r.opts.Margin + pl.frameH + face.Metrics().Ascent + 1
		ctx.DrawText(r.opts.Margin+pl.frameW, baseline, canvas.NewTextLine(face, label, canvas.Right))
	}
}

func (r *Renderer) fontSet() (*fontSet, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if r.fonts != nil {
		return r.fonts, nil
	}
	set, err := loadFontSet(r.opts.Font)
	if err != nil {
		return nil, err
	}
	r.fonts = set
	return set, nil
}

func spanStyle(sp markup.Span) canvas.FontStyle {
	style := canvas.FontRegular
	if sp.Has("b") {
		style |= canvas.FontBold
	}
	if sp.Has("i") {
		style |= canvas.FontItalic
	}
	return style
}

var namedColors = map[string]string{
	"black":  "#000000",
	"white":  "#ffffff",
	"red":    "#d03030",
	"green":  "#2e8b57",
	"blue":   "#1f5fbf",
	"yellow": "#c8a000",
	"gray":   "#808080",
	"grey":   "#808080",
}

// spanColor 解析 [color=#rrggbb] 或常用颜色名，无法解析时使用默认颜色。
func spanColor(sp markup.Span, fallback color.Color) color.Color {
	tag, ok := sp.Tag("color")
	if !ok {
		return fallback
	}
	v := strings.ToLower(strings.TrimSpace(tag.Value))
	if hex, ok := namedColors[v]; ok {
		v = hex
	}
	if !strings.HasPrefix(v, "#") {
		return fallback
	}
	switch len(v) {
	case 4, 7, 9:
		return canvas.Hex(v)
	default:
		return fallback
	}
}
