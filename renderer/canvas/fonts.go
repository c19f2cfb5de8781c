package canvasrenderer

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/parley/fonts"
)

// FontOptions selects the font family used to measure and draw dialogue
// text. Sources are file paths or embed:<name> for the built-in Go fonts.
type FontOptions struct {
	BaseDir    string
	Regular    string
	Bold       string
	Italic     string
	BoldItalic string
	// Size in points.
	Size float64
	// LineSeparation is the gap between lines in millimetres.
	LineSeparation float64
}

// DefaultFontOptions uses the embedded Go fonts at 12pt.
func DefaultFontOptions() FontOptions {
	return FontOptions{
		Regular:    "embed:" + fonts.Regular,
		Bold:       "embed:" + fonts.Bold,
		Italic:     "embed:" + fonts.Italic,
		BoldItalic: "embed:" + fonts.BoldItalic,
		Size:       12,
	}
}

// fontSet 是已加载的字体族，以及其中实际存在的样式。
type fontSet struct {
	family *canvas.FontFamily
	styles map[canvas.FontStyle]bool
	size   float64
}

func loadFontSet(opts FontOptions) (*fontSet, error) {
	if opts.Regular == "" {
		opts.Regular = "embed:" + fonts.Regular
	}
	if opts.Size <= 0 {
		opts.Size = 12
	}
	set := &fontSet{
		family: canvas.NewFontFamily("parley"),
		styles: map[canvas.FontStyle]bool{},
		size:   opts.Size,
	}
	sources := []struct {
		src   string
		style canvas.FontStyle
	}{
		{opts.Regular, canvas.FontRegular},
		{opts.Bold, canvas.FontBold},
		{opts.Italic, canvas.FontItalic},
		{opts.BoldItalic, canvas.FontBold | canvas.FontItalic},
	}
	for _, s := range sources {
		if s.src == "" {
			continue
		}
		data, err := loadFontBytes(opts.BaseDir, s.src)
		if err != nil {
			return nil, err
		}
		if err := set.family.LoadFont(data, 0, s.style); err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", s.src, err)
		}
		set.styles[s.style] = true
	}
	return set, nil
}

// face 返回已加载样式中最接近 style 的字体。
func (s *fontSet) face(style canvas.FontStyle, col color.Color) *canvas.FontFace {
	if !s.styles[style] {
		switch {
		case style&canvas.FontBold != 0 && s.styles[canvas.FontBold]:
			style = canvas.FontBold
		case style&canvas.FontItalic != 0 && s.styles[canvas.FontItalic]:
			style = canvas.FontItalic
		default:
			style = canvas.FontRegular
		}
	}
	return s.family.Face(s.size, col, style, canvas.FontNormal)
}

func loadFontBytes(baseDir, src string) ([]byte, error) {
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}
