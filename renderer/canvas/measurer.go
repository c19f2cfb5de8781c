package canvasrenderer

import (
	"image/color"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/parley/markup"
)

// Measurer measures plain text with a canvas font face, in millimetres.
type Measurer struct {
	face *canvas.FontFace
	sep  float64
}

var _ markup.Measurer = (*Measurer)(nil)

// NewMeasurer loads the regular face described by opts.
func NewMeasurer(opts FontOptions) (*Measurer, error) {
	set, err := loadFontSet(FontOptions{BaseDir: opts.BaseDir, Regular: opts.Regular, Size: opts.Size})
	if err != nil {
		return nil, err
	}
	return &Measurer{face: set.face(canvas.FontRegular, color.Black), sep: opts.LineSeparation}, nil
}

// Measure implements markup.Measurer.
func (m *Measurer) Measure(text string) float64 { return m.face.TextWidth(text) }

// LineHeight implements markup.Measurer.
func (m *Measurer) LineHeight() float64 { return m.face.Metrics().LineHeight }

// LineSeparation implements markup.Measurer.
func (m *Measurer) LineSeparation() float64 { return m.sep }
