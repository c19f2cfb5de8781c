package ebitenhost

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ByLCY/parley/markup"
)

// Measurer measures text in pixels with an ebiten text/v2 face.
type Measurer struct {
	face *text.GoTextFace
	sep  float64
}

var _ markup.Measurer = (*Measurer)(nil)

// NewMeasurer loads a TrueType/OpenType font; nil data selects Go Regular.
func NewMeasurer(data []byte, size, sep float64) (*Measurer, error) {
	if data == nil {
		data = goregular.TTF
	}
	if size <= 0 {
		return nil, fmt.Errorf("ebitenhost: font size must be positive, got %g", size)
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ebitenhost: load font: %w", err)
	}
	return &Measurer{face: &text.GoTextFace{Source: src, Size: size}, sep: sep}, nil
}

func (m *Measurer) Measure(s string) float64 {
	if s == "" {
		return 0
	}
	w, _ := text.Measure(s, m.face, 0)
	return w
}

func (m *Measurer) LineHeight() float64 {
	metrics := m.face.Metrics()
	return metrics.HAscent + metrics.HDescent
}

func (m *Measurer) LineSeparation() float64 { return m.sep }

// Face is the face the measurer lays text out with.
func (m *Measurer) Face() text.Face { return m.face }
