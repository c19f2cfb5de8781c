package measure

import "github.com/ByLCY/parley/markup"

// Monospace measures every grapheme with the same advance. It backs headless
// playback and tests, where real font metrics are not available.
type Monospace struct {
	Advance    float64
	Height     float64
	Separation float64
}

var _ markup.Measurer = Monospace{}

// NewMonospace returns a measurer with one unit per grapheme and line.
func NewMonospace() Monospace {
	return Monospace{Advance: 1, Height: 1}
}

// Measure implements markup.Measurer.
func (m Monospace) Measure(text string) float64 {
	return float64(markup.Graphemes(text)) * m.Advance
}

// LineHeight implements markup.Measurer.
func (m Monospace) LineHeight() float64 { return m.Height }

// LineSeparation implements markup.Measurer.
func (m Monospace) LineSeparation() float64 { return m.Separation }
