// Package ebitenhost plays a compiled dialogue in an Ebitengine window. The
// game loop is the physics tick: every Update drives the box once and
// advances a virtual clock by one tick, so reveal pacing follows the TPS.
package ebitenhost

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"pkt.systems/pslog"

	"github.com/ByLCY/parley/clock"
	"github.com/ByLCY/parley/dialogue"
	"github.com/ByLCY/parley/markup"
	"github.com/ByLCY/parley/script"
	"github.com/ByLCY/parley/surface"
)

// Options configures the window and the box inside it.
type Options struct {
	Title        string
	WindowWidth  int
	WindowHeight int
	// Padding surrounds the box text inside the window.
	Padding float64
	TPS     int
	// Face draws the text; nil uses the measurer's face when it has one.
	Face     text.Face
	Measurer markup.Measurer
	Input    dialogue.Input
	Turbo    bool
	Confirm  string
	Logger   pslog.Logger

	Background color.Color
	Foreground color.Color
	Frame      color.Color
}

// Game implements ebiten.Game around a dialogue box.
type Game struct {
	opts Options
	box  *dialogue.Box
	surf *surface.Buffer
	clk  *clock.Virtual
	in   dialogue.Input
	run  *dialogue.Future
	tick time.Duration
	log  pslog.Logger
}

var _ ebiten.Game = (*Game)(nil)

// New opens a box sized to the window and queues prog into it.
func New(prog *script.Program, opts Options) (*Game, error) {
	if prog == nil {
		return nil, fmt.Errorf("ebitenhost: nil program")
	}
	if opts.WindowWidth <= 0 {
		opts.WindowWidth = 640
	}
	if opts.WindowHeight <= 0 {
		opts.WindowHeight = 160
	}
	if opts.TPS <= 0 {
		opts.TPS = ebiten.DefaultTPS
	}
	if opts.Title == "" {
		opts.Title = prog.Name
	}
	if opts.Background == nil {
		opts.Background = color.RGBA{0x18, 0x18, 0x20, 0xff}
	}
	if opts.Foreground == nil {
		opts.Foreground = color.White
	}
	if opts.Frame == nil {
		opts.Frame = color.RGBA{0x9a, 0x9a, 0xb0, 0xff}
	}
	if opts.Measurer == nil {
		m, err := NewMeasurer(nil, 20, 4)
		if err != nil {
			return nil, err
		}
		opts.Measurer = m
	}
	if opts.Face == nil {
		if m, ok := opts.Measurer.(*Measurer); ok {
			opts.Face = m.Face()
		}
	}
	if opts.Input == nil {
		opts.Input = NewKeyInput(nil, opts.Confirm)
	}
	log := opts.Logger
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log = log.With("dialogue", prog.Name)

	w := float64(opts.WindowWidth) - 2*opts.Padding
	h := float64(opts.WindowHeight) - 2*opts.Padding
	g := &Game{
		opts: opts,
		surf: surface.New(w, h),
		clk:  clock.NewVirtual(),
		in:   opts.Input,
		tick: time.Second / time.Duration(opts.TPS),
		log:  log,
	}
	box, err := dialogue.NewBox(dialogue.Options{
		Surface:       g.surf,
		Measurer:      opts.Measurer,
		Scheduler:     g.clk,
		Input:         opts.Input,
		Logger:        log,
		ConfirmAction: opts.Confirm,
		Turbo:         opts.Turbo,
	})
	if err != nil {
		return nil, err
	}
	g.box = box
	if _, err := box.Open(); err != nil {
		return nil, err
	}
	prog.QueueInto(box)
	if g.run, err = box.Run(); err != nil {
		return nil, err
	}
	return g, nil
}

// Box exposes the box the game drives.
func (g *Game) Box() *dialogue.Box { return g.box }

// Surface exposes the text the game draws.
func (g *Game) Surface() *surface.Buffer { return g.surf }

// Update runs one physics tick. It ends the game once the box has closed.
func (g *Game) Update() error {
	if g.in.IsActionJustPressed(TurboAction) {
		g.box.SetTurbo(!g.box.Turbo())
	}
	g.box.Update()
	if !g.box.IsOpen() {
		g.log.Info("dialogue closed", "pages", len(g.surf.Pages()))
		return ebiten.Termination
	}
	if err := g.box.Process(); err != nil {
		return fmt.Errorf("ebitenhost: %w", err)
	}
	g.clk.Advance(g.tick)
	return nil
}

// Draw paints the box frame and the revealed text.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.opts.Background)
	pad := float32(g.opts.Padding)
	vector.StrokeRect(screen, pad/2, pad/2,
		float32(g.opts.WindowWidth)-pad, float32(g.opts.WindowHeight)-pad,
		2, g.opts.Frame, false)
	if g.opts.Face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(g.opts.Padding, g.opts.Padding)
	op.ColorScale.ScaleWithColor(g.opts.Foreground)
	op.LineSpacing = g.opts.Measurer.LineHeight() + g.opts.Measurer.LineSeparation()
	text.Draw(screen, g.surf.VisiblePlain(), g.opts.Face, op)
	if g.box.IsBreak() {
		marker := &text.DrawOptions{}
		marker.GeoM.Translate(float64(g.opts.WindowWidth)-g.opts.Padding, float64(g.opts.WindowHeight)-g.opts.Padding)
		marker.PrimaryAlign = text.AlignEnd
		marker.SecondaryAlign = text.AlignEnd
		marker.ColorScale.ScaleWithColor(g.opts.Frame)
		text.Draw(screen, "▼", g.opts.Face, marker)
	}
}

func (g *Game) Layout(int, int) (int, int) {
	return g.opts.WindowWidth, g.opts.WindowHeight
}

// Run opens the window and blocks until the dialogue closes.
func Run(g *Game) error {
	ebiten.SetWindowSize(g.opts.WindowWidth, g.opts.WindowHeight)
	ebiten.SetWindowTitle(g.opts.Title)
	ebiten.SetTPS(g.opts.TPS)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
