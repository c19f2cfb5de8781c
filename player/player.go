// Package player drives a dialogue box headlessly: it opens the box, queues a
// compiled script, ticks a virtual clock until the buffer drains, confirms
// breaks on behalf of the reader and records what every page showed.
package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ByLCY/parley/clock"
	"github.com/ByLCY/parley/dialogue"
	"github.com/ByLCY/parley/markup"
	"github.com/ByLCY/parley/script"
	"github.com/ByLCY/parley/surface"
	"github.com/ByLCY/parley/transcript"
	"pkt.systems/pslog"
)

// ErrTickLimit is returned when playback does not finish within MaxTicks.
var ErrTickLimit = errors.New("player: tick limit reached")

// Options configures headless playback.
type Options struct {
	Width    float64
	Height   float64
	Measurer markup.Measurer
	// Tick is the simulated physics tick.
	Tick time.Duration
	// ConfirmAfter is the number of ticks a break waits before it is confirmed.
	ConfirmAfter  int
	MaxTicks      int
	Turbo         bool
	ConfirmAction string
	Logger        pslog.Logger
}

// Player plays compiled dialogues into transcripts.
type Player struct {
	opts Options
}

// New validates opts and fills defaults.
func New(opts Options) (*Player, error) {
	if opts.Measurer == nil {
		return nil, fmt.Errorf("player: %w: measurer", dialogue.ErrMissingCollaborator)
	}
	if opts.Tick <= 0 {
		opts.Tick = time.Second / 60
	}
	if opts.ConfirmAfter < 1 {
		opts.ConfirmAfter = 1
	}
	if opts.MaxTicks <= 0 {
		opts.MaxTicks = 100000
	}
	if opts.ConfirmAction == "" {
		opts.ConfirmAction = dialogue.DefaultConfirmAction
	}
	return &Player{opts: opts}, nil
}

// reader presses the confirm action when told to.
type reader struct {
	action  string
	pressed bool
}

func (r *reader) IsActionJustPressed(action string) bool {
	return r.pressed && action == r.action
}

// Play runs prog to completion and closes the box.
func (p *Player) Play(ctx context.Context, prog *script.Program) (*transcript.Transcript, error) {
	if prog == nil {
		return nil, fmt.Errorf("player: nil program")
	}
	log := p.opts.Logger
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	log = log.With("dialogue", prog.Name)

	surf := surface.New(p.opts.Width, p.opts.Height)
	clk := clock.NewVirtual()
	in := &reader{action: p.opts.ConfirmAction}
	box, err := dialogue.NewBox(dialogue.Options{
		Surface:       surf,
		Measurer:      p.opts.Measurer,
		Scheduler:     clk,
		Input:         in,
		Logger:        log,
		ConfirmAction: p.opts.ConfirmAction,
		Turbo:         p.opts.Turbo,
	})
	if err != nil {
		return nil, err
	}

	tr := &transcript.Transcript{
		Dialogue: prog.Name,
		Box:      transcript.Box{Width: p.opts.Width, Height: p.opts.Height, Lines: box.MaxLineIndex() + 1},
	}
	tick := 0
	cancel := box.Subscribe(func(ev dialogue.Event) {
		tr.Events = append(tr.Events, transcript.Event{
			AtMS: clk.Now().Milliseconds(),
			Tick: tick,
			Kind: ev.Kind.String(),
			Tag:  ev.Tag,
		})
	})
	defer cancel()

	if _, err := box.Open(); err != nil {
		return nil, err
	}
	prog.QueueInto(box)
	run, err := box.Run()
	if err != nil {
		return nil, err
	}
	log.Info("playback start", "steps", len(prog.Steps), "lines", box.MaxLineIndex()+1)

	waited := 0
	for ; !run.Resolved(); tick++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if tick >= p.opts.MaxTicks {
			return nil, fmt.Errorf("%w: %d ticks, %d payloads left", ErrTickLimit, tick, len(box.Pending()))
		}
		in.pressed = false
		if box.IsBreak() {
			waited++
			if waited >= p.opts.ConfirmAfter {
				in.pressed = true
				waited = 0
			}
		}
		box.Update()
		if err := box.Process(); err != nil {
			return nil, fmt.Errorf("player: tick %d: %w", tick, err)
		}
		if run.Resolved() {
			break
		}
		clk.Advance(p.opts.Tick)
	}

	in.pressed = true
	box.Update()
	in.pressed = false
	if box.IsOpen() {
		closed, err := box.Close()
		if err != nil {
			return nil, err
		}
		if err := closed.Wait(ctx); err != nil {
			return nil, err
		}
	}

	for i, page := range surf.Pages() {
		tr.Pages = append(tr.Pages, transcript.NewPage(i, page))
	}
	tr.ElapsedMS = clk.Now().Milliseconds()
	tr.Ticks = tick
	log.Info("playback done", "pages", len(tr.Pages), "ticks", tick, "elapsed_ms", tr.ElapsedMS)
	return tr, nil
}
