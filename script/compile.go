package script

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ByLCY/parley/binding"
	"github.com/ByLCY/parley/dialogue"
	"github.com/ByLCY/parley/markup"
)

// ErrUnbalancedText reports a text statement whose markup is not balanced.
var ErrUnbalancedText = errors.New("unbalanced markup in text")

// CompileOptions controls how statements become payloads.
type CompileOptions struct {
	// Data is bound into ${path} placeholders of text bodies.
	Data any
	// Strict fails on placeholders missing from Data instead of keeping them.
	Strict bool
	// Speed is the reveal interval of text without an explicit speed until a
	// speed statement changes it.
	Speed time.Duration
}

// Step is one compiled payload and whether it jumps the queue.
type Step struct {
	Payload dialogue.Payload
	Front   bool
}

// Program is a compiled dialogue.
type Program struct {
	Name  string
	Steps []Step
}

// Queuer receives compiled payloads; *dialogue.Box implements it.
type Queuer interface {
	Queue(p dialogue.Payload, front bool)
}

var _ Queuer = (*dialogue.Box)(nil)

// QueueInto queues every step in order.
func (p *Program) QueueInto(q Queuer) {
	for _, s := range p.Steps {
		q.Queue(s.Payload, s.Front)
	}
}

// Compile turns a dialogue into payloads.
func Compile(d *Dialogue, opts CompileOptions) (*Program, error) {
	if d == nil {
		return nil, fmt.Errorf("compile: nil dialogue")
	}
	prog := &Program{Name: d.Name}
	speed := opts.Speed
	for _, st := range d.Statements {
		switch {
		case st.Speed != nil:
			speed = time.Duration(*st.Speed)
		case st.Text != nil:
			body := strings.Join(st.Text.Parts, "")
			bound, err := bind(body, opts)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", st.Pos, err)
			}
			if !markup.Balanced(bound) {
				return nil, fmt.Errorf("%s: %w: %q", st.Pos, ErrUnbalancedText, bound)
			}
			o := collect(st.Text.Options, speed)
			prog.Steps = append(prog.Steps, Step{
				Payload: dialogue.Text{Body: bound, Speed: o.speed, Tag: o.tag},
				Front:   o.front,
			})
		case st.Silence != nil:
			o := collect(st.Silence.Options, speed)
			prog.Steps = append(prog.Steps, Step{
				Payload: dialogue.Silence{Duration: time.Duration(st.Silence.Duration), Tag: o.tag},
				Front:   o.front,
			})
		case st.Break != nil:
			o := collect(st.Break.Options, speed)
			prog.Steps = append(prog.Steps, Step{Payload: dialogue.Break{Tag: o.tag}, Front: o.front})
		case st.Clear != nil:
			o := collect(st.Clear.Options, speed)
			prog.Steps = append(prog.Steps, Step{Payload: dialogue.Clear{Tag: o.tag}, Front: o.front})
		default:
			return nil, fmt.Errorf("%s: unsupported statement %s", st.Pos, st.Kind())
		}
	}
	return prog, nil
}

// CompileDocument compiles the named dialogue of doc, or its first one.
func CompileDocument(doc *Document, name string, opts CompileOptions) (*Program, error) {
	d, err := doc.Dialogue(name)
	if err != nil {
		return nil, err
	}
	return Compile(d, opts)
}

type options struct {
	speed time.Duration
	tag   string
	front bool
}

// collect folds statement options; later options win.
func collect(opts []*Option, speed time.Duration) options {
	out := options{speed: speed}
	for _, o := range opts {
		switch {
		case o.Speed != nil:
			out.speed = time.Duration(*o.Speed)
		case o.Tag != nil:
			out.tag = *o.Tag
		case o.Front:
			out.front = true
		}
	}
	return out
}

func bind(body string, opts CompileOptions) (string, error) {
	if !opts.Strict {
		return binding.Interpolate(body, opts.Data), nil
	}
	return binding.InterpolateStrict(body, opts.Data)
}
