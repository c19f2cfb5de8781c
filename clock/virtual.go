// Package clock provides a deterministic dialogue.Scheduler driven by the
// caller, for headless playback, tests and frame-stepped hosts.
package clock

import (
	"sort"
	"time"

	"github.com/ByLCY/parley/dialogue"
)

// Virtual runs timer callbacks on the goroutine calling Advance.
type Virtual struct {
	now    time.Duration
	seq    int
	timers []*timer
}

type timer struct {
	clock  *Virtual
	at     time.Duration
	seq    int
	fn     func()
	active bool
}

var _ dialogue.Scheduler = (*Virtual)(nil)

// NewVirtual returns a clock at zero.
func NewVirtual() *Virtual { return &Virtual{} }

// AfterFunc schedules fn to run once d has elapsed on the clock.
func (v *Virtual) AfterFunc(d time.Duration, fn func()) dialogue.Timer {
	if d < 0 {
		d = 0
	}
	v.seq++
	t := &timer{clock: v, at: v.now + d, seq: v.seq, fn: fn, active: true}
	v.timers = append(v.timers, t)
	return t
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// Timers armed by a callback fire in the same call when they fall due.
func (v *Virtual) Advance(d time.Duration) {
	target := v.now + d
	for {
		t := v.next(target)
		if t == nil {
			break
		}
		v.now = t.at
		t.active = false
		v.remove(t)
		t.fn()
	}
	v.now = target
}

// Now returns the time elapsed since the clock was created.
func (v *Virtual) Now() time.Duration { return v.now }

// Pending returns the number of armed timers.
func (v *Virtual) Pending() int { return len(v.timers) }

func (v *Virtual) next(target time.Duration) *timer {
	if len(v.timers) == 0 {
		return nil
	}
	sort.SliceStable(v.timers, func(i, j int) bool {
		if v.timers[i].at != v.timers[j].at {
			return v.timers[i].at < v.timers[j].at
		}
		return v.timers[i].seq < v.timers[j].seq
	})
	if t := v.timers[0]; t.at <= target {
		return t
	}
	return nil
}

func (v *Virtual) remove(t *timer) {
	for i, x := range v.timers {
		if x == t {
			v.timers = append(v.timers[:i], v.timers[i+1:]...)
			return
		}
	}
}

func (t *timer) Active() bool { return t.active }

func (t *timer) Stop() bool {
	if !t.active {
		return false
	}
	t.active = false
	t.clock.remove(t)
	return true
}
