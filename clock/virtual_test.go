package clock

import (
	"reflect"
	"testing"
	"time"
)

func TestAdvanceFiresInDeadlineOrder(t *testing.T) {
	v := NewVirtual()
	var order []string
	v.AfterFunc(30*time.Millisecond, func() { order = append(order, "c") })
	v.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	v.AfterFunc(10*time.Millisecond, func() { order = append(order, "b") })

	v.Advance(20 * time.Millisecond)
	if !reflect.DeepEqual(order, []string{"a", "b"}) {
		t.Fatalf("unexpected order %v", order)
	}
	if v.Now() != 20*time.Millisecond || v.Pending() != 1 {
		t.Fatalf("unexpected clock state now=%v pending=%d", v.Now(), v.Pending())
	}
	v.Advance(10 * time.Millisecond)
	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestAdvanceFiresTimersArmedByCallbacks(t *testing.T) {
	v := NewVirtual()
	n := 0
	var tick func()
	tick = func() {
		n++
		if n < 5 {
			v.AfterFunc(10*time.Millisecond, tick)
		}
	}
	v.AfterFunc(10*time.Millisecond, tick)
	v.Advance(35 * time.Millisecond)
	if n != 3 {
		t.Fatalf("expected 3 ticks, got %d", n)
	}
	v.Advance(time.Second)
	if n != 5 {
		t.Fatalf("expected 5 ticks, got %d", n)
	}
}

func TestStop(t *testing.T) {
	v := NewVirtual()
	fired := false
	tm := v.AfterFunc(time.Second, func() { fired = true })
	if !tm.Active() {
		t.Fatalf("new timer should be active")
	}
	if !tm.Stop() || tm.Stop() {
		t.Fatalf("stop should succeed exactly once")
	}
	v.Advance(2 * time.Second)
	if fired || tm.Active() {
		t.Fatalf("stopped timer fired")
	}
}
