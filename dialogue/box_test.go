package dialogue_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ByLCY/parley/clock"
	"github.com/ByLCY/parley/dialogue"
	"github.com/ByLCY/parley/markup"
	"github.com/ByLCY/parley/measure"
	"github.com/ByLCY/parley/surface"
)

type stubInput struct {
	pressed map[string]bool
}

func (s *stubInput) IsActionJustPressed(action string) bool { return s.pressed[action] }

type harness struct {
	box    *dialogue.Box
	surf   *surface.Buffer
	clock  *clock.Virtual
	input  *stubInput
	events []dialogue.Event
}

// newHarness builds an open box that holds width monospace characters per
// line and the given number of lines.
func newHarness(t *testing.T, width float64, lines int) *harness {
	t.Helper()
	h := &harness{
		surf:  surface.New(width, float64(lines)),
		clock: clock.NewVirtual(),
		input: &stubInput{pressed: map[string]bool{}},
	}
	box, err := dialogue.NewBox(dialogue.Options{
		Surface:   h.surf,
		Measurer:  measure.NewMonospace(),
		Scheduler: h.clock,
		Input:     h.input,
	})
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	h.box = box
	box.Subscribe(func(ev dialogue.Event) { h.events = append(h.events, ev) })
	if _, err := box.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	return h
}

func (h *harness) process(t *testing.T) {
	t.Helper()
	if err := h.box.Process(); err != nil {
		t.Fatalf("process: %v", err)
	}
}

func (h *harness) confirm() {
	h.input.pressed[dialogue.DefaultConfirmAction] = true
	h.box.Update()
	h.input.pressed[dialogue.DefaultConfirmAction] = false
}

func (h *harness) run(t *testing.T) *dialogue.Future {
	t.Helper()
	f, err := h.box.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return f
}

// drive processes and acknowledges breaks until the run future resolves.
func (h *harness) drive(t *testing.T, f *dialogue.Future) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if f.Resolved() {
			return
		}
		h.process(t)
		if h.box.IsBreak() {
			h.confirm()
		}
		h.clock.Advance(10 * time.Millisecond)
	}
	t.Fatalf("run did not finish, pending %+v", h.box.Pending())
}

func (h *harness) kinds() []dialogue.EventKind {
	out := make([]dialogue.EventKind, 0, len(h.events))
	for _, ev := range h.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (h *harness) tags() []string {
	var out []string
	for _, ev := range h.events {
		if ev.Kind == dialogue.TagEncountered {
			out = append(out, ev.Tag)
		}
	}
	return out
}

func TestScenarioInstantText(t *testing.T) {
	h := newHarness(t, 40, 3)
	h.box.QueueText("Hello world", 0, "", false)
	f := h.run(t)
	if h.box.State() != dialogue.Outputting {
		t.Fatalf("expected outputting, got %v", h.box.State())
	}
	h.process(t)

	if got := h.surf.Appends(); !reflect.DeepEqual(got, []string{"Hello world"}) {
		t.Fatalf("expected one append, got %q", got)
	}
	if !f.Resolved() {
		t.Fatalf("run future should resolve on BufferEmptied")
	}
	if !h.box.BufferEmptied() || h.box.State() != dialogue.Waiting {
		t.Fatalf("expected drained waiting box")
	}
	if h.surf.VisibleCharacters() != h.surf.TotalCharacters() {
		t.Fatalf("instant text must be fully visible")
	}
	if last := h.events[len(h.events)-1]; last.Kind != dialogue.BufferEmptied {
		t.Fatalf("expected BufferEmptied last, got %v", last.Kind)
	}
}

func TestScenarioOneWordPerPage(t *testing.T) {
	h := newHarness(t, 5, 1)
	if h.box.MaxLineIndex() != 0 {
		t.Fatalf("expected max line index 0, got %d", h.box.MaxLineIndex())
	}
	h.box.QueueText("alpha beta", 0, "", false)
	f := h.run(t)
	h.process(t)

	if got := h.surf.Appends(); !reflect.DeepEqual(got, []string{"alpha"}) {
		t.Fatalf("expected alpha on the first page, got %q", got)
	}
	if !h.box.IsBreak() || !h.box.PageFull() {
		t.Fatalf("expected box halted on a break with a full page")
	}
	want := []dialogue.Payload{dialogue.Break{}, dialogue.Text{Body: "beta"}}
	if got := h.box.Pending(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected buffer %#v", got)
	}

	h.process(t)
	if len(h.surf.Appends()) != 1 {
		t.Fatalf("processing must stay halted until confirm")
	}
	h.confirm()
	if h.box.IsBreak() {
		t.Fatalf("confirm should clear the break")
	}
	h.process(t)
	if !f.Resolved() {
		t.Fatalf("run should finish after the second page")
	}
	if got := h.surf.Pages(); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Fatalf("unexpected pages %q", got)
	}
	wantKinds := []dialogue.EventKind{dialogue.BoxOpened, dialogue.BreakEntered, dialogue.BreakExited, dialogue.BufferEmptied}
	if got := h.kinds(); !reflect.DeepEqual(got, wantKinds) {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestScenarioTagAcrossPageBreak(t *testing.T) {
	h := newHarness(t, 5, 1)
	h.box.QueueText("Lv[shake]el lo[/shake]", 0, "", false)
	h.drive(t, h.run(t))

	appends := h.surf.Appends()
	if len(appends) != 2 {
		t.Fatalf("expected two pages, got %q", appends)
	}
	if appends[0] != "Lv[shake]el[/shake]" {
		t.Fatalf("first page must close the shake tag, got %q", appends[0])
	}
	if appends[1] != "[shake]lo[/shake]" {
		t.Fatalf("second page must reopen the shake tag, got %q", appends[1])
	}
}

func TestScenarioCutBeforeTaggedRun(t *testing.T) {
	h := newHarness(t, 3, 1)
	h.box.QueueText("Lv[shake]el[/shake]", 0, "", false)
	h.run(t)
	h.process(t)

	if got := h.surf.Appends(); !reflect.DeepEqual(got, []string{"Lv"}) {
		t.Fatalf("unexpected first page %q", got)
	}
	pending := h.box.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected break and remainder, got %#v", pending)
	}
	if rem := pending[1].(dialogue.Text); rem.Body != "[shake]el[/shake]" {
		t.Fatalf("remainder must carry the tagged run, got %q", rem.Body)
	}
}

func TestScenarioSilence(t *testing.T) {
	h := newHarness(t, 40, 2)
	h.box.QueueSilence(2*time.Second, "", false)
	h.box.QueueText("after", 0, "", false)
	f := h.run(t)
	h.process(t)
	if !h.box.SilenceActive() {
		t.Fatalf("expected active silence")
	}

	h.clock.Advance(1999 * time.Millisecond)
	h.process(t)
	if len(h.surf.Appends()) != 0 {
		t.Fatalf("no output expected during silence, got %q", h.surf.Appends())
	}

	h.clock.Advance(time.Millisecond)
	if h.box.SilenceActive() {
		t.Fatalf("silence should have elapsed")
	}
	h.process(t)
	if got := h.surf.Appends(); !reflect.DeepEqual(got, []string{"after"}) {
		t.Fatalf("next payload should output on the same tick, got %q", got)
	}
	if !f.Resolved() {
		t.Fatalf("run should be resolved")
	}
}

func TestScenarioOpenClose(t *testing.T) {
	surf := surface.New(10, 2)
	box, err := dialogue.NewBox(dialogue.Options{
		Surface:   surf,
		Measurer:  measure.NewMonospace(),
		Scheduler: clock.NewVirtual(),
	})
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	var kinds []dialogue.EventKind
	box.Subscribe(func(ev dialogue.Event) { kinds = append(kinds, ev.Kind) })

	opened, err := box.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	closed, err := box.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !opened.Resolved() || !closed.Resolved() {
		t.Fatalf("both futures should resolve")
	}
	if box.IsOpen() || len(box.Pending()) != 0 || surf.Text() != "" {
		t.Fatalf("close must reset the box")
	}
	want := []dialogue.EventKind{dialogue.BoxOpened, dialogue.BufferCleared, dialogue.BoxClosed}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("unexpected events %v", kinds)
	}
}

type manualTransition struct {
	show, hide func()
}

func (m *manualTransition) Show(done func()) { m.show = done }
func (m *manualTransition) Hide(done func()) { m.hide = done }

func TestOpenCloseWaitForTransition(t *testing.T) {
	tr := &manualTransition{}
	box, err := dialogue.NewBox(dialogue.Options{
		Surface:    surface.New(10, 2),
		Measurer:   measure.NewMonospace(),
		Scheduler:  clock.NewVirtual(),
		Transition: tr,
	})
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	opened, err := box.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened.Resolved() || box.IsOpen() {
		t.Fatalf("open must wait for the show transition")
	}
	if _, err := box.Open(); !errors.Is(err, dialogue.ErrPending) {
		t.Fatalf("expected ErrPending while opening, got %v", err)
	}
	tr.show()
	if !opened.Resolved() || !box.IsOpen() {
		t.Fatalf("open should complete with the transition")
	}
	again, err := box.Open()
	if err != nil || !again.Resolved() {
		t.Fatalf("open on an open box should resolve at once")
	}

	box.QueueText("pending", 0, "", false)
	run, err := box.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	closed, err := box.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Resolved() || run.Resolved() {
		t.Fatalf("close must wait for the hide transition")
	}
	tr.hide()
	if !closed.Resolved() || !run.Resolved() {
		t.Fatalf("close should resolve itself and the pending run")
	}
}

func TestRunPendingAndEmpty(t *testing.T) {
	h := newHarness(t, 10, 1)
	f := h.run(t)
	if !f.Resolved() {
		t.Fatalf("run on an empty buffer resolves at once")
	}
	h.box.QueueText("x", 0, "", false)
	h.run(t)
	if _, err := h.box.Run(); !errors.Is(err, dialogue.ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	h := newHarness(t, 5, 1)
	h.box.SetTurbo(false)
	h.box.QueueText("alpha beta gamma", 0, "", false)
	h.box.QueueSilence(time.Second, "", false)
	h.run(t)
	h.process(t)
	h.box.SetTurbo(true)

	for i := 0; i < 2; i++ {
		h.box.Reset()
		if h.box.State() != dialogue.Waiting || h.box.IsBreak() || h.box.PageFull() {
			t.Fatalf("reset %d: unexpected state", i)
		}
		if len(h.box.Pending()) != 0 || h.surf.Text() != "" || h.surf.TotalCharacters() != 0 {
			t.Fatalf("reset %d: buffer or display not empty", i)
		}
		if h.box.Line() != 0 || h.box.RemainingWidth() != h.box.Width() {
			t.Fatalf("reset %d: line accounting not reset", i)
		}
		if h.box.Turbo() {
			t.Fatalf("reset %d: turbo not cleared", i)
		}
	}
}

func TestOrderAndPushFront(t *testing.T) {
	h := newHarness(t, 40, 4)
	h.box.SetTurbo(true)
	h.box.QueueText("one", 0, "1", false)
	h.box.QueueSilence(time.Second, "2", false)
	h.box.QueueBreak("3", false)
	h.box.QueueClear("4", false)
	h.box.QueueText("zero ", 0, "0", true)
	h.run(t)
	h.process(t)

	if got := h.tags(); !reflect.DeepEqual(got, []string{"0", "1", "2", "3", "4"}) {
		t.Fatalf("unexpected output order %v", got)
	}
	if got := h.surf.Pages(); !reflect.DeepEqual(got, []string{"zero one"}) {
		t.Fatalf("unexpected pages %q", got)
	}
}

func TestTurboSkipsPacing(t *testing.T) {
	h := newHarness(t, 40, 2)
	h.box.SetTurbo(true)
	h.box.QueueText("slow text", 50*time.Millisecond, "", false)
	h.box.QueueSilence(time.Minute, "", false)
	h.box.QueueBreak("", false)
	f := h.run(t)
	h.process(t)

	if !f.Resolved() {
		t.Fatalf("turbo run should finish in one tick")
	}
	if h.box.IsPrinting() || h.surf.VisibleCharacters() != h.surf.TotalCharacters() {
		t.Fatalf("turbo text should be fully visible")
	}
	for _, k := range h.kinds() {
		if k == dialogue.BreakEntered {
			t.Fatalf("turbo must not enter breaks")
		}
	}
}

func TestRevealOneCharacterPerInterval(t *testing.T) {
	h := newHarness(t, 40, 2)
	h.box.QueueText("abc", 10*time.Millisecond, "", false)
	f := h.run(t)
	h.process(t)

	if !h.box.IsPrinting() || h.surf.VisibleCharacters() != 0 {
		t.Fatalf("expected reveal from zero, visible %d", h.surf.VisibleCharacters())
	}
	h.clock.Advance(10 * time.Millisecond)
	if got := h.surf.VisiblePlain(); got != "a" {
		t.Fatalf("expected one character, got %q", got)
	}
	h.process(t)
	if len(h.box.Pending()) != 1 {
		t.Fatalf("processing must wait while printing")
	}
	h.clock.Advance(20 * time.Millisecond)
	if h.box.IsPrinting() || len(h.box.Pending()) != 0 {
		t.Fatalf("reveal should pop the text once fully visible")
	}
	h.process(t)
	if !f.Resolved() {
		t.Fatalf("run should resolve after reveal")
	}
}

func TestRevealAcrossPageBreak(t *testing.T) {
	h := newHarness(t, 5, 1)
	speed := 10 * time.Millisecond
	h.box.QueueText("alpha beta", speed, "", false)
	f := h.run(t)
	h.process(t)

	if !h.box.IsPrinting() || h.box.IsBreak() {
		t.Fatalf("expected the first page to be revealing")
	}
	want := []dialogue.Payload{
		dialogue.Text{Body: "alpha beta", Speed: speed},
		dialogue.Break{},
		dialogue.Text{Body: "beta", Speed: speed},
	}
	if got := h.box.Pending(); !reflect.DeepEqual(got, want) {
		t.Fatalf("break and remainder must sit behind the revealing text, got %#v", got)
	}

	h.clock.Advance(5 * speed)
	if h.box.IsPrinting() {
		t.Fatalf("reveal should finish after five characters")
	}
	if got := h.box.Pending(); !reflect.DeepEqual(got, want[1:]) {
		t.Fatalf("reveal must pop the revealed text only, got %#v", got)
	}
	h.process(t)
	if !h.box.IsBreak() {
		t.Fatalf("expected a break after the first page")
	}

	h.drive(t, f)
	if got := h.surf.Pages(); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Fatalf("unexpected pages %q", got)
	}
	wantKinds := []dialogue.EventKind{dialogue.BoxOpened, dialogue.BreakEntered, dialogue.BreakExited, dialogue.BufferEmptied}
	if got := h.kinds(); !reflect.DeepEqual(got, wantKinds) {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestTurboMidRevealAcrossPageBreak(t *testing.T) {
	h := newHarness(t, 5, 1)
	speed := 10 * time.Millisecond
	h.box.QueueText("alpha beta", speed, "", false)
	f := h.run(t)
	h.process(t)
	h.clock.Advance(speed)
	if got := h.surf.VisiblePlain(); got != "a" {
		t.Fatalf("expected one revealed character, got %q", got)
	}

	h.box.SetTurbo(true)
	h.clock.Advance(speed)
	if h.box.IsPrinting() || h.surf.VisiblePlain() != "alpha" {
		t.Fatalf("turbo should reveal the rest of the page, got %q", h.surf.VisiblePlain())
	}
	want := []dialogue.Payload{dialogue.Break{}, dialogue.Text{Body: "beta", Speed: speed}}
	if got := h.box.Pending(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected buffer %#v", got)
	}

	h.process(t)
	if !f.Resolved() {
		t.Fatalf("turbo should skip the break and finish in one tick")
	}
	if got := h.surf.Pages(); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Fatalf("unexpected pages %q", got)
	}
	for _, k := range h.kinds() {
		if k == dialogue.BreakEntered {
			t.Fatalf("turbo must not enter the page break")
		}
	}
}

func TestTagBalanceAcrossPages(t *testing.T) {
	text := "The [b]quick brown[/b] fox [color=red]jumps over the [i]lazy[/i] dog[/color] and keeps running far away"
	h := newHarness(t, 12, 2)
	h.box.QueueText(text, 0, "", false)
	h.drive(t, h.run(t))

	pages := h.surf.Pages()
	if len(pages) < 3 {
		t.Fatalf("expected several pages, got %q", pages)
	}
	for _, a := range h.surf.Appends() {
		if !markup.Balanced(a) {
			t.Fatalf("append %q is not balanced", a)
		}
	}
	for _, p := range pages {
		if !markup.Balanced(p) {
			t.Fatalf("page %q is not balanced", p)
		}
	}
	got := strings.Fields(markup.Strip(strings.Join(pages, " ")))
	want := strings.Fields(markup.Strip(text))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("words differ:\n got %q\nwant %q", got, want)
	}
}

func TestWrapGluesNewlineToPreviousSegment(t *testing.T) {
	h := newHarness(t, 7, 2)
	h.box.QueueText("hello big world", 0, "", false)
	h.run(t)
	h.process(t)

	if got := h.surf.Appends(); !reflect.DeepEqual(got, []string{"hello\nbig"}) {
		t.Fatalf("unexpected page %q", got)
	}
	pending := h.box.Pending()
	if len(pending) != 2 || pending[1].(dialogue.Text).Body != "world" {
		t.Fatalf("unexpected remainder %#v", pending)
	}
}

func TestForcedNewlines(t *testing.T) {
	h := newHarness(t, 20, 2)
	h.box.QueueText("ab\ncd\nef", 0, "", false)
	h.run(t)
	h.process(t)

	if got := h.surf.Appends(); !reflect.DeepEqual(got, []string{"ab\ncd"}) {
		t.Fatalf("unexpected page %q", got)
	}
	pending := h.box.Pending()
	if len(pending) != 2 || pending[1].(dialogue.Text).Body != "ef" {
		t.Fatalf("unexpected remainder %#v", pending)
	}
}

func TestOverflowKeepsLaterPayloadsBehind(t *testing.T) {
	h := newHarness(t, 5, 1)
	h.box.QueueText("alpha beta", 0, "", false)
	h.box.QueueText("gamma", 0, "last", false)
	h.run(t)
	h.process(t)

	pending := h.box.Pending()
	if len(pending) != 3 {
		t.Fatalf("expected break, remainder and queued text, got %#v", pending)
	}
	if _, ok := pending[0].(dialogue.Break); !ok {
		t.Fatalf("expected break at head, got %#v", pending[0])
	}
	if pending[2].PayloadTag() != "last" {
		t.Fatalf("queued payload must stay behind the remainder, got %#v", pending)
	}
}

func TestLayoutErrorForOverwideWord(t *testing.T) {
	h := newHarness(t, 3, 2)
	h.box.QueueText("abcdef", 0, "", false)
	h.run(t)
	err := h.box.Process()
	var le *dialogue.LayoutError
	if !errors.As(err, &le) {
		t.Fatalf("expected LayoutError, got %v", err)
	}
	if le.Segment != "abcdef" || le.Source != "abcdef" {
		t.Fatalf("unexpected error fields %+v", le)
	}
}

func TestUnbalancedMarkupFailsProcessing(t *testing.T) {
	h := newHarness(t, 20, 2)
	h.box.QueueText("oops[/b]", 0, "", false)
	h.run(t)
	if err := h.box.Process(); !errors.Is(err, markup.ErrUnbalancedMarkup) {
		t.Fatalf("expected ErrUnbalancedMarkup, got %v", err)
	}
}

// A payload queued in front while a silence is pending is popped in its
// place when the silence ends. This mirrors the reveal timer and is kept.
func TestSilencePopsCurrentHead(t *testing.T) {
	h := newHarness(t, 40, 2)
	h.box.QueueSilence(time.Second, "", false)
	h.box.QueueText("later", 0, "", false)
	h.run(t)
	h.process(t)

	h.box.QueueText("urgent", 0, "", true)
	h.clock.Advance(time.Second)

	pending := h.box.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected two payloads left, got %#v", pending)
	}
	if _, ok := pending[0].(dialogue.Silence); !ok {
		t.Fatalf("the silence should still be queued, got %#v", pending[0])
	}
	if pending[1].(dialogue.Text).Body != "later" {
		t.Fatalf("unexpected tail %#v", pending[1])
	}
}

func TestConfirmClosesDrainedBox(t *testing.T) {
	h := newHarness(t, 20, 2)
	h.box.QueueText("bye", 0, "", false)
	h.run(t)
	h.process(t)
	h.confirm()
	if h.box.IsOpen() {
		t.Fatalf("confirm on a drained box should close it")
	}
	if h.surf.Text() != "" {
		t.Fatalf("close should clear the text")
	}
}

func TestNewBoxValidation(t *testing.T) {
	if _, err := dialogue.NewBox(dialogue.Options{}); !errors.Is(err, dialogue.ErrMissingCollaborator) {
		t.Fatalf("expected ErrMissingCollaborator, got %v", err)
	}
	_, err := dialogue.NewBox(dialogue.Options{
		Surface:   surface.New(10, 0.5),
		Measurer:  measure.NewMonospace(),
		Scheduler: clock.NewVirtual(),
	})
	if !errors.Is(err, dialogue.ErrBoxTooSmall) {
		t.Fatalf("expected ErrBoxTooSmall, got %v", err)
	}
	box, err := dialogue.NewBox(dialogue.Options{
		Surface:   surface.New(10, 10),
		Measurer:  measure.Monospace{Advance: 1, Height: 3, Separation: 1},
		Scheduler: clock.NewVirtual(),
	})
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	if box.MaxLineIndex() != 1 {
		t.Fatalf("expected two lines, got max index %d", box.MaxLineIndex())
	}
}

func TestSubscribeCancel(t *testing.T) {
	h := newHarness(t, 20, 2)
	var n int
	cancel := h.box.Subscribe(func(dialogue.Event) { n++ })
	h.box.ClearBuffer()
	cancel()
	h.box.ClearBuffer()
	if n != 1 {
		t.Fatalf("expected one event before cancel, got %d", n)
	}
}

func TestAccessorsTrackLayout(t *testing.T) {
	h := newHarness(t, 10, 2)
	if !h.box.IsOpen() || h.box.State() != dialogue.Waiting {
		t.Fatalf("expected an open waiting box, got open=%v state=%v", h.box.IsOpen(), h.box.State())
	}
	if h.box.Surface() != dialogue.Surface(h.surf) {
		t.Fatalf("surface accessor should return the wired surface")
	}
	if h.box.Width() != 10 || h.box.MaxLineIndex() != 1 {
		t.Fatalf("unexpected geometry width=%g max=%d", h.box.Width(), h.box.MaxLineIndex())
	}
	if h.box.Line() != 0 || h.box.RemainingWidth() != 10 {
		t.Fatalf("fresh box should start on an empty first line")
	}

	h.box.QueueText("hello world", 0, "", false)
	f := h.run(t)
	if h.box.State() != dialogue.Outputting || h.box.BufferEmptied() {
		t.Fatalf("run should start outputting")
	}
	h.process(t)
	if !f.Resolved() || !h.box.BufferEmptied() || h.box.State() != dialogue.Waiting {
		t.Fatalf("run should drain the buffer")
	}
	if h.box.Line() != 1 || h.box.RemainingWidth() != 5 || h.box.PageFull() {
		t.Fatalf("expected world on the second line, line=%d remaining=%g full=%v",
			h.box.Line(), h.box.RemainingWidth(), h.box.PageFull())
	}
	if h.box.IsBreak() || h.box.IsPrinting() || h.box.SilenceActive() || len(h.box.Pending()) != 0 {
		t.Fatalf("drained box should be idle")
	}
}

func TestProcessDispatchesUntilPayloadWaits(t *testing.T) {
	h := newHarness(t, 40, 2)
	h.box.QueueText("a", 0, "first", false)
	h.box.QueueClear("wipe", false)
	h.box.QueueText("b", 0, "second", false)
	h.box.QueueBreak("stop", false)
	h.box.QueueText("c", 0, "after", false)
	h.run(t)

	h.process(t)
	if got, want := h.tags(), []string{"first", "wipe", "second", "stop"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("one tick should reach the break, got tags %v", got)
	}
	if !h.box.IsBreak() {
		t.Fatalf("expected the box to wait on the break")
	}
	want := []dialogue.Payload{dialogue.Break{Tag: "stop"}, dialogue.Text{Body: "c", Tag: "after"}}
	if got := h.box.Pending(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected buffer %#v", got)
	}
	if got := h.surf.Pages(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected pages %q", got)
	}
}
