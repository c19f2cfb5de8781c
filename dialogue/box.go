// Package dialogue 实现对话框：把文本、静默、换页、清屏 payload 组成的队列
// 输出到固定大小的显示区，负责折行、分页和逐字显示。
//
// Box 不支持并发使用，宿主需在同一个 goroutine 中调用 Update、Process 和调度器。
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ByLCY/parley/markup"
	"pkt.systems/pslog"
)

var (
	// ErrPending 表示同类操作仍在进行中。
	ErrPending = errors.New("dialogue: operation already pending")
	// ErrBoxTooSmall 表示显示区连一行都放不下。
	ErrBoxTooSmall = errors.New("dialogue: box too small for one line")
	// ErrMissingCollaborator 表示必需的选项为 nil。
	ErrMissingCollaborator = errors.New("dialogue: missing collaborator")
)

// DefaultConfirmAction 是确认换页的默认输入动作。
const DefaultConfirmAction = "confirm"

// State 是对话框的输出状态。
type State int

const (
	Waiting State = iota
	Outputting
)

func (s State) String() string {
	if s == Outputting {
		return "outputting"
	}
	return "waiting"
}

// Options 为对话框提供协作对象，其中 Surface、Measurer、Scheduler 必填。
type Options struct {
	Surface   Surface
	Measurer  markup.Measurer
	Scheduler Scheduler
	// Input 由 Update 轮询，为 nil 时不响应确认输入。
	Input Input
	// Transition 默认为 InstantTransition。
	Transition Transition
	Logger     pslog.Logger
	// ConfirmAction 默认为 DefaultConfirmAction。
	ConfirmAction string
	Turbo         bool
}

// Box 缓存 payload 并把它们输出到显示区。
type Box struct {
	surface    Surface
	measurer   markup.Measurer
	scheduler  Scheduler
	input      Input
	transition Transition
	log        pslog.Logger
	segmenter  *markup.Segmenter

	confirm string
	turbo   bool

	buf   queue
	state State

	isBreak       bool
	isPrinting    bool
	silenceActive bool
	bufferEmptied bool
	pageFull      bool

	open    bool
	opening bool
	closing bool

	width     float64
	remaining []float64
	line      int
	maxLine   int

	revealSpeed  time.Duration
	revealTimer  Timer
	silenceTimer Timer

	runFuture   *Future
	openFuture  *Future
	closeFuture *Future

	subs    []subscriber
	nextSub int
}

// NewBox 创建处于关闭、等待状态的对话框，行数在此根据显示区尺寸和字体度量确定。
func NewBox(opts Options) (*Box, error) {
	switch {
	case opts.Surface == nil:
		return nil, fmt.Errorf("%w: surface", ErrMissingCollaborator)
	case opts.Measurer == nil:
		return nil, fmt.Errorf("%w: measurer", ErrMissingCollaborator)
	case opts.Scheduler == nil:
		return nil, fmt.Errorf("%w: scheduler", ErrMissingCollaborator)
	}
	if opts.Transition == nil {
		opts.Transition = InstantTransition{}
	}
	if opts.Logger == nil {
		opts.Logger = pslog.Ctx(context.Background())
	}
	if opts.ConfirmAction == "" {
		opts.ConfirmAction = DefaultConfirmAction
	}

	width, height := opts.Surface.Size()
	maxLine, err := maxLineIndex(height, opts.Measurer.LineHeight(), opts.Measurer.LineSeparation())
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: width %.2f", ErrBoxTooSmall, width)
	}

	b := &Box{
		surface:    opts.Surface,
		measurer:   opts.Measurer,
		scheduler:  opts.Scheduler,
		input:      opts.Input,
		transition: opts.Transition,
		log:        opts.Logger,
		segmenter:  markup.NewSegmenter(opts.Measurer),
		confirm:    opts.ConfirmAction,
		turbo:      opts.Turbo,
		width:      width,
		remaining:  make([]float64, maxLine+1),
		maxLine:    maxLine,
	}
	b.resetLines()
	b.log.Debug("dialogue box created", "width", width, "height", height, "lines", maxLine+1)
	return b, nil
}

// maxLineIndex 返回给定高度能容纳的最后一行的下标。
func maxLineIndex(height, lineHeight, sep float64) (int, error) {
	if lineHeight <= 0 {
		return 0, fmt.Errorf("%w: line height %.2f", ErrBoxTooSmall, lineHeight)
	}
	lines := math.Floor((height + sep) / (lineHeight + sep))
	if lines < 1 {
		return 0, fmt.Errorf("%w: height %.2f, line height %.2f", ErrBoxTooSmall, height, lineHeight)
	}
	return int(lines) - 1, nil
}

// Queue 把 p 加到缓冲区末尾，front 为 true 时加到队首。
func (b *Box) Queue(p Payload, front bool) {
	if p == nil {
		return
	}
	b.buf.push(p, front)
	b.bufferEmptied = false
	b.log.Debug("dialogue queue", "kind", p.Kind().String(), "front", front, "pending", b.buf.len())
}

// QueueText 入队文本，每隔 speed 显示一个字符。
func (b *Box) QueueText(body string, speed time.Duration, tag string, front bool) {
	b.Queue(Text{Body: body, Speed: speed, Tag: tag}, front)
}

// QueueSilence 入队一段静默。
func (b *Box) QueueSilence(d time.Duration, tag string, front bool) {
	b.Queue(Silence{Duration: d, Tag: tag}, front)
}

// QueueBreak 入队一次换页，等待确认动作。
func (b *Box) QueueBreak(tag string, front bool) {
	b.Queue(Break{Tag: tag}, front)
}

// QueueClear 入队一次清屏。
func (b *Box) QueueClear(tag string, front bool) {
	b.Queue(Clear{Tag: tag}, front)
}

// Run 开始输出缓冲区。缓冲区清空时 future 完成，缓冲区本来为空则立即完成。
func (b *Box) Run() (*Future, error) {
	if b.runFuture != nil {
		return nil, fmt.Errorf("run: %w", ErrPending)
	}
	if b.buf.len() == 0 {
		return resolvedFuture(), nil
	}
	b.state = Outputting
	b.runFuture = newFuture()
	b.log.Debug("dialogue run", "pending", b.buf.len())
	return b.runFuture, nil
}

// Open 播放显示过渡，future 与 BoxOpened 事件同时完成。
func (b *Box) Open() (*Future, error) {
	if b.opening || b.closing {
		return nil, fmt.Errorf("open: %w", ErrPending)
	}
	if b.open {
		return resolvedFuture(), nil
	}
	b.opening = true
	f := newFuture()
	b.openFuture = f
	b.transition.Show(b.finishOpen)
	return f, nil
}

func (b *Box) finishOpen() {
	if !b.opening {
		return
	}
	b.opening = false
	b.open = true
	b.emit(Event{Kind: BoxOpened})
	if f := b.openFuture; f != nil {
		b.openFuture = nil
		f.resolve()
	}
}

// Close 播放隐藏过渡后重置对话框，future 与 BoxClosed 事件同时完成。
func (b *Box) Close() (*Future, error) {
	if b.closing || b.opening {
		return nil, fmt.Errorf("close: %w", ErrPending)
	}
	if !b.open {
		return resolvedFuture(), nil
	}
	b.closing = true
	f := newFuture()
	b.closeFuture = f
	b.transition.Hide(b.finishClose)
	return f, nil
}

func (b *Box) finishClose() {
	if !b.closing {
		return
	}
	b.closing = false
	b.open = false
	b.Reset()
	b.emit(Event{Kind: BoxClosed})
	if f := b.closeFuture; f != nil {
		b.closeFuture = nil
		f.resolve()
	}
}

// ClearBuffer 丢弃所有已入队的 payload 并回到 Waiting，未完成的 Run future 随之完成。
func (b *Box) ClearBuffer() {
	b.isBreak = false
	b.state = Waiting
	b.buf.clear()
	b.resetLines()
	b.turbo = false
	b.stopTimers()
	b.emit(Event{Kind: BufferCleared})
	b.resolveRun()
}

// ClearText 清空显示区和行宽记录。
func (b *Box) ClearText() {
	b.surface.Clear()
	b.resetLines()
	b.line = 0
	b.pageFull = false
}

// Reset 同时清空显示的文本和缓冲区。
func (b *Box) Reset() {
	b.ClearText()
	b.ClearBuffer()
}

func (b *Box) resetLines() {
	for i := range b.remaining {
		b.remaining[i] = b.width
	}
}

func (b *Box) stopTimers() {
	if b.revealTimer != nil {
		b.revealTimer.Stop()
		b.revealTimer = nil
	}
	if b.silenceTimer != nil {
		b.silenceTimer.Stop()
		b.silenceTimer = nil
	}
	b.isPrinting = false
	b.silenceActive = false
}

func (b *Box) resolveRun() {
	if f := b.runFuture; f != nil {
		b.runFuture = nil
		f.resolve()
	}
}

// SetTurbo 切换快进模式：跳过静默与换页，文本立即全部显示。
func (b *Box) SetTurbo(on bool) { b.turbo = on }

// Turbo 判断是否处于快进模式。
func (b *Box) Turbo() bool { return b.turbo }

// SetConfirmAction 修改确认换页的输入动作。
func (b *Box) SetConfirmAction(action string) { b.confirm = action }

// ConfirmAction 返回确认动作。
func (b *Box) ConfirmAction() string { return b.confirm }

// State 返回当前输出状态。
func (b *Box) State() State { return b.state }

// IsBreak 判断是否停在换页，等待确认。
func (b *Box) IsBreak() bool { return b.isBreak }

// IsPrinting 判断是否正在逐字显示文本。
func (b *Box) IsPrinting() bool { return b.isPrinting }

// SilenceActive 判断是否处于静默。
func (b *Box) SilenceActive() bool { return b.silenceActive }

// BufferEmptied 判断上一次 Run 是否已把缓冲区输出完毕，之后再入队会重置它。
func (b *Box) BufferEmptied() bool { return b.bufferEmptied }

// PageFull 判断本页是否已排满，下一段文本会先清屏。
func (b *Box) PageFull() bool { return b.pageFull }

// IsOpen 判断显示过渡是否已完成且尚未关闭。
func (b *Box) IsOpen() bool { return b.open }

// Line 返回当前排版行的下标，超过 MaxLineIndex 表示本页已满。
func (b *Box) Line() int { return b.line }

// MaxLineIndex 返回一页最后一行的下标。
func (b *Box) MaxLineIndex() int { return b.maxLine }

// Pending 返回缓冲区的副本，下标 0 为队首。
func (b *Box) Pending() []Payload { return b.buf.snapshot() }

// Surface 返回对话框写入的显示区。
func (b *Box) Surface() Surface { return b.surface }

// Width 返回每行的可用宽度。
func (b *Box) Width() float64 { return b.width }

// RemainingWidth 返回当前行剩余的宽度，本页已满时为 0。
func (b *Box) RemainingWidth() float64 {
	if b.line > b.maxLine {
		return 0
	}
	return b.remaining[b.line]
}
