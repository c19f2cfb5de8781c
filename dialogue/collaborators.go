package dialogue

import "time"

// Surface 是对话框写入的 markup 文本显示区。
type Surface interface {
	AppendMarkup(text string)
	// SetVisibleCharacters 限制可见字符数，-1 表示全部可见。
	SetVisibleCharacters(n int)
	VisibleCharacters() int
	TotalCharacters() int
	PercentVisible() float64
	Clear()
	Size() (width, height float64)
}

// Scheduler 启动一次性定时器，回调与对话框在同一线程执行。
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer 是待执行回调的句柄。
type Timer interface {
	Active() bool
	// Stop 取消回调，返回回调当时是否仍未执行。
	Stop() bool
}

// Input 报告自上一帧以来玩家触发的动作。
type Input interface {
	IsActionJustPressed(action string) bool
}

// Transition 播放对话框的显示与隐藏效果，结束后调用 done。
type Transition interface {
	Show(done func())
	Hide(done func())
}

// InstantTransition 立即完成显示与隐藏。
type InstantTransition struct{}

func (InstantTransition) Show(done func()) { done() }
func (InstantTransition) Hide(done func()) { done() }
