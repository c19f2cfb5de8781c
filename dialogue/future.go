package dialogue

import (
	"context"
	"sync"
)

// Future 在返回它的对话框操作结束时完成，且只完成一次。
// 任意 goroutine 都可以等待 Done。
type Future struct {
	done chan struct{}
	once sync.Once
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func resolvedFuture() *Future {
	f := newFuture()
	f.resolve()
	return f
}

// Done 在 future 完成时关闭。
func (f *Future) Done() <-chan struct{} { return f.done }

// Resolved 判断 future 是否已完成。
func (f *Future) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait 阻塞直到 future 完成或 ctx 结束。
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Future) resolve() {
	f.once.Do(func() { close(f.done) })
}
