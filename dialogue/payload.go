package dialogue

import (
	"fmt"
	"time"
)

// Kind 标识 payload 的种类。
type Kind int

const (
	KindText Kind = iota
	KindSilence
	KindBreak
	KindClear
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSilence:
		return "silence"
	case KindBreak:
		return "break"
	case KindClear:
		return "clear"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Payload 是缓冲区中的一条指令，只有 Text、Silence、Break、Clear 四种实现。
type Payload interface {
	Kind() Kind
	PayloadTag() string
	payload()
}

// Text 每隔 Speed 显示 Body 的一个字符，Speed 为 0 时立即全部显示。
type Text struct {
	Body  string
	Speed time.Duration
	Tag   string
}

// Silence 暂停输出 Duration。
type Silence struct {
	Duration time.Duration
	Tag      string
}

// Break 暂停输出，直到玩家确认。
type Break struct {
	Tag string
}

// Clear 清空已显示的文本。
type Clear struct {
	Tag string
}

func (Text) Kind() Kind    { return KindText }
func (Silence) Kind() Kind { return KindSilence }
func (Break) Kind() Kind   { return KindBreak }
func (Clear) Kind() Kind   { return KindClear }

func (p Text) PayloadTag() string    { return p.Tag }
func (p Silence) PayloadTag() string { return p.Tag }
func (p Break) PayloadTag() string   { return p.Tag }
func (p Clear) PayloadTag() string   { return p.Tag }

func (Text) payload()    {}
func (Silence) payload() {}
func (Break) payload()   {}
func (Clear) payload()   {}

// queue 是有序的 payload 缓冲区，从队首开始消费。
type queue struct {
	items []Payload
}

func (q *queue) len() int { return len(q.items) }

func (q *queue) head() (Payload, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

func (q *queue) push(p Payload, front bool) {
	if front {
		q.items = append(q.items, nil)
		copy(q.items[1:], q.items)
		q.items[0] = p
		return
	}
	q.items = append(q.items, p)
}

// insertAfterHead 把 ps 插到正在输出的 payload 之后，排在其余已入队内容之前。
func (q *queue) insertAfterHead(ps ...Payload) {
	if len(q.items) == 0 {
		q.items = append(q.items, ps...)
		return
	}
	rest := append([]Payload(nil), q.items[1:]...)
	q.items = append(append(q.items[:1], ps...), rest...)
}

// popFront 移除当前队首，它不一定是调用方开始处理的那条 payload。
func (q *queue) popFront() (Payload, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	p := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return p, true
}

func (q *queue) clear() {
	clear(q.items)
	q.items = q.items[:0]
}

func (q *queue) snapshot() []Payload {
	return append([]Payload(nil), q.items...)
}
