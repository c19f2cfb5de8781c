package dialogue

import "fmt"

// EventKind 标识对话框事件的类型。
type EventKind int

const (
	BoxOpened EventKind = iota
	BoxClosed
	BufferEmptied
	BufferCleared
	BreakEntered
	BreakExited
	TagEncountered
)

func (k EventKind) String() string {
	switch k {
	case BoxOpened:
		return "box_opened"
	case BoxClosed:
		return "box_closed"
	case BufferEmptied:
		return "buffer_emptied"
	case BufferCleared:
		return "buffer_cleared"
	case BreakEntered:
		return "break_entered"
	case BreakExited:
		return "break_exited"
	case TagEncountered:
		return "tag_encountered"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// MarshalText 在 transcript 中以名称输出事件类型。
func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event 由对话框同步发出，触发它的调用返回之前订阅者就已收到。
// 仅 TagEncountered 事件带 Tag。
type Event struct {
	Kind EventKind
	Tag  string
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe 为所有对话框事件注册 fn，返回取消订阅的函数。
// 订阅者按注册顺序执行。
func (b *Box) Subscribe(fn func(Event)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	b.nextSub++
	id := b.nextSub
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.log.Debug("dialogue subscribe", "subs", len(b.subs))
	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Box) emit(ev Event) {
	if ev.Kind == TagEncountered {
		b.log.Debug("dialogue event", "event", ev.Kind.String(), "tag", ev.Tag)
	} else {
		b.log.Debug("dialogue event", "event", ev.Kind.String())
	}
	for _, s := range b.subs {
		s.fn(ev)
	}
}

func (b *Box) emitTag(p Payload) {
	if tag := p.PayloadTag(); tag != "" {
		b.emit(Event{Kind: TagEncountered, Tag: tag})
	}
}
