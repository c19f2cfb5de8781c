package dialogue

import "fmt"

// Process 从缓冲区队首输出 payload，每个物理帧调用一次。
// 对话框关闭、正在逐字显示、停在换页或处于静默时不做任何事；
// 否则持续分派，直到某条 payload 需要等待或缓冲区清空。
func (b *Box) Process() error {
	if !b.open || b.isPrinting || b.isBreak || b.silenceActive {
		return nil
	}
	for b.state == Outputting {
		head, ok := b.buf.head()
		if !ok {
			b.drained()
			return nil
		}
		wait, err := b.dispatch(head)
		if err != nil {
			return err
		}
		if wait {
			return nil
		}
	}
	return nil
}

// Update 检查确认动作，每帧调用一次。
func (b *Box) Update() {
	if b.input == nil || !b.input.IsActionJustPressed(b.confirm) {
		return
	}
	if b.state == Outputting && b.isBreak {
		b.buf.popFront()
		b.isBreak = false
		b.emit(Event{Kind: BreakExited})
	}
	if b.open && b.bufferEmptied && !b.closing {
		if _, err := b.Close(); err != nil {
			b.log.Warn("dialogue close on confirm", "err", err)
		}
	}
}

func (b *Box) drained() {
	b.state = Waiting
	b.bufferEmptied = true
	b.emit(Event{Kind: BufferEmptied})
	b.resolveRun()
}

// dispatch 处理队首 payload，返回是否需要等待。
func (b *Box) dispatch(p Payload) (bool, error) {
	b.log.Debug("dialogue dispatch", "kind", p.Kind().String(), "tag", p.PayloadTag(), "line", b.line)
	switch p := p.(type) {
	case Text:
		return b.dispatchText(p)
	case Break:
		b.emitTag(p)
		if b.turbo {
			b.buf.popFront()
			return false, nil
		}
		b.isBreak = true
		b.emit(Event{Kind: BreakEntered})
		return true, nil
	case Silence:
		b.emitTag(p)
		if b.turbo {
			b.buf.popFront()
			return false, nil
		}
		b.silenceActive = true
		b.silenceTimer = b.scheduler.AfterFunc(p.Duration, b.endSilence)
		return true, nil
	case Clear:
		b.emitTag(p)
		b.ClearText()
		b.buf.popFront()
		return false, nil
	default:
		return false, fmt.Errorf("dialogue: unknown payload %T", p)
	}
}

func (b *Box) dispatchText(p Text) (bool, error) {
	if b.pageFull {
		b.ClearText()
	}
	b.emitTag(p)
	speed := p.Speed
	if b.turbo {
		speed = 0
	}
	if speed <= 0 {
		if _, err := b.packAndAppend(p.Body, p.Speed); err != nil {
			return false, fmt.Errorf("dialogue: text %q: %w", p.Body, err)
		}
		b.surface.SetVisibleCharacters(-1)
		b.buf.popFront()
		return false, nil
	}

	prior := b.surface.TotalCharacters()
	appended, err := b.packAndAppend(p.Body, p.Speed)
	if err != nil {
		return false, fmt.Errorf("dialogue: text %q: %w", p.Body, err)
	}
	if !appended {
		b.buf.popFront()
		return false, nil
	}
	b.surface.SetVisibleCharacters(prior)
	b.isPrinting = true
	b.revealSpeed = speed
	b.revealTimer = b.scheduler.AfterFunc(speed, b.revealNext)
	return true, nil
}

// revealNext 多显示一个字符；全部可见后弹出缓冲区当前的队首。
func (b *Box) revealNext() {
	if !b.isPrinting {
		return
	}
	if b.turbo {
		b.surface.SetVisibleCharacters(-1)
	} else {
		b.surface.SetVisibleCharacters(b.surface.VisibleCharacters() + 1)
	}
	b.log.Trace("dialogue reveal", "visible", b.surface.VisibleCharacters(), "total", b.surface.TotalCharacters())
	if b.surface.PercentVisible() >= 1 {
		b.buf.popFront()
		b.isPrinting = false
		b.revealTimer = nil
		return
	}
	b.revealTimer = b.scheduler.AfterFunc(b.revealSpeed, b.revealNext)
}

// endSilence 弹出缓冲区队首。静默期间若有 payload 插到队首，弹出的就是那一条。
func (b *Box) endSilence() {
	if !b.silenceActive {
		return
	}
	b.buf.popFront()
	b.silenceActive = false
	b.silenceTimer = nil
}
