package overlay

import (
	"context"
	"time"
)

// InputSource delivers input events to a Loop.
type InputSource interface {
	// WaitEvent blocks until an event arrives, the timeout elapses or ctx is
	// done. A negative timeout waits without limit; zero polls.
	WaitEvent(ctx context.Context, timeout time.Duration) (Event, bool)
	// Poll returns a queued event without blocking.
	Poll() (Event, bool)
}

// Presenter draws the scene when it needs a redraw.
type Presenter interface {
	Present(s *Scene)
}

// Loop drives a Scene from an InputSource on the calling goroutine: redraw
// when needed, tick, then block for input no longer than the tick asked.
// Without a Presenter redraw requests are simply acknowledged.
type Loop struct {
	Scene     *Scene
	Input     InputSource
	Presenter Presenter
	Now       func() time.Time

	queue EventQueue
}

// Run loops until the scene asks to quit or ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	now := l.Now
	if now == nil {
		now = time.Now
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.Scene.QuitRequested() {
			return nil
		}
		if l.Scene.NeedsRedraw() {
			if l.Presenter != nil {
				l.Presenter.Present(l.Scene)
			}
			l.Scene.needsRedraw = false
		}
		timeout := l.Scene.Tick(now())

		ev, ok := l.Input.WaitEvent(ctx, timeout)
		if !ok {
			continue
		}
		l.queue.Push(ev)
		for ev.Type != EventQuit {
			if ev, ok = l.Input.Poll(); !ok {
				break
			}
			l.queue.Push(ev)
		}
		l.queue.Drain(l.Scene)
	}
}

// ChanInput is an InputSource fed through a channel.
type ChanInput chan Event

// WaitEvent implements InputSource.
func (c ChanInput) WaitEvent(ctx context.Context, timeout time.Duration) (Event, bool) {
	if timeout == 0 {
		return c.Poll()
	}
	var expire <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expire = t.C
	}
	select {
	case ev, ok := <-c:
		return closedAsQuit(ev, ok), true
	case <-expire:
		return Event{}, false
	case <-ctx.Done():
		return Event{}, false
	}
}

// Poll implements InputSource.
func (c ChanInput) Poll() (Event, bool) {
	select {
	case ev, ok := <-c:
		return closedAsQuit(ev, ok), true
	default:
		return Event{}, false
	}
}

// closedAsQuit turns the zero value received from a closed channel into a
// quit request.
func closedAsQuit(ev Event, ok bool) Event {
	if !ok {
		return Event{Type: EventQuit}
	}
	return ev
}
