package overlay

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// --- Dispatch ---

// Dispatch routes ev to the scene's objects and reports whether one of them
// consumed it.
//
// While an object holds capture, pointer motion and release go to it first.
// Otherwise objects are tried in list order and the line field last; the
// first handler that returns true stops propagation. Events no object
// consumed fall through to the scene-wide shortcuts.
func (s *Scene) Dispatch(ev Event) bool {
	consumed := false
	if ev.Type == EventPointerMove || ev.Type == EventPointerUp {
		if c := s.captured(); c != nil {
			consumed = c.handleEvent(s, s.capture, ev)
		}
	}
	if !consumed {
		for i, o := range s.objects {
			if o == Object(s.lines) || !o.Valid() {
				continue
			}
			if o.handleEvent(s, Handle(i), ev) {
				consumed = true
				break
			}
		}
	}
	if !consumed && s.lines.Valid() {
		consumed = s.lines.handleEvent(s, s.handleOf(s.lines), ev)
	}
	if !consumed {
		s.handleGlobal(ev)
	}
	return consumed
}

// handleGlobal applies the scene-wide shortcuts.
func (s *Scene) handleGlobal(ev Event) {
	switch ev.Type {
	case EventQuit:
		s.quit = true

	case EventFocusLost:
		s.releaseCapture()
		s.markRedraw()

	case EventFocusGained:
		s.markRedraw()

	case EventWheel:
		if !s.layoutMode || ev.WheelY == 0 {
			return
		}
		if ev.WheelY < 0 {
			s.SetGlobalAlpha(s.globalAlpha - alphaWheelStep)
		} else {
			s.SetGlobalAlpha(s.globalAlpha + alphaWheelStep)
		}

	case EventPointerMove:
		if s.layoutMode {
			s.setCursor(ebiten.CursorShapeDefault)
		}

	case EventKeyDown:
		if ev.Modifiers&ModCtrl != 0 {
			if !s.layoutMode {
				return
			}
			switch ev.Key {
			case ebiten.KeyO:
				s.openRequest = true
			case ebiten.KeyV:
				s.pasteRequest = true
			}
			return
		}
		switch ev.Key {
		case ebiten.KeyX:
			s.quit = true
		case ebiten.KeyArrowLeft:
			s.SetGlobalAlpha(s.globalAlpha - alphaKeyStep)
		case ebiten.KeyArrowRight:
			s.SetGlobalAlpha(s.globalAlpha + alphaKeyStep)
		case ebiten.KeyH:
			s.SetHidden(!s.hidden)
		case ebiten.KeySpace, ebiten.KeyEnter, ebiten.KeyNumpadEnter:
			s.SetLayoutMode(!s.layoutMode)
		}
	}
}

// --- Event queue ---

// EventQueue buffers input events between host polls. Consecutive pointer
// motion events collapse into the latest one so a slow frame never replays
// a backlog of stale positions. Motion is never merged across a different
// event, which keeps press, move and release in order.
type EventQueue struct {
	events []Event
}

// Push appends ev, replacing a trailing motion event when ev is motion too.
func (q *EventQueue) Push(ev Event) {
	if n := len(q.events); n > 0 && ev.Type == EventPointerMove && q.events[n-1].Type == EventPointerMove {
		q.events[n-1] = ev
		return
	}
	q.events = append(q.events, ev)
}

// Pop removes and returns the oldest event.
func (q *EventQueue) Pop() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	ev := q.events[0]
	copy(q.events, q.events[1:])
	q.events = q.events[:len(q.events)-1]
	return ev, true
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int { return len(q.events) }

// Drain dispatches every queued event to s in order and returns how many
// were consumed by objects.
func (q *EventQueue) Drain(s *Scene) int {
	n := 0
	for {
		ev, ok := q.Pop()
		if !ok {
			return n
		}
		if s.Dispatch(ev) {
			n++
		}
	}
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) || ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) || ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) || ebiten.IsKeyPressed(ebiten.KeyMetaLeft) || ebiten.IsKeyPressed(ebiten.KeyMetaRight) {
		mods |= ModMeta
	}
	return mods
}
