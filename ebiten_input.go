package overlay

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var polledButtons = [...]struct {
	eb ebiten.MouseButton
	mb MouseButton
}{
	{ebiten.MouseButtonLeft, MouseButtonLeft},
	{ebiten.MouseButtonRight, MouseButtonRight},
	{ebiten.MouseButtonMiddle, MouseButtonMiddle},
}

// ebitenPoller converts Ebitengine's per-frame input state into Events.
type ebitenPoller struct {
	started bool
	lastX   int
	lastY   int
	focused bool
	keys    []ebiten.Key
}

// poll queues the events that happened since the previous frame.
func (p *ebitenPoller) poll(q *EventQueue) {
	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	mods := readModifiers()

	focused := ebiten.IsFocused()
	if !p.started {
		p.started = true
		p.focused = focused
		p.lastX, p.lastY = mx, my
	}
	if focused != p.focused {
		p.focused = focused
		if focused {
			q.Push(Event{Type: EventFocusGained, X: x, Y: y})
		} else {
			q.Push(Event{Type: EventFocusLost, X: x, Y: y})
		}
	}

	if mx != p.lastX || my != p.lastY {
		p.lastX, p.lastY = mx, my
		q.Push(Event{Type: EventPointerMove, X: x, Y: y, Modifiers: mods})
	}

	for _, b := range polledButtons {
		if inpututil.IsMouseButtonJustPressed(b.eb) {
			q.Push(Event{Type: EventPointerDown, X: x, Y: y, Button: b.mb, Modifiers: mods})
		}
		if inpututil.IsMouseButtonJustReleased(b.eb) {
			q.Push(Event{Type: EventPointerUp, X: x, Y: y, Button: b.mb, Modifiers: mods})
		}
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		q.Push(Event{Type: EventWheel, X: x, Y: y, WheelY: wy, Modifiers: mods})
	}

	p.keys = inpututil.AppendJustPressedKeys(p.keys[:0])
	for _, k := range p.keys {
		q.Push(Event{Type: EventKeyDown, X: x, Y: y, Key: k, Modifiers: mods})
	}

	if ebiten.IsWindowBeingClosed() {
		q.Push(Event{Type: EventQuit, X: x, Y: y})
	}
}

// ebitenWindow applies scene requests to the Ebitengine window.
type ebitenWindow struct{}

// SetClickThrough lets pointer input reach the desktop below the overlay.
func (ebitenWindow) SetClickThrough(enabled bool) {
	ebiten.SetWindowMousePassthrough(enabled)
}
