package overlay

import "github.com/hajimehoshi/ebiten/v2"

// InjectPress queues a left-button press at (x, y).
func (q *EventQueue) InjectPress(x, y float64) {
	q.Push(Event{Type: EventPointerDown, X: x, Y: y, Button: MouseButtonLeft})
}

// InjectMove queues pointer motion to (x, y).
func (q *EventQueue) InjectMove(x, y float64) {
	q.Push(Event{Type: EventPointerMove, X: x, Y: y})
}

// InjectRelease queues a left-button release at (x, y).
func (q *EventQueue) InjectRelease(x, y float64) {
	q.Push(Event{Type: EventPointerUp, X: x, Y: y, Button: MouseButtonLeft})
}

// InjectClick is a convenience that queues a press followed by a release
// at the same point.
func (q *EventQueue) InjectClick(x, y float64) {
	q.InjectPress(x, y)
	q.InjectRelease(x, y)
}

// InjectDrag queues a press at (fromX, fromY), steps-1 linearly
// interpolated moves and a release at (toX, toY). Moves queued back to
// back coalesce, so only the last one is delivered unless the queue is
// drained in between; the committed position is the same either way.
func (q *EventQueue) InjectDrag(fromX, fromY, toX, toY float64, steps int) {
	q.InjectPress(fromX, fromY)
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		q.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	q.InjectRelease(toX, toY)
}

// InjectWheel queues a wheel turn of notches at (x, y).
func (q *EventQueue) InjectWheel(x, y, notches float64, mods KeyModifiers) {
	q.Push(Event{Type: EventWheel, X: x, Y: y, WheelY: notches, Modifiers: mods})
}

// InjectKey queues a key press with the pointer at (x, y).
func (q *EventQueue) InjectKey(x, y float64, key ebiten.Key, mods KeyModifiers) {
	q.Push(Event{Type: EventKeyDown, X: x, Y: y, Key: key, Modifiers: mods})
}
