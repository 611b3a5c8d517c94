package overlay

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(q *EventQueue) []Event {
	var out []Event
	for {
		ev, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func TestEventQueueCoalescesMotion(t *testing.T) {
	var q EventQueue
	q.Push(move(1, 1))
	q.Push(move(2, 2))
	q.Push(move(3, 3))
	require.Equal(t, 1, q.Len())
	ev, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, Vec2{3, 3}, ev.Point())
}

func TestEventQueueKeepsOrderAcrossOtherEvents(t *testing.T) {
	var q EventQueue
	q.Push(move(1, 1))
	q.Push(down(1, 1))
	q.Push(move(2, 2))
	q.Push(move(3, 3))
	q.Push(up(3, 3))
	q.Push(move(4, 4))

	got := drain(&q)
	require.Len(t, got, 5)
	assert.Equal(t, EventPointerMove, got[0].Type)
	assert.Equal(t, EventPointerDown, got[1].Type)
	assert.Equal(t, Vec2{3, 3}, got[2].Point())
	assert.Equal(t, EventPointerUp, got[3].Type)
	assert.Equal(t, Vec2{4, 4}, got[4].Point())
}

func TestEventQueueNeverMergesOtherTypes(t *testing.T) {
	var q EventQueue
	q.Push(wheel(0, 0, 1, 0))
	q.Push(wheel(0, 0, 1, 0))
	q.Push(key(0, 0, ebiten.KeyA))
	q.Push(key(0, 0, ebiten.KeyA))
	assert.Equal(t, 4, q.Len())
}

func TestEventQueuePopEmpty(t *testing.T) {
	var q EventQueue
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestEventQueueDrain(t *testing.T) {
	s, l := newLabelScene(t)
	var q EventQueue
	q.InjectDrag(100, 100, 140, 120, 10)
	q.Push(key(0, 0, ebiten.KeyArrowLeft)) // consumed by nobody

	assert.Equal(t, 3, q.Drain(s), "press, coalesced move and release")
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, Vec2{140, 120}, l.Position)
	assert.Less(t, s.GlobalAlpha(), 1.0)
}

// --- Injection ---

func TestInjectClick(t *testing.T) {
	var q EventQueue
	q.InjectClick(5, 6)
	got := drain(&q)
	require.Len(t, got, 2)
	assert.Equal(t, EventPointerDown, got[0].Type)
	assert.Equal(t, EventPointerUp, got[1].Type)
	assert.Equal(t, MouseButtonLeft, got[1].Button)
	assert.Equal(t, Vec2{5, 6}, got[1].Point())
}

func TestInjectDragInterpolates(t *testing.T) {
	var q EventQueue
	q.InjectDrag(0, 0, 100, 50, 4)
	// Press, one coalesced move (the last interpolated point) and release.
	got := drain(&q)
	require.Len(t, got, 3)
	assert.Equal(t, Vec2{0, 0}, got[0].Point())
	assert.Equal(t, Vec2{75, 37.5}, got[1].Point())
	assert.Equal(t, Vec2{100, 50}, got[2].Point())
}

func TestInjectDragSingleStep(t *testing.T) {
	var q EventQueue
	q.InjectDrag(0, 0, 10, 10, 1)
	got := drain(&q)
	require.Len(t, got, 2)
	assert.Equal(t, EventPointerDown, got[0].Type)
	assert.Equal(t, EventPointerUp, got[1].Type)
}

func TestInjectWheelAndKey(t *testing.T) {
	var q EventQueue
	q.InjectWheel(1, 2, -3, ModShift)
	q.InjectKey(3, 4, ebiten.KeyDelete, ModCtrl)
	got := drain(&q)
	require.Len(t, got, 2)
	assert.Equal(t, -3.0, got[0].WheelY)
	assert.Equal(t, ModShift, got[0].Modifiers)
	assert.Equal(t, ebiten.KeyDelete, got[1].Key)
	assert.Equal(t, ModCtrl, got[1].Modifiers)
	assert.Equal(t, Vec2{3, 4}, got[1].Point())
}
