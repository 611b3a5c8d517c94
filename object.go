package overlay

import (
	"math"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

// Interaction steps applied by the shared object handlers.
const (
	rotateStep  = 5.0       // degrees per wheel notch
	scaleStep   = 1.1       // factor per wheel notch
	alphaStep   = 5.0 / 255 // object alpha per wheel notch
	hitAlphaMin = 50        // minimum source alpha for a pixel hit
	minObjScale = 1e-4
)

// Object is one element of a Scene. The set of implementations is closed:
// *LineField, *Label, *StaticImage and *AnimatedImage.
type Object interface {
	// Kind identifies the variant.
	Kind() ObjectKind
	// Base returns the shared transform state.
	Base() *ObjectBase
	// Valid reports whether the object initialized successfully and has not
	// been deleted. Invalid objects are skipped by hit-testing, drawing and
	// persistence.
	Valid() bool
	// HitTest reports whether the world point p lies on the object.
	HitTest(p Vec2) bool

	handleEvent(s *Scene, self Handle, ev Event) bool
	emit(s *Scene, self Handle)
	descriptor() Descriptor
}

// ObjectBase holds the state every object shares. Position is the centre of
// the object in work-area coordinates, Rotation is in degrees and Alpha in
// [0, 1].
type ObjectBase struct {
	ID       uuid.UUID
	Position Vec2
	Scale    float64
	Rotation float64
	Alpha    float64

	deleted bool
	err     error
}

func newObjectBase(id uuid.UUID, pos Vec2, scale, rotation, alpha float64) ObjectBase {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		scale = 1
	}
	if math.IsNaN(rotation) || math.IsInf(rotation, 0) {
		rotation = 0
	}
	return ObjectBase{ID: id, Position: pos, Scale: scale, Rotation: rotation, Alpha: clamp01(alpha)}
}

// Base returns b itself so embedding types satisfy Object.
func (b *ObjectBase) Base() *ObjectBase { return b }

// Deleted reports whether the object was logically deleted.
func (b *ObjectBase) Deleted() bool { return b.deleted }

// Err returns the initialization error that made the object invalid, if any.
func (b *ObjectBase) Err() error { return b.err }

// --- Shared behaviour of the positioned objects ---

// bitmapObject is implemented by the objects drawn from a bitmap.
type bitmapObject interface {
	Object
	size() (w, h float64)
	handleKey(s *Scene, self Handle, ev Event) bool
}

// transformAt returns the bitmap-to-world matrix with the object centred at pos.
func transformAt(b *ObjectBase, pos Vec2, w, h float64) [6]float64 {
	return objectTransform(pos, b.Scale, b.Rotation, w, h)
}

// localPoint maps a world point into the object's bitmap coordinates.
// ok is false outside the w×h bitmap or for a degenerate transform.
func localPoint(b *ObjectBase, w, h float64, p Vec2) (lx, ly float64, ok bool) {
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	lx, ly, ok = worldToLocal(transformAt(b, b.Position, w, h), p)
	if !ok {
		return 0, 0, false
	}
	return lx, ly, lx >= 0 && lx <= w && ly >= 0 && ly <= h
}

// rectHit is the rectangle hit test of labels and animations.
func rectHit(o bitmapObject, p Vec2) bool {
	if !o.Valid() {
		return false
	}
	w, h := o.size()
	_, _, ok := localPoint(o.Base(), w, h, p)
	return ok
}

// handleObjectEvent implements wheel, drag, hover and delete handling for the
// positioned objects. It only acts in layout mode.
func handleObjectEvent(s *Scene, self Handle, o bitmapObject, ev Event) bool {
	if !s.layoutMode || !o.Valid() {
		return false
	}
	b := o.Base()
	pt := ev.Point()

	switch ev.Type {
	case EventWheel:
		if ev.WheelY == 0 || !o.HitTest(pt) {
			return false
		}
		switch {
		case ev.Modifiers&ModCtrl != 0:
			step := rotateStep
			if ev.WheelY < 0 {
				step = -rotateStep
			}
			b.Position = RotatePoint(b.Position, pt, step)
			b.Rotation += step
		case ev.Modifiers&ModShift != 0:
			f := math.Pow(scaleStep, ev.WheelY)
			b.Scale = math.Max(b.Scale*f, minObjScale)
			b.Position.X += (b.Position.X - pt.X) * (f - 1)
			b.Position.Y += (b.Position.Y - pt.Y) * (f - 1)
		default:
			if ev.WheelY < 0 {
				b.Alpha = clamp01(b.Alpha - alphaStep)
			} else {
				b.Alpha = clamp01(b.Alpha + alphaStep)
			}
		}
		s.markDirty()
		return true

	case EventPointerDown:
		if ev.Button != MouseButtonLeft || s.capture != NoHandle || !o.HitTest(pt) {
			return false
		}
		s.beginCapture(self, pt, b.Position)
		return true

	case EventPointerUp:
		if ev.Button != MouseButtonLeft || s.capture != self {
			return false
		}
		s.dragOrigin = pt
		b.Position = s.dragOrigin.Sub(s.dragOffset)
		s.releaseCapture()
		s.markDirty()
		return true

	case EventPointerMove:
		if s.capture == self {
			s.dragOrigin = pt
			s.markRedraw()
			return true
		}
		if s.capture == NoHandle && o.HitTest(pt) {
			s.setCursor(ebiten.CursorShapePointer)
			return true
		}
		return false

	case EventKeyDown:
		if !o.HitTest(pt) {
			return false
		}
		if ev.Key == ebiten.KeyDelete {
			s.deleteObject(self)
			return true
		}
		return o.handleKey(s, self, ev)
	}
	return false
}

// drawPosition is where an object is rendered: its committed position, or
// the transient drag position while it holds capture.
func (s *Scene) drawPosition(self Handle, b *ObjectBase) Vec2 {
	if s.capture == self {
		return s.dragOrigin.Sub(s.dragOffset)
	}
	return b.Position
}

// blendedAlpha combines an object's own alpha with the scene alpha.
func blendedAlpha(obj, global float64) float64 {
	return math.Min(1, obj*0.5+global*0.8+0.1)
}
