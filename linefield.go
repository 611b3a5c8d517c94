package overlay

import (
	"image"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

// LineField is the scene's grid of parallel lines covering the work area.
// It has no hit area and receives events after every other object.
type LineField struct {
	ObjectBase
	Style LineStyle

	segs   []Segment
	raster *image.RGBA
}

// NewLineField creates a line field with the given style.
func NewLineField(st LineStyle) *LineField {
	return &LineField{
		ObjectBase: newObjectBase(uuid.Nil, Vec2{}, 1, 0, 1),
		Style:      st.sanitize(),
	}
}

// Kind returns KindLineField.
func (l *LineField) Kind() ObjectKind { return KindLineField }

// Valid reports whether the field has not been deleted.
func (l *LineField) Valid() bool { return !l.deleted }

// HitTest always reports false; the field is never picked.
func (l *LineField) HitTest(Vec2) bool { return false }

// colorKeys maps the recolor shortcuts to colors.
var colorKeys = map[ebiten.Key]Color{
	ebiten.KeyR: RGB(255, 0, 0),
	ebiten.KeyG: RGB(0, 255, 0),
	ebiten.KeyB: RGB(0, 0, 255),
	ebiten.KeyK: RGB(0, 0, 0),
	ebiten.KeyS: RGB(0, 0, 0),
	ebiten.KeyW: RGB(255, 255, 255),
}

var widthKeys = map[ebiten.Key]int{
	ebiten.Key0: 0, ebiten.Key1: 1, ebiten.Key2: 2,
	ebiten.Key3: 3, ebiten.Key4: 4, ebiten.Key5: 5,
	ebiten.KeyNumpad0: 0, ebiten.KeyNumpad1: 1, ebiten.KeyNumpad2: 2,
	ebiten.KeyNumpad3: 3, ebiten.KeyNumpad4: 4, ebiten.KeyNumpad5: 5,
}

func (l *LineField) handleEvent(s *Scene, _ Handle, ev Event) bool {
	if ev.Type != EventKeyDown || ev.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0 {
		return false
	}
	st := l.Style
	if w, ok := widthKeys[ev.Key]; ok {
		st.Width = w
	} else if c, ok := colorKeys[ev.Key]; ok {
		st.Color = c
	} else {
		switch ev.Key {
		case ebiten.KeyD:
			st.Dashed = !st.Dashed
		case ebiten.KeyUp:
			st.Spacing++
		case ebiten.KeyDown:
			st.Spacing--
		case ebiten.KeyBracketLeft:
			st.Angle -= rotateStep
		case ebiten.KeyBracketRight:
			st.Angle += rotateStep
		case ebiten.KeyMinus:
			st.DashLength--
		case ebiten.KeyEqual:
			st.DashLength++
		default:
			return false
		}
	}
	l.Style = st.sanitize()
	s.markDirty()
	return true
}

// visible reports whether the field draws anything this frame. Lines are
// skipped while an object is being dragged.
func (l *LineField) visible(s *Scene) bool {
	return l.Valid() && !s.hidden && l.Style.Width > 0 && s.capture == NoHandle &&
		!s.workArea.Empty()
}

func (l *LineField) emit(s *Scene, _ Handle) {
	if !l.visible(s) {
		return
	}
	area := s.workArea
	st := l.Style
	l.segs = appendLineSegments(l.segs[:0], area, st.Angle, st.Spacing)
	col := st.Color
	col.A = s.globalAlpha

	if !st.rastered() {
		for start := 0; start < len(l.segs); start += maxQuadsPerBatch {
			end := min(start+maxQuadsPerBatch, len(l.segs))
			verts, inds := appendLineQuads(nil, nil, l.segs[start:end], Vec2{}, float64(st.Width), col, 1)
			s.commands = append(s.commands, RenderCommand{
				Type:      CommandMesh,
				Transform: identityTransform,
				meshVerts: verts,
				meshInds:  inds,
			})
		}
		return
	}

	w, h := int(area.Width), int(area.Height)
	if w <= 0 || h <= 0 {
		return
	}
	if l.raster == nil || l.raster.Rect.Dx() != w || l.raster.Rect.Dy() != h {
		l.raster = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		clear(l.raster.Pix)
	}
	rasterizeLines(l.raster, l.segs, Vec2{area.X, area.Y}, st, col.toRGBA(), s.jitterRand())
	s.commands = append(s.commands, RenderCommand{
		Type:      CommandSprite,
		Transform: [6]float64{1, 0, 0, 1, area.X, area.Y},
		Width:     float64(w),
		Height:    float64(h),
		Color:     ColorWhite,
		source:    l.raster,
		version:   s.nextVersion(),
	})
}

func (l *LineField) descriptor() Descriptor {
	st := l.Style
	return Descriptor{
		Type:       KindLineField.String(),
		ID:         l.ID.String(),
		LineWidth:  intPtr(st.Width),
		LineColor:  st.Color.Hex(),
		LineDashed: boolPtr(st.Dashed),
		DashLength: intPtr(st.DashLength),
		DashGap:    intPtr(st.DashGap),
		Angle:      floatPtr(roundTo(st.Angle, 4)),
		Spacing:    floatPtr(roundTo(st.Spacing, 4)),
	}
}
