package overlay

import (
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

// StaticImage is a decoded picture. Hit testing is pixel accurate: a point
// only hits where the source pixel is sufficiently opaque.
type StaticImage struct {
	ObjectBase
	SourceName     string // file name as persisted
	SourcePath     string // resolved path the pixels were read from
	FlipHorizontal bool

	pix     *image.RGBA
	version uint64
}

// NewStaticImage creates an undecoded image object for path.
func NewStaticImage(id uuid.UUID, pos Vec2, path string) *StaticImage {
	return &StaticImage{
		ObjectBase: newObjectBase(id, pos, 1, 0, 1),
		SourceName: baseName(path),
		SourcePath: path,
	}
}

// Kind returns KindImage.
func (m *StaticImage) Kind() ObjectKind { return KindImage }

// Valid reports whether the image decoded and has not been deleted.
func (m *StaticImage) Valid() bool { return !m.deleted && m.err == nil && m.pix != nil }

// Pixels returns the decoded image, or nil before loading.
func (m *StaticImage) Pixels() *image.RGBA { return m.pix }

// HitTest reports whether p lands on a pixel with alpha above 50.
func (m *StaticImage) HitTest(p Vec2) bool {
	if !m.Valid() {
		return false
	}
	w, h := m.size()
	lx, ly, ok := localPoint(&m.ObjectBase, w, h, p)
	if !ok {
		return false
	}
	x, y := int(lx), int(ly)
	x = min(x, m.pix.Rect.Dx()-1)
	y = min(y, m.pix.Rect.Dy()-1)
	if m.FlipHorizontal {
		x = m.pix.Rect.Dx() - x - 1
	}
	b := m.pix.Rect.Min
	return m.pix.RGBAAt(b.X+x, b.Y+y).A > hitAlphaMin
}

func (m *StaticImage) size() (float64, float64) {
	if m.pix == nil {
		return 0, 0
	}
	return float64(m.pix.Rect.Dx()), float64(m.pix.Rect.Dy())
}

func (m *StaticImage) load(dec Decoder) error {
	pix, err := dec.DecodeImage(m.SourcePath)
	if err != nil {
		m.err = fmt.Errorf("overlay: image %s: %w", m.SourcePath, err)
		return m.err
	}
	m.pix = pix
	m.err = nil
	m.version++
	return nil
}

func (m *StaticImage) handleEvent(s *Scene, self Handle, ev Event) bool {
	return handleObjectEvent(s, self, m, ev)
}

func (m *StaticImage) handleKey(s *Scene, _ Handle, ev Event) bool {
	if ev.Key != ebiten.KeyF || ev.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0 {
		return false
	}
	m.FlipHorizontal = !m.FlipHorizontal
	s.markDirty()
	return true
}

func (m *StaticImage) emit(s *Scene, self Handle) {
	if !m.Valid() {
		return
	}
	m.emitSource(s, self, m.pix, m.version)
}

// emitSource appends a sprite command drawing src with the image transform.
func (m *StaticImage) emitSource(s *Scene, self Handle, src *image.RGBA, version uint64) {
	w, h := float64(src.Rect.Dx()), float64(src.Rect.Dy())
	s.commands = append(s.commands, RenderCommand{
		Type:      CommandSprite,
		Transform: transformAt(&m.ObjectBase, s.drawPosition(self, &m.ObjectBase), w, h),
		Width:     w,
		Height:    h,
		Flip:      m.FlipHorizontal,
		Color:     Color{1, 1, 1, blendedAlpha(m.Alpha, s.globalAlpha)},
		source:    src,
		version:   version,
	})
}

func (m *StaticImage) descriptor() Descriptor {
	d := baseDescriptor(KindImage, &m.ObjectBase)
	d.ImageName = m.SourceName
	d.ImagePath = m.SourcePath
	d.Flip = m.FlipHorizontal
	return d
}
