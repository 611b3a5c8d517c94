package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/google/uuid"
)

// Label defaults.
const (
	DefaultFontName = "Freeman-Regular.ttf"
	DefaultFontSize = 80
	DefaultText     = "Example"
)

// Label is a line of text rasterized once into a bitmap. The bitmap is
// redrawn only when the text color changes.
type Label struct {
	ObjectBase
	Text      string
	FontName  string
	FontSize  float64
	FontColor Color

	bitmap  *image.RGBA
	version uint64
}

// NewLabel creates an unrasterized label. It becomes valid once a Scene
// loads it through its Decoder.
func NewLabel(id uuid.UUID, pos Vec2, text string) *Label {
	return &Label{
		ObjectBase: newObjectBase(id, pos, 1, 0, 1),
		Text:       text,
		FontName:   DefaultFontName,
		FontSize:   DefaultFontSize,
		FontColor:  ColorWhite,
	}
}

// Kind returns KindLabel.
func (l *Label) Kind() ObjectKind { return KindLabel }

// Valid reports whether the text was rasterized and the label not deleted.
func (l *Label) Valid() bool { return !l.deleted && l.err == nil && l.bitmap != nil }

// HitTest reports whether p lies inside the label's rotated rectangle.
func (l *Label) HitTest(p Vec2) bool { return rectHit(l, p) }

// Bitmap returns the rasterized text, or nil before loading.
func (l *Label) Bitmap() *image.RGBA { return l.bitmap }

func (l *Label) size() (float64, float64) {
	if l.bitmap == nil {
		return 0, 0
	}
	return float64(l.bitmap.Rect.Dx()), float64(l.bitmap.Rect.Dy())
}

func (l *Label) load(dec Decoder) error {
	if l.FontSize <= 0 {
		l.FontSize = DefaultFontSize
	}
	bmp, err := dec.RasterizeText(l.FontName, l.FontSize, l.FontColor, l.Text)
	if err != nil {
		l.err = fmt.Errorf("overlay: label %q: %w", l.Text, err)
		return l.err
	}
	l.bitmap = bmp
	l.version++
	return nil
}

// recolor repaints every pixel with c, keeping the glyph coverage in alpha.
func (l *Label) recolor(c Color) {
	l.FontColor = c
	if l.bitmap == nil {
		return
	}
	n := c.toNRGBA()
	l.bitmap = adjust.Apply(l.bitmap, func(px color.RGBA) color.RGBA {
		a := uint32(px.A)
		return color.RGBA{
			R: uint8(uint32(n.R) * a / 255),
			G: uint8(uint32(n.G) * a / 255),
			B: uint8(uint32(n.B) * a / 255),
			A: px.A,
		}
	})
	l.version++
}

func (l *Label) handleEvent(s *Scene, self Handle, ev Event) bool {
	return handleObjectEvent(s, self, l, ev)
}

func (l *Label) handleKey(s *Scene, _ Handle, ev Event) bool {
	c, ok := colorKeys[ev.Key]
	if !ok || ev.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0 {
		return false
	}
	l.recolor(c)
	s.markDirty()
	return true
}

func (l *Label) emit(s *Scene, self Handle) {
	if !l.Valid() {
		return
	}
	w, h := l.size()
	s.commands = append(s.commands, RenderCommand{
		Type:      CommandSprite,
		Transform: transformAt(&l.ObjectBase, s.drawPosition(self, &l.ObjectBase), w, h),
		Width:     w,
		Height:    h,
		Color:     Color{1, 1, 1, blendedAlpha(l.Alpha, s.globalAlpha)},
		source:    l.bitmap,
		version:   l.version,
	})
}

func (l *Label) descriptor() Descriptor {
	d := baseDescriptor(KindLabel, &l.ObjectBase)
	d.Text = l.Text
	d.FontName = l.FontName
	d.FontSize = roundTo(l.FontSize, 1)
	d.FontColor = l.FontColor.Hex()
	return d
}
