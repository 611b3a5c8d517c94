package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// halfOpaque is 4×2 with an opaque left half and a transparent right half.
func halfOpaque() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := range 2 {
		for x := range 2 {
			img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	return img
}

func newImageScene(t *testing.T) (*Scene, *StaticImage) {
	t.Helper()
	dec := newFakeDecoder()
	dec.images["half.png"] = halfOpaque()
	s := NewScene(testArea, dec)
	o, err := s.AddImage(Vec2{50, 50}, "half.png")
	require.NoError(t, err)
	s.SetLayoutMode(true)
	return s, o.(*StaticImage)
}

// --- StaticImage ---

func TestStaticImagePixelHit(t *testing.T) {
	_, m := newImageScene(t)
	// The image spans x 48..52, y 49..51.
	assert.True(t, m.HitTest(Vec2{48.5, 50}))
	assert.True(t, m.HitTest(Vec2{49.5, 49.5}))
	assert.False(t, m.HitTest(Vec2{51.5, 50}), "transparent pixel")
	assert.False(t, m.HitTest(Vec2{47, 50}), "outside")
}

func TestStaticImageFlippedHit(t *testing.T) {
	_, m := newImageScene(t)
	m.FlipHorizontal = true
	assert.False(t, m.HitTest(Vec2{48.5, 50}))
	assert.True(t, m.HitTest(Vec2{51.5, 50}))
}

func TestStaticImageScaledHit(t *testing.T) {
	_, m := newImageScene(t)
	m.Scale = 2
	// Now spans x 46..54; local x = (world - 46) / 2.
	assert.True(t, m.HitTest(Vec2{47, 50}))
	assert.False(t, m.HitTest(Vec2{53, 50}))
}

func TestStaticImageAlphaThreshold(t *testing.T) {
	img := solidRGBA(2, 2, color.RGBA{0, 0, 0, hitAlphaMin})
	dec := newFakeDecoder()
	dec.images["faint.png"] = img
	m := NewStaticImage(uuid.Nil, Vec2{1, 1}, "faint.png")
	require.NoError(t, m.load(dec))
	assert.False(t, m.HitTest(Vec2{1, 1}))

	img.Pix[3] = hitAlphaMin + 1
	assert.True(t, m.HitTest(Vec2{0.5, 0.5}))
}

func TestFlipKey(t *testing.T) {
	s, m := newImageScene(t)
	s.LineField().Style.Width = 0
	require.True(t, s.Dispatch(key(48.5, 50, ebiten.KeyF)))
	assert.True(t, m.FlipHorizontal)
	assert.True(t, s.Dirty())

	cmds := s.EmitCommands()
	require.Len(t, cmds, 1)
	assert.True(t, cmds[0].Flip)

	// The opaque half moved to the right.
	require.True(t, s.Dispatch(key(51.5, 50, ebiten.KeyF)))
	assert.False(t, m.FlipHorizontal)
}

func TestStaticImageLoadFailure(t *testing.T) {
	s := NewScene(testArea, newFakeDecoder())
	m := NewStaticImage(uuid.Nil, Vec2{}, "missing.png")
	_, err := s.Add(m)
	require.Error(t, err)
	assert.False(t, m.Valid())
	assert.False(t, m.HitTest(Vec2{}))
	// Still watched, so a repaired file can be reloaded.
	assert.Equal(t, []string{"missing.png"}, s.ImagePaths())
}

func TestStaticImageDescriptor(t *testing.T) {
	_, m := newImageScene(t)
	m.FlipHorizontal = true
	m.Rotation = 12.345678
	d := m.descriptor()
	assert.Equal(t, "Image", d.Type)
	assert.Equal(t, "half.png", d.ImageName)
	assert.Equal(t, "half.png", d.ImagePath)
	assert.True(t, d.Flip)
	assert.Equal(t, 12.3457, d.Rotate)
	assert.Equal(t, 255, *d.Alpha)
	assert.Equal(t, m.ID.String(), d.ID)
}

// --- Label ---

func TestLabelRecolorKeepsCoverage(t *testing.T) {
	s, l := newLabelScene(t)
	l.bitmap.Pix[3] = 128 // half-covered pixel
	l.bitmap.Pix[0], l.bitmap.Pix[1], l.bitmap.Pix[2] = 128, 128, 128
	v := l.version

	require.True(t, s.Dispatch(key(100, 100, ebiten.KeyR)))
	assert.Equal(t, RGB(255, 0, 0), l.FontColor)
	assert.Greater(t, l.version, v)
	assert.Equal(t, color.RGBA{128, 0, 0, 128}, l.Bitmap().RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, l.Bitmap().RGBAAt(5, 5))
}

func TestLabelIgnoresUnknownKeys(t *testing.T) {
	s, l := newLabelScene(t)
	c := l.FontColor
	assert.False(t, l.handleKey(s, 1, key(100, 100, ebiten.KeyQ)))
	assert.False(t, l.handleKey(s, 1, Event{Type: EventKeyDown, Key: ebiten.KeyR, Modifiers: ModCtrl}))
	assert.Equal(t, c, l.FontColor)
}

func TestLabelEmitBlendsAlpha(t *testing.T) {
	s, l := newLabelScene(t)
	s.LineField().Style.Width = 0
	l.Alpha = 0.4
	s.SetGlobalAlpha(0.5)
	cmds := s.EmitCommands()
	require.Len(t, cmds, 1)
	assert.InDelta(t, 0.4*0.5+0.5*0.8+0.1, cmds[0].Color.A, 1e-9)
	assert.Same(t, l.Bitmap(), cmds[0].source)
}

func TestBlendedAlphaSaturates(t *testing.T) {
	assert.Equal(t, 1.0, blendedAlpha(1, 1))
	assert.InDelta(t, 0.1, blendedAlpha(0, 0), 1e-9)
}

func TestLabelDescriptor(t *testing.T) {
	_, l := newLabelScene(t)
	l.FontSize = 33.33
	d := l.descriptor()
	assert.Equal(t, "Label", d.Type)
	assert.Equal(t, "abcd", d.Text)
	assert.Equal(t, 33.3, d.FontSize)
	assert.Equal(t, l.FontColor.Hex(), d.FontColor)
	assert.Equal(t, 100.0, *d.X)
}

// --- LineField ---

func TestLineFieldKeys(t *testing.T) {
	s := NewScene(testArea, nil)
	lf := s.LineField()

	tests := []struct {
		key   ebiten.Key
		check func(LineStyle) bool
	}{
		{ebiten.Key3, func(st LineStyle) bool { return st.Width == 3 }},
		{ebiten.KeyNumpad0, func(st LineStyle) bool { return st.Width == 0 }},
		{ebiten.KeyB, func(st LineStyle) bool { return st.Color == RGB(0, 0, 255) }},
		{ebiten.KeyD, func(st LineStyle) bool { return !st.Dashed }},
		{ebiten.KeyUp, func(st LineStyle) bool { return st.Spacing == 16 }},
		{ebiten.KeyDown, func(st LineStyle) bool { return st.Spacing == 15 }},
		{ebiten.KeyBracketRight, func(st LineStyle) bool { return st.Angle == 50 }},
		{ebiten.KeyBracketLeft, func(st LineStyle) bool { return st.Angle == 45 }},
		{ebiten.KeyEqual, func(st LineStyle) bool { return st.DashLength == 11 }},
		{ebiten.KeyMinus, func(st LineStyle) bool { return st.DashLength == 10 }},
	}
	for _, tt := range tests {
		require.True(t, s.Dispatch(key(0, 0, tt.key)), tt.key.String())
		assert.True(t, tt.check(lf.Style), "after %s: %+v", tt.key, lf.Style)
	}
	assert.True(t, s.Dirty())
}

func TestLineFieldSpacingClamped(t *testing.T) {
	s := NewScene(testArea, nil)
	for range 100 {
		s.Dispatch(key(0, 0, ebiten.KeyDown))
	}
	assert.Equal(t, float64(MinLineSpacing), s.LineField().Style.Spacing)
	for range 100 {
		s.Dispatch(key(0, 0, ebiten.KeyUp))
	}
	assert.Equal(t, float64(MaxLineSpacing), s.LineField().Style.Spacing)
}

func TestLineFieldIgnoresModifiedKeys(t *testing.T) {
	s := NewScene(testArea, nil)
	assert.False(t, s.Dispatch(Event{Type: EventKeyDown, Key: ebiten.Key3, Modifiers: ModAlt}))
	assert.Equal(t, 1, s.LineField().Style.Width)
}

func TestLineFieldEmitModes(t *testing.T) {
	s := NewScene(testArea, nil)
	lf := s.LineField()

	cmds := s.EmitCommands()
	require.Len(t, cmds, 1)
	assert.Equal(t, CommandSprite, cmds[0].Type)
	assert.Equal(t, 800.0, cmds[0].Width)
	assert.Positive(t, countOpaque(cmds[0].source))

	lf.Style.Width = 3
	lf.Style.Dashed = false
	cmds = s.EmitCommands()
	require.NotEmpty(t, cmds)
	assert.Equal(t, CommandMesh, cmds[0].Type)
	assert.NotEmpty(t, cmds[0].meshVerts)
	assert.Len(t, cmds[0].meshInds, len(cmds[0].meshVerts)/4*6)

	lf.Style.Width = 0
	assert.Empty(t, s.EmitCommands())
}

func TestLineFieldHiddenWhileDragging(t *testing.T) {
	s, _ := newLabelScene(t)
	assert.Len(t, s.EmitCommands(), 2)
	s.Dispatch(down(100, 100))
	assert.Len(t, s.EmitCommands(), 1)
}

func TestHiddenSceneEmitsNothing(t *testing.T) {
	s, _ := newLabelScene(t)
	s.SetHidden(true)
	assert.Empty(t, s.EmitCommands())
}

func TestJitterStableWithinCycle(t *testing.T) {
	s := NewScene(testArea, nil)
	s.SetSeed(42)

	first := append([]byte(nil), s.EmitCommands()[0].source.Pix...)
	second := append([]byte(nil), s.EmitCommands()[0].source.Pix...)
	assert.Equal(t, first, second)

	s.jitterCycle++
	third := append([]byte(nil), s.EmitCommands()[0].source.Pix...)
	assert.NotEqual(t, first, third)
}

func TestLineFieldVersionBumpsPerEmit(t *testing.T) {
	s := NewScene(testArea, nil)
	v1 := s.EmitCommands()[0].version
	v2 := s.EmitCommands()[0].version
	assert.Greater(t, v2, v1)
}
