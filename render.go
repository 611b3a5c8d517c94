package overlay

import (
	"bytes"
	"image"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

// CommandType identifies the kind of render command.
type CommandType uint8

const (
	CommandSprite CommandType = iota // textured quad from a CPU bitmap
	CommandMesh                      // DrawTriangles with the white texture
)

// RenderCommand is a single draw instruction emitted by an object.
type RenderCommand struct {
	Type      CommandType
	Transform [6]float64
	Width     float64
	Height    float64
	Flip      bool
	Color     Color

	// source is uploaded through the texture cache. A version of 0 marks an
	// immutable bitmap that is uploaded once.
	source  *image.RGBA
	version uint64

	// Mesh-only fields (slice headers, not copies of vertex data).
	meshVerts []ebiten.Vertex
	meshInds  []uint16
}

// Layout frame appearance.
const (
	layoutFrameRings = 6
	layoutHint       = "layout mode: drag to move | wheel: fade | shift+wheel: scale | ctrl+wheel: rotate | space: done"
	layoutHintSize   = 16
)

var (
	whiteImage *ebiten.Image
	hintFace   *text.GoTextFace
)

// whiteTexture returns a 3×3 white image. Sampling its centre texel gives
// solid color for untextured geometry.
func whiteTexture() *ebiten.Image {
	if whiteImage == nil {
		whiteImage = ebiten.NewImage(3, 3)
		whiteImage.Fill(color.White)
	}
	return whiteImage
}

func layoutHintFace() *text.GoTextFace {
	if hintFace == nil {
		src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
		if err != nil {
			logger().WithError(err).Error("loading hint font")
			return nil
		}
		hintFace = &text.GoTextFace{Source: src, Size: layoutHintSize}
	}
	return hintFace
}

// Draw renders the scene onto dst and clears the redraw flag. Objects are
// painted in list order.
func (s *Scene) Draw(dst *ebiten.Image) {
	dst.Clear()
	s.needsRedraw = false
	if s.hidden {
		s.textures.endFrame()
		return
	}

	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.commands = s.commands[:0]
	for i, o := range s.objects {
		if o.Valid() {
			o.emit(s, Handle(i))
		}
	}

	if s.debug {
		stats.emitTime = time.Since(t0)
		stats.commandCount = len(s.commands)
		t0 = time.Now()
	}

	s.submitCommands(dst)
	if s.frameAlpha > 0 {
		s.drawLayoutFrame(dst)
	}

	if s.debug {
		stats.submitTime = time.Since(t0)
		stats.uploadCount = s.textures.uploads
		stats.textureCount = len(s.textures.entries)
		s.debugLog(stats)
	}
	s.textures.endFrame()
}

// EmitCommands returns the commands the scene would submit for the current
// state, without drawing. The returned slice is reused by the next call.
func (s *Scene) EmitCommands() []RenderCommand {
	s.commands = s.commands[:0]
	if s.hidden {
		return s.commands
	}
	for i, o := range s.objects {
		if o.Valid() {
			o.emit(s, Handle(i))
		}
	}
	return s.commands
}

// submitCommands draws every command in order.
func (s *Scene) submitCommands(target *ebiten.Image) {
	var verts [4]ebiten.Vertex
	var op ebiten.DrawTrianglesOptions
	op.Filter = ebiten.FilterLinear

	for i := range s.commands {
		cmd := &s.commands[i]
		switch cmd.Type {
		case CommandSprite:
			if cmd.source == nil || cmd.Width <= 0 || cmd.Height <= 0 {
				continue
			}
			tex := s.textures.get(cmd.source, cmd.version)
			v := quadVertices(verts[:0], cmd.Transform, cmd.Width, cmd.Height, cmd.Flip, cmd.Color, 1)
			target.DrawTriangles(v, quadIndices, tex, &op)
		case CommandMesh:
			if len(cmd.meshVerts) == 0 || len(cmd.meshInds) == 0 {
				continue
			}
			var triOp ebiten.DrawTrianglesOptions
			triOp.AntiAlias = true
			target.DrawTriangles(cmd.meshVerts, cmd.meshInds, whiteTexture(), &triOp)
		}
	}
}

// drawLayoutFrame strokes nested green rectangles along the work area border
// and the editing hint, both faded by the layout fade.
func (s *Scene) drawLayoutFrame(dst *ebiten.Image) {
	r := s.workArea
	for i := 0; i < layoutFrameRings; i++ {
		a := float64(50+41*i) / 255 * s.frameAlpha
		c := Color{0, 1, 0, a}.toRGBA()
		inset := float32(i)
		vector.StrokeRect(dst,
			float32(r.X)+inset+0.5, float32(r.Y)+inset+0.5,
			float32(r.Width)-2*inset-1, float32(r.Height)-2*inset-1,
			1, c, false)
	}

	face := layoutHintFace()
	if face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(r.X+layoutFrameRings+8, r.Y+r.Height-layoutFrameRings-8-layoutHintSize)
	op.ColorScale.ScaleWithColor(color.RGBA{0, 255, 0, 255})
	op.ColorScale.ScaleAlpha(float32(s.frameAlpha))
	text.Draw(dst, layoutHint, face, op)
}
