package overlay

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// quadIndices triangulates the four vertices emitted by quadVertices.
var quadIndices = []uint16{0, 1, 2, 1, 3, 2}

// RotatePoint rotates p about pivot by deg degrees. Positive angles turn
// clockwise on screen (Y grows downward).
func RotatePoint(p, pivot Vec2, deg float64) Vec2 {
	if deg == 0 {
		return p
	}
	d := mgl64.Rotate2D(mgl64.DegToRad(deg)).Mul2x1(mgl64.Vec2{p.X - pivot.X, p.Y - pivot.Y})
	return Vec2{pivot.X + d.X(), pivot.Y + d.Y()}
}

// objectTransform computes the affine matrix that maps a w×h bitmap into
// world space for an object centred at pos. Returns [a, b, c, d, tx, ty].
//
// Composition order:
//
//	Translate(-w/2, -h/2) -> Scale -> Rotate -> Translate(pos)
func objectTransform(pos Vec2, scale, rotationDeg, w, h float64) [6]float64 {
	sin, cos := math.Sincos(mgl64.DegToRad(rotationDeg))
	px := -w / 2 * scale
	py := -h / 2 * scale
	return [6]float64{
		cos * scale,
		sin * scale,
		-sin * scale,
		cos * scale,
		cos*px - sin*py + pos.X,
		sin*px + cos*py + pos.Y,
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns ok=false if the matrix is singular (determinant ≈ 0).
func invertAffine(m [6]float64) ([6]float64, bool) {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform, false
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}, true
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// worldToLocal maps a world point into the bitmap space of the transform m.
// ok is false for degenerate transforms (zero scale).
func worldToLocal(m [6]float64, p Vec2) (lx, ly float64, ok bool) {
	inv, ok := invertAffine(m)
	if !ok {
		return 0, 0, false
	}
	lx, ly = transformPoint(inv, p.X, p.Y)
	return lx, ly, true
}

// quadVertices writes the four corners of a w×h textured quad placed by m
// into dst, mirroring the texture horizontally when flip is set. Colors are
// premultiplied by alpha.
func quadVertices(dst []ebiten.Vertex, m [6]float64, w, h float64, flip bool, c Color, alpha float64) []ebiten.Vertex {
	a := float32(clamp01(c.A * alpha))
	r := float32(c.R) * a
	g := float32(c.G) * a
	b := float32(c.B) * a

	srcL, srcR := float32(0), float32(w)
	if flip {
		srcL, srcR = srcR, srcL
	}
	corners := [4][4]float64{
		{0, 0, float64(srcL), 0},
		{w, 0, float64(srcR), 0},
		{0, h, float64(srcL), h},
		{w, h, float64(srcR), h},
	}
	dst = dst[:0]
	for _, k := range corners {
		x, y := transformPoint(m, k[0], k[1])
		dst = append(dst, ebiten.Vertex{
			DstX: float32(x), DstY: float32(y),
			SrcX: float32(k[2]), SrcY: float32(k[3]),
			ColorR: r, ColorG: g, ColorB: b, ColorA: a,
		})
	}
	return dst
}
