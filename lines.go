package overlay

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
)

// Line field limits.
const (
	MinLineSpacing = 2
	MaxLineSpacing = 50
	MaxLineWidth   = 5
	MinDashLength  = 1
	MaxDashLength  = 100
)

// maxQuadsPerBatch keeps vertex indices inside uint16 range.
const maxQuadsPerBatch = 65535 / 4

// intersectEps is the tolerance used when clipping lines against the
// rectangle border and when merging coincident intersection points.
const intersectEps = 1e-7

// Segment is a clipped line with both endpoints on the rectangle border.
type Segment struct {
	A, B Vec2
}

// Length returns the euclidean length of the segment.
func (s Segment) Length() float64 {
	return math.Hypot(s.B.X-s.A.X, s.B.Y-s.A.Y)
}

// LineStyle describes the appearance of a line field.
type LineStyle struct {
	Width      int
	Color      Color
	Dashed     bool
	DashLength int
	DashGap    int
	Angle      float64 // degrees
	Spacing    float64 // pixels between neighbouring lines
}

// DefaultLineStyle matches a fresh install: one pixel, black, dashed 10/10
// at 45° every 15 pixels.
func DefaultLineStyle() LineStyle {
	return LineStyle{
		Width:      1,
		Color:      ColorBlack,
		Dashed:     true,
		DashLength: 10,
		DashGap:    10,
		Angle:      45,
		Spacing:    15,
	}
}

// sanitize clamps every field into its valid range.
func (st LineStyle) sanitize() LineStyle {
	st.Width = clampInt(st.Width, 0, MaxLineWidth)
	st.DashLength = clampInt(st.DashLength, MinDashLength, MaxDashLength)
	st.DashGap = clampInt(st.DashGap, 0, MaxDashLength)
	st.Angle = sanitizeAngle(st.Angle)
	st.Spacing = sanitizeSpacing(st.Spacing)
	return st
}

// jitters reports whether the style needs periodic dash re-randomization.
func (st LineStyle) jitters() bool {
	return st.Width > 0 && st.Dashed && st.DashGap > 0
}

// rastered reports whether the style is drawn with the Bresenham walker
// rather than as filled quads.
func (st LineStyle) rastered() bool {
	return st.Width == 1 || st.Dashed
}

func sanitizeAngle(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	return math.Mod(deg, 360)
}

func sanitizeSpacing(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return MinLineSpacing
	}
	return clampFloat(s, MinLineSpacing, MaxLineSpacing)
}

// LineSegments returns the parallel lines at angleDeg, spacing pixels apart,
// clipped to r. Lines are described by the normal form
//
//	-sin(θ)·x + cos(θ)·y = C
//
// with C stepped from its minimum to its maximum over the rectangle corners.
func LineSegments(r Rect, angleDeg, spacing float64) []Segment {
	return appendLineSegments(nil, r, angleDeg, spacing)
}

func appendLineSegments(dst []Segment, r Rect, angleDeg, spacing float64) []Segment {
	if r.Empty() || math.IsInf(r.Width, 0) || math.IsInf(r.Height, 0) ||
		math.IsNaN(r.X) || math.IsNaN(r.Y) || math.IsInf(r.X, 0) || math.IsInf(r.Y, 0) {
		return dst
	}
	angleDeg = sanitizeAngle(angleDeg)
	spacing = sanitizeSpacing(spacing)

	sin, cos := math.Sincos(angleDeg * math.Pi / 180)
	if math.Abs(sin) < 1e-12 {
		sin = 0
	}
	if math.Abs(cos) < 1e-12 {
		cos = 0
	}

	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.Width, r.Y+r.Height
	cMin, cMax := math.Inf(1), math.Inf(-1)
	for _, p := range [4]Vec2{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}} {
		c := -sin*p.X + cos*p.Y
		cMin = math.Min(cMin, c)
		cMax = math.Max(cMax, c)
	}

	steps := int(math.Floor((cMax-cMin)/spacing+intersectEps)) + 1
	var pts [4]Vec2
	for i := 0; i < steps; i++ {
		c := cMin + float64(i)*spacing
		n := 0
		// Horizontal borders: y fixed, solve for x.
		if sin != 0 {
			for _, y := range [2]float64{y0, y1} {
				x := (cos*y - c) / sin
				if x >= x0-intersectEps && x <= x1+intersectEps {
					pts[n] = Vec2{clampFloat(x, x0, x1), y}
					n++
				}
			}
		}
		// Vertical borders: x fixed, solve for y.
		if cos != 0 {
			for _, x := range [2]float64{x0, x1} {
				y := (c + sin*x) / cos
				if y >= y0-intersectEps && y <= y1+intersectEps {
					pts[n] = Vec2{x, clampFloat(y, y0, y1)}
					n++
				}
			}
		}
		a, b, ok := endpoints(pts[:n])
		if !ok {
			continue
		}
		dst = append(dst, Segment{A: a, B: b})
	}
	return dst
}

// endpoints sorts the candidate intersections lexicographically, merges
// coincident points and returns the first two distinct ones.
func endpoints(pts []Vec2) (Vec2, Vec2, bool) {
	if len(pts) < 2 {
		return Vec2{}, Vec2{}, false
	}
	slices.SortFunc(pts, func(a, b Vec2) int {
		if math.Abs(a.X-b.X) > intersectEps {
			if a.X < b.X {
				return -1
			}
			return 1
		}
		switch {
		case a.Y < b.Y:
			return -1
		case a.Y > b.Y:
			return 1
		}
		return 0
	})
	first := pts[0]
	for _, p := range pts[1:] {
		if math.Abs(p.X-first.X) > intersectEps || math.Abs(p.Y-first.Y) > intersectEps {
			return first, p, true
		}
	}
	return Vec2{}, Vec2{}, false
}

// --- Quad path ---

// appendLineQuads emits two triangles per segment, widened by ±width/2 along
// the segment normal. Vertex positions are relative to origin. The source
// rectangle addresses the centre texel of whiteImage.
func appendLineQuads(verts []ebiten.Vertex, inds []uint16, segs []Segment, origin Vec2, width float64, c Color, alpha float64) ([]ebiten.Vertex, []uint16) {
	a := float32(clamp01(c.A * alpha))
	cr, cg, cb := float32(c.R)*a, float32(c.G)*a, float32(c.B)*a
	half := width / 2
	for _, s := range segs {
		l := s.Length()
		if l == 0 {
			continue
		}
		nx := -(s.B.Y - s.A.Y) / l * half
		ny := (s.B.X - s.A.X) / l * half
		base := uint16(len(verts))
		for _, p := range [4]Vec2{
			{s.A.X + nx, s.A.Y + ny},
			{s.B.X + nx, s.B.Y + ny},
			{s.A.X - nx, s.A.Y - ny},
			{s.B.X - nx, s.B.Y - ny},
		} {
			verts = append(verts, ebiten.Vertex{
				DstX: float32(p.X - origin.X), DstY: float32(p.Y - origin.Y),
				SrcX: 1, SrcY: 1,
				ColorR: cr, ColorG: cg, ColorB: cb, ColorA: a,
			})
		}
		for _, i := range quadIndices {
			inds = append(inds, base+i)
		}
	}
	return verts, inds
}

// --- Raster path ---

// rasterizeLines walks every segment with an integer Bresenham line, stacked
// width times along the segment normal. Each walk starts at a dash phase
// drawn from rng, so the pattern only changes when rng is reseeded.
// Coordinates are translated by -origin into dst.
func rasterizeLines(dst *image.RGBA, segs []Segment, origin Vec2, st LineStyle, c color.RGBA, rng *rand.Rand) {
	if st.Width <= 0 {
		return
	}
	gap := 0
	if st.Dashed {
		gap = st.DashGap
	}
	period := st.DashLength + gap

	for _, s := range segs {
		l := s.Length()
		if l == 0 {
			continue
		}
		nx := -(s.B.Y - s.A.Y) / l
		ny := (s.B.X - s.A.X) / l
		for pass := 0; pass < st.Width; pass++ {
			off := float64(pass) - float64(st.Width-1)/2
			ox := math.Round(nx * off)
			oy := math.Round(ny * off)
			phase := 0
			if gap > 0 {
				phase = rng.IntN(period)
			}
			bresenham(dst,
				int(math.Round(s.A.X-origin.X+ox)), int(math.Round(s.A.Y-origin.Y+oy)),
				int(math.Round(s.B.X-origin.X+ox)), int(math.Round(s.B.Y-origin.Y+oy)),
				st.DashLength, gap, phase, c)
		}
	}
}

// bresenham plots an integer line from (x0, y0) to (x1, y1) inclusive.
// Pixels outside dst are skipped. With gap > 0 a pixel is drawn only while
// (step+phase) mod (dash+gap) < dash.
func bresenham(dst *image.RGBA, x0, y0, x1, y1, dash, gap, phase int, c color.RGBA) {
	b := dst.Bounds()
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	period := dash + gap
	for i := phase; ; i++ {
		if gap == 0 || i%period < dash {
			if x0 >= b.Min.X && x0 < b.Max.X && y0 >= b.Min.Y && y0 < b.Max.Y {
				o := dst.PixOffset(x0, y0)
				p := dst.Pix[o : o+4 : o+4]
				p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
			}
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
