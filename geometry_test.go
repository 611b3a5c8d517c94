package overlay

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want [6]float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// --- RotatePoint ---

func TestRotatePointZero(t *testing.T) {
	p := RotatePoint(Vec2{3, 4}, Vec2{1, 1}, 0)
	assertNear(t, "x", p.X, 3)
	assertNear(t, "y", p.Y, 4)
}

func TestRotatePoint90(t *testing.T) {
	// (1,0) about the origin by +90° lands on (0,1): clockwise with Y down.
	p := RotatePoint(Vec2{1, 0}, Vec2{}, 90)
	assertNear(t, "x", p.X, 0)
	assertNear(t, "y", p.Y, 1)
}

func TestRotatePointAboutPivot(t *testing.T) {
	p := RotatePoint(Vec2{20, 10}, Vec2{10, 10}, 180)
	assertNear(t, "x", p.X, 0)
	assertNear(t, "y", p.Y, 10)
}

func TestRotatePointRoundTrip(t *testing.T) {
	pivot := Vec2{37, -12}
	p := Vec2{101.5, 44.25}
	q := RotatePoint(RotatePoint(p, pivot, 33), pivot, -33)
	if math.Abs(q.X-p.X) > 1e-9 || math.Abs(q.Y-p.Y) > 1e-9 {
		t.Errorf("round trip = %v, want %v", q, p)
	}
}

// --- objectTransform ---

func TestObjectTransformCentresBitmap(t *testing.T) {
	m := objectTransform(Vec2{100, 50}, 1, 0, 40, 20)
	assertMatrix(t, "plain", m, [6]float64{1, 0, 0, 1, 80, 40})
}

func TestObjectTransformScale(t *testing.T) {
	m := objectTransform(Vec2{100, 50}, 2, 0, 40, 20)
	x, y := transformPoint(m, 20, 10)
	assertNear(t, "centre x", x, 100)
	assertNear(t, "centre y", y, 50)
	x, y = transformPoint(m, 0, 0)
	assertNear(t, "corner x", x, 60)
	assertNear(t, "corner y", y, 30)
}

func TestObjectTransformRotation(t *testing.T) {
	m := objectTransform(Vec2{0, 0}, 1, 90, 2, 2)
	// Top-left corner (-1,-1) relative to centre rotates to (1,-1).
	x, y := transformPoint(m, 0, 0)
	assertNear(t, "x", x, 1)
	assertNear(t, "y", y, -1)
}

func TestObjectTransformMatchesRotatePoint(t *testing.T) {
	pos := Vec2{300, 200}
	m := objectTransform(pos, 1.5, 27, 80, 40)
	x, y := transformPoint(m, 80, 40)
	want := RotatePoint(Vec2{pos.X + 60, pos.Y + 30}, pos, 27)
	assertNear(t, "x", x, want.X)
	assertNear(t, "y", y, want.Y)
}

// --- invertAffine / worldToLocal ---

func TestInvertAffineRoundTrip(t *testing.T) {
	m := objectTransform(Vec2{12, 34}, 0.7, -41, 64, 32)
	inv, ok := invertAffine(m)
	if !ok {
		t.Fatal("expected invertible matrix")
	}
	assertMatrix(t, "m*inv", multiplyAffine(m, inv), identityTransform)
}

func TestInvertAffineSingular(t *testing.T) {
	_, ok := invertAffine([6]float64{0, 0, 0, 0, 5, 5})
	if ok {
		t.Error("zero-scale matrix should not invert")
	}
}

func TestWorldToLocal(t *testing.T) {
	m := objectTransform(Vec2{100, 100}, 2, 45, 10, 10)
	lx, ly, ok := worldToLocal(m, Vec2{100, 100})
	if !ok {
		t.Fatal("worldToLocal failed")
	}
	assertNear(t, "lx", lx, 5)
	assertNear(t, "ly", ly, 5)
}

// --- quadVertices ---

func TestQuadVerticesFlip(t *testing.T) {
	m := objectTransform(Vec2{5, 5}, 1, 0, 10, 10)
	v := quadVertices(nil, m, 10, 10, false, ColorWhite, 1)
	if len(v) != 4 {
		t.Fatalf("len = %d, want 4", len(v))
	}
	if v[0].SrcX != 0 || v[1].SrcX != 10 {
		t.Errorf("unflipped src = %v,%v", v[0].SrcX, v[1].SrcX)
	}
	v = quadVertices(v, m, 10, 10, true, ColorWhite, 1)
	if v[0].SrcX != 10 || v[1].SrcX != 0 {
		t.Errorf("flipped src = %v,%v", v[0].SrcX, v[1].SrcX)
	}
	if v[0].DstX != 0 || v[3].DstX != 10 {
		t.Errorf("flip must not move destination: %v %v", v[0].DstX, v[3].DstX)
	}
}

func TestQuadVerticesPremultiplied(t *testing.T) {
	v := quadVertices(nil, identityTransform, 1, 1, false, Color{1, 0.5, 0, 1}, 0.5)
	if v[0].ColorA != 0.5 || v[0].ColorR != 0.5 || v[0].ColorG != 0.25 {
		t.Errorf("color = %v %v %v %v", v[0].ColorR, v[0].ColorG, v[0].ColorB, v[0].ColorA)
	}
}
