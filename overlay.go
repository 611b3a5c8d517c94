package overlay

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

var (
	// ColorWhite is the default label color.
	ColorWhite = Color{1, 1, 1, 1}
	// ColorBlack is the default line color.
	ColorBlack = Color{0, 0, 0, 1}
)

// RGB builds an opaque Color from 8-bit channel values.
func RGB(r, g, b uint8) Color {
	return Color{float64(r) / 255, float64(g) / 255, float64(b) / 255, 1}
}

// toRGBA converts to a premultiplied 8-bit color.
func (c Color) toRGBA() color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(math.Round(clamp01(c.R) * a * 255)),
		G: uint8(math.Round(clamp01(c.G) * a * 255)),
		B: uint8(math.Round(clamp01(c.B) * a * 255)),
		A: uint8(math.Round(a * 255)),
	}
}

// toNRGBA converts to a straight-alpha 8-bit color.
func (c Color) toNRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Round(clamp01(c.R) * 255)),
		G: uint8(math.Round(clamp01(c.G) * 255)),
		B: uint8(math.Round(clamp01(c.B) * 255)),
		A: uint8(math.Round(clamp01(c.A) * 255)),
	}
}

// Hex formats the color as "#RRGGBB". Alpha is dropped.
func (c Color) Hex() string {
	n := c.toNRGBA()
	return fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B)
}

// ErrBadColor is returned by ParseColor for malformed input.
var ErrBadColor = errors.New("overlay: malformed color")

// ParseColor accepts "#RRGGBB", "RRGGBB" or a decimal 0xRRGGBB integer string.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		if len(s) != 7 {
			return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
		}
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
		}
		return colorFromInt(v), nil
	}
	if len(s) == 6 {
		if v, err := strconv.ParseUint(s, 16, 32); err == nil {
			return colorFromInt(v), nil
		}
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v > 0xFFFFFF {
		return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return colorFromInt(v), nil
}

func colorFromInt(v uint64) Color {
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v))
}

// Vec2 is a 2D vector used for positions, offsets and sizes.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return !(r.Width > 0) || !(r.Height > 0)
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{r.X + r.Width/2, r.Y + r.Height/2}
}

// ObjectKind identifies the closed set of scene object variants.
type ObjectKind uint8

const (
	KindLineField     ObjectKind = iota // procedural line grid, one per scene
	KindLabel                           // rasterized text
	KindImage                           // static picture
	KindAnimatedImage                   // looping indexed-color animation
)

var kindNames = [...]string{"LineField", "Label", "Image", "AnimatedImage"}

func (k ObjectKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "ObjectKind(" + strconv.Itoa(int(k)) + ")"
}

// EventType identifies a kind of input event.
type EventType uint8

const (
	EventPointerDown  EventType = iota // a pointer button was pressed
	EventPointerUp                     // a pointer button was released
	EventPointerMove                   // the pointer moved
	EventWheel                         // the wheel turned; WheelY holds notches
	EventKeyDown                       // a key was pressed
	EventFocusLost                     // the window lost keyboard focus
	EventFocusGained                   // the window gained keyboard focus
	EventQuit                          // the host asked to close the window
)

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// Event is a single input event delivered to Scene.Dispatch. X and Y carry
// the pointer position for every event type, key events included, so objects
// can hit-test keyboard shortcuts against the cursor.
type Event struct {
	Type      EventType
	X, Y      float64
	WheelY    float64
	Button    MouseButton
	Key       ebiten.Key
	Modifiers KeyModifiers
}

// Point returns the event position as a Vec2.
func (e Event) Point() Vec2 {
	return Vec2{e.X, e.Y}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
