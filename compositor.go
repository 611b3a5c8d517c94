package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"
)

// Disposal tells the compositor what to do with a frame's rectangle before
// the next frame is drawn.
type Disposal uint8

const (
	DisposalUnspecified       Disposal = iota // treated like DisposalNone
	DisposalNone                              // leave the frame in place
	DisposalRestoreBackground                 // clear the frame rectangle to the background color
	DisposalRestorePrevious                   // not supported; treated like DisposalNone
)

// Frame delay bounds.
const (
	DefaultFrameDelay = 100 * time.Millisecond
	MinFrameDelay     = 20 * time.Millisecond
)

var (
	// ErrNoFrames is returned for an animation without any decodable frame.
	ErrNoFrames = errors.New("overlay: animation has no frames")
	// ErrBadRaster is returned when a frame's pixels do not match its rectangle.
	ErrBadRaster = errors.New("overlay: unreadable frame raster")
)

// AnimationFrame is one decoded frame. Image.Palette may be nil, in which
// case the source's global palette applies. TransparentIndex is -1 when the
// frame has no transparent color.
type AnimationFrame struct {
	Image            *image.Paletted
	DelayMs          int
	TransparentIndex int
	Disposal         Disposal
}

// AnimationSource is a decoded indexed-color animation: a logical canvas,
// an optional global palette and the ordered frame list.
type AnimationSource struct {
	Width, Height   int
	BackgroundIndex int
	Palette         color.Palette
	Frames          []AnimationFrame
}

// frameLUT translates palette indices to premultiplied RGBA. skip marks
// indices that leave the canvas untouched.
type frameLUT struct {
	rgba [256]color.RGBA
	skip [256]bool
}

// Compositor maintains the persistent canvas of one animation and produces
// the image to display for the current frame.
type Compositor struct {
	src    *AnimationSource
	luts   []frameLUT
	delays []time.Duration
	bounds image.Rectangle

	canvas  *image.RGBA
	display *image.RGBA
	version uint64

	cacheFrames bool
	cache       []*image.RGBA

	current        int
	lastDisposal   Disposal
	warnedPrevious bool

	// OnRestorePrevious is called once the first time a frame asks for the
	// unsupported restore-to-previous disposal.
	OnRestorePrevious func()
}

// NewCompositor validates src, precomputes per-frame lookup tables and
// composes frame 0.
func NewCompositor(src *AnimationSource, cacheFrames bool) (*Compositor, error) {
	if src == nil || len(src.Frames) == 0 {
		return nil, ErrNoFrames
	}
	if src.Width <= 0 || src.Height <= 0 {
		return nil, fmt.Errorf("%w: canvas %dx%d", ErrBadRaster, src.Width, src.Height)
	}
	c := &Compositor{
		src:         src,
		luts:        make([]frameLUT, len(src.Frames)),
		delays:      make([]time.Duration, len(src.Frames)),
		bounds:      image.Rect(0, 0, src.Width, src.Height),
		canvas:      image.NewRGBA(image.Rect(0, 0, src.Width, src.Height)),
		cacheFrames: cacheFrames,
		cache:       make([]*image.RGBA, len(src.Frames)),
	}
	for i := range src.Frames {
		f := &src.Frames[i]
		if err := validateFrame(f); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		pal := f.Image.Palette
		if pal == nil {
			pal = src.Palette
		}
		if len(pal) == 0 {
			return nil, fmt.Errorf("frame %d: %w: no palette", i, ErrBadRaster)
		}
		c.luts[i] = buildLUT(pal, f.TransparentIndex)
		c.delays[i] = clampDelay(f.DelayMs)
	}
	c.compose(0)
	c.publish(0)
	return c, nil
}

func validateFrame(f *AnimationFrame) error {
	img := f.Image
	if img == nil {
		return ErrBadRaster
	}
	r := img.Rect
	if r.Empty() {
		return nil
	}
	if img.Stride < r.Dx() || len(img.Pix) < (r.Dy()-1)*img.Stride+r.Dx() {
		return fmt.Errorf("%w: %d bytes for %v", ErrBadRaster, len(img.Pix), r)
	}
	return nil
}

func buildLUT(pal color.Palette, transparent int) frameLUT {
	var lut frameLUT
	for i := range lut.rgba {
		if i >= len(pal) || i == transparent {
			lut.skip[i] = true
			continue
		}
		lut.rgba[i] = color.RGBAModel.Convert(pal[i]).(color.RGBA)
	}
	return lut
}

func clampDelay(ms int) time.Duration {
	if ms <= 0 {
		return DefaultFrameDelay
	}
	d := time.Duration(ms) * time.Millisecond
	if d < MinFrameDelay {
		return MinFrameDelay
	}
	return d
}

// FrameCount returns the number of frames.
func (c *Compositor) FrameCount() int { return len(c.src.Frames) }

// Current returns the index of the displayed frame.
func (c *Compositor) Current() int { return c.current }

// Delay returns how long frame i stays on screen.
func (c *Compositor) Delay(i int) time.Duration { return c.delays[i] }

// Size returns the logical canvas size.
func (c *Compositor) Size() (int, int) { return c.bounds.Dx(), c.bounds.Dy() }

// Image returns the composite for the current frame. The returned image must
// not be modified; it changes identity or Version when a new frame shows.
func (c *Compositor) Image() *image.RGBA { return c.display }

// Version increments whenever the displayed pixels change.
func (c *Compositor) Version() uint64 { return c.version }

// Canvas exposes the persistent composite canvas.
func (c *Compositor) Canvas() *image.RGBA { return c.canvas }

// LastDisposal returns the disposal mode applied by the latest Advance.
func (c *Compositor) LastDisposal() Disposal { return c.lastDisposal }

// Cached reports whether frame i has a valid cached composite.
func (c *Compositor) Cached(i int) bool { return c.cache[i] != nil }

// SetCacheFrames toggles per-frame caching. Disabling drops all snapshots.
func (c *Compositor) SetCacheFrames(on bool) {
	c.cacheFrames = on
	if !on {
		clear(c.cache)
		c.display = c.canvas
		c.version++
	}
}

// Advance disposes of the outgoing frame and shows the next one, wrapping
// to frame 0 after the last.
func (c *Compositor) Advance() {
	c.Show((c.current + 1) % len(c.src.Frames))
}

// Show disposes of the outgoing frame and displays frame i.
func (c *Compositor) Show(i int) {
	c.dispose(c.current)
	if snap := c.cache[i]; snap != nil {
		copy(c.canvas.Pix, snap.Pix)
		c.current = i
		c.display = snap
		c.version++
		return
	}
	c.compose(i)
	c.publish(i)
}

// dispose applies frame i's disposal mode to the canvas.
func (c *Compositor) dispose(i int) {
	f := &c.src.Frames[i]
	c.lastDisposal = f.Disposal
	switch f.Disposal {
	case DisposalRestoreBackground:
		r := f.Image.Rect.Intersect(c.bounds)
		fillRect(c.canvas, r, c.background(f))
	case DisposalRestorePrevious:
		if !c.warnedPrevious {
			c.warnedPrevious = true
			if c.OnRestorePrevious != nil {
				c.OnRestorePrevious()
			}
		}
	}
}

// background is the color a RestoreToBackground disposal clears to.
func (c *Compositor) background(f *AnimationFrame) color.RGBA {
	bg := c.src.BackgroundIndex
	pal := f.Image.Palette
	if pal == nil {
		pal = c.src.Palette
	}
	if bg < 0 || bg >= len(pal) || bg == f.TransparentIndex {
		return color.RGBA{}
	}
	return color.RGBAModel.Convert(pal[bg]).(color.RGBA)
}

// compose blits frame i onto the canvas through its lookup table.
func (c *Compositor) compose(i int) {
	f := &c.src.Frames[i]
	img := f.Image
	lut := &c.luts[i]
	r := img.Rect.Intersect(c.bounds)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := img.Pix[img.PixOffset(r.Min.X, y):]
		dst := c.canvas.Pix[c.canvas.PixOffset(r.Min.X, y):]
		for x := 0; x < r.Dx(); x++ {
			idx := src[x]
			if lut.skip[idx] {
				continue
			}
			p := lut.rgba[idx]
			d := dst[x*4 : x*4+4 : x*4+4]
			d[0], d[1], d[2], d[3] = p.R, p.G, p.B, p.A
		}
	}
	c.current = i
}

// publish makes the canvas visible, snapshotting it when caching is on.
func (c *Compositor) publish(i int) {
	c.version++
	if !c.cacheFrames {
		c.display = c.canvas
		return
	}
	snap := image.NewRGBA(c.canvas.Rect)
	copy(snap.Pix, c.canvas.Pix)
	c.cache[i] = snap
	c.display = snap
}

func fillRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):]
		for x := 0; x < r.Dx(); x++ {
			d := row[x*4 : x*4+4 : x*4+4]
			d[0], d[1], d[2], d[3] = col.R, col.G, col.B, col.A
		}
	}
}
