package overlay

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// textureIdleFrames is how many draws an unused texture survives before it
// is returned to the pool.
const textureIdleFrames = 300

// --- Render texture pool ---

// renderTexturePool manages reusable offscreen ebiten.Images keyed by
// power-of-two dimensions. After warmup, Acquire/Release are zero-alloc.
type renderTexturePool struct {
	buckets map[uint64][]*ebiten.Image
}

// poolKey packs power-of-two width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a cleared offscreen image with at least (w, h) pixels.
// Dimensions are rounded up to the next power of two.
func (p *renderTexturePool) Acquire(w, h int) *ebiten.Image {
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)

	if p.buckets != nil {
		if stack := p.buckets[key]; len(stack) > 0 {
			img := stack[len(stack)-1]
			p.buckets[key] = stack[:len(stack)-1]
			img.Clear()
			return img
		}
	}

	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, pw, ph),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns an image to the pool for reuse. The image is cleared on
// next Acquire, not here.
func (p *renderTexturePool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())

	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	p.buckets[key] = append(p.buckets[key], img)
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}

// --- Bitmap upload cache ---

type textureEntry struct {
	img      *ebiten.Image // pooled backing image
	view     *ebiten.Image // sub-image matching the bitmap size
	version  uint64
	lastUsed uint64
}

// textureCache mirrors CPU bitmaps on the GPU. A bitmap is uploaded when it
// is first drawn and again whenever its version changes.
type textureCache struct {
	pool    renderTexturePool
	entries map[*image.RGBA]*textureEntry
	frame   uint64
	uploads int
}

func (c *textureCache) get(src *image.RGBA, version uint64) *ebiten.Image {
	if c.entries == nil {
		c.entries = make(map[*image.RGBA]*textureEntry)
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	e := c.entries[src]
	if e != nil && (e.view.Bounds().Dx() != w || e.view.Bounds().Dy() != h) {
		c.pool.Release(e.img)
		delete(c.entries, src)
		e = nil
	}
	if e == nil {
		img := c.pool.Acquire(w, h)
		e = &textureEntry{
			img:  img,
			view: img.SubImage(image.Rect(0, 0, w, h)).(*ebiten.Image),
		}
		e.view.WritePixels(tightPix(src))
		e.version = version
		c.entries[src] = e
		c.uploads++
	} else if e.version != version {
		e.view.WritePixels(tightPix(src))
		e.version = version
		c.uploads++
	}
	e.lastUsed = c.frame
	return e.view
}

// endFrame releases textures that have not been drawn for a while.
func (c *textureCache) endFrame() {
	c.frame++
	c.uploads = 0
	for src, e := range c.entries {
		if c.frame-e.lastUsed > textureIdleFrames {
			c.pool.Release(e.img)
			delete(c.entries, src)
		}
	}
}

// tightPix returns the bitmap's pixels without row padding.
func tightPix(src *image.RGBA) []byte {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	row := 4 * w
	start := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y)
	if src.Stride == row {
		return src.Pix[start : start+row*h]
	}
	pix := make([]byte, row*h)
	for y := 0; y < h; y++ {
		o := start + y*src.Stride
		copy(pix[y*row:], src.Pix[o:o+row])
	}
	return pix
}
