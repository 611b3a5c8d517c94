package overlay

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AnimatedImage is a looping indexed-color animation. It is drawn from its
// Compositor's current composite and hit-tested on its full rectangle.
type AnimatedImage struct {
	StaticImage
	CacheFrames bool

	comp        *Compositor
	loop        time.Duration
	lastAdvance time.Time
}

// NewAnimatedImage creates an undecoded animation for path with frame
// caching enabled.
func NewAnimatedImage(id uuid.UUID, pos Vec2, path string) *AnimatedImage {
	return &AnimatedImage{
		StaticImage: *NewStaticImage(id, pos, path),
		CacheFrames: true,
	}
}

// Kind returns KindAnimatedImage.
func (a *AnimatedImage) Kind() ObjectKind { return KindAnimatedImage }

// Valid reports whether the animation decoded and has not been deleted.
func (a *AnimatedImage) Valid() bool { return !a.deleted && a.err == nil && a.comp != nil }

// Compositor returns the frame compositor, or nil before loading.
func (a *AnimatedImage) Compositor() *Compositor { return a.comp }

// HitTest reports whether p lies inside the animation's rotated rectangle.
func (a *AnimatedImage) HitTest(p Vec2) bool { return rectHit(a, p) }

func (a *AnimatedImage) size() (float64, float64) {
	if a.comp == nil {
		return 0, 0
	}
	w, h := a.comp.Size()
	return float64(w), float64(h)
}

func (a *AnimatedImage) load(dec Decoder) error {
	src, err := dec.DecodeAnimation(a.SourcePath)
	if err == nil {
		a.comp, err = NewCompositor(src, a.CacheFrames)
	}
	if err != nil {
		a.err = fmt.Errorf("overlay: animation %s: %w", a.SourcePath, err)
		a.comp = nil
		return a.err
	}
	path := a.SourcePath
	a.comp.OnRestorePrevious = func() {
		logger().WithField("path", path).Warn("restore-to-previous disposal is not supported, leaving frame in place")
	}
	a.loop = 0
	for i := range a.comp.FrameCount() {
		a.loop += a.comp.Delay(i)
	}
	a.err = nil
	a.lastAdvance = time.Time{}
	return nil
}

func (a *AnimatedImage) handleEvent(s *Scene, self Handle, ev Event) bool {
	return handleObjectEvent(s, self, a, ev)
}

// tick advances the animation to the frame due at now. Frames are advanced
// on their exact schedule, catching up when ticks arrive late; when more than
// a whole loop behind, the schedule restarts from now. It returns whether the
// displayed frame changed and how long until the next frame is due.
func (a *AnimatedImage) tick(now time.Time) (advanced bool, wait time.Duration) {
	if !a.Valid() || a.comp.FrameCount() < 2 {
		return false, NoTimeout
	}
	if a.lastAdvance.IsZero() {
		a.lastAdvance = now
	}
	if now.Sub(a.lastAdvance) >= a.loop+a.comp.Delay(a.comp.Current()) {
		a.lastAdvance = now.Add(-a.comp.Delay(a.comp.Current()))
	}
	for {
		d := a.comp.Delay(a.comp.Current())
		elapsed := now.Sub(a.lastAdvance)
		if elapsed < d {
			return advanced, d - elapsed
		}
		a.lastAdvance = a.lastAdvance.Add(d)
		a.comp.Advance()
		advanced = true
	}
}

func (a *AnimatedImage) emit(s *Scene, self Handle) {
	if !a.Valid() {
		return
	}
	img := a.comp.Image()
	var version uint64
	if img == a.comp.Canvas() {
		version = a.comp.Version()
	}
	a.emitSource(s, self, img, version)
}

func (a *AnimatedImage) descriptor() Descriptor {
	d := a.StaticImage.descriptor()
	d.Type = KindAnimatedImage.String()
	d.CacheFrames = boolPtr(a.CacheFrames)
	return d
}
