package overlay

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// layoutFadeDuration is how long the layout frame takes to appear or vanish.
const layoutFadeDuration = 250 * time.Millisecond

// fade tweens a single value driven by wall-clock ticks rather than a fixed
// frame step, since the scene only ticks when something is scheduled.
type fade struct {
	tween *gween.Tween
	last  time.Time
	value float64
	done  bool
}

func newFade(from, to float64, d time.Duration) *fade {
	return &fade{
		tween: gween.New(float32(from), float32(to), float32(d.Seconds()), ease.OutQuad),
		value: from,
	}
}

// update advances the tween by the time since the previous update. The
// first call only starts the clock.
func (f *fade) update(now time.Time) (float64, bool) {
	if f.done {
		return f.value, true
	}
	if f.last.IsZero() {
		f.last = now
		return f.value, false
	}
	dt := now.Sub(f.last)
	f.last = now
	val, finished := f.tween.Update(float32(dt.Seconds()))
	f.value = float64(val)
	f.done = finished
	return f.value, finished
}
