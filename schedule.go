package overlay

import (
	"time"
)

// NoTimeout is returned by Tick when nothing is scheduled; the host may
// block until the next input event.
const NoTimeout time.Duration = -1

// fadeFrameInterval is the tick period while the layout frame fades.
const fadeFrameInterval = time.Second / 60

// Tick advances time-driven state to now: the dash jitter cycle, animation
// frames and the layout frame fade. It returns how long the host may wait
// before the next tick: 0 when a redraw is pending, NoTimeout when nothing
// is scheduled.
func (s *Scene) Tick(now time.Time) time.Duration {
	timeout := NoTimeout

	if !s.hidden && s.lines.visible(s) && s.lines.Style.jitters() {
		if s.lastJitter.IsZero() {
			s.lastJitter = now
		}
		if elapsed := now.Sub(s.lastJitter); elapsed >= s.jitterInterval {
			s.lastJitter = now
			s.jitterCycle++
			s.markRedraw()
			timeout = minTimeout(timeout, s.jitterInterval)
		} else {
			timeout = minTimeout(timeout, s.jitterInterval-elapsed)
		}
	}

	if !s.hidden {
		for _, o := range s.objects {
			a, ok := o.(*AnimatedImage)
			if !ok || !a.Valid() {
				continue
			}
			advanced, wait := a.tick(now)
			if advanced {
				s.markRedraw()
			}
			timeout = minTimeout(timeout, wait)
		}
	}

	if s.frameFade != nil {
		v, done := s.frameFade.update(now)
		s.frameAlpha = v
		s.markRedraw()
		if done {
			s.frameFade = nil
		} else {
			timeout = minTimeout(timeout, fadeFrameInterval)
		}
	}

	if s.needsRedraw {
		return 0
	}
	return timeout
}

// minTimeout returns the smaller of two timeouts, treating NoTimeout as
// infinite.
func minTimeout(a, b time.Duration) time.Duration {
	switch {
	case a == NoTimeout:
		return b
	case b == NoTimeout:
		return a
	}
	return min(a, b)
}
