package overlay

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// testStep represents a single action in a test script.
type testStep struct {
	Action string     `json:"action"`
	Label  string     `json:"label,omitempty"`
	X      float64    `json:"x,omitempty"`
	Y      float64    `json:"y,omitempty"`
	FromX  float64    `json:"fromX,omitempty"`
	FromY  float64    `json:"fromY,omitempty"`
	ToX    float64    `json:"toX,omitempty"`
	ToY    float64    `json:"toY,omitempty"`
	Frames int        `json:"frames,omitempty"`
	Wheel  float64    `json:"wheel,omitempty"`
	Key    ebiten.Key `json:"key,omitempty"`
	Mods   []string   `json:"mods,omitempty"`
	Text   string     `json:"text,omitempty"`
	Path   string     `json:"path,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

var modifierNames = map[string]KeyModifiers{
	"shift": ModShift,
	"ctrl":  ModCtrl,
	"alt":   ModAlt,
	"meta":  ModMeta,
}

// TestRunner replays a scripted sequence of input across frames for
// automated testing. The host calls Step once per frame before draining its
// event queue.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool

	// OnScreenshot is called for "screenshot" steps.
	OnScreenshot func(label string)
}

// LoadTestScript parses a JSON test script.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		for _, m := range st.Mods {
			if _, ok := modifierNames[strings.ToLower(m)]; !ok {
				return nil, fmt.Errorf("parse test script: step %d: unknown modifier %q", i, m)
			}
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// Step runs the next script step, queueing its input on q and acting on s
// for scene-level steps.
func (r *TestRunner) Step(s *Scene, q *EventQueue) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if q.Len() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	var mods KeyModifiers
	for _, m := range st.Mods {
		mods |= modifierNames[strings.ToLower(m)]
	}

	switch st.Action {
	case "screenshot":
		if r.OnScreenshot != nil {
			r.OnScreenshot(st.Label)
		}
	case "click":
		q.InjectClick(st.X, st.Y)
	case "drag":
		q.InjectDrag(st.FromX, st.FromY, st.ToX, st.ToY, max(st.Frames, 1))
	case "wheel":
		q.InjectWheel(st.X, st.Y, st.Wheel, mods)
	case "key":
		q.InjectKey(st.X, st.Y, st.Key, mods)
	case "label":
		if _, err := s.AddLabel(Vec2{st.X, st.Y}, st.Text); err != nil {
			logger().WithError(err).Warn("test script: add label")
		}
	case "image":
		if _, err := s.AddImage(Vec2{st.X, st.Y}, st.Path); err != nil {
			logger().WithError(err).Warn("test script: add image")
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	default:
		logger().WithField("action", st.Action).Warn("test script: unknown action")
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && q.Len() == 0 {
		r.done = true
	}
}
