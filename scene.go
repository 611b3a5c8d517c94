package overlay

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus"
)

// Handle identifies an object by its index in the scene's object list.
// Handles stay stable until Compact runs.
type Handle int

// NoHandle means no object, e.g. when nothing holds pointer capture.
const NoHandle Handle = -1

// Global alpha steps.
const (
	alphaKeyStep   = 17.0 / 255
	alphaWheelStep = 5.0 / 255
)

// DefaultJitterInterval is how often dashed lines re-randomize their phase.
const DefaultJitterInterval = 600 * time.Millisecond

const defaultCommandCap = 64

var errNoDecoder = errors.New("overlay: scene has no decoder")

// WindowController is implemented by the host window. The scene tells it to
// let pointer input through to the desktop whenever layout mode is off.
type WindowController interface {
	SetClickThrough(enabled bool)
}

// LabelDefaults is applied to labels created through AddLabel.
type LabelDefaults struct {
	FontName  string
	FontSize  float64
	FontColor Color
}

// Scene owns the object list and every piece of interaction state: pointer
// capture, layout mode, global alpha and the redraw and persistence flags.
// It is not safe for concurrent use; the host calls Dispatch, Tick and Draw
// from a single goroutine.
type Scene struct {
	objects []Object
	lines   *LineField

	capture    Handle
	dragOrigin Vec2
	dragOffset Vec2

	layoutMode  bool
	hidden      bool
	globalAlpha float64

	needsRedraw bool
	dirty       bool
	quit        bool
	openRequest  bool
	pasteRequest bool
	cursor      ebiten.CursorShapeType

	workArea      Rect
	labelDefaults LabelDefaults
	decoder       Decoder
	window        WindowController
	debug         bool

	jitterInterval time.Duration
	lastJitter     time.Time
	jitterSeed     uint64
	jitterCycle    uint64
	jitterPCG      *rand.PCG
	jitterRng      *rand.Rand

	frameAlpha float64
	frameFade  *fade

	commands []RenderCommand
	textures textureCache
	version  uint64
}

// NewScene creates a scene covering workArea with a default line field.
// dec loads every object added afterwards.
func NewScene(workArea Rect, dec Decoder) *Scene {
	pcg := rand.NewPCG(0, 0)
	s := &Scene{
		capture:        NoHandle,
		globalAlpha:    1,
		needsRedraw:    true,
		workArea:       workArea,
		decoder:        dec,
		jitterInterval: DefaultJitterInterval,
		jitterSeed:     uint64(time.Now().UnixNano()),
		jitterPCG:      pcg,
		jitterRng:      rand.New(pcg),
		labelDefaults:  LabelDefaults{FontName: DefaultFontName, FontSize: DefaultFontSize, FontColor: ColorWhite},
		commands:       make([]RenderCommand, 0, defaultCommandCap),
	}
	s.lines = NewLineField(DefaultLineStyle())
	s.objects = append(s.objects, s.lines)
	return s
}

// --- Accessors ---

// Objects returns the object list in paint order. The returned slice MUST
// NOT be mutated.
func (s *Scene) Objects() []Object { return s.objects }

// Object returns the object for h, or nil when h is out of range.
func (s *Scene) Object(h Handle) Object {
	if h < 0 || int(h) >= len(s.objects) {
		return nil
	}
	return s.objects[h]
}

// LineField returns the scene's line field.
func (s *Scene) LineField() *LineField { return s.lines }

// Capture returns the handle of the object being dragged, or NoHandle.
func (s *Scene) Capture() Handle { return s.capture }

// LayoutMode reports whether objects can currently be edited.
func (s *Scene) LayoutMode() bool { return s.layoutMode }

// Hidden reports whether the overlay is hidden.
func (s *Scene) Hidden() bool { return s.hidden }

// GlobalAlpha returns the scene alpha in [0, 1].
func (s *Scene) GlobalAlpha() float64 { return s.globalAlpha }

// NeedsRedraw reports whether Draw has pending changes to present.
func (s *Scene) NeedsRedraw() bool { return s.needsRedraw }

// Dirty reports whether the scene changed since the last Save.
func (s *Scene) Dirty() bool { return s.dirty }

// QuitRequested reports whether the user asked to quit.
func (s *Scene) QuitRequested() bool { return s.quit }

// Cursor returns the pointer shape the host should display.
func (s *Scene) Cursor() ebiten.CursorShapeType { return s.cursor }

// WorkArea returns the rectangle covered by the overlay.
func (s *Scene) WorkArea() Rect { return s.workArea }

// TakeOpenRequest reports and clears a pending request to pick a file.
func (s *Scene) TakeOpenRequest() bool {
	r := s.openRequest
	s.openRequest = false
	return r
}

// TakePasteRequest reports and clears a pending request to paste the
// clipboard.
func (s *Scene) TakePasteRequest() bool {
	r := s.pasteRequest
	s.pasteRequest = false
	return r
}

// --- Configuration ---

// SetWindowController sets the window told about click-through changes.
func (s *Scene) SetWindowController(w WindowController) {
	s.window = w
	if w != nil {
		w.SetClickThrough(!s.layoutMode)
	}
}

// SetWorkArea resizes the area covered by the overlay and the line field.
func (s *Scene) SetWorkArea(r Rect) {
	s.workArea = r
	s.markRedraw()
}

// SetLabelDefaults sets the font used by AddLabel.
func (s *Scene) SetLabelDefaults(d LabelDefaults) { s.labelDefaults = d }

// SetSeed makes the dash jitter deterministic.
func (s *Scene) SetSeed(seed uint64) {
	s.jitterSeed = seed
	s.jitterCycle = 0
	s.markRedraw()
}

// SetJitterInterval sets how often dashed lines re-randomize. Non-positive
// values restore DefaultJitterInterval.
func (s *Scene) SetJitterInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultJitterInterval
	}
	s.jitterInterval = d
}

// SetLayoutMode switches layout mode on or off.
func (s *Scene) SetLayoutMode(on bool) {
	if s.layoutMode == on {
		return
	}
	s.layoutMode = on
	if !on {
		s.releaseCapture()
	}
	if s.window != nil {
		s.window.SetClickThrough(!on)
	}
	to := 0.0
	if on {
		to = 1
	}
	s.frameFade = newFade(s.frameAlpha, to, layoutFadeDuration)
	s.markRedraw()
}

// SetHidden hides or shows the whole overlay.
func (s *Scene) SetHidden(hidden bool) {
	if s.hidden == hidden {
		return
	}
	s.hidden = hidden
	s.markDirty()
}

// SetGlobalAlpha sets the scene alpha, clamped to [0, 1].
func (s *Scene) SetGlobalAlpha(a float64) {
	a = clamp01(a)
	if a == s.globalAlpha {
		return
	}
	s.globalAlpha = a
	s.markDirty()
}

// SetDebugMode enables per-frame timing logs.
func (s *Scene) SetDebugMode(enabled bool) { s.debug = enabled }

// Quit asks the host loop to stop.
func (s *Scene) Quit() { s.quit = true }

// --- Object management ---

// loader is implemented by objects that decode their content on adoption.
type loader interface {
	load(dec Decoder) error
}

// Add loads o through the scene's Decoder and appends it. An object that
// fails to load is still added, logged and left invalid; the error is
// returned. A *LineField replaces the style of the scene's line field.
func (s *Scene) Add(o Object) (Handle, error) {
	if lf, ok := o.(*LineField); ok {
		s.lines.Style = lf.Style
		s.lines.ID = lf.ID
		s.markRedraw()
		return s.handleOf(s.lines), nil
	}
	var err error
	if l, ok := o.(loader); ok {
		if s.decoder == nil {
			err = errNoDecoder
			o.Base().err = err
		} else {
			err = l.load(s.decoder)
		}
		if err != nil {
			logger().WithFields(logrus.Fields{
				"id":   o.Base().ID,
				"type": o.Kind().String(),
			}).WithError(err).Warn("object failed to load")
		}
	}
	s.objects = append(s.objects, o)
	s.markRedraw()
	return Handle(len(s.objects) - 1), err
}

// AddLabel creates a label showing text centred at pos using the scene's
// label defaults. Labels that fail to rasterize are not added.
func (s *Scene) AddLabel(pos Vec2, text string) (*Label, error) {
	l := NewLabel(uuid.Nil, pos, text)
	l.FontName = s.labelDefaults.FontName
	l.FontSize = s.labelDefaults.FontSize
	l.FontColor = s.labelDefaults.FontColor
	if err := s.adopt(l); err != nil {
		return nil, err
	}
	return l, nil
}

// AddImage creates a static or animated image for the file at path,
// depending on its content, centred at pos. Files that cannot be decoded
// are rejected.
func (s *Scene) AddImage(pos Vec2, path string) (Object, error) {
	if s.decoder == nil {
		return nil, errNoDecoder
	}
	kind, err := s.decoder.Sniff(path)
	if err != nil {
		return nil, err
	}
	var o Object
	switch kind {
	case KindAnimatedImage:
		o = NewAnimatedImage(uuid.Nil, pos, path)
	case KindImage:
		o = NewStaticImage(uuid.Nil, pos, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err := s.adopt(o); err != nil {
		return nil, err
	}
	return o, nil
}

// Paste adds pasted text at the centre of the work area: an image when the
// text names an existing file, a label otherwise. Blank text adds nothing
// and returns a nil object.
func (s *Scene) Paste(text string) (Object, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	center := s.workArea.Center()
	if path := strings.Trim(strings.TrimPrefix(text, "file://"), `"`); !strings.ContainsRune(path, '\n') {
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return s.AddImage(center, path)
		}
	}
	return s.AddLabel(center, text)
}

// adopt loads o and appends it only on success.
func (s *Scene) adopt(o Object) error {
	if l, ok := o.(loader); ok {
		if s.decoder == nil {
			return errNoDecoder
		}
		if err := l.load(s.decoder); err != nil {
			return err
		}
	}
	s.objects = append(s.objects, o)
	s.markDirty()
	return nil
}

// Reload decodes every image whose source is path again. It is used when a
// file changes on disk.
func (s *Scene) Reload(path string) int {
	if s.decoder == nil {
		return 0
	}
	n := 0
	for _, o := range s.objects {
		var src string
		switch v := o.(type) {
		case *StaticImage:
			src = v.SourcePath
		case *AnimatedImage:
			src = v.SourcePath
		default:
			continue
		}
		if !samePath(src, path) || o.Base().deleted {
			continue
		}
		if err := o.(loader).load(s.decoder); err != nil {
			logger().WithField("path", path).WithError(err).Warn("reload failed")
			continue
		}
		n++
	}
	if n > 0 {
		s.markRedraw()
	}
	return n
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}

// ImagePaths returns the source paths of all live images.
func (s *Scene) ImagePaths() []string {
	var paths []string
	for _, o := range s.objects {
		if o.Base().deleted {
			continue
		}
		switch v := o.(type) {
		case *StaticImage:
			paths = append(paths, v.SourcePath)
		case *AnimatedImage:
			paths = append(paths, v.SourcePath)
		}
	}
	return paths
}

// Compact drops deleted objects from the list. Handles are renumbered, so
// it does nothing while an object holds capture. It returns the number of
// objects removed.
func (s *Scene) Compact() int {
	if s.capture != NoHandle {
		return 0
	}
	kept := s.objects[:0]
	for _, o := range s.objects {
		if o.Base().deleted && o != Object(s.lines) {
			continue
		}
		kept = append(kept, o)
	}
	n := len(s.objects) - len(kept)
	clear(s.objects[len(kept):])
	s.objects = kept
	return n
}

func (s *Scene) handleOf(o Object) Handle {
	for i, x := range s.objects {
		if x == o {
			return Handle(i)
		}
	}
	return NoHandle
}

// --- State transitions used by the object handlers ---

func (s *Scene) markRedraw() { s.needsRedraw = true }

func (s *Scene) markDirty() {
	s.dirty = true
	s.needsRedraw = true
}

func (s *Scene) setCursor(c ebiten.CursorShapeType) { s.cursor = c }

func (s *Scene) beginCapture(h Handle, pt, pos Vec2) {
	s.capture = h
	s.dragOrigin = pt
	s.dragOffset = pt.Sub(pos)
	s.markRedraw()
}

func (s *Scene) releaseCapture() {
	if s.capture == NoHandle {
		return
	}
	s.capture = NoHandle
	s.markRedraw()
}

// captured returns the capturing object, clearing a stale capture.
func (s *Scene) captured() Object {
	o := s.Object(s.capture)
	if o == nil || !o.Valid() {
		s.capture = NoHandle
		return nil
	}
	return o
}

func (s *Scene) deleteObject(h Handle) {
	o := s.Object(h)
	if o == nil || o == Object(s.lines) {
		return
	}
	o.Base().deleted = true
	if s.capture == h {
		s.releaseCapture()
	}
	s.markDirty()
}

// jitterRand returns the dash-phase generator for the current jitter
// cycle. It is reseeded on every call, so every draw within one cycle
// produces the same pattern.
func (s *Scene) jitterRand() *rand.Rand {
	s.jitterPCG.Seed(s.jitterSeed, s.jitterCycle)
	return s.jitterRng
}

func (s *Scene) nextVersion() uint64 {
	s.version++
	return s.version
}
