package overlay

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/ncruces/zenity"
)

// RunOptions configures Run.
type RunOptions struct {
	Title        string
	Settings     *Settings
	SettingsPath string // where Settings is saved on quit; empty disables saving
	Decoder      Decoder
	ImportDir    string // dropped files are copied here; defaults next to SettingsPath
	Watch        bool   // reload images when their files change
	Debug        bool
	Seed         uint64 // dash jitter seed; zero keeps the time-based seed

	// Script, when set, replays scripted input. ScreenshotDir receives the
	// PNGs of its "screenshot" steps.
	Script        *TestRunner
	ScreenshotDir string
}

// Game is the Ebitengine host for a Scene. Update polls input into the
// scene's queue and ticks it; Draw repaints only when the scene asks.
type Game struct {
	scene  *Scene
	opts   RunOptions
	queue  EventQueue
	poller ebitenPoller

	picks   chan string
	picking bool
	watcher *Watcher

	screenshotQueue []string
}

// NewGame creates a host for s.
func NewGame(s *Scene, opts RunOptions) *Game {
	g := &Game{scene: s, opts: opts, picks: make(chan string, 1)}
	if opts.Script != nil {
		opts.Script.OnScreenshot = g.Screenshot
	}
	return g
}

// Scene returns the hosted scene.
func (g *Game) Scene() *Scene { return g.scene }

// Run creates the transparent always-on-top window covering the work area
// and runs the overlay until the user quits.
func Run(opts RunOptions) error {
	st := opts.Settings
	if st == nil {
		st = DefaultSettings()
		opts.Settings = st
	}
	if opts.Decoder == nil {
		opts.Decoder = NewFileDecoder(fontDirs(opts.SettingsPath)...)
	}
	if opts.ImportDir == "" && opts.SettingsPath != "" {
		opts.ImportDir = filepath.Join(filepath.Dir(opts.SettingsPath), "images")
	}

	mw, mh := ebiten.Monitor().Size()
	area := st.WorkArea(mw, mh)

	s := NewScene(Rect{Width: area.Width, Height: area.Height}, opts.Decoder)
	s.SetDebugMode(opts.Debug)
	if opts.Seed != 0 {
		s.SetSeed(opts.Seed)
	}
	if err := s.ApplySettings(st); err != nil {
		logger().WithError(err).Warn("some objects could not be loaded")
	}
	s.SetWindowController(ebitenWindow{})

	g := NewGame(s, opts)
	if opts.Watch {
		w, err := NewWatcher()
		if err != nil {
			logger().WithError(err).Warn("file watching disabled")
		} else {
			g.watcher = w
			defer w.Close()
			w.Sync(s.ImagePaths())
		}
	}

	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowDecorated(false)
	ebiten.SetWindowFloating(true)
	ebiten.SetWindowPosition(int(area.X), int(area.Y))
	ebiten.SetWindowSize(int(area.Width), int(area.Height))
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetScreenClearedEveryFrame(false)

	err := ebiten.RunGameWithOptions(g, &ebiten.RunGameOptions{ScreenTransparent: true})
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	return err
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	s := g.scene
	if g.opts.Script != nil {
		g.opts.Script.Step(s, &g.queue)
	}
	g.poller.poll(&g.queue)
	g.queue.Drain(s)

	g.importDropped()
	g.collectPicks()
	if s.TakeOpenRequest() {
		g.openPicker()
	}
	if s.TakePasteRequest() {
		g.paste()
	}
	if g.watcher != nil {
		for _, p := range g.watcher.Changed() {
			s.Reload(p)
		}
	}

	s.Tick(time.Now())
	ebiten.SetCursorShape(s.Cursor())
	if ebiten.IsWindowMinimized() {
		ebiten.RestoreWindow()
		s.markRedraw()
	}

	if s.QuitRequested() {
		g.save()
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.scene.NeedsRedraw() {
		g.scene.Draw(screen)
	}
	g.flushScreenshots(screen)
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	r := g.scene.WorkArea()
	return int(r.Width), int(r.Height)
}

func (g *Game) save() {
	s := g.scene
	st := g.opts.Settings
	if g.opts.SettingsPath == "" || (!s.Dirty() && !st.Virgin()) {
		return
	}
	s.Save(st)
	if err := SaveSettings(g.opts.SettingsPath, st); err != nil {
		logger().WithError(err).Error("saving settings")
		return
	}
	logger().WithField("path", g.opts.SettingsPath).Info("settings saved")
}

// importDropped copies files dropped on the window into ImportDir and adds
// them at the cursor.
func (g *Game) importDropped() {
	fsys := ebiten.DroppedFiles()
	if fsys == nil {
		return
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		logger().WithError(err).Warn("reading dropped files")
		return
	}
	mx, my := ebiten.CursorPosition()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path, err := g.importFile(fsys, e.Name())
		if err != nil {
			logger().WithField("file", e.Name()).WithError(err).Warn("import failed")
			continue
		}
		g.addImage(Vec2{float64(mx), float64(my)}, path)
	}
}

func (g *Game) importFile(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", err
	}
	dir := g.opts.ImportDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(name))
	return path, os.WriteFile(path, data, 0o644)
}

// openPicker shows a file dialog without blocking the game loop.
func (g *Game) openPicker() {
	if g.picking {
		return
	}
	g.picking = true
	go func() {
		path, err := zenity.SelectFile(
			zenity.Title("Add Image"),
			zenity.FileFilters{{
				Name:     "Images",
				Patterns: []string{"*.png", "*.jpg", "*.jpeg", "*.gif", "*.bmp", "*.webp"},
			}},
		)
		if err != nil && !errors.Is(err, zenity.ErrCanceled) {
			logger().WithError(err).Warn("file dialog")
		}
		g.picks <- path
	}()
}

func (g *Game) collectPicks() {
	select {
	case path := <-g.picks:
		g.picking = false
		if path != "" {
			g.addImage(g.scene.WorkArea().Center(), path)
		}
	default:
	}
}

// paste adds the clipboard text as a label, or as an image when it names a
// file.
func (g *Game) paste() {
	text, err := clipboard.ReadAll()
	if err != nil {
		logger().WithError(err).Warn("reading clipboard")
		return
	}
	o, err := g.scene.Paste(text)
	if err != nil {
		logger().WithError(err).Warn("cannot paste")
		return
	}
	if _, ok := o.(*Label); !ok && o != nil && g.watcher != nil {
		g.watcher.Sync(g.scene.ImagePaths())
	}
}

func (g *Game) addImage(pos Vec2, path string) {
	if _, err := g.scene.AddImage(pos, path); err != nil {
		logger().WithField("path", path).WithError(err).Warn("cannot add image")
		return
	}
	if g.watcher != nil {
		g.watcher.Sync(g.scene.ImagePaths())
	}
}

// fontDirs lists where label fonts are looked up: next to the settings
// file, then the working directory.
func fontDirs(settingsPath string) []string {
	dirs := []string{"."}
	if settingsPath != "" {
		dirs = append([]string{filepath.Dir(settingsPath)}, dirs...)
	}
	return dirs
}
