package overlay

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// SettingsVersion is written to every saved settings file.
const SettingsVersion = "0.3"

// DefaultAlpha is the global alpha of a fresh install, out of 255.
const DefaultAlpha = 136

// Settings is the persisted application state.
type Settings struct {
	Version        string  `toml:"version"`
	ScreenRectInit []int   `toml:"screen_rect_init,omitempty"` // x, y, w, h; negative keeps the monitor value
	CropBottom     int     `toml:"crop_bottom"`
	Hidden         bool    `toml:"hidden"`
	Alpha          int     `toml:"alpha"` // 0..255
	IdleDelayMs    int     `toml:"idle_delay_ms"`
	TextContent    string  `toml:"text_content,omitempty"`
	TextFileName   string  `toml:"text_file_name,omitempty"`
	FontName       string  `toml:"font_name"`
	FontSize       float64 `toml:"font_size"`
	FontColor      string  `toml:"font_color"`
	LogoFileName   string  `toml:"logo_file_name,omitempty"`

	Objects []Descriptor `toml:"objects"`

	// Written by version 0.2, migrated into Objects on load.
	TextPos []float64 `toml:"textPos,omitempty"`
	LogoPos []float64 `toml:"logoPos,omitempty"`

	// virgin is set when no settings file existed.
	virgin bool
}

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() *Settings {
	return &Settings{
		Version:      SettingsVersion,
		Alpha:        DefaultAlpha,
		IdleDelayMs:  int(DefaultJitterInterval / time.Millisecond),
		FontName:     DefaultFontName,
		FontSize:     DefaultFontSize,
		FontColor:    ColorWhite.Hex(),
		LogoFileName: "logo.png",
		virgin:       true,
	}
}

// Virgin reports whether the settings were not read from a file.
func (st *Settings) Virgin() bool { return st.virgin }

// DefaultSettingsPath returns ~/.config/dragon/<user>_dragon.settings.toml.
func DefaultSettingsPath() (string, error) {
	dir, err := homedir.Expand("~/.config/dragon")
	if err != nil {
		return "", fmt.Errorf("overlay: settings dir: %w", err)
	}
	name := "user"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = filepath.Base(u.Username)
	}
	return filepath.Join(dir, name+"_dragon.settings.toml"), nil
}

// LoadSettings reads path. A missing file yields DefaultSettings.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("overlay: read settings: %w", err)
	}
	st := DefaultSettings()
	st.virgin = false
	if err := toml.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("overlay: parse settings %s: %w", path, err)
	}
	st.migrate()
	return st, nil
}

// migrate converts the fixed text and logo positions of version 0.2 into
// object descriptors.
func (st *Settings) migrate() {
	if len(st.Objects) > 0 || (len(st.TextPos) < 2 && len(st.LogoPos) < 2) {
		return
	}
	st.Objects = append(st.Objects, Descriptor{Type: KindLineField.String()})
	if len(st.LogoPos) >= 2 && st.LogoFileName != "" {
		st.Objects = append(st.Objects, Descriptor{
			X:         floatPtr(st.LogoPos[0]),
			Y:         floatPtr(st.LogoPos[1]),
			ImageName: st.LogoFileName,
		})
	}
	if len(st.TextPos) >= 2 {
		st.Objects = append(st.Objects, Descriptor{
			Type: KindLabel.String(),
			X:    floatPtr(st.TextPos[0]),
			Y:    floatPtr(st.TextPos[1]),
		})
	}
	st.TextPos, st.LogoPos = nil, nil
	st.Version = SettingsVersion
}

// SaveSettings writes st to path through a temporary file.
func SaveSettings(path string, st *Settings) error {
	st.Version = SettingsVersion
	data, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("overlay: encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("overlay: settings dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("overlay: write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("overlay: write settings: %w", err)
	}
	st.virgin = false
	return nil
}

// WorkArea returns the monitor rectangle minus CropBottom, with any
// non-negative ScreenRectInit component taking precedence.
func (st *Settings) WorkArea(monitorW, monitorH int) Rect {
	r := Rect{Width: float64(monitorW), Height: float64(monitorH - max(st.CropBottom, 0))}
	fields := []*float64{&r.X, &r.Y, &r.Width, &r.Height}
	for i, v := range st.ScreenRectInit {
		if i < len(fields) && v >= 0 {
			*fields[i] = float64(v)
		}
	}
	return r
}

// LabelText returns the text for new labels: TextContent, else the first
// line of TextFileName, else DefaultText.
func (st *Settings) LabelText() string {
	if st.TextContent != "" {
		return st.TextContent
	}
	if st.TextFileName != "" {
		if f, err := os.Open(st.TextFileName); err == nil {
			defer f.Close()
			sc := bufio.NewScanner(f)
			if sc.Scan() {
				if line := strings.TrimSpace(sc.Text()); line != "" {
					return line
				}
			}
		}
	}
	return DefaultText
}

// DefaultObjects returns the first-run scene for area: the line field, the
// logo at five sixths of the width and a fifth of the height, and a label
// below it.
func (st *Settings) DefaultObjects(area Rect) []Descriptor {
	ds := []Descriptor{{Type: KindLineField.String()}}
	x := area.X + area.Width*5/6
	y := area.Y + area.Height/5
	if st.LogoFileName != "" {
		ds = append(ds, Descriptor{
			Type:      KindImage.String(),
			X:         floatPtr(x),
			Y:         floatPtr(y),
			ImageName: st.LogoFileName,
		})
	}
	ds = append(ds, Descriptor{
		Type:      KindLabel.String(),
		X:         floatPtr(x),
		Y:         floatPtr(y + st.FontSize*1.5),
		Text:      st.LabelText(),
		FontName:  st.FontName,
		FontSize:  st.FontSize,
		FontColor: st.FontColor,
	})
	return ds
}

// ApplySettings configures s from st and loads its objects, or the default
// objects when st has none.
func (s *Scene) ApplySettings(st *Settings) error {
	s.SetHidden(st.Hidden)
	s.SetGlobalAlpha(float64(st.Alpha) / 255)
	s.SetJitterInterval(time.Duration(st.IdleDelayMs) * time.Millisecond)
	d := LabelDefaults{FontName: st.FontName, FontSize: st.FontSize, FontColor: ColorWhite}
	if c, err := ParseColor(st.FontColor); err == nil {
		d.FontColor = c
	}
	s.SetLabelDefaults(d)

	objs := st.Objects
	if len(objs) == 0 {
		objs = st.DefaultObjects(s.workArea)
	}
	err := s.LoadDescriptors(objs)
	s.dirty = false
	return err
}

// Save compacts the scene when no object is being dragged and writes its
// state into st. It clears the dirty flag.
func (s *Scene) Save(st *Settings) {
	s.Compact()
	st.Hidden = s.hidden
	st.Alpha = int(math.Round(s.globalAlpha * 255))
	st.Objects = s.Descriptors()
	s.dirty = false
}
