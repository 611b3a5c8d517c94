package overlay

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsMissingFile(t *testing.T) {
	st, err := LoadSettings(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.True(t, st.Virgin())
	assert.Equal(t, SettingsVersion, st.Version)
	assert.Equal(t, 136, st.Alpha)
	assert.Equal(t, 600, st.IdleDelayMs)
}

func TestDefaultSettingsGlobalAlpha(t *testing.T) {
	s := NewScene(testArea, newFakeDecoder())
	st := DefaultSettings()
	st.LogoFileName = ""
	require.NoError(t, s.ApplySettings(st))
	assert.InDelta(t, 136.0/255, s.GlobalAlpha(), 1e-9)
}

func TestLoadSettingsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("alpha = [unterminated"), 0o644))
	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dragon.toml")
	st := DefaultSettings()
	st.Hidden = true
	st.Alpha = 128
	st.ScreenRectInit = []int{-1, -1, 1024, -1}
	st.Objects = []Descriptor{
		{Type: "LineField", LineWidth: intPtr(2), LineColor: "#FF0000"},
		{Type: "Label", X: floatPtr(10.5), Y: floatPtr(20.25), Text: "hi", Alpha: intPtr(100)},
	}
	require.NoError(t, SaveSettings(path, st))
	assert.False(t, st.Virgin())
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.False(t, got.Virgin())
	assert.True(t, got.Hidden)
	assert.Equal(t, 128, got.Alpha)
	assert.Equal(t, []int{-1, -1, 1024, -1}, got.ScreenRectInit)
	require.Len(t, got.Objects, 2)
	assert.Equal(t, 2, *got.Objects[0].LineWidth)
	assert.Equal(t, "hi", got.Objects[1].Text)
	assert.Equal(t, 20.25, *got.Objects[1].Y)
	assert.Equal(t, 100, *got.Objects[1].Alpha)
}

func TestSettingsMigratesFixedPositions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.toml")
	old := `
version = "0.2"
logo_file_name = "logo.png"
textPos = [100.0, 200.0]
logoPos = [300.0, 400.0]
`
	require.NoError(t, os.WriteFile(path, []byte(old), 0o644))
	st, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, SettingsVersion, st.Version)
	assert.Nil(t, st.TextPos)
	require.Len(t, st.Objects, 3)

	k, err := st.Objects[0].Kind()
	require.NoError(t, err)
	assert.Equal(t, KindLineField, k)

	k, err = st.Objects[1].Kind()
	require.NoError(t, err)
	assert.Equal(t, KindImage, k)
	assert.Equal(t, 300.0, *st.Objects[1].X)

	k, err = st.Objects[2].Kind()
	require.NoError(t, err)
	assert.Equal(t, KindLabel, k)
	assert.Equal(t, 200.0, *st.Objects[2].Y)
}

func TestSettingsWorkArea(t *testing.T) {
	st := DefaultSettings()
	assert.Equal(t, Rect{Width: 1920, Height: 1080}, st.WorkArea(1920, 1080))

	st.CropBottom = 40
	assert.Equal(t, Rect{Width: 1920, Height: 1040}, st.WorkArea(1920, 1080))

	st.ScreenRectInit = []int{100, -1, 800, -1}
	assert.Equal(t, Rect{X: 100, Width: 800, Height: 1040}, st.WorkArea(1920, 1080))
}

func TestSettingsLabelText(t *testing.T) {
	st := DefaultSettings()
	assert.Equal(t, DefaultText, st.LabelText())

	path := filepath.Join(t.TempDir(), "name.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Jane Doe \nsecond line\n"), 0o644))
	st.TextFileName = path
	assert.Equal(t, "Jane Doe", st.LabelText())

	st.TextContent = "Inline"
	assert.Equal(t, "Inline", st.LabelText())
}

func TestDefaultObjects(t *testing.T) {
	st := DefaultSettings()
	ds := st.DefaultObjects(Rect{Width: 600, Height: 500})
	require.Len(t, ds, 3)
	assert.Equal(t, "LineField", ds[0].Type)
	assert.Equal(t, "logo.png", ds[1].ImageName)
	assert.Equal(t, 500.0, *ds[1].X)
	assert.Equal(t, 100.0, *ds[1].Y)
	assert.Equal(t, DefaultText, ds[2].Text)

	st.LogoFileName = ""
	assert.Len(t, st.DefaultObjects(Rect{Width: 600, Height: 500}), 2)
}

func TestApplyAndSave(t *testing.T) {
	dec := newFakeDecoder()
	dec.images["logo.png"] = solidRGBA(4, 4, white)
	st := DefaultSettings()
	st.Alpha = 51
	st.IdleDelayMs = 250
	st.FontColor = "#00FF00"

	s := NewScene(testArea, dec)
	require.NoError(t, s.ApplySettings(st))
	assert.InDelta(t, 0.2, s.GlobalAlpha(), 1e-9)
	assert.Equal(t, 250*time.Millisecond, s.jitterInterval)
	assert.False(t, s.Dirty())
	require.Len(t, s.Objects(), 3)
	assert.Equal(t, RGB(0, 255, 0), s.Object(2).(*Label).FontColor)

	s.SetHidden(true)
	s.deleteObject(1)
	require.True(t, s.Dirty())

	s.Save(st)
	assert.False(t, s.Dirty())
	assert.True(t, st.Hidden)
	assert.Equal(t, 51, st.Alpha)
	assert.Len(t, st.Objects, 2)
	assert.Len(t, s.Objects(), 2, "saving compacts")
}

func TestDefaultSettingsPath(t *testing.T) {
	p, err := DefaultSettingsPath()
	if err != nil {
		t.Skip("no home directory:", err)
	}
	assert.Equal(t, "dragon", filepath.Base(filepath.Dir(p)))
	assert.Contains(t, filepath.Base(p), "_dragon.settings.toml")
}
