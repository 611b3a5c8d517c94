package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/clone"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp" // register decoder
)

var (
	// ErrUnsupportedFormat is returned for files that are not a supported
	// image format.
	ErrUnsupportedFormat = errors.New("overlay: unsupported image format")
	// ErrEmptyText is returned when rasterizing text with no visible extent.
	ErrEmptyText = errors.New("overlay: empty text")
)

// Decoder turns files and text into bitmaps. Scenes load every object they
// adopt through one.
type Decoder interface {
	// Sniff inspects the file content and reports whether it should become a
	// KindImage or a KindAnimatedImage.
	Sniff(path string) (ObjectKind, error)
	DecodeImage(path string) (*image.RGBA, error)
	DecodeAnimation(path string) (*AnimationSource, error)
	RasterizeText(fontName string, size float64, c Color, text string) (*image.RGBA, error)
}

// stillMIME lists the still formats DecodeImage understands.
var stillMIME = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/bmp":  true,
	"image/webp": true,
}

// FileDecoder decodes images from disk and rasterizes text with OpenType
// fonts looked up in FontDirs. Fonts that cannot be found fall back to the
// embedded Go Regular face.
type FileDecoder struct {
	FontDirs []string

	mu     sync.Mutex
	fonts  map[string]*opentype.Font
	warned map[string]bool
}

// NewFileDecoder returns a decoder searching fontDirs for font files.
func NewFileDecoder(fontDirs ...string) *FileDecoder {
	return &FileDecoder{FontDirs: fontDirs}
}

// Sniff identifies the file by its magic bytes.
func (d *FileDecoder) Sniff(path string) (ObjectKind, error) {
	kind, err := filetype.MatchFile(path)
	if err != nil {
		return 0, fmt.Errorf("overlay: sniff %s: %w", path, err)
	}
	switch {
	case kind.MIME.Value == "image/gif":
		return KindAnimatedImage, nil
	case stillMIME[kind.MIME.Value]:
		return KindImage, nil
	}
	return 0, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, path, kind.MIME.Value)
}

// DecodeImage decodes a still image into premultiplied RGBA.
func (d *FileDecoder) DecodeImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return clone.AsRGBA(img), nil
}

// DecodeAnimation decodes every frame of a GIF.
func (d *FileDecoder) DecodeAnimation(path string) (*AnimationSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return animationFromGIF(g)
}

// animationFromGIF maps a decoded GIF onto an AnimationSource. The stdlib
// decoder replaces the transparent palette entry with a zero color, which is
// how the transparent index is recovered.
func animationFromGIF(g *gif.GIF) (*AnimationSource, error) {
	if len(g.Image) == 0 {
		return nil, ErrNoFrames
	}
	src := &AnimationSource{
		Width:           g.Config.Width,
		Height:          g.Config.Height,
		BackgroundIndex: int(g.BackgroundIndex),
		Frames:          make([]AnimationFrame, len(g.Image)),
	}
	if pal, ok := g.Config.ColorModel.(color.Palette); ok {
		src.Palette = pal
	}
	if src.Width == 0 || src.Height == 0 {
		b := g.Image[0].Rect
		for _, img := range g.Image[1:] {
			b = b.Union(img.Rect)
		}
		src.Width, src.Height = b.Max.X, b.Max.Y
	}
	for i, img := range g.Image {
		fr := AnimationFrame{Image: img, TransparentIndex: -1}
		if i < len(g.Delay) {
			fr.DelayMs = g.Delay[i] * 10
		}
		if i < len(g.Disposal) {
			fr.Disposal = gifDisposal(g.Disposal[i])
		}
		for idx, c := range img.Palette {
			if _, _, _, a := c.RGBA(); a == 0 {
				fr.TransparentIndex = idx
				break
			}
		}
		src.Frames[i] = fr
	}
	return src, nil
}

func gifDisposal(b byte) Disposal {
	switch b {
	case gif.DisposalNone:
		return DisposalNone
	case gif.DisposalBackground:
		return DisposalRestoreBackground
	case gif.DisposalPrevious:
		return DisposalRestorePrevious
	}
	return DisposalUnspecified
}

// RasterizeText renders text, one line per '\n', into a tightly sized
// bitmap.
func (d *FileDecoder) RasterizeText(fontName string, size float64, c Color, text string) (*image.RGBA, error) {
	if size <= 0 {
		size = DefaultFontSize
	}
	fnt, err := d.font(fontName)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("overlay: font face %s: %w", fontName, err)
	}
	defer face.Close()

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	m := face.Metrics()
	lineH := m.Height.Ceil()
	var w fixed.Int26_6
	for _, ln := range lines {
		w = max(w, font.MeasureString(face, ln))
	}
	if w <= 0 {
		return nil, ErrEmptyText
	}
	h := lineH*(len(lines)-1) + (m.Ascent + m.Descent).Ceil()

	dst := image.NewRGBA(image.Rect(0, 0, w.Ceil(), h))
	dr := font.Drawer{Dst: dst, Src: image.NewUniform(c.toNRGBA()), Face: face}
	for i, ln := range lines {
		dr.Dot = fixed.P(0, m.Ascent.Ceil()+i*lineH)
		dr.DrawString(ln)
	}
	return dst, nil
}

// font returns the parsed font for name, searching FontDirs and falling back
// to Go Regular.
func (d *FileDecoder) font(name string) (*opentype.Font, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f, ok := d.fonts[name]; ok {
		return f, nil
	}
	if d.fonts == nil {
		d.fonts = make(map[string]*opentype.Font)
		d.warned = make(map[string]bool)
	}

	data, path := d.readFont(name)
	if data == nil {
		if !d.warned[name] {
			d.warned[name] = true
			logger().WithField("font", name).Warn("font not found, using Go Regular")
		}
		data = goregular.TTF
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("overlay: parse font %s: %w", path, err)
	}
	d.fonts[name] = f
	return f, nil
}

func (d *FileDecoder) readFont(name string) ([]byte, string) {
	if name == "" {
		return nil, ""
	}
	candidates := []string{name}
	if !filepath.IsAbs(name) {
		candidates = candidates[:0]
		for _, dir := range d.FontDirs {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	for _, p := range candidates {
		if data, err := os.ReadFile(p); err == nil {
			return data, p
		}
	}
	return nil, ""
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
