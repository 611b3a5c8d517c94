package overlay

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"after-drag", "after-drag"},
		{"frame.01", "frame.01"},
		{"has spaces", "has_spaces"},
		{"path/to/thing", "path_to_thing"},
		{"back\\slash", "back_slash"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
	}
	for _, tt := range tests {
		if got := sanitizeLabel(tt.in); got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnpremultiply(t *testing.T) {
	pixels := []byte{
		64, 32, 0, 128, // half alpha
		10, 20, 30, 255, // opaque
		0, 0, 0, 0, // clear
	}
	img := unpremultiply(pixels, 3, 1)
	if got := img.Pix[0:4]; got[0] != 127 || got[1] != 63 || got[2] != 0 || got[3] != 128 {
		t.Errorf("half alpha pixel = %v", got)
	}
	if got := img.Pix[4:8]; got[0] != 10 || got[1] != 20 || got[2] != 30 || got[3] != 255 {
		t.Errorf("opaque pixel = %v", got)
	}
	if got := img.Pix[8:12]; got[3] != 0 {
		t.Errorf("clear pixel alpha = %d", got[3])
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	img := unpremultiply([]byte{255, 0, 0, 255}, 1, 1)
	if err := writePNG(path, img); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, a := got.At(0, 0).RGBA(); r != 0xffff || a != 0xffff {
		t.Errorf("pixel = %v", got.At(0, 0))
	}
}

func TestWritePNGBadDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "shot.png")
	if err := writePNG(path, unpremultiply(nil, 0, 0)); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
