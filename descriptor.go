package overlay

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnknownObjectType is returned for descriptors whose type cannot be
// mapped to an object kind.
var ErrUnknownObjectType = errors.New("overlay: unknown object type")

// Descriptor is the persisted form of one object, stored as an [[objects]]
// table in the settings file. Pointer fields distinguish "absent" from a
// zero value.
type Descriptor struct {
	Type   string   `toml:"type"`
	ID     string   `toml:"id,omitempty"`
	X      *float64 `toml:"x,omitempty"`
	Y      *float64 `toml:"y,omitempty"`
	Scale  float64  `toml:"scale,omitempty"`
	Rotate float64  `toml:"rotate,omitempty"`
	Alpha  *int     `toml:"alpha,omitempty"` // 0..255

	// Label
	Text      string  `toml:"text,omitempty"`
	FontName  string  `toml:"font_name,omitempty"`
	FontSize  float64 `toml:"font_size,omitempty"`
	FontColor string  `toml:"font_color,omitempty"`

	// Image and AnimatedImage
	ImageName   string `toml:"image_file_name,omitempty"`
	ImagePath   string `toml:"image_full_path,omitempty"`
	Flip        bool   `toml:"flip_horizontal,omitempty"`
	CacheFrames *bool  `toml:"cache_frames,omitempty"`

	// LineField
	LineWidth  *int     `toml:"line_width,omitempty"`
	LineColor  string   `toml:"line_color,omitempty"`
	LineDashed *bool    `toml:"line_dashed,omitempty"`
	DashLength *int     `toml:"dash_length,omitempty"`
	DashGap    *int     `toml:"dash_gap,omitempty"`
	Angle      *float64 `toml:"angle,omitempty"`
	Spacing    *float64 `toml:"spacing,omitempty"`
}

// legacyTypes maps type names written by older versions.
var legacyTypes = map[string]ObjectKind{
	"Signature":   KindLabel,
	"AnimatedGif": KindAnimatedImage,
}

// Kind resolves the descriptor's object kind. Records without a type are
// typed by their image path extension.
func (d Descriptor) Kind() (ObjectKind, error) {
	for i, name := range kindNames {
		if d.Type == name {
			return ObjectKind(i), nil
		}
	}
	if k, ok := legacyTypes[d.Type]; ok {
		return k, nil
	}
	if d.Type == "" {
		path := d.ImagePath
		if path == "" {
			path = d.ImageName
		}
		if path != "" {
			if strings.EqualFold(filepath.Ext(path), ".gif") {
				return KindAnimatedImage, nil
			}
			return KindImage, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownObjectType, d.Type)
}

// NewObject builds an unloaded object from d. Missing or negative
// coordinates place the object at center.
func (d Descriptor) NewObject(center Vec2) (Object, error) {
	kind, err := d.Kind()
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(d.ID)
	if err != nil {
		id = uuid.Nil
	}
	pos := center
	if d.X != nil && *d.X >= 0 {
		pos.X = *d.X
	}
	if d.Y != nil && *d.Y >= 0 {
		pos.Y = *d.Y
	}
	alpha := 1.0
	if d.Alpha != nil {
		alpha = float64(*d.Alpha) / 255
	}
	base := newObjectBase(id, pos, d.Scale, d.Rotate, alpha)

	switch kind {
	case KindLineField:
		st := DefaultLineStyle()
		if d.LineWidth != nil {
			st.Width = *d.LineWidth
		}
		if c, err := ParseColor(d.LineColor); err == nil {
			st.Color = c
		}
		if d.LineDashed != nil {
			st.Dashed = *d.LineDashed
		}
		if d.DashLength != nil {
			st.DashLength = *d.DashLength
		}
		if d.DashGap != nil {
			st.DashGap = *d.DashGap
		}
		if d.Angle != nil {
			st.Angle = *d.Angle
		}
		if d.Spacing != nil {
			st.Spacing = *d.Spacing
		}
		lf := NewLineField(st)
		lf.ID = base.ID
		return lf, nil

	case KindLabel:
		text := d.Text
		if text == "" {
			text = DefaultText
		}
		l := NewLabel(id, pos, text)
		l.ObjectBase = base
		if d.FontName != "" {
			l.FontName = d.FontName
		}
		if d.FontSize > 0 {
			l.FontSize = d.FontSize
		}
		if c, err := ParseColor(d.FontColor); err == nil {
			l.FontColor = c
		}
		return l, nil

	case KindImage, KindAnimatedImage:
		path := d.ImagePath
		if path == "" {
			path = d.ImageName
		}
		if kind == KindImage {
			m := NewStaticImage(id, pos, path)
			m.ObjectBase = base
			m.FlipHorizontal = d.Flip
			if d.ImageName != "" {
				m.SourceName = d.ImageName
			}
			return m, nil
		}
		a := NewAnimatedImage(id, pos, path)
		a.ObjectBase = base
		a.FlipHorizontal = d.Flip
		if d.ImageName != "" {
			a.SourceName = d.ImageName
		}
		if d.CacheFrames != nil {
			a.CacheFrames = *d.CacheFrames
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownObjectType, kind)
}

// baseDescriptor fills the fields shared by positioned objects.
func baseDescriptor(kind ObjectKind, b *ObjectBase) Descriptor {
	return Descriptor{
		Type:   kind.String(),
		ID:     b.ID.String(),
		X:      floatPtr(roundTo(b.Position.X, 4)),
		Y:      floatPtr(roundTo(b.Position.Y, 4)),
		Scale:  roundTo(b.Scale, 4),
		Rotate: roundTo(b.Rotation, 4),
		Alpha:  intPtr(int(math.Round(clamp01(b.Alpha) * 255))),
	}
}

// Descriptors returns the descriptors of all valid objects in list order.
func (s *Scene) Descriptors() []Descriptor {
	ds := make([]Descriptor, 0, len(s.objects))
	for _, o := range s.objects {
		if o.Valid() {
			ds = append(ds, o.descriptor())
		}
	}
	return ds
}

// LoadDescriptors creates and loads an object for every descriptor. Objects
// that fail are logged and skipped or left invalid; the errors are returned
// joined.
func (s *Scene) LoadDescriptors(ds []Descriptor) error {
	var errs []error
	center := s.workArea.Center()
	for i, d := range ds {
		o, err := d.NewObject(center)
		if err != nil {
			logger().WithField("index", i).WithError(err).Warn("skipping object")
			errs = append(errs, fmt.Errorf("object %d: %w", i, err))
			continue
		}
		if _, err := s.Add(o); err != nil {
			errs = append(errs, fmt.Errorf("object %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }
