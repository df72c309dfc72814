package watermark

import (
	"fmt"
	"math"
)

// Size is a width x height pair in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Options holds every parameter that shapes a watermark command.
// Builders only read it; mutation goes through Option values so that
// invalid input is rejected before it is stored.
type Options struct {
	Position Position
	OffsetX  int
	OffsetY  int
	Tiled    bool
	TileSize Size
	Font     string
	FontSize int
	Opacity  float64
	Rotation int
	Style    Style
}

func DefaultOptions() Options {
	return Options{
		Position: Center,
		TileSize: Size{Width: 100, Height: 100},
		Font:     "Arial",
		FontSize: 24,
		Opacity:  0.3,
		Style:    StyleDissolve,
	}
}

// Option mutates Options after validating its input.
type Option func(*Options) error

// Apply runs opts against a copy of o and commits the copy only if every
// option succeeded. On error o is left untouched.
func (o *Options) Apply(opts ...Option) error {
	next := *o
	for _, opt := range opts {
		if err := opt(&next); err != nil {
			return err
		}
	}
	*o = next
	return nil
}

func WithPosition(p Position) Option {
	return func(o *Options) error {
		if !p.Valid() {
			return &ConfigError{Field: "position", Value: string(p), Err: ErrInvalidPosition}
		}
		o.Position = p
		return nil
	}
}

func WithOffset(x, y int) Option {
	return func(o *Options) error {
		o.OffsetX, o.OffsetY = x, y
		return nil
	}
}

func WithTiled(tiled bool) Option {
	return func(o *Options) error {
		o.Tiled = tiled
		return nil
	}
}

// WithTileSize sets the canvas a tiled mark is drawn on before it is
// repeated across the source.
func WithTileSize(width, height int) Option {
	return func(o *Options) error {
		if width <= 0 || height <= 0 {
			return &ConfigError{Field: "tile size", Value: Size{width, height}, Err: ErrInvalidTileSize}
		}
		o.TileSize = Size{Width: width, Height: height}
		return nil
	}
}

// WithFont sets the font name passed to ImageMagick. It is not checked
// against the installed fonts; see `convert -list font`.
func WithFont(font string) Option {
	return func(o *Options) error {
		o.Font = font
		return nil
	}
}

func WithFontSize(size int) Option {
	return func(o *Options) error {
		if size <= 0 {
			return &ConfigError{Field: "font size", Value: size, Err: ErrInvalidFontSize}
		}
		o.FontSize = size
		return nil
	}
}

// WithOpacity sets the opacity, from 0 (invisible) to 1 (opaque).
func WithOpacity(opacity float64) Option {
	return func(o *Options) error {
		if math.IsNaN(opacity) || opacity < 0 || opacity > 1 {
			return &ConfigError{Field: "opacity", Value: opacity, Err: ErrInvalidOpacity}
		}
		o.Opacity = opacity
		return nil
	}
}

// WithRotation stores the absolute value of degrees.
func WithRotation(degrees int) Option {
	return func(o *Options) error {
		if degrees < 0 {
			degrees = -degrees
		}
		o.Rotation = degrees
		return nil
	}
}

func WithStyle(s Style) Option {
	return func(o *Options) error {
		if !s.Valid() {
			return &ConfigError{Field: "style", Value: int(s), Err: ErrInvalidStyle}
		}
		o.Style = s
		return nil
	}
}
