package watermark

import (
	"context"
	"strconv"
	"strings"
	"unicode"
)

// Params is the loose, serializable form of Options used by the CLI, the
// HTTP API and the job queue. Zero values leave the default in place,
// except Opacity which is a pointer because 0 is a valid opacity.
type Params struct {
	Position   string   `json:"position,omitempty"`
	OffsetX    int      `json:"offset_x,omitempty"`
	OffsetY    int      `json:"offset_y,omitempty"`
	Tiled      bool     `json:"tiled,omitempty"`
	TileWidth  int      `json:"tile_width,omitempty"`
	TileHeight int      `json:"tile_height,omitempty"`
	Font       string   `json:"font,omitempty"`
	FontSize   int      `json:"font_size,omitempty"`
	Opacity    *float64 `json:"opacity,omitempty"`
	Rotation   int      `json:"rotation,omitempty"`
	Style      string   `json:"style,omitempty"`
}

// Options converts p into Option values, failing on the first field that
// does not parse.
func (p Params) Options() ([]Option, error) {
	var opts []Option
	if p.Position != "" {
		pos, err := ParsePosition(p.Position)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithPosition(pos))
	}
	if p.OffsetX != 0 || p.OffsetY != 0 {
		opts = append(opts, WithOffset(p.OffsetX, p.OffsetY))
	}
	if p.Tiled {
		opts = append(opts, WithTiled(true))
	}
	if p.TileWidth != 0 || p.TileHeight != 0 {
		opts = append(opts, WithTileSize(p.TileWidth, p.TileHeight))
	}
	if p.Font != "" {
		opts = append(opts, WithFont(p.Font))
	}
	if p.FontSize != 0 {
		opts = append(opts, WithFontSize(p.FontSize))
	}
	if p.Opacity != nil {
		opts = append(opts, WithOpacity(*p.Opacity))
	}
	if p.Rotation != 0 {
		opts = append(opts, WithRotation(p.Rotation))
	}
	if p.Style != "" {
		s, err := ParseStyle(p.Style)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithStyle(s))
	}
	return opts, nil
}

// Request is one complete watermark invocation: a source, an optional
// output, exactly one of Text or Image, and the options.
type Request struct {
	Source string `json:"source"`
	Output string `json:"output,omitempty"`
	Text   string `json:"text,omitempty"`
	Image  string `json:"image,omitempty"`
	Params
}

// Open creates a session for r.Source through open and loads the options
// and the marker into it.
func (r Request) Open(ctx context.Context, open SessionFactory) (*Session, error) {
	if (r.Text == "") == (r.Image == "") {
		return nil, &ConfigError{Field: "marker", Value: r.Kind(), Err: ErrInvalidMarker}
	}
	opts, err := r.Params.Options()
	if err != nil {
		return nil, err
	}
	s, err := open(ctx, r.Source)
	if err != nil {
		return nil, err
	}
	if err := s.Configure(opts...); err != nil {
		return nil, err
	}
	if r.Text != "" {
		s.SetText(r.Text)
		return s, nil
	}
	if err := s.SetImage(r.Image); err != nil {
		return nil, err
	}
	return s, nil
}

// Kind reports which marker r carries: "text", "image", "both" or "none".
func (r Request) Kind() string {
	switch {
	case r.Text != "" && r.Image != "":
		return "both"
	case r.Text != "":
		return "text"
	case r.Image != "":
		return "image"
	}
	return "none"
}

// ParseLeadingInt reads the integer prefix of s, ignoring anything after
// it: "10cm" is 10, "-5 degree" is -5, "abc" is 0.
func ParseLeadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for i, r := range s {
		if i == 0 && (r == '-' || r == '+') {
			end = 1
			continue
		}
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			break
		}
		end = i + 1
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// ParseOffset reads an "X,Y" pair. Each side is truncated to its leading
// integer, so "10px,-4" is (10, -4).
func ParseOffset(s string) (x, y int, err error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, &ConfigError{Field: "offset", Value: s, Err: ErrInvalidOffset}
	}
	return ParseLeadingInt(xs), ParseLeadingInt(ys), nil
}

// ParseRotation reads a rotation in degrees. Direction is dropped.
func ParseRotation(s string) int {
	n := ParseLeadingInt(s)
	if n < 0 {
		return -n
	}
	return n
}

// ParseTileSize reads a "WxH" size such as "200x150".
func ParseTileSize(s string) (Size, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return Size{}, &ConfigError{Field: "tile size", Value: s, Err: ErrInvalidTileSize}
	}
	w, errW := strconv.Atoi(strings.TrimSpace(ws))
	h, errH := strconv.Atoi(strings.TrimSpace(hs))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return Size{}, &ConfigError{Field: "tile size", Value: s, Err: ErrInvalidTileSize}
	}
	return Size{Width: w, Height: h}, nil
}
