package watermark

import (
	"fmt"
	"strconv"
	"strings"
)

// Style selects how a mark is blended. Image and text styles share the
// same numeric space: 1 is the default for both.
type Style int

const (
	StyleDissolve  Style = 1
	StyleColorless Style = 2

	StyleBevel Style = 1
	StyleDark  Style = 2
	StyleLight Style = 3
)

var styleNames = map[string]Style{
	"dissolve":  StyleDissolve,
	"colorless": StyleColorless,
	"bevel":     StyleBevel,
	"dark":      StyleDark,
	"light":     StyleLight,
}

func (s Style) Valid() bool {
	return s >= StyleDissolve && s <= StyleLight
}

// String names both readings of a shared value, "dissolve|bevel" and
// "colorless|dark", since a Style alone does not say which marker it is
// for. Use Name when the marker kind is known.
func (s Style) String() string {
	switch s {
	case StyleDissolve:
		return "dissolve|bevel"
	case StyleColorless:
		return "colorless|dark"
	case StyleLight:
		return "light"
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// Name returns the style's name for a marker of the given kind ("text" or
// "image").
func (s Style) Name(kind string) string {
	if !s.Valid() {
		return s.String()
	}
	if kind == "text" {
		return [...]string{"bevel", "dark", "light"}[s-1]
	}
	switch s {
	case StyleDissolve:
		return "dissolve"
	case StyleColorless:
		return "colorless"
	}
	return "light"
}

// ParseStyle accepts a style name or its numeric value.
func ParseStyle(name string) (Style, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if s, ok := styleNames[n]; ok {
		return s, nil
	}
	if v, err := strconv.Atoi(n); err == nil && Style(v).Valid() {
		return Style(v), nil
	}
	return 0, &ConfigError{Field: "style", Value: name, Err: ErrInvalidStyle}
}
