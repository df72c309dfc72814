package watermark

import (
	"slices"
	"strings"
)

// Position is one of the nine anchor points a mark can be placed at.
type Position string

const (
	TopLeft     Position = "top-left"
	Top         Position = "top"
	TopRight    Position = "top-right"
	Left        Position = "left"
	Center      Position = "center"
	Right       Position = "right"
	BottomLeft  Position = "bottom-left"
	Bottom      Position = "bottom"
	BottomRight Position = "bottom-right"
)

var positionOrder = []Position{
	TopLeft, Top, TopRight,
	Left, Center, Right,
	BottomLeft, Bottom, BottomRight,
}

// ImageMagick gravity names.
var anchors = map[Position]string{
	TopLeft:     "NorthWest",
	Top:         "North",
	TopRight:    "NorthEast",
	Left:        "West",
	Center:      "Center",
	Right:       "East",
	BottomLeft:  "SouthWest",
	Bottom:      "South",
	BottomRight: "SouthEast",
}

// Positions returns every supported position, row by row from top-left.
func Positions() []Position {
	return slices.Clone(positionOrder)
}

// Anchor returns the gravity name ImageMagick uses for p, or "" if p is
// not a supported position.
func (p Position) Anchor() string {
	return anchors[p]
}

func (p Position) Valid() bool {
	_, ok := anchors[p]
	return ok
}

// ParsePosition accepts both the public names ("top-right") and the
// gravity names ("NorthEast"), case-insensitively. Underscores and
// spaces are treated as dashes so "TOP_RIGHT" also works.
func ParsePosition(name string) (Position, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", "-", " ", "-").Replace(n)
	for _, p := range positionOrder {
		if string(p) == n || strings.ToLower(anchors[p]) == n {
			return p, nil
		}
	}
	return "", &ConfigError{Field: "position", Value: name, Err: ErrInvalidPosition}
}
