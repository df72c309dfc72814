package watermark

import "fmt"

// Family is the kind of source a builder knows how to mark.
type Family int

const (
	FamilyRaster Family = iota + 1
	FamilyDocument
)

func (f Family) String() string {
	switch f {
	case FamilyRaster:
		return "raster"
	case FamilyDocument:
		return "document"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

// Builder turns a marker, a destination and Options into one shell
// command line. Implementations are pure: the same inputs always give
// the same string.
type Builder interface {
	ImageCommand(marker, dest string, o Options) string
	TextCommand(text, dest string, o Options) string
	Family() Family
}

// NewBuilder returns the builder for family bound to source.
func NewBuilder(family Family, source string) (Builder, error) {
	switch family {
	case FamilyRaster:
		return RasterBuilder{Source: source}, nil
	case FamilyDocument:
		return DocumentBuilder{Source: source}, nil
	}
	return nil, fmt.Errorf("unknown family: %s", family)
}
