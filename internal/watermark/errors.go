package watermark

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigError.
	ErrConfiguration = errors.New("invalid watermark configuration")

	ErrInvalidPosition = errors.New("position is not supported")
	ErrInvalidOpacity  = errors.New("opacity should be a float between 0 and 1")
	ErrInvalidTileSize = errors.New("tile size must be positive")
	ErrInvalidFontSize = errors.New("font size must be positive")
	ErrInvalidStyle    = errors.New("style is not supported")
	ErrInvalidMarker   = errors.New("exactly one of text or image must be given")
	ErrInvalidOffset   = errors.New("offset must be given as X,Y")

	ErrSourceNotFound         = errors.New("source file not found")
	ErrMarkerNotFound         = errors.New("marker image not found")
	ErrDestinationNotWritable = errors.New("destination is not writable")
	ErrUnsupportedSource      = errors.New("source file type is not supported")
	ErrToolNotAvailable       = errors.New("imagemagick not found in this system")
	ErrNoMarkerSet            = errors.New("no watermark text or image set")
)

// ConfigError reports an option value rejected at assignment time.
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s %v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnsupportedSourceError carries the content type that could not be
// classified as a raster image or a paginated document.
type UnsupportedSourceError struct {
	ContentType string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("the source file type %s is not supported", e.ContentType)
}

func (e *UnsupportedSourceError) Is(target error) bool {
	return target == ErrUnsupportedSource
}
