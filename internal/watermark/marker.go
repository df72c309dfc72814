package watermark

// Marker is what gets stamped onto the source: either a TextMarker or an
// ImageMarker. No other implementations exist.
type Marker interface {
	isMarker()
	Kind() string
}

type TextMarker struct {
	Text string
}

type ImageMarker struct {
	Path string
}

func (TextMarker) isMarker()  {}
func (ImageMarker) isMarker() {}

func (TextMarker) Kind() string  { return "text" }
func (ImageMarker) Kind() string { return "image" }
