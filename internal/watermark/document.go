package watermark

import (
	"strconv"
	"strings"
)

// DocumentBuilder builds commands for paginated sources (PDF). Pages are
// rasterized at 100 dpi. Tiling is not supported for documents and
// Options.Tiled is ignored.
type DocumentBuilder struct {
	Source string
}

const documentDensity = "100"

func (DocumentBuilder) Family() Family { return FamilyDocument }

// ImageCommand sets the marker's alpha channel to the requested opacity,
// streams it as MIFF and multiplies it over every page.
func (b DocumentBuilder) ImageCommand(marker, dest string, o Options) string {
	var sb strings.Builder
	sb.WriteString("convert " + ShellQuote(marker))
	sb.WriteString(" -alpha set -channel A -evaluate set " + percent(o.Opacity))
	sb.WriteString("  miff:- | convert -density " + documentDensity + " " + ShellQuote(b.Source) + " null: -")
	sb.WriteString(" -gravity " + o.Position.Anchor())
	sb.WriteString(" -geometry " + geometry(offset{o.OffsetX, o.OffsetY}))
	sb.WriteString(" -quality 100 -compose multiply -layers composite ")
	sb.WriteString(ShellQuote(dest))
	return sb.String()
}

// TextCommand annotates every page twice with the light and dark fill.
// Rotation is given as an NxN shear prefix of the -annotate geometry.
func (b DocumentBuilder) TextCommand(text, dest string, o Options) string {
	light, dark := dualOffset(o)
	lightColor, darkColor := dualColor(o.Opacity)
	rotate := ""
	if o.Rotation != 0 {
		r := strconv.Itoa(o.Rotation)
		rotate = r + "x" + r
	}
	t := ShellQuote(text)

	var sb strings.Builder
	sb.WriteString("convert " + ShellQuote(b.Source))
	sb.WriteString(" -gravity " + o.Position.Anchor())
	sb.WriteString(" -quality 100 -density " + documentDensity)
	sb.WriteString(" " + fontArgs(o))
	sb.WriteString(` -fill "` + lightColor + `" -annotate ` + rotate + geometry(light) + " " + t)
	sb.WriteString(` -fill "` + darkColor + `" -annotate ` + rotate + geometry(dark) + " " + t)
	sb.WriteString("  " + ShellQuote(dest))
	return sb.String()
}
