package watermark

import (
	"strconv"
	"strings"
)

// RasterBuilder builds commands for image sources (jpeg, png, gif, ...).
type RasterBuilder struct {
	Source string
}

func (RasterBuilder) Family() Family { return FamilyRaster }

// ImageCommand composites marker over the source with a dissolve, or a
// watermark blend for StyleColorless.
func (b RasterBuilder) ImageCommand(marker, dest string, o Options) string {
	strategy := "dissolve"
	if o.Style == StyleColorless {
		strategy = "watermark"
	}
	tile := ""
	if o.Tiled {
		tile = "-tile"
	}

	var sb strings.Builder
	sb.WriteString("composite -gravity " + o.Position.Anchor())
	sb.WriteString(" -geometry " + geometry(offset{o.OffsetX, o.OffsetY}))
	sb.WriteString(" -" + strategy + " " + percent(o.Opacity))
	sb.WriteString(" " + tile)
	sb.WriteString(" " + ShellQuote(marker))
	sb.WriteString(" " + ShellQuote(b.Source))
	sb.WriteString(" " + ShellQuote(dest))
	return sb.String()
}

// TextCommand draws text twice, light then dark one pixel apart, which
// gives the bevel look. Tiled marks are rendered on a transparent tile
// and piped into composite -tile.
func (b RasterBuilder) TextCommand(text, dest string, o Options) string {
	draw := b.draw(text, o)
	if o.Tiled {
		return "convert -size " + o.TileSize.String() + " xc:none  " + fontArgs(o) +
			" -gravity " + o.Position.Anchor() + "  " + draw + "  miff:- " +
			" | composite -tile - " + ShellQuote(b.Source) + "  " + ShellQuote(dest)
	}
	return "convert " + ShellQuote(b.Source) + " " + fontArgs(o) + " " + draw + "  " + ShellQuote(dest)
}

func (b RasterBuilder) draw(text string, o Options) string {
	light, dark := dualOffset(o)
	lightColor, darkColor := dualColor(o.Opacity)
	t := drawQuote(text)

	var sb strings.Builder
	sb.WriteString(`-draw "`)
	if o.Rotation != 0 {
		sb.WriteString("rotate " + strconv.Itoa(o.Rotation))
	}
	sb.WriteString(" gravity " + o.Position.Anchor())
	sb.WriteString(` fill \"` + lightColor + `\" text ` + point(light) + " " + t)
	sb.WriteString(` fill \"` + darkColor + `\" text ` + point(dark) + " " + t)
	sb.WriteString(`"`)
	return sb.String()
}

func point(p offset) string {
	return strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y)
}
