package watermark

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ShellQuote wraps s in single quotes so a POSIX shell passes it through
// as one literal word.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Text inside -draw sits in a single-quoted MVG string which itself sits
// in a double-quoted shell word.
var drawTextReplacer = strings.NewReplacer(
	`\`, `\\\\`,
	`'`, `\\'`,
	`"`, `\"`,
	`$`, `\$`,
	"`", "\\`",
)

func drawQuote(s string) string {
	return "'" + drawTextReplacer.Replace(s) + "'"
}

type offset struct {
	X, Y int
}

// dualOffset returns where the light and the dark copy of a text mark
// are drawn. The dark copy is always one pixel down and right.
func dualOffset(o Options) (light, dark offset) {
	light = offset{o.OffsetX, o.OffsetY}
	dark = offset{o.OffsetX + 1, o.OffsetY + 1}
	return light, dark
}

func dualColor(opacity float64) (light, dark string) {
	a := formatFloat(opacity)
	return "rgba(255,255,255," + a + ")", "rgba(0,0,0," + a + ")"
}

// geometry formats an offset the way ImageMagick geometry expects it,
// e.g. +10+20 or -5+0.
func geometry(p offset) string {
	return fmt.Sprintf("%+d%+d", p.X, p.Y)
}

func percent(opacity float64) string {
	return formatFloat(opacity*100) + "%"
}

// formatFloat prints the shortest decimal form, rounding away float
// noise such as 0.7*100 = 70.00000000000001.
func formatFloat(f float64) string {
	f = math.Round(f*1e10) / 1e10
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fontArgs(o Options) string {
	return "-pointsize " + strconv.Itoa(o.FontSize) + " -font " + ShellQuote(o.Font)
}
